package prompt

import "strings"

// Build assembles the single user-role message sent to the completion backend.
// The sources block arrives pre-escaped from the formatter; the question is
// embedded verbatim.
func Build(sourcesBlock, question string) string {
	var b strings.Builder

	b.WriteString("Sources: ")
	b.WriteString(sourcesBlock)
	b.WriteString("\nQuery: '")
	b.WriteString(question)
	b.WriteString("'")

	return b.String()
}
