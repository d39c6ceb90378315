package sources

import (
	"html"
	"strconv"
	"strings"

	"sight-gateway/pkg/retrieval"
)

// Format serializes ranked hits into a <sources> XML fragment safe to embed in
// a model prompt. Each hit becomes a <result> record carrying file_id,
// filename and (when present) a 4-decimal score, with one <content> body
// truncated to maxChars characters. Attribute values and bodies are escaped so
// retrieved text cannot break out of its tags.
//
// Pure function: same hits and maxChars always produce byte-identical output,
// and hit order is preserved.
func Format(hits []retrieval.Hit, maxChars int) string {
	var b strings.Builder

	b.WriteString("<sources>")
	for _, h := range hits {
		fileId := ""
		if h.FileId != nil {
			fileId = *h.FileId
		}

		b.WriteString("<result file_id='")
		b.WriteString(html.EscapeString(fileId))
		b.WriteString("' filename='")
		b.WriteString(html.EscapeString(h.Filename))
		b.WriteString("'")
		if h.Score != nil {
			b.WriteString(" score='")
			b.WriteString(html.EscapeString(formatScore(*h.Score)))
			b.WriteString("'")
		}
		b.WriteString(">")

		b.WriteString("<content>")
		b.WriteString(html.EscapeString(truncate(h.Text, maxChars)))
		b.WriteString("</content></result>")
	}
	b.WriteString("</sources>")

	return b.String()
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 4, 64)
}

// truncate keeps the first max characters (code points, not bytes).
func truncate(text string, max int) string {
	if max < 0 {
		max = 0
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
