package prompt

import "testing"

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		sources  string
		question string
		want     string
	}{
		{
			name:     "empty sources",
			sources:  "<sources></sources>",
			question: "what is this?",
			want:     "Sources: <sources></sources>\nQuery: 'what is this?'",
		},
		{
			name:     "question with apostrophe is embedded verbatim",
			sources:  "<sources></sources>",
			question: "what's the plan?",
			want:     "Sources: <sources></sources>\nQuery: 'what's the plan?'",
		},
		{
			name:     "question with markup is not escaped",
			sources:  "<sources><result file_id='f1' filename='a.txt'><content>x</content></result></sources>",
			question: "<b>bold</b> question",
			want:     "Sources: <sources><result file_id='f1' filename='a.txt'><content>x</content></result></sources>\nQuery: '<b>bold</b> question'",
		},
		{
			name:     "multiline question",
			sources:  "<sources></sources>",
			question: "line one\nline two",
			want:     "Sources: <sources></sources>\nQuery: 'line one\nline two'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.sources, tt.question)
			if got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}
