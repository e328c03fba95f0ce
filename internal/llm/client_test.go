package llm

import "testing"

func TestStripCodeBlock(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n[1, 2]\n```", "[1, 2]"},
		{"surrounding whitespace", "  ```json\n{}\n```  ", "{}"},
		{"fence mid-text left alone", "prefix ```json\n{}\n```", "prefix ```json\n{}\n```"},
		{"empty", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := StripCodeBlock(c.in); got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}
