package corpus

import (
	"bytes"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownLoader handles Markdown files using goldmark. Each top-level
// section (heading plus its body text) becomes one page.
type MarkdownLoader struct{}

func (p *MarkdownLoader) Load(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var sections []string
	var current bytes.Buffer

	flush := func() {
		if s := current.String(); len(bytes.TrimSpace([]byte(s))) > 0 {
			sections = append(sections, s)
		}
		current.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level <= 2 {
				flush()
			}
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.Write(node.Text(src))
		default:
			t := mdText(n, src)
			if t != "" {
				if current.Len() > 0 {
					current.WriteString("\n\n")
				}
				current.WriteString(t)
			}
		}
	}
	flush()

	return &Document{ID: filename, Pages: sections}, nil
}

// mdText gets the text content of a goldmark AST node. Blocks with source
// lines (paragraphs, code blocks) use the raw lines; container blocks like
// lists and quotes recurse into their children.
func mdText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return string(bytes.TrimSpace(buf.Bytes()))
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := mdText(c, src); t != "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(t)
		}
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}
