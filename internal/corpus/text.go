package corpus

import (
	"bufio"
	"io"
	"strings"
)

// TextLoader handles plain text files. Paragraphs separated by blank lines
// are grouped into pages of roughly pageSize characters so downstream
// consumers see the same page-segmented shape as PDFs.
type TextLoader struct{}

const textPageSize = 3000

func (p *TextLoader) Load(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Document{ID: filename, Pages: paginate(paragraphs, textPageSize)}, nil
}

// paginate groups paragraphs into pages of approximately limit characters.
// A single oversized paragraph still becomes its own page.
func paginate(paragraphs []string, limit int) []string {
	var pages []string
	var page strings.Builder
	for _, para := range paragraphs {
		if page.Len() > 0 && page.Len()+len(para) > limit {
			pages = append(pages, page.String())
			page.Reset()
		}
		if page.Len() > 0 {
			page.WriteString("\n\n")
		}
		page.WriteString(para)
	}
	if page.Len() > 0 {
		pages = append(pages, page.String())
	}
	return pages
}
