package corpus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is one source file with its extracted text, page-segmented.
// Documents are read-only once loaded: extractors and the auditor consume
// the same pages without copying.
type Document struct {
	ID    string   // stable filename key, e.g. "LeaseOffice.pdf"
	Pages []string // extracted plain text, one entry per page
}

// FullText joins all pages with form feeds, matching the page separator
// used by the PDF loader.
func (d *Document) FullText() string {
	return strings.Join(d.Pages, "\f")
}

// Corpus is an ordered collection of documents addressed by ID.
type Corpus struct {
	docs  []*Document
	index map[string]*Document
}

func New() *Corpus {
	return &Corpus{index: make(map[string]*Document)}
}

// Add appends a document. A second document with the same ID replaces
// the first (last-writer-wins, matching artifact overwrite semantics).
func (c *Corpus) Add(doc *Document) {
	if existing, ok := c.index[doc.ID]; ok {
		for i, d := range c.docs {
			if d == existing {
				c.docs[i] = doc
				break
			}
		}
	} else {
		c.docs = append(c.docs, doc)
	}
	c.index[doc.ID] = doc
}

// Get returns the document with the given ID, or nil.
func (c *Corpus) Get(id string) *Document {
	return c.index[id]
}

// Documents returns the documents in insertion order.
func (c *Corpus) Documents() []*Document {
	return c.docs
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Loader converts raw document bytes into a page-segmented Document.
type Loader interface {
	Load(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions the corpus can handle.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string) (Loader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	case ".pdf":
		return &PDFLoader{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// LoadDir reads every supported file in dir into a corpus. Files that fail
// to load are skipped and reported in the returned error map; loading never
// aborts on a single bad file.
func LoadDir(dir string) (*Corpus, map[string]error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read corpus dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsSupportedExtension(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	c := New()
	failures := make(map[string]error)
	for _, name := range names {
		doc, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			failures[name] = err
			continue
		}
		c.Add(doc)
	}
	return c, failures, nil
}

// LoadFile loads a single document from disk.
func LoadFile(path string) (*Document, error) {
	filename := filepath.Base(path)
	loader, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return loader.Load(f, filename)
}
