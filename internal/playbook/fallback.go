package playbook

import (
	"fmt"
	"strings"

	"github.com/docuscout/docuscout/internal/extract"
)

// BuildFallback flattens every finding from every extractor into clause
// tuples, deduplicated on the (name, type) pair. It is the degrade path when
// the primary merge fails or yields nothing: simpler, label-preserving, and
// not grouped by document. It never panics; internal faults come back as an
// error with the playbook left unset.
func BuildFallback(batches []extract.Batch) (pb *Playbook, err error) {
	defer func() {
		if r := recover(); r != nil {
			pb = nil
			err = fmt.Errorf("fallback builder: %v", r)
		}
	}()

	type key struct {
		name string
		typ  string
	}
	index := make(map[key]*Clause)
	var order []key

	for _, b := range batches {
		if b.Failed() {
			continue
		}
		for _, f := range b.Findings {
			name := strings.TrimSpace(f.Text)
			if name == "" {
				continue
			}
			k := key{name: name, typ: titleCase(f.Label)}
			clause, ok := index[k]
			if !ok {
				clause = &Clause{Name: k.name, Type: k.typ}
				index[k] = clause
				order = append(order, k)
			}
			clause.Sources = appendUnique(clause.Sources, b.Extractor)
			clause.Contexts = appendUnique(clause.Contexts, contextPrefix+f.DocID)
		}
	}

	out := &Playbook{}
	for _, k := range order {
		out.Clauses = append(out.Clauses, *index[k])
	}
	return out, nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// titleCase capitalizes each word of a label: "act" -> "Act".
func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	if len(words) == 0 {
		return "Clause"
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
