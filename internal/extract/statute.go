package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/docuscout/docuscout/internal/corpus"
)

// StatuteExtractor finds statute and provision citations with pattern
// matching. It scans each page independently so a corrupt page never hides
// citations on other pages.
type StatuteExtractor struct{}

func (e *StatuteExtractor) Name() string { return "statutes" }

// Citation patterns. Act names are runs of capitalized words ending in a
// statutory keyword, with an optional year.
var (
	actRe = regexp.MustCompile(
		`\b(?:The\s+)?(?:[A-Z][A-Za-z&'\-]*\s+){1,7}Act(?:,?\s+(?:of\s+)?[12]\d{3})?\b`)
	regulationRe = regexp.MustCompile(
		`\b(?:The\s+)?(?:[A-Z][A-Za-z&'\-]*\s+){1,7}(?:Regulations?|Rules|Ordinance|Code)(?:,?\s+(?:of\s+)?[12]\d{3})?\b`)
	sectionRe = regexp.MustCompile(
		`\b(?:Section|Sec\.)\s+\d+[A-Z]?(?:\([0-9a-z]+\))*(?:\s+of\s+the\s+(?:[A-Z][A-Za-z&'\-]*\s+){1,7}Act(?:,?\s+[12]\d{3})?)?`)
	articleRe = regexp.MustCompile(`\bArticle\s+\d+[A-Z]?\b`)
)

func (e *StatuteExtractor) Extract(ctx context.Context, c *corpus.Corpus) (Batch, error) {
	batch := Batch{Extractor: e.Name()}

	for _, doc := range c.Documents() {
		if err := ctx.Err(); err != nil {
			return Batch{Extractor: e.Name(), Err: err.Error()}, err
		}
		seen := make(map[string]bool)
		emit := func(text, label string) {
			text = cleanCitation(text)
			if text == "" || seen[text] {
				return
			}
			seen[text] = true
			f := Finding{DocID: doc.ID, Text: text, Label: label, Confidence: 1}
			if ValidateFinding(&f) {
				batch.Findings = append(batch.Findings, f)
			}
		}
		for _, page := range doc.Pages {
			for _, m := range actRe.FindAllString(page, -1) {
				emit(m, "act")
			}
			for _, m := range regulationRe.FindAllString(page, -1) {
				emit(m, "regulation")
			}
			for _, m := range sectionRe.FindAllString(page, -1) {
				emit(m, "section")
			}
			for _, m := range articleRe.FindAllString(page, -1) {
				emit(m, "article")
			}
		}
	}
	return batch, nil
}

// cleanCitation normalizes a raw regex match: strip a leading "The ",
// trailing punctuation, and collapse internal whitespace.
func cleanCitation(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimPrefix(s, "The ")
	s = strings.TrimRight(s, " ,.;:")
	return s
}
