package audit

import "strings"

// Evidence window bounds around a match, in bytes before the match start and
// after the match end.
const (
	windowBefore = 150
	windowAfter  = 250
)

// Window extracts a bounded context snippet around a match at [start,
// start+matchLen). The window is widened to the text bounds, trimmed to word
// boundaries, and flattened to a single line.
func Window(text string, start, matchLen int) string {
	lo := start - windowBefore
	if lo < 0 {
		lo = 0
	}
	hi := start + matchLen + windowAfter
	if hi > len(text) {
		hi = len(text)
	}

	// Avoid cutting words in half: advance lo to the next space, retreat hi
	// to the previous one, but never into the match itself.
	if lo > 0 {
		if i := strings.IndexAny(text[lo:start], " \n\t"); i >= 0 {
			lo += i + 1
		}
	}
	if hi < len(text) {
		if i := strings.LastIndexAny(text[start+matchLen:hi], " \n\t"); i >= 0 {
			hi = start + matchLen + i
		}
	}

	snippet := strings.Join(strings.Fields(text[lo:hi]), " ")
	if lo > 0 {
		snippet = "..." + snippet
	}
	if hi < len(text) {
		snippet += "..."
	}
	return snippet
}
