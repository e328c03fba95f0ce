package audit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Contradiction detection compares typed numeric constraints (currency
// amounts, percentages) between a document's evidence snippet and the
// amendment described in the compliance record. When both sides carry a
// comparable value of the same kind and the document's value falls below the
// amendment's, the clause contradicts the amended requirement.

var (
	currencyRe = regexp.MustCompile(
		`(?i)(?:rs\.?|₹|inr)\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(lakhs?|crores?|thousand|k\b)?`)
	percentRe = regexp.MustCompile(
		`([0-9]+(?:\.[0-9]+)?)\s*(?:%|per\s?cent)`)
)

// DetectContradiction reports whether the evidence text numerically
// contradicts the amendment text, with a human-readable rationale.
func DetectContradiction(evidence, amendment string) (bool, string) {
	if strings.TrimSpace(evidence) == "" || strings.TrimSpace(amendment) == "" {
		return false, ""
	}

	docAmt, docHasAmt := maxCurrency(evidence)
	amendAmt, amendHasAmt := maxCurrency(amendment)
	if docHasAmt && amendHasAmt && docAmt < amendAmt {
		return true, fmt.Sprintf(
			"Document specifies %s but the amendment requires %s.",
			formatAmount(docAmt), formatAmount(amendAmt))
	}

	docPct, docHasPct := maxPercent(evidence)
	amendPct, amendHasPct := maxPercent(amendment)
	if docHasPct && amendHasPct && docPct < amendPct {
		return true, fmt.Sprintf(
			"Document specifies %.4g%% but the amendment requires %.4g%%.",
			docPct, amendPct)
	}

	return false, ""
}

// maxCurrency returns the largest currency amount in the text, normalized to
// rupees. Indian multipliers (lakh, crore) are expanded.
func maxCurrency(text string) (float64, bool) {
	var max float64
	found := false
	for _, m := range currencyRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(m[2])) {
		case "lakh", "lakhs":
			v *= 1e5
		case "crore", "crores":
			v *= 1e7
		case "thousand", "k":
			v *= 1e3
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	return max, found
}

func maxPercent(text string) (float64, bool) {
	var max float64
	found := false
	for _, m := range percentRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	return max, found
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("Rs. %d", int64(v))
	}
	return fmt.Sprintf("Rs. %.2f", v)
}
