package audit

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/docuscout/docuscout/internal/atomicfile"
)

var verdictIcons = map[Verdict]string{
	VerdictViolation: "❌",
	VerdictWarning:   "⚠️",
	VerdictCompliant: "✅",
	VerdictNotFound:  "❓",
}

// Render produces the markdown report grouped by document.
func Render(r *Report) string {
	var sb strings.Builder
	sb.WriteString("# Risk Audit Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- Documents audited: %d\n", r.Summary.Documents))
	sb.WriteString(fmt.Sprintf("- Laws checked: %d\n", r.Summary.Laws))
	sb.WriteString(fmt.Sprintf("- Violations: %d\n", r.Summary.Violations))
	sb.WriteString(fmt.Sprintf("- Warnings: %d\n", r.Summary.Warnings))
	sb.WriteString(fmt.Sprintf("- Compliant: %d\n", r.Summary.Compliant))
	sb.WriteString(fmt.Sprintf("- Not found: %d\n", r.Summary.NotFound))

	for _, section := range r.Sections {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", section.DocID))
		for _, f := range section.Findings {
			icon := verdictIcons[f.Verdict]
			sb.WriteString(fmt.Sprintf("### %s %s — %s\n\n", icon, f.LawName, f.Verdict))
			sb.WriteString(f.Rationale)
			sb.WriteString("\n")
			if f.Evidence != "" {
				sb.WriteString(fmt.Sprintf("\n> %s\n", f.Evidence))
			}
			if f.Citation != "" {
				sb.WriteString(fmt.Sprintf("\nSource: %s\n", f.Citation))
			}
		}
	}
	return sb.String()
}

// WriteReport renders and atomically replaces the report file. Any prior
// report is overwritten whole; a failed write leaves it untouched.
func WriteReport(r *Report, path string, log *slog.Logger) error {
	if err := atomicfile.WriteFile(path, []byte(Render(r)), 0o644); err != nil {
		return fmt.Errorf("write audit report: %w", err)
	}
	log.Info("wrote audit report", "path", path,
		"documents", r.Summary.Documents,
		"violations", r.Summary.Violations,
		"warnings", r.Summary.Warnings)
	return nil
}
