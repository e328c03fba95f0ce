package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleReport() *Report {
	return &Report{
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Sections: []DocSection{
			{DocID: "employment.pdf", Findings: []Finding{
				{DocID: "employment.pdf", LawName: "Minimum Wages Act", Verdict: VerdictWarning,
					Rationale: "A recent amendment was identified.",
					Evidence:  "...pay wages under the Minimum Wages Act...",
					Citation:  "https://egazette.nic.in/1"},
			}},
			{DocID: "lease.pdf", Findings: []Finding{
				{DocID: "lease.pdf", LawName: "Registration Act", Verdict: VerdictCompliant,
					Rationale: "No recent amendments."},
			}},
		},
		Summary: Summary{Documents: 2, Laws: 2, Warnings: 1, Compliant: 1},
	}
}

func TestRender_GroupedByDocument(t *testing.T) {
	out := Render(sampleReport())

	if !strings.HasPrefix(out, "# Risk Audit Report") {
		t.Error("missing title")
	}
	empIdx := strings.Index(out, "## employment.pdf")
	leaseIdx := strings.Index(out, "## lease.pdf")
	if empIdx < 0 || leaseIdx < 0 || empIdx > leaseIdx {
		t.Errorf("sections missing or out of order: %d %d", empIdx, leaseIdx)
	}
	lawIdx := strings.Index(out, "Minimum Wages Act")
	if lawIdx < empIdx || lawIdx > leaseIdx {
		t.Error("finding not rendered inside its document section")
	}
	if !strings.Contains(out, "> ...pay wages under the Minimum Wages Act...") {
		t.Error("evidence must render as a blockquote")
	}
	if !strings.Contains(out, "Source: https://egazette.nic.in/1") {
		t.Error("missing citation line")
	}
	if !strings.Contains(out, "- Warnings: 1") {
		t.Error("missing summary counts")
	}
}

func TestRender_VerdictIcons(t *testing.T) {
	out := Render(sampleReport())
	if !strings.Contains(out, "⚠️ Minimum Wages Act") {
		t.Error("warning icon missing")
	}
	if !strings.Contains(out, "✅ Registration Act") {
		t.Error("compliant icon missing")
	}
}

func TestWriteReport_OverwritesWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_audit_report.md")
	if err := os.WriteFile(path, []byte("# Stale Report\nlots of old findings\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteReport(sampleReport(), path, discardLogger()); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "Stale Report") {
		t.Error("prior report content must be fully replaced")
	}
	if !strings.HasPrefix(string(data), "# Risk Audit Report") {
		t.Errorf("unexpected report content: %.60s", data)
	}
}
