package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// pageBreakY is the cursor height after which a new page is started.
const pageBreakY = 260

// PDF renders v as an A4 document using the core Arial font. Text outside
// cp1252 is transliterated by gofpdf's translator.
func PDF(v View) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("API Security Scan Report", true)
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "External API Security Scan Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Target: %s", v.Target)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Scanner: apiprobe %s", v.ScannerVersion)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Run: %s (%s)", v.RunID, v.Status), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Started: %s | Completed: %s", v.StartedAt, v.CompletedAt), "", 1, "", false, 0, "")
	pdf.Ln(4)

	// Summary
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Overall Result", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Confidence Score: %s   Grade: %s", v.Score, v.Grade), "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Tests: %d | Passed: %d | Failed: %d",
		v.TestsTotal, v.TestsPassed, v.TestsFailed), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Findings: %d (Critical %d, High %d, Medium %d, Low %d, Info %d)",
		v.FindingsCount, v.Tally.Critical, v.Tally.High, v.Tally.Medium, v.Tally.Low, v.Tally.Info), "", 1, "", false, 0, "")
	pdf.Ln(4)

	if len(v.Categories) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Category Scores", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(60, 6, "Category", "1", 0, "", true, 0, "")
		pdf.CellFormat(30, 6, "Score", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 6, "Result", "1", 1, "C", true, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, c := range v.Categories {
			pdf.CellFormat(60, 6, c.Name, "1", 0, "", false, 0, "")
			pdf.CellFormat(30, 6, c.Score+"/100", "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%s %d/%d", c.Mark, c.Passed, c.Total), "1", 1, "C", false, 0, "")
		}
		pdf.Ln(4)
	}

	if len(v.Findings) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Findings", "", 1, "", false, 0, "")
		for _, f := range v.Findings {
			if pdf.GetY() > pageBreakY {
				pdf.AddPage()
			}
			pdf.SetFont("Arial", "B", 10)
			r, g, b := severityFill(f.Severity)
			pdf.SetFillColor(r, g, b)
			pdf.CellFormat(0, 7, tr(fmt.Sprintf("%d. [%s] %s", f.Index, f.Severity, f.Title)), "", 1, "", true, 0, "")

			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("Category: %s | Endpoint: %s | CVSS: %s", f.Category, f.Endpoint, f.CVSS)), "", "", false)
			pdf.MultiCell(0, 5, tr("Description: "+f.Description), "", "", false)
			if f.MITRE != "" || f.OWASP != "" {
				pdf.MultiCell(0, 5, fmt.Sprintf("MITRE ATT&CK: %s | OWASP: %s", orDash(f.MITRE), orDash(f.OWASP)), "", "", false)
			}
			pdf.SetFont("Courier", "", 8)
			pdf.MultiCell(0, 4, tr("Evidence: "+f.Evidence), "", "", false)
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, tr("Remediation: "+f.Remediation), "", "", false)
			pdf.Ln(2)
		}
		pdf.Ln(2)
	}

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Test Details", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(8, 6, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(62, 6, "Test", "1", 0, "", true, 0, "")
	pdf.CellFormat(22, 6, "Category", "1", 0, "", true, 0, "")
	pdf.CellFormat(12, 6, "Result", "1", 0, "C", true, 0, "")
	pdf.CellFormat(10, 6, "Req", "1", 0, "C", true, 0, "")
	pdf.CellFormat(76, 6, "Details", "1", 1, "", true, 0, "")
	pdf.SetFont("Arial", "", 7)
	for _, r := range v.Results {
		if pdf.GetY() > 275 {
			pdf.AddPage()
		}
		result := "FAIL"
		if r.Passed {
			result = "PASS"
		}
		pdf.CellFormat(8, 5, fmt.Sprintf("%d", r.Index), "1", 0, "C", false, 0, "")
		pdf.CellFormat(62, 5, tr(Truncate(r.TestName, 48)), "1", 0, "", false, 0, "")
		pdf.CellFormat(22, 5, r.Category, "1", 0, "", false, 0, "")
		pdf.CellFormat(12, 5, result, "1", 0, "C", false, 0, "")
		pdf.CellFormat(10, 5, fmt.Sprintf("%d", r.Requests), "1", 0, "C", false, 0, "")
		pdf.SetFont("Arial", "", 6)
		pdf.CellFormat(76, 5, tr(r.Details), "1", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 7)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, tr(v.Summary), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func severityFill(severity string) (int, int, int) {
	switch severity {
	case "CRITICAL":
		return 248, 200, 200
	case "HIGH":
		return 252, 222, 196
	case "MEDIUM":
		return 252, 240, 196
	case "LOW":
		return 214, 228, 248
	default:
		return 236, 236, 236
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
