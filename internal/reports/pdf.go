// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package reports

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"redact-qc/internal/pii"
	"redact-qc/internal/store"
)

// writePDF renders the summary report through the PDF toolkit's
// create-from-JSON path: the page description is staged as a temp JSON
// file and handed to the creator.
func (g *Generator) writePDF(path string, batch *store.Batch, rows []store.BatchFinding) error {
	desc, err := buildPDFDescription(batch, rows)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(g.dir, "redactqc-report-*.json")
	if err != nil {
		return fmt.Errorf("staging report description: %w", err)
	}
	jsonPath := tmp.Name()
	defer func() { _ = os.Remove(jsonPath) }()

	if _, err := tmp.Write(desc); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := api.CreateFile("", jsonPath, path, nil); err != nil {
		return fmt.Errorf("rendering report pdf: %w", err)
	}
	return nil
}

// pdfText is one positioned text element of the page description.
type pdfText struct {
	Value    string   `json:"value"`
	Position [2]int   `json:"position"`
	Font     *pdfFont `json:"font,omitempty"`
}

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

const (
	pdfLineStep = 18
	pdfTopY     = 760
	pdfBottomY  = 60
	pdfLeftX    = 50
)

// buildPDFDescription lays out the summary: batch header, totals, and the
// per-type distribution, flowing onto additional pages as needed.
func buildPDFDescription(batch *store.Batch, rows []store.BatchFinding) ([]byte, error) {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.PIIType]++
	}

	lines := []string{
		fmt.Sprintf("Batch: %s", batch.Name),
		fmt.Sprintf("Source: %s", batch.SourcePath),
		fmt.Sprintf("Created: %s", batch.CreatedAt.Format("2006-01-02 15:04 UTC")),
		fmt.Sprintf("Status: %s", batch.Status),
		"",
		fmt.Sprintf("Documents scanned: %d of %d", batch.ProcessedDocs, batch.TotalDocs),
		fmt.Sprintf("Documents with findings: %d", batch.DocsWithFindings),
		fmt.Sprintf("Total findings: %d", len(rows)),
		"",
		"Findings by type (severity):",
	}
	for _, cat := range pii.Categories {
		if n := counts[cat.PIIType]; n > 0 {
			lines = append(lines, fmt.Sprintf("  %-22s %5d   (severity %d)", cat.PIIType, n, cat.Severity))
		}
	}

	type pageContent struct {
		Text []pdfText `json:"text"`
	}
	type page struct {
		Content pageContent `json:"content"`
	}

	pages := make(map[string]page)
	pageNum := 1
	y := pdfTopY
	current := page{Content: pageContent{Text: []pdfText{{
		Value:    "RedactQC Scan Report",
		Position: [2]int{pdfLeftX, pdfTopY + 30},
		Font:     &pdfFont{Name: "Helvetica-Bold", Size: 18},
	}}}}

	flush := func() {
		pages[fmt.Sprintf("%d", pageNum)] = current
		pageNum++
		y = pdfTopY
		current = page{}
	}
	for _, line := range lines {
		if line != "" {
			current.Content.Text = append(current.Content.Text, pdfText{
				Value:    line,
				Position: [2]int{pdfLeftX, y},
				Font:     &pdfFont{Name: "Courier", Size: 10},
			})
		}
		y -= pdfLineStep
		if y < pdfBottomY {
			flush()
		}
	}
	if len(current.Content.Text) > 0 || len(pages) == 0 {
		flush()
	}

	doc := map[string]interface{}{
		"paper":  "A4",
		"origin": "lowerLeft",
		"pages":  pages,
	}
	return json.MarshalIndent(doc, "", "  ")
}
