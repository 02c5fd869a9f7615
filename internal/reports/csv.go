// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"redact-qc/internal/store"
)

var csvHeader = []string{
	"filename", "page_number", "pii_type", "confidence",
	"char_offset", "char_length", "context_snippet",
}

// writeCSV exports one row per finding, ordered by filename, page, offset.
func writeCSV(path string, rows []store.BatchFinding) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Filename,
			strconv.Itoa(row.PageNumber),
			row.PIIType,
			strconv.FormatFloat(row.Confidence, 'f', 3, 64),
			strconv.Itoa(row.CharOffset),
			strconv.Itoa(row.CharLength),
			row.ContextSnippet,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}
