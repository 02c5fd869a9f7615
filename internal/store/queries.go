// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"gorm.io/gorm"
)

// Pagination bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Pagination is a 1-based page request. Zero values take the defaults.
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) normalize() (page, size int) {
	page, size = p.Page, p.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// DocumentFilter narrows and orders a document listing.
type DocumentFilter struct {
	Status        string
	PIIType       string
	MinConfidence *float64
	HasFindings   *bool
	SortBy        string // filename, status, finding_count, processed_at
	SortOrder     string // asc, desc
}

var documentSortColumns = map[string]string{
	"filename":      "filename",
	"status":        "status",
	"finding_count": "finding_count",
	"processed_at":  "processed_at",
}

// FindingFilter narrows a finding listing.
type FindingFilter struct {
	PIIType       string
	MinConfidence *float64
}

// DocumentPage is one page of a document listing.
type DocumentPage struct {
	Items    []Document `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// FindingPage is one page of a finding listing.
type FindingPage struct {
	Items    []Finding `json:"items"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// ListDocuments returns one page of a batch's documents. Unknown sort keys
// fall back to filename ascending.
func (s *Store) ListDocuments(batchID string, f DocumentFilter, pg Pagination) (*DocumentPage, error) {
	if _, err := s.GetBatch(batchID); err != nil {
		return nil, err
	}

	q := s.db.Model(&Document{}).Where("batch_id = ?", batchID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.HasFindings != nil {
		if *f.HasFindings {
			q = q.Where("finding_count > 0")
		} else {
			q = q.Where("finding_count = 0")
		}
	}
	if f.PIIType != "" || f.MinConfidence != nil {
		sub := s.db.Model(&Finding{}).Select("1").
			Where("findings.document_id = documents.id")
		if f.PIIType != "" {
			sub = sub.Where("findings.pii_type = ?", f.PIIType)
		}
		if f.MinConfidence != nil {
			sub = sub.Where("findings.confidence >= ?", *f.MinConfidence)
		}
		q = q.Where("EXISTS (?)", sub)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, mapErr(err)
	}

	col, ok := documentSortColumns[f.SortBy]
	if !ok {
		col = "filename"
	}
	dir := "ASC"
	if f.SortOrder == "desc" {
		dir = "DESC"
	}

	page, size := pg.normalize()
	var docs []Document
	err := q.Order(col + " " + dir + ", id").
		Offset((page - 1) * size).Limit(size).
		Find(&docs).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &DocumentPage{Items: docs, Total: total, Page: page, PageSize: size}, nil
}

// ListFindings returns one page of a document's findings in reading order.
func (s *Store) ListFindings(docID string, f FindingFilter, pg Pagination) (*FindingPage, error) {
	if _, err := s.GetDocument(docID); err != nil {
		return nil, err
	}

	q := s.db.Model(&Finding{}).Where("document_id = ?", docID)
	if f.PIIType != "" {
		q = q.Where("pii_type = ?", f.PIIType)
	}
	if f.MinConfidence != nil {
		q = q.Where("confidence >= ?", *f.MinConfidence)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, mapErr(err)
	}

	page, size := pg.normalize()
	var findings []Finding
	err := q.Order("page_number, char_offset, id").
		Offset((page - 1) * size).Limit(size).
		Find(&findings).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &FindingPage{Items: findings, Total: total, Page: page, PageSize: size}, nil
}

// BatchFinding is a finding joined with its document's filename, used by
// batch-level report exports.
type BatchFinding struct {
	Finding
	Filename string `json:"filename"`
}

// FindingsForBatch returns every finding in a batch ordered by filename,
// page, then offset.
func (s *Store) FindingsForBatch(batchID string) ([]BatchFinding, error) {
	var rows []BatchFinding
	err := s.db.Model(&Finding{}).
		Select("findings.*, documents.filename AS filename").
		Joins("JOIN documents ON documents.id = findings.document_id").
		Where("documents.batch_id = ?", batchID).
		Order("documents.filename, findings.page_number, findings.char_offset").
		Scan(&rows).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return rows, nil
}

// Stats is the global dashboard summary.
type Stats struct {
	TotalBatches     int64 `json:"total_batches"`
	TotalDocuments   int64 `json:"total_documents"`
	TotalFindings    int64 `json:"total_findings"`
	DocsWithFindings int64 `json:"docs_with_findings"`
}

// GlobalStats returns the dashboard totals across all batches.
func (s *Store) GlobalStats() (*Stats, error) {
	var st Stats
	counts := []struct {
		model interface{}
		dst   *int64
		cond  func(*gorm.DB) *gorm.DB
	}{
		{&Batch{}, &st.TotalBatches, nil},
		{&Document{}, &st.TotalDocuments, nil},
		{&Finding{}, &st.TotalFindings, nil},
		{&Document{}, &st.DocsWithFindings, func(q *gorm.DB) *gorm.DB {
			return q.Where("finding_count > 0")
		}},
	}
	for _, c := range counts {
		q := s.db.Model(c.model)
		if c.cond != nil {
			q = c.cond(q)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, mapErr(err)
		}
	}
	return &st, nil
}

// PIITypeStat is one row of the type distribution.
type PIITypeStat struct {
	PIIType       string  `gorm:"column:pii_type" json:"pii_type"`
	Count         int64   `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// PIITypeDistribution returns finding counts and mean confidence per
// pii_type, most frequent first. A batchID of "" spans all batches.
func (s *Store) PIITypeDistribution(batchID string) ([]PIITypeStat, error) {
	q := s.db.Model(&Finding{}).
		Select("findings.pii_type AS pii_type, COUNT(*) AS count, AVG(findings.confidence) AS avg_confidence").
		Group("findings.pii_type").
		Order("count DESC, pii_type")
	if batchID != "" {
		q = q.Joins("JOIN documents ON documents.id = findings.document_id").
			Where("documents.batch_id = ?", batchID)
	}
	var stats []PIITypeStat
	if err := q.Scan(&stats).Error; err != nil {
		return nil, mapErr(err)
	}
	return stats, nil
}
