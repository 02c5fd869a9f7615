// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package query is the read side of the dashboard: projections over the
// store with no write access.
package query

import (
	"redact-qc/internal/store"
)

// Service exposes the read-only projections the dashboard consumes.
type Service struct {
	store *store.Store
}

// New builds the query service.
func New(st *store.Store) *Service {
	return &Service{store: st}
}

// Overview is the dashboard landing payload: global totals plus the
// finding distribution across all batches.
type Overview struct {
	Stats        *store.Stats        `json:"stats"`
	Distribution []store.PIITypeStat `json:"pii_type_distribution"`
}

// Overview assembles the global dashboard summary.
func (s *Service) Overview() (*Overview, error) {
	stats, err := s.Stats()
	if err != nil {
		return nil, err
	}
	dist, err := s.Distribution()
	if err != nil {
		return nil, err
	}
	return &Overview{Stats: stats, Distribution: dist}, nil
}

// Stats returns the global totals.
func (s *Service) Stats() (*store.Stats, error) {
	return s.store.GlobalStats()
}

// Distribution returns the finding distribution by type across all batches.
func (s *Service) Distribution() ([]store.PIITypeStat, error) {
	return s.store.PIITypeDistribution("")
}

// ListBatches returns all batches, newest first.
func (s *Service) ListBatches() ([]store.Batch, error) {
	return s.store.ListBatches()
}

// GetBatch returns one batch.
func (s *Service) GetBatch(id string) (*store.Batch, error) {
	return s.store.GetBatch(id)
}

// BatchDistribution returns the finding distribution within one batch.
func (s *Service) BatchDistribution(batchID string) ([]store.PIITypeStat, error) {
	if _, err := s.store.GetBatch(batchID); err != nil {
		return nil, err
	}
	return s.store.PIITypeDistribution(batchID)
}

// ListDocuments returns one page of a batch's documents.
func (s *Service) ListDocuments(batchID string, filter store.DocumentFilter, pg store.Pagination) (*store.DocumentPage, error) {
	return s.store.ListDocuments(batchID, filter, pg)
}

// GetDocument returns one document.
func (s *Service) GetDocument(id string) (*store.Document, error) {
	return s.store.GetDocument(id)
}

// ListFindings returns one page of a document's findings in reading order.
func (s *Service) ListFindings(docID string, filter store.FindingFilter, pg store.Pagination) (*store.FindingPage, error) {
	return s.store.ListFindings(docID, filter, pg)
}

// Categories returns the severity reference set.
func (s *Service) Categories() ([]store.PIICategory, error) {
	return s.store.ListCategories()
}
