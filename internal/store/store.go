// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package store persists batches, documents and findings in a single-file
// SQLite database. Writes are serialized behind an internal mutex; reads
// run concurrently on the pooled connection.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"redact-qc/internal/ids"
)

// Sentinel errors callers branch on.
var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrBusy is returned when SQLite reports the database locked after
	// the 5 s busy timeout.
	ErrBusy = errors.New("store busy")
	// ErrConflict is returned when an operation is invalid for the
	// entity's current state.
	ErrConflict = errors.New("conflict")
)

// Store wraps the SQLite database. Safe for concurrent use.
type Store struct {
	db  *gorm.DB
	log hclog.Logger

	// writeMu serializes all writers and guards claimed.
	writeMu sync.Mutex
	claimed map[string]struct{}
}

// Open opens (creating if needed) the database at dbPath and migrates it to
// the current schema. The parent directory is created with mode 0700.
func Open(dbPath string, log hclog.Logger) (*Store, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	s := &Store{
		db:      db,
		log:     log.Named("store"),
		claimed: make(map[string]struct{}),
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	s.log.Debug("store opened", "path", dbPath)
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mapErr converts driver and GORM errors to the store's sentinel errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked") {
		return fmt.Errorf("%w: %s", ErrBusy, msg)
	}
	return err
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// CreateBatch inserts a new batch. A missing ID or CreatedAt is filled in.
func (s *Store) CreateBatch(b *Batch) error {
	if b.ID == "" {
		b.ID = ids.New()
	}
	if b.Status == "" {
		b.Status = BatchPending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = nowUTC()
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return mapErr(s.db.Create(b).Error)
}

// InsertDocuments inserts the batch's document inventory in one transaction
// and sets total_docs to the resulting count. Documents start pending.
func (s *Store) InsertDocuments(batchID string, docs []Document) error {
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = ids.New()
		}
		docs[i].BatchID = batchID
		docs[i].Status = DocPending
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var batch Batch
		if err := tx.First(&batch, "id = ?", batchID).Error; err != nil {
			return err
		}
		if len(docs) > 0 {
			if err := tx.CreateInBatches(docs, 100).Error; err != nil {
				return err
			}
		}
		return tx.Model(&Batch{}).Where("id = ?", batchID).
			Update("total_docs", tx.Model(&Document{}).Where("batch_id = ?", batchID).Select("COUNT(*)")).Error
	})
	return mapErr(err)
}

// SetBatchStatus transitions a batch's lifecycle state.
func (s *Store) SetBatchStatus(batchID, status string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	res := s.db.Model(&Batch{}).Where("id = ?", batchID).Update("status", status)
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimNextPending atomically hands out the next unclaimed pending document
// of a batch, or (nil, nil) when none remain. Claims are process-local: a
// restart releases them, so interrupted documents are simply re-claimed on
// resume.
func (s *Store) ClaimNextPending(batchID string) (*Document, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var docs []Document
	err := s.db.Where("batch_id = ? AND status = ?", batchID, DocPending).
		Order("filename, id").Find(&docs).Error
	if err != nil {
		return nil, mapErr(err)
	}
	for i := range docs {
		if _, taken := s.claimed[docs[i].ID]; taken {
			continue
		}
		s.claimed[docs[i].ID] = struct{}{}
		return &docs[i], nil
	}
	return nil, nil
}

// ReleaseClaims drops all process-local claims for a batch. Called when a
// scan is cancelled so the documents become claimable again.
func (s *Store) ReleaseClaims(docIDs []string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, id := range docIDs {
		delete(s.claimed, id)
	}
}

// RecordDocumentResult commits the outcome of processing one document in a
// single transaction: prior findings are deleted, the new findings inserted,
// the document updated, and the batch counters recomputed. Counters are
// exact after every commit. An error outcome carries no findings.
func (s *Store) RecordDocumentResult(docID string, pageCount int, status string, findings []Finding) error {
	if status != DocCompleted && status != DocError {
		return fmt.Errorf("%w: invalid document outcome %q", ErrConflict, status)
	}
	if status == DocError && len(findings) > 0 {
		return fmt.Errorf("%w: error outcome cannot carry findings", ErrConflict)
	}
	for i := range findings {
		if findings[i].ID == "" {
			findings[i].ID = ids.New()
		}
		findings[i].DocumentID = docID
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var doc Document
		if err := tx.First(&doc, "id = ?", docID).Error; err != nil {
			return err
		}

		if err := tx.Where("document_id = ?", docID).Delete(&Finding{}).Error; err != nil {
			return err
		}
		if len(findings) > 0 {
			if err := tx.CreateInBatches(findings, 100).Error; err != nil {
				return err
			}
		}

		processedAt := nowUTC()
		updates := map[string]interface{}{
			"status":        status,
			"page_count":    pageCount,
			"finding_count": len(findings),
			"processed_at":  &processedAt,
		}
		if err := tx.Model(&Document{}).Where("id = ?", docID).Updates(updates).Error; err != nil {
			return err
		}

		return tx.Model(&Batch{}).Where("id = ?", doc.BatchID).Updates(map[string]interface{}{
			"processed_docs": gorm.Expr(
				"(SELECT COUNT(*) FROM documents WHERE batch_id = ? AND status IN (?, ?))",
				doc.BatchID, DocCompleted, DocError),
			"docs_with_findings": gorm.Expr(
				"(SELECT COUNT(*) FROM documents WHERE batch_id = ? AND finding_count > 0)",
				doc.BatchID),
		}).Error
	})
	if err != nil {
		return mapErr(err)
	}
	delete(s.claimed, docID)
	return nil
}

// GetBatch returns one batch by id.
func (s *Store) GetBatch(id string) (*Batch, error) {
	var b Batch
	if err := s.db.First(&b, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

// ListBatches returns all batches, newest first.
func (s *Store) ListBatches() ([]Batch, error) {
	var batches []Batch
	if err := s.db.Order("created_at DESC, id").Find(&batches).Error; err != nil {
		return nil, mapErr(err)
	}
	return batches, nil
}

// DeleteBatch removes a batch with its documents and findings.
func (s *Store) DeleteBatch(id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var b Batch
		if err := tx.First(&b, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id IN (?)",
			tx.Model(&Document{}).Select("id").Where("batch_id = ?", id),
		).Delete(&Finding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("batch_id = ?", id).Delete(&Document{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Batch{}, "id = ?", id).Error
	})
	return mapErr(err)
}

// GetDocument returns one document by id.
func (s *Store) GetDocument(id string) (*Document, error) {
	var d Document
	if err := s.db.First(&d, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

// PendingDocuments returns the ids of a batch's documents that still need
// processing, pending first, then errored ones (for resume).
func (s *Store) PendingDocuments(batchID string) ([]Document, error) {
	var docs []Document
	err := s.db.Where("batch_id = ? AND status IN (?, ?)", batchID, DocPending, DocError).
		Order("filename, id").Find(&docs).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return docs, nil
}

// ResetDocuments returns errored documents of a batch to pending so a resume
// pass picks them up again.
func (s *Store) ResetDocuments(batchID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	err := s.db.Model(&Document{}).
		Where("batch_id = ? AND status = ?", batchID, DocError).
		Update("status", DocPending).Error
	return mapErr(err)
}
