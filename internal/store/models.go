// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import "time"

// Batch lifecycle states. A cancelled scan finalizes as completed with
// its untouched documents left pending for resume.
const (
	BatchPending    = "pending"
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchError      = "error"
)

// Document lifecycle states.
const (
	DocPending   = "pending"
	DocCompleted = "completed"
	DocError     = "error"
)

// Batch is one scan of a source folder.
type Batch struct {
	ID               string    `gorm:"primaryKey;size:32" json:"id"`
	Name             string    `json:"name"`
	SourcePath       string    `json:"source_path"`
	Status           string    `gorm:"index;default:pending" json:"status"`
	TotalDocs        int       `json:"total_docs"`
	ProcessedDocs    int       `json:"processed_docs"`
	DocsWithFindings int       `json:"docs_with_findings"`
	CreatedAt        time.Time `json:"created_at"`

	Documents []Document `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Document is one PDF inside a batch.
type Document struct {
	ID           string     `gorm:"primaryKey;size:32" json:"id"`
	BatchID      string     `gorm:"index;size:32" json:"batch_id"`
	Filename     string     `json:"filename"`
	Filepath     string     `json:"filepath"`
	Status       string     `gorm:"index;default:pending" json:"status"`
	PageCount    int        `json:"page_count"`
	FindingCount int        `json:"finding_count"`
	ProcessedAt  *time.Time `json:"processed_at"`

	Findings []Finding `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Finding is one detected PII instance. Findings never store more page text
// than the bounded context snippet.
type Finding struct {
	ID             string  `gorm:"primaryKey;size:32" json:"id"`
	DocumentID     string  `gorm:"index;size:32" json:"document_id"`
	PIIType        string  `gorm:"column:pii_type;index" json:"pii_type"`
	Confidence     float64 `gorm:"index" json:"confidence"`
	PageNumber     int     `json:"page_number"`
	CharOffset     int     `json:"char_offset"`
	CharLength     int     `json:"char_length"`
	ContextSnippet string  `json:"context_snippet"`
}

// PIICategory is the severity reference row for one pii_type.
type PIICategory struct {
	PIIType     string `gorm:"column:pii_type;primaryKey" json:"pii_type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    int    `json:"severity_level"`
}

func (PIICategory) TableName() string { return "pii_categories" }

// SchemaVersion is the singleton row tracking the migration level.
type SchemaVersion struct {
	ID      int `gorm:"primaryKey"`
	Version int
}

func (SchemaVersion) TableName() string { return "schema_version" }
