// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"

	"gorm.io/gorm"

	"redact-qc/internal/pii"
)

// schemaVersion is the current schema level. Migrations are forward-only.
const schemaVersion = 1

func (s *Store) migrate() error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&Batch{},
			&Document{},
			&Finding{},
			&PIICategory{},
			&SchemaVersion{},
		); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}

		var ver SchemaVersion
		res := tx.Limit(1).Find(&ver)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&SchemaVersion{ID: 1, Version: schemaVersion}).Error; err != nil {
				return err
			}
			return seedCategories(tx)
		}
		if ver.Version > schemaVersion {
			return fmt.Errorf("database schema version %d is newer than this build (%d)", ver.Version, schemaVersion)
		}
		if ver.Version < schemaVersion {
			// Forward-only bumps land here. AutoMigrate above already
			// added any new columns and tables.
			if err := tx.Model(&SchemaVersion{}).Where("id = 1").
				Update("version", schemaVersion).Error; err != nil {
				return err
			}
			return seedCategories(tx)
		}
		return nil
	})
	return mapErr(err)
}

// seedCategories loads the severity reference set, leaving any rows the
// operator edited in place.
func seedCategories(tx *gorm.DB) error {
	for _, c := range pii.Categories {
		var existing PIICategory
		res := tx.Limit(1).Find(&existing, "pii_type = ?", c.PIIType)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			continue
		}
		row := PIICategory{
			PIIType:     c.PIIType,
			Name:        c.Name,
			Description: c.Description,
			Severity:    c.Severity,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListCategories returns the severity reference set ordered by severity
// descending then type.
func (s *Store) ListCategories() ([]PIICategory, error) {
	var cats []PIICategory
	if err := s.db.Order("severity DESC, pii_type").Find(&cats).Error; err != nil {
		return nil, mapErr(err)
	}
	return cats, nil
}
