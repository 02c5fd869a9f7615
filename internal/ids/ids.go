// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ids generates the opaque identifiers used for batches, documents,
// findings and reports: 128 random bits rendered as 32 lowercase hex chars.
package ids

import (
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{32}$`)

// New returns a fresh 32-char lowercase hex identifier.
func New() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Valid reports whether s looks like an identifier produced by New.
func Valid(s string) bool {
	return hexID.MatchString(s)
}
