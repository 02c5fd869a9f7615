// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package security holds the cleanup helpers for transient artifacts that
// may carry document content, such as rasterized page images awaiting OCR.
package security

import (
	"os"
)

// SecureDelete overwrites a file with zeros and unlinks it. Best effort:
// the overwrite pass is skipped for anything that is not a regular file,
// and the unlink happens regardless.
func SecureDelete(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode().IsRegular() && info.Size() > 0 {
		if f, err := os.OpenFile(path, os.O_WRONLY, 0); err == nil {
			zeros := make([]byte, 64*1024)
			remaining := info.Size()
			for remaining > 0 {
				n := int64(len(zeros))
				if remaining < n {
					n = remaining
				}
				if _, err := f.Write(zeros[:n]); err != nil {
					break
				}
				remaining -= n
			}
			_ = f.Sync()
			_ = f.Close()
		}
	}
	return os.Remove(path)
}
