// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package output sizes command output for audit storage.
//
// Every output gets a short preview. Longer outputs are kept in full,
// compressed once they pass a threshold, and truncated beyond a hard cap.
// Compressed text is gzip followed by base64 so it can be stored as text.
package output

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/jeranaias/deskshell/internal/util"
)

// =============================================================================
// POLICY
// =============================================================================

// Default sizes, in characters.
const (
	DefaultPreviewLength     = 200
	DefaultCompressThreshold = 1024
	DefaultMaxStoredLength   = 10240
)

// Output types recorded alongside a stored full output.
const (
	TypeText       = "text"
	TypeCompressed = "compressed"
)

// Policy holds the size thresholds. All lengths count characters (runes).
type Policy struct {
	PreviewLength     int
	CompressThreshold int
	MaxStoredLength   int
}

// DefaultPolicy returns the 200 / 1 KiB / 10 KiB policy.
func DefaultPolicy() Policy {
	return Policy{
		PreviewLength:     DefaultPreviewLength,
		CompressThreshold: DefaultCompressThreshold,
		MaxStoredLength:   DefaultMaxStoredLength,
	}
}

// withDefaults replaces non-positive fields with the defaults.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.PreviewLength <= 0 {
		p.PreviewLength = d.PreviewLength
	}
	if p.CompressThreshold <= 0 {
		p.CompressThreshold = d.CompressThreshold
	}
	if p.MaxStoredLength <= 0 {
		p.MaxStoredLength = d.MaxStoredLength
	}
	return p
}

// =============================================================================
// MANAGER
// =============================================================================

// Processed is the storage form of one command output.
type Processed struct {
	// Preview is the first PreviewLength characters, ellipsis-suffixed when
	// the output was longer.
	Preview string

	// FullOutput is empty when the preview already holds the whole output.
	FullOutput string

	Compressed     bool
	Truncated      bool
	OriginalLength int
}

// HasFullOutput reports whether a separate full-output record is needed.
func (p Processed) HasFullOutput() bool {
	return p.OriginalLength > 0 && p.FullOutput != ""
}

// OutputType returns TypeCompressed or TypeText.
func (p Processed) OutputType() string {
	if p.Compressed {
		return TypeCompressed
	}
	return TypeText
}

// Manager applies a Policy. It holds no mutable state and is safe for
// concurrent use.
type Manager struct {
	policy Policy
}

// NewManager creates a manager for policy.
func NewManager(policy Policy) *Manager {
	return &Manager{policy: policy.withDefaults()}
}

// Policy returns the effective thresholds.
func (m *Manager) Policy() Policy {
	return m.policy
}

var defaultManager = NewManager(DefaultPolicy())

// Process applies the default policy to out.
func Process(out string) Processed {
	return defaultManager.Process(out)
}

// Process builds the preview and, for long outputs, the stored full text.
func (m *Manager) Process(out string) Processed {
	length := util.RuneLen(out)
	result := Processed{
		Preview:        util.Preview(out, m.policy.PreviewLength),
		OriginalLength: length,
	}

	switch {
	case length <= m.policy.PreviewLength:
		return result

	case length > m.policy.MaxStoredLength:
		stored := util.TakeRunes(out, m.policy.MaxStoredLength) + TruncationTrailer(length)
		result.Truncated = true
		if util.RuneLen(stored) > m.policy.CompressThreshold {
			result.FullOutput, result.Compressed = compressOrRaw(stored)
		} else {
			result.FullOutput = stored
		}

	case length > m.policy.CompressThreshold:
		result.FullOutput, result.Compressed = compressOrRaw(out)

	default:
		result.FullOutput = out
	}
	return result
}

// TruncationTrailer is appended to output cut at the storage cap.
func TruncationTrailer(originalLength int) string {
	return fmt.Sprintf("\n... [truncated, original length: %d characters]", originalLength)
}

func compressOrRaw(s string) (string, bool) {
	encoded, err := Compress(s)
	if err != nil {
		return s, false
	}
	return encoded, true
}

// =============================================================================
// COMPRESSION
// =============================================================================

// Compress gzips s and base64-encodes the result.
func Compress(s string) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := io.WriteString(zw, s); err != nil {
		return "", fmt.Errorf("compress output: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress output: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress reverses Compress. Input that does not decode is returned
// unchanged, so plain text passes through.
func Decompress(s string) string {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return s
	}
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	if err != nil {
		return s
	}
	return string(plain)
}

// Restore returns the readable text of a stored full output given its
// recorded output type.
func Restore(stored, outputType string) string {
	if outputType == TypeCompressed {
		return Decompress(stored)
	}
	return stored
}
