// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"strings"
)

// ValidationKind tags the outcome of Validate.
type ValidationKind uint8

const (
	Valid ValidationKind = iota
	NotAFile
	NotFound
	IsDirectory
	Corrupt
)

func (k ValidationKind) String() string {
	switch k {
	case Valid:
		return "Valid"
	case NotAFile:
		return "NotAFile"
	case NotFound:
		return "NotFound"
	case IsDirectory:
		return "IsDirectory"
	case Corrupt:
		return "Corrupt"
	}
	return fmt.Sprintf("ValidationKind(%d)", uint8(k))
}

// ValidationResult is the tagged outcome of one validation pass.
// Detail carries the decoder's message for Corrupt.
type ValidationResult struct {
	Kind   ValidationKind
	Detail string
}

// Validate checks that path names a regular file whose content parses as a
// structurally intact image of a supported format. It walks the format's
// marker/chunk structure but does not decode pixel data, and does not keep
// the file open past its return.
func Validate(path string) ValidationResult {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ValidationResult{Kind: NotFound}
		}
		return ValidationResult{Kind: NotAFile}
	}
	if fi.IsDir() {
		return ValidationResult{Kind: IsDirectory}
	}
	if !fi.Mode().IsRegular() {
		return ValidationResult{Kind: NotAFile}
	}
	fh, err := os.Open(path)
	if err != nil {
		return ValidationResult{Kind: NotAFile}
	}
	defer fh.Close()
	b, err := io.ReadAll(fh)
	if err != nil {
		return ValidationResult{Kind: Corrupt, Detail: err.Error()}
	}
	return validateBytes(b)
}

func validateBytes(b []byte) ValidationResult {
	format := SniffFormat(b)
	if format == FormatUnknown {
		typ, _ := MIMEMatch(b)
		if typ == "" {
			typ = "unrecognized content"
		}
		return ValidationResult{Kind: Corrupt, Detail: "not a supported image format: " + typ}
	}
	var err error
	switch format {
	case FormatJPEG:
		_, err = parseJPEG(b)
	case FormatPNG:
		_, err = parsePNG(b, false)
	default:
		// GIF, BMP, TIFF, WEBP: the registered decoders parse the header
		// without materializing pixel buffers.
		_, _, err = image.DecodeConfig(bytes.NewReader(b))
	}
	if err != nil {
		return ValidationResult{Kind: Corrupt, Detail: strings.TrimSpace(err.Error())}
	}
	return ValidationResult{Kind: Valid}
}
