// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/UNO-SOFT/filecache"
	"github.com/google/renameio/v2"
)

// Request is one conversion: both paths must be absolute, resolved by the
// caller, and are not mutated.
type Request struct {
	InputPath, OutputPath string
}

// Category classifies a conversion failure. All categories are terminal,
// nothing is retried.
type Category string

const (
	CategoryNotAFile          = Category("NotAFile")
	CategoryIsDirectory       = Category("IsDirectory")
	CategoryCorrupt           = Category("Corrupt")
	CategoryEmbedError        = Category("EmbedError")
	CategoryDirectoryCreation = Category("DirectoryCreationError")
	CategoryWriteError        = Category("WriteError")
)

// Outcome is what both front ends render; the core never prints.
type Outcome struct {
	OK       bool
	Category Category
	Message  string
}

func success(format string, args ...interface{}) Outcome {
	return Outcome{OK: true, Message: fmt.Sprintf(format, args...)}
}
func failure(cat Category, format string, args ...interface{}) Outcome {
	return Outcome{Category: cat, Message: fmt.Sprintf(format, args...)}
}

// ConvertImageToPdf is the sole external API surface: validate inputPath,
// wrap its image into a one-page PDF at outputPath, and report the result
// as a (success, message) pair.
func ConvertImageToPdf(ctx context.Context, inputPath, outputPath string) (bool, string) {
	outcome := Convert(ctx, Request{InputPath: inputPath, OutputPath: outputPath})
	return outcome.OK, outcome.Message
}

// Convert runs the validate → embed → write sequence for one request.
// The destination is written atomically after the whole document has been
// assembled, so no partial file is ever visible; an existing output file
// is silently replaced.
func Convert(ctx context.Context, req Request) Outcome {
	if req.InputPath == "" || req.OutputPath == "" {
		return failure(CategoryNotAFile, "both input and output paths are required")
	}
	switch vr := Validate(req.InputPath); vr.Kind {
	case Valid:
	case NotFound:
		return failure(CategoryNotAFile, "input image file not found at %q", req.InputPath)
	case IsDirectory:
		return failure(CategoryIsDirectory, "expected an image file, but got a directory: %q", req.InputPath)
	case Corrupt:
		return failure(CategoryCorrupt,
			"could not read image file %q: it might be corrupted or an unsupported format (%s)",
			req.InputPath, vr.Detail)
	default:
		return failure(CategoryNotAFile, "input path is not a regular file: %q", req.InputPath)
	}

	if dir := filepath.Dir(req.OutputPath); dir != "" && dir != "." && !fileExists(dir) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return failure(CategoryDirectoryCreation, "cannot create output directory %q: %s", dir, err)
		}
		logger.Info("created output directory", "dir", dir)
	}

	raw, err := os.ReadFile(req.InputPath)
	if err != nil {
		return failure(CategoryNotAFile, "cannot read %q: %s", req.InputPath, err)
	}

	// cache hit: reflink/copy next to the destination, then rename, so the
	// overwrite stays all-or-nothing.
	if fn, ok := cachedFile(*ConfEngine, raw); ok {
		tmp := req.OutputPath + ".imgpdf-tmp"
		if err := copyFile(fn, tmp); err == nil {
			if err = os.Rename(tmp, req.OutputPath); err == nil {
				logger.V(1).Info("served from cache", "input", req.InputPath, "output", req.OutputPath)
				return success("Successfully converted %q to %q", req.InputPath, req.OutputPath)
			}
			_ = os.Remove(tmp)
		}
	}

	pdfBytes, outcome := convertBytes(ctx, raw, *ConfEngine)
	if !outcome.OK {
		return outcome
	}

	dfh, err := renameio.NewPendingFile(req.OutputPath, renameio.WithTempDir(filepath.Dir(req.OutputPath)))
	if err != nil {
		return failure(CategoryWriteError, "cannot create %q: %s", req.OutputPath, err)
	}
	defer dfh.Cleanup()
	if _, err = dfh.Write(pdfBytes); err != nil {
		return failure(CategoryWriteError, "writing %q: %s", req.OutputPath, err)
	}
	if err = dfh.CloseAtomicallyReplace(); err != nil {
		return failure(CategoryWriteError, "writing %q: %s", req.OutputPath, err)
	}
	logger.V(1).Info("converted", "input", req.InputPath, "output", req.OutputPath, "bytes", len(pdfBytes))
	return success("Successfully converted %q to %q", req.InputPath, req.OutputPath)
}

// ConvertBytes is the path-free variant used by the HTTP front end.
func ConvertBytes(ctx context.Context, raw []byte) ([]byte, Outcome) {
	if vr := validateBytes(raw); vr.Kind != Valid {
		return nil, failure(CategoryCorrupt,
			"could not read image: it might be corrupted or an unsupported format (%s)", vr.Detail)
	}
	return convertBytes(ctx, raw, *ConfEngine)
}

var (
	lastTrimMu sync.Mutex
	lastTrim   time.Time
)

// convertBytes embeds already validated bytes, serving repeated inputs
// from the content-hash cache.
func convertBytes(ctx context.Context, raw []byte, engineName string) ([]byte, Outcome) {
	if err := ctx.Err(); err != nil {
		return nil, failure(CategoryEmbedError, "%s", err)
	}
	engine, err := engineByName(engineName)
	if err != nil {
		return nil, failure(CategoryEmbedError, "%s", err)
	}

	var key filecache.ActionID
	if Cache != nil {
		key = cacheKey(engineName, raw)
		if fn, _, err := Cache.GetFile(key); err == nil {
			if b, err := os.ReadFile(fn); err == nil {
				logger.V(1).Info("served from cache", "key", hex.EncodeToString(key[:]))
				return b, success("served from cache")
			}
		}
	}

	var buf bytes.Buffer
	if err := engine(&buf, bytes.NewReader(raw)); err != nil {
		return nil, failure(CategoryEmbedError, "cannot embed image into PDF: %s", err)
	}
	pdfBytes := buf.Bytes()

	if Cache != nil {
		lastTrimMu.Lock()
		now := time.Now()
		if lastTrim.IsZero() || lastTrim.Add(time.Hour).Before(now) {
			lastTrim = now
			Cache.Trim()
		}
		lastTrimMu.Unlock()
		if _, _, err := Cache.Put(key, bytes.NewReader(pdfBytes)); err != nil {
			logger.Info("WARN store into cache", "error", err)
		}
	}
	return pdfBytes, success("converted")
}

func cacheKey(engineName string, raw []byte) filecache.ActionID {
	hsh := filecache.NewHash()
	hsh.Write([]byte(engineName + ":"))
	hsh.Write(raw)
	return filecache.ActionID(hsh.SumID())
}

func cachedFile(engineName string, raw []byte) (string, bool) {
	if Cache == nil {
		return "", false
	}
	if fn, _, err := Cache.GetFile(cacheKey(engineName, raw)); err == nil && fileExists(fn) {
		return fn, true
	}
	return "", false
}
