// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package converter implements the image-to-PDF conversion core.
package converter

import (
	"context"
	"os"
	"path/filepath"

	"github.com/UNO-SOFT/filecache"
	"github.com/go-logr/logr"
	config "github.com/stvp/go-toml-config"
)

var logger = logr.Discard()

func SetLogger(lgr logr.Logger) { logger = lgr }

var (
	// ConfWorkdir is the working directory (will be os.TempDir() if empty)
	ConfWorkdir = config.String("workdir", "")

	// ConfListenAddr is a listen address for HTTP requests
	ConfListenAddr = config.String("listen", ":9501")

	// ConfEngine selects the conversion engine (lossless, pdfcpu, gopdf)
	ConfEngine = config.String("engine", DefaultEngine)

	// ConfDefaultDPI is the resolution assumed when the image carries none
	ConfDefaultDPI = config.Int64("defaultDPI", 72)

	// ConfLogFile specifies the file to log - instead of command line.
	ConfLogFile = config.String("logfile", "")
)

// LoadConfig loads TOML config file
func LoadConfig(ctx context.Context, fn string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fn != "" {
		if err := config.Parse(fn); err != nil {
			logger.Info("WARN cannot open config file", "file", fn, "error", err)
		}
	}
	if *ConfWorkdir != "" {
		_ = os.Setenv("TMPDIR", *ConfWorkdir)
		Workdir = *ConfWorkdir
	}
	if *ConfDefaultDPI <= 0 {
		*ConfDefaultDPI = 72
	}
	var err error
	cd := filepath.Join(Workdir, "imgpdf-filecache")
	_ = os.MkdirAll(cd, 0700)
	if Cache, err = filecache.Open(cd); err != nil {
		var tErr error
		if cd, tErr = os.MkdirTemp(Workdir, "imgpdf-filecache-*"); tErr != nil {
			return err
		} else if Cache, tErr = filecache.Open(cd); tErr != nil {
			return err
		}
	}
	return nil
}

// Workdir is the main working directory
var Workdir = os.TempDir()

// Cache holds already converted results, keyed by input content hash.
var Cache *filecache.Cache

// LeaveTempFiles should be true only for debugging purposes (leaves temp files)
var LeaveTempFiles = false
