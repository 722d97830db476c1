// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"context"

	"github.com/go-logr/zerologr"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/rs/zerolog"

	"github.com/kardianos/osext"
	"github.com/tgulacsi/go/globalctx"
	"github.com/tgulacsi/go/version"
	"github.com/tgulacsi/imgpdf/converter"
)

var zl = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
var logger = zerologr.New(&zl)

func main() {
	if err := Main(); err != nil {
		logger.Error(err, "Main")
		os.Exit(1)
	}
}

var configFile, listenAddr string

func newFlagSet(name string) *flag.FlagSet { return flag.NewFlagSet(name, flag.ContinueOnError) }

func Main() error {
	converter.SetLogger(logger.WithName("converter"))

	var (
		verbose bool
		engine  string
		logFile string
	)

	fs := newFlagSet("imgpdf")
	fs.BoolVar(&verbose, "v", false, "verbose logging")
	fs.StringVar(&engine, "engine", "", "conversion engine (lossless, pdfcpu, gopdf)")
	fs.StringVar(&configFile, "config", "", "config file (TOML)")
	fs.StringVar(&logFile, "logfile", "", "logfile")
	appCmd := &ffcli.Command{
		Name:       "imgpdf",
		ShortUsage: "imgpdf [flags] <subcommand> | imgpdf INPUT OUTPUT",
		ShortHelp:  "imgpdf wraps one raster image into a one-page PDF, losslessly",
		FlagSet:    fs,
		Subcommands: []*ffcli.Command{
			convertCmd(), serveCmd(),
			{Name: "version", ShortHelp: "print version",
				Exec: func(ctx context.Context, args []string) error {
					fmt.Println(version.Main())
					return nil
				}},
		},
		Exec: func(ctx context.Context, args []string) error {
			// the bare two-argument form is the classic invocation
			if len(args) == 2 {
				return convertMain(ctx, args[0], args[1])
			}
			return flag.ErrHelp
		},
	}

	if err := appCmd.Parse(os.Args[1:]); err != nil {
		return err
	}

	if verbose {
		zl = zl.Level(zerolog.TraceLevel)
	}

	var closeLogfile func() error
	var err error
	if closeLogfile, err = logToFile(logFile); err != nil {
		return err
	}

	if configFile == "" {
		if self, execErr := osext.Executable(); execErr != nil {
			logger.Info("Cannot determine executable file name", "error", execErr)
		} else {
			ini := filepath.Join(filepath.Dir(self), "imgpdf.ini")
			f, iniErr := os.Open(ini)
			if iniErr == nil {
				_ = f.Close()
				configFile = ini
			}
		}
	}
	ctx, cancel := globalctx.Wrap(context.Background())
	defer cancel()
	if err = converter.LoadConfig(ctx, configFile); err != nil {
		logger.Info("Parsing config", "file", configFile, "error", err)
		return err
	}
	if engine != "" {
		*converter.ConfEngine = engine
	}
	if closeLogfile == nil {
		if closeLogfile, err = logToFile(*converter.ConfLogFile); err != nil {
			logger.Error(err, "logToFile")
		}
	}
	logger.V(1).Info("parameters",
		"engine", *converter.ConfEngine,
		"workdir", converter.Workdir,
		"listen", *converter.ConfListenAddr,
		"defaultDPI", *converter.ConfDefaultDPI,
		"logfile", *converter.ConfLogFile,
	)

	if closeLogfile != nil {
		defer func() {
			logger.V(1).Info("close log file", "error", closeLogfile())
		}()
	}

	return appCmd.Run(ctx)
}

func logToFile(fn string) (func() error, error) {
	if fn == "" {
		return nil, nil
	}
	fh, err := os.OpenFile(fn, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		logger.Error(err, "open log file", "file", fn)
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	zl = zerolog.New(zerolog.MultiLevelWriter(zl, fh)).With().Timestamp().Logger()
	logger.Info("Logging to", "file", fh.Name())
	return fh.Close, nil
}
