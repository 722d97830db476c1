// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/tgulacsi/imgpdf/converter"
)

func convertCmd() *ffcli.Command {
	return &ffcli.Command{
		Name:       "convert",
		ShortUsage: "imgpdf convert INPUT OUTPUT",
		ShortHelp:  "convert the input image file into a one-page PDF",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return flag.ErrHelp
			}
			return convertMain(ctx, args[0], args[1])
		},
	}
}

// convertMain resolves the paths and renders the core's outcome; the
// conversion logic itself lives in the converter package.
func convertMain(ctx context.Context, inputPath, outputPath string) error {
	var err error
	if inputPath, err = filepath.Abs(inputPath); err != nil {
		return fmt.Errorf("resolve %q: %w", inputPath, err)
	}
	if outputPath, err = filepath.Abs(outputPath); err != nil {
		return fmt.Errorf("resolve %q: %w", outputPath, err)
	}
	ok, msg := converter.ConvertImageToPdf(ctx, inputPath, outputPath)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: "+msg)
		return errors.New(msg)
	}
	fmt.Println(msg)
	return nil
}
