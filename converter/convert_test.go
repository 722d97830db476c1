// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func writeFixture(t *testing.T, dir, name, format string, w, h int) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	if err := os.WriteFile(fn, encodeImage(t, format, testImage(w, h, false)), 0644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestConvertSuccess(t *testing.T) {
	defer setTestLogger(t)()
	dir := t.TempDir()
	in := writeFixture(t, dir, "photo.png", "png", 6, 4)
	out := filepath.Join(dir, "nested", "deeper", "photo.pdf")

	ok, msg := ConvertImageToPdf(context.Background(), in, out)
	if !ok {
		t.Fatal(msg)
	}
	if !strings.Contains(msg, "Successfully converted") {
		t.Errorf("unexpected message %q", msg)
	}
	if err := api.ValidateFile(out, nil); err != nil {
		t.Errorf("output does not validate: %v", err)
	}
	if n, err := api.PageCountFile(out); err != nil {
		t.Error(err)
	} else if n != 1 {
		t.Errorf("got %d pages, wanted 1", n)
	}
}

func TestConvertOverwrites(t *testing.T) {
	defer setTestLogger(t)()
	dir := t.TempDir()
	in := writeFixture(t, dir, "img.jpg", "jpeg", 5, 5)
	out := filepath.Join(dir, "img.pdf")
	if err := os.WriteFile(out, []byte("stale content"), 0644); err != nil {
		t.Fatal(err)
	}
	if ok, msg := ConvertImageToPdf(context.Background(), in, out); !ok {
		t.Fatal(msg)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Error("previous output was not replaced")
	}
}

func TestConvertFailures(t *testing.T) {
	defer setTestLogger(t)()
	dir := t.TempDir()
	textFn := filepath.Join(dir, "words.jpg")
	if err := os.WriteFile(textFn, []byte("words, not pixels"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name, input string
		category    Category
		msgPart     string
	}{
		{"missing", filepath.Join(dir, "nope.png"), CategoryNotAFile, "not found"},
		{"directory", dir, CategoryIsDirectory, "got a directory"},
		{"corrupt", textFn, CategoryCorrupt, "might be corrupted or an unsupported format"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := filepath.Join(dir, tc.name, "out.pdf")
			outcome := Convert(context.Background(), Request{InputPath: tc.input, OutputPath: out})
			if outcome.OK {
				t.Fatal("conversion succeeded unexpectedly")
			}
			if outcome.Category != tc.category {
				t.Errorf("got category %s, wanted %s (%s)", outcome.Category, tc.category, outcome.Message)
			}
			if !strings.Contains(outcome.Message, tc.msgPart) {
				t.Errorf("message %q lacks %q", outcome.Message, tc.msgPart)
			}
			if fileExists(out) {
				t.Error("output file created for a failed conversion")
			}
		})
	}
}

func TestConvertIdempotent(t *testing.T) {
	defer setTestLogger(t)()
	dir := t.TempDir()
	in := writeFixture(t, dir, "same.png", "png", 7, 3)
	outA := filepath.Join(dir, "a.pdf")
	outB := filepath.Join(dir, "b.pdf")
	for _, out := range []string{outA, outB} {
		if ok, msg := ConvertImageToPdf(context.Background(), in, out); !ok {
			t.Fatal(msg)
		}
	}
	a, err := os.ReadFile(outA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(outB)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("converting the same input twice produced different bytes")
	}
}

func TestConvertBytes(t *testing.T) {
	defer setTestLogger(t)()
	pdfBytes, outcome := ConvertBytes(context.Background(), encodeImage(t, "png", testImage(4, 4, false)))
	if !outcome.OK {
		t.Fatal(outcome.Message)
	}
	if !bytes.HasPrefix(pdfBytes, []byte("%PDF")) {
		t.Error("result is not a PDF")
	}

	if _, outcome = ConvertBytes(context.Background(), []byte("junk")); outcome.OK {
		t.Error("junk converted successfully")
	} else if outcome.Category != CategoryCorrupt {
		t.Errorf("got category %s, wanted %s", outcome.Category, CategoryCorrupt)
	}
}

func TestConvertEngines(t *testing.T) {
	defer setTestLogger(t)()
	dir := t.TempDir()
	in := writeFixture(t, dir, "photo.jpg", "jpeg", 8, 6)
	old := *ConfEngine
	defer func() { *ConfEngine = old }()

	for _, engine := range []string{"lossless", "pdfcpu", "gopdf"} {
		t.Run(engine, func(t *testing.T) {
			*ConfEngine = engine
			out := filepath.Join(dir, engine+".pdf")
			if ok, msg := ConvertImageToPdf(context.Background(), in, out); !ok {
				t.Fatal(msg)
			}
			b, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(b, []byte("%PDF")) {
				t.Fatal("output is not a PDF")
			}
			if engine != "gopdf" { // gopdf emits an older dialect pdfcpu is strict about
				if err := api.ValidateFile(out, nil); err != nil {
					t.Errorf("output does not validate: %v", err)
				}
			}
		})
	}
}

func TestConvertUnknownEngine(t *testing.T) {
	defer setTestLogger(t)()
	dir := t.TempDir()
	in := writeFixture(t, dir, "photo.png", "png", 2, 2)
	old := *ConfEngine
	*ConfEngine = "no-such-engine"
	defer func() { *ConfEngine = old }()
	outcome := Convert(context.Background(), Request{InputPath: in, OutputPath: filepath.Join(dir, "out.pdf")})
	if outcome.OK || outcome.Category != CategoryEmbedError {
		t.Errorf("got %+v, wanted an %s failure", outcome, CategoryEmbedError)
	}
}
