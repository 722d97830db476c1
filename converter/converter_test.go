// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func setTestLogger(t *testing.T) func() {
	SetLogger(testr.New(t))
	return func() { SetLogger(logr.Discard()) }
}

var testDir string

func TestMain(m *testing.M) {
	var err error
	testDir, err = os.MkdirTemp("", "imgpdf-test-")
	if err != nil {
		fmt.Println(err)
		os.Exit(13)
	}
	*ConfWorkdir = testDir
	_ = LoadConfig(context.Background(), "")
	code := m.Run()
	_ = os.RemoveAll(testDir)
	os.Exit(code)
}

// testImage is a small gradient; opaque unless withAlpha.
func testImage(w, h int, withAlpha bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if withAlpha && (x+y)%2 == 1 {
				a = 128
			}
			img.SetRGBA(x, y, color.RGBA{R: uint8(37 * x), G: uint8(59 * y), B: uint8(11 * (x + y)), A: a})
		}
	}
	return img
}

// webpFixture is a hand-assembled one-pixel lossless (VP8L) WebP; the
// stdlib has no WebP encoder to generate one with.
var webpFixture = []byte{
	'R', 'I', 'F', 'F', 0x1a, 0x00, 0x00, 0x00, 'W', 'E', 'B', 'P',
	'V', 'P', '8', 'L', 0x0d, 0x00, 0x00, 0x00,
	0x2f, 0x00, 0x00, 0x00, 0x10, 0x07, 0x10, 0x11, 0x11, 0x88, 0x88, 0xfe, 0x07, 0x00,
}

func encodeImage(t *testing.T, format string, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("unknown format %q", format)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}
