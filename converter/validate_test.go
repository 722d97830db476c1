// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateMissing(t *testing.T) {
	defer setTestLogger(t)()
	res := Validate(filepath.Join(testDir, "no-such-file.png"))
	if res.Kind != NotFound {
		t.Errorf("got %s, wanted %s (%s)", res.Kind, NotFound, res.Detail)
	}
}

func TestValidateDirectory(t *testing.T) {
	defer setTestLogger(t)()
	res := Validate(t.TempDir())
	if res.Kind != IsDirectory {
		t.Errorf("got %s, wanted %s (%s)", res.Kind, IsDirectory, res.Detail)
	}
}

func TestValidateNotAnImage(t *testing.T) {
	defer setTestLogger(t)()
	fn := filepath.Join(t.TempDir(), "fake.jpg")
	if err := os.WriteFile(fn, []byte("this is not an image at all"), 0644); err != nil {
		t.Fatal(err)
	}
	res := Validate(fn)
	if res.Kind != Corrupt {
		t.Errorf("got %s, wanted %s (%s)", res.Kind, Corrupt, res.Detail)
	}
}

func TestValidateEmpty(t *testing.T) {
	defer setTestLogger(t)()
	fn := filepath.Join(t.TempDir(), "empty.png")
	if err := os.WriteFile(fn, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if res := Validate(fn); res.Kind != Corrupt {
		t.Errorf("got %s, wanted %s (%s)", res.Kind, Corrupt, res.Detail)
	}
}

func TestValidateFormats(t *testing.T) {
	defer setTestLogger(t)()
	dir := t.TempDir()
	img := testImage(4, 3, false)
	for _, format := range []string{"png", "jpeg", "gif", "bmp", "tiff"} {
		raw := encodeImage(t, format, img)
		fn := filepath.Join(dir, "img."+format)
		if err := os.WriteFile(fn, raw, 0644); err != nil {
			t.Fatal(err)
		}
		if res := Validate(fn); res.Kind != Valid {
			t.Errorf("%s: got %s, wanted %s (%s)", format, res.Kind, Valid, res.Detail)
		}
	}
}

func TestValidateWEBP(t *testing.T) {
	defer setTestLogger(t)()
	fn := filepath.Join(t.TempDir(), "pixel.webp")
	if err := os.WriteFile(fn, webpFixture, 0644); err != nil {
		t.Fatal(err)
	}
	if res := Validate(fn); res.Kind != Valid {
		t.Errorf("got %s, wanted %s (%s)", res.Kind, Valid, res.Detail)
	}
}

func TestValidateCorruptedPNG(t *testing.T) {
	defer setTestLogger(t)()
	raw := encodeImage(t, "png", testImage(4, 3, false))
	// flip a byte inside the first IDAT chunk's data, so its CRC no longer matches
	i := bytes.Index(raw, []byte("IDAT"))
	if i < 0 {
		t.Fatal("no IDAT chunk in encoded PNG")
	}
	raw[i+4] ^= 0xff
	if res := validateBytes(raw); res.Kind != Corrupt {
		t.Errorf("got %s, wanted %s (%s)", res.Kind, Corrupt, res.Detail)
	}
}

func TestValidateTruncatedJPEG(t *testing.T) {
	defer setTestLogger(t)()
	raw := encodeImage(t, "jpeg", testImage(4, 3, false))
	// cut the file before the scan data: the SOF marker is gone with it
	if res := validateBytes(raw[:20]); res.Kind != Corrupt {
		t.Errorf("got %s, wanted %s (%s)", res.Kind, Corrupt, res.Detail)
	}
}
