// Copyright 2025 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"strings"
	"testing"
)

func TestMIMEMatch(t *testing.T) {
	defer setTestLogger(t)()
	img := testImage(4, 3, false)
	for format, want := range map[string]string{
		"png":  "image/png",
		"jpeg": "image/jpeg",
		"gif":  "image/gif",
	} {
		got, err := MIMEMatch(encodeImage(t, format, img))
		if err != nil {
			t.Errorf("%s: %v", format, err)
			continue
		}
		if got != want {
			t.Errorf("%s: got %q, wanted %q", format, got, want)
		}
	}
}

func TestMIMEMatchJunk(t *testing.T) {
	defer setTestLogger(t)()
	got, _ := MIMEMatch([]byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff, 0x00, 0x01})
	if strings.HasPrefix(got, "image/") {
		t.Errorf("junk detected as %q", got)
	}
}

func TestMultiMIMEDetectorParallel(t *testing.T) {
	defer setTestLogger(t)()
	b := encodeImage(t, "png", testImage(4, 3, false))
	seq := MultiMIMEDetector{Detectors: DefaultMIMEDetector.(MultiMIMEDetector).Detectors}
	par := MultiMIMEDetector{Detectors: seq.Detectors, Parallel: true}
	sGot, sErr := seq.Match(b)
	pGot, pErr := par.Match(b)
	if sGot != pGot || (sErr == nil) != (pErr == nil) {
		t.Errorf("sequential (%q, %v) != parallel (%q, %v)", sGot, sErr, pGot, pErr)
	}
}
