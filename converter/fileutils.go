// Copyright 2025 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"io"
	"os"

	"github.com/KarpelesLab/reflink"
)

func fileExists(fn string) bool {
	if _, err := os.Stat(fn); err == nil {
		return true
	}
	return false
}

// copyFile copies from to to, reflinking when the filesystem supports it.
func copyFile(from, to string) error {
	if from == to {
		return nil
	}
	if err := reflink.Always(from, to); err == nil {
		return nil
	}
	ifh, err := os.Open(from)
	if err != nil {
		return err
	}
	defer func() { _ = ifh.Close() }()
	ofh, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err = io.Copy(ofh, ifh); err != nil {
		_ = ofh.Close()
		return err
	}
	return ofh.Close()
}
