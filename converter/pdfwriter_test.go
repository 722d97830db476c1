// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"bytes"
	"fmt"
	"strconv"
	"testing"
)

func TestWriterXref(t *testing.T) {
	w := newPDFWriter()
	w.writeObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	w.writeObject(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	w.writeStream(3, "", []byte("q Q"))
	doc := w.finish(1)

	if !bytes.HasPrefix(doc, []byte("%PDF-1.5\n")) {
		t.Error("missing header")
	}
	if !bytes.HasSuffix(doc, []byte("%%EOF\n")) {
		t.Error("missing EOF marker")
	}

	// startxref must point at the xref keyword
	i := bytes.LastIndex(doc, []byte("startxref\n"))
	if i < 0 {
		t.Fatal("no startxref")
	}
	rest := doc[i+len("startxref\n"):]
	j := bytes.IndexByte(rest, '\n')
	start, err := strconv.Atoi(string(rest[:j]))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(doc[start:], []byte("xref\n0 4\n")) {
		t.Errorf("startxref %d does not point at the xref table", start)
	}

	// each in-use entry must point at its object header
	entries := doc[start+len("xref\n0 4\n")+20:] // skip the free entry
	for id := 1; id <= 3; id++ {
		e := entries[(id-1)*20 : id*20]
		off, err := strconv.Atoi(string(e[:10]))
		if err != nil {
			t.Fatalf("object %d: bad xref entry %q", id, e)
		}
		want := fmt.Sprintf("%d 0 obj\n", id)
		if !bytes.HasPrefix(doc[off:], []byte(want)) {
			t.Errorf("object %d: offset %d does not start with %q", id, off, want)
		}
	}

	if !bytes.Contains(doc, []byte("/Size 4 /Root 1 0 R")) {
		t.Error("trailer dictionary incomplete")
	}
}

func TestWriterStreamLength(t *testing.T) {
	w := newPDFWriter()
	payload := []byte("some\nstream\npayload")
	w.writeStream(1, "/Type /XObject", payload)
	doc := w.finish(1)
	want := fmt.Sprintf("<< /Type /XObject /Length %d >>\nstream\n", len(payload))
	if !bytes.Contains(doc, []byte(want)) {
		t.Errorf("document lacks %q", want)
	}
}

func TestFnum(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want string
	}{
		{72, "72"},
		{595.2756, "595.2756"},
		{841.88976, "841.8898"},
		{0.5, "0.5"},
		{100.10, "100.1"},
	} {
		if got := fnum(tc.in); got != tc.want {
			t.Errorf("fnum(%v) = %q, wanted %q", tc.in, got, tc.want)
		}
	}
}
