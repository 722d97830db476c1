// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// pdfWriter serializes indirect objects into a cross-referenced PDF body.
// Output depends only on the objects written (no timestamps, no file IDs),
// so identical inputs serialize to identical bytes.
type pdfWriter struct {
	buf     bytes.Buffer
	offsets map[int]int
	maxID   int
}

func newPDFWriter() *pdfWriter {
	w := pdfWriter{offsets: make(map[int]int, 8)}
	w.buf.WriteString("%PDF-1.5\n%\xe2\xe3\xcf\xd3\n")
	return &w
}

func (w *pdfWriter) mark(id int) {
	w.offsets[id] = w.buf.Len()
	if id > w.maxID {
		w.maxID = id
	}
}

// writeObject writes a non-stream indirect object.
func (w *pdfWriter) writeObject(id int, body string) {
	w.mark(id)
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", id, body)
}

// writeStream writes a stream object; dict must not contain /Length.
func (w *pdfWriter) writeStream(id int, dict string, stream []byte) {
	w.mark(id)
	if dict != "" {
		dict += " "
	}
	fmt.Fprintf(&w.buf, "%d 0 obj\n<< %s/Length %d >>\nstream\n", id, dict, len(stream))
	w.buf.Write(stream)
	w.buf.WriteString("\nendstream\nendobj\n")
}

// finish appends the xref table and trailer and returns the whole document.
// Objects 1..maxID must all have been written.
func (w *pdfWriter) finish(rootID int) []byte {
	start := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", w.maxID+1)
	w.buf.WriteString("0000000000 65535 f \n")
	for id := 1; id <= w.maxID; id++ {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", w.offsets[id])
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		w.maxID+1, rootID, start)
	return w.buf.Bytes()
}

// fnum formats a user-space coordinate with at most four decimals.
func fnum(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
