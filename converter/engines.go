// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"fmt"
	"image"
	"io"

	"bitbucket.org/zombiezen/gopdf/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultEngine is the fidelity-preserving embedder of this package.
// The alternatives re-encode pixel data and are kept for comparison and
// for inputs a downstream consumer may want normalized.
const DefaultEngine = "lossless"

// Engine turns raw image bytes into PDF bytes.
type Engine func(w io.Writer, r io.Reader) error

var engines = map[string]Engine{
	"lossless": imageToPdfLossless,
	"pdfcpu":   ImageToPdfPdfCPU,
	"gopdf":    ImageToPdfGopdf,
}

func engineByName(name string) (Engine, error) {
	if name == "" {
		name = DefaultEngine
	}
	if e, ok := engines[name]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}

func imageToPdfLossless(w io.Writer, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	doc, err := Embed(raw)
	if err != nil {
		return err
	}
	_, err = w.Write(doc.Bytes)
	return err
}

// ImageToPdfPdfCPU converts image to PDF using pdfcpu
func ImageToPdfPdfCPU(w io.Writer, r io.Reader) error {
	return api.ImportImages(nil, w, []io.Reader{r}, nil, nil)
}

// ImageToPdfGopdf converts image to PDF using gopdf, drawing the decoded
// image onto an A4 page.
func ImageToPdfGopdf(w io.Writer, r io.Reader) error {
	img, _, err := image.Decode(r)
	if err != nil {
		return err
	}

	ib := img.Bounds().Canon().Size()
	doc := pdf.New()
	canvas := doc.NewPage(pdf.A4Width, pdf.A4Height)
	canvas.Translate(pdf.Cm, canvas.CropBox().Max.Y-pdf.Cm)
	ir := float32(ib.X) / float32(ib.Y)
	bb := canvas.CropBox()
	cbw, cbh := int(bb.Max.X-bb.Min.X), int(bb.Max.Y-bb.Min.Y)
	if ir > float32(cbw/cbh) {
		bb.Max.Y = bb.Min.Y + pdf.Unit(1.0/ir*float32(cbw))
	} else {
		bb.Max.X = bb.Min.X + pdf.Unit(ir*float32(cbh))
	}
	canvas.DrawImage(img, bb)
	if err = canvas.Close(); err != nil {
		return err
	}

	return doc.Encode(w)
}
