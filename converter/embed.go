// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"  // to be able to open GIF files
	_ "image/jpeg" // to be able to open JPEG files
	_ "image/png"  // to be able to open PNG files

	_ "golang.org/x/image/bmp"  // to be able to open BMP files
	_ "golang.org/x/image/tiff" // to be able to open TIFF files
	_ "golang.org/x/image/webp" // to be able to open WEBP files

	"github.com/klauspost/compress/zlib"
)

// EmbedError means the input validated structurally but could not be
// turned into a PDF-compatible image stream.
type EmbedError struct {
	Detail string
	Err    error
}

func (e *EmbedError) Error() string {
	if e.Err != nil {
		return "embed: " + e.Detail + ": " + e.Err.Error()
	}
	return "embed: " + e.Detail
}
func (e *EmbedError) Unwrap() error { return e.Err }

// PdfDocument is the assembled single-page output, immutable once produced.
type PdfDocument struct {
	Bytes []byte
}

// imageXObject is one /Subtype /Image dictionary plus its (already
// compressed) stream, ready for serialization.
type imageXObject struct {
	Width, Height    int
	DPIX, DPIY       float64
	ColorSpace       string
	BitsPerComponent int
	Filter           string
	DecodeParms      string
	Decode           string
	Data             []byte
	SMask            *imageXObject
}

// Embed wraps raw image bytes into a single-page PDF. The compressed source
// stream is copied verbatim whenever the format allows (JPEG via DCTDecode,
// suitable PNGs via FlateDecode with a PNG predictor); anything else is
// decoded once and re-encoded with Flate, never lossily.
func Embed(raw []byte) (PdfDocument, error) {
	stream := ImageStream{Data: raw, Format: SniffFormat(raw)}
	xo, err := buildXObject(stream)
	if err != nil {
		return PdfDocument{}, err
	}
	return assemblePDF(xo), nil
}

func buildXObject(stream ImageStream) (*imageXObject, error) {
	switch stream.Format {
	case FormatJPEG:
		return embedJPEG(stream.Data)
	case FormatPNG:
		return embedPNG(stream.Data)
	case FormatGIF, FormatBMP, FormatTIFF, FormatWEBP:
		return embedDecoded(stream.Data, 0, 0)
	}
	return nil, &EmbedError{Detail: "unrecognized image content"}
}

// embedJPEG keeps the DCT stream as-is.
func embedJPEG(raw []byte) (*imageXObject, error) {
	info, err := parseJPEG(raw)
	if err != nil {
		return nil, &EmbedError{Detail: "parsing JPEG", Err: err}
	}
	switch info.SOFMarker {
	case 0xc0, 0xc1, 0xc2: // baseline, extended sequential, progressive
	default:
		return nil, &EmbedError{Detail: fmt.Sprintf("JPEG coding process SOF%d not DCT-embeddable", info.SOFMarker&0x0f)}
	}
	if info.Precision != 8 {
		// DCTDecode streams carry 8 bits per component
		return nil, &EmbedError{Detail: fmt.Sprintf("JPEG sample precision %d not DCT-embeddable", info.Precision)}
	}
	xo := imageXObject{
		Width: info.Width, Height: info.Height,
		DPIX: info.DPIX, DPIY: info.DPIY,
		BitsPerComponent: info.Precision,
		Filter:           "/DCTDecode",
		Data:             raw,
	}
	switch info.Components {
	case 1:
		xo.ColorSpace = "/DeviceGray"
	case 3:
		xo.ColorSpace = "/DeviceRGB"
	case 4:
		xo.ColorSpace = "/DeviceCMYK"
		if info.Adobe {
			// Adobe writes CMYK inverted
			xo.Decode = "[1 0 1 0 1 0 1 0]"
		}
	default:
		return nil, &EmbedError{Detail: fmt.Sprintf("JPEG with %d components", info.Components)}
	}
	return &xo, nil
}

// embedPNG keeps the zlib IDAT stream as-is when the layout maps onto
// FlateDecode with a PNG predictor; otherwise it falls back to a full
// decode and lossless re-encode.
func embedPNG(raw []byte) (*imageXObject, error) {
	info, err := parsePNG(raw, true)
	if err != nil {
		return nil, &EmbedError{Detail: "parsing PNG", Err: err}
	}
	passthrough := info.Interlace == 0 && !info.HasTRNS && len(info.IDAT) > 0
	var colorSpace string
	colors := 1
	switch info.ColorType {
	case 0:
		colorSpace = "/DeviceGray"
	case 2:
		colorSpace = "/DeviceRGB"
		colors = 3
	case 3:
		if len(info.Palette) == 0 {
			return nil, &EmbedError{Detail: "indexed PNG without PLTE"}
		}
		colorSpace = fmt.Sprintf("[/Indexed /DeviceRGB %d <%x>]", len(info.Palette)/3-1, info.Palette)
	default: // 4, 6: alpha channel needs a separate SMask
		passthrough = false
	}
	if !passthrough {
		return embedDecoded(raw, info.DPIX, info.DPIY)
	}
	return &imageXObject{
		Width: info.Width, Height: info.Height,
		DPIX: info.DPIX, DPIY: info.DPIY,
		ColorSpace:       colorSpace,
		BitsPerComponent: int(info.BitDepth),
		Filter:           "/FlateDecode",
		DecodeParms: fmt.Sprintf("<< /Predictor 15 /Colors %d /BitsPerComponent %d /Columns %d >>",
			colors, info.BitDepth, info.Width),
		Data: info.IDAT,
	}, nil
}

// embedDecoded is the re-encoding path: decode to raw samples, compress
// with Flate. Alpha survives as a separate SMask instead of being dropped.
func embedDecoded(raw []byte, dpix, dpiy float64) (*imageXObject, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &EmbedError{Detail: "decoding pixel data", Err: err}
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return nil, &EmbedError{Detail: "empty image"}
	}
	xo := imageXObject{
		Width: width, Height: height,
		DPIX: dpix, DPIY: dpiy,
		Filter: "/FlateDecode",
	}

	switch src := img.(type) {
	case *image.Gray:
		xo.ColorSpace, xo.BitsPerComponent = "/DeviceGray", 8
		samples := make([]byte, 0, width*height)
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride:]
			samples = append(samples, row[:width]...)
		}
		xo.Data = flateCompress(samples)
		return &xo, nil
	case *image.Gray16:
		xo.ColorSpace, xo.BitsPerComponent = "/DeviceGray", 16
		samples := make([]byte, 0, width*height*2)
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride:]
			samples = append(samples, row[:width*2]...)
		}
		xo.Data = flateCompress(samples)
		return &xo, nil
	case *image.NRGBA:
		// non-premultiplied samples copied straight from Pix
		rgb := make([]byte, 0, width*height*3)
		alpha := make([]byte, 0, width*height)
		opaque := true
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+width*4]
			for x := 0; x < len(row); x += 4 {
				rgb = append(rgb, row[x], row[x+1], row[x+2])
				alpha = append(alpha, row[x+3])
				if row[x+3] != 0xff {
					opaque = false
				}
			}
		}
		return finishRGB(&xo, 8, rgb, alpha, opaque), nil
	case *image.NRGBA64:
		// Pix is already big-endian, the byte order PDF wants
		rgb := make([]byte, 0, width*height*6)
		alpha := make([]byte, 0, width*height*2)
		opaque := true
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+width*8]
			for x := 0; x < len(row); x += 8 {
				rgb = append(rgb, row[x:x+6]...)
				alpha = append(alpha, row[x+6], row[x+7])
				if row[x+6] != 0xff || row[x+7] != 0xff {
					opaque = false
				}
			}
		}
		return finishRGB(&xo, 16, rgb, alpha, opaque), nil
	case *image.RGBA64:
		// premultiplied source: un-premultiply in the full 16-bit space
		rgb := make([]byte, 0, width*height*6)
		alpha := make([]byte, 0, width*height*2)
		opaque := true
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.RGBA64At(x, y)
				r, g, bl := c.R, c.G, c.B
				if c.A == 0 {
					r, g, bl = 0, 0, 0
				} else if c.A != 0xffff {
					r = uint16(uint32(c.R) * 0xffff / uint32(c.A))
					g = uint16(uint32(c.G) * 0xffff / uint32(c.A))
					bl = uint16(uint32(c.B) * 0xffff / uint32(c.A))
				}
				if c.A != 0xffff {
					opaque = false
				}
				rgb = append(rgb, byte(r>>8), byte(r), byte(g>>8), byte(g), byte(bl>>8), byte(bl))
				alpha = append(alpha, byte(c.A>>8), byte(c.A))
			}
		}
		return finishRGB(&xo, 16, rgb, alpha, opaque), nil
	}

	// last resort for other representations (paletted, YCbCr): 8-bit via
	// the premultiplied accessor
	rgb := make([]byte, 0, width*height*3)
	alpha := make([]byte, 0, width*height)
	opaque := true
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				rgb = append(rgb, 0, 0, 0)
			} else {
				rgb = append(rgb,
					uint8((r*0xffff/a)>>8),
					uint8((g*0xffff/a)>>8),
					uint8((bl*0xffff/a)>>8))
			}
			alpha = append(alpha, uint8(a>>8))
			if a != 0xffff {
				opaque = false
			}
		}
	}
	return finishRGB(&xo, 8, rgb, alpha, opaque), nil
}

func finishRGB(xo *imageXObject, bits int, rgb, alpha []byte, opaque bool) *imageXObject {
	xo.ColorSpace, xo.BitsPerComponent = "/DeviceRGB", bits
	xo.Data = flateCompress(rgb)
	if !opaque {
		xo.SMask = &imageXObject{
			Width: xo.Width, Height: xo.Height,
			ColorSpace:       "/DeviceGray",
			BitsPerComponent: bits,
			Filter:           "/FlateDecode",
			Data:             flateCompress(alpha),
		}
	}
	return xo
}

func flateCompress(b []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(b)
	_ = zw.Close()
	return buf.Bytes()
}

// assemblePDF builds the fixed five(-or-six)-object document: catalog,
// pages, page, content stream, image, optional soft mask. The page's media
// box is the image at 1:1 scale in user-space units.
func assemblePDF(xo *imageXObject) PdfDocument {
	dpix, dpiy := xo.DPIX, xo.DPIY
	if dpix <= 0 {
		dpix = float64(*ConfDefaultDPI)
	}
	if dpiy <= 0 {
		dpiy = float64(*ConfDefaultDPI)
	}
	wPt := float64(xo.Width) * 72 / dpix
	hPt := float64(xo.Height) * 72 / dpiy

	w := newPDFWriter()
	w.writeObject(1, "<< /Type /Catalog /Pages 2 0 R >>")
	w.writeObject(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	w.writeObject(3, fmt.Sprintf(
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources << /XObject << /Im0 5 0 R >> >> /Contents 4 0 R >>",
		fnum(wPt), fnum(hPt)))
	content := fmt.Sprintf("q\n%s 0 0 %s 0 0 cm\n/Im0 Do\nQ", fnum(wPt), fnum(hPt))
	w.writeStream(4, "", []byte(content))
	w.writeStream(5, imageDict(xo, 6), xo.Data)
	if xo.SMask != nil {
		w.writeStream(6, imageDict(xo.SMask, 0), xo.SMask.Data)
	}
	return PdfDocument{Bytes: w.finish(1)}
}

func imageDict(xo *imageXObject, smaskID int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent %d /Filter %s",
		xo.Width, xo.Height, xo.ColorSpace, xo.BitsPerComponent, xo.Filter)
	if xo.DecodeParms != "" {
		sb.WriteString(" /DecodeParms " + xo.DecodeParms)
	}
	if xo.Decode != "" {
		sb.WriteString(" /Decode " + xo.Decode)
	}
	if xo.SMask != nil {
		fmt.Fprintf(&sb, " /SMask %d 0 R", smaskID)
	}
	return sb.String()
}
