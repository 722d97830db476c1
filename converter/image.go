// Copyright 2025, 2026 The Imgpdf Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package converter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Format is a supported raster format, inferred from content (never from
// the file name).
type Format uint8

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatGIF
	FormatBMP
	FormatTIFF
	FormatWEBP
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatGIF:
		return "gif"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	case FormatWEBP:
		return "webp"
	}
	return "unknown"
}

// ImageStream is the raw input bytes together with the sniffed format.
// It is owned by one conversion request and never shared.
type ImageStream struct {
	Data   []byte
	Format Format
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// SniffFormat inspects the leading magic bytes.
func SniffFormat(b []byte) Format {
	switch {
	case len(b) > 3 && b[0] == 0xff && b[1] == 0xd8 && b[2] == 0xff:
		return FormatJPEG
	case len(b) > 8 && bytes.Equal(b[:8], pngSignature):
		return FormatPNG
	case len(b) > 6 && (bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a"))):
		return FormatGIF
	case len(b) > 2 && b[0] == 'B' && b[1] == 'M':
		return FormatBMP
	case len(b) > 4 && (bytes.HasPrefix(b, []byte("II*\x00")) || bytes.HasPrefix(b, []byte("MM\x00*"))):
		return FormatTIFF
	case len(b) > 12 && bytes.HasPrefix(b, []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return FormatWEBP
	}
	return FormatUnknown
}

// jpegInfo is what a marker-segment walk yields without entropy decoding.
type jpegInfo struct {
	Width, Height int
	Components    int
	Precision     int
	SOFMarker     byte
	Adobe         bool
	DPIX, DPIY    float64
}

// parseJPEG walks the marker segments up to SOS, checking lengths and
// collecting the frame header and JFIF density. Entropy-coded data is not
// touched.
func parseJPEG(b []byte) (jpegInfo, error) {
	var info jpegInfo
	if len(b) < 4 || b[0] != 0xff || b[1] != 0xd8 {
		return info, fmt.Errorf("missing SOI marker")
	}
	pos := 2
	for {
		if pos >= len(b) {
			return info, fmt.Errorf("truncated at byte %d", pos)
		}
		if b[pos] != 0xff {
			return info, fmt.Errorf("garbage instead of marker at byte %d", pos)
		}
		// fill bytes before a marker are allowed
		for pos < len(b) && b[pos] == 0xff {
			pos++
		}
		if pos >= len(b) {
			return info, fmt.Errorf("truncated marker at byte %d", pos)
		}
		marker := b[pos]
		pos++
		switch {
		case marker == 0xd8 || marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7):
			// standalone, no payload
			continue
		case marker == 0xd9: // EOI
			if info.SOFMarker == 0 {
				return info, fmt.Errorf("EOI before any frame header")
			}
			return info, nil
		}
		if pos+2 > len(b) {
			return info, fmt.Errorf("truncated segment length at byte %d", pos)
		}
		segLen := int(binary.BigEndian.Uint16(b[pos : pos+2]))
		if segLen < 2 || pos+segLen > len(b) {
			return info, fmt.Errorf("invalid segment length %d at byte %d", segLen, pos)
		}
		seg := b[pos+2 : pos+segLen]
		switch {
		case marker == 0xe0: // APP0
			if len(seg) >= 12 && bytes.HasPrefix(seg, []byte("JFIF\x00")) {
				xd := float64(binary.BigEndian.Uint16(seg[8:10]))
				yd := float64(binary.BigEndian.Uint16(seg[10:12]))
				switch seg[7] {
				case 1: // dots per inch
					info.DPIX, info.DPIY = xd, yd
				case 2: // dots per cm
					info.DPIX, info.DPIY = xd*2.54, yd*2.54
				}
			}
		case marker == 0xee: // APP14
			if bytes.HasPrefix(seg, []byte("Adobe")) {
				info.Adobe = true
			}
		case marker >= 0xc0 && marker <= 0xcf && marker != 0xc4 && marker != 0xc8 && marker != 0xcc:
			if len(seg) < 6 {
				return info, fmt.Errorf("truncated SOF segment")
			}
			info.SOFMarker = marker
			info.Precision = int(seg[0])
			info.Height = int(binary.BigEndian.Uint16(seg[1:3]))
			info.Width = int(binary.BigEndian.Uint16(seg[3:5]))
			info.Components = int(seg[5])
		case marker == 0xda: // SOS, entropy-coded data follows
			if info.SOFMarker == 0 {
				return info, fmt.Errorf("SOS before any frame header")
			}
			return info, nil
		}
		pos += segLen
	}
}

// pngInfo is the IHDR plus the ancillary chunks the embedder cares about.
type pngInfo struct {
	Width, Height       int
	BitDepth, ColorType byte
	Interlace           byte
	Palette             []byte
	HasTRNS             bool
	IDAT                []byte
	DPIX, DPIY          float64
}

// parsePNG walks the chunk sequence, verifying each chunk's CRC. With
// collectData it also concatenates the IDAT payload for verbatim embedding.
func parsePNG(b []byte, collectData bool) (pngInfo, error) {
	var info pngInfo
	if len(b) < 8 || !bytes.Equal(b[:8], pngSignature) {
		return info, fmt.Errorf("missing PNG signature")
	}
	pos := 8
	first := true
	for {
		if pos+8 > len(b) {
			return info, fmt.Errorf("truncated chunk header at byte %d", pos)
		}
		length := int(binary.BigEndian.Uint32(b[pos : pos+4]))
		typ := string(b[pos+4 : pos+8])
		if pos+8+length+4 > len(b) || length < 0 {
			return info, fmt.Errorf("truncated %s chunk at byte %d", typ, pos)
		}
		data := b[pos+8 : pos+8+length]
		want := binary.BigEndian.Uint32(b[pos+8+length : pos+12+length])
		if got := crc32.ChecksumIEEE(b[pos+4 : pos+8+length]); got != want {
			return info, fmt.Errorf("%s chunk CRC mismatch (got %08x, want %08x)", typ, got, want)
		}
		if first && typ != "IHDR" {
			return info, fmt.Errorf("first chunk is %s, not IHDR", typ)
		}
		first = false
		switch typ {
		case "IHDR":
			if length != 13 {
				return info, fmt.Errorf("IHDR length %d", length)
			}
			info.Width = int(binary.BigEndian.Uint32(data[0:4]))
			info.Height = int(binary.BigEndian.Uint32(data[4:8]))
			info.BitDepth = data[8]
			info.ColorType = data[9]
			if data[10] != 0 || data[11] != 0 {
				return info, fmt.Errorf("unknown compression/filter method %d/%d", data[10], data[11])
			}
			info.Interlace = data[12]
		case "PLTE":
			if length%3 != 0 {
				return info, fmt.Errorf("PLTE length %d not divisible by 3", length)
			}
			if collectData {
				info.Palette = append(info.Palette, data...)
			}
		case "tRNS":
			info.HasTRNS = true
		case "pHYs":
			if length == 9 && data[8] == 1 { // pixels per metre
				info.DPIX = float64(binary.BigEndian.Uint32(data[0:4])) * 0.0254
				info.DPIY = float64(binary.BigEndian.Uint32(data[4:8])) * 0.0254
			}
		case "IDAT":
			if collectData {
				info.IDAT = append(info.IDAT, data...)
			}
		case "IEND":
			if info.Width == 0 && info.Height == 0 {
				return info, fmt.Errorf("IEND without IHDR")
			}
			return info, nil
		}
		pos += 8 + length + 4
	}
}
