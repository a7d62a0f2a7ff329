// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import (
	"bytes"
	"encoding/binary"
)

// ErrOutsideBoundary is reported when attempting to read an address beyond
// the image's mapped length.
var ErrOutsideBoundary = newErr(ErrParse, "reading data outside image boundary", nil)

// readUint32 reads a little-endian uint32 from data at offset, with bounds
// checking.
func readUint32(data []byte, offset uint32) (uint32, error) {
	if offset > uint32(len(data))-4 || offset+4 < offset {
		return 0, ErrOutsideBoundary
	}
	return binary.LittleEndian.Uint32(data[offset:]), nil
}

// readUint16 reads a little-endian uint16 from data at offset.
func readUint16(data []byte, offset uint32) (uint16, error) {
	if offset > uint32(len(data))-2 || offset+2 < offset {
		return 0, ErrOutsideBoundary
	}
	return binary.LittleEndian.Uint16(data[offset:]), nil
}

// readUint8 reads a single byte from data at offset.
func readUint8(data []byte, offset uint32) (uint8, error) {
	if offset+1 > uint32(len(data)) || offset+1 < offset {
		return 0, ErrOutsideBoundary
	}
	return data[offset], nil
}

// readBytes returns a zero-copy slice into data.
func readBytes(data []byte, offset, size uint32) ([]byte, error) {
	total := offset + size
	if (total > offset) != (size > 0) {
		return nil, ErrOutsideBoundary
	}
	if offset > uint32(len(data)) || total > uint32(len(data)) {
		return nil, ErrOutsideBoundary
	}
	return data[offset:total], nil
}

// structUnpack decodes a fixed-layout little-endian struct at offset,
// mirroring how fixed DEX table rows (string_id_item, type_id_item,
// proto_id_item, ...) are laid out.
func structUnpack(data []byte, iface any, offset, size uint32) error {
	raw, err := readBytes(data, offset, size)
	if err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(raw), binary.LittleEndian, iface)
}

// readULEB128 decodes an unsigned LEB128 value starting at offset. The low
// 7 bits of each byte carry data; bit 7 signals continuation. Returns the
// decoded value and the offset of the first byte after the encoding.
func readULEB128(data []byte, offset uint32) (uint32, uint32, error) {
	var result uint32
	shift := uint(0)
	pos := offset
	for {
		b, err := readUint8(data, pos)
		if err != nil {
			return 0, 0, newErr(ErrParse, "truncated uleb128", err)
		}
		pos++
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 35 {
			return 0, 0, newErr(ErrParse, "uleb128 too long", nil)
		}
	}
	return result, pos, nil
}

// readULEB128p1 decodes a ULEB128p1 value: the encoded value is the real
// value plus one, with 0xffffffff ("-1" encoded as ULEB128 of 0) used as a
// sentinel for "absent" (e.g. a method/field/parameter with no name).
func readULEB128p1(data []byte, offset uint32) (int64, uint32, error) {
	v, next, err := readULEB128(data, offset)
	if err != nil {
		return 0, 0, err
	}
	return int64(v) - 1, next, nil
}

// readSLEB128 decodes a signed LEB128 value starting at offset.
func readSLEB128(data []byte, offset uint32) (int32, uint32, error) {
	var result int32
	shift := uint(0)
	pos := offset
	var b byte
	var err error
	for {
		b, err = readUint8(data, pos)
		if err != nil {
			return 0, 0, newErr(ErrParse, "truncated sleb128", err)
		}
		pos++
		result |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift > 35 {
			return 0, 0, newErr(ErrParse, "sleb128 too long", nil)
		}
	}
	if shift < 32 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, pos, nil
}

// getStringFromData returns the NUL-terminated byte slice starting at
// offset within data, without allocating, mirroring the teacher's
// GetStringFromData.
func getStringFromData(data []byte, offset uint32) []byte {
	size := uint32(len(data))
	if offset >= size {
		return nil
	}
	end := offset
	for end < size && data[end] != 0 {
		end++
	}
	return data[offset:end]
}

// decodeMUTF8 decodes a DEX "modified UTF-8" string: like standard UTF-8 but
// encoding U+0000 as a two-byte overlong sequence and never containing a
// literal embedded NUL, which is why string data can be read as a plain
// NUL-terminated byte run. DEX strings rarely use the actual 6-byte
// surrogate-pair extension; decoding it is a straightforward extension of
// the 1/2/3-byte cases.
//
// No ecosystem package implements Java's modified UTF-8 (golang.org/x/text
// only covers the standard transformation codecs), so this is hand-rolled.
func decodeMUTF8(b []byte) string {
	out := make([]rune, 0, len(b))
	i := 0
	for i < len(b) {
		c0 := b[i]
		switch {
		case c0&0x80 == 0:
			out = append(out, rune(c0))
			i++
		case c0&0xE0 == 0xC0 && i+1 < len(b):
			c1 := b[i+1]
			out = append(out, rune(c0&0x1F)<<6|rune(c1&0x3F))
			i += 2
		case c0&0xF0 == 0xE0 && i+2 < len(b):
			c1, c2 := b[i+1], b[i+2]
			r := rune(c0&0x0F)<<12 | rune(c1&0x3F)<<6 | rune(c2&0x3F)
			if r >= 0xD800 && r <= 0xDBFF && i+5 < len(b) && b[i+3] == 0xED {
				c4, c5 := b[i+4], b[i+5]
				low := rune(0xED&0x0F)<<12 | rune(c4&0x3F)<<6 | rune(c5&0x3F)
				out = append(out, 0x10000+(r-0xD800)*0x400+(low-0xDC00))
				i += 6
				continue
			}
			out = append(out, r)
			i += 3
		default:
			out = append(out, rune(c0))
			i++
		}
	}
	return string(out)
}
