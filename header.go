// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import (
	"bytes"
	"encoding/binary"
)

// dexMagicPrefix is the first 4 bytes of the 8-byte magic a standard DEX
// image starts with: "dex\n" followed by a 3-digit version and a trailing
// NUL. Only the first 4 bytes and the trailing NUL are format-fixed; the
// version digits vary (035, 037, 038, 039...).
var dexMagicPrefix = [4]byte{'d', 'e', 'x', '\n'}

// cdexMagicPrefix is the compact DEX magic; images with this magic are
// explicitly refused per spec.
var cdexMagicPrefix = [4]byte{'c', 'd', 'e', 'x'}

// TinyDexSize is the size of header_item alone; anything smaller cannot be
// a DEX image.
const TinyDexSize = 0x70

// Header mirrors DEX's header_item exactly, little-endian throughout.
type Header struct {
	Magic           [8]byte
	Checksum        uint32
	Signature       [20]byte
	FileSize        uint32
	HeaderSize      uint32
	EndianTag       uint32
	LinkSize        uint32
	LinkOff         uint32
	MapOff          uint32
	StringIDsSize   uint32
	StringIDsOff    uint32
	TypeIDsSize     uint32
	TypeIDsOff      uint32
	ProtoIDsSize    uint32
	ProtoIDsOff     uint32
	FieldIDsSize    uint32
	FieldIDsOff     uint32
	MethodIDsSize   uint32
	MethodIDsOff    uint32
	ClassDefsSize   uint32
	ClassDefsOff    uint32
	DataSize        uint32
	DataOff         uint32
}

// VersionString returns the 3-digit ASCII DEX version embedded in the
// magic, e.g. "035".
func (h *Header) VersionString() string {
	return string(h.Magic[4:7])
}

// validateMagic classifies the first 8 bytes of an image.
func validateMagic(data []byte) error {
	if len(data) < 8 {
		return newErr(ErrInvalidImage, "image shorter than dex magic", nil)
	}
	if bytes.Equal(data[:4], cdexMagicPrefix[:]) {
		return newErr(ErrInvalidImage, "compact dex (cdex) images are not supported", nil)
	}
	if !bytes.Equal(data[:4], dexMagicPrefix[:]) || data[7] != 0 {
		return newErr(ErrInvalidImage, "dex magic not found", nil)
	}
	return nil
}

// parseHeader parses and validates the header_item at the start of data.
func parseHeader(data []byte) (*Header, error) {
	if len(data) < TinyDexSize {
		return nil, newErr(ErrInvalidImage, "image smaller than header_item", nil)
	}
	if err := validateMagic(data); err != nil {
		return nil, err
	}

	var h Header
	if err := binary.Read(bytes.NewReader(data[:TinyDexSize]), binary.LittleEndian, &h); err != nil {
		return nil, newErr(ErrParse, "failed to decode header_item", err)
	}

	if h.FileSize != uint32(len(data)) {
		return nil, newErr(ErrInvalidImage, "header file_size does not match mapping length", nil)
	}
	return &h, nil
}
