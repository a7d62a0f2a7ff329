// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import (
	"archive/zip"
	"io"
	"os"
	"sort"
	"strings"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/gabriel-vasile/mimetype"
	"go.mozilla.org/pkcs7"
)

// image is one loaded, validated DEX region: either a memory-mapped file
// (owns an *os.File and an mmap.MMap that must be released) or a plain
// buffer (owned by the caller or copied in by the loader).
type image struct {
	ordinal uint16
	data    []byte
	mapping mmap.MMap
	file    *os.File
}

func (im *image) close() {
	if im.mapping != nil {
		_ = im.mapping.Unmap()
	}
	if im.file != nil {
		_ = im.file.Close()
	}
}

// loadImages realizes every DexFile a session will hold, from one of the
// three input shapes an Image Loader accepts: a zip archive path, a list
// of raw buffers, or host-supplied pointers. Images that fail validation
// are recorded in diag and excluded rather than aborting the whole load.
func loadImages(diag *Diagnostics, opts *Options, source any) ([]*image, error) {
	switch v := source.(type) {
	case string:
		return loadFromZipPath(diag, opts, v)
	case [][]byte:
		return loadFromBuffers(diag, v)
	case []HostImage:
		return loadFromHostPointers(diag, opts, v)
	default:
		return nil, newErr(ErrInvalidImage, "unsupported image source shape", nil)
	}
}

// HostImage is a foreign-runtime-supplied DEX image: an address and
// length already resident in the host process's memory, which the
// loader must validate and copy into an owned buffer before use. Ptr is
// deliberately unsafe.Pointer, mirroring how a managed-host bridge would
// describe an already-mapped region it does not want duplicated across
// languages.
type HostImage struct {
	Ptr unsafe.Pointer
	Len int
}

func loadFromHostPointers(diag *Diagnostics, opts *Options, hosts []HostImage) ([]*image, error) {
	if len(hosts) == 0 {
		return nil, newErr(ErrEmptyArchive, "no host image pointers supplied", nil)
	}
	var out []*image
	var ordinal uint16
	for _, h := range hosts {
		if h.Ptr == nil || h.Len <= 0 {
			diag.Add("host-image", "nil pointer or non-positive length, skipped")
			continue
		}
		view := unsafe.Slice((*byte)(h.Ptr), h.Len)
		owned := make([]byte, len(view))
		copy(owned, view)
		if !validateCandidate(diag, owned) {
			continue
		}
		out = append(out, &image{ordinal: ordinal, data: owned})
		ordinal++
	}
	if len(out) == 0 {
		return nil, newErr(ErrInvalidImage, "no usable DEX among host image pointers", nil)
	}
	return out, nil
}

func loadFromBuffers(diag *Diagnostics, buffers [][]byte) ([]*image, error) {
	if len(buffers) == 0 {
		return nil, newErr(ErrEmptyArchive, "no buffers supplied", nil)
	}
	var out []*image
	var ordinal uint16
	for _, b := range buffers {
		if !validateCandidate(diag, b) {
			continue
		}
		out = append(out, &image{ordinal: ordinal, data: b})
		ordinal++
	}
	if len(out) == 0 {
		return nil, newErr(ErrInvalidImage, "no usable DEX among supplied buffers", nil)
	}
	return out, nil
}

func loadFromZipPath(diag *Diagnostics, opts *Options, path string) ([]*image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newErr(ErrFileNotFound, "cannot open archive", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, newErr(ErrFileNotFound, "cannot stat archive", err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		// Not a zip at all: fall back to treating the path as a single
		// mmap'd raw DEX image.
		return loadSingleMappedFile(diag, path)
	}

	if opts == nil || !opts.DisableCertValidation {
		checkAPKSignature(diag, zr)
	}

	var names []string
	for _, zf := range zr.File {
		base := zf.Name
		if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
			base = base[idx+1:]
		}
		if strings.HasPrefix(base, "classes") && strings.HasSuffix(base, ".dex") {
			names = append(names, zf.Name)
		}
	}
	if len(names) == 0 {
		return nil, newErr(ErrEmptyArchive, "archive contains no classes*.dex entries", nil)
	}
	sort.Strings(names)

	byName := make(map[string]*zip.File, len(zr.File))
	for _, zf := range zr.File {
		byName[zf.Name] = zf
	}

	var out []*image
	var ordinal uint16
	for _, name := range names {
		zf := byName[name]
		rc, err := zf.Open()
		if err != nil {
			diag.Add(name, "could not open zip entry: "+err.Error())
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			diag.Add(name, "could not read zip entry: "+err.Error())
			continue
		}
		if !validateCandidate(diag, data) {
			continue
		}
		out = append(out, &image{ordinal: ordinal, data: data})
		ordinal++
	}
	if len(out) == 0 {
		return nil, newErr(ErrInvalidImage, "no usable DEX entries in archive", nil)
	}
	return out, nil
}

func loadSingleMappedFile(diag *Diagnostics, path string) ([]*image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newErr(ErrFileNotFound, "cannot open file", err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, newErr(ErrInvalidImage, "mmap failed", err)
	}
	im := &image{ordinal: 0, data: data, mapping: data, file: f}
	if !validateCandidate(diag, im.data) {
		im.close()
		return nil, newErr(ErrInvalidImage, "not a usable DEX image", nil)
	}
	return []*image{im}, nil
}

// validateCandidate runs the content-sniffing and magic/size checks every
// candidate image must pass before it is accepted.
func validateCandidate(diag *Diagnostics, data []byte) bool {
	if len(data) < TinyDexSize {
		diag.Add("image", "smaller than a dex header, skipped")
		return false
	}
	mt := mimetype.Detect(data)
	_ = mt // informational: content-type sniffing complements the magic check below

	if err := validateMagic(data); err != nil {
		if string(data[:4]) == string(cdexMagicPrefix[:]) {
			diag.Add("image", DiagCompactDexRejected)
		} else {
			diag.Add("image", "dex magic not found, skipped")
		}
		return false
	}
	h, err := parseHeader(data)
	if err != nil {
		if cerr, ok := err.(*Error); ok && cerr.Kind == ErrInvalidImage {
			diag.Add("image", DiagFileSizeMismatch)
		} else {
			diag.Add("image", DiagTruncatedTable)
		}
		return false
	}
	if h.FileSize != uint32(len(data)) {
		diag.Add("image", DiagFileSizeMismatch)
		return false
	}
	return true
}

// checkAPKSignature looks for a v1 (JAR) signature block under
// META-INF/ and attempts to parse it as PKCS#7; DexKit never rejects an
// image over signature validity. Only the first META-INF/*.RSA entry is
// examined, and a diagnostic is recorded only when that entry cannot be
// read or parsed; the signature itself is not verified. The check is not
// run when Options.DisableCertValidation is set.
func checkAPKSignature(diag *Diagnostics, zr *zip.Reader) {
	for _, zf := range zr.File {
		if !strings.HasPrefix(zf.Name, "META-INF/") || !strings.HasSuffix(zf.Name, ".RSA") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			diag.Add(zf.Name, DiagSignatureUnverified)
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			diag.Add(zf.Name, DiagSignatureUnverified)
			continue
		}
		if _, err := pkcs7.Parse(raw); err != nil {
			diag.Add(zf.Name, DiagSignatureUnverified)
		}
		return
	}
}
