// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

// Recoverable diagnostics recorded against a Session while loading images.
// Unlike Error, these never abort the caller: the affected image is simply
// excluded and the session continues over whatever loaded successfully.
var (
	// DiagCompactDexRejected is reported when a zip entry or buffer carries
	// compact dex (cdex) magic instead of standard dex.
	DiagCompactDexRejected = "compact dex (cdex) image rejected"

	// DiagFileSizeMismatch is reported when header.FileSize does not match
	// the mapping length.
	DiagFileSizeMismatch = "header file_size does not match image length"

	// DiagTruncatedTable is reported when a fixed table read runs past the
	// end of the image.
	DiagTruncatedTable = "truncated table during parse"

	// DiagSignatureUnverified is reported when an APK's META-INF/*.RSA
	// signature block could not be read or parsed as PKCS7, and
	// DisableCertValidation was not set.
	DiagSignatureUnverified = "APK signature block present but unverified"

	// DiagNoDexEntries describes a zip archive that was opened but
	// contained no classes*.dex entries. The loader reports that case as
	// an ErrEmptyArchive error, not by recording this diagnostic.
	DiagNoDexEntries = "archive contains no classes*.dex entries"
)

// Diagnostics accumulates non-fatal, per-image warnings produced while a
// Session loads its images. The zero value is ready to use.
type Diagnostics struct {
	entries []string
}

// Add records one diagnostic message, formatted as "<what>: <message>".
func (d *Diagnostics) Add(what, message string) {
	d.entries = append(d.entries, what+": "+message)
}

// Messages returns every recorded diagnostic, in the order they were
// added.
func (d *Diagnostics) Messages() []string {
	return d.entries
}

// Empty reports whether no diagnostics have been recorded.
func (d *Diagnostics) Empty() bool {
	return len(d.entries) == 0
}
