// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
)

var patternCaser = cases.Fold()

// canonicalizePattern normalizes a string-match pattern (and, by the same
// path, the DEX strings it is matched against) the way spec callers are
// required to before building an ACDAT automaton: fold case, then
// round-trip through UTF-16 the way the teacher's VERSIONINFO string
// decoder does, so a pattern built against one source encoding still
// matches a DEX string that reached this process through another.
func canonicalizePattern(s string) string {
	folded := patternCaser.String(s)
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	u16, err := enc.NewEncoder().String(folded)
	if err != nil {
		return folded
	}
	out, err := enc.NewDecoder().String(u16)
	if err != nil {
		return folded
	}
	return out
}

// Session owns every loaded DEX image and the indexes built over them. It
// is the sole entry point external callers use; releasing it (Close)
// invalidates every EncodedID it handed out.
type Session struct {
	mu sync.Mutex

	images   []*image
	dexFiles []*DexFile
	index    *index

	opts   *Options
	helper *log.Helper
	diag   Diagnostics

	pool *workerPool
}

// New creates a Session from a zip archive path, a list of raw buffers,
// or host-supplied image pointers. opts may be nil.
func New(source any, opts *Options) (*Session, error) {
	o := opts.withDefaults()
	helper := newHelper(o)

	s := &Session{opts: o, helper: helper}

	images, err := loadImages(&s.diag, o, source)
	if err != nil {
		return nil, err
	}
	s.images = images

	s.dexFiles = make([]*DexFile, len(images))
	var usable []*DexFile
	for i, im := range images {
		df, err := parseDexFile(im.ordinal, im.data)
		if err != nil {
			s.diag.Add("dex", "parse failed, image excluded")
			helper.Warnf("dex ordinal %d failed to parse: %v", im.ordinal, err)
			continue
		}
		s.dexFiles[i] = df
		usable = append(usable, df)
	}
	if len(usable) == 0 {
		return nil, newErr(ErrInvalidImage, "no DEX image parsed successfully", nil)
	}
	s.dexFiles = usable
	s.index = newIndex(s.dexFiles)
	s.pool = newWorkerPool(o.ThreadNum)

	if o.EagerFullCache {
		s.InitFullCache()
	}
	return s, nil
}

// SetThreadNum changes the worker pool width; takes effect for the next
// query, not any query already dispatched.
func (s *Session) SetThreadNum(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.ThreadNum = n
	s.pool.close()
	s.pool = newWorkerPool(n)
}

// InitFullCache eagerly builds every lazy index.
func (s *Session) InitFullCache() {
	s.index.buildClasses()
	s.index.buildMethods()
	s.index.buildFields()
	s.index.buildStringUsers()
	s.index.buildCallGraph()
	s.index.buildFieldAccess()
}

// GetDexNum reports how many DEX images are loaded and usable.
func (s *Session) GetDexNum() int {
	return len(s.dexFiles)
}

// Diagnostics returns the non-fatal warnings accumulated while loading.
func (s *Session) Diagnostics() []string {
	return s.diag.Messages()
}

// ExportDexFile writes each owned image back out as a standalone
// classes<N>.dex file under dir.
func (s *Session) ExportDexFile(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newErr(ErrFileNotFound, "cannot create export directory", err)
	}
	for _, df := range s.dexFiles {
		name := "classes.dex"
		if df.ordinal > 0 {
			name = "classes" + itoa(int(df.ordinal)+1) + ".dex"
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, df.data, 0o644); err != nil {
			return newErr(ErrFileNotFound, "cannot write exported dex", err)
		}
	}
	return nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Close releases every owned mapping. Encoded ids handed out by this
// Session must not be used afterward.
func (s *Session) Close() error {
	s.pool.close()
	for _, im := range s.images {
		im.close()
	}
	return nil
}

// FindClass runs q over every loaded class and returns the stable,
// deduplicated result envelope.
func (s *Session) FindClass(q *ClassQuery, project ResultProjection) []byte {
	s.index.buildClasses()
	rb := newResultBuilder(project)
	s.pool.run(s.dexFiles, 64, func(df *DexFile, lo, hi int) {
		for i := lo; i < hi; i++ {
			cd := &df.classDefs[i]
			if evalClass(s, df, cd, q) {
				name, _ := df.TypeDescriptor(cd.ClassIdx)
				s.mu.Lock()
				rb.Add(encodeID(df.ordinal, KindClass, cd.ClassIdx), name)
				s.mu.Unlock()
			}
		}
	})
	return rb.Encode()
}

// FindMethod runs q over every loaded method.
func (s *Session) FindMethod(q *MethodQuery, project ResultProjection) []byte {
	s.index.buildMethods()
	rb := newResultBuilder(project)
	for i := range s.index.methods {
		m := &s.index.methods[i]
		if evalMethod(s, m.file, m.def, m.enc, q) {
			mid := m.file.methodIDs[m.enc.MethodIdx]
			name, _ := m.file.String(mid.NameIdx)
			rb.Add(encodeID(m.file.ordinal, KindMethod, m.enc.MethodIdx), name)
		}
	}
	return rb.Encode()
}

// FindField runs q over every loaded field.
func (s *Session) FindField(q *FieldQuery, project ResultProjection) []byte {
	s.index.buildFields()
	rb := newResultBuilder(project)
	for i := range s.index.fields {
		f := &s.index.fields[i]
		if evalField(f.file, f.def, f.enc, q) {
			fid := f.file.fieldIDs[f.enc.FieldIdx]
			name, _ := f.file.String(fid.NameIdx)
			rb.Add(encodeID(f.file.ordinal, KindField, f.enc.FieldIdx), name)
		}
	}
	return rb.Encode()
}

// GetClassByDescriptor resolves a class by its exact type descriptor.
func (s *Session) GetClassByDescriptor(descriptor string) (EncodedID, bool) {
	e, ok := s.index.ClassByName(descriptor)
	if !ok {
		return InvalidID, false
	}
	return encodeID(e.file.ordinal, KindClass, e.def.ClassIdx), true
}

// GetParameterNames returns the declared parameter names for a method,
// absent entries represented by "".
func (s *Session) GetParameterNames(id EncodedID) ([]string, error) {
	m, ok := s.index.Method(id)
	if !ok {
		return nil, newErr(ErrIndexUnavailable, "unknown method id", nil)
	}
	if m.code == nil || m.code.DebugInfoOff == 0 {
		return nil, nil
	}
	info, err := m.file.DebugInfo(m.code)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(info.ParameterNames))
	for i, idx := range info.ParameterNames {
		if idx == noIndex {
			continue
		}
		out[i], _ = m.file.String(idx)
	}
	return out, nil
}

// GetMethodOpCodes returns the opcode stream for a method, in source
// order.
func (s *Session) GetMethodOpCodes(id EncodedID) ([]byte, error) {
	m, ok := s.index.Method(id)
	if !ok {
		return nil, newErr(ErrIndexUnavailable, "unknown method id", nil)
	}
	if m.code == nil {
		return nil, nil
	}
	wr := walkCode(m.code)
	out := make([]byte, len(wr.Opcodes))
	for i, h := range wr.Opcodes {
		out[i] = byte(h.Opcode)
	}
	return out, nil
}

// GetUsingStrings returns every distinct string a method's body
// references.
func (s *Session) GetUsingStrings(id EncodedID) ([]string, error) {
	m, ok := s.index.Method(id)
	if !ok {
		return nil, newErr(ErrIndexUnavailable, "unknown method id", nil)
	}
	if m.code == nil {
		return nil, nil
	}
	wr := walkCode(m.code)
	seen := make(map[string]struct{}, len(wr.Strings))
	var out []string
	for _, sr := range wr.Strings {
		str, err := m.file.String(sr.StringIdx)
		if err != nil {
			continue
		}
		if _, dup := seen[str]; dup {
			continue
		}
		seen[str] = struct{}{}
		out = append(out, str)
	}
	return out, nil
}

// GetUsingFields returns the field ids a method's body reads or writes.
func (s *Session) GetUsingFields(id EncodedID) ([]EncodedID, error) {
	m, ok := s.index.Method(id)
	if !ok {
		return nil, newErr(ErrIndexUnavailable, "unknown method id", nil)
	}
	if m.code == nil {
		return nil, nil
	}
	wr := walkCode(m.code)
	rb := newResultBuilder(ProjectIDsOnly)
	for _, fr := range wr.Fields {
		rb.Add(encodeID(m.file.ordinal, KindField, fr.FieldIdx), "")
	}
	return rb.ids, nil
}

// GetCallMethods returns every method that calls method id (its
// callers).
func (s *Session) GetCallMethods(id EncodedID) []EncodedID {
	return s.index.Callers(id)
}

// GetInvokeMethods returns every method that method id calls (its
// callees).
func (s *Session) GetInvokeMethods(id EncodedID) []EncodedID {
	return s.index.Callees(id)
}

// FieldGetMethods returns every method that reads field id.
func (s *Session) FieldGetMethods(id EncodedID) []EncodedID {
	return s.index.FieldReaders(id)
}

// FieldPutMethods returns every method that writes field id.
func (s *Session) FieldPutMethods(id EncodedID) []EncodedID {
	return s.index.FieldWriters(id)
}

// GetClassAnnotations returns the annotations declared directly on a
// class.
func (s *Session) GetClassAnnotations(id EncodedID) ([]Annotation, error) {
	s.index.buildClasses()
	for _, ce := range s.index.classes {
		if encodeID(ce.file.ordinal, KindClass, ce.def.ClassIdx) == id {
			dir, err := ce.file.AnnotationsDirectory(ce.def)
			if err != nil {
				return nil, err
			}
			return dir.ClassAnnotations, nil
		}
	}
	return nil, newErr(ErrIndexUnavailable, "unknown class id", nil)
}

// GetMethodAnnotations returns the annotations declared on a method.
func (s *Session) GetMethodAnnotations(id EncodedID) ([]Annotation, error) {
	m, ok := s.index.Method(id)
	if !ok {
		return nil, newErr(ErrIndexUnavailable, "unknown method id", nil)
	}
	dir, err := m.file.AnnotationsDirectory(m.def)
	if err != nil {
		return nil, err
	}
	return dir.MethodAnnotations[m.enc.MethodIdx], nil
}

// GetFieldAnnotations returns the annotations declared on a field.
func (s *Session) GetFieldAnnotations(id EncodedID) ([]Annotation, error) {
	f, ok := s.index.Field(id)
	if !ok {
		return nil, newErr(ErrIndexUnavailable, "unknown field id", nil)
	}
	dir, err := f.file.AnnotationsDirectory(f.def)
	if err != nil {
		return nil, err
	}
	return dir.FieldAnnotations[f.enc.FieldIdx], nil
}

// GetParameterAnnotations returns the per-parameter annotation sets
// declared on a method.
func (s *Session) GetParameterAnnotations(id EncodedID) ([][]Annotation, error) {
	m, ok := s.index.Method(id)
	if !ok {
		return nil, newErr(ErrIndexUnavailable, "unknown method id", nil)
	}
	dir, err := m.file.AnnotationsDirectory(m.def)
	if err != nil {
		return nil, err
	}
	return dir.ParameterAnnotations[m.enc.MethodIdx], nil
}
