// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "regexp"

// StringMatchMode names how a StringPattern anchors against a candidate
// string.
type StringMatchMode int

const (
	MatchContains StringMatchMode = iota
	MatchStartsWith
	MatchEndsWith
	MatchEquals
)

// StringPattern is one literal pattern plus its anchoring mode. Patterns
// across a whole query are compiled into a single ACDAT; anchoring is
// enforced afterward as a post-filter on each hit.
type StringPattern struct {
	Text string
	Mode StringMatchMode
}

// matchesWhole reports whether candidate as a whole satisfies p: it
// contains, starts with, ends with or equals p.Text, per p.Mode.
func (p StringPattern) matchesWhole(candidate string) bool {
	switch p.Mode {
	case MatchStartsWith:
		return len(candidate) >= len(p.Text) && candidate[:len(p.Text)] == p.Text
	case MatchEndsWith:
		return len(candidate) >= len(p.Text) && candidate[len(candidate)-len(p.Text):] == p.Text
	case MatchEquals:
		return candidate == p.Text
	default:
		return containsSubstring(candidate, p.Text)
	}
}

func containsSubstring(haystack, needle string) bool {
	if len(needle) == 0 {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

// AccessFlagConstraint restricts the access_flags bits a class/method/
// field must have set (Mask selects which bits matter, Value is their
// required state within that mask).
type AccessFlagConstraint struct {
	Mask  uint32
	Value uint32
}

func (c AccessFlagConstraint) matches(flags uint32) bool {
	if c.Mask == 0 {
		return true
	}
	return flags&c.Mask == c.Value&c.Mask
}

// ClassQuery is a nested predicate tree filtering classes.
type ClassQuery struct {
	DescriptorRegex *regexp.Regexp
	SourceFile      string
	SuperclassRegex *regexp.Regexp
	InterfaceRegex  *regexp.Regexp
	AccessFlags     AccessFlagConstraint
	AnnotationRegex *regexp.Regexp
	UsingStrings    []StringPattern
	Methods         *MethodQuery // at least one declared method must match
	Fields          *FieldQuery  // at least one declared field must match
}

// MethodQuery is a nested predicate tree filtering methods.
type MethodQuery struct {
	Class            *ClassQuery
	NameRegex        *regexp.Regexp
	ReturnDescriptor string   // "" means unconstrained; "*" is the shorty wildcard
	ParamDescriptors []string // entries may be "*"
	AccessFlags      AccessFlagConstraint
	AnnotationRegex  *regexp.Regexp
	UsingStrings     []StringPattern
	FieldsRead       []string // field name substrings
	FieldsWritten    []string
	CallsNameRegex   *regexp.Regexp // methods called must match this name
	CalledByRegex    *regexp.Regexp // callers must match this name
	OpcodeSequence   []Opcode       // contiguous subsequence that must occur
}

// FieldQuery is a nested predicate tree filtering fields.
type FieldQuery struct {
	Class           *ClassQuery
	TypeDescriptor  string
	NameRegex       *regexp.Regexp
	AccessFlags     AccessFlagConstraint
	AnnotationRegex *regexp.Regexp
}

// evalClass reports whether class cd (in df) satisfies q.
func evalClass(sess *Session, df *DexFile, cd *ClassDef, q *ClassQuery) bool {
	if q == nil {
		return true
	}
	descriptor, err := df.TypeDescriptor(cd.ClassIdx)
	if err != nil {
		return false
	}
	if q.DescriptorRegex != nil && !q.DescriptorRegex.MatchString(descriptor) {
		return false
	}
	if q.SourceFile != "" {
		if cd.SourceFileIdx == noIndex {
			return false
		}
		sf, err := df.String(cd.SourceFileIdx)
		if err != nil || sf != q.SourceFile {
			return false
		}
	}
	if q.SuperclassRegex != nil {
		if cd.SuperclassIdx == noIndex {
			return false
		}
		super, err := df.TypeDescriptor(cd.SuperclassIdx)
		if err != nil || !q.SuperclassRegex.MatchString(super) {
			return false
		}
	}
	if q.InterfaceRegex != nil {
		ifaces, err := df.InterfaceTypeIndices(cd)
		if err != nil {
			return false
		}
		found := false
		for _, ti := range ifaces {
			name, err := df.TypeDescriptor(ti)
			if err == nil && q.InterfaceRegex.MatchString(name) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !q.AccessFlags.matches(cd.AccessFlags) {
		return false
	}
	if q.AnnotationRegex != nil {
		dir, err := df.AnnotationsDirectory(cd)
		if err != nil || !anyAnnotationMatches(df, dir.ClassAnnotations, q.AnnotationRegex) {
			return false
		}
	}
	if len(q.UsingStrings) > 0 && !classUsesStrings(sess, df, cd, q.UsingStrings) {
		return false
	}
	if q.Methods != nil || q.Fields != nil {
		cdata, err := df.ClassData(cd)
		if err != nil {
			return false
		}
		if q.Methods != nil && !anyMethodMatches(sess, df, cd, cdata, q.Methods) {
			return false
		}
		if q.Fields != nil && !anyFieldMatches(df, cd, cdata, q.Fields) {
			return false
		}
	}
	return true
}

func anyAnnotationMatches(df *DexFile, anns []Annotation, re *regexp.Regexp) bool {
	for _, a := range anns {
		name, err := df.TypeDescriptor(a.TypeIdx)
		if err == nil && re.MatchString(name) {
			return true
		}
	}
	return false
}

// classUsesStrings reports whether every pattern is present somewhere in
// the class: its own descriptor/superclass/interfaces, its fields' type
// descriptors, or any of its methods' referenced strings. The candidate string set is run through
// the same single-pass ACDAT matcher batch queries use, rather than
// testing each pattern against the set independently.
func classUsesStrings(sess *Session, df *DexFile, cd *ClassDef, patterns []StringPattern) bool {
	cdata, err := df.ClassData(cd)
	if err != nil {
		return false
	}
	return matchesAllPatterns(patterns, collectClassStrings(df, cd, cdata))
}

// matchesAllPatterns reports whether every pattern is satisfied by some
// string in strs, materializing the match via a single ACDAT pass over
// strs rather than a pattern-by-pattern linear scan.
func matchesAllPatterns(patterns []StringPattern, strs []string) bool {
	group := []PatternGroup{{Patterns: patterns}}
	trie := buildBatchTrie(group)
	combined := newGroupHitSet()
	for _, s := range strs {
		for gi, bucket := range scanStringForGroups(trie, group, s) {
			for pi := range bucket {
				combined.mark(gi, pi)
			}
		}
	}
	return len(satisfiedGroups(combined, group)) == 1
}

func collectClassStrings(df *DexFile, cd *ClassDef, cdata *ClassData) []string {
	var out []string
	if name, err := df.TypeDescriptor(cd.ClassIdx); err == nil {
		out = append(out, name)
	}
	if cd.SuperclassIdx != noIndex {
		if s, err := df.TypeDescriptor(cd.SuperclassIdx); err == nil {
			out = append(out, s)
		}
	}
	if ifaces, err := df.InterfaceTypeIndices(cd); err == nil {
		for _, ti := range ifaces {
			if s, err := df.TypeDescriptor(ti); err == nil {
				out = append(out, s)
			}
		}
	}
	for _, ef := range append(append([]EncodedField{}, cdata.StaticFields...), cdata.InstanceFields...) {
		if int(ef.FieldIdx) < len(df.fieldIDs) {
			if s, err := df.TypeDescriptor(uint32(df.fieldIDs[ef.FieldIdx].TypeIdx)); err == nil {
				out = append(out, s)
			}
		}
	}
	for _, em := range append(append([]EncodedMethod{}, cdata.DirectMethods...), cdata.VirtualMethods...) {
		if em.CodeOff == 0 {
			continue
		}
		ci, err := parseCodeItem(df.data, em.CodeOff)
		if err != nil {
			continue
		}
		wr := walkCode(ci)
		for _, sr := range wr.Strings {
			if s, err := df.String(sr.StringIdx); err == nil {
				out = append(out, s)
			}
		}
	}
	return out
}

func anyMethodMatches(sess *Session, df *DexFile, cd *ClassDef, cdata *ClassData, q *MethodQuery) bool {
	for _, em := range append(append([]EncodedMethod{}, cdata.DirectMethods...), cdata.VirtualMethods...) {
		if evalMethod(sess, df, cd, em, q) {
			return true
		}
	}
	return false
}

func evalMethod(sess *Session, df *DexFile, cd *ClassDef, em EncodedMethod, q *MethodQuery) bool {
	if q == nil {
		return true
	}
	if int(em.MethodIdx) >= len(df.methodIDs) {
		return false
	}
	mid := df.methodIDs[em.MethodIdx]

	if q.Class != nil && !evalClass(sess, df, cd, q.Class) {
		return false
	}
	name, err := df.String(mid.NameIdx)
	if err != nil {
		return false
	}
	if q.NameRegex != nil && !q.NameRegex.MatchString(name) {
		return false
	}
	if !q.AccessFlags.matches(em.AccessFlags) {
		return false
	}
	if q.ReturnDescriptor != "" || len(q.ParamDescriptors) > 0 {
		if int(mid.ProtoIdx) >= len(df.protos) {
			return false
		}
		proto := df.protos[mid.ProtoIdx]
		retDesc, _ := df.TypeDescriptor(proto.ReturnTypeIdx)
		paramIdx, _ := df.ParameterTypeIndices(proto)
		params := make([]string, len(paramIdx))
		for i, ti := range paramIdx {
			params[i], _ = df.TypeDescriptor(ti)
		}
		wantRet := q.ReturnDescriptor
		if wantRet == "*" {
			wantRet = ""
		}
		shorty := DescriptorToMatchShorty(wantRet, nonWildcard(q.ParamDescriptors, params))
		methodShorty, _ := df.String(proto.ShortyIdx)
		if !ShortyDescriptorMatch(shorty, methodShorty) {
			return false
		}
	}

	var code *CodeItem
	if em.CodeOff != 0 {
		code, err = parseCodeItem(df.data, em.CodeOff)
		if err != nil {
			return false
		}
	}

	if q.AnnotationRegex != nil {
		dir, err := df.AnnotationsDirectory(cd)
		if err != nil || !anyAnnotationMatches(df, dir.MethodAnnotations[em.MethodIdx], q.AnnotationRegex) {
			return false
		}
	}

	if len(q.UsingStrings) > 0 {
		if code == nil || !methodUsesStrings(df, code, q.UsingStrings) {
			return false
		}
	}

	if len(q.OpcodeSequence) > 0 {
		if code == nil || !containsOpcodeSequence(code, q.OpcodeSequence) {
			return false
		}
	}

	if len(q.FieldsRead) > 0 || len(q.FieldsWritten) > 0 || q.CallsNameRegex != nil {
		if code == nil {
			return false
		}
		wr := walkCode(code)
		if len(q.FieldsRead) > 0 && !fieldRefsMatch(df, wr.Fields, FieldRead, q.FieldsRead) {
			return false
		}
		if len(q.FieldsWritten) > 0 && !fieldRefsMatch(df, wr.Fields, FieldWrite, q.FieldsWritten) {
			return false
		}
		if q.CallsNameRegex != nil && !methodCallsMatch(df, wr.Methods, q.CallsNameRegex) {
			return false
		}
	}

	if q.CalledByRegex != nil {
		methodID := encodeID(df.ordinal, KindMethod, em.MethodIdx)
		callers := sess.index.Callers(methodID)
		if !callerNamesMatch(sess, callers, q.CalledByRegex) {
			return false
		}
	}

	return true
}

func nonWildcard(patterns []string, actual []string) []string {
	if len(patterns) == 0 {
		return actual
	}
	return patterns
}

func methodUsesStrings(df *DexFile, code *CodeItem, patterns []StringPattern) bool {
	wr := walkCode(code)
	strs := make([]string, 0, len(wr.Strings))
	for _, sr := range wr.Strings {
		if s, err := df.String(sr.StringIdx); err == nil {
			strs = append(strs, s)
		}
	}
	return matchesAllPatterns(patterns, strs)
}

func containsOpcodeSequence(code *CodeItem, seq []Opcode) bool {
	wr := walkCode(code)
	if len(seq) == 0 || len(wr.Opcodes) < len(seq) {
		return false
	}
	for start := 0; start+len(seq) <= len(wr.Opcodes); start++ {
		ok := true
		for i, want := range seq {
			if wr.Opcodes[start+i].Opcode != want {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func fieldRefsMatch(df *DexFile, refs []FieldRef, kind FieldAccessKind, patterns []string) bool {
	for _, want := range patterns {
		found := false
		for _, r := range refs {
			if r.Access != kind {
				continue
			}
			if int(r.FieldIdx) >= len(df.fieldIDs) {
				continue
			}
			fid := df.fieldIDs[r.FieldIdx]
			name, err := df.String(fid.NameIdx)
			if err == nil && containsSubstring(name, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func methodCallsMatch(df *DexFile, refs []MethodRef, re *regexp.Regexp) bool {
	for _, r := range refs {
		if int(r.MethodIdx) >= len(df.methodIDs) {
			continue
		}
		mid := df.methodIDs[r.MethodIdx]
		name, err := df.String(mid.NameIdx)
		if err == nil && re.MatchString(name) {
			return true
		}
	}
	return false
}

func callerNamesMatch(sess *Session, ids []EncodedID, re *regexp.Regexp) bool {
	for _, id := range ids {
		m, ok := sess.index.Method(id)
		if !ok {
			continue
		}
		mid := m.file.methodIDs[m.enc.MethodIdx]
		name, err := m.file.String(mid.NameIdx)
		if err == nil && re.MatchString(name) {
			return true
		}
	}
	return false
}

func anyFieldMatches(df *DexFile, cd *ClassDef, cdata *ClassData, q *FieldQuery) bool {
	for _, ef := range append(append([]EncodedField{}, cdata.StaticFields...), cdata.InstanceFields...) {
		if evalField(df, cd, ef, q) {
			return true
		}
	}
	return false
}

func evalField(df *DexFile, cd *ClassDef, ef EncodedField, q *FieldQuery) bool {
	if q == nil {
		return true
	}
	if int(ef.FieldIdx) >= len(df.fieldIDs) {
		return false
	}
	fid := df.fieldIDs[ef.FieldIdx]
	if !q.AccessFlags.matches(ef.AccessFlags) {
		return false
	}
	name, err := df.String(fid.NameIdx)
	if err != nil {
		return false
	}
	if q.NameRegex != nil && !q.NameRegex.MatchString(name) {
		return false
	}
	if q.TypeDescriptor != "" {
		typeDesc, err := df.TypeDescriptor(uint32(fid.TypeIdx))
		if err != nil || typeDesc != q.TypeDescriptor {
			return false
		}
	}
	if q.AnnotationRegex != nil {
		dir, err := df.AnnotationsDirectory(cd)
		if err != nil || !anyAnnotationMatches(df, dir.FieldAnnotations[ef.FieldIdx], q.AnnotationRegex) {
			return false
		}
	}
	return true
}
