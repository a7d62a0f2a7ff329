// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

// maxAnnotationSetSize bounds how many offsets parseAnnotationSet will
// follow from a single annotation_set_item, guarding against a corrupt
// size field turning a bounds-checked read into a denial-of-service loop.
const maxAnnotationSetSize = 0x10000

// AnnotationsDirectory is the decoded annotations_directory_item for one
// class_def: the class's own annotations plus per-field, per-method and
// per-method-parameter annotation sets, keyed by DEX-local ids.
type AnnotationsDirectory struct {
	ClassAnnotations     []Annotation
	FieldAnnotations     map[uint32][]Annotation   // field_idx -> annotation_set
	MethodAnnotations    map[uint32][]Annotation   // method_idx -> annotation_set
	ParameterAnnotations map[uint32][][]Annotation // method_idx -> per-parameter annotation_set
}

// AnnotationsDirectory decodes (and caches) the annotations_directory_item
// referenced by cd.AnnotationsOff. A class_def with AnnotationsOff == 0
// carries no annotations at all and returns a zero-value directory.
func (df *DexFile) AnnotationsDirectory(cd *ClassDef) (*AnnotationsDirectory, error) {
	if cd.AnnotationsOff == 0 {
		return &AnnotationsDirectory{}, nil
	}
	if cached, ok := df.annDirCache[cd.AnnotationsOff]; ok {
		return cached, nil
	}

	base := cd.AnnotationsOff
	classAnnOff, err := readUint32(df.data, base)
	if err != nil {
		return nil, newErr(ErrParse, "truncated annotations_directory_item", err)
	}
	fieldsSize, err := readUint32(df.data, base+4)
	if err != nil {
		return nil, newErr(ErrParse, "truncated annotations_directory_item", err)
	}
	methodsSize, err := readUint32(df.data, base+8)
	if err != nil {
		return nil, newErr(ErrParse, "truncated annotations_directory_item", err)
	}
	paramsSize, err := readUint32(df.data, base+12)
	if err != nil {
		return nil, newErr(ErrParse, "truncated annotations_directory_item", err)
	}

	dir := &AnnotationsDirectory{
		FieldAnnotations:     make(map[uint32][]Annotation, fieldsSize),
		MethodAnnotations:    make(map[uint32][]Annotation, methodsSize),
		ParameterAnnotations: make(map[uint32][][]Annotation, paramsSize),
	}

	if dir.ClassAnnotations, err = parseAnnotationSet(df.data, classAnnOff, maxAnnotationSetSize); err != nil {
		return nil, err
	}

	pos := base + 16
	for i := uint32(0); i < fieldsSize; i++ {
		fieldIdx, err := readUint32(df.data, pos)
		if err != nil {
			return nil, newErr(ErrParse, "truncated field_annotation", err)
		}
		annOff, err := readUint32(df.data, pos+4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated field_annotation", err)
		}
		pos += 8
		set, err := parseAnnotationSet(df.data, annOff, maxAnnotationSetSize)
		if err != nil {
			return nil, err
		}
		dir.FieldAnnotations[fieldIdx] = set
	}

	for i := uint32(0); i < methodsSize; i++ {
		methodIdx, err := readUint32(df.data, pos)
		if err != nil {
			return nil, newErr(ErrParse, "truncated method_annotation", err)
		}
		annOff, err := readUint32(df.data, pos+4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated method_annotation", err)
		}
		pos += 8
		set, err := parseAnnotationSet(df.data, annOff, maxAnnotationSetSize)
		if err != nil {
			return nil, err
		}
		dir.MethodAnnotations[methodIdx] = set
	}

	for i := uint32(0); i < paramsSize; i++ {
		methodIdx, err := readUint32(df.data, pos)
		if err != nil {
			return nil, newErr(ErrParse, "truncated parameter_annotation", err)
		}
		annOff, err := readUint32(df.data, pos+4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated parameter_annotation", err)
		}
		pos += 8
		sets, err := parseAnnotationSetRefList(df.data, annOff)
		if err != nil {
			return nil, err
		}
		dir.ParameterAnnotations[methodIdx] = sets
	}

	df.annDirCache[cd.AnnotationsOff] = dir
	return dir, nil
}

// parseAnnotationSetRefList decodes an annotation_set_ref_list: a
// size-prefixed array of offsets to annotation_set_item, one per formal
// parameter. An offset of 0 means that parameter carries no annotations.
func parseAnnotationSetRefList(data []byte, offset uint32) ([][]Annotation, error) {
	if offset == 0 {
		return nil, nil
	}
	count, err := readUint32(data, offset)
	if err != nil {
		return nil, newErr(ErrParse, "truncated annotation_set_ref_list", err)
	}
	out := make([][]Annotation, count)
	for i := uint32(0); i < count; i++ {
		setOff, err := readUint32(data, offset+4+i*4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated annotation_set_ref_item", err)
		}
		set, err := parseAnnotationSet(data, setOff, maxAnnotationSetSize)
		if err != nil {
			return nil, err
		}
		out[i] = set
	}
	return out, nil
}
