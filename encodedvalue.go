// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

// Value type tags for encoded_value, per the DEX encoding.
const (
	valueByte          = 0x00
	valueShort         = 0x02
	valueChar          = 0x03
	valueInt           = 0x04
	valueLong          = 0x06
	valueFloat         = 0x10
	valueDouble        = 0x11
	valueMethodType    = 0x15
	valueMethodHandle  = 0x16
	valueString        = 0x17
	valueType          = 0x18
	valueField         = 0x19
	valueMethod        = 0x1a
	valueEnum          = 0x1b
	valueArray         = 0x1c
	valueAnnotation    = 0x1d
	valueNull          = 0x1e
	valueBoolean       = 0x1f
)

// EncodedValue is a decoded encoded_value: a type tag plus either a scalar
// payload (Scalar, the sign/zero-extended little-endian integer reading of
// the value bytes) or a nested Array/Annotation for the two container
// kinds.
type EncodedValue struct {
	Type       byte
	Scalar     int64
	Annotation *EncodedAnnotation
	Array      []EncodedValue
}

// AnnotationElement is one name/value pair of an encoded_annotation.
type AnnotationElement struct {
	NameIdx uint32
	Value   EncodedValue
}

// EncodedAnnotation is a type descriptor plus its name/value pairs, the
// payload shared by annotation_item and VALUE_ANNOTATION encoded values.
type EncodedAnnotation struct {
	TypeIdx  uint32
	Elements []AnnotationElement
}

// AnnotationVisibility classifies where an annotation_item is retained.
type AnnotationVisibility byte

const (
	VisibilityBuild   AnnotationVisibility = 0x00
	VisibilityRuntime AnnotationVisibility = 0x01
	VisibilitySystem  AnnotationVisibility = 0x02
)

// Annotation is a parsed annotation_item: its visibility plus the
// underlying encoded_annotation.
type Annotation struct {
	Visibility AnnotationVisibility
	EncodedAnnotation
}

// parseEncodedValue decodes one encoded_value at offset, returning the
// value and the offset immediately following it.
func parseEncodedValue(data []byte, offset uint32) (EncodedValue, uint32, error) {
	header, err := readUint8(data, offset)
	if err != nil {
		return EncodedValue{}, 0, newErr(ErrParse, "truncated encoded_value header", err)
	}
	valueType := header & 0x1f
	valueArg := header >> 5
	pos := offset + 1

	switch valueType {
	case valueAnnotation:
		ann, next, err := parseEncodedAnnotation(data, pos)
		if err != nil {
			return EncodedValue{}, 0, err
		}
		return EncodedValue{Type: valueType, Annotation: &ann}, next, nil

	case valueArray:
		count, next, err := readULEB128(data, pos)
		if err != nil {
			return EncodedValue{}, 0, err
		}
		pos = next
		arr := make([]EncodedValue, count)
		for i := uint32(0); i < count; i++ {
			v, n, err := parseEncodedValue(data, pos)
			if err != nil {
				return EncodedValue{}, 0, err
			}
			arr[i] = v
			pos = n
		}
		return EncodedValue{Type: valueType, Array: arr}, pos, nil

	case valueNull:
		return EncodedValue{Type: valueType}, pos, nil

	case valueBoolean:
		return EncodedValue{Type: valueType, Scalar: int64(valueArg)}, pos, nil

	default:
		size := int(valueArg) + 1
		raw, err := readBytes(data, pos, uint32(size))
		if err != nil {
			return EncodedValue{}, 0, newErr(ErrParse, "truncated encoded_value payload", err)
		}
		var scalar int64
		for i := size - 1; i >= 0; i-- {
			scalar = scalar<<8 | int64(raw[i])
		}
		return EncodedValue{Type: valueType, Scalar: scalar}, pos + uint32(size), nil
	}
}

// parseEncodedAnnotation decodes an encoded_annotation (type_idx, size,
// elements[]) at offset.
func parseEncodedAnnotation(data []byte, offset uint32) (EncodedAnnotation, uint32, error) {
	typeIdx, pos, err := readULEB128(data, offset)
	if err != nil {
		return EncodedAnnotation{}, 0, err
	}
	count, pos2, err := readULEB128(data, pos)
	if err != nil {
		return EncodedAnnotation{}, 0, err
	}
	pos = pos2

	elems := make([]AnnotationElement, count)
	for i := uint32(0); i < count; i++ {
		nameIdx, next, err := readULEB128(data, pos)
		if err != nil {
			return EncodedAnnotation{}, 0, err
		}
		pos = next
		val, next2, err := parseEncodedValue(data, pos)
		if err != nil {
			return EncodedAnnotation{}, 0, err
		}
		pos = next2
		elems[i] = AnnotationElement{NameIdx: nameIdx, Value: val}
	}
	return EncodedAnnotation{TypeIdx: typeIdx, Elements: elems}, pos, nil
}

// parseAnnotationItem decodes one annotation_item (a visibility byte
// followed by an encoded_annotation) at offset.
func parseAnnotationItem(data []byte, offset uint32) (Annotation, error) {
	vis, err := readUint8(data, offset)
	if err != nil {
		return Annotation{}, newErr(ErrParse, "truncated annotation_item", err)
	}
	ann, _, err := parseEncodedAnnotation(data, offset+1)
	if err != nil {
		return Annotation{}, err
	}
	return Annotation{Visibility: AnnotationVisibility(vis), EncodedAnnotation: ann}, nil
}

// parseAnnotationSet decodes an annotation_set_item (a size-prefixed array
// of offsets to annotation_item) at offset. offset == 0 means "no
// annotations" and returns an empty set.
func parseAnnotationSet(data []byte, offset uint32, limit uint32) ([]Annotation, error) {
	if offset == 0 {
		return nil, nil
	}
	count, err := readUint32(data, offset)
	if err != nil {
		return nil, newErr(ErrParse, "truncated annotation_set_item", err)
	}
	if count > limit {
		count = limit
	}
	out := make([]Annotation, 0, count)
	for i := uint32(0); i < count; i++ {
		annOff, err := readUint32(data, offset+4+i*4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated annotation_set_item offsets", err)
		}
		ann, err := parseAnnotationItem(data, annOff)
		if err != nil {
			return nil, err
		}
		out = append(out, ann)
	}
	return out, nil
}
