// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

// noIndex is the DEX sentinel for "absent" uint32 table references
// (superclass_idx, source_file_idx, ...).
const noIndex = 0xffffffff

// TypeID is an entry in the type_ids table: an index into the string table
// naming this type's descriptor.
type TypeID struct {
	DescriptorIdx uint32
}

// ProtoID is an entry in the proto_ids table.
type ProtoID struct {
	ShortyIdx     uint32
	ReturnTypeIdx uint32
	ParametersOff uint32
}

// FieldID is an entry in the field_ids table.
type FieldID struct {
	ClassIdx uint16
	TypeIdx  uint16
	NameIdx  uint32
}

// MethodID is an entry in the method_ids table.
type MethodID struct {
	ClassIdx uint16
	ProtoIdx uint16
	NameIdx  uint32
}

// ClassDef is an entry in the class_defs table.
type ClassDef struct {
	ClassIdx        uint32
	AccessFlags     uint32
	SuperclassIdx   uint32
	InterfacesOff   uint32
	SourceFileIdx   uint32
	AnnotationsOff  uint32
	ClassDataOff    uint32
	StaticValuesOff uint32
}

// EncodedField is one entry of an encoded_class_data field list.
type EncodedField struct {
	FieldIdx    uint32
	AccessFlags uint32
}

// EncodedMethod is one entry of an encoded_class_data method list.
type EncodedMethod struct {
	MethodIdx   uint32
	AccessFlags uint32
	CodeOff     uint32
}

// ClassData is the decoded encoded_class_data item for a class_def.
type ClassData struct {
	StaticFields   []EncodedField
	InstanceFields []EncodedField
	DirectMethods  []EncodedMethod
	VirtualMethods []EncodedMethod
}

// DexFile is one parsed DEX image: the fixed tables addressed by
// DEX-local id, plus the owning session's ordinal and the raw mapped
// bytes every zero-copy view is sliced from.
type DexFile struct {
	ordinal uint16
	data    []byte
	header  *Header

	stringOffsets []uint32 // string_id_item.string_data_off, by string id
	stringCache   []string // decoded lazily, each entry "" until first access

	types     []TypeID
	protos    []ProtoID
	fieldIDs  []FieldID
	methodIDs []MethodID
	classDefs []ClassDef

	classDataCache map[uint32]*ClassData          // keyed by ClassDef.ClassDataOff
	classByType    map[uint32]*ClassDef           // keyed by ClassDef.ClassIdx (a type id)
	annDirCache    map[uint32]*AnnotationsDirectory // keyed by ClassDef.AnnotationsOff
}

// parseDexFile parses every fixed table of a validated DEX image.
func parseDexFile(ordinal uint16, data []byte) (*DexFile, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	df := &DexFile{
		ordinal:        ordinal,
		data:           data,
		header:         h,
		classDataCache: make(map[uint32]*ClassData),
		annDirCache:    make(map[uint32]*AnnotationsDirectory),
	}

	if df.stringOffsets, err = parseStringIDs(data, h); err != nil {
		return nil, err
	}
	if df.types, err = parseTypeIDs(data, h); err != nil {
		return nil, err
	}
	if df.protos, err = parseProtoIDs(data, h); err != nil {
		return nil, err
	}
	if df.fieldIDs, err = parseFieldIDs(data, h); err != nil {
		return nil, err
	}
	if df.methodIDs, err = parseMethodIDs(data, h); err != nil {
		return nil, err
	}
	if df.classDefs, err = parseClassDefs(data, h); err != nil {
		return nil, err
	}

	df.stringCache = make([]string, len(df.stringOffsets))
	df.classByType = make(map[uint32]*ClassDef, len(df.classDefs))
	for i := range df.classDefs {
		df.classByType[df.classDefs[i].ClassIdx] = &df.classDefs[i]
	}

	return df, nil
}

func parseStringIDs(data []byte, h *Header) ([]uint32, error) {
	out := make([]uint32, h.StringIDsSize)
	for i := uint32(0); i < h.StringIDsSize; i++ {
		off, err := readUint32(data, h.StringIDsOff+i*4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated string_ids table", err)
		}
		out[i] = off
	}
	return out, nil
}

func parseTypeIDs(data []byte, h *Header) ([]TypeID, error) {
	out := make([]TypeID, h.TypeIDsSize)
	for i := uint32(0); i < h.TypeIDsSize; i++ {
		v, err := readUint32(data, h.TypeIDsOff+i*4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated type_ids table", err)
		}
		out[i] = TypeID{DescriptorIdx: v}
	}
	return out, nil
}

func parseProtoIDs(data []byte, h *Header) ([]ProtoID, error) {
	out := make([]ProtoID, h.ProtoIDsSize)
	for i := uint32(0); i < h.ProtoIDsSize; i++ {
		off := h.ProtoIDsOff + i*12
		shorty, err := readUint32(data, off)
		if err != nil {
			return nil, newErr(ErrParse, "truncated proto_ids table", err)
		}
		ret, err := readUint32(data, off+4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated proto_ids table", err)
		}
		params, err := readUint32(data, off+8)
		if err != nil {
			return nil, newErr(ErrParse, "truncated proto_ids table", err)
		}
		out[i] = ProtoID{ShortyIdx: shorty, ReturnTypeIdx: ret, ParametersOff: params}
	}
	return out, nil
}

func parseFieldIDs(data []byte, h *Header) ([]FieldID, error) {
	out := make([]FieldID, h.FieldIDsSize)
	for i := uint32(0); i < h.FieldIDsSize; i++ {
		off := h.FieldIDsOff + i*8
		classIdx, err := readUint16(data, off)
		if err != nil {
			return nil, newErr(ErrParse, "truncated field_ids table", err)
		}
		typeIdx, err := readUint16(data, off+2)
		if err != nil {
			return nil, newErr(ErrParse, "truncated field_ids table", err)
		}
		nameIdx, err := readUint32(data, off+4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated field_ids table", err)
		}
		out[i] = FieldID{ClassIdx: classIdx, TypeIdx: typeIdx, NameIdx: nameIdx}
	}
	return out, nil
}

func parseMethodIDs(data []byte, h *Header) ([]MethodID, error) {
	out := make([]MethodID, h.MethodIDsSize)
	for i := uint32(0); i < h.MethodIDsSize; i++ {
		off := h.MethodIDsOff + i*8
		classIdx, err := readUint16(data, off)
		if err != nil {
			return nil, newErr(ErrParse, "truncated method_ids table", err)
		}
		protoIdx, err := readUint16(data, off+2)
		if err != nil {
			return nil, newErr(ErrParse, "truncated method_ids table", err)
		}
		nameIdx, err := readUint32(data, off+4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated method_ids table", err)
		}
		out[i] = MethodID{ClassIdx: classIdx, ProtoIdx: protoIdx, NameIdx: nameIdx}
	}
	return out, nil
}

func parseClassDefs(data []byte, h *Header) ([]ClassDef, error) {
	out := make([]ClassDef, h.ClassDefsSize)
	for i := uint32(0); i < h.ClassDefsSize; i++ {
		off := h.ClassDefsOff + i*32
		fields := make([]uint32, 8)
		for j := range fields {
			v, err := readUint32(data, off+uint32(j)*4)
			if err != nil {
				return nil, newErr(ErrParse, "truncated class_defs table", err)
			}
			fields[j] = v
		}
		out[i] = ClassDef{
			ClassIdx:        fields[0],
			AccessFlags:     fields[1],
			SuperclassIdx:   fields[2],
			InterfacesOff:   fields[3],
			SourceFileIdx:   fields[4],
			AnnotationsOff:  fields[5],
			ClassDataOff:    fields[6],
			StaticValuesOff: fields[7],
		}
	}
	return out, nil
}

// String decodes and caches the string at DEX-local string id idx.
func (df *DexFile) String(idx uint32) (string, error) {
	if idx >= uint32(len(df.stringOffsets)) {
		return "", newErr(ErrParse, "string id out of range", nil)
	}
	if df.stringCache[idx] != "" {
		return df.stringCache[idx], nil
	}
	size, pos, err := readULEB128(df.data, df.stringOffsets[idx])
	if err != nil {
		return "", err
	}
	raw := getStringFromData(df.data, pos)
	s := decodeMUTF8(raw)
	_ = size // utf16 length, informational only; MUTF-8 byte run is NUL-terminated.
	df.stringCache[idx] = s
	return s, nil
}

// TypeDescriptor returns the descriptor string for a DEX-local type id.
func (df *DexFile) TypeDescriptor(typeIdx uint32) (string, error) {
	if typeIdx >= uint32(len(df.types)) {
		return "", newErr(ErrParse, "type id out of range", nil)
	}
	return df.String(df.types[typeIdx].DescriptorIdx)
}

// ParameterTypeIndices decodes a proto's parameter type_list.
func (df *DexFile) ParameterTypeIndices(proto ProtoID) ([]uint32, error) {
	if proto.ParametersOff == 0 {
		return nil, nil
	}
	count, err := readUint32(df.data, proto.ParametersOff)
	if err != nil {
		return nil, newErr(ErrParse, "truncated type_list size", err)
	}
	out := make([]uint32, count)
	base := proto.ParametersOff + 4
	for i := uint32(0); i < count; i++ {
		v, err := readUint16(df.data, base+i*2)
		if err != nil {
			return nil, newErr(ErrParse, "truncated type_list entries", err)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// InterfaceTypeIndices decodes a class_def's interfaces type_list.
func (df *DexFile) InterfaceTypeIndices(cd *ClassDef) ([]uint32, error) {
	if cd.InterfacesOff == 0 {
		return nil, nil
	}
	count, err := readUint32(df.data, cd.InterfacesOff)
	if err != nil {
		return nil, newErr(ErrParse, "truncated interfaces type_list size", err)
	}
	out := make([]uint32, count)
	base := cd.InterfacesOff + 4
	for i := uint32(0); i < count; i++ {
		v, err := readUint16(df.data, base+i*2)
		if err != nil {
			return nil, newErr(ErrParse, "truncated interfaces type_list entries", err)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// ClassData decodes (and caches) the encoded_class_data item for a
// class_def. A class_def with ClassDataOff == 0 declares no methods or
// fields of its own and returns a zero-value ClassData.
func (df *DexFile) ClassData(cd *ClassDef) (*ClassData, error) {
	if cd.ClassDataOff == 0 {
		return &ClassData{}, nil
	}
	if cached, ok := df.classDataCache[cd.ClassDataOff]; ok {
		return cached, nil
	}

	pos := cd.ClassDataOff
	var staticCount, instanceCount, directCount, virtualCount uint32
	var err error
	if staticCount, pos, err = readULEB128(df.data, pos); err != nil {
		return nil, err
	}
	if instanceCount, pos, err = readULEB128(df.data, pos); err != nil {
		return nil, err
	}
	if directCount, pos, err = readULEB128(df.data, pos); err != nil {
		return nil, err
	}
	if virtualCount, pos, err = readULEB128(df.data, pos); err != nil {
		return nil, err
	}

	cdata := &ClassData{}
	if pos, cdata.StaticFields, err = readEncodedFields(df.data, pos, staticCount); err != nil {
		return nil, err
	}
	if pos, cdata.InstanceFields, err = readEncodedFields(df.data, pos, instanceCount); err != nil {
		return nil, err
	}
	if pos, cdata.DirectMethods, err = readEncodedMethods(df.data, pos, directCount); err != nil {
		return nil, err
	}
	if _, cdata.VirtualMethods, err = readEncodedMethods(df.data, pos, virtualCount); err != nil {
		return nil, err
	}

	df.classDataCache[cd.ClassDataOff] = cdata
	return cdata, nil
}

func readEncodedFields(data []byte, pos uint32, count uint32) (uint32, []EncodedField, error) {
	out := make([]EncodedField, count)
	var idx uint32
	for i := uint32(0); i < count; i++ {
		diff, next, err := readULEB128(data, pos)
		if err != nil {
			return 0, nil, err
		}
		pos = next
		flags, next2, err := readULEB128(data, pos)
		if err != nil {
			return 0, nil, err
		}
		pos = next2
		idx += diff
		out[i] = EncodedField{FieldIdx: idx, AccessFlags: flags}
	}
	return pos, out, nil
}

func readEncodedMethods(data []byte, pos uint32, count uint32) (uint32, []EncodedMethod, error) {
	out := make([]EncodedMethod, count)
	var idx uint32
	for i := uint32(0); i < count; i++ {
		diff, next, err := readULEB128(data, pos)
		if err != nil {
			return 0, nil, err
		}
		pos = next
		flags, next2, err := readULEB128(data, pos)
		if err != nil {
			return 0, nil, err
		}
		pos = next2
		codeOff, next3, err := readULEB128(data, pos)
		if err != nil {
			return 0, nil, err
		}
		pos = next3
		idx += diff
		out[i] = EncodedMethod{MethodIdx: idx, AccessFlags: flags, CodeOff: codeOff}
	}
	return pos, out, nil
}
