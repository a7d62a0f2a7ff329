// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

// TryItem is one entry of a code_item's try table: an instruction range
// covered by a handler.
type TryItem struct {
	StartAddr  uint32 // start of the range, in code units
	InsnCount  uint16 // number of code units covered
	HandlerOff uint16 // offset into the handler list, relative to its base
}

// CatchHandler is one (type, handler_addr) pair of an encoded_catch_handler.
type CatchHandler struct {
	TypeIdx    uint32 // exception type, absent (catch-all) when CatchAll is true
	CatchAll   bool
	HandlerPC  uint32 // code unit address of the handler
}

// EncodedCatchHandler is the decoded handler list for one TryItem.
type EncodedCatchHandler struct {
	Handlers []CatchHandler
}

// CodeItem is the decoded code_item for a method with executable code.
type CodeItem struct {
	RegistersSize uint16
	InsSize       uint16
	OutsSize      uint16
	TriesSize     uint16
	DebugInfoOff  uint32
	InsnsSize     uint32
	Insns         []uint16 // decoded copy of the instruction buffer
	Tries         []TryItem
	Handlers      []EncodedCatchHandler // parallel to Tries when TriesSize > 0
}

// parseCodeItem decodes the code_item at offset within data.
func parseCodeItem(data []byte, offset uint32) (*CodeItem, error) {
	ci := &CodeItem{}

	regs, err := readUint16(data, offset)
	if err != nil {
		return nil, newErr(ErrParse, "truncated code_item header", err)
	}
	ins, err := readUint16(data, offset+2)
	if err != nil {
		return nil, newErr(ErrParse, "truncated code_item header", err)
	}
	outs, err := readUint16(data, offset+4)
	if err != nil {
		return nil, newErr(ErrParse, "truncated code_item header", err)
	}
	tries, err := readUint16(data, offset+6)
	if err != nil {
		return nil, newErr(ErrParse, "truncated code_item header", err)
	}
	debugOff, err := readUint32(data, offset+8)
	if err != nil {
		return nil, newErr(ErrParse, "truncated code_item header", err)
	}
	insnsSize, err := readUint32(data, offset+12)
	if err != nil {
		return nil, newErr(ErrParse, "truncated code_item header", err)
	}

	ci.RegistersSize, ci.InsSize, ci.OutsSize, ci.TriesSize = regs, ins, outs, tries
	ci.DebugInfoOff, ci.InsnsSize = debugOff, insnsSize

	insnsOff := offset + 16
	insnsBytes, err := readBytes(data, insnsOff, insnsSize*2)
	if err != nil {
		return nil, newErr(ErrParse, "truncated instruction buffer", err)
	}
	ci.Insns = bytesToU16LE(insnsBytes)

	if tries == 0 {
		return ci, nil
	}

	triesOff := insnsOff + insnsSize*2
	if insnsSize%2 != 0 {
		triesOff += 2 // 4-byte alignment padding before the try table
	}

	ci.Tries = make([]TryItem, tries)
	for i := uint16(0); i < tries; i++ {
		base := triesOff + uint32(i)*8
		start, err := readUint32(data, base)
		if err != nil {
			return nil, newErr(ErrParse, "truncated try_item", err)
		}
		count, err := readUint16(data, base+4)
		if err != nil {
			return nil, newErr(ErrParse, "truncated try_item", err)
		}
		handlerOff, err := readUint16(data, base+6)
		if err != nil {
			return nil, newErr(ErrParse, "truncated try_item", err)
		}
		ci.Tries[i] = TryItem{StartAddr: start, InsnCount: count, HandlerOff: handlerOff}
	}

	handlerListOff := triesOff + uint32(tries)*8
	handlers, err := parseCatchHandlerList(data, handlerListOff, ci.Tries)
	if err != nil {
		return nil, err
	}
	ci.Handlers = handlers

	return ci, nil
}

// parseCatchHandlerList decodes the encoded_catch_handler_list and returns
// one EncodedCatchHandler per TryItem, resolved through each item's
// HandlerOff (relative to the list's own base, per the DEX spec).
func parseCatchHandlerList(data []byte, listOff uint32, tries []TryItem) ([]EncodedCatchHandler, error) {
	_, listBase, err := readULEB128(data, listOff)
	_ = listBase
	if err != nil {
		return nil, err
	}

	out := make([]EncodedCatchHandler, len(tries))
	cache := make(map[uint16]EncodedCatchHandler)
	for i, t := range tries {
		if cached, ok := cache[t.HandlerOff]; ok {
			out[i] = cached
			continue
		}
		h, err := parseOneCatchHandler(data, listOff+uint32(t.HandlerOff))
		if err != nil {
			return nil, err
		}
		cache[t.HandlerOff] = h
		out[i] = h
	}
	return out, nil
}

func parseOneCatchHandler(data []byte, offset uint32) (EncodedCatchHandler, error) {
	size, pos, err := readSLEB128(data, offset)
	if err != nil {
		return EncodedCatchHandler{}, err
	}
	abs := size
	if abs < 0 {
		abs = -abs
	}
	h := EncodedCatchHandler{Handlers: make([]CatchHandler, 0, abs)}
	for i := int32(0); i < abs; i++ {
		typeIdx, next, err := readULEB128(data, pos)
		if err != nil {
			return EncodedCatchHandler{}, err
		}
		pos = next
		addr, next2, err := readULEB128(data, pos)
		if err != nil {
			return EncodedCatchHandler{}, err
		}
		pos = next2
		h.Handlers = append(h.Handlers, CatchHandler{TypeIdx: typeIdx, HandlerPC: addr})
	}
	if size <= 0 {
		addr, _, err := readULEB128(data, pos)
		if err != nil {
			return EncodedCatchHandler{}, err
		}
		h.Handlers = append(h.Handlers, CatchHandler{CatchAll: true, HandlerPC: addr})
	}
	return h, nil
}

// bytesToU16LE decodes a little-endian byte slice into a newly allocated
// uint16 slice; used for the instruction buffer.
func bytesToU16LE(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return out
}
