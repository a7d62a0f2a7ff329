// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

// debug_info_item bytecode opcodes.
const (
	dbgEndSequence        = 0x00
	dbgAdvancePC          = 0x01
	dbgAdvanceLine        = 0x02
	dbgStartLocal         = 0x03
	dbgStartLocalExtended = 0x04
	dbgEndLocal           = 0x05
	dbgRestartLocal       = 0x06
	dbgSetPrologueEnd     = 0x07
	dbgSetEpilogueBegin   = 0x08
	dbgSetFile            = 0x09
	dbgFirstSpecial       = 0x0a
	dbgLineBase           = -4
	dbgLineRange          = 15
)

// LinePosition maps a code-unit address to a source line, one entry per
// DBG_SPECIAL step of the debug bytecode.
type LinePosition struct {
	Address uint32
	Line    int32
}

// DebugInfo is the decoded debug_info_item for a method: its declared
// parameter names (by DEX-local string id, noIndex when the source had no
// name for that parameter) and the address-to-line table.
type DebugInfo struct {
	LineStart      uint32
	ParameterNames []uint32
	Lines          []LinePosition
}

// DebugInfo decodes the debug_info_item referenced by a code_item's
// DebugInfoOff. A zero offset means the method carries no debug
// information and returns a zero-value DebugInfo.
func (df *DexFile) DebugInfo(ci *CodeItem) (*DebugInfo, error) {
	if ci.DebugInfoOff == 0 {
		return &DebugInfo{}, nil
	}

	pos := ci.DebugInfoOff
	lineStart, pos, err := readULEB128(df.data, pos)
	if err != nil {
		return nil, newErr(ErrParse, "truncated debug_info_item", err)
	}
	paramCount, pos, err := readULEB128(df.data, pos)
	if err != nil {
		return nil, newErr(ErrParse, "truncated debug_info_item", err)
	}

	info := &DebugInfo{LineStart: lineStart, ParameterNames: make([]uint32, paramCount)}
	for i := uint32(0); i < paramCount; i++ {
		nameIdxPlus1, next, err := readULEB128p1(df.data, pos)
		if err != nil {
			return nil, err
		}
		pos = next
		if nameIdxPlus1 < 0 {
			info.ParameterNames[i] = noIndex
		} else {
			info.ParameterNames[i] = uint32(nameIdxPlus1)
		}
	}

	address := uint32(0)
	line := int32(lineStart)
	for {
		opcode, err := readUint8(df.data, pos)
		if err != nil {
			return nil, newErr(ErrParse, "truncated debug bytecode", err)
		}
		pos++

		switch {
		case opcode == dbgEndSequence:
			return info, nil

		case opcode == dbgAdvancePC:
			diff, next, err := readULEB128(df.data, pos)
			if err != nil {
				return nil, err
			}
			pos = next
			address += diff

		case opcode == dbgAdvanceLine:
			diff, next, err := readSLEB128(df.data, pos)
			if err != nil {
				return nil, err
			}
			pos = next
			line += diff

		case opcode == dbgStartLocal:
			if pos, err = skipULEB128(df.data, pos); err != nil { // register_num
				return nil, err
			}
			if pos, err = skipULEB128p1(df.data, pos); err != nil { // name_idx
				return nil, err
			}
			if pos, err = skipULEB128p1(df.data, pos); err != nil { // type_idx
				return nil, err
			}

		case opcode == dbgStartLocalExtended:
			if pos, err = skipULEB128(df.data, pos); err != nil {
				return nil, err
			}
			if pos, err = skipULEB128p1(df.data, pos); err != nil {
				return nil, err
			}
			if pos, err = skipULEB128p1(df.data, pos); err != nil {
				return nil, err
			}
			if pos, err = skipULEB128p1(df.data, pos); err != nil { // sig_idx
				return nil, err
			}

		case opcode == dbgEndLocal || opcode == dbgRestartLocal:
			if pos, err = skipULEB128(df.data, pos); err != nil {
				return nil, err
			}

		case opcode == dbgSetPrologueEnd || opcode == dbgSetEpilogueBegin:
			// no operands

		case opcode == dbgSetFile:
			if pos, err = skipULEB128p1(df.data, pos); err != nil {
				return nil, err
			}

		default: // DBG_SPECIAL
			adjusted := int(opcode) - dbgFirstSpecial
			line += int32(dbgLineBase + adjusted%dbgLineRange)
			address += uint32(adjusted / dbgLineRange)
			info.Lines = append(info.Lines, LinePosition{Address: address, Line: line})
		}
	}
}

func skipULEB128(data []byte, pos uint32) (uint32, error) {
	_, next, err := readULEB128(data, pos)
	return next, err
}

func skipULEB128p1(data []byte, pos uint32) (uint32, error) {
	_, next, err := readULEB128p1(data, pos)
	return next, err
}
