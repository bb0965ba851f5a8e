// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package bytecode

import (
	"bytes"
	"fmt"

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
)

// Instruction is a decoded instruction. Operands of multi-word instructions
// are kept as raw words.
type Instruction struct {
	// The op-code class of this instruction.
	opcode OpCode
	// The argument bits of the first word.
	arg uint16
	// The words following the first one, if any.
	operands []aseba.Word
}

// Decode interprets the instruction starting at the given word. Decoding never
// fails; unknown classes are decoded as single-word instructions. The
// operands of multi-word instructions are not part of the result.
func Decode(word aseba.Word) Instruction {
	return Instruction{
		opcode: OpCodeOf(word),
		arg:    uint16(word & argumentMask),
	}
}

// OpCode returns the class of the instruction.
func (i Instruction) OpCode() OpCode {
	return i.opcode
}

// Width returns the number of words the instruction occupies.
func (i Instruction) Width() int {
	return i.opcode.Width()
}

// IsCall reports whether this is a subroutine call.
func (i Instruction) IsCall() bool {
	return i.opcode == SUB_CALL
}

// Callee returns the identifier of the called subroutine. The result is only
// meaningful for call instructions.
func (i Instruction) Callee() aseba.SubroutineID {
	return aseba.SubroutineID(i.arg)
}

// Operands returns the words following the instruction's first word.
func (i Instruction) Operands() []aseba.Word {
	return i.operands
}

func (i Instruction) String() string {
	switch {
	case i.opcode == SUB_CALL:
		return fmt.Sprintf("%v %d", i.opcode, i.arg)
	case len(i.operands) > 0:
		var buffer bytes.Buffer
		buffer.WriteString(fmt.Sprintf("%v 0x%03x", i.opcode, i.arg))
		for _, operand := range i.operands {
			buffer.WriteString(fmt.Sprintf(" 0x%04x", uint16(operand)))
		}
		return buffer.String()
	case i.arg != 0:
		return fmt.Sprintf("%v 0x%03x", i.opcode, i.arg)
	}
	return i.opcode.String()
}

// ForEachInstruction decodes the given code and calls the visitor for every
// instruction in program order, passing the position of its first word. The
// iteration stops when the visitor returns an error, which is then returned.
// An instruction extending past the end of the code results in an error
// wrapping aseba.ErrMalformedInstructionStream.
func ForEachInstruction(code aseba.Code, visit func(pos int, instruction Instruction) error) error {
	for pos := 0; pos < len(code); {
		instruction := Decode(code[pos])
		width := instruction.Width()
		if pos+width > len(code) {
			return fmt.Errorf("%v at 0x%04x needs %d words, only %d left: %w",
				instruction.opcode, pos, width, len(code)-pos, aseba.ErrMalformedInstructionStream)
		}
		if width > 1 {
			instruction.operands = code[pos+1 : pos+width]
		}
		if err := visit(pos, instruction); err != nil {
			return err
		}
		pos += width
	}
	return nil
}

// Disassemble produces a human readable listing of the given code, one
// instruction per line. A truncated trailing instruction is listed as such.
func Disassemble(code aseba.Code) string {
	var buffer bytes.Buffer
	err := ForEachInstruction(code, func(pos int, instruction Instruction) error {
		buffer.WriteString(fmt.Sprintf("0x%04x: %v\n", pos, instruction))
		return nil
	})
	if err != nil {
		buffer.WriteString(fmt.Sprintf("error: %v\n", err))
	}
	return buffer.String()
}

// Encode builds the first word of an instruction of the given class. Only the
// lower 12 bits of the argument are used.
func Encode(op OpCode, arg uint16) aseba.Word {
	return aseba.Word(op)<<opCodeShift | aseba.Word(arg&argumentMask)
}

// EncodeCall builds a call instruction for the given subroutine.
func EncodeCall(callee aseba.SubroutineID) aseba.Word {
	return Encode(SUB_CALL, uint16(callee))
}
