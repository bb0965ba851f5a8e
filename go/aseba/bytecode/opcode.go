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
	"fmt"

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
)

// OpCode is the class of an instruction, encoded in the upper four bits of
// its first word.
type OpCode uint8

const (
	STOP               OpCode = 0x0
	SMALL_IMMEDIATE    OpCode = 0x1
	LARGE_IMMEDIATE    OpCode = 0x2
	LOAD               OpCode = 0x3
	STORE              OpCode = 0x4
	LOAD_INDIRECT      OpCode = 0x5
	STORE_INDIRECT     OpCode = 0x6
	UNARY_ARITHMETIC   OpCode = 0x7
	BINARY_ARITHMETIC  OpCode = 0x8
	JUMP               OpCode = 0x9
	CONDITIONAL_BRANCH OpCode = 0xA
	EMIT               OpCode = 0xB
	NATIVE_CALL        OpCode = 0xC
	SUB_CALL           OpCode = 0xD
	SUB_RET            OpCode = 0xE
)

// opCodeShift is the position of the opcode class within an instruction word.
const opCodeShift = 12

// argumentMask selects the argument bits of an instruction word. For
// SUB_CALL instructions the argument is the callee's identifier.
const argumentMask = 0x0fff

// numOpCodes is the number of distinct values the opcode class can take.
const numOpCodes = 1 << (16 - opCodeShift)

var toString = map[OpCode]string{
	STOP:               "STOP",
	SMALL_IMMEDIATE:    "SMALL_IMMEDIATE",
	LARGE_IMMEDIATE:    "LARGE_IMMEDIATE",
	LOAD:               "LOAD",
	STORE:              "STORE",
	LOAD_INDIRECT:      "LOAD_INDIRECT",
	STORE_INDIRECT:     "STORE_INDIRECT",
	UNARY_ARITHMETIC:   "UNARY_ARITHMETIC",
	BINARY_ARITHMETIC:  "BINARY_ARITHMETIC",
	JUMP:               "JUMP",
	CONDITIONAL_BRANCH: "CONDITIONAL_BRANCH",
	EMIT:               "EMIT",
	NATIVE_CALL:        "NATIVE_CALL",
	SUB_CALL:           "SUB_CALL",
	SUB_RET:            "SUB_RET",
}

// String returns the string representation of the OpCode.
func (o OpCode) String() string {
	if str, ok := toString[o]; ok {
		return str
	}
	return fmt.Sprintf("op(0x%X)", uint8(o))
}

// IsValid reports whether the opcode class is defined.
func (o OpCode) IsValid() bool {
	_, ok := toString[o]
	return ok
}

// Width returns the number of consecutive words occupied by an instruction of
// this class, including the word holding the opcode. Undefined classes are
// treated as single-word instructions.
func (o OpCode) Width() int {
	return widths.get(o)
}

var widths = newOpCodePropertyMap(func(op OpCode) int {
	switch op {
	case LARGE_IMMEDIATE, LOAD_INDIRECT, STORE_INDIRECT, CONDITIONAL_BRANCH:
		return 2
	case EMIT:
		return 3
	}
	return 1
})

// OpCodeOf extracts the opcode class of an instruction word.
func OpCodeOf(word aseba.Word) OpCode {
	return OpCode(word >> opCodeShift)
}

// opCodePropertyMap is a generic property map for precomputed values.
// The property function is evaluated once for every possible opcode class.
type opCodePropertyMap[T any] struct {
	lookup [numOpCodes]T
}

func newOpCodePropertyMap[T any](property func(op OpCode) T) opCodePropertyMap[T] {
	lookup := [numOpCodes]T{}
	for i := 0; i < numOpCodes; i++ {
		lookup[i] = property(OpCode(i))
	}
	return opCodePropertyMap[T]{lookup}
}

func (p *opCodePropertyMap[T]) get(op OpCode) T {
	return p.lookup[op&(numOpCodes-1)]
}
