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
	"regexp"
	"testing"

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
)

func TestOpCode_WidthMatchesInstructionFormat(t *testing.T) {
	tests := []struct {
		op    OpCode
		width int
	}{
		{STOP, 1},
		{SMALL_IMMEDIATE, 1},
		{LARGE_IMMEDIATE, 2},
		{LOAD, 1},
		{STORE, 1},
		{LOAD_INDIRECT, 2},
		{STORE_INDIRECT, 2},
		{UNARY_ARITHMETIC, 1},
		{BINARY_ARITHMETIC, 1},
		{JUMP, 1},
		{CONDITIONAL_BRANCH, 2},
		{EMIT, 3},
		{NATIVE_CALL, 1},
		{SUB_CALL, 1},
		{SUB_RET, 1},
		{OpCode(0xF), 1},
	}

	for _, test := range tests {
		t.Run(test.op.String(), func(t *testing.T) {
			if got, want := test.op.Width(), test.width; got != want {
				t.Errorf("unexpected width, want %d, got %d", want, got)
			}
		})
	}
}

func TestOpCode_ValidOpCodesHaveNames(t *testing.T) {
	validName := regexp.MustCompile(`^[A-Z_]+$`)
	for i := 0; i < numOpCodes; i++ {
		op := OpCode(i)
		if !op.IsValid() {
			continue
		}
		if name := op.String(); !validName.MatchString(name) {
			t.Errorf("invalid name for opcode 0x%X: %s", i, name)
		}
	}
}

func TestOpCode_UndefinedOpCodesArePrintedAsNumbers(t *testing.T) {
	if OpCode(0xF).IsValid() {
		t.Fatalf("opcode 0xF should be undefined")
	}
	if got, want := OpCode(0xF).String(), "op(0xF)"; got != want {
		t.Errorf("unexpected name, want %s, got %s", want, got)
	}
}

func TestOpCodeOf_UsesUpperFourBits(t *testing.T) {
	tests := []struct {
		word aseba.Word
		op   OpCode
	}{
		{0x0000, STOP},
		{0x1fff, SMALL_IMMEDIATE},
		{0xD123, SUB_CALL},
		{0xE000, SUB_RET},
		{0xFFFF, OpCode(0xF)},
	}
	for _, test := range tests {
		if got, want := OpCodeOf(test.word), test.op; got != want {
			t.Errorf("unexpected opcode for 0x%04x, want %v, got %v", test.word, want, got)
		}
	}
}
