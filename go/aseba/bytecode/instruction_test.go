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
	"errors"
	"strings"
	"testing"

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	"github.com/google/go-cmp/cmp"
)

func TestDecode_CallsCarryCalleeInLowerBits(t *testing.T) {
	instruction := Decode(0xDABC)
	if !instruction.IsCall() {
		t.Fatalf("expected call instruction, got %v", instruction)
	}
	if got, want := instruction.Callee(), aseba.SubroutineID(0xABC); got != want {
		t.Errorf("unexpected callee, want %d, got %d", want, got)
	}
	if got, want := instruction.Width(), 1; got != want {
		t.Errorf("unexpected width, want %d, got %d", want, got)
	}
}

func TestDecode_NonCallsAreNotCalls(t *testing.T) {
	for i := 0; i < numOpCodes; i++ {
		op := OpCode(i)
		if op == SUB_CALL {
			continue
		}
		if Decode(aseba.Word(i) << opCodeShift).IsCall() {
			t.Errorf("%v decoded as call", op)
		}
	}
}

func TestForEachInstruction_VisitsInstructionsInProgramOrder(t *testing.T) {
	code := aseba.Code{
		0x2000, 0x1234, // LARGE_IMMEDIATE
		0xD005,                 // SUB_CALL 5
		0xB001, 0x0002, 0x0003, // EMIT
		0xA000, 0x0010, // CONDITIONAL_BRANCH
		0x0000, // STOP
	}

	type visit struct {
		Pos int
		Op  OpCode
	}
	var got []visit
	err := ForEachInstruction(code, func(pos int, instruction Instruction) error {
		got = append(got, visit{pos, instruction.OpCode()})
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []visit{
		{0, LARGE_IMMEDIATE},
		{2, SUB_CALL},
		{3, EMIT},
		{6, CONDITIONAL_BRANCH},
		{8, STOP},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected visits (-want +got):\n%s", diff)
	}
}

func TestForEachInstruction_OperandsAreProvided(t *testing.T) {
	code := aseba.Code{0xB001, 0x0002, 0x0003}
	err := ForEachInstruction(code, func(pos int, instruction Instruction) error {
		if diff := cmp.Diff([]aseba.Word{0x0002, 0x0003}, instruction.Operands()); diff != "" {
			t.Errorf("unexpected operands (-want +got):\n%s", diff)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestForEachInstruction_TruncatedInstructionsAreReported(t *testing.T) {
	codes := map[string]aseba.Code{
		"large immediate": {0x2000},
		"load indirect":   {0x0000, 0x5000},
		"emit":            {0xB000, 0x0001},
		"branch":          {0xA000},
	}
	for name, code := range codes {
		t.Run(name, func(t *testing.T) {
			err := ForEachInstruction(code, func(int, Instruction) error { return nil })
			if !errors.Is(err, aseba.ErrMalformedInstructionStream) {
				t.Errorf("expected malformed instruction stream, got %v", err)
			}
		})
	}
}

func TestForEachInstruction_VisitorErrorsStopIteration(t *testing.T) {
	stop := errors.New("stop")
	visits := 0
	err := ForEachInstruction(aseba.Code{0, 0, 0}, func(int, Instruction) error {
		visits++
		return stop
	})
	if err != stop {
		t.Errorf("unexpected error, want %v, got %v", stop, err)
	}
	if visits != 1 {
		t.Errorf("unexpected number of visits: %d", visits)
	}
}

func TestDisassemble_ListsAllInstructions(t *testing.T) {
	code := aseba.Code{0x1003, 0xD007, 0x2000, 0x00ff, 0xE000}
	want := strings.Join([]string{
		"0x0000: SMALL_IMMEDIATE 0x003",
		"0x0001: SUB_CALL 7",
		"0x0002: LARGE_IMMEDIATE 0x000 0x00ff",
		"0x0004: SUB_RET",
		"",
	}, "\n")
	if got := Disassemble(code); got != want {
		t.Errorf("unexpected listing, want\n%s\ngot\n%s", want, got)
	}
}

func TestDisassemble_ReportsTruncation(t *testing.T) {
	listing := Disassemble(aseba.Code{0xE000, 0xB000})
	if !strings.Contains(listing, "0x0000: SUB_RET") {
		t.Errorf("missing valid prefix in listing:\n%s", listing)
	}
	if !strings.Contains(listing, aseba.ErrMalformedInstructionStream.Error()) {
		t.Errorf("missing truncation error in listing:\n%s", listing)
	}
}

func TestEncode_IsInverseOfDecode(t *testing.T) {
	for i := 0; i < numOpCodes; i++ {
		op := OpCode(i)
		for _, arg := range []uint16{0, 1, 0x123, 0xfff} {
			instruction := Decode(Encode(op, arg))
			if got := instruction.OpCode(); got != op {
				t.Errorf("unexpected opcode, want %v, got %v", op, got)
			}
			if got := instruction.arg; got != arg {
				t.Errorf("unexpected argument, want 0x%03x, got 0x%03x", arg, got)
			}
		}
	}
}

func TestEncodeCall_ProducesCallsToGivenSubroutine(t *testing.T) {
	for _, id := range []aseba.SubroutineID{0, 7, aseba.MaxSubroutineID} {
		instruction := Decode(EncodeCall(id))
		if !instruction.IsCall() || instruction.Callee() != id {
			t.Errorf("unexpected instruction for call of %d: %v", id, instruction)
		}
	}
}
