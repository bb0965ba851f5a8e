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

// CallScanner lazily extracts the subroutine calls of a unit's code in
// program order. Repeated calls of the same subroutine are reported once per
// call instruction. A scanner is restartable through Reset and never modifies
// the scanned code.
//
// Typical usage:
//
//	scanner := NewCallScanner(code)
//	for scanner.Next() {
//		use(scanner.Callee())
//	}
//	if err := scanner.Err(); err != nil {
//		...
//	}
type CallScanner struct {
	code   aseba.Code
	next   int // position of the next instruction to decode
	pos    int // position of the current call instruction
	callee aseba.SubroutineID
	err    error
}

// NewCallScanner creates a scanner positioned before the first instruction of
// the given code.
func NewCallScanner(code aseba.Code) *CallScanner {
	return &CallScanner{code: code}
}

// Next advances to the next call instruction. It returns false once the end of
// the code is reached or a malformed instruction was encountered; Err
// distinguishes the two cases.
func (s *CallScanner) Next() bool {
	if s.err != nil {
		return false
	}
	for s.next < len(s.code) {
		pos := s.next
		op := OpCodeOf(s.code[pos])
		width := op.Width()
		if pos+width > len(s.code) {
			s.err = fmt.Errorf("%v at 0x%04x needs %d words, only %d left: %w",
				op, pos, width, len(s.code)-pos, aseba.ErrMalformedInstructionStream)
			return false
		}
		s.next += width
		if op == SUB_CALL {
			s.pos = pos
			s.callee = Decode(s.code[pos]).Callee()
			return true
		}
	}
	return false
}

// Callee returns the subroutine called by the current call instruction.
func (s *CallScanner) Callee() aseba.SubroutineID {
	return s.callee
}

// Pos returns the position of the current call instruction.
func (s *CallScanner) Pos() int {
	return s.pos
}

// Err returns the error that stopped the scan, or nil if the scan reached the
// end of the code or is still in progress.
func (s *CallScanner) Err() error {
	return s.err
}

// Reset restarts the scan from the first instruction.
func (s *CallScanner) Reset() {
	s.next, s.pos, s.callee, s.err = 0, 0, 0, nil
}

// Callees collects the callees of all call instructions in the given code, in
// program order and including duplicates.
func Callees(code aseba.Code) ([]aseba.SubroutineID, error) {
	var res []aseba.SubroutineID
	scanner := NewCallScanner(code)
	for scanner.Next() {
		res = append(res, scanner.Callee())
	}
	return res, scanner.Err()
}
