// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package aseba

// ConstError is an error type that can be used to define immutable error
// constants.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

const (
	// ErrStackOverflow is the verification failure category: some unit's
	// combined call depth and local stack usage exceeds the stack budget.
	ErrStackOverflow = ConstError("stack overflow")

	// ErrUnresolvedCallTarget signals a call instruction naming a subroutine
	// that is not part of the unit table. This is a linker defect, not a
	// verification failure.
	ErrUnresolvedCallTarget = ConstError("unresolved call target")

	// ErrMalformedInstructionStream signals a multi-word instruction that
	// runs past the end of its unit's code.
	ErrMalformedInstructionStream = ConstError("malformed instruction stream")
)
