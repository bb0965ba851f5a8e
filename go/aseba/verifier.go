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

import "fmt"

//go:generate mockgen -source verifier.go -destination verifier_mock.go -package aseba

// Verifier is a static check proving that a linked program can not overflow
// the execution stack of its target. Implementations must be sound: a program
// accepted by a verifier must not overflow a stack of the given budget under
// any execution.
type Verifier interface {
	// Verify checks the given unit table against the stack budget. The result
	// is false if the program may overflow the stack. A non-nil error signals
	// a defect of the tool chain (e.g. an unresolved call target or a
	// truncated instruction) in which case the verdict is undefined.
	// Implementations may mutate the call depths of the table's subroutines
	// but must not modify any unit's code.
	Verify(table *UnitTable, budget uint) (bool, error)
}

// CheckProgram runs the given verifier on the table using the stack size of
// the target as budget. It is intended to be called by the compiler driver
// after linking; any non-nil result must abort the build. A rejected program
// is reported as an error wrapping ErrStackOverflow.
func CheckProgram(verifier Verifier, table *UnitTable, target TargetDescription) error {
	ok, err := verifier.Verify(table, target.StackSize)
	if err != nil {
		return fmt.Errorf("stack verification failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("program exceeds stack of %d words on target %s: %w",
			target.StackSize, target.Name, ErrStackOverflow)
	}
	return nil
}
