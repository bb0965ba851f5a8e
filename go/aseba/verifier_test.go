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

import (
	"errors"
	"testing"

	"go.uber.org/mock/gomock"
)

func TestCheckProgram_UsesStackSizeOfTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := NewMockVerifier(ctrl)
	table := NewUnitTable()
	target := TargetDescription{Name: "robot", StackSize: 17}

	verifier.EXPECT().Verify(table, uint(17)).Return(true, nil)

	if err := CheckProgram(verifier, table, target); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckProgram_RejectedProgramsAreReportedAsStackOverflow(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := NewMockVerifier(ctrl)
	table := NewUnitTable()

	verifier.EXPECT().Verify(table, gomock.Any()).Return(false, nil)

	err := CheckProgram(verifier, table, TargetDescription{Name: "robot", StackSize: 4})
	if !errors.Is(err, ErrStackOverflow) {
		t.Errorf("expected stack overflow, got %v", err)
	}
}

func TestCheckProgram_ToolChainErrorsArePropagated(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := NewMockVerifier(ctrl)
	table := NewUnitTable()

	verifier.EXPECT().Verify(table, gomock.Any()).Return(true, ErrUnresolvedCallTarget)

	err := CheckProgram(verifier, table, TargetDescription{Name: "robot", StackSize: 4})
	if !errors.Is(err, ErrUnresolvedCallTarget) {
		t.Errorf("expected unresolved call target, got %v", err)
	}
	if errors.Is(err, ErrStackOverflow) {
		t.Errorf("tool chain error reported as stack overflow: %v", err)
	}
}
