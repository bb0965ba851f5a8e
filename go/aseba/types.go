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

// Word is a single 16-bit instruction word of the target's bytecode. The
// upper four bits select the opcode class, the remaining bits carry an
// opcode specific argument.
type Word uint16

// Code is the bytecode of a single event or subroutine unit.
type Code []Word

// EventID identifies an event unit, the externally triggered entry points of
// a program.
type EventID uint16

// SubroutineID identifies a subroutine unit. Call instructions encode the
// callee's identifier in their lower 12 bits, limiting the range of valid
// identifiers to [0, MaxSubroutineID].
type SubroutineID uint16

// MaxSubroutineID is the largest identifier a call instruction can encode.
const MaxSubroutineID = SubroutineID(0x0fff)

// Hash represents the 256-bit (32 bytes) content hash of a unit table.
type Hash [32]byte

func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}
