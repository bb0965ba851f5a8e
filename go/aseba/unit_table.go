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
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Unit is a block of bytecode together with its precomputed local maximum
// stack depth, the peak value-stack usage of its own instructions excluding
// any callees. The local depth is computed by the code generator and trusted
// by all consumers of a unit table.
type Unit struct {
	// Name is an optional human readable name used in diagnostics.
	Name               string
	Code               Code
	LocalMaxStackDepth uint
}

// Event is an externally triggered entry point. Events are always the root of
// a call chain and thus never have an incoming call depth.
type Event struct {
	Unit
}

// Subroutine is a unit only reachable through call instructions.
type Subroutine struct {
	Unit
	// CallDepth is the longest call chain from any event to this subroutine
	// discovered so far. It is only mutated by the stack verifier and never
	// decreases within a single verification run.
	CallDepth uint
}

// UnitTable maps event and subroutine identifiers to their units. A table is
// built once per compilation by the linker and handed to the stack verifier,
// which owns it exclusively for the duration of a verification run.
type UnitTable struct {
	Events      map[EventID]*Event
	Subroutines map[SubroutineID]*Subroutine
}

// NewUnitTable creates an empty unit table.
func NewUnitTable() *UnitTable {
	return &UnitTable{
		Events:      map[EventID]*Event{},
		Subroutines: map[SubroutineID]*Subroutine{},
	}
}

// AddEvent registers a new event unit. Registering the same identifier twice
// is an error.
func (t *UnitTable) AddEvent(id EventID, unit Unit) error {
	if _, found := t.Events[id]; found {
		return fmt.Errorf("duplicate event %d", id)
	}
	t.Events[id] = &Event{Unit: unit}
	return nil
}

// AddSubroutine registers a new subroutine unit. Registering the same
// identifier twice, or an identifier that can not be encoded in a call
// instruction, is an error.
func (t *UnitTable) AddSubroutine(id SubroutineID, unit Unit) error {
	if id > MaxSubroutineID {
		return fmt.Errorf("subroutine id %d exceeds maximum of %d", id, MaxSubroutineID)
	}
	if _, found := t.Subroutines[id]; found {
		return fmt.Errorf("duplicate subroutine %d", id)
	}
	t.Subroutines[id] = &Subroutine{Unit: unit}
	return nil
}

// EventIDs returns the identifiers of all events in ascending order.
func (t *UnitTable) EventIDs() []EventID {
	ids := maps.Keys(t.Events)
	slices.Sort(ids)
	return ids
}

// SubroutineIDs returns the identifiers of all subroutines in ascending order.
func (t *UnitTable) SubroutineIDs() []SubroutineID {
	ids := maps.Keys(t.Subroutines)
	slices.Sort(ids)
	return ids
}

// ResetDepths sets the call depth of every subroutine back to zero. Stale
// depths of a previous run would otherwise break the monotonic relaxation of
// the next one.
func (t *UnitTable) ResetDepths() {
	for _, sub := range t.Subroutines {
		sub.CallDepth = 0
	}
}

// Depths returns a snapshot of the current call depth of every subroutine.
func (t *UnitTable) Depths() map[SubroutineID]uint {
	res := make(map[SubroutineID]uint, len(t.Subroutines))
	for id, sub := range t.Subroutines {
		res[id] = sub.CallDepth
	}
	return res
}

// Clone creates a deep copy of the table, including the current call depths.
func (t *UnitTable) Clone() *UnitTable {
	res := &UnitTable{
		Events:      make(map[EventID]*Event, len(t.Events)),
		Subroutines: make(map[SubroutineID]*Subroutine, len(t.Subroutines)),
	}
	for id, event := range t.Events {
		res.Events[id] = &Event{Unit: event.Unit.clone()}
	}
	for id, sub := range t.Subroutines {
		res.Subroutines[id] = &Subroutine{Unit: sub.Unit.clone(), CallDepth: sub.CallDepth}
	}
	return res
}

func (u Unit) clone() Unit {
	u.Code = slices.Clone(u.Code)
	return u
}

// Hash computes a content hash of the table covering identifiers, local
// stack depths and code of all units. Names and call depths are not part of
// the hash since they do not influence the verification verdict.
func (t *UnitTable) Hash() Hash {
	hasher := sha3.New256()
	buffer := make([]byte, 0, 64)
	writeUnit := func(kind byte, id uint16, unit *Unit) {
		buffer = append(buffer[:0], kind)
		buffer = binary.BigEndian.AppendUint16(buffer, id)
		buffer = binary.BigEndian.AppendUint64(buffer, uint64(unit.LocalMaxStackDepth))
		buffer = binary.BigEndian.AppendUint32(buffer, uint32(len(unit.Code)))
		hasher.Write(buffer)
		for _, word := range unit.Code {
			buffer = binary.BigEndian.AppendUint16(buffer[:0], uint16(word))
			hasher.Write(buffer)
		}
	}
	for _, id := range t.EventIDs() {
		writeUnit('E', uint16(id), &t.Events[id].Unit)
	}
	for _, id := range t.SubroutineIDs() {
		writeUnit('S', uint16(id), &t.Subroutines[id].Unit)
	}
	var res Hash
	hasher.Sum(res[:0])
	return res
}

// DescribeEvent returns a human readable name of the given event for use in
// diagnostics.
func (t *UnitTable) DescribeEvent(id EventID) string {
	if event, found := t.Events[id]; found && event.Name != "" {
		return fmt.Sprintf("event %d (%s)", id, event.Name)
	}
	return fmt.Sprintf("event %d", id)
}

// DescribeSubroutine returns a human readable name of the given subroutine
// for use in diagnostics.
func (t *UnitTable) DescribeSubroutine(id SubroutineID) string {
	if sub, found := t.Subroutines[id]; found && sub.Name != "" {
		return fmt.Sprintf("subroutine %d (%s)", id, sub.Name)
	}
	return fmt.Sprintf("subroutine %d", id)
}
