// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package stackcheck

import (
	"fmt"

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// UnitKind distinguishes events from subroutines in diagnostics.
type UnitKind int

const (
	EventUnit UnitKind = iota
	SubroutineUnit
)

func (k UnitKind) String() string {
	switch k {
	case EventUnit:
		return "event"
	case SubroutineUnit:
		return "subroutine"
	}
	return fmt.Sprintf("UnitKind(%d)", int(k))
}

// Violation describes a unit whose local stack usage, on top of the deepest
// call chain reaching it, exceeds the stack budget.
type Violation struct {
	Kind UnitKind
	// ID is the event or subroutine identifier, depending on Kind.
	ID uint16
	// Name is the unit's name in the verified table, if any.
	Name string
	// Recursive is set if the subroutine was found to be part of a call chain
	// visiting some subroutine twice. Such a chain grows without bound, so the
	// budget is exceeded for any budget.
	Recursive bool
	// CallDepth is the call depth at which the violation was detected. It is
	// always zero for events.
	CallDepth          uint
	LocalMaxStackDepth uint
	Budget             uint
}

// Unit returns a human readable identification of the offending unit.
func (v Violation) Unit() string {
	if v.Name != "" {
		return fmt.Sprintf("%v %d (%s)", v.Kind, v.ID, v.Name)
	}
	return fmt.Sprintf("%v %d", v.Kind, v.ID)
}

func (v Violation) String() string {
	if v.Recursive {
		return fmt.Sprintf("%s: recursive call chain reaches depth %d, exceeding budget %d",
			v.Unit(), v.CallDepth, v.Budget)
	}
	if v.Kind == EventUnit {
		return fmt.Sprintf("%s: local stack %d exceeds budget %d",
			v.Unit(), v.LocalMaxStackDepth, v.Budget)
	}
	return fmt.Sprintf("%s: call depth %d + local stack %d exceeds budget %d",
		v.Unit(), v.CallDepth, v.LocalMaxStackDepth, v.Budget)
}

// less defines the reporting order of violations: events before subroutines,
// each in ascending identifier order.
func (v Violation) less(other Violation) bool {
	if v.Kind != other.Kind {
		return v.Kind < other.Kind
	}
	return v.ID < other.ID
}

// StackOverflowError is the error describing a rejected program. It wraps
// aseba.ErrStackOverflow.
type StackOverflowError struct {
	// First is the first violation in reporting order.
	First Violation
	// Count is the total number of violations found.
	Count int
}

func (e *StackOverflowError) Error() string {
	if e.Count > 1 {
		return fmt.Sprintf("%v: %v (and %d more)", aseba.ErrStackOverflow, e.First, e.Count-1)
	}
	return fmt.Sprintf("%v: %v", aseba.ErrStackOverflow, e.First)
}

func (e *StackOverflowError) Unwrap() error {
	return aseba.ErrStackOverflow
}

// Result summarizes a verification run. Every returned result is owned by the
// caller, including results served from the cache of a CachingVerifier.
type Result struct {
	Budget uint
	// Violations lists the units exceeding the budget in reporting order. In
	// fail-fast mode it holds at most one entry.
	Violations []Violation
	// Passes is the number of relaxation passes over all subroutines.
	Passes int
	// Depths holds the final call depth of every subroutine.
	Depths map[aseba.SubroutineID]uint
	// Peak is the largest combined stack usage of any unit. It is only
	// meaningful if the program passed verification.
	Peak uint
	// Unreachable lists, in ascending order, subroutines that can not be
	// reached through any call chain starting at an event. Their call depth
	// does not reflect any real chain, so they are only checked in isolation.
	Unreachable []aseba.SubroutineID
}

// Passed reports whether the program was accepted.
func (r *Result) Passed() bool {
	return len(r.Violations) == 0
}

// Err returns nil if the program passed and a *StackOverflowError otherwise.
func (r *Result) Err() error {
	if r.Passed() {
		return nil
	}
	return &StackOverflowError{First: r.Violations[0], Count: len(r.Violations)}
}

// clone creates a deep copy of the result.
func (r *Result) clone() *Result {
	res := *r
	res.Violations = slices.Clone(r.Violations)
	res.Depths = maps.Clone(r.Depths)
	res.Unreachable = slices.Clone(r.Unreachable)
	return &res
}

// withNames returns a deep copy of the result with violation names taken from
// the given table.
func (r *Result) withNames(table *aseba.UnitTable) *Result {
	res := r.clone()
	for i := range res.Violations {
		violation := &res.Violations[i]
		violation.Name = unitName(table, violation.Kind, violation.ID)
	}
	return res
}

func unitName(table *aseba.UnitTable, kind UnitKind, id uint16) string {
	switch kind {
	case EventUnit:
		if event, found := table.Events[aseba.EventID(id)]; found {
			return event.Name
		}
	case SubroutineUnit:
		if sub, found := table.Subroutines[aseba.SubroutineID(id)]; found {
			return sub.Name
		}
	}
	return ""
}
