// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package gen

import (
	"fmt"

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	"github.com/Fantom-foundation/Stackcheck/go/aseba/bytecode"
)

// Reference is an independent computation of call depths for acyclic call
// graphs, used as an oracle for the stack verifier. It walks the graph
// backwards from each subroutine to its callers, memoizing results.
type Reference struct {
	table *aseba.UnitTable
	// calledByEvent marks subroutines directly called by any event.
	calledByEvent map[aseba.SubroutineID]bool
	// callers lists, per subroutine, the subroutines calling it.
	callers map[aseba.SubroutineID][]aseba.SubroutineID
}

// ErrCyclic is returned by the reference computation for recursive programs.
const ErrCyclic = aseba.ConstError("call graph contains a cycle")

// NewReference prepares the reference computation for the given table.
func NewReference(table *aseba.UnitTable) (*Reference, error) {
	res := &Reference{
		table:         table,
		calledByEvent: map[aseba.SubroutineID]bool{},
		callers:       map[aseba.SubroutineID][]aseba.SubroutineID{},
	}
	for _, id := range table.EventIDs() {
		callees, err := bytecode.Callees(table.Events[id].Code)
		if err != nil {
			return nil, err
		}
		for _, callee := range callees {
			res.calledByEvent[callee] = true
		}
	}
	for _, id := range table.SubroutineIDs() {
		callees, err := bytecode.Callees(table.Subroutines[id].Code)
		if err != nil {
			return nil, err
		}
		for _, callee := range callees {
			if _, found := table.Subroutines[callee]; !found {
				return nil, fmt.Errorf("subroutine %d calls %d: %w", id, callee, aseba.ErrUnresolvedCallTarget)
			}
			res.callers[callee] = append(res.callers[callee], id)
		}
	}
	return res, nil
}

// FixedPointDepths computes the call depth every subroutine has once the
// relaxation reaches its fixed point: the longest path ending in the
// subroutine, where paths start with depth 1 at subroutines called by an
// event and with depth 0 at any subroutine.
func (r *Reference) FixedPointDepths() (map[aseba.SubroutineID]uint, error) {
	return r.depths(func(id aseba.SubroutineID) (uint, bool) {
		if r.calledByEvent[id] {
			return 1, true
		}
		return 0, true
	})
}

// LongestChains computes, for every subroutine reachable from an event, the
// length of the longest call chain from an event to it. Unreachable
// subroutines are not part of the result.
func (r *Reference) LongestChains() (map[aseba.SubroutineID]uint, error) {
	return r.depths(func(id aseba.SubroutineID) (uint, bool) {
		if r.calledByEvent[id] {
			return 1, true
		}
		return 0, false
	})
}

// Verdict computes the expected verdict of the stack verifier.
func (r *Reference) Verdict(budget uint) (bool, error) {
	depths, err := r.FixedPointDepths()
	if err != nil {
		return false, err
	}
	for _, event := range r.table.Events {
		if event.LocalMaxStackDepth > budget {
			return false, nil
		}
	}
	for id, sub := range r.table.Subroutines {
		if depths[id]+sub.LocalMaxStackDepth > budget {
			return false, nil
		}
	}
	return true, nil
}

func (r *Reference) depths(seed func(aseba.SubroutineID) (uint, bool)) (map[aseba.SubroutineID]uint, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[aseba.SubroutineID]int{}
	depth := map[aseba.SubroutineID]uint{}
	defined := map[aseba.SubroutineID]bool{}

	var visit func(id aseba.SubroutineID) error
	visit = func(id aseba.SubroutineID) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("subroutine %d: %w", id, ErrCyclic)
		}
		state[id] = visiting
		d, ok := seed(id)
		for _, caller := range r.callers[id] {
			if err := visit(caller); err != nil {
				return err
			}
			if defined[caller] {
				d = max(d, depth[caller]+1)
				ok = true
			}
		}
		state[id] = done
		depth[id], defined[id] = d, ok
		return nil
	}

	res := map[aseba.SubroutineID]uint{}
	for id := range r.table.Subroutines {
		if err := visit(id); err != nil {
			return nil, err
		}
		if defined[id] {
			res[id] = depth[id]
		}
	}
	return res, nil
}
