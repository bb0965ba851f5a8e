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
	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	"golang.org/x/exp/slices"
)

// propagator computes the call depth of every subroutine by relaxation and
// checks the combined stack usage of every unit against the budget.
//
// The computation is a longest-path search over a possibly cyclic graph. A
// cycle raises the depth of its members by at least one in every pass. The
// budget check trips after at most budget+1 passes; independent of the
// budget, a depth larger than the number of subroutines can only be produced
// by a chain visiting some subroutine twice, which stops a recursive program
// after at most n+1 passes.
type propagator struct {
	graph      *callGraph
	budget     uint
	collectAll bool
	observer   Observer

	violations []Violation
	violating  []bool // per subroutine, set once a violation was recorded
	passes     int
}

// exceeds reports whether depth+local is larger than the budget without
// risking an overflow of the sum.
func exceeds(depth, local, budget uint) bool {
	return local > budget || depth > budget-local
}

// run executes both phases. The result is false if a violation was found; in
// fail-fast mode propagation stops at the first one.
func (p *propagator) run() bool {
	p.violating = make([]bool, len(p.graph.subroutines))
	if !p.seedFromEvents() {
		return false
	}
	return p.relax()
}

// seedFromEvents checks the local usage of every event and sets the depth of
// each directly called subroutine to at least 1.
func (p *propagator) seedFromEvents() bool {
	for _, node := range p.graph.events {
		if local := node.event.LocalMaxStackDepth; local > p.budget {
			p.violations = append(p.violations, Violation{
				Kind:               EventUnit,
				ID:                 uint16(node.id),
				Name:               node.event.Name,
				LocalMaxStackDepth: local,
				Budget:             p.budget,
			})
			if !p.collectAll {
				return false
			}
		}
		for _, callee := range node.callees {
			p.raise(callee, 1)
		}
	}
	return len(p.violations) == 0 || p.collectAll
}

// relax performs full passes over all subroutines until a fixed point is
// reached.
func (p *propagator) relax() bool {
	for changed := true; changed; {
		changed = false
		p.passes++
		for i := range p.graph.subroutines {
			node := &p.graph.subroutines[i]
			if p.violating[i] {
				continue
			}
			depth := node.sub.CallDepth
			if exceeds(depth, node.sub.LocalMaxStackDepth, p.budget) {
				p.recordSubroutineViolation(i, false)
				if !p.collectAll {
					return false
				}
				continue
			}
			if depth > uint(len(p.graph.subroutines)) {
				p.recordSubroutineViolation(i, true)
				if !p.collectAll {
					return false
				}
				continue
			}
			for _, callee := range node.callees {
				if p.raise(callee, depth+1) {
					changed = true
				}
			}
		}
		p.observer.PassCompleted(p.passes, changed)
	}
	// Violating subroutines stop relaxing their callees, so their own depth
	// may still have grown after they were recorded.
	for i := range p.violations {
		v := &p.violations[i]
		if v.Kind == SubroutineUnit {
			v.CallDepth = p.depthOf(aseba.SubroutineID(v.ID))
		}
	}
	slices.SortFunc(p.violations, func(a, b Violation) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		}
		return 0
	})
	return len(p.violations) == 0
}

// raise sets the depth of the given subroutine to depth if that is larger
// than its current depth. It reports whether the depth changed.
func (p *propagator) raise(index int, depth uint) bool {
	node := &p.graph.subroutines[index]
	if depth <= node.sub.CallDepth {
		return false
	}
	p.observer.DepthRaised(node.id, node.sub.CallDepth, depth)
	node.sub.CallDepth = depth
	return true
}

func (p *propagator) recordSubroutineViolation(index int, recursive bool) {
	node := &p.graph.subroutines[index]
	p.violating[index] = true
	p.violations = append(p.violations, Violation{
		Kind:               SubroutineUnit,
		Recursive:          recursive,
		ID:                 uint16(node.id),
		Name:               node.sub.Name,
		CallDepth:          node.sub.CallDepth,
		LocalMaxStackDepth: node.sub.LocalMaxStackDepth,
		Budget:             p.budget,
	})
}

func (p *propagator) depthOf(id aseba.SubroutineID) uint {
	i, found := slices.BinarySearchFunc(p.graph.subroutines, id, func(node subroutineNode, id aseba.SubroutineID) int {
		return int(node.id) - int(id)
	})
	if !found {
		return 0
	}
	return p.graph.subroutines[i].sub.CallDepth
}

// peak computes the largest combined stack usage of any unit.
func (p *propagator) peak() uint {
	var res uint
	for _, node := range p.graph.events {
		res = max(res, node.event.LocalMaxStackDepth)
	}
	for _, node := range p.graph.subroutines {
		res = max(res, node.sub.CallDepth+node.sub.LocalMaxStackDepth)
	}
	return res
}
