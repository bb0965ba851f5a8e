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
	"github.com/Fantom-foundation/Stackcheck/go/aseba/bytecode"
)

// callGraph is the implicit call graph of a unit table. Subroutines are kept
// in an arena indexed in ascending identifier order; edges refer to arena
// indices. Duplicate calls are preserved as duplicate edges.
type callGraph struct {
	events      []eventNode
	subroutines []subroutineNode
}

type eventNode struct {
	id      aseba.EventID
	event   *aseba.Event
	callees []int
}

type subroutineNode struct {
	id      aseba.SubroutineID
	sub     *aseba.Subroutine
	callees []int
}

// newCallGraph extracts the call graph of the given table with a single scan
// over every unit's code. Calls to subroutines not in the table are reported
// as aseba.ErrUnresolvedCallTarget, truncated instructions as
// aseba.ErrMalformedInstructionStream. The code of the units is not modified.
func newCallGraph(table *aseba.UnitTable) (*callGraph, error) {
	subIDs := table.SubroutineIDs()
	index := make(map[aseba.SubroutineID]int, len(subIDs))
	for i, id := range subIDs {
		index[id] = i
	}

	extract := func(unit string, code aseba.Code) ([]int, error) {
		var res []int
		scanner := bytecode.NewCallScanner(code)
		for scanner.Next() {
			callee, found := index[scanner.Callee()]
			if !found {
				return nil, fmt.Errorf("%s calls subroutine %d at 0x%04x: %w",
					unit, scanner.Callee(), scanner.Pos(), aseba.ErrUnresolvedCallTarget)
			}
			res = append(res, callee)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", unit, err)
		}
		return res, nil
	}

	graph := &callGraph{
		events:      make([]eventNode, 0, len(table.Events)),
		subroutines: make([]subroutineNode, 0, len(subIDs)),
	}
	for _, id := range table.EventIDs() {
		event := table.Events[id]
		callees, err := extract(table.DescribeEvent(id), event.Code)
		if err != nil {
			return nil, err
		}
		graph.events = append(graph.events, eventNode{id: id, event: event, callees: callees})
	}
	for _, id := range subIDs {
		sub := table.Subroutines[id]
		callees, err := extract(table.DescribeSubroutine(id), sub.Code)
		if err != nil {
			return nil, err
		}
		graph.subroutines = append(graph.subroutines, subroutineNode{id: id, sub: sub, callees: callees})
	}
	return graph, nil
}

// unreachable returns the identifiers of all subroutines not reachable from
// any event, in ascending order.
func (g *callGraph) unreachable() []aseba.SubroutineID {
	reached := make([]bool, len(g.subroutines))
	var worklist []int
	for _, event := range g.events {
		worklist = append(worklist, event.callees...)
	}
	for len(worklist) > 0 {
		cur := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if reached[cur] {
			continue
		}
		reached[cur] = true
		worklist = append(worklist, g.subroutines[cur].callees...)
	}

	var res []aseba.SubroutineID
	for i, node := range g.subroutines {
		if !reached[i] {
			res = append(res, node.id)
		}
	}
	return res
}
