// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package gen produces random, well-formed unit tables for testing the stack
// verifier, together with a reference computation of call depths.
package gen

import (
	"fmt"

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	"github.com/Fantom-foundation/Stackcheck/go/aseba/bytecode"
	"pgregory.net/rand"
)

// Config configures the shape of generated tables.
type Config struct {
	Events      int
	Subroutines int
	// MaxLocalDepth is the inclusive upper bound of generated local stack
	// depths.
	MaxLocalDepth uint
	// MaxCalls is the maximum number of call instructions per unit.
	MaxCalls int
	// MaxFiller is the maximum number of non-call instructions per unit.
	MaxFiller int
	// Cyclic permits calls between arbitrary subroutines, including
	// recursion. Otherwise generated call graphs are acyclic.
	Cyclic bool
}

// DefaultConfig is a moderately sized configuration producing acyclic call
// graphs.
var DefaultConfig = Config{
	Events:        3,
	Subroutines:   12,
	MaxLocalDepth: 6,
	MaxCalls:      3,
	MaxFiller:     8,
}

// fillers are the instruction classes used between calls.
var fillers = []bytecode.OpCode{
	bytecode.STOP,
	bytecode.SMALL_IMMEDIATE,
	bytecode.LARGE_IMMEDIATE,
	bytecode.LOAD,
	bytecode.STORE,
	bytecode.LOAD_INDIRECT,
	bytecode.STORE_INDIRECT,
	bytecode.UNARY_ARITHMETIC,
	bytecode.BINARY_ARITHMETIC,
	bytecode.JUMP,
	bytecode.CONDITIONAL_BRANCH,
	bytecode.EMIT,
	bytecode.NATIVE_CALL,
	bytecode.SUB_RET,
	bytecode.OpCode(0xF),
}

// Table generates a random unit table. All call targets are resolvable and
// all instructions are complete. Subroutine identifiers are drawn from the
// full identifier range, so they are not contiguous.
func Table(rnd *rand.Rand, config Config) (*aseba.UnitTable, error) {
	maxSubroutines := int(aseba.MaxSubroutineID) + 1
	if config.Subroutines > maxSubroutines {
		return nil, fmt.Errorf("can not generate more than %d subroutines", maxSubroutines)
	}
	if config.Events < 0 || config.Subroutines < 0 || config.MaxCalls < 0 || config.MaxFiller < 0 {
		return nil, fmt.Errorf("invalid configuration %+v", config)
	}

	perm := rnd.Perm(maxSubroutines)
	ids := make([]aseba.SubroutineID, config.Subroutines)
	for i := range ids {
		ids[i] = aseba.SubroutineID(perm[i])
	}

	// In acyclic mode, the i-th subroutine only calls subroutines j > i.
	calleesFor := func(first int) []aseba.SubroutineID {
		if first >= len(ids) || config.MaxCalls == 0 {
			return nil
		}
		res := make([]aseba.SubroutineID, rnd.Intn(config.MaxCalls+1))
		for i := range res {
			res[i] = ids[first+rnd.Intn(len(ids)-first)]
		}
		return res
	}

	table := aseba.NewUnitTable()
	for i := 0; i < config.Events; i++ {
		unit := aseba.Unit{
			Name:               fmt.Sprintf("event_%d", i),
			Code:               code(rnd, config, calleesFor(0)),
			LocalMaxStackDepth: localDepth(rnd, config),
		}
		if err := table.AddEvent(aseba.EventID(i), unit); err != nil {
			return nil, err
		}
	}
	for i, id := range ids {
		first := i + 1
		if config.Cyclic {
			first = 0
		}
		unit := aseba.Unit{
			Name:               fmt.Sprintf("sub_%d", id),
			Code:               code(rnd, config, calleesFor(first)),
			LocalMaxStackDepth: localDepth(rnd, config),
		}
		if err := table.AddSubroutine(id, unit); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func localDepth(rnd *rand.Rand, config Config) uint {
	return uint(rnd.Uint64n(uint64(config.MaxLocalDepth) + 1))
}

// code produces a unit's code containing calls of the given callees in order,
// interleaved with random filler instructions. Operand words are random and
// frequently look like call instructions.
func code(rnd *rand.Rand, config Config, callees []aseba.SubroutineID) aseba.Code {
	var res aseba.Code
	filler := func() {
		if config.MaxFiller == 0 {
			return
		}
		for n := rnd.Intn(config.MaxFiller + 1); n > 0; n-- {
			op := fillers[rnd.Intn(len(fillers))]
			res = append(res, bytecode.Encode(op, uint16(rnd.Intn(1<<12))))
			for i := 1; i < op.Width(); i++ {
				res = append(res, aseba.Word(rnd.Intn(1<<16)))
			}
		}
	}
	for _, callee := range callees {
		filler()
		res = append(res, bytecode.EncodeCall(callee))
	}
	filler()
	return res
}
