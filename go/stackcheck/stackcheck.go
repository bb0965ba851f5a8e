// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package stackcheck implements the static verification proving that a
// linked program can not overflow the execution stack of its target.
//
// Every event is the root of a call chain. Each call adds one word to the
// chain, and each unit adds its precomputed local stack usage on top of the
// chain reaching it. A program is accepted if, for every unit, the longest
// chain reaching it plus its local usage fits into the stack budget. Call
// depths are computed by relaxation over the implicit call graph extracted
// from the call instructions in the units' code; recursive programs are
// rejected since their call depth grows without bound.
package stackcheck

import (
	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	"go.uber.org/zap"
)

// Config configures a Verifier.
type Config struct {
	// CollectAll makes the verifier continue after the first violation and
	// report all offending units. The verdict is the same as in the default
	// fail-fast mode.
	CollectAll bool
	// Logger receives diagnostics. If nil, nothing is logged.
	Logger *zap.Logger
	// Observer is notified about the depth propagation. May be nil.
	Observer Observer
}

// Verifier checks unit tables against a stack budget. A Verifier holds no
// state between runs; it may be used for any number of tables, but a single
// table must not be verified concurrently since verification updates the
// call depths of its subroutines.
type Verifier struct {
	config Config
	logger *zap.Logger
}

var _ aseba.Verifier = (*Verifier)(nil)

// NewVerifier creates a verifier with the given configuration.
func NewVerifier(config Config) *Verifier {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Observer == nil {
		config.Observer = noObserver{}
	}
	return &Verifier{config: config, logger: logger}
}

// Verify checks the table against the budget using a fail-fast verifier
// without logging. See Verifier.Verify for details.
func Verify(table *aseba.UnitTable, budget uint) (bool, error) {
	return NewVerifier(Config{}).Verify(table, budget)
}

// Verify checks the table against the budget. The result is true only if no
// unit can exceed the budget. Errors signal tool chain defects, namely calls
// of unknown subroutines and truncated instructions; in that case no verdict
// is produced.
func (v *Verifier) Verify(table *aseba.UnitTable, budget uint) (bool, error) {
	res, err := v.Check(table, budget)
	if err != nil {
		return false, err
	}
	return res.Passed(), nil
}

// Check verifies the table against the budget and returns a detailed result.
// The call depths of the table's subroutines are reset before the run and
// hold the final depths afterwards, so repeated checks of an unchanged table
// produce identical results.
func (v *Verifier) Check(table *aseba.UnitTable, budget uint) (*Result, error) {
	graph, err := newCallGraph(table)
	if err != nil {
		v.logger.Error("malformed program", zap.Error(err))
		return nil, err
	}

	table.ResetDepths()
	propagator := &propagator{
		graph:      graph,
		budget:     budget,
		collectAll: v.config.CollectAll,
		observer:   v.config.Observer,
	}
	passed := propagator.run()

	res := &Result{
		Budget:      budget,
		Violations:  propagator.violations,
		Passes:      propagator.passes,
		Depths:      table.Depths(),
		Unreachable: graph.unreachable(),
	}
	if passed {
		res.Peak = propagator.peak()
	}

	v.logResult(table, res, false)
	return res, nil
}

// logResult reports the violations and unreachable subroutines of a result.
func (v *Verifier) logResult(table *aseba.UnitTable, res *Result, cached bool) {
	for _, violation := range res.Violations {
		v.logger.Warn("stack budget exceeded",
			zap.String("unit", violation.Unit()),
			zap.Bool("recursive", violation.Recursive),
			zap.Uint("callDepth", violation.CallDepth),
			zap.Uint("localMaxStackDepth", violation.LocalMaxStackDepth),
			zap.Uint("budget", res.Budget),
		)
	}
	for _, id := range res.Unreachable {
		v.logger.Info("subroutine not reachable from any event",
			zap.String("unit", table.DescribeSubroutine(id)),
		)
	}
	v.logger.Debug("stack verification finished",
		zap.Bool("passed", res.Passed()),
		zap.Bool("cached", cached),
		zap.Int("passes", res.Passes),
		zap.Uint("peak", res.Peak),
		zap.Uint("budget", res.Budget),
		zap.Int("events", len(table.Events)),
		zap.Int("subroutines", len(table.Subroutines)),
	)
}
