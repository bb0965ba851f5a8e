// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

type targetFlagType struct {
	cli.StringFlag
}

var targetFlag = &targetFlagType{
	cli.StringFlag{
		Name:    "target",
		Aliases: []string{"t"},
		Usage:   "name of a registered target providing the stack budget",
		Value:   "generic",
	},
}

type targetFileFlagType struct {
	cli.StringFlag
}

var targetFileFlag = &targetFileFlagType{
	cli.StringFlag{
		Name:      "target-file",
		Usage:     "TOML file describing the target, overrides --target",
		TakesFile: true,
	},
}

type budgetFlagType struct {
	cli.UintFlag
}

var budgetFlag = &budgetFlagType{
	cli.UintFlag{
		Name:    "budget",
		Aliases: []string{"b"},
		Usage:   "stack budget in words, overrides the target's stack size",
	},
}

// fetchTarget determines the target to verify for. An explicit budget
// replaces the stack size of the selected target.
func fetchTarget(context *cli.Context) (aseba.TargetDescription, error) {
	var target aseba.TargetDescription
	if path := context.String(targetFileFlag.Name); path != "" {
		var err error
		target, err = aseba.LoadTargetFile(path)
		if err != nil {
			return aseba.TargetDescription{}, err
		}
	} else {
		name := context.String(targetFlag.Name)
		var found bool
		target, found = aseba.GetTarget(name)
		if !found {
			return aseba.TargetDescription{}, fmt.Errorf("unknown target %q, see the targets command for the available targets", name)
		}
	}
	if context.IsSet(budgetFlag.Name) {
		target.StackSize = context.Uint(budgetFlag.Name)
	}
	return target, nil
}

type collectAllFlagType struct {
	cli.BoolFlag
}

var collectAllFlag = &collectAllFlagType{
	cli.BoolFlag{
		Name:  "collect-all",
		Usage: "report all units exceeding the budget instead of the first one",
	},
}

func (f *collectAllFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.Name)
}

type verboseFlagType struct {
	cli.BoolFlag
}

var verboseFlag = &verboseFlagType{
	cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "enable debug logging",
	},
}

// Fetch creates the logger selected by the flag. Without the flag only
// warnings and errors are logged.
func (f *verboseFlagType) Fetch(context *cli.Context) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	if !context.Bool(f.Name) {
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

type jobsFlagType struct {
	cli.IntFlag
}

var jobsFlag = &jobsFlagType{
	cli.IntFlag{
		Name:    "jobs",
		Aliases: []string{"j"},
		Usage:   "number of jobs run simultaneously",
		Value:   runtime.NumCPU(),
	},
}

func (f *jobsFlagType) Fetch(context *cli.Context) int {
	if jobs := context.Int(f.Name); jobs > 0 {
		return jobs
	}
	return runtime.NumCPU()
}

type seedFlagType struct {
	cli.Uint64Flag
}

var seedFlag = &seedFlagType{
	cli.Uint64Flag{
		Name:    "seed",
		Aliases: []string{"s"},
		Usage:   "seed for the random number generator",
	},
}

func (f *seedFlagType) Fetch(context *cli.Context) uint64 {
	return context.Uint64(f.Name)
}

type countFlagType struct {
	cli.IntFlag
}

var countFlag = &countFlagType{
	cli.IntFlag{
		Name:    "count",
		Aliases: []string{"n"},
		Usage:   "number of random programs to check",
		Value:   10_000,
	},
}

func (f *countFlagType) Fetch(context *cli.Context) int {
	return context.Int(f.Name)
}

type cpuProfileFlagType struct {
	cli.StringFlag
}

var cpuProfileFlag = &cpuProfileFlagType{
	cli.StringFlag{
		Name:      "cpuprofile",
		Usage:     "store CPU profile in the provided filename",
		TakesFile: true,
	},
}

// startProfiling starts recording a CPU profile if requested. The returned
// function stops the recording and must always be called.
func (f *cpuProfileFlagType) startProfiling(context *cli.Context) (func() error, error) {
	path := context.String(f.Name)
	if path == "" {
		return func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		file.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	return func() error {
		pprof.StopCPUProfile()
		return file.Close()
	}, nil
}

// withProfiling adds the CPU profiling flag to a long running command.
func withProfiling(command cli.Command) cli.Command {
	command.Flags = append(command.Flags, cpuProfileFlag)
	action := command.Action
	command.Action = func(context *cli.Context) (err error) {
		stop, err := cpuProfileFlag.startProfiling(context)
		if err != nil {
			return err
		}
		defer func() {
			if stopErr := stop(); err == nil && stopErr != nil {
				err = fmt.Errorf("could not write CPU profile: %w", stopErr)
			}
		}()
		return action(context)
	}
	return command
}
