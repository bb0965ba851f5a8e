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

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	"github.com/Fantom-foundation/Stackcheck/go/stackcheck"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var VerifyCmd = withProfiling(cli.Command{
	Action:    doVerify,
	Name:      "verify",
	Usage:     "Verify that linked programs can not overflow the stack of a target",
	ArgsUsage: "<table.json>...",
	Flags: []cli.Flag{
		targetFlag,
		targetFileFlag,
		budgetFlag,
		collectAllFlag,
		verboseFlag,
	},
})

func doVerify(context *cli.Context) error {
	if context.Args().Len() == 0 {
		return fmt.Errorf("missing unit table, usage: %s", context.Command.ArgsUsage)
	}

	target, err := fetchTarget(context)
	if err != nil {
		return err
	}

	logger, err := verboseFlag.Fetch(context)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Identical programs, e.g. the same firmware for several nodes, are only
	// verified once.
	verifier, err := stackcheck.NewCachingVerifier(
		stackcheck.Config{
			CollectAll: collectAllFlag.Fetch(context),
			Logger:     logger,
		},
		stackcheck.CacheConfig{},
	)
	if err != nil {
		return err
	}

	out := context.App.Writer
	fmt.Fprintf(out, "Verifying %d program(s) for target %s with a stack budget of %d words ...\n",
		context.Args().Len(), target.Name, target.StackSize)

	failed := 0
	for _, path := range context.Args().Slice() {
		table, err := aseba.ImportTableJSON(path)
		if err != nil {
			return err
		}
		logger.Debug("unit table loaded",
			zap.String("file", path),
			zap.Stringer("hash", table.Hash()),
		)

		res, err := verifier.Check(table, target.StackSize)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if res.Passed() {
			fmt.Fprintf(out, "%s: OK, peak stack usage %d of %d words\n", path, res.Peak, res.Budget)
			continue
		}
		failed++
		fmt.Fprintf(out, "%s: FAILED\n", path)
		for _, violation := range res.Violations {
			fmt.Fprintf(out, "  %v\n", violation)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d program(s) failed verification: %w",
			failed, context.Args().Len(), aseba.ErrStackOverflow)
	}
	fmt.Fprintf(out, "All programs passed verification!\n")
	return nil
}
