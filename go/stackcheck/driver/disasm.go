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
	"github.com/Fantom-foundation/Stackcheck/go/aseba/bytecode"
	"github.com/urfave/cli/v2"
)

var DisasmCmd = cli.Command{
	Action:    doDisasm,
	Name:      "disasm",
	Usage:     "Print the code of all units of a program",
	ArgsUsage: "<table.json>",
}

func doDisasm(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("expected a single unit table, usage: %s", context.Command.ArgsUsage)
	}
	table, err := aseba.ImportTableJSON(context.Args().First())
	if err != nil {
		return err
	}

	out := context.App.Writer
	for _, id := range table.EventIDs() {
		event := table.Events[id]
		fmt.Fprintf(out, "%s, local stack %d:\n", table.DescribeEvent(id), event.LocalMaxStackDepth)
		fmt.Fprint(out, bytecode.Disassemble(event.Code))
	}
	for _, id := range table.SubroutineIDs() {
		sub := table.Subroutines[id]
		fmt.Fprintf(out, "%s, local stack %d:\n", table.DescribeSubroutine(id), sub.LocalMaxStackDepth)
		fmt.Fprint(out, bytecode.Disassemble(sub.Code))
	}
	return nil
}
