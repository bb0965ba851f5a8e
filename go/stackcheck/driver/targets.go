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
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var TargetsCmd = cli.Command{
	Action: doTargets,
	Name:   "targets",
	Usage:  "List all registered targets",
}

func doTargets(context *cli.Context) error {
	targets := aseba.GetAllRegisteredTargets()
	names := maps.Keys(targets)
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintln(context.App.Writer, targets[name])
	}
	return nil
}
