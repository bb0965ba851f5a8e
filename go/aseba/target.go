// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package aseba

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TargetDescription summarizes the memory layout of a deployment target. All
// sizes are given in 16-bit words. The stack size is the budget the stack
// verifier checks programs against.
type TargetDescription struct {
	Name          string `toml:"name"`
	BytecodeSize  uint   `toml:"bytecode-size"`
	VariablesSize uint   `toml:"variables-size"`
	StackSize     uint   `toml:"stack-size"`
}

func (d TargetDescription) String() string {
	return fmt.Sprintf("%s (bytecode %d, variables %d, stack %d)",
		d.Name, d.BytecodeSize, d.VariablesSize, d.StackSize)
}

// LoadTargetFile parses a target description from the given TOML file.
// Undefined keys are rejected to catch misspelled sizes early.
func LoadTargetFile(path string) (TargetDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TargetDescription{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return ParseTargetDescription(data)
}

// ParseTargetDescription parses a target description in TOML format.
func ParseTargetDescription(data []byte) (TargetDescription, error) {
	var res TargetDescription
	meta, err := toml.Decode(string(data), &res)
	if err != nil {
		return TargetDescription{}, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return TargetDescription{}, fmt.Errorf("unknown target keys: %v", undecoded)
	}
	if res.Name == "" {
		return TargetDescription{}, fmt.Errorf("target description without name")
	}
	if !meta.IsDefined("stack-size") {
		return TargetDescription{}, fmt.Errorf("target %s has no stack-size", res.Name)
	}
	return res, nil
}
