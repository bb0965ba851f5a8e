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
	"os"
	"path/filepath"
	"testing"
)

func TestTargetDescription_CanBeLoadedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.toml")
	content := `
name = "my-robot"
bytecode-size = 1534
variables-size = 512
stack-size = 32
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write target file: %v", err)
	}

	got, err := LoadTargetFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := TargetDescription{Name: "my-robot", BytecodeSize: 1534, VariablesSize: 512, StackSize: 32}
	if got != want {
		t.Errorf("unexpected target, want %v, got %v", want, got)
	}
}

func TestTargetDescription_ZeroStackSizeIsAccepted(t *testing.T) {
	got, err := ParseTargetDescription([]byte("name = \"none\"\nstack-size = 0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.StackSize != 0 {
		t.Errorf("unexpected stack size %d", got.StackSize)
	}
}

func TestTargetDescription_InvalidDescriptionsAreRejected(t *testing.T) {
	inputs := map[string]string{
		"syntax error":     "name = ",
		"missing name":     "stack-size = 32",
		"missing stack":    "name = \"robot\"",
		"unknown key":      "name = \"robot\"\nstack-size = 32\nstack-sise = 12",
		"negative size":    "name = \"robot\"\nstack-size = -1",
		"wrong value type": "name = \"robot\"\nstack-size = \"large\"",
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseTargetDescription([]byte(input)); err == nil {
				t.Errorf("expected error for input %q", input)
			}
		})
	}
}

func TestTargetDescription_MissingFileIsReported(t *testing.T) {
	if _, err := LoadTargetFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
