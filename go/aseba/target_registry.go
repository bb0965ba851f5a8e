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
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)

// This file provides a registry for deployment targets. Targets built into
// the tool chain are registered by this package's init code; additional
// targets may be loaded from description files and registered by clients.

func init() {
	for _, target := range []TargetDescription{
		{Name: "generic", BytecodeSize: 1024, VariablesSize: 256, StackSize: 32},
		{Name: "generic-small", BytecodeSize: 512, VariablesSize: 128, StackSize: 16},
		{Name: "generic-large", BytecodeSize: 4096, VariablesSize: 1024, StackSize: 128},
		{Name: "simulator", BytecodeSize: 8192, VariablesSize: 4096, StackSize: 1024},
	} {
		if err := RegisterTarget(target); err != nil {
			panic(err)
		}
	}
}

// GetTarget performs a lookup for the given name (case-insensitive) in the
// registry. The second result is false if no target was registered under the
// given name.
func GetTarget(name string) (TargetDescription, bool) {
	targetRegistryLock.Lock()
	defer targetRegistryLock.Unlock()
	res, found := targetRegistry[strings.ToLower(name)]
	return res, found
}

// GetAllRegisteredTargets obtains all registered targets.
func GetAllRegisteredTargets() map[string]TargetDescription {
	targetRegistryLock.Lock()
	defer targetRegistryLock.Unlock()
	return maps.Clone(targetRegistry)
}

// RegisterTarget registers a new target description under its name. The name
// is not case-sensitive. An error is returned if a target was bound to the
// same name before or if the name is empty.
func RegisterTarget(target TargetDescription) error {
	key := strings.ToLower(target.Name)
	if key == "" {
		return fmt.Errorf("invalid initialization: cannot register target without name")
	}
	targetRegistryLock.Lock()
	defer targetRegistryLock.Unlock()
	if _, found := targetRegistry[key]; found {
		return fmt.Errorf("invalid initialization: multiple targets registered for `%s`", key)
	}
	targetRegistry[key] = target
	return nil
}

// targetRegistry is a global registry for target descriptions.
var targetRegistry = map[string]TargetDescription{}

// targetRegistryLock to protect access to the registry.
var targetRegistryLock sync.Mutex
