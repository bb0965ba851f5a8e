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
	"encoding/json"
	"fmt"
	"os"
)

////////////////////////////////////////////////////////////
// Importing/exporting unit tables

// ExportTableJSON exports the given table in json format to the given file
// path. If the file already exists, it will be overwritten. Call depths are
// not exported.
func ExportTableJSON(table *UnitTable, filePath string) error {
	serialized, err := MarshalTableJSON(table)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, serialized, 0644)
}

// ImportTableJSON imports a unit table from the given json file.
// If the file does not exist, or is not parsable, the import fails.
func ImportTableJSON(filePath string) (*UnitTable, error) {
	serialized, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	table, err := UnmarshalTableJSON(serialized)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return table, nil
}

// MarshalTableJSON encodes the table in its json representation. Units are
// listed in ascending identifier order.
func MarshalTableJSON(table *UnitTable) ([]byte, error) {
	serializable := tableSerializable{
		Events:      make([]unitSerializable, 0, len(table.Events)),
		Subroutines: make([]unitSerializable, 0, len(table.Subroutines)),
	}
	for _, id := range table.EventIDs() {
		serializable.Events = append(serializable.Events,
			newUnitSerializable(uint16(id), table.Events[id].Unit))
	}
	for _, id := range table.SubroutineIDs() {
		serializable.Subroutines = append(serializable.Subroutines,
			newUnitSerializable(uint16(id), table.Subroutines[id].Unit))
	}
	return json.MarshalIndent(serializable, "", "  ")
}

// UnmarshalTableJSON decodes a table from its json representation.
func UnmarshalTableJSON(serialized []byte) (*UnitTable, error) {
	var serializable tableSerializable
	if err := json.Unmarshal(serialized, &serializable); err != nil {
		return nil, err
	}
	table := NewUnitTable()
	for _, event := range serializable.Events {
		if err := table.AddEvent(EventID(event.ID), event.unit()); err != nil {
			return nil, err
		}
	}
	for _, sub := range serializable.Subroutines {
		if err := table.AddSubroutine(SubroutineID(sub.ID), sub.unit()); err != nil {
			return nil, err
		}
	}
	return table, nil
}

////////////////////////////////////////////////////////////
// Serialization helpers

// tableSerializable is a serializable representation of the UnitTable struct.
type tableSerializable struct {
	Events      []unitSerializable `json:"events"`
	Subroutines []unitSerializable `json:"subroutines"`
}

// unitSerializable is a serializable representation of a single unit and its
// identifier.
type unitSerializable struct {
	ID                 uint16 `json:"id"`
	Name               string `json:"name,omitempty"`
	LocalMaxStackDepth uint   `json:"localMaxStackDepth"`
	Code               []Word `json:"code"`
}

func newUnitSerializable(id uint16, unit Unit) unitSerializable {
	code := unit.Code
	if code == nil {
		code = []Word{}
	}
	return unitSerializable{
		ID:                 id,
		Name:               unit.Name,
		LocalMaxStackDepth: unit.LocalMaxStackDepth,
		Code:               code,
	}
}

func (u unitSerializable) unit() Unit {
	return Unit{
		Name:               u.Name,
		Code:               Code(u.Code),
		LocalMaxStackDepth: u.LocalMaxStackDepth,
	}
}
