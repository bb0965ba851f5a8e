// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package stackcheck

import "github.com/Fantom-foundation/Stackcheck/go/aseba"

//go:generate mockgen -source observer.go -destination observer_mock.go -package stackcheck

// Observer is notified about the progress of the depth propagation. It is
// intended for tracing and testing; implementations must not modify the
// verified table.
type Observer interface {
	// DepthRaised is called whenever the call depth of a subroutine grows.
	DepthRaised(id aseba.SubroutineID, from, to uint)
	// PassCompleted is called after every complete relaxation pass over all
	// subroutines. Passes are numbered starting at 1.
	PassCompleted(pass int, changed bool)
}

type noObserver struct{}

func (noObserver) DepthRaised(aseba.SubroutineID, uint, uint) {}
func (noObserver) PassCompleted(int, bool)                    {}
