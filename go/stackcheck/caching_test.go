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

import (
	"errors"
	"testing"

	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newCachingVerifier(t *testing.T, config Config, cacheConfig CacheConfig) *CachingVerifier {
	t.Helper()
	verifier, err := NewCachingVerifier(config, cacheConfig)
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	return verifier
}

func TestCachingVerifier_CacheSizeConfiguration(t *testing.T) {
	tests := map[string]struct {
		size    int
		enabled bool
	}{
		"default": {0, true},
		"custom":  {4, true},
		"off":     {-1, false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			verifier := newCachingVerifier(t, Config{}, CacheConfig{CacheSize: test.size})
			if got := verifier.cache != nil; got != test.enabled {
				t.Errorf("unexpected cache state, want %t, got %t", test.enabled, got)
			}
		})
	}
}

func TestCachingVerifier_RepeatedChecksAreServedFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	observer := NewMockObserver(ctrl)
	// The propagation is only observed once.
	observer.EXPECT().DepthRaised(aseba.SubroutineID(7), uint(0), uint(1)).Times(1)
	observer.EXPECT().PassCompleted(1, false).Times(1)

	verifier := newCachingVerifier(t, Config{Observer: observer}, CacheConfig{})
	table := newTable(t).event(0, unit(2, 7)).sub(7, unit(3)).build()

	first, err := verifier.Check(table, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	table.ResetDepths()
	second, err := verifier.Check(table, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached result differs (-want +got):\n%s", diff)
	}
	if got := table.Subroutines[7].CallDepth; got != 1 {
		t.Errorf("depth not restored from cache, want 1, got %d", got)
	}
	if got := verifier.Len(); got != 1 {
		t.Errorf("unexpected cache size, want 1, got %d", got)
	}
}

func TestCachingVerifier_BudgetIsPartOfTheKey(t *testing.T) {
	verifier := newCachingVerifier(t, Config{}, CacheConfig{})
	table := newTable(t).event(0, unit(2, 7)).sub(7, unit(3)).build()
	for budget, want := range map[uint]bool{3: false, 4: true} {
		got, err := verifier.Verify(table, budget)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("unexpected verdict for budget %d, want %t, got %t", budget, want, got)
		}
	}
	if got := verifier.Len(); got != 2 {
		t.Errorf("unexpected cache size, want 2, got %d", got)
	}
}

func TestCachingVerifier_NamesAreTakenFromCurrentTable(t *testing.T) {
	verifier := newCachingVerifier(t, Config{}, CacheConfig{})
	table := newTable(t).event(0, unit(0, 7)).sub(7, unit(5)).build()
	table.Subroutines[7].Name = "old"
	if _, err := verifier.Check(table, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	renamed := table.Clone()
	renamed.Subroutines[7].Name = "new"
	res, err := verifier.Check(renamed, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := verifier.Len(); got != 1 {
		t.Errorf("renamed table not served from cache")
	}
	if len(res.Violations) != 1 || res.Violations[0].Name != "new" {
		t.Errorf("unexpected violations: %v", res.Violations)
	}
}

func TestCachingVerifier_ModifiedTablesAreCheckedAgain(t *testing.T) {
	verifier := newCachingVerifier(t, Config{}, CacheConfig{})
	table := newTable(t).event(0, unit(0, 7)).sub(7, unit(3)).build()
	if ok, err := verifier.Verify(table, 4); err != nil || !ok {
		t.Fatalf("unexpected verdict %t, error %v", ok, err)
	}
	table.Subroutines[7].LocalMaxStackDepth = 4
	if ok, err := verifier.Verify(table, 4); err != nil || ok {
		t.Errorf("modified table accepted")
	}
}

func TestCachingVerifier_ErrorsAreNotCached(t *testing.T) {
	verifier := newCachingVerifier(t, Config{}, CacheConfig{})
	table := newTable(t).event(0, unit(0, 3)).build()
	for i := 0; i < 2; i++ {
		if _, err := verifier.Check(table, 4); !errors.Is(err, aseba.ErrUnresolvedCallTarget) {
			t.Errorf("unexpected error, want %v, got %v", aseba.ErrUnresolvedCallTarget, err)
		}
	}
	if got := verifier.Len(); got != 0 {
		t.Errorf("unexpected cache size, want 0, got %d", got)
	}
}

func TestCachingVerifier_DisabledCacheAlwaysRuns(t *testing.T) {
	ctrl := gomock.NewController(t)
	observer := NewMockObserver(ctrl)
	observer.EXPECT().DepthRaised(gomock.Any(), gomock.Any(), gomock.Any()).Times(2)
	observer.EXPECT().PassCompleted(gomock.Any(), gomock.Any()).Times(2)

	verifier := newCachingVerifier(t, Config{Observer: observer}, CacheConfig{CacheSize: -1})
	table := newTable(t).event(0, unit(2, 7)).sub(7, unit(3)).build()
	for i := 0; i < 2; i++ {
		if _, err := verifier.Check(table, 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := verifier.Len(); got != 0 {
		t.Errorf("unexpected cache size, want 0, got %d", got)
	}
	verifier.Purge()
}

func TestCachingVerifier_PurgeDropsResults(t *testing.T) {
	verifier := newCachingVerifier(t, Config{}, CacheConfig{CacheSize: 2})
	table := newTable(t).event(0, unit(2, 7)).sub(7, unit(3)).build()
	for budget := uint(0); budget < 4; budget++ {
		if _, err := verifier.Check(table, budget); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := verifier.Len(); got != 2 {
		t.Errorf("cache size not bounded, want 2, got %d", got)
	}
	verifier.Purge()
	if got := verifier.Len(); got != 0 {
		t.Errorf("unexpected cache size after purge, want 0, got %d", got)
	}
}

func TestCachingVerifier_ModifyingResultsDoesNotAffectCache(t *testing.T) {
	verifier := newCachingVerifier(t, Config{}, CacheConfig{})
	table := newTable(t).event(0, unit(2, 1)).sub(1, unit(3)).build()

	first, err := verifier.Check(table, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := first.clone()

	first.Depths[1] = 99
	first.Violations = append(first.Violations, Violation{Kind: SubroutineUnit, ID: 1})
	first.Unreachable = append(first.Unreachable, 1)

	for i := 0; i < 2; i++ {
		res, err := verifier.Check(table, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(want, res); diff != "" {
			t.Errorf("cached result modified (-want +got):\n%s", diff)
		}
		if got := table.Subroutines[1].CallDepth; got != 1 {
			t.Errorf("unexpected depth in table, want 1, got %d", got)
		}
		// Results of hits are owned by the caller as well.
		res.Depths[1] = 42
		res.Unreachable = append(res.Unreachable, 7)
	}
}

func TestCachingVerifier_CacheHitsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	verifier := newCachingVerifier(t, Config{Logger: zap.New(core)}, CacheConfig{})
	table := newTable(t).event(0, unit(0, 1)).sub(1, unit(4)).sub(2, unit(0)).build()

	for i := 0; i < 2; i++ {
		if _, err := verifier.Check(table, 3); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := logs.FilterMessage("stack budget exceeded").Len(); got != 2 {
		t.Errorf("unexpected number of violation logs, want 2, got %d", got)
	}
	if got := logs.FilterMessage("subroutine not reachable from any event").Len(); got != 2 {
		t.Errorf("unexpected number of unreachable logs, want 2, got %d", got)
	}
	if got := logs.FilterField(zap.Bool("cached", true)).Len(); got != 1 {
		t.Errorf("unexpected number of cached summaries, want 1, got %d", got)
	}
}
