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
	"github.com/Fantom-foundation/Stackcheck/go/aseba"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheConfig configures the result cache of a CachingVerifier.
type CacheConfig struct {
	// CacheSize is the maximum number of cached results. If set to 0, a
	// default size is used. If negative, no cache is used.
	CacheSize int
}

const defaultCacheSize = 1 << 10

// CachingVerifier is a Verifier retaining the results of previous runs. It is
// intended for compiler drivers re-verifying mostly unchanged programs, e.g.
// during incremental recompilation. Results are keyed by the content hash of
// the unit table and the budget.
type CachingVerifier struct {
	verifier *Verifier
	cache    *lru.Cache[cacheKey, *Result]
}

type cacheKey struct {
	hash   aseba.Hash
	budget uint
}

var _ aseba.Verifier = (*CachingVerifier)(nil)

// NewCachingVerifier creates a verifier with the given configuration backed by
// a result cache.
func NewCachingVerifier(config Config, cacheConfig CacheConfig) (*CachingVerifier, error) {
	if cacheConfig.CacheSize == 0 {
		cacheConfig.CacheSize = defaultCacheSize
	}

	var cache *lru.Cache[cacheKey, *Result]
	if cacheConfig.CacheSize > 0 {
		var err error
		cache, err = lru.New[cacheKey, *Result](cacheConfig.CacheSize)
		if err != nil {
			return nil, err
		}
	}
	return &CachingVerifier{
		verifier: NewVerifier(config),
		cache:    cache,
	}, nil
}

// Verify checks the table against the budget; see Verifier.Verify.
func (c *CachingVerifier) Verify(table *aseba.UnitTable, budget uint) (bool, error) {
	res, err := c.Check(table, budget)
	if err != nil {
		return false, err
	}
	return res.Passed(), nil
}

// Check verifies the table against the budget, reusing a cached result for a
// table of identical content. On a cache hit the call depths of the table are
// set to the cached final depths and the result is logged again, but the
// observer is not notified since no propagation takes place. Failing runs due
// to tool chain errors are not cached.
func (c *CachingVerifier) Check(table *aseba.UnitTable, budget uint) (*Result, error) {
	if c.cache == nil {
		return c.verifier.Check(table, budget)
	}

	key := cacheKey{hash: table.Hash(), budget: budget}
	if cached, exists := c.cache.Get(key); exists {
		res := cached.withNames(table)
		for id, depth := range res.Depths {
			table.Subroutines[id].CallDepth = depth
		}
		c.verifier.logResult(table, res, true)
		return res, nil
	}

	res, err := c.verifier.Check(table, budget)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, res.clone())
	return res, nil
}

// Purge drops all cached results.
func (c *CachingVerifier) Purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// Len returns the number of cached results.
func (c *CachingVerifier) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}
