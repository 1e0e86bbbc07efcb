// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

package cell

import (
	"sync"

	"github.com/VictoriaMetrics/fastcache"
)

// defaultPoolBytes bounds the interning cache's memory footprint; cells
// themselves stay alive as long as any Go value references them; the cache
// only accelerates re-discovering an already-finalized cell with the same
// hash so identical subtrees built twice share one *Cell.
const defaultPoolBytes = 16 * 1024 * 1024

// Pool interns finalized cells by hash so that equal-content cells built at
// different times become the same shared *Cell value, matching the "cells
// are shared (reference-counted or arena-interned)" requirement in spec.
// Backed by VictoriaMetrics/fastcache for the probabilistic fast path (a
// bounded-memory hash->offset index) plus an authoritative map for the
// actual *Cell pointers, since fastcache only stores byte values and cannot
// hold live Go pointers across its internal chunked arena.
type Pool struct {
	mu    sync.RWMutex
	cache *fastcache.Cache
	cells map[Hash]*Cell
}

// NewPool creates an interning pool with a fastcache-backed membership
// index sized to maxBytes (0 selects defaultPoolBytes).
func NewPool(maxBytes int) *Pool {
	if maxBytes <= 0 {
		maxBytes = defaultPoolBytes
	}
	return &Pool{
		cache: fastcache.New(maxBytes),
		cells: make(map[Hash]*Cell),
	}
}

// Intern returns the canonical *Cell for c's hash: if an equal cell was
// already interned, that shared pointer is returned and c is discarded;
// otherwise c itself becomes the canonical instance.
func (p *Pool) Intern(c *Cell) *Cell {
	h := c.Hash()
	p.mu.RLock()
	if existing, ok := p.cells[h]; ok {
		p.mu.RUnlock()
		return existing
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.cells[h]; ok {
		return existing
	}
	p.cells[h] = c
	p.cache.Set(h[:], []byte{1})
	return c
}

// Lookup reports whether a cell with the given hash has been interned in
// this pool, using the fastcache membership check before falling back to
// the authoritative map (mirrors go-ethereum's bloom-then-map pattern for
// cheap negative lookups).
func (p *Pool) Lookup(h Hash) (*Cell, bool) {
	if !p.cache.Has(h[:]) {
		return nil, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.cells[h]
	return c, ok
}

// Len returns the number of distinct cells currently interned.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cells)
}
