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

// Package dictmap implements a PATRICIA-trie dictionary over cells, the
// Go-side counterpart of TON's HashmapE n X: a map from fixed-width bit
// keys to arbitrary cell-encoded values, itself stored as a tree of cells
// so that two dictionaries with the same contents hash identically. Used
// by the continuation control-register save lists (VmSaveList = HashmapE 4
// VmStackValue) and by the DICT-family opcodes.
//
// Node encoding (label-compressed binary trie, "hml_same/hml_long"-style
// label simplified to a plain bit-prefix since keyBits is always small
// here):
//
//	leaf:  label (remaining key bits) ++ value bits/refs
//	fork:  label ++ 1 ref (left, label bit 0) ++ 1 ref (right, label bit 1)
//
// Every node stores its own label length as a single byte prefix so
// Get/Iterate know how many label bits to read (and so how many of the
// key's bits the node consumes) without threading extra state through the
// recursion.
package dictmap

import (
	"fmt"

	"github.com/tonvm/tvm/cell"
)

// Map is an immutable PATRICIA dictionary: Set/Delete return a new Map
// sharing unaffected subtrees with the original, the way Cells themselves
// are immutable and shared.
type Map struct {
	keyBits int
	root    *cell.Cell // nil means empty
}

// Empty returns an empty dictionary over keyBits-wide keys.
func Empty(keyBits int) *Map {
	return &Map{keyBits: keyBits}
}

// FromRoot wraps an already-built root cell (e.g. fetched from a HashmapE
// Maybe-ref) as a Map over keyBits-wide keys.
func FromRoot(keyBits int, root *cell.Cell) *Map {
	return &Map{keyBits: keyBits, root: root}
}

// KeyBits returns the fixed key width this dictionary was built for.
func (m *Map) KeyBits() int { return m.keyBits }

// Root returns the underlying cell tree, or nil if the dictionary is
// empty (the HashmapE "nothing" case).
func (m *Map) Root() *cell.Cell { return m.root }

// IsEmpty reports whether the dictionary holds no entries.
func (m *Map) IsEmpty() bool { return m.root == nil }

func keyBitsOf(key uint64, n int) []int {
	bits := make([]int, n)
	for i := 0; i < n; i++ {
		bits[i] = int((key >> uint(n-1-i)) & 1)
	}
	return bits
}

// Get looks up key (the low keyBits bits are significant) and returns its
// value slice, or ok=false if absent.
func (m *Map) Get(key uint64) (value *cell.Slice, ok bool) {
	if m.root == nil {
		return nil, false
	}
	bits := keyBitsOf(key, m.keyBits)
	return get(m.root, bits)
}

func get(c *cell.Cell, bits []int) (*cell.Slice, bool) {
	s := cell.NewSlice(c)
	label, err := fetchLabel(s, len(bits))
	if err != nil {
		return nil, false
	}
	if len(label) > len(bits) || !prefixEqual(label, bits) {
		return nil, false
	}
	rest := bits[len(label):]
	if len(rest) == 0 {
		return s, true
	}
	ref, err := s.FetchRef()
	if err != nil {
		return nil, false
	}
	child, err := pickChild(s, ref, rest[0])
	if err != nil {
		return nil, false
	}
	return get(child, rest[1:])
}

// pickChild re-derives the two children of a fork node: the first ref
// already fetched (ref) is the left (bit 0) child; the remaining ref in s
// is the right (bit 1) child.
func pickChild(s *cell.Slice, firstRef *cell.Cell, bit int) (*cell.Cell, error) {
	if bit == 0 {
		return firstRef, nil
	}
	return s.FetchRef()
}

func prefixEqual(label, bits []int) bool {
	for i, b := range label {
		if bits[i] != b {
			return false
		}
	}
	return true
}

// fetchLabel reads this node's stored label-length byte followed
// by that many label bits, not consuming more than maxLen bits (a
// malformed/foreign cell can never desync the trie beyond the key width).
func fetchLabel(s *cell.Slice, maxLen int) ([]int, error) {
	n, err := s.FetchUint(8)
	if err != nil {
		return nil, err
	}
	if int(n) > maxLen {
		return nil, fmt.Errorf("dictmap: label length %d exceeds remaining key width %d", n, maxLen)
	}
	label := make([]int, n)
	for i := range label {
		bit, err := s.FetchUint(1)
		if err != nil {
			return nil, err
		}
		label[i] = int(bit)
	}
	return label, nil
}

// Set returns a new Map with key bound to value (by reference: the
// Builder's current contents are copied in, not finalized independently),
// replacing any existing binding for key.
func (m *Map) Set(key uint64, value *cell.Builder) (*Map, error) {
	bits := keyBitsOf(key, m.keyBits)
	newRoot, err := set(m.root, bits, value)
	if err != nil {
		return nil, err
	}
	return &Map{keyBits: m.keyBits, root: newRoot}, nil
}

func set(c *cell.Cell, bits []int, value *cell.Builder) (*cell.Cell, error) {
	if c == nil {
		return buildLeaf(bits, value)
	}
	s := cell.NewSlice(c)
	label, err := fetchLabel(s, len(bits))
	if err != nil {
		return nil, err
	}

	common := commonPrefixLen(label, bits)
	switch {
	case common == len(label) && common == len(bits):
		// Exact match: replace this leaf's value, keep the label.
		return buildLeaf(bits, value)

	case common == len(label):
		// label is a full prefix of bits: descend into the fork (or
		// turn this leaf into a fork if it is shorter than keyBits).
		rest := bits[common:]
		left, right, err := splitChildren(s, len(label) == len(bits))
		if err != nil {
			return nil, err
		}
		return setFork(label, rest, left, right, value)

	default:
		// Diverges partway through the shared label: split into a new
		// fork at the divergence point, with the old subtree on one
		// side and the new leaf on the other.
		return splitAt(label, bits, common, s, value)
	}
}

// depthOfBits returns len(bits), the number of key bits still to be
// matched.
func (m *Map) depthOfBits(bits []int) int { return len(bits) }

func commonPrefixLen(a, b []int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// splitChildren re-reads a fork node's two children (an existing node is
// only ever a pure leaf with no remaining bits, or a fork with exactly 2
// refs; onlyLeaf reports which shape applied). A leaf's refs, if any,
// belong to its value and are left in s.
func splitChildren(s *cell.Slice, onlyLeaf bool) (left, right *cell.Cell, err error) {
	if onlyLeaf {
		return nil, nil, nil // pure leaf, no children
	}
	left, err = s.FetchRef()
	if err != nil {
		return nil, nil, err
	}
	right, err = s.FetchRef()
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func setFork(label, rest []int, left, right *cell.Cell, value *cell.Builder) (*cell.Cell, error) {
	if len(rest) == 0 {
		// label consumed exactly the requested key: this becomes a
		// pure leaf regardless of prior children.
		return buildLeaf(label, value)
	}
	var err error
	if rest[0] == 0 {
		left, err = set(left, rest[1:], value)
	} else {
		right, err = set(right, rest[1:], value)
	}
	if err != nil {
		return nil, err
	}
	b := cell.NewBuilder()
	if err := storeLabel(b, label); err != nil {
		return nil, err
	}
	if err := b.StoreRef(left); err != nil {
		return nil, err
	}
	if err := b.StoreRef(right); err != nil {
		return nil, err
	}
	return b.Finalize(), nil
}

func splitAt(oldLabel, bits []int, common int, oldNode *cell.Slice, value *cell.Builder) (*cell.Cell, error) {
	sharedLabel := oldLabel[:common]
	oldRest := oldLabel[common:]
	newRest := bits[common:]

	oldLeft, oldRight, err := splitChildren(oldNode, len(oldLabel) == len(bits))
	if err != nil {
		return nil, err
	}
	oldSubtree, err := rebuildFrom(oldRest[1:], oldLeft, oldRight, oldNode)
	if err != nil {
		return nil, err
	}
	newLeaf, err := buildLeaf(newRest[1:], value)
	if err != nil {
		return nil, err
	}

	var left, right *cell.Cell
	if newRest[0] == 0 {
		left, right = newLeaf, oldSubtree
	} else {
		left, right = oldSubtree, newLeaf
	}
	b := cell.NewBuilder()
	if err := storeLabel(b, sharedLabel); err != nil {
		return nil, err
	}
	if err := b.StoreRef(left); err != nil {
		return nil, err
	}
	if err := b.StoreRef(right); err != nil {
		return nil, err
	}
	return b.Finalize(), nil
}

// rebuildFrom re-serializes the unconsumed remainder of an existing node
// (label oldRest, plus its original children/value bits still sitting in
// oldNode) as a standalone cell reachable from the new split point.
func rebuildFrom(oldRest []int, left, right *cell.Cell, oldNode *cell.Slice) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := storeLabel(b, oldRest); err != nil {
		return nil, err
	}
	if left != nil || right != nil {
		if err := b.StoreRef(left); err != nil {
			return nil, err
		}
		if err := b.StoreRef(right); err != nil {
			return nil, err
		}
	}
	if err := b.StoreSlice(oldNode); err != nil {
		return nil, err
	}
	return b.Finalize(), nil
}

func buildLeaf(label []int, value *cell.Builder) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := storeLabel(b, label); err != nil {
		return nil, err
	}
	if value != nil {
		if err := b.StoreBuilder(value); err != nil {
			return nil, err
		}
	}
	return b.Finalize(), nil
}

func storeLabel(b *cell.Builder, label []int) error {
	if err := b.StoreUint(uint64(len(label)), 8); err != nil {
		return err
	}
	for _, bit := range label {
		if err := b.StoreUint(uint64(bit), 1); err != nil {
			return err
		}
	}
	return nil
}

// Delete returns a new Map with key removed, or ok=false if key was not
// present (in which case the returned Map is a no-op copy of m).
func (m *Map) Delete(key uint64) (out *Map, ok bool, err error) {
	if m.root == nil {
		return m, false, nil
	}
	bits := keyBitsOf(key, m.keyBits)
	newRoot, deleted, err := del(m.root, bits)
	if err != nil {
		return nil, false, err
	}
	if !deleted {
		return m, false, nil
	}
	return &Map{keyBits: m.keyBits, root: newRoot}, true, nil
}

func del(c *cell.Cell, bits []int) (*cell.Cell, bool, error) {
	s := cell.NewSlice(c)
	label, err := fetchLabel(s, len(bits))
	if err != nil {
		return nil, false, err
	}
	if !prefixEqual(label, bits) {
		return c, false, nil
	}
	rest := bits[len(label):]
	if len(rest) == 0 {
		return nil, true, nil
	}
	left, right, err := splitChildren(s, false)
	if err != nil {
		return nil, false, err
	}
	var deleted bool
	if rest[0] == 0 {
		left, deleted, err = del(left, rest[1:])
	} else {
		right, deleted, err = del(right, rest[1:])
	}
	if err != nil || !deleted {
		return c, deleted, err
	}
	if left == nil && right == nil {
		return nil, true, nil
	}
	if left == nil || right == nil {
		// One branch collapsed entirely: splice the surviving child up,
		// merging labels the way a PATRICIA trie prunes single-child
		// forks.
		survivor := left
		bit := 0
		if survivor == nil {
			survivor = right
			bit = 1
		}
		sv := cell.NewSlice(survivor)
		childLabel, err := fetchLabel(sv, len(bits)-len(label)-1)
		if err != nil {
			return nil, false, err
		}
		merged := append(append(append([]int{}, label...), bit), childLabel...)
		b := cell.NewBuilder()
		if err := storeLabel(b, merged); err != nil {
			return nil, false, err
		}
		if err := b.StoreSlice(sv); err != nil {
			return nil, false, err
		}
		return b.Finalize(), true, nil
	}
	b := cell.NewBuilder()
	if err := storeLabel(b, label); err != nil {
		return nil, false, err
	}
	if err := b.StoreRef(left); err != nil {
		return nil, false, err
	}
	if err := b.StoreRef(right); err != nil {
		return nil, false, err
	}
	return b.Finalize(), true, nil
}

// Entry is one (key, value) pair yielded by Iterate.
type Entry struct {
	Key   uint64
	Value *cell.Slice
}

// Iterate calls visit for every entry in ascending key order, stopping
// early if visit returns false.
func (m *Map) Iterate(visit func(Entry) bool) {
	if m.root == nil {
		return
	}
	iterate(m.root, nil, m.keyBits, visit)
}

func iterate(c *cell.Cell, prefix []int, keyBits int, visit func(Entry) bool) bool {
	s := cell.NewSlice(c)
	label, err := fetchLabel(s, keyBits-len(prefix))
	if err != nil {
		return true
	}
	full := append(append([]int{}, prefix...), label...)
	if len(full) == keyBits {
		return visit(Entry{Key: bitsToKey(full), Value: s})
	}
	left, right, err := splitChildren(s, false)
	if err != nil {
		return true
	}
	if left != nil {
		if !iterate(left, append(full, 0), keyBits, visit) {
			return false
		}
	}
	if right != nil {
		if !iterate(right, append(full, 1), keyBits, visit) {
			return false
		}
	}
	return true
}

func bitsToKey(bits []int) uint64 {
	var key uint64
	for _, b := range bits {
		key = key<<1 | uint64(b)
	}
	return key
}
