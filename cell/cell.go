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

// Package cell implements the VM's content-addressed Merkle DAG: immutable
// Cells (up to 1023 data bits, 0-4 child refs), the mutable Builder that
// constructs them, and the read-cursor Slice used by opcode handlers. The
// bit-stream convention (big-endian: the first bit fetched from a slice is
// the most significant bit of the decoded value) is grounded on
// crypto/vm/cells/CellSlice.cpp's fetch_ulong in original_source.
package cell

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// MaxDataBits is the maximum number of data bits a single cell may hold.
const MaxDataBits = 1023

// MaxRefs is the maximum number of child references a single cell may hold.
const MaxRefs = 4

// SpecialType tags a cell whose contents have a reserved meaning beyond
// plain data+refs.
type SpecialType uint8

const (
	// Ordinary cells carry no special meaning.
	Ordinary SpecialType = iota
	// PrunedBranch stands in for a subtree not materialized locally; it
	// carries only a level mask and per-level hashes.
	PrunedBranch
	// LibraryCell's data is an 8-bit tag followed by a 256-bit hash that
	// must be resolved through the host's library table.
	LibraryCell
	// MerkleProof wraps a single child whose hash is asserted without the
	// full subtree being present.
	MerkleProof
	// MerkleUpdate wraps two children representing before/after states of
	// a Merkle-proved subtree.
	MerkleUpdate
)

// ErrTooManyBits is returned when a Builder write would exceed MaxDataBits.
var ErrTooManyBits = errors.New("cell: data bit limit exceeded")

// ErrTooManyRefs is returned when a Builder write would exceed MaxRefs.
var ErrTooManyRefs = errors.New("cell: reference limit exceeded")

// Cell is an immutable node in the VM's Merkle DAG. Equal contents always
// produce an equal Hash (content addressing); once returned by
// Builder.Finalize a Cell's contents never change.
type Cell struct {
	data      []byte
	dataBits  int
	refs      []*Cell
	levelMask uint8
	special   SpecialType
	hash      Hash
}

// BitLen returns the number of valid data bits in the cell.
func (c *Cell) BitLen() int { return c.dataBits }

// RefsCount returns the number of child references.
func (c *Cell) RefsCount() int { return len(c.refs) }

// Ref returns the i-th child reference.
func (c *Cell) Ref(i int) *Cell { return c.refs[i] }

// LevelMask returns the cell's level mask (0 for ordinary cells with no
// pruned/merkle ancestry).
func (c *Cell) LevelMask() uint8 { return c.levelMask }

// Special reports the cell's special tag (Ordinary for plain data cells).
func (c *Cell) Special() SpecialType { return c.special }

// IsSpecial reports whether the cell carries any non-Ordinary tag.
func (c *Cell) IsSpecial() bool { return c.special != Ordinary }

// Hash returns the cell's 256-bit structural hash, computed once at
// Finalize time and cached thereafter.
func (c *Cell) Hash() Hash { return c.hash }

// Depth returns the cell's Merkle depth: 0 for a leaf, else 1 + the
// maximum depth among its children. Used to enforce max_data_depth on
// commit of c4/c5.
func (c *Cell) Depth() int {
	d := 0
	for _, r := range c.refs {
		if rd := r.Depth(); rd+1 > d {
			d = rd + 1
		}
	}
	return d
}

// computeHash derives the structural hash from data bits, special tag, and
// child hashes, the way a content-addressed cell store must: identical
// content always yields an identical hash regardless of allocation history.
// Grounded on Cell.Hash() being an external collaborator per spec.md §1
// ("consumed only via a Cell::hash() contract"); this is our in-module
// implementation of that contract, using SHA3-256 (golang.org/x/crypto,
// already a teacher dependency) rather than TON's real Keccak/CRC-based
// scheme, since the exact upstream hash algorithm is out of scope.
func computeHash(dataBits int, data []byte, special SpecialType, refs []*Cell) Hash {
	h := sha3.New256()
	h.Write([]byte{byte(special)})
	var lenBuf [4]byte
	lenBuf[0] = byte(dataBits >> 24)
	lenBuf[1] = byte(dataBits >> 16)
	lenBuf[2] = byte(dataBits >> 8)
	lenBuf[3] = byte(dataBits)
	h.Write(lenBuf[:])
	h.Write(data[:bytesForBits(dataBits)])
	h.Write([]byte{byte(len(refs))})
	for _, r := range refs {
		rh := r.Hash()
		h.Write(rh[:])
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// String renders a short debug form: hash prefix, bit count, ref count.
func (c *Cell) String() string {
	return fmt.Sprintf("Cell{hash=%s bits=%d refs=%d}", c.Hash().Hex()[:10], c.dataBits, len(c.refs))
}
