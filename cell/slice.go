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
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/tonvm/tvm/bigint"
)

// ErrSliceUnderflow is returned by a fetch/skip primitive when the
// requested bits or refs exceed the slice's remaining window; the caller
// must never read uninitialized bits.
var ErrSliceUnderflow = errors.New("cell: slice underflow")

// Slice is a read cursor over a Cell's data+refs window. Slices are cheap
// to copy (New/Clone duplicate only the four window bounds, not cell
// contents); advancing the window mutates bitsSt/refsSt in place. The
// teacher's preloaded 64-bit fast-fetch cache (z/zd in spec) is omitted: it
// is a pure performance optimization with no effect on observable behavior,
// and every primitive here already satisfies the monotone-window and
// never-read-past-bounds invariants directly against the cell's backing
// bytes.
type Slice struct {
	cell    *Cell
	bitsSt  int
	bitsEn  int
	refsSt  int
	refsEn  int
}

// NewSlice returns a Slice covering all of c's data bits and refs.
func NewSlice(c *Cell) *Slice {
	return &Slice{cell: c, bitsSt: 0, bitsEn: c.dataBits, refsSt: 0, refsEn: len(c.refs)}
}

// Clone returns an independent copy of the cursor (same underlying cell).
func (s *Slice) Clone() *Slice {
	cp := *s
	return &cp
}

// Cell returns the underlying cell.
func (s *Slice) Cell() *Cell { return s.cell }

// BitsLeft returns the number of unread data bits.
func (s *Slice) BitsLeft() int { return s.bitsEn - s.bitsSt }

// RefsLeft returns the number of unread references.
func (s *Slice) RefsLeft() int { return s.refsEn - s.refsSt }

// Have reports whether at least n more data bits remain.
func (s *Slice) Have(n int) bool { return s.BitsLeft() >= n }

// HaveRefs reports whether at least n more references remain.
func (s *Slice) HaveRefs(n int) bool { return s.RefsLeft() >= n }

// advance drops n bits from the front of the window (internal helper; the
// public fetch primitives call this after validating n).
func (s *Slice) advance(n int) { s.bitsSt += n }

// FetchBits consumes and returns the next n data bits as a big-endian value
// (n <= 1023).
func (s *Slice) FetchBits(n int) (*big.Int, error) {
	v, err := s.PrefetchBits(n)
	if err != nil {
		return nil, err
	}
	s.advance(n)
	return v, nil
}

// PrefetchBits returns the next n data bits without consuming them.
func (s *Slice) PrefetchBits(n int) (*big.Int, error) {
	if n < 0 || n > MaxDataBits || !s.Have(n) {
		return nil, ErrSliceUnderflow
	}
	return extractBits(s.cell.data, s.bitsSt, n), nil
}

// FetchUint consumes the next n bits (n<=64) as an unsigned integer.
func (s *Slice) FetchUint(n int) (uint64, error) {
	if n > 64 {
		return 0, fmt.Errorf("cell: FetchUint width %d exceeds 64", n)
	}
	v, err := s.FetchBits(n)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// FetchInt consumes the next n bits (n<=64) as a two's-complement signed
// integer.
func (s *Slice) FetchInt(n int) (int64, error) {
	if n > 64 {
		return 0, fmt.Errorf("cell: FetchInt width %d exceeds 64", n)
	}
	v, err := s.FetchBits(n)
	if err != nil {
		return 0, err
	}
	if n > 0 && v.Bit(n-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(n)))
	}
	return v.Int64(), nil
}

// FetchInt256 consumes the next n bits (n<=257) as a bigint.Int257, signed
// or unsigned. The n==256 width is decoded through uint256.Int's Bytes32
// representation and bigint.FromUint256, the fixed-width counterpart of
// Builder.StoreInt257's n==256 encode path.
func (s *Slice) FetchInt256(n int, signed bool) (bigint.Int257, error) {
	if n > 257 {
		return bigint.Int257{}, fmt.Errorf("cell: FetchInt256 width %d exceeds 257", n)
	}
	if n == 256 {
		v, err := s.FetchBits(256)
		if err != nil {
			return bigint.Int257{}, err
		}
		var buf [32]byte
		v.FillBytes(buf[:])
		var u uint256.Int
		u.SetBytes(buf[:])
		return bigint.FromUint256(&u, signed), nil
	}
	v, err := s.FetchBits(n)
	if err != nil {
		return bigint.Int257{}, err
	}
	if signed && n > 0 && v.Bit(n-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(n)))
	}
	return bigint.FromBig(v), nil
}

// FetchRef consumes and returns the next child reference.
func (s *Slice) FetchRef() (*Cell, error) {
	if !s.HaveRefs(1) {
		return nil, ErrSliceUnderflow
	}
	c := s.cell.refs[s.refsSt]
	s.refsSt++
	return c, nil
}

// FetchMaybeRef consumes a 1-bit Maybe tag, then the reference if the tag
// was set; returns (nil, nil) when the tag was clear.
func (s *Slice) FetchMaybeRef() (*Cell, error) {
	tag, err := s.FetchUint(1)
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}
	return s.FetchRef()
}

// FetchSubslice returns a new, independent Slice over the next bits data
// bits and refs references of s, consuming them from s.
func (s *Slice) FetchSubslice(bits, refs int) (*Slice, error) {
	if !s.Have(bits) || !s.HaveRefs(refs) {
		return nil, ErrSliceUnderflow
	}
	sub := &Slice{
		cell:   s.cell,
		bitsSt: s.bitsSt,
		bitsEn: s.bitsSt + bits,
		refsSt: s.refsSt,
		refsEn: s.refsSt + refs,
	}
	s.bitsSt += bits
	s.refsSt += refs
	return sub, nil
}

// SkipFirst drops the first n bits from the window.
func (s *Slice) SkipFirst(n int) error {
	if !s.Have(n) {
		return ErrSliceUnderflow
	}
	s.bitsSt += n
	return nil
}

// SkipLast drops the last n bits from the window.
func (s *Slice) SkipLast(n int) error {
	if !s.Have(n) {
		return ErrSliceUnderflow
	}
	s.bitsEn -= n
	return nil
}

// OnlyFirst restricts the window to its first n bits.
func (s *Slice) OnlyFirst(n int) error {
	if !s.Have(n) {
		return ErrSliceUnderflow
	}
	s.bitsEn = s.bitsSt + n
	return nil
}

// OnlyLast restricts the window to its last n bits.
func (s *Slice) OnlyLast(n int) error {
	if !s.Have(n) {
		return ErrSliceUnderflow
	}
	s.bitsSt = s.bitsEn - n
	return nil
}

// CountLeading returns the number of consecutive bits equal to bit (0 or 1)
// starting from the front of the window.
func (s *Slice) CountLeading(bit int) int {
	n := 0
	for i := s.bitsSt; i < s.bitsEn; i++ {
		if bitAt(s.cell.data, i) != bit {
			break
		}
		n++
	}
	return n
}

// CountTrailing returns the number of consecutive bits equal to bit (0 or
// 1) ending at the back of the window.
func (s *Slice) CountTrailing(bit int) int {
	n := 0
	for i := s.bitsEn - 1; i >= s.bitsSt; i-- {
		if bitAt(s.cell.data, i) != bit {
			break
		}
		n++
	}
	return n
}

// RemoveTrailing trims trailing zero-bit padding followed by the single
// terminator '1' bit used by completion-encoded slices (as produced by
// PUSHSLICE-family opcodes over sub-byte-aligned data).
func (s *Slice) RemoveTrailing() error {
	trailingZeros := s.CountTrailing(0)
	if trailingZeros >= s.BitsLeft() {
		return fmt.Errorf("cell: no terminator bit found while removing trailing padding")
	}
	return s.SkipLast(trailingZeros + 1)
}
