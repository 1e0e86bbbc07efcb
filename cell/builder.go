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
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/tonvm/tvm/bigint"
)

// Builder is a mutable write buffer that accumulates up to MaxDataBits data
// bits and MaxRefs child references before being frozen by Finalize into an
// immutable, content-addressed Cell. The zero value is a ready-to-use empty
// builder.
type Builder struct {
	data     []byte
	dataBits int
	refs     []*Cell
	special  SpecialType
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// BitsUsed returns the number of data bits written so far.
func (b *Builder) BitsUsed() int { return b.dataBits }

// RefsUsed returns the number of references written so far.
func (b *Builder) RefsUsed() int { return len(b.refs) }

// BitsFree returns how many more data bits can be written.
func (b *Builder) BitsFree() int { return MaxDataBits - b.dataBits }

// RefsFree returns how many more references can be written.
func (b *Builder) RefsFree() int { return MaxRefs - len(b.refs) }

// CanExtendBy reports whether bits more data bits and refs more references
// would still fit within the cell limits.
func (b *Builder) CanExtendBy(bits, refs int) bool {
	return b.dataBits+bits <= MaxDataBits && len(b.refs)+refs <= MaxRefs
}

// MarkSpecial tags the cell under construction with a non-Ordinary type;
// used by the rare opcodes that synthesize pruned-branch/library/merkle
// cells directly (most program-visible cell construction is Ordinary).
func (b *Builder) MarkSpecial(t SpecialType) { b.special = t }

// StoreBits appends n bits (big-endian: bit n-1 of v is written first) of v.
func (b *Builder) StoreBits(v *big.Int, n int) error {
	if !b.CanExtendBy(n, 0) {
		return ErrTooManyBits
	}
	b.data, b.dataBits = appendBitsBig(b.data, b.dataBits, v, n)
	return nil
}

// StoreUint appends the low n bits (n<=64) of v as an unsigned field.
func (b *Builder) StoreUint(v uint64, n int) error {
	if n > 64 || n < 0 {
		return fmt.Errorf("cell: StoreUint width %d out of [0,64]", n)
	}
	return b.StoreBits(new(big.Int).SetUint64(v), n)
}

// StoreInt appends the low n bits (n<=64) of v as a two's-complement signed
// field.
func (b *Builder) StoreInt(v int64, n int) error {
	if n > 64 || n < 0 {
		return fmt.Errorf("cell: StoreInt width %d out of [0,64]", n)
	}
	bi := big.NewInt(v)
	if v < 0 {
		bi.Add(bi, new(big.Int).Lsh(big.NewInt(1), uint(n)))
	}
	return b.StoreBits(bi, n)
}

// StoreInt257 appends x as an n-bit field (n<=257), signed or unsigned, the
// way STU/STI and friends serialize stack integers into a cell. The
// all-but-universal n==256 width (hashes, addresses, full machine words)
// is routed through uint256.Int's fixed-width Bytes32 representation
// rather than math/big's variable-length one, the same width holiman's
// uint256 package is built around.
func (b *Builder) StoreInt257(x bigint.Int257, n int, signed bool) error {
	if x.IsNaN() {
		return fmt.Errorf("cell: cannot store NaN integer")
	}
	if signed {
		if !x.SignedFitsBits(uint(n)) {
			return fmt.Errorf("cell: value does not fit in %d signed bits", n)
		}
	} else if !x.UnsignedFitsBits(uint(n)) {
		return fmt.Errorf("cell: value does not fit in %d unsigned bits", n)
	}
	if n == 256 {
		var u uint256.Int
		var ok bool
		if signed {
			u, ok = bigint.ToUint256TwosComplement(x, 256)
		} else {
			u, ok = x.ToUint256()
		}
		if !ok {
			return fmt.Errorf("cell: value does not fit in a 256-bit word")
		}
		word := u.Bytes32()
		return b.StoreBits(new(big.Int).SetBytes(word[:]), 256)
	}
	v := x.Big()
	if v.Sign() < 0 {
		v.Add(v, new(big.Int).Lsh(big.NewInt(1), uint(n)))
	}
	return b.StoreBits(v, n)
}

// StoreRef appends a child reference.
func (b *Builder) StoreRef(c *Cell) error {
	if !b.CanExtendBy(0, 1) {
		return ErrTooManyRefs
	}
	b.refs = append(b.refs, c)
	return nil
}

// StoreMaybeRef writes a 1-bit Maybe tag, then the reference if present.
func (b *Builder) StoreMaybeRef(c *Cell) error {
	if c == nil {
		return b.StoreUint(0, 1)
	}
	if !b.CanExtendBy(1, 1) {
		return ErrTooManyBits
	}
	if err := b.StoreUint(1, 1); err != nil {
		return err
	}
	return b.StoreRef(c)
}

// StoreBuilder appends all of other's data bits and references onto b
// ("append_builder" in spec).
func (b *Builder) StoreBuilder(other *Builder) error {
	if !b.CanExtendBy(other.dataBits, len(other.refs)) {
		return ErrTooManyBits
	}
	b.data, b.dataBits = appendBitRange(b.data, b.dataBits, other.data, 0, other.dataBits)
	b.refs = append(b.refs, other.refs...)
	return nil
}

// StoreSlice appends the remaining data bits and refs of s onto b.
func (b *Builder) StoreSlice(s *Slice) error {
	remBits := s.BitsLeft()
	remRefs := s.RefsLeft()
	if !b.CanExtendBy(remBits, remRefs) {
		return ErrTooManyBits
	}
	b.data, b.dataBits = appendBitRange(b.data, b.dataBits, s.cell.data, s.bitsSt, remBits)
	for i := s.refsSt; i < s.refsEn; i++ {
		b.refs = append(b.refs, s.cell.refs[i])
	}
	return nil
}

// defaultPool is the process-wide interning pool every Finalize call runs
// its result through, so two builders that happen to produce
// byte-identical cells end up sharing one *Cell instance rather than two
// equal-but-distinct ones, the same dedup Pool documents as its purpose.
var defaultPool = NewPool(0)

// Finalize freezes the builder's contents into a new immutable Cell,
// fixes its hash, and interns it through the package's default Pool so
// that repeated construction of an identical cell (a very common
// occurrence for small/empty cells like Maybe-tag-clear dictionary slots)
// converges on one shared pointer. The builder itself remains usable for
// further writes (Finalize does not consume it), mirroring the teacher's
// Memory.Alloc pattern of returning a handle while leaving the allocator
// object intact.
func (b *Builder) Finalize() *Cell {
	data := make([]byte, bytesForBits(b.dataBits))
	copy(data, b.data)
	refs := make([]*Cell, len(b.refs))
	copy(refs, b.refs)
	c := &Cell{
		data:     data,
		dataBits: b.dataBits,
		refs:     refs,
		special:  b.special,
	}
	c.hash = computeHash(c.dataBits, c.data, c.special, c.refs)
	return defaultPool.Intern(c)
}

// Clone returns a deep-enough copy of b (data/refs slices are copied; the
// referenced child Cells are shared, since Cells are immutable).
func (b *Builder) Clone() *Builder {
	nb := &Builder{dataBits: b.dataBits, special: b.special}
	nb.data = make([]byte, len(b.data))
	copy(nb.data, b.data)
	nb.refs = make([]*Cell, len(b.refs))
	copy(nb.refs, b.refs)
	return nb
}
