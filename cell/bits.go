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

import "math/big"

// Bits are packed MSB-first within each byte, matching the TON cell-data
// bitstream convention (the first bit fetched from a slice is the most
// significant bit of the result), confirmed against
// crypto/vm/cells/CellSlice.cpp's fetch_ulong (z >> (64-bits)).

// bitAt returns the bit at position idx (0 = first/most-significant bit of
// the buffer) within data.
func bitAt(data []byte, idx int) int {
	byteIdx := idx / 8
	bitIdx := 7 - uint(idx%8)
	return int((data[byteIdx] >> bitIdx) & 1)
}

// setBit sets the bit at position idx within data (which must already be
// sized to hold it) to v (0 or 1).
func setBit(data []byte, idx int, v int) {
	byteIdx := idx / 8
	bitIdx := 7 - uint(idx%8)
	if v != 0 {
		data[byteIdx] |= 1 << bitIdx
	} else {
		data[byteIdx] &^= 1 << bitIdx
	}
}

// bytesForBits returns the number of bytes needed to hold n packed bits.
func bytesForBits(n int) int { return (n + 7) / 8 }

// extractBits returns the n bits starting at offset off within data as a
// big-endian unsigned big.Int (the first extracted bit is the most
// significant bit of the result).
func extractBits(data []byte, off, n int) *big.Int {
	r := new(big.Int)
	for i := 0; i < n; i++ {
		r.Lsh(r, 1)
		if bitAt(data, off+i) != 0 {
			r.Or(r, big.NewInt(1))
		}
	}
	return r
}

// appendBitsBig appends the low n bits of v (big-endian: v's bit n-1 is
// written first) to dst, which already holds dstBits valid bits and has
// enough backing capacity. Returns the new data slice and bit count.
func appendBitsBig(dst []byte, dstBits int, v *big.Int, n int) ([]byte, int) {
	needed := bytesForBits(dstBits + n)
	if len(dst) < needed {
		grown := make([]byte, needed)
		copy(grown, dst)
		dst = grown
	}
	for i := n - 1; i >= 0; i-- {
		setBit(dst, dstBits, int(v.Bit(i)))
		dstBits++
	}
	return dst, dstBits
}

// appendBitRange copies n bits starting at offset srcOff of src onto dst
// (which holds dstBits valid bits), returning the updated slice/length.
func appendBitRange(dst []byte, dstBits int, src []byte, srcOff, n int) ([]byte, int) {
	needed := bytesForBits(dstBits + n)
	if len(dst) < needed {
		grown := make([]byte, needed)
		copy(grown, dst)
		dst = grown
	}
	for i := 0; i < n; i++ {
		setBit(dst, dstBits, bitAt(src, srcOff+i))
		dstBits++
	}
	return dst, dstBits
}
