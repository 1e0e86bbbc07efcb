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

import "encoding/hex"

// HashLength is the length in bytes of a cell's structural hash.
const HashLength = 32

// Hash is the 32-byte structural hash that gives a Cell its identity: equal
// contents (data bits, special tag, and child hashes) always
// hash equal, and cells are shared/interned by this value. Grounded on the
// teacher's common.Hash ([32]byte with Bytes/Hex/SetBytes helpers), trimmed
// to the subset the VM core needs (no Address/bech32 concerns here).
type Hash [HashLength]byte

// BytesToHash sets h from b, left-padding or cropping as needed.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// Bytes returns the byte slice view of h.
func (h Hash) Bytes() []byte { return h[:] }

// Hex renders h as a 0x-prefixed hex string.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }
