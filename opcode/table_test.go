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

package opcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(st Machine, args uint64) (int, error) { return 0, nil }

func TestRegisterFixedRangeShape(t *testing.T) {
	tb := NewTable()
	tb.Register("ADD", 0xA0, 8, 0, noopHandler)
	tb.Finalize()

	instr, err := tb.Lookup(0xA0 << uint(PrefixBits-8))
	require.NoError(t, err)
	assert.Equal(t, "ADD", instr.Name)
	assert.Equal(t, 8, instr.OpcBits)
	assert.Equal(t, 0, instr.ArgBits)
}

func TestRegisterRangeCoversWholeInterval(t *testing.T) {
	tb := NewTable()
	tb.RegisterRange("THROW", 0xF2F0, 0xF2F6, 16, 6, noopHandler)
	tb.Finalize()

	for base := uint32(0xF2F0); base < 0xF2F6; base++ {
		prefix := base << uint(PrefixBits-16)
		instr, err := tb.Lookup(prefix)
		require.NoErrorf(t, err, "lookup base %x", base)
		assert.Equal(t, "THROW", instr.Name)
	}
}

func TestFinalizeFillsGapsWithDummy(t *testing.T) {
	tb := NewTable()
	tb.Register("NOP", 0x00, 8, 0, noopHandler)
	tb.Finalize()

	// 0x00 is NOP; everything else in the 8-bit-prefix slice up to the
	// next registered entry (there is none) should fall to inv_opcode.
	gap, err := tb.Lookup(0x01 << uint(PrefixBits-8))
	require.NoError(t, err)
	assert.Equal(t, "inv_opcode", gap.Name)
	assert.Equal(t, PrefixBits, gap.OpcBits)
	assert.NotNil(t, gap.Handler)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	tb := NewTable()
	tb.Register("NOP", 0x00, 8, 0, noopHandler)
	tb.Finalize()
	before := tb.Len()
	tb.Finalize()
	assert.Equal(t, before, tb.Len())
}

func TestRegisterAfterFinalizePanics(t *testing.T) {
	tb := NewTable()
	tb.Finalize()
	assert.Panics(t, func() {
		tb.Register("LATE", 0x00, 8, 0, noopHandler)
	})
}

func TestLookupBeforeFinalizeErrors(t *testing.T) {
	tb := NewTable()
	tb.Register("NOP", 0x00, 8, 0, noopHandler)
	_, err := tb.Lookup(0)
	require.Error(t, err)
}

func TestLookupTopOfPrefixSpaceResolves(t *testing.T) {
	tb := NewTable()
	tb.Register("NOP", 0x00, 4, 0, noopHandler)
	tb.Finalize()

	full := uint32(1) << uint(PrefixBits)
	_, err := tb.Lookup(full - 1)
	require.NoError(t, err, "top of prefix space should still resolve to the trailing dummy")
}
