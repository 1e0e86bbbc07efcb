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

package dictmap

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tonvm/tvm/cell"
)

func newValueBuilder(k uint64) *cell.Builder {
	b := cell.NewBuilder()
	_ = b.StoreUint(k, 16)
	return b
}

func TestSetGetRoundTrip(t *testing.T) {
	m := Empty(8)
	var err error
	for _, k := range []uint64{0, 1, 5, 255, 128, 17} {
		m, err = m.Set(k, newValueBuilder(k))
		if err != nil {
			t.Fatalf("Set(%d): %v", k, err)
		}
	}
	for _, k := range []uint64{0, 1, 5, 255, 128, 17} {
		s, ok := m.Get(k)
		if !ok {
			t.Fatalf("Get(%d): not found", k)
		}
		got, err := s.FetchUint(16)
		if err != nil {
			t.Fatalf("Get(%d): decode: %v", k, err)
		}
		if got != k {
			t.Fatalf("Get(%d): got %d", k, got)
		}
	}
	if _, ok := m.Get(200); ok {
		t.Fatalf("Get(200): expected absent")
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	m := Empty(8)
	var err error
	for _, k := range []uint64{3, 9, 200} {
		m, err = m.Set(k, newValueBuilder(k))
		if err != nil {
			t.Fatalf("Set(%d): %v", k, err)
		}
	}
	m2, ok, err := m.Delete(9)
	if err != nil || !ok {
		t.Fatalf("Delete(9): ok=%v err=%v", ok, err)
	}
	if _, ok := m2.Get(9); ok {
		t.Fatalf("Get(9) after delete: still present")
	}
	if _, ok := m2.Get(3); !ok {
		t.Fatalf("Get(3) after unrelated delete: missing")
	}
}

func TestIterateOrdersByKey(t *testing.T) {
	m := Empty(4)
	var err error
	for _, k := range []uint64{9, 1, 4} {
		m, err = m.Set(k, newValueBuilder(k))
		if err != nil {
			t.Fatalf("Set(%d): %v", k, err)
		}
	}
	var seen []uint64
	m.Iterate(func(e Entry) bool {
		seen = append(seen, e.Key)
		return true
	})
	want := []uint64{1, 4, 9}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("iteration order mismatch (-want +got):\n%s", diff)
	}
}
