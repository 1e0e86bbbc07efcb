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

import "testing"

func TestArchivePutGetRoundTrip(t *testing.T) {
	a, err := OpenMemArchive()
	if err != nil {
		t.Fatalf("OpenMemArchive: %v", err)
	}
	defer a.Close()

	leaf := NewBuilder()
	if err := leaf.StoreUint(0xABCD, 16); err != nil {
		t.Fatalf("store leaf: %v", err)
	}
	leafCell := leaf.Finalize()

	root := NewBuilder()
	if err := root.StoreUint(7, 3); err != nil {
		t.Fatalf("store root bits: %v", err)
	}
	if err := root.StoreRef(leafCell); err != nil {
		t.Fatalf("store ref: %v", err)
	}
	rootCell := root.Finalize()

	if err := a.Put(rootCell); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := a.Get(rootCell.Hash())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Hash() != rootCell.Hash() {
		t.Fatalf("round-tripped hash = %s, want %s", got.Hash().Hex(), rootCell.Hash().Hex())
	}
	if got.BitLen() != rootCell.BitLen() || got.RefsCount() != rootCell.RefsCount() {
		t.Fatalf("shape mismatch: got bits=%d refs=%d, want bits=%d refs=%d",
			got.BitLen(), got.RefsCount(), rootCell.BitLen(), rootCell.RefsCount())
	}
	if got.Ref(0).Hash() != leafCell.Hash() {
		t.Fatalf("ref hash mismatch")
	}
}

func TestArchiveGetMissing(t *testing.T) {
	a, err := OpenMemArchive()
	if err != nil {
		t.Fatalf("OpenMemArchive: %v", err)
	}
	defer a.Close()

	var h Hash
	if _, err := a.Get(h); err != ErrNotFound {
		t.Fatalf("Get on empty archive: err = %v, want ErrNotFound", err)
	}
}
