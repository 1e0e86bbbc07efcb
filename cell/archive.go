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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// ErrNotFound is returned by Archive.Get when no cell is stored under the
// requested hash.
var ErrNotFound = errors.New("cell: not found in archive")

// Archive is a persistent, content-addressed store of cells, keyed by
// Hash, backed by goleveldb. It complements the in-memory Pool: Pool
// dedupes cells live within one process, Archive gives a run's final
// committed state (c4/c5 roots and anything reachable from them) a
// durable home across runs. Grounded on probedb/leveldb's Database{db}
// wrapper over a *leveldb.DB.
type Archive struct {
	db *leveldb.DB
}

// OpenArchive opens (creating if absent) a LevelDB archive at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("cell: open archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// OpenMemArchive opens an in-memory archive, useful for tests and
// short-lived tool invocations that still want the Put/Get contract.
func OpenMemArchive() (*Archive, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("cell: open mem archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying LevelDB handle.
func (a *Archive) Close() error { return a.db.Close() }

// Put persists c and, recursively, every cell reachable from it, keyed by
// content hash. Cells already present are left untouched (content-address
// equality means an existing entry is already byte-identical).
func (a *Archive) Put(c *Cell) error {
	h := c.Hash()
	if ok, err := a.db.Has(h.Bytes(), nil); err != nil {
		return fmt.Errorf("cell: archive has: %w", err)
	} else if ok {
		return nil
	}
	if err := a.db.Put(h.Bytes(), encodeCellRecord(c), nil); err != nil {
		return fmt.Errorf("cell: archive put: %w", err)
	}
	for i := 0; i < c.RefsCount(); i++ {
		if err := a.Put(c.Ref(i)); err != nil {
			return err
		}
	}
	return nil
}

// Get reconstructs the cell stored under h, resolving child refs
// recursively out of the same archive. The reconstructed cell hashes back
// to h, since content addressing makes the round trip exact.
func (a *Archive) Get(h Hash) (*Cell, error) {
	raw, err := a.db.Get(h.Bytes(), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cell: archive get: %w", err)
	}
	return a.decodeCellRecord(raw)
}

// cell record layout: 2-byte dataBits, ceil(dataBits/8) data bytes, 1-byte
// special tag, 1-byte level mask, 1-byte ref count, refCount*32-byte
// child hashes (each resolved eagerly by a further Get when the record is
// decoded).
func encodeCellRecord(c *Cell) []byte {
	nb := bytesForBits(c.dataBits)
	out := make([]byte, 0, 2+nb+3+len(c.refs)*HashLength)
	var bitsBuf [2]byte
	binary.BigEndian.PutUint16(bitsBuf[:], uint16(c.dataBits))
	out = append(out, bitsBuf[:]...)
	out = append(out, c.data[:nb]...)
	out = append(out, byte(c.special), c.levelMask, byte(len(c.refs)))
	for _, r := range c.refs {
		rh := r.Hash()
		out = append(out, rh[:]...)
	}
	return out
}

func (a *Archive) decodeCellRecord(raw []byte) (*Cell, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("cell: archive record too short")
	}
	dataBits := int(binary.BigEndian.Uint16(raw[:2]))
	nb := bytesForBits(dataBits)
	pos := 2
	if len(raw) < pos+nb+3 {
		return nil, fmt.Errorf("cell: archive record truncated")
	}
	data := make([]byte, nb)
	copy(data, raw[pos:pos+nb])
	pos += nb
	special := SpecialType(raw[pos])
	levelMask := raw[pos+1]
	refCount := int(raw[pos+2])
	pos += 3
	if len(raw) < pos+refCount*HashLength {
		return nil, fmt.Errorf("cell: archive record missing ref hashes")
	}
	b := NewBuilder()
	if err := b.StoreBits(extractBits(data, 0, dataBits), dataBits); err != nil {
		return nil, fmt.Errorf("cell: rebuild data: %w", err)
	}
	for i := 0; i < refCount; i++ {
		var rh Hash
		copy(rh[:], raw[pos+i*HashLength:pos+(i+1)*HashLength])
		child, err := a.Get(rh)
		if err != nil {
			return nil, fmt.Errorf("cell: rebuild ref %d: %w", i, err)
		}
		if err := b.StoreRef(child); err != nil {
			return nil, fmt.Errorf("cell: rebuild ref %d: %w", i, err)
		}
	}
	b.MarkSpecial(special)
	out := b.Finalize()
	_ = levelMask // not applied to the rebuilt cell; stored for forward compat only
	return out, nil
}
