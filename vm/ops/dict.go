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

package ops

import (
	"math/big"

	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/internal/dictmap"
	"github.com/tonvm/tvm/opcode"
	"github.com/tonvm/tvm/stack"
)

// maxDictKeyBits mirrors dictops.cpp's Dictionary::max_key_bits: the
// widest key a DICT-family instruction will accept before range-checking
// the popped n fails with a range_chk exception.
const maxDictKeyBits = 1023

// pushMaybeCell pushes Null for a nil root or the cell entry otherwise,
// the Entry-level counterpart of cell.Builder.StoreMaybeRef /
// cell.Slice.FetchMaybeRef.
func pushMaybeCell(st opcode.Machine, c *cell.Cell) error {
	if c == nil {
		return st.Stack().Push(stack.Null())
	}
	return st.Stack().Push(stack.FromCell(c))
}

// keyToUint64 folds a popped integer key down to its low n bits, the same
// bit pattern dictmap.Map keys on regardless of the TON signed/unsigned
// key-encoding flag: the flag only affects overflow checking, never the
// trie path actually stored.
func keyToUint64(v *big.Int, n int) uint64 {
	mask := new(big.Int).Lsh(big.NewInt(1), uint(n))
	mask.Sub(mask, big.NewInt(1))
	folded := new(big.Int).And(v, mask)
	return folded.Uint64()
}

// popDictKeyWidth pops and range-checks n, the dictionary's fixed key
// width, per the "int n = stack.pop_smallint_range(max_key_bits)" prefix
// shared by every DICT-family instruction.
func popDictKeyWidth(st opcode.Machine) (int, error) {
	n, err := st.Stack().PopSmallintRange(maxDictKeyBits, 0)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// popDictIntKey pops an integer key, range-checked against n bits the
// way dict.integer_key does: unsigned keys must fit in n unsigned bits,
// signed keys in n signed bits. An out-of-range key is not a thrown
// error here (ok=false): DICTGET and DICTDEL then push a "not found"/no-op
// result, matching exec_dict_get's "key.is_valid() == false" early-out,
// while DICTSET raises cell_und.
func popDictIntKey(st opcode.Machine, n int, signed bool) (uint64, bool, error) {
	v, err := st.Stack().PopIntFinite()
	if err != nil {
		return 0, false, err
	}
	fits := v.UnsignedFitsBits(uint(n))
	if signed {
		fits = v.SignedFitsBits(uint(n))
	}
	if !fits {
		return 0, false, nil
	}
	return keyToUint64(v.Big(), n), true, nil
}

// StDict implements STDICT: pop (builder, dict), store the dictionary's
// root as a Maybe-ref (present iff non-empty), push the builder back.
// Grounded on dictops.cpp's exec_store_dict.
func StDict() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		b, err := st.Stack().PopBuilder()
		if err != nil {
			return 0, err
		}
		root, err := st.Stack().PopMaybeCell()
		if err != nil {
			return 0, err
		}
		if err := b.StoreMaybeRef(root); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromBuilder(b))
	}
}

// LdDict implements LDDICT: pop a slice, fetch a Maybe-ref dictionary
// root off its front, push the (possibly nil) root followed by the
// remaining slice. Grounded on dictops.cpp's exec_load_dict_slice /
// exec_load_dict (the non-quiet form only; PLDDICT/LDDICTQ's quiet
// variants are not implemented, a documented simplification).
func LdDict() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		s, err := st.Stack().PopCellSlice()
		if err != nil {
			return 0, err
		}
		root, err := s.FetchMaybeRef()
		if err != nil {
			return 0, errCellUnd("not enough data to load a dictionary: %v", err)
		}
		if err := pushMaybeCell(st, root); err != nil {
			return 0, err
		}
		return 0, st.Stack().Push(stack.FromSlice(s))
	}
}

// dictGetResult decodes DICTGET's args bit layout, shared with DICTSET:
// bit 0 selects the ref-valued lookup (DICTGETREF), bit 1 selects
// unsigned key interpretation (clear: DICTIGET, set: DICTUGET). Bit 2
// (integer key) is not consulted: only the integer-key forms are
// registered. DICTDEL takes key signedness from bit 0 instead.
func dictGetResult(st opcode.Machine, args uint64) (int, error) {
	n, err := popDictKeyWidth(st)
	if err != nil {
		return 0, err
	}
	root, err := st.Stack().PopMaybeCell()
	if err != nil {
		return 0, err
	}
	key, ok, err := popDictIntKey(st, n, args&2 == 0)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, pushSmall(st, 0)
	}
	m := dictmap.FromRoot(n, root)
	value, found := m.Get(key)
	if !found {
		return 0, pushSmall(st, 0)
	}
	if args&1 != 0 {
		ref, err := value.FetchRef()
		if err != nil {
			return 0, errCellUnd("DICTGETREF: value holds no reference: %v", err)
		}
		if err := st.Stack().Push(stack.FromCell(ref)); err != nil {
			return 0, err
		}
	} else if err := st.Stack().Push(stack.FromSlice(value)); err != nil {
		return 0, err
	}
	return 0, pushSmall(st, -1)
}

// DictGet implements the DICTIGET/DICTUGET/DICTIGETREF/DICTUGETREF
// family (integer-keyed lookup; the plain DICTGET slice-keyed form is
// not registered). Grounded on
// dictops.cpp's exec_dict_get.
func DictGet() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		return dictGetResult(st, args)
	}
}

// DictSet implements the DICTISET/DICTUSET/DICTISETREF/DICTUSETREF
// family: pop (n, dict, key, value), bind key to value unconditionally,
// push the updated dictionary back. args&1 selects the ref-valued form
// (value is a Cell stored as a bare reference, matching DictGet's
// args&1 FetchRef branch); args&2 selects unsigned key interpretation
// (signed when clear).
// Grounded on dictops.cpp's exec_dict_set with SetMode::Set (the
// Add/Replace conditional modes are not exposed as separate opcodes, a
// documented simplification: dictmap.Map.Set is always an unconditional
// bind).
func DictSet() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		n, err := popDictKeyWidth(st)
		if err != nil {
			return 0, err
		}
		root, err := st.Stack().PopMaybeCell()
		if err != nil {
			return 0, err
		}
		key, ok, err := popDictIntKey(st, n, args&2 == 0)
		if err != nil {
			return 0, err
		}
		valueBuilder := cell.NewBuilder()
		if args&1 != 0 {
			ref, err := st.Stack().PopCell()
			if err != nil {
				return 0, err
			}
			if err := valueBuilder.StoreRef(ref); err != nil {
				return 0, err
			}
		} else {
			value, err := st.Stack().PopCellSlice()
			if err != nil {
				return 0, err
			}
			if err := valueBuilder.StoreSlice(value); err != nil {
				return 0, err
			}
		}
		if !ok {
			return 0, errCellUnd("dictionary key does not fit in %d bits", n)
		}
		m := dictmap.FromRoot(n, root)
		updated, err := m.Set(key, valueBuilder)
		if err != nil {
			return 0, err
		}
		return 0, pushMaybeCell(st, updated.Root())
	}
}

// DictDel implements the DICTIDEL/DICTUDEL family: pop (n, dict, key),
// delete key if present, push the updated dictionary and a found flag.
// Grounded on dictops.cpp's exec_dict_delete.
func DictDel() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		n, err := popDictKeyWidth(st)
		if err != nil {
			return 0, err
		}
		root, err := st.Stack().PopMaybeCell()
		if err != nil {
			return 0, err
		}
		key, ok, err := popDictIntKey(st, n, args&1 == 0)
		if err != nil {
			return 0, err
		}
		if !ok {
			if err := pushMaybeCell(st, root); err != nil {
				return 0, err
			}
			return 0, pushSmall(st, 0)
		}
		m := dictmap.FromRoot(n, root)
		updated, found, err := m.Delete(key)
		if err != nil {
			return 0, err
		}
		if err := pushMaybeCell(st, updated.Root()); err != nil {
			return 0, err
		}
		flag := int64(0)
		if found {
			flag = -1
		}
		return 0, pushSmall(st, flag)
	}
}

// PfxDictGet implements a simplified PFXDICTGET: unlike the original's
// lookup_prefix (which searches a prefix-code dictionary for the unique
// key that is a prefix of the supplied bitstring, and can optionally
// CALL/JMP into the matched value as a continuation), this Go port only
// supports a single fixed-width key, so it pops (n, dict, slice), treats
// the slice's leading n bits as an exact key, and on a match pushes the
// matched value slice, the remainder of the input slice, and a found
// flag. The CALL/JMP-on-match PFXDICTGETEXEC/PFXDICTGETJMP variants and
// true prefix-code parsing are not implemented; this documents that
// scope cut rather than silently dropping it. Grounded on dictops.cpp's
// exec_pfx_dict_get (op == 0, the plain query form).
func PfxDictGet() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		n, err := popDictKeyWidth(st)
		if err != nil {
			return 0, err
		}
		root, err := st.Stack().PopMaybeCell()
		if err != nil {
			return 0, err
		}
		s, err := st.Stack().PopCellSlice()
		if err != nil {
			return 0, err
		}
		if !s.Have(n) {
			if err := st.Stack().Push(stack.FromSlice(s)); err != nil {
				return 0, err
			}
			return 0, pushSmall(st, 0)
		}
		bits, err := s.PrefetchBits(n)
		if err != nil {
			return 0, err
		}
		m := dictmap.FromRoot(n, root)
		value, found := m.Get(keyToUint64(bits, n))
		if !found {
			if err := st.Stack().Push(stack.FromSlice(s)); err != nil {
				return 0, err
			}
			return 0, pushSmall(st, 0)
		}
		if err := s.SkipFirst(n); err != nil {
			return 0, err
		}
		if err := st.Stack().Push(stack.FromSlice(value)); err != nil {
			return 0, err
		}
		if err := st.Stack().Push(stack.FromSlice(s)); err != nil {
			return 0, err
		}
		return 0, pushSmall(st, -1)
	}
}
