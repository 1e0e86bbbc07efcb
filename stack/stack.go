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

// Package stack implements the VM's operand stack: a heterogeneous,
// strongly-typed sequence of Entry values with checked, underflow-safe
// pop/push discipline. Grounded on probe-lang/lang/vm's value-stack
// handling generalized from a flat int64 stack to a tagged union.
package stack

import (
	"errors"
	"fmt"

	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/cell"
)

// Continuation is the minimal structural view of cont.Continuation this
// package needs to hold one as a tagged stack entry; the cont package's
// concrete continuation types all satisfy it. Declared here (rather than
// imported) so stack does not depend on cont, which itself depends on
// stack to hold captured continuation-local stacks.
type Continuation interface {
	fmt.Stringer
}

// ErrUnderflow is returned by any pop when fewer than the required number
// of entries remain.
var ErrUnderflow = errors.New("stack: underflow")

// ErrOverflow is returned by push when the stack is already at its
// configured depth limit.
var ErrOverflow = errors.New("stack: overflow")

// ErrTypeMismatch is returned by a typed pop when the top entry is not of
// the expected kind.
var ErrTypeMismatch = errors.New("stack: type mismatch")

// ErrRange is returned by pop_smallint_range when the popped integer falls
// outside the declared bounds.
var ErrRange = errors.New("stack: value out of range")

// Kind tags the dynamic type of a stack Entry.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindCell
	KindSlice
	KindBuilder
	KindCont
	KindTuple
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindCell:
		return "cell"
	case KindSlice:
		return "slice"
	case KindBuilder:
		return "builder"
	case KindCont:
		return "cont"
	case KindTuple:
		return "tuple"
	default:
		return "unknown"
	}
}

// Entry is a single tagged-union stack value. Only the field matching Kind
// is meaningful.
type Entry struct {
	Kind    Kind
	Int     bigint.Int257
	Cell    *cell.Cell
	Slice   *cell.Slice
	Builder *cell.Builder
	Cont    Continuation
	Tuple   []Entry
}

// Null returns the Null entry.
func Null() Entry { return Entry{Kind: KindNull} }

// FromInt wraps a BigInt257 as a stack entry.
func FromInt(v bigint.Int257) Entry { return Entry{Kind: KindInt, Int: v} }

// FromCell wraps a cell as a stack entry.
func FromCell(c *cell.Cell) Entry { return Entry{Kind: KindCell, Cell: c} }

// FromSlice wraps a slice as a stack entry.
func FromSlice(s *cell.Slice) Entry { return Entry{Kind: KindSlice, Slice: s} }

// FromBuilder wraps a builder as a stack entry.
func FromBuilder(b *cell.Builder) Entry { return Entry{Kind: KindBuilder, Builder: b} }

// FromCont wraps a continuation as a stack entry.
func FromCont(c Continuation) Entry { return Entry{Kind: KindCont, Cont: c} }

// FromTuple wraps a list of entries as a tuple entry.
func FromTuple(entries []Entry) Entry { return Entry{Kind: KindTuple, Tuple: entries} }

// defaultMaxDepth is the default stack depth ceiling; VmState may override
// it via a configured limit.
const defaultMaxDepth = 10000

// Stack is a growable array of Entry, index 0 being the bottom; the "top of
// stack" is the last element, matching the teacher's append/truncate value
// stack idiom generalized to a tagged-union element type.
type Stack struct {
	entries  []Entry
	maxDepth int
}

// New returns an empty stack with the default depth limit.
func New() *Stack { return &Stack{maxDepth: defaultMaxDepth} }

// NewWithLimit returns an empty stack with an explicit depth limit.
func NewWithLimit(maxDepth int) *Stack { return &Stack{maxDepth: maxDepth} }

// Depth returns the number of entries currently on the stack.
func (s *Stack) Depth() int { return len(s.entries) }

// CheckUnderflow returns ErrUnderflow unless at least k entries are present.
func (s *Stack) CheckUnderflow(k int) error {
	if len(s.entries) < k {
		return ErrUnderflow
	}
	return nil
}

// Push appends an entry to the top, enforcing the depth limit.
func (s *Stack) Push(e Entry) error {
	if len(s.entries) >= s.maxDepth {
		return ErrOverflow
	}
	s.entries = append(s.entries, e)
	return nil
}

// PushInt pushes v; pushing NaN is only legal through PushIntQuiet.
func (s *Stack) PushInt(v bigint.Int257) error {
	if v.IsNaN() {
		return fmt.Errorf("%w: cannot push NaN with strict push_int", ErrRange)
	}
	return s.Push(FromInt(v))
}

// PushIntQuiet pushes v; if quiet is false and v is NaN, returns an error
// the caller should map to int_ov (mirrors push_int_quiet's strict/quiet
// split).
func (s *Stack) PushIntQuiet(v bigint.Int257, quiet bool) error {
	if v.IsNaN() && !quiet {
		return fmt.Errorf("%w: NaN pushed in non-quiet context", ErrRange)
	}
	return s.Push(FromInt(v))
}

// Pop removes and returns the top entry.
func (s *Stack) Pop() (Entry, error) {
	n := len(s.entries)
	if n == 0 {
		return Entry{}, ErrUnderflow
	}
	e := s.entries[n-1]
	s.entries = s.entries[:n-1]
	return e, nil
}

// Peek returns the top entry without removing it.
func (s *Stack) Peek() (Entry, error) {
	n := len(s.entries)
	if n == 0 {
		return Entry{}, ErrUnderflow
	}
	return s.entries[n-1], nil
}

// PeekAt returns the entry depth below the top (0 = TOS) without removing
// it.
func (s *Stack) PeekAt(depth int) (Entry, error) {
	idx := len(s.entries) - 1 - depth
	if idx < 0 {
		return Entry{}, ErrUnderflow
	}
	return s.entries[idx], nil
}

// PopInt expects an Int entry; a NaN payload is returned as-is, leaving the
// NaN-or-not decision to the calling opcode.
func (s *Stack) PopInt() (bigint.Int257, error) {
	e, err := s.Pop()
	if err != nil {
		return bigint.Int257{}, err
	}
	if e.Kind != KindInt {
		return bigint.Int257{}, fmt.Errorf("%w: expected int, got %s", ErrTypeMismatch, e.Kind)
	}
	return e.Int, nil
}

// PopIntFinite expects a non-NaN Int entry; NaN maps the caller to int_ov.
func (s *Stack) PopIntFinite() (bigint.Int257, error) {
	v, err := s.PopInt()
	if err != nil {
		return v, err
	}
	if v.IsNaN() {
		return v, fmt.Errorf("%w: NaN in finite context", ErrRange)
	}
	return v, nil
}

// PopSmallintRange expects an Int in [min, max]; outside the range or NaN
// maps to range_chk.
func (s *Stack) PopSmallintRange(max, min int64) (int64, error) {
	v, err := s.PopIntFinite()
	if err != nil {
		return 0, err
	}
	if !v.Big().IsInt64() {
		return 0, fmt.Errorf("%w: value too large", ErrRange)
	}
	i := v.Big().Int64()
	if i < min || i > max {
		return 0, fmt.Errorf("%w: %d not in [%d,%d]", ErrRange, i, min, max)
	}
	return i, nil
}

// PopBool pops an integer and reports whether it is nonzero.
func (s *Stack) PopBool() (bool, error) {
	v, err := s.PopIntFinite()
	if err != nil {
		return false, err
	}
	return v.Sign() != 0, nil
}

// PopCell expects a Cell entry.
func (s *Stack) PopCell() (*cell.Cell, error) {
	e, err := s.Pop()
	if err != nil {
		return nil, err
	}
	if e.Kind != KindCell {
		return nil, fmt.Errorf("%w: expected cell, got %s", ErrTypeMismatch, e.Kind)
	}
	return e.Cell, nil
}

// PopMaybeCell expects either Null (returns nil) or a Cell entry.
func (s *Stack) PopMaybeCell() (*cell.Cell, error) {
	e, err := s.Pop()
	if err != nil {
		return nil, err
	}
	switch e.Kind {
	case KindNull:
		return nil, nil
	case KindCell:
		return e.Cell, nil
	default:
		return nil, fmt.Errorf("%w: expected cell or null, got %s", ErrTypeMismatch, e.Kind)
	}
}

// PopBuilder expects a Builder entry.
func (s *Stack) PopBuilder() (*cell.Builder, error) {
	e, err := s.Pop()
	if err != nil {
		return nil, err
	}
	if e.Kind != KindBuilder {
		return nil, fmt.Errorf("%w: expected builder, got %s", ErrTypeMismatch, e.Kind)
	}
	return e.Builder, nil
}

// PopCellSlice expects a Slice entry.
func (s *Stack) PopCellSlice() (*cell.Slice, error) {
	e, err := s.Pop()
	if err != nil {
		return nil, err
	}
	if e.Kind != KindSlice {
		return nil, fmt.Errorf("%w: expected slice, got %s", ErrTypeMismatch, e.Kind)
	}
	return e.Slice, nil
}

// PopCont expects a Continuation entry.
func (s *Stack) PopCont() (Continuation, error) {
	e, err := s.Pop()
	if err != nil {
		return nil, err
	}
	if e.Kind != KindCont {
		return nil, fmt.Errorf("%w: expected continuation, got %s", ErrTypeMismatch, e.Kind)
	}
	return e.Cont, nil
}

// PopTupleRange expects a Tuple entry whose length lies in [min, max].
func (s *Stack) PopTupleRange(max, min int) ([]Entry, error) {
	e, err := s.Pop()
	if err != nil {
		return nil, err
	}
	if e.Kind != KindTuple {
		return nil, fmt.Errorf("%w: expected tuple, got %s", ErrTypeMismatch, e.Kind)
	}
	if len(e.Tuple) < min || len(e.Tuple) > max {
		return nil, fmt.Errorf("%w: tuple length %d not in [%d,%d]", ErrRange, len(e.Tuple), min, max)
	}
	return e.Tuple, nil
}

// SplitTop removes the top n entries and returns them as a new Stack in the
// same bottom-to-top order.
func (s *Stack) SplitTop(n int) (*Stack, error) {
	if err := s.CheckUnderflow(n); err != nil {
		return nil, err
	}
	at := len(s.entries) - n
	taken := make([]Entry, n)
	copy(taken, s.entries[at:])
	s.entries = s.entries[:at]
	return &Stack{entries: taken, maxDepth: s.maxDepth}, nil
}

// MoveFromStack moves the top n entries of src onto s, preserving order
// (the inverse of SplitTop).
func (s *Stack) MoveFromStack(src *Stack, n int) error {
	if err := src.CheckUnderflow(n); err != nil {
		return err
	}
	at := len(src.entries) - n
	moved := src.entries[at:]
	if len(s.entries)+n > s.maxDepth {
		return ErrOverflow
	}
	s.entries = append(s.entries, moved...)
	src.entries = src.entries[:at]
	return nil
}

// Swap exchanges the entries at depths i and j below the top (0 = TOS).
func (s *Stack) Swap(i, j int) error {
	n := len(s.entries)
	ai, aj := n-1-i, n-1-j
	if ai < 0 || aj < 0 || ai >= n || aj >= n {
		return ErrUnderflow
	}
	s.entries[ai], s.entries[aj] = s.entries[aj], s.entries[ai]
	return nil
}

// PushCopy duplicates the entry at depth i below the top onto the top
// (used by PUSH/DUP-family opcodes).
func (s *Stack) PushCopy(i int) error {
	e, err := s.PeekAt(i)
	if err != nil {
		return err
	}
	return s.Push(e)
}

// PopDiscard pops and discards the top entry (used by DROP/POP-family
// opcodes when the value itself is unneeded).
func (s *Stack) PopDiscard() error {
	_, err := s.Pop()
	return err
}

// Roll moves the entry at depth i below the top to the very top, shifting
// the entries above it down by one (positive ROLL/ROLLREV family).
func (s *Stack) Roll(i int) error {
	n := len(s.entries)
	at := n - 1 - i
	if at < 0 || at >= n {
		return ErrUnderflow
	}
	e := s.entries[at]
	copy(s.entries[at:], s.entries[at+1:])
	s.entries[n-1] = e
	return nil
}

// Reverse reverses the order of the n entries starting at depth
// "startDepth" below the top (the REVERSE opcode family).
func (s *Stack) Reverse(n, startDepth int) error {
	lo := len(s.entries) - startDepth - n
	hi := len(s.entries) - startDepth - 1
	if lo < 0 || hi >= len(s.entries) || lo > hi {
		return ErrUnderflow
	}
	for lo < hi {
		s.entries[lo], s.entries[hi] = s.entries[hi], s.entries[lo]
		lo++
		hi--
	}
	return nil
}

// Clone returns a shallow copy of the stack (entries are value types or
// immutable/shared pointers, so a shallow element copy is sufficient).
func (s *Stack) Clone() *Stack {
	cp := make([]Entry, len(s.entries))
	copy(cp, s.entries)
	return &Stack{entries: cp, maxDepth: s.maxDepth}
}

// Clear empties the stack (used by throw_exception before pushing the
// payload/errno pair).
func (s *Stack) Clear() { s.entries = s.entries[:0] }

// Entries returns the backing slice, bottom to top; callers must not
// retain it past further mutation.
func (s *Stack) Entries() []Entry { return s.entries }
