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

// Package exn defines the VM's typed exception taxonomy, shared by every
// layer (cell, stack, cont, vm) so that a failure deep in a fetch or pop
// primitive carries the same exception number the run loop will eventually
// report to bytecode. Grounded on original_source's crypto/vm/excno.hpp.
package exn

import "fmt"

// Excno is one of the fixed exception numbers exposed to VM bytecode on an
// unhandled throw (the final exit code is ~Excno).
type Excno int

const (
	None      Excno = 0
	Alt       Excno = 1
	StkUnd    Excno = 2
	StkOv     Excno = 3
	IntOv     Excno = 4
	RangeChk  Excno = 5
	InvOpcode Excno = 6
	TypeChk   Excno = 7
	CellOv    Excno = 8
	CellUnd   Excno = 9
	DictErr   Excno = 10
	Unknown   Excno = 11
	Fatal     Excno = 12
	OutOfGas  Excno = 13
	VirtErr   Excno = 14
)

var names = map[Excno]string{
	None:      "none",
	Alt:       "alt",
	StkUnd:    "stk_und",
	StkOv:     "stk_ov",
	IntOv:     "int_ov",
	RangeChk:  "range_chk",
	InvOpcode: "inv_opcode",
	TypeChk:   "type_chk",
	CellOv:    "cell_ov",
	CellUnd:   "cell_und",
	DictErr:   "dict_err",
	Unknown:   "unknown",
	Fatal:     "fatal",
	OutOfGas:  "out_of_gas",
	VirtErr:   "virt_err",
}

// String returns the textual exception name (e.g. "stk_und").
func (e Excno) String() string {
	if s, ok := names[e]; ok {
		return s
	}
	return fmt.Sprintf("excno(%d)", int(e))
}

// VmError is a typed, catchable VM exception: the dispatch loop's try/catch
// maps every helper-primitive failure (stack, cell, arithmetic) into one of
// these before invoking throw_exception on the current c2.
type VmError struct {
	Excno   Excno
	Message string
}

func (e *VmError) Error() string {
	if e.Message == "" {
		return e.Excno.String()
	}
	return fmt.Sprintf("%s: %s", e.Excno, e.Message)
}

// New constructs a VmError for excno with a formatted message.
func New(excno Excno, format string, args ...interface{}) *VmError {
	return &VmError{Excno: excno, Message: fmt.Sprintf(format, args...)}
}

// VmNoGas is raised by consume_chk when gas goes negative; it is never
// recoverable by c2 (the unhandled-exception path handles it directly).
type VmNoGas struct{ Consumed int64 }

func (e *VmNoGas) Error() string { return fmt.Sprintf("out of gas (consumed %d)", e.Consumed) }

// VmVirtError signals a pruned-branch/virtualization rule violation; it is
// routed through the ordinary exception path as VirtErr.
type VmVirtError struct{ Message string }

func (e *VmVirtError) Error() string { return "virtualization error: " + e.Message }

// VmFatal marks an implementation-internal invariant violation; like
// VmNoGas it is never recoverable.
type VmFatal struct{ Message string }

func (e *VmFatal) Error() string { return "fatal: " + e.Message }

// As extracts the Excno from err if it is a *VmError, else reports ok=false.
func As(err error) (Excno, bool) {
	if ve, ok := err.(*VmError); ok {
		return ve.Excno, true
	}
	return None, false
}
