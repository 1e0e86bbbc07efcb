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

package cont

import (
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/stack"
)

// ControlData is the optional captured-state block a continuation may
// carry: an expected argument count, a captured substack, a register-save
// snapshot, and a codepage override.
type ControlData struct {
	Nargs int // -1 means unset/unbounded
	Stack *stack.Stack
	Save  ControlRegs
	Cp    int // -1 means unset (inherit)
}

// NewControlData returns an empty ControlData (nargs/cp unset).
func NewControlData() ControlData {
	return ControlData{Nargs: -1, Cp: -1}
}

// Machine is the minimal surface a Continuation needs from the running
// VM state to install itself; vm.VmState implements it. Declared here
// (rather than imported from vm) so cont has no dependency on vm, even
// though vm depends on cont.
type Machine interface {
	Stack() *stack.Stack
	SetStack(*stack.Stack)
	Regs() *ControlRegs
	Code() *cell.Slice
	SetCode(*cell.Slice)
	Jump(c Continuation) (int, error)
	ChargeGas(n int64) error
	Log(format string, args ...interface{})
}

// Continuation is any reified control-flow target: a resumable program
// point, a loop construct, or a terminal Quit/ExcQuit marker. jump
// installs the continuation as the machine's new program counter and
// returns either 0 (loop should keep running) or a terminal exit code
// (already bitwise-complemented by the caller's convention).
type Continuation interface {
	// Jump installs this continuation as st's new program counter.
	Jump(st Machine) (int, error)
	// GetControlData returns the continuation's captured-state block, or
	// nil if it carries none.
	GetControlData() *ControlData
	// String renders a short debug form (also satisfies stack.Continuation).
	String() string
}

// WithControlData is implemented by continuations whose control data can
// be replaced in place (used by force_cdata/force_cregs and the SETCONTARGS
// family to attach additional saves without rebuilding the whole chain).
type WithControlData interface {
	Continuation
	SetControlData(cd ControlData)
}
