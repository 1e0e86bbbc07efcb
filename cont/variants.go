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
	"fmt"

	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/stack"
)

// OrdCont is an ordinary resumable program point: a code slice plus an
// optional captured control-data block (saved registers, expected arity,
// captured substack, codepage).
type OrdCont struct {
	Code *cell.Slice
	CD   ControlData
}

// NewOrdCont returns an OrdCont over code with empty control data.
func NewOrdCont(code *cell.Slice) *OrdCont {
	return &OrdCont{Code: code, CD: NewControlData()}
}

func (c *OrdCont) GetControlData() *ControlData   { return &c.CD }
func (c *OrdCont) SetControlData(cd ControlData)  { c.CD = cd }
func (c *OrdCont) String() string                 { return fmt.Sprintf("OrdCont{bits=%d}", c.Code.BitsLeft()) }

// Jump installs save into cr (cr ^= save), sets the machine's code to a
// fresh clone of c.Code (so running it never consumes c.Code itself, and
// a loop body can be entered again), and returns 0. If this continuation carries a captured stack or a
// declared nargs, the general jump(cont, pass_args) path in vm.VmState must
// be used instead of calling Jump directly (checked by the caller via
// GetControlData).
func (c *OrdCont) Jump(st Machine) (int, error) {
	st.Regs().XorAssign(&c.CD.Save)
	st.SetCode(c.Code.Clone())
	return 0, nil
}

// QuitCont terminates the run loop: Jump returns ^ExitCode per the
// "~exit_code" convention, and the run loop complements it back into the
// reported exit code.
type QuitCont struct {
	ExitCode int
}

func NewQuitCont(exitCode int) *QuitCont         { return &QuitCont{ExitCode: exitCode} }
func (c *QuitCont) GetControlData() *ControlData { return nil }
func (c *QuitCont) String() string               { return fmt.Sprintf("Quit{%d}", c.ExitCode) }

func (c *QuitCont) Jump(st Machine) (int, error) {
	return ^c.ExitCode, nil
}

// ExcQuitCont terminates the run loop with an exception number popped from
// the stack (clamped to [0, 65535]); if the pop fails it falls back to 0.
type ExcQuitCont struct{}

func NewExcQuitCont() *ExcQuitCont               { return &ExcQuitCont{} }
func (c *ExcQuitCont) GetControlData() *ControlData { return nil }
func (c *ExcQuitCont) String() string            { return "ExcQuit" }

func (c *ExcQuitCont) Jump(st Machine) (int, error) {
	n, err := st.Stack().PopSmallintRange(65535, 0)
	if err != nil {
		n = 0
	}
	st.Log("exception quit with code %d", n)
	return ^int(n), nil
}

// PushIntCont pushes a stored integer then jumps to Next; a compact
// deferred-push reification produced by the PUSHINT-as-continuation
// encodings.
type PushIntCont struct {
	V    bigint.Int257
	Next Continuation
}

func NewPushIntCont(v bigint.Int257, next Continuation) *PushIntCont {
	return &PushIntCont{V: v, Next: next}
}
func (c *PushIntCont) GetControlData() *ControlData { return nil }
func (c *PushIntCont) String() string               { return fmt.Sprintf("PushInt{%s}", c.V.String()) }

func (c *PushIntCont) Jump(st Machine) (int, error) {
	if err := st.Stack().PushInt(c.V); err != nil {
		return 0, err
	}
	return st.Jump(c.Next)
}

// RepeatCont runs Body Count more times, then jumps to After. count<=0
// jumps straight to After.
type RepeatCont struct {
	Body  Continuation
	After Continuation
	Count int64
}

func NewRepeatCont(body, after Continuation, count int64) *RepeatCont {
	return &RepeatCont{Body: body, After: after, Count: count}
}
func (c *RepeatCont) GetControlData() *ControlData { return nil }
func (c *RepeatCont) String() string               { return fmt.Sprintf("Repeat{n=%d}", c.Count) }

func (c *RepeatCont) Jump(st Machine) (int, error) {
	if c.Count <= 0 {
		return st.Jump(c.After)
	}
	st.Regs().SetC0(&RepeatCont{Body: c.Body, After: c.After, Count: c.Count - 1})
	return st.Jump(c.Body)
}

// AgainCont always re-installs itself as c0 and jumps to Body; it has no
// termination condition and is exited only via RET or an exception.
type AgainCont struct {
	Body Continuation
}

func NewAgainCont(body Continuation) *AgainCont    { return &AgainCont{Body: body} }
func (c *AgainCont) GetControlData() *ControlData { return nil }
func (c *AgainCont) String() string               { return "Again" }

func (c *AgainCont) Jump(st Machine) (int, error) {
	st.Regs().SetC0(c)
	return st.Jump(c.Body)
}

// UntilCont runs Body, pops a boolean, and repeats until that boolean is
// true, at which point it jumps to After.
type UntilCont struct {
	Body  Continuation
	After Continuation
}

func NewUntilCont(body, after Continuation) *UntilCont {
	return &UntilCont{Body: body, After: after}
}
func (c *UntilCont) GetControlData() *ControlData { return nil }
func (c *UntilCont) String() string               { return "Until" }

func (c *UntilCont) Jump(st Machine) (int, error) {
	st.Regs().SetC0(&untilCheck{parent: c})
	return st.Jump(c.Body)
}

// untilCheck is the internal continuation installed as c0 while Body runs;
// on completion it pops the loop condition and decides whether to repeat
// or exit. It is not constructible outside this package and never appears
// on the stack as program-visible state.
type untilCheck struct {
	parent *UntilCont
}

func (c *untilCheck) GetControlData() *ControlData { return nil }
func (c *untilCheck) String() string               { return "Until.cond" }

func (c *untilCheck) Jump(st Machine) (int, error) {
	done, err := st.Stack().PopBool()
	if err != nil {
		return 0, err
	}
	if done {
		return st.Jump(c.parent.After)
	}
	return st.Jump(c.parent)
}

// WhileCont has two phases: in the cond phase it runs Cond then checks the
// popped boolean to decide between Body and After; in the body phase it
// runs Body then loops back to Cond.
type WhileCont struct {
	Cond  Continuation
	Body  Continuation
	After Continuation
	Phase WhilePhase
}

// WhilePhase distinguishes the condition-evaluation phase from the
// body-evaluation phase of a WhileCont.
type WhilePhase int

const (
	WhilePhaseCond WhilePhase = iota
	WhilePhaseBody
)

func NewWhileCont(cond, body, after Continuation) *WhileCont {
	return &WhileCont{Cond: cond, Body: body, After: after, Phase: WhilePhaseCond}
}
func (c *WhileCont) GetControlData() *ControlData { return nil }
func (c *WhileCont) String() string {
	if c.Phase == WhilePhaseCond {
		return "While.cond"
	}
	return "While.body"
}

func (c *WhileCont) Jump(st Machine) (int, error) {
	switch c.Phase {
	case WhilePhaseCond:
		next := &WhileCont{Cond: c.Cond, Body: c.Body, After: c.After, Phase: WhilePhaseCond}
		st.Regs().SetC0(&whileCondCheck{loop: next})
		return st.Jump(c.Cond)
	default:
		st.Regs().SetC0(&WhileCont{Cond: c.Cond, Body: c.Body, After: c.After, Phase: WhilePhaseCond})
		return st.Jump(c.Body)
	}
}

// whileCondCheck runs as c0 while Cond executes; it pops the boolean and
// either exits to After or switches loop into the body phase and jumps
// there with loop installed as the new c0.
type whileCondCheck struct {
	loop *WhileCont
}

func (c *whileCondCheck) GetControlData() *ControlData { return nil }
func (c *whileCondCheck) String() string                { return "While.condCheck" }

func (c *whileCondCheck) Jump(st Machine) (int, error) {
	ok, err := st.Stack().PopBool()
	if err != nil {
		return 0, err
	}
	if !ok {
		return st.Jump(c.loop.After)
	}
	body := &WhileCont{Cond: c.loop.Cond, Body: c.loop.Body, After: c.loop.After, Phase: WhilePhaseBody}
	return st.Jump(body)
}

// ArgContExt wraps Inner with additional saved registers and an optional
// codepage override; on jump it folds Save into the current registers
// (possibly switching codepage) and then delegates to Inner.
type ArgContExt struct {
	Inner Continuation
	Save  ControlRegs
	Cp    int // -1 means inherit
}

func NewArgContExt(inner Continuation, save ControlRegs, cp int) *ArgContExt {
	return &ArgContExt{Inner: inner, Save: save, Cp: cp}
}

func (c *ArgContExt) GetControlData() *ControlData {
	if cd := c.Inner.GetControlData(); cd != nil {
		return cd
	}
	return &ControlData{Nargs: -1, Save: c.Save, Cp: c.Cp}
}

func (c *ArgContExt) SetControlData(cd ControlData) {
	if wcd, ok := c.Inner.(WithControlData); ok {
		wcd.SetControlData(cd)
		return
	}
	c.Save = cd.Save
	c.Cp = cd.Cp
}

func (c *ArgContExt) String() string { return fmt.Sprintf("ArgExt{%s}", c.Inner) }

func (c *ArgContExt) Jump(st Machine) (int, error) {
	st.Regs().XorAssign(&c.Save)
	return st.Jump(c.Inner)
}

var (
	_ stack.Continuation = (*OrdCont)(nil)
	_ stack.Continuation = (*QuitCont)(nil)
	_ stack.Continuation = (*ExcQuitCont)(nil)
	_ stack.Continuation = (*PushIntCont)(nil)
	_ stack.Continuation = (*RepeatCont)(nil)
	_ stack.Continuation = (*AgainCont)(nil)
	_ stack.Continuation = (*UntilCont)(nil)
	_ stack.Continuation = (*WhileCont)(nil)
	_ stack.Continuation = (*ArgContExt)(nil)
)
