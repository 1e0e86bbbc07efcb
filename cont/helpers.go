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

// ForceCData ensures c carries a mutable control-data block, wrapping it in
// an ArgContExt with empty save/codepage if it has none. Used by the
// SETCONTARGS/SETCONTCTR family which attaches an extra save to an
// existing continuation that may not support one directly.
func ForceCData(c Continuation) WithControlData {
	if wcd, ok := c.(WithControlData); ok {
		return wcd
	}
	return NewArgContExt(c, ControlRegs{}, -1)
}

// ForceCRegs is ForceCData followed by extracting the (now guaranteed)
// control-data's Save block for in-place mutation.
func ForceCRegs(c Continuation) (WithControlData, *ControlRegs) {
	wcd := ForceCData(c)
	if ext, ok := wcd.(*ArgContExt); ok && ext.Inner.GetControlData() == nil {
		// GetControlData would return a copy here; hand out the live Save.
		return wcd, &ext.Save
	}
	cd := wcd.GetControlData()
	return wcd, &cd.Save
}

// ExtractOrdCont returns c's underlying *OrdCont if c is one or wraps one
// through ArgContExt, else nil. Used by bless/serialize-style opcodes that
// need the raw code slice.
func ExtractOrdCont(c Continuation) *OrdCont {
	switch v := c.(type) {
	case *OrdCont:
		return v
	case *ArgContExt:
		return ExtractOrdCont(v.Inner)
	default:
		return nil
	}
}
