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

import "github.com/tonvm/tvm/opcode"

// DebugNop implements the debug-opcode family's no-op forms (0xFE range):
// registered with no immediate, they do nothing, the way TON's
// debug primitives are no-ops outside of a tracing build.
func DebugNop() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) { return 0, nil }
}

// DumpStack implements DUMPSTK: logs the current stack depth through the
// VM's logger without altering it.
func DumpStack() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		st.Log("DUMPSTK depth=%d", st.Stack().Depth())
		return 0, nil
	}
}

// SetCp implements SETCP: installs the 8-bit immediate as the active
// codepage.
func SetCp() opcode.Handler {
	return func(st opcode.Machine, args uint64) (int, error) {
		cp := int(int8(args))
		st.SetCp(cp)
		return 0, nil
	}
}
