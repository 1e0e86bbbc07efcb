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
	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/exn"
	"github.com/tonvm/tvm/opcode"
)

func errRangeChk(format string, args ...interface{}) error {
	return exn.New(exn.RangeChk, format, args...)
}

func errCellUnd(format string, args ...interface{}) error {
	return exn.New(exn.CellUnd, format, args...)
}

func pushSmall(st opcode.Machine, v int64) error {
	return st.Stack().PushInt(bigint.FromInt64(v))
}
