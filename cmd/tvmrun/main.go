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

// Command tvmrun loads a codepage-0 bytecode blob and an optional list of
// integer stack arguments, executes it to completion, and reports the exit
// code, gas consumed, and final stack. Grounded on probe-lang/cmd/probec's
// flag-driven single-file front end, generalized from a compiler driver to
// a VM driver and ported from the standard "flag" package onto
// gopkg.in/urfave/cli.v1, the flag/command framework cmd/gprobe is built
// on.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/tonvm/tvm/bigint"
	"github.com/tonvm/tvm/cell"
	"github.com/tonvm/tvm/gasprice"
	"github.com/tonvm/tvm/stack"
	"github.com/tonvm/tvm/vm"
	"github.com/tonvm/tvm/vmconfig"
	"github.com/tonvm/tvm/vmlog"
)

const version = "0.1.0"

var (
	codeFlag = cli.StringFlag{
		Name:  "code",
		Usage: "path to a hex-encoded codepage-0 bytecode file",
	}
	argFlag = cli.StringSliceFlag{
		Name:  "arg",
		Usage: "integer argument pushed onto the initial stack (repeatable, left to right)",
	}
	gasLimitFlag = cli.Int64Flag{
		Name:  "gas-limit",
		Usage: "gas ceiling for the run",
		Value: 1_000_000,
	}
	sameC3Flag = cli.BoolFlag{
		Name:  "same-c3",
		Usage: "install c3 as an ordinary continuation over the entry code rather than quit-on-return",
	}
	pushZeroFlag = cli.BoolFlag{
		Name:  "push-zero",
		Usage: "seed the initial stack with a single 0 above the declared arguments",
	}
	stackTraceFlag = cli.BoolFlag{
		Name:  "stack-trace",
		Usage: "log the operand stack depth before every dispatched instruction",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "enable debug-level VM logging",
	}
	archiveFlag = cli.StringFlag{
		Name:  "archive",
		Usage: "path to a LevelDB cell archive; a successful commit persists c4/c5 into it",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "tvmrun"
	app.Usage = "run codepage-0 bytecode against the stack/continuation VM"
	app.Version = version
	app.Flags = []cli.Flag{codeFlag, argFlag, gasLimitFlag, sameC3Flag, pushZeroFlag, stackTraceFlag, verboseFlag, archiveFlag}
	app.Action = runAction

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tvmrun: %v\n", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	if c.Bool(verboseFlag.Name) {
		vmlog.SetLevel(vmlog.LevelDebug)
	}

	codePath := c.String(codeFlag.Name)
	if codePath == "" {
		return cli.NewExitError("usage: tvmrun --code <file> [--arg N ...]", 1)
	}

	codeCell, err := loadCodeCell(codePath)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("load code: %v", err), 1)
	}

	stk := stack.New()
	for _, raw := range c.StringSlice(argFlag.Name) {
		n, perr := strconv.ParseInt(strings.TrimSpace(raw), 0, 64)
		if perr != nil {
			return cli.NewExitError(fmt.Sprintf("invalid --arg %q: %v", raw, perr), 1)
		}
		if perr := stk.PushInt(bigint.FromInt64(n)); perr != nil {
			return cli.NewExitError(fmt.Sprintf("push arg %d: %v", n, perr), 1)
		}
	}

	limits := vmconfig.New(
		vmconfig.WithGasLimit(c.Int64(gasLimitFlag.Name)),
		vmconfig.WithSameC3(c.Bool(sameC3Flag.Name)),
		vmconfig.WithPushZero(c.Bool(pushZeroFlag.Name)),
		vmconfig.WithStackTrace(c.Bool(stackTraceFlag.Name)),
	)

	table := vm.NewCp0()
	gas := gasprice.NewLimits(limits.GasLimit)
	st := vm.New(cell.NewSlice(codeCell), stk, table, gas)
	st.SetFlags(vm.Flags{
		SameC3:     limits.SameC3,
		PushZero:   limits.PushZero,
		StackTrace: limits.StackTrace,
	})
	if err := st.ApplyFlags(); err != nil {
		return cli.NewExitError(fmt.Sprintf("apply run flags: %v", err), 1)
	}

	if archivePath := c.String(archiveFlag.Name); archivePath != "" {
		arc, aerr := cell.OpenArchive(archivePath)
		if aerr != nil {
			return cli.NewExitError(fmt.Sprintf("open archive: %v", aerr), 1)
		}
		defer arc.Close()
		st.SetArchive(arc)
	}

	res := st.Run(table)
	printResult(res)
	if res.ExitCode != 0 {
		os.Exit(exitCodeFor(res.ExitCode))
	}
	return nil
}

// loadCodeCell reads path as a hex string and packs it into a single cell
// whose data bits are exactly the decoded bytes (one byte at a time,
// matching StoreUint's big-endian-bit convention); BOC framing is out of
// scope, the way probec's bytecode emit stage is left unimplemented.
func loadCodeCell(path string) (*cell.Cell, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	decoded, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	b := cell.NewBuilder()
	for _, by := range decoded {
		if err := b.StoreUint(uint64(by), 8); err != nil {
			return nil, fmt.Errorf("pack byte: %w", err)
		}
	}
	return b.Finalize(), nil
}

func printResult(res vm.Result) {
	fmt.Printf("exit_code=%d gas_used=%d steps=%d committed=%v\n", res.ExitCode, res.GasUsed, res.Steps, res.Committed)
	fmt.Printf("stack (depth=%d):\n", res.Stack.Depth())
	for i := 0; i < res.Stack.Depth(); i++ {
		e, err := res.Stack.PeekAt(i)
		if err != nil {
			fmt.Printf("  [%d] <error: %v>\n", i, err)
			continue
		}
		fmt.Printf("  [%d] %s\n", i, describeEntry(e))
	}
}

func describeEntry(e stack.Entry) string {
	switch e.Kind {
	case stack.KindInt:
		return "int " + e.Int.String()
	case stack.KindNull:
		return "null"
	case stack.KindCell:
		return "cell " + e.Cell.Hash().Hex()
	case stack.KindSlice:
		return "slice"
	case stack.KindBuilder:
		return "builder"
	case stack.KindCont:
		return "continuation"
	case stack.KindTuple:
		return fmt.Sprintf("tuple[%d]", len(e.Tuple))
	default:
		return "?"
	}
}

// exitCodeFor maps a VM exit code onto a process exit status: codes above
// 1 are VM-level exceptions/alternate-success codes, reported verbatim
// when they fit a byte, clamped otherwise.
func exitCodeFor(vmExit int) int {
	if vmExit < 0 {
		return 255
	}
	if vmExit > 254 {
		return 254
	}
	return vmExit
}
