// Package debugger implements the line-oriented REPL that drives one VM
// instance: command dispatch, breakpoints, and the interrupt-aware
// step/run loop.
package debugger

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Lrns123/SynacorChallenge/disasm"
	"github.com/Lrns123/SynacorChallenge/vm"
)

// ErrQuit is the terminal control signal raised by the quit command.
var ErrQuit = errors.New("quit")

// BreakpointHit is the control signal raised when PC lands on a breakpoint
// address immediately after an instruction retires. It is not a program
// fault.
type BreakpointHit struct {
	Addr uint16
}

func (e *BreakpointHit) Error() string {
	return fmt.Sprintf("breakpoint hit at 0x%04X", e.Addr)
}

// Debugger owns one VM instance and its breakpoint set. No other entity
// shares either.
type Debugger struct {
	VM          *vm.VM
	Breakpoints *BreakpointManager
	Out         io.Writer

	// History holds the most recent command lines, capped at
	// HistorySize entries (config package's debugger.history_size).
	// It is bookkeeping only - no command surfaces it directly - but a
	// complete shell keeps it regardless.
	History     []string
	HistorySize int

	// ConfirmR7 gates a confirmation prompt on `reg 7 <value>` (config
	// package's debugger.confirm_r7). R7 is the register the teleporter
	// puzzle's confirmation routine reads, so an accidental overwrite
	// from the debugger is the one register write worth a second look.
	ConfirmR7 bool
}

// NewDebugger wraps machine with a fresh, empty breakpoint set. historySize
// <= 0 disables history tracking.
func NewDebugger(machine *vm.VM, out io.Writer, historySize int, confirmR7 bool) *Debugger {
	return &Debugger{
		VM:          machine,
		Breakpoints: NewBreakpointManager(),
		Out:         out,
		HistorySize: historySize,
		ConfirmR7:   confirmR7,
	}
}

// recordHistory appends line to History, trimming from the front once
// HistorySize is exceeded.
func (d *Debugger) recordHistory(line string) {
	if d.HistorySize <= 0 {
		return
	}
	d.History = append(d.History, line)
	if excess := len(d.History) - d.HistorySize; excess > 0 {
		d.History = d.History[excess:]
	}
}

// printDisassembly writes "<addr>: <instruction>" to Out and returns the
// address immediately past what was disassembled.
func (d *Debugger) printDisassembly(addr uint16) uint16 {
	text, next := disasm.Disassemble(d.VM.Memory, addr)
	fmt.Fprintf(d.Out, "%04X: %s\n", addr, text)
	return next
}

// runLoop drives the VM forward, honoring breakpoints after each retired
// instruction. It stops after at most maxSteps instructions when
// maxSteps >= 0, or runs unbounded when maxSteps < 0. It returns nil on a
// clean halt,
// *BreakpointHit on a breakpoint, vm.ErrInterrupted on an interrupt, or
// any other fault the VM raised.
func (d *Debugger) runLoop(maxSteps int) error {
	for steps := 0; maxSteps < 0 || steps < maxSteps; steps++ {
		cont, err := d.VM.Step()
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
		if d.Breakpoints.Has(d.VM.PC) {
			return &BreakpointHit{Addr: d.VM.PC}
		}
	}
	return nil
}

// ExecuteCommand tokenizes a line on whitespace and dispatches to the
// matching command. Unknown commands report an error rather than failing
// silently.
func (d *Debugger) ExecuteCommand(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	d.recordHistory(line)

	cmd, ok := commandTable[fields[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return cmd.Run(d, fields)
}
