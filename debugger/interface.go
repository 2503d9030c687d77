package debugger

import (
	"errors"
	"fmt"
	"io"

	"github.com/Lrns123/SynacorChallenge/vm"
)

// prompt is printed before every command line.
const prompt = "VM> "

// RunShell drives the interactive REPL until the user quits or the command
// stream closes. It reads command lines from d.VM.Input - the VM's own
// stdin reader - rather than a second reader over os.Stdin, so that a
// program's `in` instruction and the debugger's own command prompt never
// race over the same underlying stream.
func RunShell(d *Debugger) error {
	for {
		fmt.Fprint(d.Out, prompt)

		line, err := d.VM.Input.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if runErr := d.ExecuteCommand(line); runErr != nil {
			if handleShellError(d, runErr) {
				return nil
			}
		}
	}
}

// handleShellError prints the message for one control signal or fault
// raised by a command. It reports whether the shell should stop.
func handleShellError(d *Debugger, err error) bool {
	var bp *BreakpointHit

	switch {
	case errors.Is(err, ErrQuit):
		return true
	case errors.As(err, &bp):
		fmt.Fprint(d.Out, "Breakpoint hit at ")
		d.printDisassembly(bp.Addr)
	case errors.Is(err, vm.ErrInterrupted):
		fmt.Fprint(d.Out, "VM Interrupted at ")
		d.printDisassembly(d.VM.PC)
	default:
		fmt.Fprintf(d.Out, "Error: %s\n", err.Error())
	}
	return false
}
