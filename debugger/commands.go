package debugger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Lrns123/SynacorChallenge/disasm"
	"github.com/Lrns123/SynacorChallenge/loader"
	"github.com/Lrns123/SynacorChallenge/vm"
)

// Command is one REPL command: its usage/description text (the single
// source of truth for both the bare "help" listing and "help <cmd>") and
// the handler that implements it.
type Command struct {
	Usage       string
	Description string
	Run         func(d *Debugger, args []string) error
}

// commandOrder fixes the listing order of "help" with no arguments.
var commandOrder = []string{
	"quit", "help", "clear", "reset", "load", "step", "run", "reg",
	"mem", "pc", "dis", "break", "unbreak", "dumpasm", "dump", "stack",
}

var commandTable = map[string]Command{
	"quit": {
		Usage:       "quit",
		Description: "Quits the interactive debugger.",
		Run:         func(d *Debugger, args []string) error { return ErrQuit },
	},
	"help": {
		Usage:       "help [<command>]",
		Description: "Lists all commands, or shows description of <command>.",
	},
	"clear": {
		Usage:       "clear",
		Description: "Clears the VM, wiping all memory.",
		Run: func(d *Debugger, args []string) error {
			d.VM.Clear()
			fmt.Fprintln(d.Out, "Virtual machine cleared.")
			return nil
		},
	},
	"reset": {
		Usage:       "reset",
		Description: "Resets the VM, clearing registers and stack, but leaves memory intact.",
		Run: func(d *Debugger, args []string) error {
			d.VM.Reset()
			fmt.Fprintln(d.Out, "Virtual machine reset.")
			return nil
		},
	},
	"load": {
		Usage:       "load <filename>",
		Description: "Loads the binary <filename> at address 0.",
		Run:         cmdLoad,
	},
	"step": {
		Usage:       "step [<count>]",
		Description: "Executes one or <count> instructions.",
		Run:         cmdStep,
	},
	"run": {
		Usage:       "run",
		Description: "Executes the program.",
		Run:         func(d *Debugger, args []string) error { return d.runLoop(-1) },
	},
	"reg": {
		Usage:       "reg [<id>] [<value>]",
		Description: "Shows the value of <id> or all registers, or changes it to <value>.",
		Run:         cmdReg,
	},
	"mem": {
		Usage:       "mem <address> [<value>]",
		Description: "Shows the value of memory address <address>, or changes it to <value>.",
		Run:         cmdMem,
	},
	"pc": {
		Usage:       "pc [<address>]",
		Description: "Shows or changes the program counter to <address>.",
		Run:         cmdPC,
	},
	"dis": {
		Usage:       "dis <address> [<count>]",
		Description: "Disassembles one or <count> instructions, starting at <address>.",
		Run:         cmdDis,
	},
	"break": {
		Usage:       "break [<address>]",
		Description: "Adds a breakpoint at <address>, or lists all active breakpoints.",
		Run:         cmdBreak,
	},
	"unbreak": {
		Usage:       "unbreak [<address>]",
		Description: "Removes a breakpoint at <address>, or removes all active breakpoints.",
		Run:         cmdUnbreak,
	},
	"dumpasm": {
		Usage:       "dumpasm <filename> [<start>] [<end>]",
		Description: "Dumps the disassembly to <filename>. Optionally starting and ending at <start> and <end>.",
		Run:         cmdDumpAsm,
	},
	"dump": {
		Usage:       "dump <filename> [<start>] [<end>]",
		Description: "Dumps the binary to <filename>. Optionally starting and ending at <start> and <end>.",
		Run:         cmdDump,
	},
	"stack": {
		Usage:       "stack",
		Description: "Shows the current stack.",
		Run:         cmdStack,
	},
}

// help reads commandTable, so its handler is attached here rather than in
// the table literal, which would be an initialization cycle.
func init() {
	help := commandTable["help"]
	help.Run = cmdHelp
	commandTable["help"] = help
}

// parseAuto parses a number with radix auto-detection: a leading "0x"/"0X"
// selects hex, a leading "0" selects octal, otherwise decimal.
func parseAuto(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// parseHex parses a hexadecimal number, with or without a leading 0x.
func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex number %q", s)
	}
	return v, nil
}

func cmdHelp(d *Debugger, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(d.Out, "Available commands:")
		for _, name := range commandOrder {
			fmt.Fprintln(d.Out, commandTable[name].Usage)
		}
		return nil
	}

	cmd, ok := commandTable[args[1]]
	if !ok {
		fmt.Fprintf(d.Out, "Unknown command %q.\n", args[1])
		return nil
	}
	fmt.Fprintln(d.Out, cmd.Usage)
	fmt.Fprintln(d.Out, cmd.Description)
	return nil
}

func cmdLoad(d *Debugger, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(d.Out, "Please specify a file name to load.")
		return nil
	}
	end, err := loader.Load(d.VM, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(d.Out, "Binary loaded into VM. (From 0x0 to 0x%X)\n", end-1)
	return nil
}

func cmdStep(d *Debugger, args []string) error {
	n := 1
	if len(args) >= 2 {
		v, err := parseAuto(args[1])
		if err != nil {
			return err
		}
		n = int(v)
	}
	if err := d.runLoop(n); err != nil {
		return err
	}
	d.printDisassembly(d.VM.PC)
	return nil
}

func cmdReg(d *Debugger, args []string) error {
	switch len(args) {
	case 1:
		for i := uint16(0); i < vm.NumRegisters; i++ {
			val, _ := d.VM.Registers.Read(i)
			fmt.Fprintf(d.Out, "R%d = 0x%X\n", i, val)
		}
	case 2:
		id, err := parseAuto(args[1])
		if err != nil {
			return err
		}
		id &= vm.LiteralMask
		if id >= vm.NumRegisters {
			fmt.Fprintln(d.Out, "Invalid register.")
			return nil
		}
		val, _ := d.VM.Registers.Read(uint16(id))
		fmt.Fprintf(d.Out, "R%d = 0x%X\n", id, val)
	default:
		id, err := parseAuto(args[1])
		if err != nil {
			return err
		}
		value, err := parseAuto(args[2])
		if err != nil {
			return err
		}
		id &= vm.LiteralMask
		value &= vm.LiteralMask
		if id >= vm.NumRegisters {
			fmt.Fprintln(d.Out, "Invalid register.")
			return nil
		}
		if id == 7 && d.ConfirmR7 {
			current, _ := d.VM.Registers.Read(7)
			fmt.Fprintf(d.Out, "Overwrite R7 (currently 0x%X) with 0x%X? [y/N] ", current, value)
			answer, err := d.VM.Input.ReadString('\n')
			if err != nil && err != io.EOF {
				return err
			}
			answer = strings.TrimSpace(answer)
			if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
				fmt.Fprintln(d.Out, "Cancelled.")
				return nil
			}
		}
		fmt.Fprintf(d.Out, "R%d := 0x%X\n", id, value)
		return d.VM.Registers.Write(uint16(id), uint16(value))
	}
	return nil
}

func cmdMem(d *Debugger, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(d.Out, "Missing address")
		return nil
	}

	addr, err := parseHex(args[1])
	if err != nil {
		return err
	}
	addr &= vm.LiteralMask
	if addr > vm.MaxAddress {
		fmt.Fprintln(d.Out, "Invalid address.")
		return nil
	}

	if len(args) < 3 {
		fmt.Fprintf(d.Out, "M[0x%X] = 0x%X\n", addr, d.VM.Memory.Word(uint16(addr)))
		return nil
	}

	value, err := parseAuto(args[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(d.Out, "M[0x%X] := 0x%X\n", addr, value)
	d.VM.Memory.SetWord(uint16(addr), uint16(value))
	return nil
}

func cmdPC(d *Debugger, args []string) error {
	if len(args) < 2 {
		fmt.Fprintf(d.Out, "PC = 0x%X\n", d.VM.PC)
		return nil
	}

	addr, err := parseHex(args[1])
	if err != nil {
		return err
	}
	addr &= vm.LiteralMask
	if addr > vm.MaxAddress {
		fmt.Fprintln(d.Out, "Invalid address.")
		return nil
	}
	fmt.Fprintf(d.Out, "PC := 0x%X\n", addr)
	d.VM.PC = uint16(addr)
	return nil
}

func cmdDis(d *Debugger, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(d.Out, "Missing address")
		return nil
	}

	addr, err := parseHex(args[1])
	if err != nil {
		return err
	}
	addr &= vm.LiteralMask

	count := uint64(1)
	if len(args) >= 3 {
		count, err = parseAuto(args[2])
		if err != nil {
			return err
		}
	}

	ip := uint16(addr)
	for {
		ip = d.printDisassembly(ip)
		if ip > vm.MaxAddress {
			break
		}
		count--
		if count == 0 {
			break
		}
	}
	return nil
}

func cmdBreak(d *Debugger, args []string) error {
	if len(args) < 2 {
		list := d.Breakpoints.List()
		if len(list) == 0 {
			fmt.Fprintln(d.Out, "No breakpoints")
			return nil
		}
		fmt.Fprintln(d.Out, "Breakpoints:")
		for _, addr := range list {
			d.printDisassembly(addr)
		}
		return nil
	}

	addr, err := parseHex(args[1])
	if err != nil {
		return err
	}
	addr &= vm.LiteralMask
	if addr > vm.MaxAddress {
		fmt.Fprintln(d.Out, "Invalid address.")
		return nil
	}

	d.Breakpoints.Add(uint16(addr))
	fmt.Fprint(d.Out, "Added breakpoint at ")
	d.printDisassembly(uint16(addr))
	return nil
}

func cmdUnbreak(d *Debugger, args []string) error {
	if len(args) < 2 {
		d.Breakpoints.Clear()
		fmt.Fprintln(d.Out, "Removed all breakpoints")
		return nil
	}

	addr, err := parseHex(args[1])
	if err != nil {
		return err
	}
	addr &= vm.LiteralMask

	if d.Breakpoints.Remove(uint16(addr)) {
		fmt.Fprintf(d.Out, "Removed breakpoint at 0x%X\n", addr)
	} else {
		fmt.Fprintf(d.Out, "No breakpoint on address 0x%X\n", addr)
	}
	return nil
}

// dumpRange parses the optional [start end] pair common to dumpasm/dump,
// swapping them if start > end.
func dumpRange(args []string) (uint16, uint16, error) {
	start := uint64(0)
	end := uint64(vm.MemorySize)

	var err error
	if len(args) >= 3 {
		start, err = parseHex(args[2])
		if err != nil {
			return 0, 0, err
		}
	}
	if len(args) >= 4 {
		end, err = parseHex(args[3])
		if err != nil {
			return 0, 0, err
		}
	}

	if start > vm.MemorySize {
		start = vm.MemorySize
	}
	if end > vm.MemorySize {
		end = vm.MemorySize
	}
	if start > end {
		start, end = end, start
	}
	return uint16(start), uint16(end), nil
}

func cmdDumpAsm(d *Debugger, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(d.Out, "Missing filename")
		return nil
	}

	start, end, err := dumpRange(args)
	if err != nil {
		return err
	}

	f, err := os.Create(args[1]) // #nosec G304 -- user-specified dump path
	if err != nil {
		fmt.Fprintf(d.Out, "Cannot open %s for writing\n", args[1])
		return nil
	}
	defer f.Close()

	fmt.Fprintln(f, "Synacor VM Disassembly")
	fmt.Fprintln(f)

	for ip := start; ip < end; {
		text, next := disasm.Disassemble(d.VM.Memory, ip)
		fmt.Fprintf(f, "%04X: %s\n", ip, text)
		ip = next
	}

	fmt.Fprintf(d.Out, "Disassembly dumped to %s\n", args[1])
	return nil
}

func cmdDump(d *Debugger, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(d.Out, "Missing filename")
		return nil
	}

	start, end, err := dumpRange(args)
	if err != nil {
		return err
	}

	f, err := os.Create(args[1]) // #nosec G304 -- user-specified dump path
	if err != nil {
		fmt.Fprintf(d.Out, "Cannot open %s for writing\n", args[1])
		return nil
	}
	defer f.Close()

	buf := make([]byte, 2)
	for addr := start; addr < end; addr++ {
		val := d.VM.Memory.Word(addr)
		buf[0] = byte(val)
		buf[1] = byte(val >> 8)
		if _, err := f.Write(buf); err != nil {
			return err
		}
	}

	fmt.Fprintf(d.Out, "Binary dumped to %s\n", args[1])
	return nil
}

func cmdStack(d *Debugger, args []string) error {
	stack := d.VM.Stack
	for i := len(stack) - 1; i >= 0; i-- {
		fmt.Fprintf(d.Out, "[%04X] = %04X\n", i, stack[i])
	}
	return nil
}
