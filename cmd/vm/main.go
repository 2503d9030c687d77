// Command vm is the Synacor Challenge virtual machine: run a binary
// straight through, or drop into the interactive debugger.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/Lrns123/SynacorChallenge/config"
	"github.com/Lrns123/SynacorChallenge/debugger"
	"github.com/Lrns123/SynacorChallenge/loader"
	"github.com/Lrns123/SynacorChallenge/tools/teleporter"
	"github.com/Lrns123/SynacorChallenge/vm"
)

func main() {
	var (
		escapeChar = flag.String("escape", "", "interrupt escape character for blocked input (default from config)")
		configPath = flag.String("config", "", "load debugger preferences from this TOML file instead of the platform default")
		confirmR7  = flag.String("confirm-r7", "", "confirm a single R7 candidate against a loaded image and print the result")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	machine := vm.NewVM()
	if esc, ok := resolveEscapeChar(*escapeChar, cfg); ok {
		machine.EscapeChar = esc
	}

	if *confirmR7 != "" {
		candidate, err := strconv.ParseUint(*confirmR7, 0, 16)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -confirm-r7 candidate: %v\n", err)
			os.Exit(1)
		}
		if flag.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "usage: vm -confirm-r7 <candidate> <file>")
			os.Exit(1)
		}
		runConfirmR7(machine, flag.Arg(0), uint16(candidate))
		return
	}

	switch flag.NArg() {
	case 0:
		runDebugger(machine, cfg)
	case 1:
		runStandalone(machine, flag.Arg(0))
	default:
		fmt.Fprintln(os.Stderr, "usage: vm [<file>]")
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func resolveEscapeChar(flagValue string, cfg *config.Config) (byte, bool) {
	if flagValue != "" {
		return flagValue[0], true
	}
	return cfg.ResolveEscapeChar()
}

func runDebugger(machine *vm.VM, cfg *config.Config) {
	dbg := debugger.NewDebugger(machine, os.Stdout, cfg.Debugger.HistorySize, cfg.Debugger.ConfirmR7)
	if err := debugger.RunShell(dbg); err != nil {
		fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
		os.Exit(1)
	}
}

func runStandalone(machine *vm.VM, path string) {
	fmt.Print("Loading binary... ")
	n, err := loader.Load(machine, path)
	if err != nil {
		reportException(err)
	}
	fmt.Printf("%d words\n", n)

	fmt.Println("Executing...")
	fmt.Println()

	if err := machine.Run(); err != nil {
		reportException(err)
	}

	fmt.Println()
	fmt.Println()
	fmt.Println("Execution completed...")
}

func runConfirmR7(machine *vm.VM, path string, candidate uint16) {
	if _, err := loader.Load(machine, path); err != nil {
		reportException(err)
	}

	result := teleporter.Confirm(machine, teleporter.DefaultR0, teleporter.DefaultR1, candidate)
	fmt.Printf("f(%d, %d) with R7=%d => %d\n", teleporter.DefaultR0, teleporter.DefaultR1, candidate, result)
}

func reportException(err error) {
	fmt.Println()
	fmt.Println(" --- EXCEPTION ---")
	fmt.Println(err.Error())
	os.Exit(1)
}
