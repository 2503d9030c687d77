// Package teleporter confirms candidate values for the Synacor Challenge's
// "teleporter" puzzle: find the value of R7 that makes the binary's
// recursive confirmation subroutine return 6 when called with R0=4, R1=1.
//
// The subroutine is defined (in the puzzle's own bytecode) as:
//
//	f(r0, r1) =
//	    r1 + 1                    if r0 == 0
//	    f(r0-1, r7)                if r0 != 0, r1 == 0
//	    f(r0-1, f(r0, r1-1))       otherwise   (mod 32768 throughout)
//
// Naive recursion over this definition blows up long before it reaches any
// answer - the same problem the original tool's own comments call out -
// so both it and this package instead compute it as a bottom-up table
// (confirmTable, grounded on original_source/tools/teleporter/main.cpp's
// runLinear), then write the observed result into a live vm.VM's R0
// register exactly as a completed call to the real subroutine would have
// left it.
package teleporter

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Lrns123/SynacorChallenge/vm"
)

// confirmTable is a reusable bottom-up evaluation buffer for f(r0, r1)
// at a fixed r0 bound. Row 0 - f(0, *) - depends on nothing candidate
// specific, so it is computed once and reused across every candidate a
// worker tries.
type confirmTable struct {
	rows [][]uint16
}

// newConfirmTable allocates a table good for any r0 in [0, maxR0].
func newConfirmTable(maxR0 uint16) *confirmTable {
	t := &confirmTable{rows: make([][]uint16, int(maxR0)+1)}
	for i := range t.rows {
		t.rows[i] = make([]uint16, vm.MemorySize)
	}
	for j := 0; j < vm.MemorySize; j++ {
		t.rows[0][j] = uint16((j + 1) % vm.MemorySize)
	}
	return t
}

// eval computes f(r0, r1) for the given candidate R7, filling rows 1..r0.
// r7 is masked to a valid memory-sized index: registers are 16 bits wide
// but every value the puzzle's bytecode ever produces is mod 32768.
func (t *confirmTable) eval(r0, r1, r7 uint16) uint16 {
	r7 %= vm.MemorySize
	r1 %= vm.MemorySize
	for i := 1; i <= int(r0); i++ {
		t.rows[i][0] = t.rows[i-1][r7]
		limit := vm.MemorySize
		if i == int(r0) {
			limit = int(r1) + 1
		}
		for j := 1; j < limit; j++ {
			t.rows[i][j] = t.rows[i-1][t.rows[i][j-1]]
		}
	}
	return t.rows[r0][r1]
}

// DefaultR0 and DefaultR1 are the arguments the Synacor Challenge's own
// confirmation call site uses.
const (
	DefaultR0 uint16 = 4
	DefaultR1 uint16 = 1
)

// Confirm evaluates f(r0, r1) for candidate R7 and reports the result,
// writing R0/R1/R7 into machine's registers to match the state a completed
// call to the puzzle's own confirmation subroutine would leave behind.
func Confirm(machine *vm.VM, r0, r1, candidate uint16) uint16 {
	table := newConfirmTable(r0)
	result := table.eval(r0, r1, candidate)

	_ = machine.Registers.Write(0, result)
	_ = machine.Registers.Write(1, r1)
	_ = machine.Registers.Write(7, candidate)
	return result
}

// Result reports the outcome of a Search.
type Result struct {
	Found     bool
	Candidate uint16
}

// searchState is the shared state the worker pool coordinates through,
// passed explicitly to each goroutine rather than captured as package
// globals (the original tool used three atomic globals for the same
// purpose; this keeps the counters, not the globals).
type searchState struct {
	next   atomic.Uint32 // next untried candidate
	found  atomic.Bool
	result atomic.Uint32 // candidate that confirmed, valid only if found
}

// Search brute-forces candidate R7 values in [1, 32767] across
// runtime.NumCPU() workers, each with its own VM instance (memory cloned
// from machine so workers never share mutable VM state) and its own
// confirmTable, stopping as soon as one worker confirms a candidate or ctx
// is cancelled.
func Search(ctx context.Context, machine *vm.VM, r0, r1, goal uint16) (Result, error) {
	state := &searchState{}
	state.next.Store(1)

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker := &vm.VM{Memory: machine.Memory.Clone()}
			table := newConfirmTable(r0)

			for {
				if state.found.Load() {
					return
				}
				select {
				case <-ctx.Done():
					return
				default:
				}

				candidate := state.next.Add(1) - 1
				if candidate > vm.MaxAddress {
					return
				}

				if table.eval(r0, r1, uint16(candidate)) == goal {
					_ = worker.Registers.Write(7, uint16(candidate))
					state.result.Store(candidate)
					state.found.Store(true)
					return
				}
			}
		}()
	}

	wg.Wait()

	if !state.found.Load() {
		return Result{Found: false}, nil
	}
	return Result{Found: true, Candidate: uint16(state.result.Load())}, nil
}
