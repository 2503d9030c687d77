package teleporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lrns123/SynacorChallenge/vm"
)

// f(r0, r1) with r7 == 0 collapses to the well-known "sum with wraparound"
// recurrence: f(0, r1) = r1+1, f(r0, 0) = f(r0-1, 0), f(r0, r1) =
// f(r0-1, f(r0, r1-1)). With r7 = 0, f(r0, 0) = f(r0-1, 0) = ... = f(0, 0)
// = 1 for every r0. We instead pin down a couple of small, hand-checkable
// points rather than reproduce the full puzzle's closed form.
func TestConfirmBaseCase(t *testing.T) {
	machine := &vm.VM{Memory: vm.NewMemory()}

	result := Confirm(machine, 0, 41, 0)
	require.Equal(t, uint16(42), result)

	r0, err := machine.Registers.Read(0)
	require.NoError(t, err)
	require.Equal(t, uint16(42), r0)

	r7, err := machine.Registers.Read(7)
	require.NoError(t, err)
	require.Equal(t, uint16(0), r7)
}

func TestConfirmR0OneIsR7PlusOne(t *testing.T) {
	// f(1, 0) = f(0, r7) = r7+1, for any r7.
	machine := &vm.VM{Memory: vm.NewMemory()}
	result := Confirm(machine, 1, 0, 100)
	require.Equal(t, uint16(101), result)
}

func TestConfirmMatchesRecursiveDefinitionForSmallR0(t *testing.T) {
	var recurse func(r0, r1, r7 uint16) uint16
	recurse = func(r0, r1, r7 uint16) uint16 {
		switch {
		case r0 == 0:
			return uint16((uint32(r1) + 1) % vm.MemorySize)
		case r1 == 0:
			return recurse(r0-1, r7, r7)
		default:
			return recurse(r0-1, recurse(r0, r1-1, r7), r7)
		}
	}

	machine := &vm.VM{Memory: vm.NewMemory()}
	for r0 := uint16(0); r0 <= 2; r0++ {
		for r1 := uint16(0); r1 <= 5; r1++ {
			for r7 := uint16(0); r7 <= 3; r7++ {
				want := recurse(r0, r1, r7)
				got := Confirm(machine, r0, r1, r7)
				require.Equalf(t, want, got, "r0=%d r1=%d r7=%d", r0, r1, r7)
			}
		}
	}
}

func TestSearchFindsCandidate(t *testing.T) {
	// Pick a goal reachable at r0=1 (f(1, 0, r7) = r7+1) so the search
	// space is trivial to brute force in a test: the answer is goal-1.
	machine := &vm.VM{Memory: vm.NewMemory()}

	result, err := Search(context.Background(), machine, 1, 0, 43)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, uint16(42), result.Candidate)
}

func TestSearchReportsNotFound(t *testing.T) {
	machine := &vm.VM{Memory: vm.NewMemory()}

	// f(0, r1, r7) never depends on r7, and can never reach a value that
	// requires MemorySize itself (results are always mod MemorySize), so
	// asking for MemorySize exactly is unreachable.
	result, err := Search(context.Background(), machine, 0, 0, vm.MemorySize)
	require.NoError(t, err)
	require.False(t, result.Found)
}
