package vm_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lrns123/SynacorChallenge/vm"
)

func newMachine(program []uint16) *vm.VM {
	machine := vm.NewVM()
	machine.Memory.LoadWords(program)
	machine.Output = &bytes.Buffer{}
	return machine
}

// --- Concrete seed-test scenarios ---

func TestScenarioSmoke(t *testing.T) {
	machine := newMachine([]uint16{9, 32768, 32769, 4, 19, 32768, 0})
	require.NoError(t, machine.Registers.Write(1, 5))

	require.NoError(t, machine.Run())

	out := machine.Output.(*bytes.Buffer)
	assert.Equal(t, "\t", out.String())

	r0, err := machine.Registers.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(9), r0)
}

func TestScenarioSelfModifying(t *testing.T) {
	machine := newMachine([]uint16{1, 32768, 72, 19, 32768, 0})
	require.NoError(t, machine.Run())
	assert.Equal(t, "H", machine.Output.(*bytes.Buffer).String())
}

func TestScenarioJump(t *testing.T) {
	machine := newMachine([]uint16{6, 4, 0, 0, 19, 33, 0})
	require.NoError(t, machine.Run())
	assert.Equal(t, "!", machine.Output.(*bytes.Buffer).String())
}

func TestScenarioCallRet(t *testing.T) {
	machine := newMachine([]uint16{17, 4, 0, 0, 19, 65, 18})
	require.NoError(t, machine.Run())
	assert.Equal(t, "A", machine.Output.(*bytes.Buffer).String())
}

func TestScenarioPushPop(t *testing.T) {
	machine := newMachine([]uint16{2, 7, 3, 32768, 19, 32768, 0})
	require.NoError(t, machine.Run())
	assert.Equal(t, string([]byte{7}), machine.Output.(*bytes.Buffer).String())
}

func TestScenarioModularArithmetic(t *testing.T) {
	// set R0 32767; add R1 R0 R0; out R1; halt
	machine := newMachine([]uint16{1, 32768, 32767, 9, 32769, 32768, 32768, 19, 32769, 0})
	require.NoError(t, machine.Run())

	r1, err := machine.Registers.Read(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(32766), r1)
}

func TestScenarioInterrupt(t *testing.T) {
	// in R0; out R0; jmp 0
	machine := newMachine([]uint16{20, 32768, 19, 32768, 6, 0})
	machine.Input = bufio.NewReader(strings.NewReader(""))

	err := machine.Run()
	require.ErrorIs(t, err, vm.ErrInterrupted)
}

func TestScenarioInterruptViaEscapeChar(t *testing.T) {
	machine := newMachine([]uint16{20, 32768, 19, 32768, 6, 0})
	machine.EscapeChar = '#'
	machine.Input = bufio.NewReader(strings.NewReader("#"))

	err := machine.Run()
	require.ErrorIs(t, err, vm.ErrInterrupted)
}

// --- Universal invariants ---

func TestPCAdvancesByOperandCount(t *testing.T) {
	machine := newMachine([]uint16{9, 32768, 1, 1, 21}) // add R0, 1, 1; noop
	cont, err := machine.Step()
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, uint16(4), machine.PC)
}

func TestControlFlowWritesPCDirectly(t *testing.T) {
	machine := newMachine([]uint16{6, 10})
	cont, err := machine.Step()
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, uint16(10), machine.PC)
}

func TestWritingOpcodeResultsStayInRange(t *testing.T) {
	machine := newMachine([]uint16{9, 32768, 32767, 32767}) // add R0, 32767, 32767
	_, err := machine.Step()
	require.NoError(t, err)

	r0, err := machine.Registers.Read(0)
	require.NoError(t, err)
	assert.LessOrEqual(t, r0, uint16(0x7FFF))
}

func TestAddModularArithmetic(t *testing.T) {
	tests := []struct{ b, c, want uint16 }{
		{0, 0, 0},
		{32767, 1, 0},
		{32767, 32767, 32766},
		{100, 200, 300},
	}
	for _, tt := range tests {
		machine := newMachine([]uint16{9, 32768, tt.b, tt.c})
		_, err := machine.Step()
		require.NoError(t, err)
		r0, err := machine.Registers.Read(0)
		require.NoError(t, err)
		assert.Equal(t, tt.want, r0)
	}
}

func TestMultModularArithmetic(t *testing.T) {
	machine := newMachine([]uint16{10, 32768, 200, 200}) // 40000 mod 32768 = 7232
	_, err := machine.Step()
	require.NoError(t, err)
	r0, err := machine.Registers.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(7232), r0)
}

func TestNotIsInvolution(t *testing.T) {
	for x := uint16(0); x <= 0x7FFF; x += 997 {
		machine := newMachine([]uint16{14, 32768, x, 14, 32769, 32768})
		_, err := machine.Step()
		require.NoError(t, err)
		_, err = machine.Step()
		require.NoError(t, err)

		r1, err := machine.Registers.Read(1)
		require.NoError(t, err)
		assert.Equal(t, x, r1)
	}
}

func TestPushPopInverse(t *testing.T) {
	machine := newMachine([]uint16{2, 42, 3, 32768})
	depthBefore := len(machine.Stack)
	_, err := machine.Step()
	require.NoError(t, err)
	_, err = machine.Step()
	require.NoError(t, err)

	assert.Equal(t, depthBefore, len(machine.Stack))
	r0, err := machine.Registers.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), r0)
}

func TestCallRetRestoresPC(t *testing.T) {
	machine := newMachine([]uint16{17, 10, 0, 0, 0, 0, 0, 0, 0, 0, 18})
	_, err := machine.Step() // call 10
	require.NoError(t, err)
	assert.Equal(t, uint16(10), machine.PC)

	machine.PC = 10
	_, err = machine.Step() // ret
	require.NoError(t, err)
	assert.Equal(t, uint16(2), machine.PC)
}

func TestClearZeroesEverything(t *testing.T) {
	machine := newMachine([]uint16{1, 2, 3})
	require.NoError(t, machine.Registers.Write(0, 5))
	machine.Stack = append(machine.Stack, 1, 2, 3)
	machine.PC = 5

	machine.Clear()

	assert.Equal(t, uint16(0), machine.PC)
	assert.Empty(t, machine.Stack)
	r0, err := machine.Registers.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), r0)
	assert.Equal(t, uint16(0), machine.Memory.Word(0))
}

func TestResetPreservesMemory(t *testing.T) {
	machine := newMachine([]uint16{1, 2, 3})
	require.NoError(t, machine.Registers.Write(0, 5))
	machine.Stack = append(machine.Stack, 1)
	machine.PC = 2

	machine.Reset()

	assert.Equal(t, uint16(0), machine.PC)
	assert.Empty(t, machine.Stack)
	assert.Equal(t, uint16(1), machine.Memory.Word(0))
}

// --- Boundary behaviors ---

func TestModByZeroFaults(t *testing.T) {
	machine := newMachine([]uint16{11, 32768, 10, 0})
	_, err := machine.Step()
	var fault *vm.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, vm.FaultDivideByZero, fault.Kind)
}

func TestRmemThroughRegisterAliasedAddress(t *testing.T) {
	// R1 holds a register-aliased "address" (0x8000|0, i.e. a reference to
	// R0 itself); rmem R2, R1 resolves R1's value as the source address, and
	// that address in turn aliases R0.
	machine := newMachine([]uint16{15, 32770, 32769})
	require.NoError(t, machine.Registers.Write(0, 99))
	require.NoError(t, machine.Registers.Write(1, 32768))

	_, err := machine.Step()
	require.NoError(t, err)

	r2, err := machine.Registers.Read(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(99), r2)
}

func TestRetOnEmptyStackHalts(t *testing.T) {
	machine := newMachine([]uint16{18})
	cont, err := machine.Step()
	require.NoError(t, err)
	assert.False(t, cont)
}

func TestUnknownOpcodeFaults(t *testing.T) {
	machine := newMachine([]uint16{9999})
	_, err := machine.Step()
	var fault *vm.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, vm.FaultUnknownOpcode, fault.Kind)
}

func TestStackUnderflowFaults(t *testing.T) {
	machine := newMachine([]uint16{3, 32768}) // pop R0 on empty stack
	_, err := machine.Step()
	var fault *vm.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, vm.FaultStackUnderflow, fault.Kind)
}

func TestInvalidRegisterDestinationFaults(t *testing.T) {
	// set <literal>, 5 -- destination operand must be a register.
	machine := newMachine([]uint16{1, 5, 5})
	_, err := machine.Step()
	var fault *vm.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, vm.FaultNotARegister, fault.Kind)
}

// --- Round-trip law ---

func TestLoadWordsRoundTrips(t *testing.T) {
	words := []uint16{1, 2, 3, 4, 5, 0xFFFF, 0}
	machine := vm.NewVM()
	n := machine.Memory.LoadWords(words)
	require.Equal(t, len(words), n)

	for i, want := range words {
		assert.Equal(t, want, machine.Memory.Word(uint16(i)))
	}
}
