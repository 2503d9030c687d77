// Package disasm renders VM memory as text. It is a pure function over
// memory: given an address, it tells you what instruction lives there and
// how far past it the next one starts. It has no knowledge of a running
// VM, breakpoints, or the debugger shell built on top of it.
package disasm

import (
	"fmt"
	"strings"

	"github.com/Lrns123/SynacorChallenge/vm"
)

// MemoryReader is the minimal view of memory the disassembler needs: raw
// word access with no register-aliasing decode (disassembly only ever
// walks literal addresses in [0, 32767]).
type MemoryReader interface {
	Word(addr uint16) uint16
}

// Disassemble reads the word at addr. If it names a known opcode, it emits
// the mnemonic followed by that opcode's operand count of formatted
// operands; an unknown opcode emits "dw <word>" (data word). It returns the
// rendered text and the address immediately past what it consumed.
//
// If addr >= 32768 it emits "err" without consuming, and it never reads an
// operand past address 32767.
func Disassemble(mem MemoryReader, addr uint16) (string, uint16) {
	if addr > vm.MaxAddress {
		return "err", addr
	}

	var b strings.Builder
	opcode := mem.Word(addr)
	addr++

	info, ok := vm.LookupOpcode(opcode)
	if !ok {
		b.WriteString("dw ")
		b.WriteString(FormatOperand(opcode))
		return b.String(), addr
	}

	b.WriteString(info.Mnemonic)
	for i := 0; i < info.Operands && addr <= vm.MaxAddress; i++ {
		b.WriteByte(' ')
		b.WriteString(FormatOperand(mem.Word(addr)))
		addr++
	}

	return b.String(), addr
}

// FormatOperand renders a single operand word:
//   - a literal < 0x8000 as its decimal value, with an ASCII glyph
//     annotation when it's < 256;
//   - a register reference (0x8000-0x8007) as R0..R7;
//   - anything else as Err(<value>).
func FormatOperand(w uint16) string {
	if w < vm.RegisterBit {
		if w >= 256 {
			return fmt.Sprintf("%d", w)
		}
		return fmt.Sprintf("%d '%s'", w, glyph(byte(w)))
	}

	reg := w & vm.LiteralMask
	if reg < vm.NumRegisters {
		return fmt.Sprintf("R%d", reg)
	}
	return fmt.Sprintf("Err(%d)", w)
}

// glyph renders the ASCII annotation for a sub-256 operand value: the
// escape form for \n, \r, \t, a space for other control characters, and the
// character itself otherwise.
func glyph(b byte) string {
	switch b {
	case '\n':
		return "\\n"
	case '\r':
		return "\\r"
	case '\t':
		return "\\t"
	}
	if b < 0x20 {
		return " "
	}
	return string(rune(b))
}
