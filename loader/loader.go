// Package loader reads a flat binary program image into VM memory.
package loader

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/Lrns123/SynacorChallenge/vm"
)

// Load clears the VM, then reads path as a stream of little-endian 16-bit
// words, writing them into memory starting at address 0. It stops at EOF
// or at address 32768 (files larger than 32768 words are truncated
// without error; a trailing odd byte is dropped). It returns the address
// immediately past the last word written - the program length in words.
func Load(machine *vm.VM, path string) (uint16, error) {
	f, err := os.Open(path) // #nosec G304 -- caller-specified program image
	if err != nil {
		return 0, fmt.Errorf("could not open binary: %w", err)
	}
	defer f.Close()

	machine.Clear()

	var addr uint16
	buf := make([]byte, 2)
	for addr < vm.MemorySize {
		if _, err := io.ReadFull(f, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return 0, fmt.Errorf("reading binary: %w", err)
		}
		machine.Memory.SetWord(addr, binary.LittleEndian.Uint16(buf))
		addr++
	}

	return addr, nil
}
