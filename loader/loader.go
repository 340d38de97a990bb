// Package loader reads binary-encoded instruction files: one 32-character
// line of '0'/'1' per instruction. Blank lines load as the zero word (nop).
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mkarimi/mips-emulator/vm"
)

// LoadFile reads an instruction file from disk.
func LoadFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read instruction file: %w", err)
	}
	defer f.Close()
	words, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return words, nil
}

// Parse reads instruction words from r, one per line. Surrounding whitespace
// is trimmed; an empty line is a nop; anything else must be exactly 32
// binary digits.
func Parse(r io.Reader) ([]uint32, error) {
	var words []uint32
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			words = append(words, 0)
			continue
		}
		word, err := vm.ParseWord(line)
		if err != nil {
			return nil, fmt.Errorf("malformed instruction at line %d: %w", lineNo, err)
		}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read instruction file: %w", err)
	}
	return words, nil
}

// LoadProgramIntoSimulator loads the file at path into the simulator's
// instruction memory.
func LoadProgramIntoSimulator(s *vm.Simulator, path string) error {
	words, err := LoadFile(path)
	if err != nil {
		return err
	}
	return s.LoadProgram(words)
}
