package vm

import (
	"fmt"
)

// Default geometry for a simulation. Word index i of a fresh data memory
// holds the value i; instruction memory is zeroed around the loaded program.
const (
	DefaultMemoryWords = 4096
	DefaultCacheSize   = 256 // bytes
	DefaultBlockSize   = 32  // bytes per line
	DefaultCacheWays   = 2
)

// Memory is a flat, word-addressable store of 32-bit words. Instruction
// memory and data memory are separate instances with identical shape.
type Memory struct {
	words []uint32
}

// NewMemory creates a zeroed memory of the given number of words.
func NewMemory(size int) *Memory {
	return &Memory{words: make([]uint32, size)}
}

// NewDataMemory creates a data memory where word index i holds the 32-bit
// encoding of i.
func NewDataMemory(size int) *Memory {
	m := NewMemory(size)
	for i := range m.words {
		m.words[i] = uint32(i)
	}
	return m
}

// Size returns the number of words.
func (m *Memory) Size() int {
	return len(m.words)
}

// ReadWord returns the word at the given word address.
func (m *Memory) ReadWord(address uint32) (uint32, error) {
	if int(address) >= len(m.words) {
		return 0, fmt.Errorf("memory access violation: word address %d is outside memory of %d words", address, len(m.words))
	}
	return m.words[address], nil
}

// WriteWord stores value at the given word address.
func (m *Memory) WriteWord(address uint32, value uint32) error {
	if int(address) >= len(m.words) {
		return fmt.Errorf("memory access violation: word address %d is outside memory of %d words", address, len(m.words))
	}
	m.words[address] = value
	return nil
}
