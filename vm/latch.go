package vm

// The four inter-stage latches. Each stage reads the latch its predecessor
// published in the previous cycle and publishes its own for the next one;
// the engine swaps all four atomically at the end of a tick. A zero-valued
// latch is a bubble: IR is the zero word and every control signal is clear.

// IFID carries the fetched instruction from fetch to decode.
type IFID struct {
	PC     uint32
	IR     uint32
	Fields Fields
}

// IDEX carries the decoded instruction and its control bundle into execute.
type IDEX struct {
	PC     uint32
	IR     uint32
	Fields Fields
	Ctrl   Control
}

// EXMEM carries the ALU result into the memory stage. RtValue is the store
// data for sw; Dest is the resolved destination register (rd or rt per
// regDst).
type EXMEM struct {
	PC      uint32
	IR      uint32
	Fields  Fields
	Ctrl    Control
	ALUOut  uint32
	RtValue uint32
	Dest    uint32
	Zero    bool
}

// MEMWB carries the memory word (for loads) and the ALU result into
// write-back.
type MEMWB struct {
	PC      uint32
	IR      uint32
	Fields  Fields
	Ctrl    Control
	ALUOut  uint32
	MemData uint32
	Dest    uint32
}

// Result is the value this instruction writes back: the memory word for
// loads, the ALU result otherwise.
func (l *MEMWB) Result() uint32 {
	if l.Ctrl.MemToReg {
		return l.MemData
	}
	return l.ALUOut
}
