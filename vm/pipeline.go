package vm

import (
	"fmt"
	"io"
)

// DrainCycles is the number of clocks the pipeline keeps ticking after the
// last instruction fetch so the final instruction can reach write-back.
const DrainCycles = 4

// Options configures a simulator. Zero fields take the package defaults.
type Options struct {
	MemoryWords int
	CacheSize   int
	BlockSize   int
	CacheWays   int
	TraceWriter io.Writer
}

// Simulator aggregates the full machine state for one run: register file,
// instruction and data memories, the data cache, the program counter and the
// four pipeline latches. Stages read the previous cycle's latches and
// publish next-cycle values; Step commits all of them atomically, so within
// a tick the five stages behave as if they ran in parallel.
type Simulator struct {
	Regs    *RegisterFile
	InstMem *Memory
	DataMem *Memory
	DCache  *Cache

	PC    uint32
	Cycle uint64

	ifid  IFID
	idex  IDEX
	exmem EXMEM
	memwb MEMWB

	InstCount  int
	StallCount uint64

	Trace *CycleTrace
	Stats *Statistics

	opts    Options
	program []uint32
}

// New builds a simulator. The data memory is initialized so word i holds i;
// instruction memory is zeroed until a program is loaded.
func New(opts Options) (*Simulator, error) {
	if opts.MemoryWords == 0 {
		opts.MemoryWords = DefaultMemoryWords
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.CacheWays == 0 {
		opts.CacheWays = DefaultCacheWays
	}

	s := &Simulator{
		Regs:    NewRegisterFile(),
		InstMem: NewMemory(opts.MemoryWords),
		DataMem: NewDataMemory(opts.MemoryWords),
		Stats:   NewStatistics(),
		opts:    opts,
	}
	cache, err := NewCache(opts.CacheSize, opts.BlockSize, opts.CacheWays, s.DataMem)
	if err != nil {
		return nil, err
	}
	s.DCache = cache
	if opts.TraceWriter != nil {
		s.Trace = NewCycleTrace(opts.TraceWriter)
	}
	return s, nil
}

// LoadProgram places the instruction words at the bottom of instruction
// memory and records the program length for the termination count.
func (s *Simulator) LoadProgram(words []uint32) error {
	if len(words) > s.InstMem.Size() {
		return fmt.Errorf("program of %d instructions exceeds instruction memory of %d words", len(words), s.InstMem.Size())
	}
	for i, w := range words {
		if err := s.InstMem.WriteWord(uint32(i), w); err != nil {
			return err
		}
	}
	s.InstCount = len(words)
	s.program = append(s.program[:0], words...)
	return nil
}

// Reset returns the machine to its constructed state and reloads the
// program: registers cleared, data memory re-initialized, cache cold,
// latches empty, clock at zero.
func (s *Simulator) Reset() error {
	s.Regs.Reset()
	s.InstMem = NewMemory(s.InstMem.Size())
	s.DataMem = NewDataMemory(s.DataMem.Size())
	cache, err := NewCache(s.DCache.Size, s.DCache.BlockSize, s.DCache.Ways, s.DataMem)
	if err != nil {
		return err
	}
	s.DCache = cache
	s.ifid, s.idex, s.exmem, s.memwb = IFID{}, IDEX{}, EXMEM{}, MEMWB{}
	s.PC = 0
	s.Cycle = 0
	s.StallCount = 0
	s.Stats = NewStatistics()
	return s.LoadProgram(s.program)
}

// TotalCycles is the current termination budget: one cycle per instruction,
// four drain cycles, plus one per stall inserted so far.
func (s *Simulator) TotalCycles() uint64 {
	return uint64(s.InstCount+DrainCycles) + s.StallCount
}

// Done reports whether the run has used its cycle budget.
func (s *Simulator) Done() bool {
	return s.Cycle >= s.TotalCycles()
}

// Run steps the clock until the budget is exhausted.
func (s *Simulator) Run() error {
	for !s.Done() {
		if err := s.Step(); err != nil {
			return err
		}
	}
	s.Stats.finish(s)
	return nil
}

// Step advances the simulation by one clock: all five stages run against the
// previous cycle's latches, hazards are resolved, and the new latch values
// are committed together.
func (s *Simulator) Step() error {
	wbText := s.writeBack()

	nextMEMWB, memText, err := s.memoryStage()
	if err != nil {
		return fmt.Errorf("cycle %d: %w", s.Cycle+1, err)
	}

	nextEXMEM, exText, branchTaken, branchTarget := s.executeStage()

	nextIDEX, deText, err := s.decodeStage()
	if err != nil {
		return fmt.Errorf("cycle %d: %w", s.Cycle+1, err)
	}

	// Load-use hazard: a load in EX whose target feeds the instruction in
	// decode forces one bubble.
	stall := s.idex.Ctrl.MemRead &&
		(s.idex.Fields.Rt == s.ifid.Fields.Rs || s.idex.Fields.Rt == s.ifid.Fields.Rt)

	word, err := s.InstMem.ReadWord(s.PC)
	if err != nil {
		return fmt.Errorf("cycle %d: instruction fetch: %w", s.Cycle+1, err)
	}
	nextIFID := IFID{PC: s.PC, IR: word, Fields: Split(word)}
	nextPC := s.PC + 1

	s.Trace.Fetched(word)
	s.Trace.Decoded(deText)
	s.Trace.Executed(exText)
	s.Trace.Memory(memText)
	s.Trace.WriteBack(wbText)

	if stall {
		s.StallCount++
		s.Trace.Stall()
		nextIFID = s.ifid
		nextIDEX = IDEX{}
		nextPC = s.PC
	}
	if branchTaken {
		nextIFID = IFID{}
		nextIDEX = IDEX{}
		nextPC = branchTarget
	}

	s.memwb = nextMEMWB
	s.exmem = nextEXMEM
	s.idex = nextIDEX
	s.ifid = nextIFID
	s.PC = nextPC
	s.Cycle++
	s.Trace.CycleEnd(s.Cycle)
	return nil
}

// forwardedOperand resolves a source register at EX: the EX hazard path from
// EX/MEM wins, then the MEM hazard path from MEM/WB, then the architectural
// register. A destination of $0 never forwards.
func (s *Simulator) forwardedOperand(reg uint32) uint32 {
	if s.exmem.Ctrl.RegWrite && s.exmem.Dest != 0 && s.exmem.Dest == reg {
		return s.exmem.ALUOut
	}
	if s.memwb.Ctrl.RegWrite && s.memwb.Dest != 0 && s.memwb.Dest == reg {
		return s.memwb.Result()
	}
	return s.Regs.Read(reg)
}

// decodeStage classifies the instruction in IF/ID and attaches its control
// bundle.
func (s *Simulator) decodeStage() (IDEX, string, error) {
	l := &s.ifid
	next := IDEX{PC: l.PC, IR: l.IR, Fields: l.Fields}
	if l.IR == 0 {
		return next, "nop", nil
	}
	ctrl, err := ControlFor(l.IR)
	if err != nil {
		return next, "", err
	}
	next.Ctrl = ctrl
	return next, Disassemble(l.IR), nil
}

// executeStage runs the ALU over the forwarded operands and resolves
// branches. It reports a taken branch and its word-address target.
func (s *Simulator) executeStage() (EXMEM, string, bool, uint32) {
	l := &s.idex
	next := EXMEM{PC: l.PC, IR: l.IR, Fields: l.Fields, Ctrl: l.Ctrl}
	next.Dest = l.Fields.Rt
	if l.Ctrl.RegDst {
		next.Dest = l.Fields.Rd
	}
	if l.IR == 0 {
		return next, "nop", false, 0
	}
	name, err := Mnemonic(l.IR)
	if err != nil {
		// Decode already rejected unknown words before they reach EX.
		return next, "unknown", false, 0
	}

	a := s.forwardedOperand(l.Fields.Rs)
	b := s.forwardedOperand(l.Fields.Rt)
	next.RtValue = b
	imm := SignExtend16(l.Fields.Imm)

	switch {
	case name == "break":
		return next, "break", false, 0

	case l.Ctrl.Branch:
		next.Zero = a == b
		taken := (name == "beq" && next.Zero) || (name == "bne" && !next.Zero)
		target := l.PC + 1 + imm
		if taken {
			return next, fmt.Sprintf("%s taken, target %d", Disassemble(l.IR), target), true, target
		}
		return next, fmt.Sprintf("%s not taken", Disassemble(l.IR)), false, 0

	case l.Ctrl.ALUOp == ALUOpFunct:
		switch name {
		case "add":
			next.ALUOut = ALUAdd(a, b)
		case "sub":
			next.ALUOut = ALUSub(a, b)
		case "and":
			next.ALUOut = ALUAnd(a, b)
		case "or":
			next.ALUOut = ALUOr(a, b)
		case "xor":
			next.ALUOut = ALUXor(a, b)
		case "nor":
			next.ALUOut = ALUNor(a, b)
		case "slt":
			next.ALUOut = ALUSlt(a, b)
		case "sll":
			next.ALUOut = ALUSll(a, l.Fields.Shamt)
		case "srl":
			next.ALUOut = ALUSrl(a, l.Fields.Shamt)
		case "mult":
			next.ALUOut = uint32(BoothMultiply(a, b, WordBits))
		}
		return next, fmt.Sprintf("%s = %s", Disassemble(l.IR), WordString(next.ALUOut)), false, 0

	case l.Ctrl.ALUSrc:
		switch name {
		case "andi":
			next.ALUOut = ALUAnd(a, imm)
		case "ori":
			next.ALUOut = ALUOr(a, imm)
		case "xori":
			next.ALUOut = ALUXor(a, imm)
		default: // addi, lw, sw
			next.ALUOut = ALUAdd(a, imm)
		}
		if l.Ctrl.MemRead || l.Ctrl.MemWrite {
			return next, fmt.Sprintf("%s address => %d", Disassemble(l.IR), next.ALUOut), false, 0
		}
		return next, fmt.Sprintf("%s = %s", Disassemble(l.IR), WordString(next.ALUOut)), false, 0

	default:
		// Reserved mnemonics and jumps retire without effect.
		return next, fmt.Sprintf("%s (no effect)", name), false, 0
	}
}

// memoryStage performs the cache access for loads and stores.
func (s *Simulator) memoryStage() (MEMWB, string, error) {
	l := &s.exmem
	next := MEMWB{PC: l.PC, IR: l.IR, Fields: l.Fields, Ctrl: l.Ctrl, ALUOut: l.ALUOut, Dest: l.Dest}

	switch {
	case l.Ctrl.MemRead:
		v, hit, err := s.DCache.Read(l.ALUOut)
		if err != nil {
			return next, "", err
		}
		next.MemData = v
		return next, fmt.Sprintf("%s\nlw %s value: %s", hitMiss(hit), RegisterName(l.Fields.Rt), WordString(v)), nil

	case l.Ctrl.MemWrite:
		hit, err := s.DCache.Write(l.ALUOut, l.RtValue, OriginCPU)
		if err != nil {
			return next, "", err
		}
		return next, fmt.Sprintf("%s\nsw %s value: %s saved at address %d", hitMiss(hit), RegisterName(l.Fields.Rt), WordString(l.RtValue), l.ALUOut), nil

	default:
		if l.IR == 0 {
			return next, "nop", nil
		}
		return next, "no cache needed for this instruction", nil
	}
}

func hitMiss(hit bool) string {
	if hit {
		return "cache hit"
	}
	return "cache miss"
}

// writeBack retires the instruction in MEM/WB, updating the register file
// when the control bundle asks for it.
func (s *Simulator) writeBack() string {
	l := &s.memwb
	if l.IR == 0 {
		return "nop"
	}
	name, err := Mnemonic(l.IR)
	if err != nil {
		return "unknown"
	}
	s.Stats.retire(name)

	switch {
	case l.Ctrl.MemToReg:
		s.Regs.Write(l.Dest, l.MemData)
		return fmt.Sprintf("reg file updated: %s = %d", RegisterName(l.Dest), int32(l.MemData))
	case l.Ctrl.RegWrite:
		s.Regs.Write(l.Dest, l.ALUOut)
		return fmt.Sprintf("reg file updated: %s = %d", RegisterName(l.Dest), int32(l.ALUOut))
	default:
		return name
	}
}

// Latches exposes the current latch values for the debugger views.
func (s *Simulator) Latches() (IFID, IDEX, EXMEM, MEMWB) {
	return s.ifid, s.idex, s.exmem, s.memwb
}
