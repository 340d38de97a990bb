package vm

import (
	"fmt"
)

// Fields is the bit-level decomposition of an instruction word.
type Fields struct {
	Opcode uint32 // [31:26]
	Rs     uint32 // [25:21]
	Rt     uint32 // [20:16]
	Rd     uint32 // [15:11]
	Shamt  uint32 // [10:6]
	Funct  uint32 // [5:0]
	Imm    uint16 // [15:0]
}

// Split decomposes an instruction word into its fields.
func Split(word uint32) Fields {
	return Fields{
		Opcode: word >> 26,
		Rs:     (word >> 21) & 0x1F,
		Rt:     (word >> 16) & 0x1F,
		Rd:     (word >> 11) & 0x1F,
		Shamt:  (word >> 6) & 0x1F,
		Funct:  word & 0x3F,
		Imm:    uint16(word & 0xFFFF),
	}
}

// Control is the signal bundle the decode stage produces. The zero value is
// a bubble: no stage downstream of it has any architectural effect.
type Control struct {
	RegDst   bool  // destination is rd (else rt)
	ALUSrc   bool  // second ALU operand is the sign-extended immediate
	MemToReg bool  // write-back value comes from memory
	ALUOp    uint8 // 0b00 add, 0b01 branch compare, 0b10 funct-directed
	MemRead  bool
	MemWrite bool
	Branch   bool
	RegWrite bool
}

// ALUOp values.
const (
	ALUOpAdd    = 0b00
	ALUOpBranch = 0b01
	ALUOpFunct  = 0b10
)

// rTypeFunct maps the funct field of opcode-zero instructions to mnemonics.
var rTypeFunct = map[uint32]string{
	0b100000: "add",
	0b100010: "sub",
	0b100100: "and",
	0b100101: "or",
	0b100110: "xor",
	0b100111: "nor",
	0b101010: "slt",
	0b000000: "sll",
	0b000010: "srl",
	0b001000: "jr",
	0b001100: "syscall",
	0b001101: "break",
	0b010000: "mfhi",
	0b010010: "mflo",
	0b011000: "mult",
	0b011001: "multu",
	0b011010: "div",
	0b011011: "divu",
	0b010001: "mthi",
	0b010011: "mtlo",
	0b100001: "movn",
	0b100011: "movz",
	0b101011: "sltu",
	0b101000: "addu",
	0b101001: "addiu",
	0b001111: "jal",
}

// iTypeOpcode maps non-zero opcodes to mnemonics; the funct field is a
// don't-care for these forms.
var iTypeOpcode = map[uint32]string{
	0b000100: "beq",
	0b000101: "bne",
	0b100011: "lw",
	0b101011: "sw",
	0b001000: "addi",
	0b001100: "andi",
	0b001101: "ori",
	0b001110: "xori",
	0b000010: "j",
	0b000011: "jal",
}

// aluITypes are the I-type instructions executed through the ALU.
var aluITypes = map[string]bool{
	"addi": true, "andi": true, "ori": true, "xori": true,
}

// rTypeExecuted are the R-type mnemonics with implemented EX semantics.
// Everything else that decodes retires as a traced nop.
var rTypeExecuted = map[string]bool{
	"add": true, "sub": true, "and": true, "or": true, "xor": true,
	"nor": true, "slt": true, "sll": true, "srl": true, "mult": true,
}

// Mnemonic resolves an instruction word to its mnemonic. Unknown
// (opcode, funct) pairs are decode errors.
func Mnemonic(word uint32) (string, error) {
	f := Split(word)
	if f.Opcode == 0 {
		if name, ok := rTypeFunct[f.Funct]; ok {
			return name, nil
		}
		return "", fmt.Errorf("unknown instruction: opcode %s funct %s", Bits(f.Opcode, 6), Bits(f.Funct, 6))
	}
	if name, ok := iTypeOpcode[f.Opcode]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown instruction: opcode %s funct %s", Bits(f.Opcode, 6), Bits(f.Funct, 6))
}

// IsRType reports whether the mnemonic is an R-form instruction.
func IsRType(name string) bool {
	switch name {
	case "add", "sub", "and", "or", "xor", "nor", "slt", "sll", "srl",
		"jr", "syscall", "break", "mfhi", "mflo", "mult", "multu", "div",
		"divu", "mthi", "mtlo", "movn", "movz", "sltu", "addu", "addiu":
		return true
	}
	return false
}

// IsIType reports whether the mnemonic is a non-branch I-form instruction.
func IsIType(name string) bool {
	switch name {
	case "addi", "andi", "ori", "xori", "lw", "sw":
		return true
	}
	return false
}

// IsBranch reports whether the mnemonic is a conditional branch.
func IsBranch(name string) bool {
	return name == "beq" || name == "bne"
}

// IsJump reports whether the mnemonic is a jump. Jumps decode and trace but
// do not redirect the PC in this core.
func IsJump(name string) bool {
	return name == "j" || name == "jal"
}

// ControlFor produces the control-signal bundle for an instruction word.
// The zero word, break, and every reserved mnemonic get bubble signals.
func ControlFor(word uint32) (Control, error) {
	if word == 0 {
		return Control{}, nil
	}
	name, err := Mnemonic(word)
	if err != nil {
		return Control{}, err
	}
	switch {
	case name == "lw":
		return Control{ALUSrc: true, MemToReg: true, ALUOp: ALUOpAdd, MemRead: true, RegWrite: true}, nil
	case name == "sw":
		return Control{ALUSrc: true, ALUOp: ALUOpAdd, MemWrite: true}, nil
	case IsBranch(name):
		return Control{ALUOp: ALUOpBranch, Branch: true}, nil
	case aluITypes[name]:
		return Control{ALUSrc: true, ALUOp: ALUOpAdd, RegWrite: true}, nil
	case rTypeExecuted[name]:
		return Control{RegDst: true, ALUOp: ALUOpFunct, RegWrite: true}, nil
	default:
		// break, jumps and the reserved R-type mnemonics retire with no
		// architectural effect.
		return Control{}, nil
	}
}

// Disassemble renders the decoded form of an instruction word for trace
// output: mnemonic followed by operand names.
func Disassemble(word uint32) string {
	if word == 0 {
		return "nop"
	}
	name, err := Mnemonic(word)
	if err != nil {
		return "unknown"
	}
	f := Split(word)
	switch {
	case name == "break" || name == "syscall":
		return name
	case name == "sll" || name == "srl":
		return fmt.Sprintf("%s %s %s %d", name, RegisterName(f.Rd), RegisterName(f.Rt), f.Shamt)
	case name == "lw" || name == "sw":
		return fmt.Sprintf("%s %s %d(%s)", name, RegisterName(f.Rt), SignedValue(uint32(f.Imm), 16), RegisterName(f.Rs))
	case IsBranch(name):
		return fmt.Sprintf("%s %s %s %d", name, RegisterName(f.Rs), RegisterName(f.Rt), SignedValue(uint32(f.Imm), 16))
	case IsJump(name):
		return fmt.Sprintf("%s %d", name, word&0x03FFFFFF)
	case IsIType(name):
		return fmt.Sprintf("%s %s %s %d", name, RegisterName(f.Rt), RegisterName(f.Rs), SignedValue(uint32(f.Imm), 16))
	default:
		return fmt.Sprintf("%s %s %s %s", name, RegisterName(f.Rd), RegisterName(f.Rs), RegisterName(f.Rt))
	}
}
