package vm

import (
	"strings"
	"testing"
)

func encR(rs, rt, rd, shamt, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

func encI(op, rs, rt uint32, imm uint16) uint32 {
	return op<<26 | rs<<21 | rt<<16 | uint32(imm)
}

func TestSplit(t *testing.T) {
	// addi $1, $0, 5
	f := Split(encI(0b001000, 0, 1, 5))
	if f.Opcode != 0b001000 || f.Rs != 0 || f.Rt != 1 || f.Imm != 5 {
		t.Errorf("Split(addi $1,$0,5) = %+v", f)
	}

	// add $3, $1, $2
	f = Split(encR(1, 2, 3, 0, 0b100000))
	if f.Opcode != 0 || f.Rs != 1 || f.Rt != 2 || f.Rd != 3 || f.Funct != 0b100000 {
		t.Errorf("Split(add $3,$1,$2) = %+v", f)
	}
}

func TestMnemonicTable(t *testing.T) {
	tests := []struct {
		word uint32
		want string
	}{
		{encR(1, 2, 3, 0, 0b100000), "add"},
		{encR(1, 2, 3, 0, 0b100010), "sub"},
		{encR(1, 2, 3, 0, 0b100111), "nor"},
		{encR(1, 2, 3, 0, 0b101010), "slt"},
		{encR(1, 2, 3, 4, 0b000010), "srl"},
		{encR(1, 2, 3, 0, 0b011000), "mult"},
		{encR(1, 0, 0, 0, 0b001000), "jr"},
		{encR(0, 0, 0, 0, 0b001101), "break"},
		{encI(0b000100, 1, 2, 0), "beq"},
		{encI(0b000101, 1, 2, 0), "bne"},
		{encI(0b100011, 0, 1, 4), "lw"},
		{encI(0b101011, 0, 1, 4), "sw"},
		{encI(0b001000, 0, 1, 5), "addi"},
		{encI(0b001110, 0, 1, 5), "xori"},
		{encI(0b000010, 0, 0, 0), "j"},
		{encI(0b000011, 0, 0, 0), "jal"},
	}
	for _, tt := range tests {
		got, err := Mnemonic(tt.word)
		if err != nil {
			t.Errorf("Mnemonic(%#x): %v", tt.word, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Mnemonic(%#x) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestMnemonicUnknown(t *testing.T) {
	// Opcode 111111 is not assigned.
	if _, err := Mnemonic(encI(0b111111, 0, 0, 0)); err == nil {
		t.Error("unknown opcode should fail decoding")
	}
	// Opcode 0 with unassigned funct 111111.
	_, err := Mnemonic(encR(0, 0, 0, 0, 0b111111))
	if err == nil {
		t.Fatal("unknown funct should fail decoding")
	}
	if !strings.Contains(err.Error(), "unknown instruction") {
		t.Errorf("error %q should identify the unknown instruction", err)
	}
}

func TestControlSignals(t *testing.T) {
	tests := []struct {
		name string
		word uint32
		want Control
	}{
		{"r-type", encR(1, 2, 3, 0, 0b100000),
			Control{RegDst: true, ALUOp: ALUOpFunct, RegWrite: true}},
		{"alu i-type", encI(0b001000, 0, 1, 5),
			Control{ALUSrc: true, ALUOp: ALUOpAdd, RegWrite: true}},
		{"lw", encI(0b100011, 0, 1, 4),
			Control{ALUSrc: true, MemToReg: true, ALUOp: ALUOpAdd, MemRead: true, RegWrite: true}},
		{"sw", encI(0b101011, 0, 1, 4),
			Control{ALUSrc: true, ALUOp: ALUOpAdd, MemWrite: true}},
		{"beq", encI(0b000100, 1, 2, 0),
			Control{ALUOp: ALUOpBranch, Branch: true}},
		{"nop", 0, Control{}},
		{"break", encR(0, 0, 0, 0, 0b001101), Control{}},
		{"reserved addu", encR(1, 2, 3, 0, 0b101000), Control{}},
		{"jump", encI(0b000010, 0, 0, 0), Control{}},
	}
	for _, tt := range tests {
		got, err := ControlFor(tt.word)
		if err != nil {
			t.Errorf("%s: ControlFor: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: ControlFor = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestControlForUnknown(t *testing.T) {
	if _, err := ControlFor(encI(0b111111, 0, 0, 0)); err == nil {
		t.Error("ControlFor should reject unknown instructions")
	}
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		word uint32
		want string
	}{
		{0, "nop"},
		{encR(0, 0, 0, 0, 0b001101), "break"},
		{encR(1, 2, 3, 0, 0b100000), "add $3 $1 $2"},
		{encR(2, 0, 3, 4, 0b000010), "srl $3 $0 4"},
		{encI(0b001000, 0, 1, 5), "addi $1 $0 5"},
		{encI(0b100011, 0, 1, 4), "lw $1 4($0)"},
		{encI(0b101011, 0, 1, 0xFFFC), "sw $1 -4($0)"},
		{encI(0b000100, 1, 2, 3), "beq $1 $2 3"},
	}
	for _, tt := range tests {
		if got := Disassemble(tt.word); got != tt.want {
			t.Errorf("Disassemble(%#x) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestClassification(t *testing.T) {
	for _, name := range []string{"add", "sub", "and", "or", "xor", "nor", "slt", "sll",
		"srl", "jr", "syscall", "break", "mfhi", "mflo", "mult", "multu", "div",
		"divu", "mthi", "mtlo", "movn", "movz", "sltu", "addu"} {
		if !IsRType(name) {
			t.Errorf("IsRType(%q) = false", name)
		}
	}
	for _, name := range []string{"addi", "andi", "ori", "xori", "lw", "sw"} {
		if !IsIType(name) {
			t.Errorf("IsIType(%q) = false", name)
		}
	}
	if !IsBranch("beq") || !IsBranch("bne") || IsBranch("add") {
		t.Error("branch classification wrong")
	}
	if !IsJump("j") || !IsJump("jal") || IsJump("jr") {
		t.Error("jump classification wrong")
	}
}
