package cpu

import (
	"fmt"
)

// Format is the operand layout class of an opcode. The format decides
// whether the low 16 bits of a word are read as a third register index or
// as an unsigned immediate.
type Format int

const (
	FMT_UNKNOWN     = Format(0) // unassigned opcode
	FMT_REG         = Format(1) // R1
	FMT_REG_REG     = Format(2) // R1, R2
	FMT_REG_IMM     = Format(3) // R1, imm16
	FMT_REG_REG_REG = Format(4) // R1, R2, R3
	FMT_REG_REG_IMM = Format(5) // R1, R2, imm16
)

// Operands returns the operand count of the format.
func (format Format) Operands() (count int) {
	switch format {
	case FMT_REG:
		count = 1
	case FMT_REG_REG, FMT_REG_IMM:
		count = 2
	case FMT_REG_REG_REG, FMT_REG_REG_IMM:
		count = 3
	}

	return
}

// Opcode is the operation selector in the top byte of a word.
//
// Assigned opcodes read as decimal pairs (0x53..0x59, 0x60..0x64);
// 0x5a-0x5f are unassigned.
type Opcode uint8

const (
	OP_WRITE = Opcode(0x53) // WRITE
	OP_MOV   = Opcode(0x54) // MOV
	OP_MOVLI = Opcode(0x55) // MOVli
	OP_MOVHI = Opcode(0x56) // MOVhi
	OP_ADD   = Opcode(0x57) // ADD
	OP_ADDI  = Opcode(0x58) // ADDi
	OP_SUB   = Opcode(0x59) // SUB
	OP_SUBI  = Opcode(0x60) // SUBi
	OP_MUL   = Opcode(0x61) // MUL
	OP_MULI  = Opcode(0x62) // MULi
	OP_DIV   = Opcode(0x63) // DIV
	OP_DIVI  = Opcode(0x64) // DIVi
)

// opInfo describes a single assigned opcode.
type opInfo struct {
	Mnemonic string
	Format   Format
}

// opTable is the authoritative opcode map. An opcode absent from this
// table decodes, disassembles, and executes as UNKNOWN INSTRUCTION.
var opTable = map[Opcode]opInfo{
	OP_WRITE: {"WRITE", FMT_REG},
	OP_MOV:   {"MOV", FMT_REG_REG},
	OP_MOVLI: {"MOVli", FMT_REG_IMM},
	OP_MOVHI: {"MOVhi", FMT_REG_IMM},
	OP_ADD:   {"ADD", FMT_REG_REG_REG},
	OP_ADDI:  {"ADDi", FMT_REG_REG_IMM},
	OP_SUB:   {"SUB", FMT_REG_REG_REG},
	OP_SUBI:  {"SUBi", FMT_REG_REG_IMM},
	OP_MUL:   {"MUL", FMT_REG_REG_REG},
	OP_MULI:  {"MULi", FMT_REG_REG_IMM},
	OP_DIV:   {"DIV", FMT_REG_REG_REG},
	OP_DIVI:  {"DIVi", FMT_REG_REG_IMM},
}

// Known returns true if the opcode is assigned in the instruction set.
func (op Opcode) Known() (ok bool) {
	_, ok = opTable[op]
	return
}

// Format returns the operand layout of the opcode, or FMT_UNKNOWN for an
// unassigned opcode.
func (op Opcode) Format() (format Format) {
	info, ok := opTable[op]
	if !ok {
		return
	}
	format = info.Format
	return
}

// String returns the mnemonic of the opcode, or "UNKNOWN" for an
// unassigned opcode.
func (op Opcode) String() (name string) {
	info, ok := opTable[op]
	if !ok {
		name = "UNKNOWN"
		return
	}
	name = info.Mnemonic
	return
}

// Word is a single encoded instruction.
//
// Bit layout:
//
//	31-24  opcode
//	23-20  r1
//	19-16  r2
//	15-0   r3 register index or 16-bit immediate, per the opcode format
type Word uint32

// Make packs an instruction word from its fields. The register fields are
// truncated to 4 bits; arg carries either a register index or an immediate.
func Make(op Opcode, r1, r2 uint8, arg uint16) Word {
	return Word((uint32(op) << 24) | (uint32(r1&0xf) << 20) | (uint32(r2&0xf) << 16) | uint32(arg))
}

// Opcode returns the operation selector from bits 31-24.
func (word Word) Opcode() Opcode {
	return Opcode((uint32(word) >> 24) & 0xff)
}

// R1 returns the first register field from bits 23-20.
func (word Word) R1() uint8 {
	return uint8((uint32(word) >> 20) & 0xf)
}

// R2 returns the second register field from bits 19-16.
func (word Word) R2() uint8 {
	return uint8((uint32(word) >> 16) & 0xf)
}

// Arg returns the raw low 16 bits, a register index or an immediate
// depending on the opcode format.
func (word Word) Arg() uint16 {
	return uint16(uint32(word) & 0xffff)
}

// Decode unpacks the word into its fields. Decoding never fails; a word
// with an unassigned opcode decodes to an Instruction with FMT_UNKNOWN
// format.
func (word Word) Decode() Instruction {
	return Instruction{
		Opcode: word.Opcode(),
		R1:     word.R1(),
		R2:     word.R2(),
		Arg:    word.Arg(),
	}
}

// String returns the canonical disassembly of the word.
func (word Word) String() string {
	return word.Decode().String()
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Opcode Opcode
	R1     uint8
	R2     uint8
	Arg    uint16 // Register index or immediate, per Format().
}

// Format returns the operand layout of the instruction.
func (in Instruction) Format() Format {
	return in.Opcode.Format()
}

// Word repacks the instruction into its encoded form.
func (in Instruction) Word() Word {
	return Make(in.Opcode, in.R1, in.R2, in.Arg)
}

// String returns the canonical one-line disassembly of the instruction.
// Register operands render as R<n>, immediates as unsigned decimal.
func (in Instruction) String() (text string) {
	switch in.Format() {
	case FMT_REG:
		text = fmt.Sprintf("%v R%d", in.Opcode, in.R1)
	case FMT_REG_REG:
		text = fmt.Sprintf("%v R%d, R%d", in.Opcode, in.R1, in.R2)
	case FMT_REG_IMM:
		text = fmt.Sprintf("%v R%d, %d", in.Opcode, in.R1, in.Arg)
	case FMT_REG_REG_REG:
		text = fmt.Sprintf("%v R%d, R%d, R%d", in.Opcode, in.R1, in.R2, in.Arg)
	case FMT_REG_REG_IMM:
		text = fmt.Sprintf("%v R%d, R%d, %d", in.Opcode, in.R1, in.R2, in.Arg)
	default:
		text = "UNKNOWN INSTRUCTION"
	}
	return
}
