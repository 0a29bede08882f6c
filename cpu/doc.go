// Package cpu implements the instruction codec, disassembler, assembler, and
// execution engine for the μVM-32 virtual processor.
//
// The processor is a bank of sixteen 32-bit general-purpose registers driven
// by fixed-width 32-bit instruction words. The top byte of a word selects the
// operation, two nibbles address registers, and the low 16 bits carry either
// a third register index or an unsigned immediate, decided by the opcode's
// operand format. Programs are straight-line: words apply in order, with no
// branching and no memory beyond the register bank.
//
// The assembler provides a custom assembly language for the μVM-32
// instruction set, supporting macros, equates, and compile-time expression
// evaluation.
package cpu
