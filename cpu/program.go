package cpu

import (
	"iter"
)

// Statement is one assembled source statement and the word it generated.
// Programs built from raw words carry statements with no source info.
type Statement struct {
	LineNo int      // Source line number, 0 when no source is known.
	Ip     int      // Program index of the word.
	Words  []string // Source tokens, nil when no source is known.
	Code   Word     // Encoded instruction word.
}

// Program is an ordered, finite sequence of instruction words.
type Program struct {
	Statements []Statement
}

// NewProgram wraps a raw word sequence as a program. The words are copied;
// the caller's slice is never read again nor mutated.
func NewProgram(words []uint32) (prog *Program) {
	prog = &Program{
		Statements: make([]Statement, len(words)),
	}
	for n, word := range words {
		prog.Statements[n] = Statement{Ip: n, Code: Word(word)}
	}

	return
}

// Len returns the number of instruction words.
func (prog *Program) Len() int {
	return len(prog.Statements)
}

// Words iterates over (ip, word) in program order.
func (prog *Program) Words() iter.Seq2[int, Word] {
	return func(yield func(ip int, word Word) bool) {
		for _, stmt := range prog.Statements {
			if !yield(stmt.Ip, stmt.Code) {
				return
			}
		}
	}
}

// Binary returns the encoded instruction words.
func (prog *Program) Binary() (bins []uint32) {
	for _, word := range prog.Words() {
		bins = append(bins, uint32(word))
	}

	return
}

// Debug returns the statement at the given program index, or a zero
// Statement when out of range.
func (prog *Program) Debug(ip int) (stmt Statement) {
	if ip < 0 || ip >= len(prog.Statements) {
		return
	}
	stmt = prog.Statements[ip]

	return
}
