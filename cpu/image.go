package cpu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadImage reads a program image, one hexadecimal word per line.
// The '0x' prefix is optional, and ';' or '#' start a comment.
func ReadImage(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	var statements []Statement

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if n := strings.IndexAny(text, ";#"); n >= 0 {
			text = text[:n]
		}
		line = strings.TrimSpace(text)
		if len(line) == 0 {
			continue
		}

		word := strings.TrimPrefix(strings.ToLower(line), "0x")
		v64, perr := strconv.ParseUint(word, 16, 32)
		if perr != nil {
			err = ErrParseNumber(line)
			return
		}

		statements = append(statements, Statement{
			LineNo: lineno,
			Ip:     len(statements),
			Code:   Word(v64),
		})
	}

	prog = &Program{Statements: statements}

	return
}

// WriteImage writes a program image, one hexadecimal word per line.
// Statements that carry source words are annotated with a comment.
func WriteImage(output io.Writer, prog *Program) (err error) {
	for ip, code := range prog.Words() {
		stmt := prog.Debug(ip)
		if len(stmt.Words) > 0 {
			_, err = fmt.Fprintf(output, "0x%08x ; %v\n", uint32(code), strings.Join(stmt.Words, " "))
		} else {
			_, err = fmt.Fprintf(output, "0x%08x\n", uint32(code))
		}
		if err != nil {
			return
		}
	}

	return
}
