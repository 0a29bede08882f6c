// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"io"
	"iter"
	"log"
	"os"

	"github.com/ezrec/uvm32/cpu"
)

// Emulator state. CPU + loaded program + output streams.
type Emulator struct {
	Verbose bool         // If set, enables verbose logging.
	Cpu     *cpu.Cpu     // Reference to the CPU simulation.
	Program *cpu.Program // Reference to the currently loaded program.

	Listing io.Writer // Sink for the instruction listing stream.
	Output  io.Writer // Sink for the execution stream.
}

// NewEmulator creates a new emulator, with both streams on stdout.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(os.Stdout),
		Program: &cpu.Program{},
		Listing: os.Stdout,
		Output:  os.Stdout,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return emu.Cpu.Defines()
}

// Disassemble writes the instruction listing stream for the loaded
// program. Every word decodes, known opcode or not.
func (emu *Emulator) Disassemble() (err error) {
	_, err = fmt.Fprintln(emu.Listing, "INSTRUCTIONS:")
	if err != nil {
		return
	}

	for _, code := range emu.Program.Words() {
		_, err = fmt.Fprintln(emu.Listing, code.String())
		if err != nil {
			return
		}
	}

	_, err = fmt.Fprintln(emu.Listing)

	return
}

// Run resets the CPU and executes the loaded program from the first
// word, writing the execution stream. A runtime fault stops the run
// at the offending word, leaving the output emitted so far in place.
func (emu *Emulator) Run() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Output = emu.Output

	emu.Cpu.Reset()

	_, err = fmt.Fprintln(emu.Output, "EXECUTION:")
	if err != nil {
		return
	}

	for ip, code := range emu.Program.Words() {
		if emu.Verbose {
			log.Printf("%03x: %v", ip, code)
		}

		err = emu.Cpu.Execute(code.Decode())
		if err != nil {
			stmt := emu.Program.Debug(ip)
			err = &ErrRuntime{Ip: ip, LineNo: stmt.LineNo, Err: err}
			return
		}
	}

	_, err = fmt.Fprintln(emu.Output)

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Power returns the total power consumed.
func (emu *Emulator) Power() int {
	return emu.Cpu.Power
}
