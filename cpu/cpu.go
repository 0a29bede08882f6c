package cpu

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"math/bits"
)

const (
	// REGISTER_COUNT is the size of the register bank.
	REGISTER_COUNT = 16
	// IMM_MAX is the largest encodable immediate value.
	IMM_MAX = 0xffff
)

var _cpu_defines = map[string]string{
	"REGISTERS": fmt.Sprintf("%v", REGISTER_COUNT),
	"IMM_MAX":   fmt.Sprintf("%v", IMM_MAX),
}

// Cpu is the execution engine for the μVM-32: a bank of sixteen 32-bit
// registers, statistics counters, and a sink for output lines. Each run
// owns its own Cpu value; Reset gives a fresh zeroed bank.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Register [REGISTER_COUNT]uint32 // Register bank, zeroed at Reset.

	Power int // Power (register bits flipped) counter.
	Ticks int // Instructions applied since Reset.

	Output io.Writer // Sink for WRITE and UNKNOWN INSTRUCTION lines.
}

// NewCpu creates a CPU writing its output lines to the given sink.
func NewCpu(output io.Writer) (cpu *Cpu) {
	cpu = &Cpu{
		Output: output,
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset zeroes the register bank and the statistics counters.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Ticks = 0
	cpu.Power = 0
}

// String returns the current register bank state as a string.
func (cpu *Cpu) String() (text string) {
	for n, val := range cpu.Register {
		text += fmt.Sprintf("%4s: %04X_%04X\n", fmt.Sprintf("r%d", n), val>>16, val&0xffff)
	}
	text += fmt.Sprintf("ticks: %v power: %v\n", cpu.Ticks, cpu.Power)

	return
}

// setRegister writes a register and accounts the flipped bits.
func (cpu *Cpu) setRegister(index uint8, value uint32) {
	prior := cpu.Register[index]
	cpu.Register[index] = value
	cpu.Power += bits.OnesCount32(prior ^ value)

	if cpu.Verbose {
		log.Printf("cpu: r%d <- 0x%08x", index, value)
	}
}

// argValue resolves the low 16-bit field of an instruction. Three-register
// formats read a register, bounds checked against the bank; all other
// formats take the field as an immediate.
func (cpu *Cpu) argValue(in Instruction) (value uint32, err error) {
	switch in.Format() {
	case FMT_REG_REG_REG:
		if int(in.Arg) >= len(cpu.Register) {
			err = ErrRegister(in.Arg)
			return
		}
		value = cpu.Register[in.Arg]
	default:
		value = uint32(in.Arg)
	}

	return
}

// doAlu performs the arithmetic for the opcode. Add, subtract, and
// multiply wrap modulo 2^32; division is unsigned and truncating.
func (cpu *Cpu) doAlu(op Opcode, input, value uint32) (output uint32, err error) {
	switch op {
	case OP_ADD, OP_ADDI:
		output = input + value
	case OP_SUB, OP_SUBI:
		output = input - value
	case OP_MUL, OP_MULI:
		output = input * value
	case OP_DIV, OP_DIVI:
		if value == 0 {
			err = ErrDivideByZero
			return
		}
		output = input / value
	}

	return
}

// Execute applies a single decoded instruction to the register bank.
// WRITE and unassigned opcodes emit one line to the Output sink and mutate
// nothing; all other opcodes write their destination register. Errors are
// joined with the faulting instruction context.
func (cpu *Cpu) Execute(in Instruction) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrInstruction(in), err)
		}
	}()

	switch in.Opcode {
	case OP_WRITE:
		_, err = fmt.Fprintf(cpu.Output, "%d\n", cpu.Register[in.R1])
		if err != nil {
			return
		}
	case OP_MOV:
		cpu.setRegister(in.R1, cpu.Register[in.R2])
	case OP_MOVLI:
		cpu.setRegister(in.R1, uint32(in.Arg))
	case OP_MOVHI:
		cpu.setRegister(in.R1, uint32(in.Arg)<<16)
	case OP_ADD, OP_ADDI, OP_SUB, OP_SUBI, OP_MUL, OP_MULI, OP_DIV, OP_DIVI:
		var value uint32
		value, err = cpu.argValue(in)
		if err != nil {
			return
		}
		var output uint32
		output, err = cpu.doAlu(in.Opcode, cpu.Register[in.R2], value)
		if err != nil {
			return
		}
		cpu.setRegister(in.R1, output)
	default:
		_, err = fmt.Fprintln(cpu.Output, "UNKNOWN INSTRUCTION")
		if err != nil {
			return
		}
	}

	cpu.Ticks += 1

	return
}
