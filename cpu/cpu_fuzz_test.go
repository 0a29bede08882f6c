package cpu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzCpu(f *testing.F) {
	f.Add(uint32(0x56000001))
	f.Add(uint32(0x53000000))
	f.Add(uint32(0x64100100))
	f.Add(uint32(0x64100000))
	f.Add(uint32(0x57000010))
	f.Add(uint32(0x00000000))
	f.Add(uint32(0xffffffff))

	f.Fuzz(func(t *testing.T, word uint32) {
		assert := assert.New(t)

		in := Word(word).Decode()

		// Decode is total and loses no bits.
		assert.Equal(uint8(word>>24), uint8(in.Opcode))
		assert.Equal(uint8((word>>20)&0xf), in.R1)
		assert.Equal(uint8((word>>16)&0xf), in.R2)
		assert.Equal(uint16(word), in.Arg)
		assert.Equal(Word(word), in.Word())

		// Disassembly is pure and never empty.
		text := in.String()
		assert.Equal(text, in.String())
		assert.NotEmpty(text)
		if !in.Opcode.Known() {
			assert.Equal("UNKNOWN INSTRUCTION", text)
		}

		output := &bytes.Buffer{}
		cpu := NewCpu(output)
		cpu.Reset()

		err := cpu.Execute(in)
		if err != nil {
			// Only the declared fault conditions may surface.
			fault := errors.Is(err, ErrDivideByZero) || errors.Is(err, ErrRegister(0))
			assert.True(fault, text)
			assert.ErrorIs(err, ErrInstruction(in), text)
			assert.Equal(0, cpu.Ticks, text)
			return
		}

		assert.Equal(1, cpu.Ticks, text)

		switch in.Opcode {
		case OP_WRITE:
			assert.Equal("0\n", output.String(), text)
		default:
			if !in.Opcode.Known() {
				assert.Equal("UNKNOWN INSTRUCTION\n", output.String(), text)
				assert.Equal([REGISTER_COUNT]uint32{}, cpu.Register, text)
			}
		}
	})
}
