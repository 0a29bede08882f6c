package cpu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadImage(t *testing.T) {
	assert := assert.New(t)

	image := []string{
		"; image comment",
		"0x56000001",
		"53000000   # bare hex, hash comment",
		"",
		"0X64100100",
		"0x53100000 ; movhi r0 1",
	}

	prog, err := ReadImage(strings.NewReader(strings.Join(image, "\n")))
	assert.NoError(err)

	assert.Equal([]uint32{0x56000001, 0x53000000, 0x64100100, 0x53100000}, prog.Binary())

	// Statements remember their image line.
	assert.Equal(2, prog.Debug(0).LineNo)
	assert.Equal(3, prog.Debug(1).LineNo)
	assert.Equal(5, prog.Debug(2).LineNo)
	assert.Equal(6, prog.Debug(3).LineNo)
}

func TestReadImage_Empty(t *testing.T) {
	assert := assert.New(t)

	prog, err := ReadImage(strings.NewReader("; nothing but comments\n\n"))
	assert.NoError(err)
	assert.Equal(0, prog.Len())
}

func TestReadImage_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		image string
		line  int
	}){
		{"hello", 1},
		{"0x56000001\nbogus\n", 2},
		{"0x123456789", 1},
		{"-0x100", 1},
		{"0x56000001 extra", 1},
	}

	for _, entry := range table {
		_, err := ReadImage(strings.NewReader(entry.image))
		var se *ErrSyntax
		assert.NotNil(err, entry.image)
		if err != nil {
			assert.True(errors.As(err, &se), entry.image)
			assert.Equal(entry.line, se.LineNo, entry.image)
		}
	}
}

func TestWriteImage(t *testing.T) {
	assert := assert.New(t)

	prog := NewProgram([]uint32{0x56000001, 0x53000000})

	buffer := &bytes.Buffer{}
	err := WriteImage(buffer, prog)
	assert.NoError(err)

	assert.Equal("0x56000001\n0x53000000\n", buffer.String())
}

func TestWriteImage_Annotated(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader("movhi r0, 1\nwrite r0\n"))
	assert.NoError(err)

	buffer := &bytes.Buffer{}
	err = WriteImage(buffer, prog)
	assert.NoError(err)

	assert.Equal("0x56000001 ; movhi r0 1\n0x53000000 ; write r0\n", buffer.String())
}

func TestImage_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	source := []string{
		"movhi r0, 1",
		"write r0",
		"divi r1, r0, 256",
		"write r1",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(source, "\n")))
	assert.NoError(err)

	buffer := &bytes.Buffer{}
	err = WriteImage(buffer, prog)
	assert.NoError(err)

	loaded, err := ReadImage(buffer)
	assert.NoError(err)

	assert.Equal(prog.Binary(), loaded.Binary())
}
