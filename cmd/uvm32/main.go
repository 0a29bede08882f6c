// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	_ "embed"
	"flag"
	"io"
	"log"
	"maps"
	"os"
	"strings"

	"github.com/ezrec/uvm32/cpu"
	"github.com/ezrec/uvm32/emulator"
	"github.com/ezrec/uvm32/internal"
)

//go:embed sample.uasm
var sample string

func main() {
	var compile string
	var image string
	var save string
	var output string
	var listOnly bool
	var execOnly bool
	var verbose bool

	defines := map[string]string{}

	flag.StringVar(&compile, "c", "", ".uasm file to assemble")
	flag.StringVar(&image, "i", "", "Image file to load")
	flag.StringVar(&save, "s", "", "Save image to file, do not execute")
	flag.StringVar(&output, "o", "-", "Output file")
	flag.BoolVar(&listOnly, "d", false, "Instruction listing only")
	flag.BoolVar(&execOnly, "x", false, "Execution only")
	flag.Func("D", "Predefine NAME[=VALUE] for the assembler", func(arg string) error {
		name, value, found := strings.Cut(arg, "=")
		if !found {
			value = "1"
		}
		defines[name] = value
		return nil
	})
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) != 0 && len(image) != 0 {
		log.Fatalf("%v: -c and -i are mutually exclusive", os.Args[0])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	var prog *cpu.Program

	// Load a program image, or assemble a new program.
	if len(image) != 0 {
		inf, err := os.Open(image)
		if err != nil {
			log.Fatalf("%v: %v", image, err)
		}
		defer inf.Close()

		prog, err = cpu.ReadImage(inf)
		if err != nil {
			log.Fatalf("%v: %v", image, err)
		}
	} else {
		source := io.Reader(strings.NewReader(sample))
		name := "sample"
		if len(compile) != 0 {
			inf, err := os.Open(compile)
			if err != nil {
				log.Fatalf("%v: %v", compile, err)
			}
			defer inf.Close()
			source = inf
			name = compile
		}

		asm := &cpu.Assembler{Verbose: verbose}
		for attr, value := range internal.Concat2(emu.Defines(), maps.All(defines)) {
			asm.Predefine(attr, value)
		}

		var err error
		prog, err = asm.Parse(source)
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
	}

	emu.Program = prog

	if len(save) != 0 {
		ouf, err := os.Create(save)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		defer ouf.Close()

		err = cpu.WriteImage(ouf, prog)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}

		return
	}

	out := io.Writer(os.Stdout)
	if output != "-" {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		out = ouf
	}

	emu.Listing = out
	emu.Output = out

	doList := !execOnly || listOnly
	doExec := !listOnly || execOnly

	if doList {
		err := emu.Disassemble()
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
	}

	if doExec {
		err := emu.Run()
		if err != nil {
			log.Fatal(err)
		}

		if verbose {
			log.Printf("ticks: %v power: %v", emu.Ticks(), emu.Power())
		}
	}
}
