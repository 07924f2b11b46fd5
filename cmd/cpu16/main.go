// cpu16 assembles, disassembles, and runs programs for the cpu16
// microcoded CPU. It is the single entry point for the command-line
// toolchain: `cpu16 asm`, `cpu16 disasm`, and `cpu16 run`.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/araneavalon/cpu16/assemble"
	"github.com/araneavalon/cpu16/cmd/hostsim"
	"github.com/araneavalon/cpu16/control"
	"github.com/araneavalon/cpu16/cpu"
	"github.com/araneavalon/cpu16/disassemble"
	"github.com/araneavalon/cpu16/memory"
)

func main() {
	app := &cli.App{
		Name:  "cpu16",
		Usage: "assemble, disassemble, and run cpu16 programs",
		Commands: []*cli.Command{
			asmCommand(),
			disasmCommand(),
			runCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func asmCommand() *cli.Command {
	return &cli.Command{
		Name:      "asm",
		Usage:     "assemble a source file into a ROM image",
		ArgsUsage: "<source.asm>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output file (little-endian words); stdout if omitted",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: cpu16 asm [-o out] <source.asm>", 1)
			}
			words, err := assemble.AssembleFile(c.Args().First(), assemble.OSReader)
			if err != nil {
				return cli.Exit(fmt.Sprintf("assemble: %v", err), 1)
			}
			out := assemble.Bytes(words)
			if dest := c.String("out"); dest != "" {
				if err := os.WriteFile(dest, out, 0644); err != nil {
					return cli.Exit(fmt.Sprintf("write %s: %v", dest, err), 1)
				}
				return nil
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}
}

func disasmCommand() *cli.Command {
	return &cli.Command{
		Name:      "disasm",
		Usage:     "disassemble a ROM image to stdout",
		ArgsUsage: "<image>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "start",
				Usage: "word address to start disassembling from",
				Value: 0,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: cpu16 disasm [-start addr] <image>", 1)
			}
			rom, err := loadROM(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			mem := memory.New(rom)
			pc := uint16(c.Int("start"))
			for int(pc) < len(rom) {
				text, n := disassemble.Step(pc, mem)
				fmt.Printf("%04X  %s\n", pc, text)
				pc += uint16(n)
			}
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run a ROM image until it halts",
		ArgsUsage: "<image>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "cycles",
				Usage: "maximum half-cycles to execute before giving up (headless mode only)",
				Value: 1_000_000,
			},
			&cli.BoolFlag{
				Name:  "dump",
				Usage: "print final register and PC state (headless mode only)",
			},
			&cli.BoolFlag{
				Name:  "display",
				Usage: "open an SDL2 window and run under cmd/hostsim instead of headless",
			},
			&cli.IntFlag{
				Name:  "scale",
				Usage: "display pixel scale factor",
				Value: 2,
			},
			&cli.BoolFlag{
				Name:  "hud",
				Usage: "overlay a debug HUD in display mode",
				Value: true,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: cpu16 run [-cycles N] [-dump] [-display] <image>", 1)
			}
			rom, err := loadROM(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			chip := cpu.New(memory.New(rom))

			if c.Bool("display") {
				opts := hostsim.Options{
					Scale:     c.Int("scale"),
					FrameRate: 16 * time.Millisecond,
					HUD:       c.Bool("hud"),
				}
				if err := hostsim.Run(chip, opts); err != nil {
					return cli.Exit(fmt.Sprintf("run: %v", err), 1)
				}
				return nil
			}

			if err := chip.Run(c.Int("cycles")); err != nil {
				return cli.Exit(fmt.Sprintf("run: %v", err), 1)
			}
			if !chip.Halted() {
				fmt.Fprintf(os.Stderr, "stopped after %d cycles without halting\n", c.Int("cycles"))
			}
			if c.Bool("dump") {
				dumpState(chip)
			}
			return nil
		},
	}
}

func dumpState(chip *cpu.Chip) {
	fmt.Printf("PC=%04X halted=%v\n", chip.ProgramCounter(), chip.Halted())
	regs := chip.Registers()
	names := []string{"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7"}
	for i, name := range names {
		fmt.Printf("%s=%04X ", name, regs.Value(control.Register(i)))
	}
	fmt.Println()
}

// loadROM reads path's raw little-endian word bytes if it looks like
// an assembled image (anything without a recognized source suffix),
// assembling it first when it ends in .asm.
func loadROM(path string) ([]uint16, error) {
	if len(path) > 4 && path[len(path)-4:] == ".asm" {
		words, err := assemble.AssembleFile(path, assemble.OSReader)
		if err != nil {
			return nil, fmt.Errorf("assemble %s: %w", path, err)
		}
		return words, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	words := make([]uint16, len(b)/2)
	for i := range words {
		words[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return words, nil
}
