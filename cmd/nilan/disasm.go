package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/nilan-lang/nilan/compiler"
	"github.com/nilan-lang/nilan/value"
)

type disasmCmd struct {
	logger *logrus.Logger
}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "compile a source file and print its bytecode" }
func (*disasmCmd) Usage() string {
	return "disasm <file>:\n  Compile a nilan source file and print its disassembled bytecode.\n"
}
func (*disasmCmd) SetFlags(*flag.FlagSet) {}

func (d *disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "disasm: no source file given")
		os.Exit(exitUsageError)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "disasm: failed to read %s: %v\n", args[0], err)
		os.Exit(exitUsageError)
	}

	chunk, err := compiler.Compile(string(data), value.NewInternTable(), d.logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCompileError)
	}

	compiler.Disassemble(chunk, args[0], os.Stdout)
	return subcommands.ExitSuccess
}
