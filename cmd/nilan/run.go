package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/nilan-lang/nilan/compiler"
	"github.com/nilan-lang/nilan/vm"
)

// sysexits.h-flavored exit codes: usage vs. compile-time vs. runtime
// failure get distinct codes so scripts can tell them apart.
const (
	exitUsageError   = 64
	exitCompileError = 65
	exitRuntimeError = 70
)

type runCmd struct {
	logger *logrus.Logger
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "execute a source file" }
func (*runCmd) Usage() string {
	return "run <file>:\n  Compile and execute a nilan source file.\n"
}
func (*runCmd) SetFlags(*flag.FlagSet) {}

func (r *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "run: no source file given")
		os.Exit(exitUsageError)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: failed to read %s: %v\n", args[0], err)
		os.Exit(exitUsageError)
	}

	machine := vm.New(vm.WithLogger(r.logger))
	chunk, err := compiler.Compile(string(data), machine.Interner(), r.logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCompileError)
	}

	if err := machine.Interpret(chunk); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitRuntimeError)
	}

	return subcommands.ExitSuccess
}
