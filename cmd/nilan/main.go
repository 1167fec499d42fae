// Command nilan is the driver for the language core in packages scanner,
// compiler, and vm: it reads a source file or runs an interactive REPL,
// compiles it, and hands the result to the VM.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if os.Getenv("NILAN_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{logger: logger}, "")
	subcommands.Register(&replCmd{logger: logger}, "")
	subcommands.Register(&disasmCmd{logger: logger}, "")
	subcommands.Register(&versionCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
