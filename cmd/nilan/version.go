package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// version is set at build time via -ldflags; it defaults to a development
// marker for local builds.
var version = "dev"

type versionCmd struct{}

func (*versionCmd) Name() string     { return "version" }
func (*versionCmd) Synopsis() string { return "print the nilan version" }
func (*versionCmd) Usage() string {
	return "version:\n  Print the nilan version.\n"
}
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Println("nilan", version)
	return subcommands.ExitSuccess
}
