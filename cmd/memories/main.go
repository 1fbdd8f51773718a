// Command memories loads text files into Airth's memory store.
//
//	memories [--type knowledge] <file-or-directory>
package main

import (
	"errors"
	"os"

	"github.com/spf13/pflag"

	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/shared/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("memories", pflag.ContinueOnError)
	cli.AddCommonFlags(fs)
	memoryType := fs.String("type", string(model.MemoryTypeKnowledge), "memory type: personal, faction, event, relationship, knowledge")

	ctx, a, cleanup, err := cli.Bootstrap(fs, args, nil)
	if err != nil {
		return cli.Fatal(os.Stderr, err)
	}
	defer cleanup()

	if fs.NArg() != 1 {
		return cli.Fatal(os.Stderr, errors.New("expected exactly one file or directory"))
	}
	return cli.Report(os.Stdout, a.Agent.ProcessPath(ctx, fs.Arg(0), model.MemoryType(*memoryType)))
}
