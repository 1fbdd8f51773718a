// Command pipeline publishes ready ClickUp tasks to WordPress, or backs up the posts.
//
//	pipeline [publish]
//	pipeline --backup [name]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/shared/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("pipeline", pflag.ContinueOnError)
	cli.AddCommonFlags(fs)
	backup := fs.Bool("backup", false, "back up WordPress posts to object storage; an optional argument names the file")
	fs.String("ready-status", "", "ClickUp status of tasks to publish")

	ctx, a, cleanup, err := cli.Bootstrap(fs, args, map[string]string{
		"pipeline.ready_status": "ready-status",
	})
	if err != nil {
		return cli.Fatal(os.Stderr, err)
	}
	defer cleanup()

	var result *model.RunResult
	switch {
	case *backup:
		result = a.Pipeline.Backup(ctx, fs.Arg(0))
	case fs.NArg() == 0 || fs.Arg(0) == "publish":
		result = a.Pipeline.Publish(ctx)
	default:
		return cli.Fatal(os.Stderr, fmt.Errorf("unknown command %q", fs.Arg(0)))
	}
	return cli.Report(os.Stdout, result)
}
