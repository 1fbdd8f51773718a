// Command clickup-automation runs the ClickUp workflows: assessment triggers, lore documents
// and template imports.
package main

import (
	"errors"
	"os"

	"github.com/spf13/pflag"

	"github.com/elidorascodex/tecflow/internal/model"
	"github.com/elidorascodex/tecflow/internal/shared/cli"
)

type options struct {
	taskID          string
	importTemplates bool
	templatesFile   string
	generateDoc     bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("clickup-automation", pflag.ContinueOnError)
	cli.AddCommonFlags(fs)
	o := &options{}
	fs.StringVar(&o.taskID, "task-id", "", "process a single task")
	fs.BoolVar(&o.importTemplates, "import-templates", false, "create tasks from the templates file")
	fs.StringVar(&o.templatesFile, "templates-file", "", "templates file for --import-templates")
	fs.BoolVar(&o.generateDoc, "generate-doc", false, "generate the lore document for --task-id")

	ctx, a, cleanup, err := cli.Bootstrap(fs, args, map[string]string{
		"clickup.templates_file": "templates-file",
	})
	if err != nil {
		return cli.Fatal(os.Stderr, err)
	}
	defer cleanup()

	var result *model.RunResult
	switch {
	case o.importTemplates:
		result = a.Tasks.BulkImport(ctx, a.Config.ClickUp.TemplatesFile)
	case o.generateDoc:
		if o.taskID == "" {
			return cli.Fatal(os.Stderr, errors.New("--generate-doc requires --task-id"))
		}
		result = a.Tasks.GenerateLoreDoc(ctx, o.taskID)
	case o.taskID != "":
		result = a.Tasks.ProcessAssessmentTrigger(ctx, o.taskID)
	default:
		result = a.Tasks.Run(ctx)
	}
	return cli.Report(os.Stdout, result)
}
