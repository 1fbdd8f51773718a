// Package cli holds the bootstrap shared by the command line tools.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/elidorascodex/tecflow/internal/app"
	"github.com/elidorascodex/tecflow/internal/infra/config"
	"github.com/elidorascodex/tecflow/internal/model"
)

// Common flags bound into the configuration.
const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
)

// AddCommonFlags registers the flags every tool accepts.
func AddCommonFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "path to a config file (default: ./config.yaml if present)")
	fs.String(FlagLogLevel, "", "log level: debug, info, warn, error")
}

// LoadConfig loads the configuration with flag overrides. binds maps config keys to flag
// names; a flag only overrides its key when it was set.
func LoadConfig(fs *pflag.FlagSet, binds map[string]string) (*config.Config, error) {
	v := viper.New()
	all := map[string]string{"log.level": FlagLogLevel}
	for k, f := range binds {
		all[k] = f
	}
	for key, name := range all {
		flag := fs.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	path, _ := fs.GetString(FlagConfig)
	return config.LoadWith(v, path)
}

// Bootstrap parses args, loads the configuration and assembles the application. The
// returned context is cancelled on SIGINT or SIGTERM.
func Bootstrap(fs *pflag.FlagSet, args []string, binds map[string]string) (context.Context, *app.App, func(), error) {
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, err
	}
	cfg, err := LoadConfig(fs, binds)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a, cleanup, err := app.InitializeApp(ctx, cfg)
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	return ctx, a, func() {
		cleanup()
		_ = a.Logger.Sync()
		stop()
	}, nil
}

// Report prints result and returns the process exit code: 1 when the run failed.
func Report(w io.Writer, result *model.RunResult) int {
	fmt.Fprintf(w, "Status: %s\n", result.Status)
	for _, a := range result.Actions {
		fmt.Fprintf(w, "  + %s\n", a)
	}
	for _, k := range sortedKeys(result.Outputs) {
		fmt.Fprintf(w, "  %s: %s\n", k, result.Outputs[k])
	}
	for _, k := range sortedKeys(result.Counts) {
		fmt.Fprintf(w, "  %s: %d\n", k, result.Counts[k])
	}
	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	if result.Status == model.RunStatusError {
		return 1
	}
	return 0
}

// Fatal prints err as a failed run and returns the exit code.
func Fatal(w io.Writer, err error) int {
	result := model.NewRunResult()
	result.Fail(err)
	return Report(w, result)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
