package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"apparray/internal/app"
	"apparray/internal/formatting"
	"apparray/internal/lifecycle"
	"apparray/internal/model"
	"apparray/internal/watch"
)

var (
	runFile    string
	runTimeout time.Duration
	runSet     map[string]string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <component> <start|stop|status>",
		Short: "Run one command of a component locally and print its outcome",
		Long: `Runs the steps of a component's start, stop or status command through
the local shell, streaming their output, and prints the lifecycle state
reached. The topology comes from --file or from the cache.

Step templates such as {{namespace}} are expanded from the configured
environment context and --set values.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := model.ParseCommandKey(args[1])
			if err != nil {
				return err
			}

			application, err := newApplication(cmd, true, func(cfg *app.Config) {
				cfg.Context = runSet
				cfg.IdleTimeout = runTimeout
			})
			if err != nil {
				return err
			}
			defer application.Close()

			if runFile != "" {
				topology, err := watch.Load(runFile)
				if err != nil {
					return err
				}
				application.UseTopology(topology)
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			unsubscribe := application.Services().Registry.Subscribe(func(change lifecycle.Change) {
				if change.ComponentID == args[0] {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s -> %s\n", change.ComponentID, change.Old, change.New)
				}
			})
			defer unsubscribe()

			res, err := application.RunCommand(ctx, args[0], key)
			if err != nil {
				return err
			}
			state := application.States()[args[0]]
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s finished %s (exit %d) in %s, state %s\n",
				args[0], key.Upper(), res.Status, res.ExitCode, res.Duration.Round(time.Millisecond), formatting.ColorState(string(state)))
			if !res.Ok() {
				return fmt.Errorf("%s %s failed at step %d: %w", args[0], key.Upper(), res.FailedStep, res.Err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&runFile, "file", "f", "", "Topology file to use instead of the cached topology")
	cmd.Flags().DurationVar(&runTimeout, "idle-timeout", 0, "Cancel the run after this long without output (default from config)")
	cmd.Flags().StringToStringVar(&runSet, "set", nil, "Template variables, e.g. --set namespace=shop")
	return cmd
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}
