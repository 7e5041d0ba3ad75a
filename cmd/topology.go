package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"apparray/internal/formatting"
	"apparray/internal/watch"
)

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Validate a topology file and retain it in the cache",
		Long: `Parses and validates a JSON or YAML topology file, enables topology
retention and stores the topology in the cache. A running 'apparray serve'
picks it up on its next start.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topology, err := watch.Load(args[0])
			if err != nil {
				return err
			}
			application, err := newApplication(cmd, true)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.SetKeepModel(true); err != nil {
				return err
			}
			if err := application.ReplaceTopology(commandContext(cmd), topology); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded topology %q with %d components\n", topology.ID, len(topology.Components))
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Replace the cached topology with an empty one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication(cmd, true)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.ClearTopology(commandContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Topology cleared")
			return nil
		},
	}
}

func newKeepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keep <true|false>",
		Short: "Enable or disable retaining the topology across restarts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid value %q: expected true or false", args[0])
			}
			application, err := newApplication(cmd, true)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.SetKeepModel(keep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Topology retention set to %t\n", keep)
			return nil
		},
	}
}

var (
	showOutput string
	showFile   string
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the cached topology, or the one in --file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseFormat(showOutput)
			if err != nil {
				return err
			}
			application, err := newApplication(cmd, true)
			if err != nil {
				return err
			}
			defer application.Close()

			if showFile != "" {
				topology, err := watch.Load(showFile)
				if err != nil {
					return err
				}
				application.UseTopology(topology)
			}
			view := formatting.NewTopologyView(application.Topology(), application.States())
			return formatting.NewFormatter(format).FormatTopology(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVarP(&showOutput, "output", "o", "table", "Output format: table, json or yaml")
	cmd.Flags().StringVarP(&showFile, "file", "f", "", "Topology file to show instead of the cached topology")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newKeepCmd())
	rootCmd.AddCommand(newShowCmd())
}
