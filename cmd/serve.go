package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"apparray/internal/app"
)

var (
	serveTopologyFile string
	serveMetricsAddr  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect components and the backend and keep them in sync",
	Long: `Starts apparray in the foreground.

The topology is rehydrated from the cache when retention is enabled. Every
executable component gets an execution engine, the backend receives the
topology and its command and status notifications update the components'
lifecycle states.

With --topology-file the file is loaded at startup and reloaded whenever it
changes. With --metrics-addr prometheus metrics are served on /metrics.

Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := newApplication(cmd, false, func(cfg *app.Config) {
		cfg.TopologyFile = serveTopologyFile
		cfg.MetricsAddr = serveMetricsAddr
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTopologyFile, "topology-file", "", "Topology file to load and watch")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Address to serve prometheus metrics on")
}
