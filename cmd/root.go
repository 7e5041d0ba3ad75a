package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"apparray/internal/app"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// Persistent flags shared by every command.
var (
	rootConfigPath  string
	rootDebug       bool
	rootHost        string
	rootCacheDriver string
)

// rootCmd represents the base command for the apparray application.
var rootCmd = &cobra.Command{
	Use:   "apparray",
	Short: "Run and track the lifecycle of the components of an application topology",
	Long: `apparray keeps a topology of applications and components, runs their
start, stop and status commands locally, tracks each component's lifecycle
state and keeps a backend informed of the topology over a websocket.

The topology can be retained across restarts in a local cache.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "apparray version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

// newApplication builds the application from the persistent flags. Logging
// is silenced for short-lived commands unless --debug is set.
func newApplication(cmd *cobra.Command, quiet bool, overrides ...func(*app.Config)) (*app.Application, error) {
	cfg := app.NewConfig(rootDebug, quiet && !rootDebug, rootConfigPath)
	cfg.Host = rootHost
	cfg.CacheDriver = rootCacheDriver
	cfg.Output = cmd.OutOrStdout()
	for _, override := range overrides {
		override(cfg)
	}
	return app.NewApplication(cfg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config-path", "", "Configuration directory (default ~/.config/apparray)")
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootHost, "host", "", "Backend address, overrides backend.host")
	rootCmd.PersistentFlags().StringVar(&rootCacheDriver, "cache-driver", "", "Cache driver: file, badger or memory")

	rootCmd.AddCommand(newVersionCmd())
}
