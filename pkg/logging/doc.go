// Package logging provides the subsystem-tagged logger used across apparray.
//
// It wraps Go's log/slog with a small set of package level helpers so that
// every entry carries a subsystem attribute and, for errors, an error attribute:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Bootstrap", "Loaded configuration from %s", path)
//	logging.Debug("Executor", "Step %d finished", idx)
//	logging.Warn("Sync", "Ignoring notification for %s", id)
//	logging.Error("Cache", err, "Failed to persist cache record")
//
// Subsystems used in this repository include Bootstrap, Config, Cache,
// Executor, Lifecycle, Component, Sync, Watch and Metrics.
//
// Until Init is called the helpers log through slog.Default().
package logging
