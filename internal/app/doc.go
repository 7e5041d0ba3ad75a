// Package app wires the apparray services together.
//
// NewApplication performs the bootstrap: logging, configuration, the cache
// record (loaded fail-safe), the rehydrated topology, the component registry,
// the backend synchronizer and the metrics recorder. Every topology mutation
// goes through the Application so that the registry, the cache record and the
// backend snapshot stay in step:
//
//	app, err := app.NewApplication(app.NewConfig(false, false, ""))
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
//
// Run connects the components and the backend, then runs the topology
// watcher and the metrics endpoint until the context is cancelled or the
// process receives SIGINT or SIGTERM.
package app
