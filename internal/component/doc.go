// Package component binds topology components to execution engines and
// lifecycle machines.
//
// A Controller owns exactly one engine binding slot for its component.
// InitializeConnection toggles the binding: connecting creates a fresh
// engine when the component has at least one executable command, and
// disconnecting invalidates any active run so that its remaining output and
// its result are dropped. Commands issued while disconnected are no-ops.
//
// Only one run may be active per component. A command issued while another
// run is active is rejected with ErrRunInProgress.
//
// A Registry holds the controllers of the current topology and routes
// backend notifications to them by component id.
package component
