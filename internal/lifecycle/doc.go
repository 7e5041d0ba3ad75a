// Package lifecycle derives a component's status from the commands issued
// against it, their results, and status pushes from the backend.
//
// Command-driven transitions are described by a dispatch table keyed by the
// command key, so the whole table can be read and tested in one place:
//
//	command  pending    on Ok     on NotOk
//	START    STARTING   STARTED   STOPPED
//	STOP     STOPPING   STOPPED   UNKNOWN
//	STATUS   CHECKING   STARTED   STOPPED
//
// A backend push overrides whatever is held: Ok resolves to STARTED and NotOk
// to STOPPED. Updates are applied in arrival order, last write wins.
package lifecycle
