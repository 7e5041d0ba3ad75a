// Package synchronizer keeps a backend informed of the current topology and
// feeds backend notifications into the component registry.
//
// The backend is reached through a Transport. The websocket transport
// exchanges JSON envelopes:
//
//	{"type": "model",   "payload": <Application>}        client -> backend
//	{"type": "command", "payload": <CommandResponse>}    backend -> client
//	{"type": "update",  "payload": <UpdateResponse>}     backend -> client
//
// Snapshots are always sent whole. A snapshot sent while disconnected is kept
// and sent as soon as a session is established.
package synchronizer
