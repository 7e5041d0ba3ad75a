// Package cache persists the client-side CacheInfo record: the backend host,
// whether the topology is retained across restarts, and the serialized
// topology itself.
//
// Storage goes through the Store port. FileStore keeps the record as JSON in
// a data directory; BadgerStore keeps it in an embedded badger database. The
// Manager loads the record once at startup, never failing, and saves it after
// every topology mutation.
package cache
