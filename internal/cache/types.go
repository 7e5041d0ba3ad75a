package cache

import (
	"errors"
)

const (
	// Key is the well-known key the record is stored under.
	Key = "apparray.cache"

	// DefaultHost is the backend address used when none is stored or configured.
	DefaultHost = "http://localhost:9090"
)

// ErrNotFound is returned by a Store that holds no record yet.
var ErrNotFound = errors.New("cache record not found")

// CacheInfo is the persisted client state.
type CacheInfo struct {
	Host      string `json:"host"`
	KeepModel bool   `json:"keepModel"`
	// Model is the JSON topology, or empty when the topology is not retained.
	Model string `json:"model"`
}

// Defaults returns the record used when nothing usable is stored.
func Defaults() CacheInfo {
	return CacheInfo{Host: DefaultHost}
}

// Store loads and saves the record.
type Store interface {
	Load() (CacheInfo, error)
	Save(info CacheInfo) error
	Close() error
}
