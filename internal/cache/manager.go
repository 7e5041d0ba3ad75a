package cache

import (
	"errors"
	"fmt"
	"sync"

	"apparray/internal/model"
	"apparray/pkg/logging"
)

// Store drivers.
const (
	DriverFile   = "file"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// Open returns the store for driver rooted at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", DriverFile:
		return NewFileStore(path), nil
	case DriverBadger:
		return OpenBadgerStore(path)
	case DriverMemory:
		return OpenInMemoryBadgerStore()
	default:
		return nil, fmt.Errorf("unknown cache driver %q", driver)
	}
}

// Manager owns the in-memory CacheInfo and writes it through a Store.
type Manager struct {
	mu    sync.Mutex
	store Store
	host  string
	info  CacheInfo
}

// NewManager returns a manager over store. A non-empty host overrides the
// stored one on Load.
func NewManager(store Store, host string) *Manager {
	return &Manager{store: store, host: host, info: Defaults()}
}

// Load reads the record. It never fails: a missing or unreadable record
// yields the defaults, and a corrupt model is dropped on its own.
func (m *Manager) Load() CacheInfo {
	info, err := m.store.Load()
	switch {
	case errors.Is(err, ErrNotFound):
		logging.Debug("Cache", "No cache record yet, using defaults")
		info = Defaults()
	case err != nil:
		logging.Warn("Cache", "Ignoring unreadable cache record: %v", err)
		info = Defaults()
	}

	override := m.host != "" && info.Host != m.host
	if override {
		info.Host = m.host
	}
	if info.Host == "" {
		info.Host = DefaultHost
	}
	if info.Model != "" {
		if _, err := model.ParseApplication([]byte(info.Model)); err != nil {
			logging.Warn("Cache", "Dropping corrupt cached model: %v", err)
			info.Model = ""
		}
	}

	m.mu.Lock()
	m.info = info
	m.mu.Unlock()
	if override {
		// persist the configured host so the record matches what we connect to
		_ = m.SetHost(info.Host)
	}
	return info
}

// Info returns a copy of the current record.
func (m *Manager) Info() CacheInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

// Topology rehydrates the retained topology, or returns an empty application.
func (m *Manager) Topology() *model.Application {
	info := m.Info()
	if !info.KeepModel || info.Model == "" {
		return model.EmptyApplication()
	}
	app, err := model.ParseApplication([]byte(info.Model))
	if err != nil {
		logging.Warn("Cache", "Cached model is unusable, starting empty: %v", err)
		return model.EmptyApplication()
	}
	return app
}

// Update records app as the current topology and saves. The model is only
// retained when KeepModel is set.
func (m *Manager) Update(app *model.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(app)
}

// SetKeepModel toggles retention and saves with app as the current topology.
func (m *Manager) SetKeepModel(keep bool, app *model.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info.KeepModel = keep
	return m.updateLocked(app)
}

// SetHost stores a new backend host.
func (m *Manager) SetHost(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info.Host = host
	return m.saveLocked()
}

func (m *Manager) updateLocked(app *model.Application) error {
	m.info.Model = ""
	if m.info.KeepModel && app != nil {
		data, err := app.Marshal()
		if err != nil {
			return fmt.Errorf("failed to serialize topology: %w", err)
		}
		m.info.Model = string(data)
	}
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if err := m.store.Save(m.info); err != nil {
		logging.Error("Cache", err, "Failed to save cache record")
		return err
	}
	return nil
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
