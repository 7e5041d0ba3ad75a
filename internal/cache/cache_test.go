package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apparray/internal/model"
)

func sampleApp() *model.Application {
	app := model.NewApplication("shop")
	app.Components = append(app.Components, model.Component{
		ID:   "svc1",
		Type: model.TypeComponent,
		Commands: model.CommandMap{
			model.CommandStart: {Type: "shell", Steps: []string{"echo hi"}},
		},
	})
	return app
}

// stores returns a fresh instance of every Store implementation.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	mem, err := OpenInMemoryBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { mem.Close() })
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "data")),
		"badger": mem,
	}
}

func TestStores_LoadSave(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load()
			assert.ErrorIs(t, err, ErrNotFound)

			want := CacheInfo{Host: "http://h:1", KeepModel: true, Model: `{"id":"x"}`}
			require.NoError(t, store.Save(want))

			got, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFileStore_RecordShape(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save(CacheInfo{Host: "h", KeepModel: false, Model: ""}))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.JSONEq(t, `{"host":"h","keepModel":false,"model":""}`, string(data))
}

func TestManager_DiscardsModelWhenNotKept(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(CacheInfo{Host: "h", KeepModel: false}))
			m := NewManager(store, "")
			m.Load()

			require.NoError(t, m.Update(sampleApp()))

			saved, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, "", saved.Model)
			assert.False(t, saved.KeepModel)
		})
	}
}

func TestManager_RetainsModelWhenKept(t *testing.T) {
	store := NewFileStore(t.TempDir())
	m := NewManager(store, "")
	m.Load()

	app := sampleApp()
	require.NoError(t, m.SetKeepModel(true, app))

	reloaded := NewManager(store, "")
	info := reloaded.Load()
	assert.True(t, info.KeepModel)
	assert.NotEmpty(t, info.Model)

	topo := reloaded.Topology()
	assert.Equal(t, "shop", topo.ID)
	require.Len(t, topo.Components, 1)
	assert.Equal(t, []string{"echo hi"}, topo.Components[0].Commands[model.CommandStart].Steps)

	require.NoError(t, reloaded.SetKeepModel(false, topo))
	assert.Equal(t, "", reloaded.Info().Model)
	assert.True(t, reloaded.Topology().IsEmpty())
}

func TestManager_CorruptModelFallsBackToEmpty(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Save(CacheInfo{Host: "h", KeepModel: true, Model: "<invalid-json>"}))

	m := NewManager(store, "")
	var info CacheInfo
	assert.NotPanics(t, func() { info = m.Load() })
	assert.Equal(t, "h", info.Host)
	assert.True(t, info.KeepModel)
	assert.Equal(t, "", info.Model)
	assert.True(t, m.Topology().IsEmpty())
}

func TestManager_CorruptRecordFallsBackToDefaults(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{nope"), 0644))
		info := NewManager(NewFileStore(dir), "").Load()
		assert.Equal(t, Defaults(), info)
	})

	t.Run("badger", func(t *testing.T) {
		store, err := OpenInMemoryBadgerStore()
		require.NoError(t, err)
		defer store.Close()
		require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(Key), []byte("garbage"))
		}))
		info := NewManager(store, "").Load()
		assert.Equal(t, Defaults(), info)
	})
}

func TestManager_ConfiguredHostWins(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Save(CacheInfo{Host: "http://old:1"}))

	info := NewManager(store, "http://new:2").Load()
	assert.Equal(t, "http://new:2", info.Host)
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://new:2", saved.Host)

	m := NewManager(store, "")
	m.Load()
	require.NoError(t, m.SetHost("http://other:3"))
	saved, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "http://other:3", saved.Host)
}

func TestOpen(t *testing.T) {
	s, err := Open(DriverFile, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(DriverMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(DriverBadger, filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open("redis", "")
	assert.Error(t, err)
}
