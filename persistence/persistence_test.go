package persistence

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	polaris "github.com/TeamRadiantAI/polaris-sub001"
	"github.com/stretchr/testify/require"
)

type conversationMemory struct {
	Messages []string
}

func (conversationMemory) StorageKey() string { return "ConversationMemory" }
func (conversationMemory) SchemaVersion() int { return 1 }

type fakeStore struct {
	mu   sync.Mutex
	rows map[string]map[string]struct {
		version int
		data    json.RawMessage
	}
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]map[string]struct {
		version int
		data    json.RawMessage
	})}
}

func (s *fakeStore) Save(runID, key string, version int, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[runID] == nil {
		s.rows[runID] = make(map[string]struct {
			version int
			data    json.RawMessage
		})
	}
	s.rows[runID][key] = struct {
		version int
		data    json.RawMessage
	}{version, data}
	return nil
}

func (s *fakeStore) Load(runID, key string) (json.RawMessage, int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[runID][key]
	if !ok {
		return nil, 0, false, nil
	}
	return row.data, row.version, true, nil
}

func (s *fakeStore) Close() error { return nil }

func TestPersistencePlugin_RunAndSnapshotSavesResourceOnSuccess(t *testing.T) {
	store := newFakeStore()
	plugin := NewPersistencePlugin(store)
	serializer := NewResourceSerializer("test", conversationMemory{})
	plugin.RegisterSerializer(serializer)

	server := polaris.NewServer()
	server.AddPlugin(plugin)
	require.NoError(t, server.Build())

	c := polaris.NewContext(server)
	c.With(conversationMemory{Messages: []string{"hi"}})

	g := polaris.NewGraph()
	g.AddSystem(polaris.NewSystem0("noop", func(c *polaris.Context) (struct{}, *polaris.SystemError) {
		return struct{}{}, nil
	}))

	exec := polaris.NewGraphExecutor(g, server.Hooks(), 0)
	err := plugin.RunAndSnapshot(exec, c)
	require.NoError(t, err)

	data, version, ok, err := store.Load(c.ID(), "ConversationMemory")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, version)

	var restored conversationMemory
	require.NoError(t, json.Unmarshal(data, &restored))
	require.Equal(t, []string{"hi"}, restored.Messages)
}

func TestPersistencePlugin_RunAndSnapshotStillSnapshotsOnFailure(t *testing.T) {
	store := newFakeStore()
	plugin := NewPersistencePlugin(store)
	plugin.RegisterSerializer(NewResourceSerializer("test", conversationMemory{}))

	server := polaris.NewServer()
	server.AddPlugin(plugin)
	require.NoError(t, server.Build())

	c := polaris.NewContext(server)
	c.With(conversationMemory{Messages: []string{"partial"}})

	boom := polaris.NewSystem0("boom", func(c *polaris.Context) (struct{}, *polaris.SystemError) {
		return struct{}{}, polaris.ExecutionErrorf("deliberate failure")
	})
	g := polaris.NewGraph()
	g.AddSystem(boom)

	exec := polaris.NewGraphExecutor(g, server.Hooks(), 0)
	err := plugin.RunAndSnapshot(exec, c)
	require.Error(t, err)

	_, _, ok, loadErr := store.Load(c.ID(), "ConversationMemory")
	require.NoError(t, loadErr)
	require.True(t, ok, "resource must be snapshotted even when the run fails")
}

func TestPersistencePlugin_RestoreInstallsResourceIntoFreshContext(t *testing.T) {
	store := newFakeStore()
	plugin := NewPersistencePlugin(store)
	plugin.RegisterSerializer(NewResourceSerializer("test", conversationMemory{}))

	require.NoError(t, store.Save("run-1", "ConversationMemory", 1, mustJSON(t, conversationMemory{Messages: []string{"resumed"}})))

	server := polaris.NewServer()
	c := polaris.NewContext(server)
	require.NoError(t, plugin.Restore("run-1", c))

	guard, err := polaris.Get[conversationMemory](c.Locals())
	require.NoError(t, err)
	require.Equal(t, []string{"resumed"}, guard.Value().Messages)
	guard.Release()
}

func TestSQLiteStore_SaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(SQLiteOptions{Path: path})
	require.NoError(t, err)
	defer store.Close()

	payload := mustJSON(t, conversationMemory{Messages: []string{"a", "b"}})
	require.NoError(t, store.Save("run-1", "ConversationMemory", 2, payload))

	data, version, ok, err := store.Load("run-1", "ConversationMemory")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, version)
	require.JSONEq(t, string(payload), string(data))
}

func TestSQLiteStore_LoadMissingRowReturnsNotOK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(SQLiteOptions{Path: path})
	require.NoError(t, err)
	defer store.Close()

	_, _, ok, err := store.Load("missing", "Whatever")
	require.NoError(t, err)
	require.False(t, ok)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
