// Package persistence lets Plugins register resources for durable
// storage, snapshotting them after each graph run. It does not attempt
// checkpoint/resume mid-execution (see SPEC_FULL.md Non-goals).
package persistence

import (
	"encoding/json"
	"fmt"

	polaris "github.com/TeamRadiantAI/polaris-sub001"
	"github.com/TeamRadiantAI/polaris-sub001/log"
)

// ResourceSerializer bridges one resource type to durable storage.
// PluginID and StorageKey together form a stable identity across
// process restarts; SchemaVersion lets a Store reject or migrate rows
// written by an older version of the same type.
type ResourceSerializer struct {
	PluginID      string
	StorageKey    string
	SchemaVersion int

	// Save extracts the resource from c and marshals it, returning
	// ok=false when the resource isn't present (nothing to persist).
	Save func(c *polaris.Context) (data json.RawMessage, ok bool)

	// Load unmarshals data and installs the resource into c.
	Load func(data json.RawMessage, c *polaris.Context) error
}

// Storable is implemented by resource types that register their own
// serializer, mirroring the teacher's #[derive(Storable)] convention:
// the key and version live next to the type definition.
type Storable interface {
	StorageKey() string
	SchemaVersion() int
}

// NewResourceSerializer builds a ResourceSerializer for a JSON-
// marshalable, Storable resource type T using ordinary encoding/json,
// reflecting it into the Context via Get/With.
func NewResourceSerializer[T interface {
	Storable
}](pluginID string, zero T) ResourceSerializer {
	return ResourceSerializer{
		PluginID:      pluginID,
		StorageKey:    zero.StorageKey(),
		SchemaVersion: zero.SchemaVersion(),
		Save: func(c *polaris.Context) (json.RawMessage, bool) {
			guard, err := polaris.Get[T](c.Locals())
			if err != nil {
				return nil, false
			}
			defer guard.Release()
			data, err := json.Marshal(guard.Value())
			if err != nil {
				return nil, false
			}
			return data, true
		},
		Load: func(data json.RawMessage, c *polaris.Context) error {
			var value T
			if err := json.Unmarshal(data, &value); err != nil {
				return fmt.Errorf("unmarshal %s: %w", zero.StorageKey(), err)
			}
			c.With(value)
			return nil
		},
	}
}

// Store persists ResourceSerializer output keyed by (runID, StorageKey).
type Store interface {
	Save(runID string, key string, schemaVersion int, data json.RawMessage) error
	Load(runID string, key string) (data json.RawMessage, schemaVersion int, ok bool, err error)
	Close() error
}

// PersistencePlugin snapshots every registered ResourceSerializer's
// resource into a Store after each graph run, whether the run
// succeeded or failed, so partial agent progress survives a crash.
//
// OnGraphComplete/OnGraphFailure observers carry a GraphEvent only, not
// the Context being executed (the kernel's hook contract is
// intentionally side-effect-only — see hooks.go), so the snapshot
// itself happens in RunAndSnapshot, which wraps GraphExecutor.Run. The
// Build-registered observers below exist for the log line, matching
// how LoggingExtension reports graph-level lifecycle.
type PersistencePlugin struct {
	polaris.BasePlugin
	store       Store
	serializers []ResourceSerializer
}

// NewPersistencePlugin builds a plugin writing through store.
func NewPersistencePlugin(store Store) *PersistencePlugin {
	return &PersistencePlugin{store: store}
}

func (PersistencePlugin) ID() string              { return "persistence" }
func (PersistencePlugin) Version() polaris.Version { return polaris.NewVersion(0, 1, 0) }

// RegisterSerializer adds a resource type to the set snapshotted after
// every graph run. Call during plugin setup, before Server.Build.
func (p *PersistencePlugin) RegisterSerializer(s ResourceSerializer) {
	p.serializers = append(p.serializers, s)
}

func (p *PersistencePlugin) Build(s *polaris.Server) {
	hooks := s.Hooks()
	polaris.RegisterObserver[polaris.OnGraphComplete](hooks, "persistence_graph_complete", func(event *polaris.GraphEvent) {
		log.Default().Debug("persistence: graph completed, snapshot pending")
	})
	polaris.RegisterObserver[polaris.OnGraphFailure](hooks, "persistence_graph_failure", func(event *polaris.GraphEvent) {
		log.Default().Debug("persistence: graph failed, snapshot pending")
	})
}

// RunAndSnapshot runs exec against c and snapshots every registered
// serializer's resource afterward, regardless of whether the run
// succeeded — returning the run's error, if any, after the snapshot
// attempt (a failed snapshot write is logged, not propagated, since it
// must not mask the original execution error).
func (p *PersistencePlugin) RunAndSnapshot(exec *polaris.GraphExecutor, c *polaris.Context) error {
	runErr := exec.Run(c)
	p.snapshot(c)
	return runErr
}

func (p *PersistencePlugin) snapshot(c *polaris.Context) {
	for _, s := range p.serializers {
		data, ok := s.Save(c)
		if !ok {
			continue
		}
		if err := p.store.Save(c.ID(), s.StorageKey, s.SchemaVersion, data); err != nil {
			log.Default().Error("persistence: failed to save %s for run %s: %v", s.StorageKey, c.ID(), err)
		}
	}
}

// Restore loads every registered serializer's resource for runID from
// the store back into c, skipping keys with no stored row.
func (p *PersistencePlugin) Restore(runID string, c *polaris.Context) error {
	for _, s := range p.serializers {
		data, version, ok, err := p.store.Load(runID, s.StorageKey)
		if err != nil {
			return fmt.Errorf("load %s: %w", s.StorageKey, err)
		}
		if !ok {
			continue
		}
		if version != s.SchemaVersion {
			return fmt.Errorf("load %s: stored schema version %d does not match %d", s.StorageKey, version, s.SchemaVersion)
		}
		if err := s.Load(data, c); err != nil {
			return err
		}
	}
	return nil
}
