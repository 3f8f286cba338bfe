// Package plugins implements lifecycle management for engine plugins:
// registration, start/stop, status reporting, and an isolated storage
// namespace each plugin can read and write without touching resource data.
// Grounded on the teacher's plugins.Manager (Factory/Plugin dispatch,
// namedplugin registry, pluginStatus/pluginStatusListeners map), re-pointed
// here at a storage.Store and an events.Bus instead of OPA's policy
// compiler and REST service clients.
package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/events"
	"github.com/s3db-io/s3db/storage"
)

// Factory instantiates a plugin from its raw configuration. Validate runs
// first, returning a parsed config value; New then builds the plugin from
// that value plus a *Manager scoped to the plugin's own storage namespace.
type Factory interface {
	Validate(manager *Manager, config []byte) (interface{}, error)
	New(manager *Manager, config interface{}) Plugin
}

// Plugin is the lifecycle interface the manager drives every registered
// plugin through.
type Plugin interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Reconfigure(ctx context.Context, config interface{})
}

// State is a plugin's coarse lifecycle state.
type State string

const (
	StateNotReady State = "NOT_READY"
	StateOK       State = "OK"
	StateErr      State = "ERROR"
)

// Status is a plugin's current reported state plus an optional message.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

// StatusListener is notified with a full snapshot of every plugin's status
// whenever any one of them changes.
type StatusListener func(status map[string]*Status)

type namedPlugin struct {
	name   string
	plugin Plugin
}

// Manager owns plugin registration/lifecycle and hands each plugin a
// storage.Store view confined to its own "plg/<name>/" key prefix, so a
// plugin can never read or write resource data directly.
type Manager struct {
	Store *Namespace
	Bus   *events.Bus
	ID    string

	mtx                   sync.Mutex
	plugins               []namedPlugin
	pluginStatus          map[string]*Status
	pluginStatusListeners map[string]StatusListener
}

// New creates a Manager whose plugins see store scoped under "plg/".
func New(store storage.Store, id string, bus *events.Bus) *Manager {
	return &Manager{
		Store:                 NewNamespace(store, "plg"),
		Bus:                   bus,
		ID:                    id,
		pluginStatus:          map[string]*Status{},
		pluginStatusListeners: map[string]StatusListener{},
	}
}

// Register adds a plugin to the manager. Start/Stop drive every registered
// plugin in registration order.
func (m *Manager) Register(name string, plugin Plugin) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.plugins = append(m.plugins, namedPlugin{name: name, plugin: plugin})
	if _, ok := m.pluginStatus[name]; !ok {
		m.pluginStatus[name] = nil
	}
}

// Plugins lists every registered plugin name.
func (m *Manager) Plugins() []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	names := make([]string, len(m.plugins))
	for i := range m.plugins {
		names[i] = m.plugins[i].name
	}
	return names
}

// Plugin returns the registered plugin with name, or nil.
func (m *Manager) Plugin(name string) Plugin {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for i := range m.plugins {
		if m.plugins[i].name == name {
			return m.plugins[i].plugin
		}
	}
	return nil
}

// Namespace scoped to this one plugin, so plugins never need to know their
// own name when building keys.
func (m *Manager) Namespace(name string) *Namespace {
	return m.Store.Sub(name)
}

// Start starts every registered plugin in registration order, stopping and
// returning the first error encountered.
func (m *Manager) Start(ctx context.Context) error {
	var toStart []Plugin
	func() {
		m.mtx.Lock()
		defer m.mtx.Unlock()
		toStart = make([]Plugin, len(m.plugins))
		for i := range m.plugins {
			toStart[i] = m.plugins[i].plugin
		}
	}()
	for _, p := range toStart {
		if err := p.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops every registered plugin in registration order.
func (m *Manager) Stop(ctx context.Context) {
	var toStop []Plugin
	func() {
		m.mtx.Lock()
		defer m.mtx.Unlock()
		toStop = make([]Plugin, len(m.plugins))
		for i := range m.plugins {
			toStop[i] = m.plugins[i].plugin
		}
	}()
	for _, p := range toStop {
		p.Stop(ctx)
	}
}

// PluginStatus returns a snapshot of every registered plugin's status.
func (m *Manager) PluginStatus() map[string]*Status {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.copyPluginStatus()
}

// RegisterPluginStatusListener registers listener under name, replacing any
// listener already registered under it.
func (m *Manager) RegisterPluginStatusListener(name string, listener StatusListener) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.pluginStatusListeners[name] = listener
}

// UnregisterPluginStatusListener removes the listener registered under name.
func (m *Manager) UnregisterPluginStatusListener(name string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	delete(m.pluginStatusListeners, name)
}

// UpdatePluginStatus records pluginName's new status and fans a full
// snapshot out to every registered listener, then publishes it on the
// engine event bus so external observers don't need a separate channel.
func (m *Manager) UpdatePluginStatus(pluginName string, status *Status) {
	var toNotify map[string]StatusListener
	var statuses map[string]*Status

	func() {
		m.mtx.Lock()
		defer m.mtx.Unlock()
		m.pluginStatus[pluginName] = status
		toNotify = make(map[string]StatusListener, len(m.pluginStatusListeners))
		for k, v := range m.pluginStatusListeners {
			toNotify[k] = v
		}
		statuses = m.copyPluginStatus()
	}()

	for _, l := range toNotify {
		l(statuses)
	}
	if m.Bus != nil {
		m.Bus.Publish(events.Event{Kind: events.RecordWritten, Resource: "plg/" + pluginName, Op: "status:" + string(status.State)})
	}
}

func (m *Manager) copyPluginStatus() map[string]*Status {
	cpy := make(map[string]*Status, len(m.pluginStatus))
	for k, v := range m.pluginStatus {
		if v == nil {
			cpy[k] = nil
			continue
		}
		s := *v
		cpy[k] = &s
	}
	return cpy
}

// ValidateConfig is a convenience helper factories can use to unmarshal and
// type-check raw plugin configuration before New is called.
func ValidateConfig(raw []byte, out interface{}) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Wrap(errs.ValidationFailed, err, "parsing plugin config")
	}
	return nil
}

// Namespace is a storage.Store view confined to everything under one key
// prefix. It exposes the same Head+Copy metadata-only update primitive the
// record engine's Patch uses, so plugins get the same cheap update path
// without needing schema/behavior machinery of their own.
type Namespace struct {
	backend storage.Store
	prefix  string
}

// NewNamespace builds a Namespace rooted at prefix (no trailing slash
// required; Namespace adds exactly one separator).
func NewNamespace(backend storage.Store, prefix string) *Namespace {
	return &Namespace{backend: backend, prefix: strings.TrimRight(prefix, "/")}
}

// Sub returns a Namespace nested one level further under name.
func (n *Namespace) Sub(name string) *Namespace {
	return NewNamespace(n.backend, n.key(name))
}

func (n *Namespace) key(rel string) string {
	return n.prefix + "/" + strings.TrimLeft(rel, "/")
}

func (n *Namespace) Put(ctx context.Context, relKey string, metadata storage.Metadata, body []byte, contentType string) (string, error) {
	return n.backend.Put(ctx, n.key(relKey), metadata, bytes.NewReader(body), contentType)
}

func (n *Namespace) Get(ctx context.Context, relKey string) (*storage.Object, error) {
	return n.backend.Get(ctx, n.key(relKey))
}

func (n *Namespace) Head(ctx context.Context, relKey string) (*storage.Head, error) {
	return n.backend.Head(ctx, n.key(relKey))
}

// UpdateMetadata is the metadata-only update primitive: head the current
// object to confirm it exists, then copy it onto itself with merged
// metadata, without re-uploading the body.
func (n *Namespace) UpdateMetadata(ctx context.Context, relKey string, patch map[string]string) error {
	full := n.key(relKey)
	head, err := n.backend.Head(ctx, full)
	if err != nil {
		return err
	}
	merged := storage.Metadata{}
	for k, v := range head.Metadata {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return n.backend.Copy(ctx, full, full, merged)
}

func (n *Namespace) Delete(ctx context.Context, relKey string) error {
	return n.backend.Delete(ctx, n.key(relKey))
}

func (n *Namespace) List(ctx context.Context, relPrefix, continuation string) (*storage.ListResult, error) {
	lr, err := n.backend.List(ctx, n.key(relPrefix), continuation)
	if err != nil {
		return nil, err
	}
	out := &storage.ListResult{NextContinuation: lr.NextContinuation}
	for _, k := range lr.Keys {
		out.Keys = append(out.Keys, strings.TrimPrefix(k, n.prefix+"/"))
	}
	return out, nil
}
