package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/flowbridge/flowbridge-mcp/internal/server-plugin/domain"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"go.uber.org/fx"
)

// ServerPluginRegistry is the plain catalog of every provided plugin plus the
// activation flags the dynamic registry mirrors into it. It has no
// dependencies so read-only consumers such as the core plugin can take it
// without a cycle.
type ServerPluginRegistry struct {
	plugins map[string]domain.ServerPlugin
	active  map[string]bool
	mu      sync.RWMutex
}

func NewServerPluginRegistry() *ServerPluginRegistry {
	return &ServerPluginRegistry{
		plugins: make(map[string]domain.ServerPlugin),
		active:  make(map[string]bool),
	}
}

// Register adds plugin to the catalog. IDs must be unique.
func (r *ServerPluginRegistry) Register(plugin domain.ServerPlugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[plugin.ID()]; exists {
		return fmt.Errorf("server plugin %q already registered", plugin.ID())
	}
	r.plugins[plugin.ID()] = plugin
	return nil
}

// Get returns a registered plugin by ID.
func (r *ServerPluginRegistry) Get(id string) (domain.ServerPlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[id]
	return p, ok
}

// IDs returns the registered plugin IDs in sorted order.
func (r *ServerPluginRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetActive records the activation state of a registered plugin.
func (r *ServerPluginRegistry) SetActive(id string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[id]; ok {
		r.active[id] = active
	}
}

// Active returns the active plugins sorted by ID.
func (r *ServerPluginRegistry) Active() []domain.ServerPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.ServerPlugin
	for id, p := range r.plugins {
		if r.active[id] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// DynamicServerPluginRegistry decides which provided plugins are active. It
// reconciles against the disabled list from discovery on demand and, when
// plugins.sync_interval is set, on a ticker.
type DynamicServerPluginRegistry struct {
	catalog   *ServerPluginRegistry
	discovery domain.ServerPluginDiscoveryService
	logger    *slog.Logger
	cfg       config.PluginsConfig

	provided  []domain.ServerPlugin
	active    map[string]bool
	listeners []func(context.Context)
	mu        sync.RWMutex
}

type DynamicServerPluginRegistryParams struct {
	fx.In
	PluginRegistry  *ServerPluginRegistry
	PluginDiscovery domain.ServerPluginDiscoveryService
	Logger          *slog.Logger
	PluginsConfig   config.PluginsConfig
	ServerPlugins   []domain.ServerPlugin `group:"server_plugins"`
}

func NewDynamicServerPluginRegistry(params DynamicServerPluginRegistryParams) *DynamicServerPluginRegistry {
	provided := make([]domain.ServerPlugin, 0, len(params.ServerPlugins))
	for _, p := range params.ServerPlugins {
		if err := params.PluginRegistry.Register(p); err != nil {
			params.Logger.Error("Skipping server plugin", "plugin", p.ID(), "error", err)
			continue
		}
		provided = append(provided, p)
	}
	params.Logger.Debug("Server plugins catalogued", "plugins", params.PluginRegistry.IDs())

	return &DynamicServerPluginRegistry{
		catalog:   params.PluginRegistry,
		discovery: params.PluginDiscovery,
		logger:    params.Logger,
		cfg:       params.PluginsConfig,
		provided:  provided,
		active:    make(map[string]bool, len(provided)),
	}
}

// RegisterHooks starts the periodic reconcile loop with the application and
// stops it on shutdown. The first reconcile is driven by the server hooks so
// capabilities are in place before the transport starts.
func (r *DynamicServerPluginRegistry) RegisterHooks(lc fx.Lifecycle) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if r.cfg.SyncInterval <= 0 {
				close(done)
				r.logger.Info("Plugin reconcile loop disabled", "plugins", len(r.provided))
				return nil
			}
			r.logger.Info("Plugin reconcile loop started",
				"plugins", len(r.provided),
				"interval", r.cfg.SyncInterval)
			go func() {
				defer close(done)
				r.reconcileEvery(ctx, r.cfg.SyncInterval)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			r.logger.Info("Plugin reconcile loop stopped")
			return nil
		},
	})
}

func (r *DynamicServerPluginRegistry) reconcileEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.SyncServerPlugins(ctx); err != nil {
				r.logger.Error("Plugin reconcile failed", "error", err)
			}
		}
	}
}

// SyncServerPlugins reconciles activation with the current disabled list and
// runs the change listeners when anything flipped. A discovery failure falls
// back to the disabled list loaded at startup.
func (r *DynamicServerPluginRegistry) SyncServerPlugins(ctx context.Context) error {
	disabled, err := r.discovery.GetDisabledServerPlugins(ctx)
	if err != nil {
		r.logger.Warn("Plugin discovery failed, using startup configuration", "error", err)
		disabled = r.cfg.Disabled
	}

	changed := r.apply(r.desired(disabled))

	r.mu.RLock()
	listeners := append([]func(context.Context){}, r.listeners...)
	r.mu.RUnlock()

	if len(changed) == 0 {
		r.logger.Debug("Plugin activation unchanged")
		return nil
	}
	r.logger.Info("Plugin activation changed", "plugins", changed, "active", len(r.GetActiveServerPlugins()))
	for _, fn := range listeners {
		fn(ctx)
	}
	return nil
}

// OnChange registers fn to run after a reconcile that flipped any plugin.
func (r *DynamicServerPluginRegistry) OnChange(fn func(context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// desired maps every provided plugin to its target state.
func (r *DynamicServerPluginRegistry) desired(disabled []string) map[string]bool {
	off := make(map[string]bool, len(disabled))
	for _, id := range disabled {
		off[id] = true
	}

	want := make(map[string]bool, len(r.provided))
	for _, p := range r.provided {
		if off[p.ID()] && p.Essential() {
			r.logger.Warn("Ignoring request to disable an essential plugin", "plugin", p.ID())
		}
		want[p.ID()] = p.Essential() || !off[p.ID()]
	}
	return want
}

// apply moves to want and returns the IDs whose state flipped.
func (r *DynamicServerPluginRegistry) apply(want map[string]bool) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed []string
	for _, p := range r.provided {
		id := p.ID()
		r.catalog.SetActive(id, want[id])
		if r.active[id] == want[id] {
			continue
		}
		r.active[id] = want[id]
		changed = append(changed, id)
		if want[id] {
			r.logger.Info("Server plugin activated", "plugin", id, "version", p.Version())
		} else {
			r.logger.Info("Server plugin deactivated", "plugin", id)
		}
	}
	return changed
}

// GetActiveServerPlugins returns the active plugins in provide order.
func (r *DynamicServerPluginRegistry) GetActiveServerPlugins() []domain.ServerPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.ServerPlugin
	for _, p := range r.provided {
		if r.active[p.ID()] {
			out = append(out, p)
		}
	}
	return out
}

func (r *DynamicServerPluginRegistry) IsServerPluginActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active[id]
}
