package session

import (
	"context"
	"fmt"
	"sync"

	"mux/internal/eventbus"
)

// ConfigFactory builds the Config for a workspace the first time Manager
// sees it. Returning an error (workspace not found, runtime not
// provisioned) prevents an Actor from ever being created for that id.
type ConfigFactory func(workspaceID string) (Config, error)

// Manager lazily creates one Actor per workspace and routes calls to it,
// grounded on internal/orchestrator's map[string]*GenericServiceInstance
// registry pattern generalized from services to per-workspace actors.
type Manager struct {
	newConfig ConfigFactory

	mu     sync.Mutex
	actors map[string]*Actor
}

// NewManager builds a Manager that resolves each workspace's Config lazily
// via newConfig.
func NewManager(newConfig ConfigFactory) *Manager {
	return &Manager{
		newConfig: newConfig,
		actors:    make(map[string]*Actor),
	}
}

func (m *Manager) actorFor(workspaceID string) (*Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.actors[workspaceID]; ok {
		return a, nil
	}
	cfg, err := m.newConfig(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("session: build config for workspace %s: %w", workspaceID, err)
	}
	cfg.WorkspaceID = workspaceID
	a := newActor(cfg)
	m.actors[workspaceID] = a
	return a, nil
}

// Send routes a user turn to workspaceID's actor.
func (m *Manager) Send(ctx context.Context, workspaceID string, p SendParams) error {
	a, err := m.actorFor(workspaceID)
	if err != nil {
		return err
	}
	return a.Send(ctx, p)
}

// Compact routes an explicit compaction request to workspaceID's actor.
func (m *Manager) Compact(ctx context.Context, workspaceID, model string) error {
	a, err := m.actorFor(workspaceID)
	if err != nil {
		return err
	}
	return a.Compact(ctx, model)
}

// IdleCompact routes a system-triggered compaction to workspaceID's actor.
func (m *Manager) IdleCompact(ctx context.Context, workspaceID, model string) error {
	a, err := m.actorFor(workspaceID)
	if err != nil {
		return err
	}
	return a.IdleCompact(ctx, model)
}

// Stop aborts workspaceID's active stream, if any. It returns false both
// when the workspace has no actor yet and when the actor has no active
// stream.
func (m *Manager) Stop(workspaceID string, reason eventbus.AbortReason) bool {
	m.mu.Lock()
	a, ok := m.actors[workspaceID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	return a.Stop(reason)
}

// DeleteHistory clears workspaceID's history log.
func (m *Manager) DeleteHistory(workspaceID string) error {
	a, err := m.actorFor(workspaceID)
	if err != nil {
		return err
	}
	return a.DeleteHistory()
}

// Forget drops workspaceID's actor from the registry, used when a workspace
// itself is deleted. It does not stop an in-flight stream; callers should
// Stop first.
func (m *Manager) Forget(workspaceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.actors, workspaceID)
}
