package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mux/internal/compaction"
	"mux/internal/eventbus"
	"mux/internal/history"
	"mux/internal/streammanager"
)

func newTestManager(t *testing.T, provider streammanager.Provider) *Manager {
	t.Helper()
	bus := eventbus.New()
	streams := streammanager.New(bus, fakeToolLeaser{}, provider)

	return NewManager(func(workspaceID string) (Config, error) {
		dir := t.TempDir()
		log := history.New(dir)
		return Config{
			Log:       log,
			Streams:   streams,
			Compactor: compaction.New(log, dir),
			Bus:       bus,
		}, nil
	})
}

func TestManagerCreatesOneActorPerWorkspace(t *testing.T) {
	m := newTestManager(t, &scriptedProvider{events: []streammanager.ProviderEvent{{Kind: streammanager.ProviderDone}}})

	a1, err := m.actorFor("ws1")
	require.NoError(t, err)
	a2, err := m.actorFor("ws1")
	require.NoError(t, err)
	a3, err := m.actorFor("ws2")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, a3)
}

func TestManagerStopOnUnknownWorkspaceReturnsFalse(t *testing.T) {
	m := newTestManager(t, &scriptedProvider{})
	assert.False(t, m.Stop("never-seen", eventbus.AbortUserCancelled))
}

func TestManagerSurfacesConfigFactoryError(t *testing.T) {
	m := NewManager(func(workspaceID string) (Config, error) {
		return Config{}, fmt.Errorf("no such workspace")
	})

	err := m.Send(context.Background(), "ws1", SendParams{Text: "hi"})
	assert.Error(t, err)
}

func TestManagerForgetDropsActor(t *testing.T) {
	m := newTestManager(t, &scriptedProvider{})

	a1, err := m.actorFor("ws1")
	require.NoError(t, err)

	m.Forget("ws1")

	a2, err := m.actorFor("ws1")
	require.NoError(t, err)
	assert.NotSame(t, a1, a2)
}
