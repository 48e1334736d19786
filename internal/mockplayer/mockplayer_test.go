package mockplayer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mux/internal/streammanager"
)

func drain(t *testing.T, ch <-chan streammanager.ProviderEvent) []streammanager.ProviderEvent {
	t.Helper()
	var out []streammanager.ProviderEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestPlayerReplaysActiveScenario(t *testing.T) {
	p := New(TextScenario("hello", "Hi", " there"))
	ch, err := p.Stream(context.Background(), streammanager.StreamRequest{})
	require.NoError(t, err)

	events := drain(t, ch)
	require.Len(t, events, 3)
	assert.Equal(t, "Hi", events[0].Delta)
	assert.Equal(t, streammanager.ProviderDone, events[2].Kind)
}

func TestPlayerSetActiveSwitchesScenario(t *testing.T) {
	p := New(TextScenario("a", "first"), TextScenario("b", "second"))
	require.NoError(t, p.SetActive("b"))

	ch, err := p.Stream(context.Background(), streammanager.StreamRequest{})
	require.NoError(t, err)
	events := drain(t, ch)
	assert.Equal(t, "second", events[0].Delta)
}

func TestPlayerSetActiveUnknownScenarioErrors(t *testing.T) {
	p := New(TextScenario("a", "x"))
	assert.Error(t, p.SetActive("missing"))
}

func TestPlayerStreamStopsOnCancelledContext(t *testing.T) {
	events := make([]streammanager.ProviderEvent, 0, 100)
	for i := 0; i < 100; i++ {
		events = append(events, streammanager.ProviderEvent{Kind: streammanager.ProviderTextDelta, Delta: "x"})
	}
	p := New(Scenario{Name: "long", Events: events})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := p.Stream(ctx, streammanager.StreamRequest{})
	require.NoError(t, err)

	<-ch
	cancel()

	count := 1
	for range ch {
		count++
	}
	assert.Less(t, count, 100)
}

func TestStreamWithNoScenariosErrors(t *testing.T) {
	p := New()
	_, err := p.Stream(context.Background(), streammanager.StreamRequest{})
	assert.Error(t, err)
}
