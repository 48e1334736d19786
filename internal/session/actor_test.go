package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mux/internal/compaction"
	"mux/internal/eventbus"
	"mux/internal/history"
	"mux/internal/streammanager"
	"mux/internal/sysprompt"
	"mux/internal/workspace"
)

type fakeToolLeaser struct{}

func (fakeToolLeaser) AcquireLease(ctx context.Context, workspaceID string) (streammanager.ToolLease, error) {
	return streammanager.ToolLease{Release: func() {}}, nil
}

type scriptedProvider struct {
	events []streammanager.ProviderEvent
}

func (p *scriptedProvider) Stream(ctx context.Context, req streammanager.StreamRequest) (<-chan streammanager.ProviderEvent, error) {
	ch := make(chan streammanager.ProviderEvent, len(p.events))
	for _, ev := range p.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

// blockingProvider blocks forever on its first Stream call (until the
// caller cancels via Stop) and completes immediately on every call after,
// so a test can observe a queued follow-up turn actually running.
type blockingProvider struct {
	started chan struct{}
	once    sync.Once
}

func (p *blockingProvider) Stream(ctx context.Context, req streammanager.StreamRequest) (<-chan streammanager.ProviderEvent, error) {
	isFirst := false
	p.once.Do(func() {
		isFirst = true
		close(p.started)
	})
	if isFirst {
		return make(chan streammanager.ProviderEvent), nil
	}
	ch := make(chan streammanager.ProviderEvent, 1)
	ch <- streammanager.ProviderEvent{Kind: streammanager.ProviderDone}
	close(ch)
	return ch, nil
}

func collectEvents(bus *eventbus.Bus) *[]eventbus.Event {
	var evs []eventbus.Event
	bus.Subscribe(func(e eventbus.Event) { evs = append(evs, e) })
	return &evs
}

func newTestActor(t *testing.T, provider streammanager.Provider) (*Actor, *history.Log, *eventbus.Bus) {
	t.Helper()
	dir := t.TempDir()
	log := history.New(dir)
	bus := eventbus.New()
	streams := streammanager.New(bus, fakeToolLeaser{}, provider)

	cfg := Config{
		WorkspaceID:  "ws1",
		Log:          log,
		Streams:      streams,
		Compactor:    compaction.New(log, dir),
		Bus:          bus,
		SysPrompt:    sysprompt.Params{RuntimeKind: workspace.RuntimeLocal, ProjectPath: "/repo"},
		DefaultModel: "default-model",
	}
	return newActor(cfg), log, bus
}

func waitForMessages(t *testing.T, log *history.Log, n int) []workspace.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msgs, err := log.GetLastMessages(0)
		require.NoError(t, err)
		if len(msgs) >= n {
			return msgs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d messages", n)
	return nil
}

func TestSendAppendsUserMessageAndStreamsReply(t *testing.T) {
	provider := &scriptedProvider{events: []streammanager.ProviderEvent{
		{Kind: streammanager.ProviderTextDelta, Delta: "hi there"},
		{Kind: streammanager.ProviderDone},
	}}
	actor, log, bus := newTestActor(t, provider)
	evs := collectEvents(bus)

	err := actor.Send(context.Background(), SendParams{Text: "hello"})
	require.NoError(t, err)

	msgs := waitForMessages(t, log, 2)
	assert.Equal(t, workspace.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Parts[0].Text)
	assert.Equal(t, workspace.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "hi there", msgs[1].Parts[0].Text)

	var sawChatMessage bool
	for _, e := range *evs {
		if e.Kind == eventbus.KindChatMessage {
			sawChatMessage = true
		}
	}
	assert.True(t, sawChatMessage)
}

func TestSendDuringActiveStreamIsCoalesced(t *testing.T) {
	blocker := &blockingProvider{started: make(chan struct{})}
	actor, log, _ := newTestActor(t, blocker)

	require.NoError(t, actor.Send(context.Background(), SendParams{Text: "first"}))
	<-blocker.started

	require.NoError(t, actor.Send(context.Background(), SendParams{Text: "second"}))

	msgs, err := log.GetLastMessages(0)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "second send must be queued, not appended while streaming")

	actor.Stop(eventbus.AbortUserCancelled)

	msgs = waitForMessages(t, log, 2)
	assert.Equal(t, "second", msgs[1].Parts[0].Text)
}

func TestCompactRoutesThroughCompactionEngine(t *testing.T) {
	provider := &scriptedProvider{events: []streammanager.ProviderEvent{
		{Kind: streammanager.ProviderTextDelta, Delta: "summary of the conversation"},
		{Kind: streammanager.ProviderDone},
	}}
	actor, log, bus := newTestActor(t, provider)
	evs := collectEvents(bus)

	err := actor.Compact(context.Background(), "")
	require.NoError(t, err)

	msgs := waitForMessages(t, log, 2)
	assert.True(t, msgs[1].Metadata.CompactionBoundary)
	assert.Equal(t, workspace.CompactedUser, msgs[1].Metadata.Compacted)

	var sawCompactionEnd bool
	for _, e := range *evs {
		if e.Kind == eventbus.KindCompactionEnd {
			sawCompactionEnd = true
		}
	}
	assert.True(t, sawCompactionEnd)
}

func TestIdleCompactAttributesBoundaryToIdle(t *testing.T) {
	provider := &scriptedProvider{events: []streammanager.ProviderEvent{
		{Kind: streammanager.ProviderTextDelta, Delta: "idle summary"},
		{Kind: streammanager.ProviderDone},
	}}
	actor, log, _ := newTestActor(t, provider)

	require.NoError(t, actor.IdleCompact(context.Background(), ""))

	msgs := waitForMessages(t, log, 2)
	assert.Equal(t, workspace.CompactedIdle, msgs[1].Metadata.Compacted)
}

func TestDeleteHistoryEmitsDeleteEvent(t *testing.T) {
	provider := &scriptedProvider{}
	actor, log, bus := newTestActor(t, provider)
	evs := collectEvents(bus)

	_, err := log.AppendToHistory(workspace.Message{ID: "m1", Role: workspace.RoleUser, Metadata: workspace.Metadata{HistorySequence: -1}})
	require.NoError(t, err)

	require.NoError(t, actor.DeleteHistory())

	msgs, err := log.GetLastMessages(0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	var deletePayload *eventbus.DeletePayload
	for _, e := range *evs {
		if e.Kind == eventbus.KindDelete {
			p := e.Payload.(eventbus.DeletePayload)
			deletePayload = &p
		}
	}
	require.NotNil(t, deletePayload)
	assert.Equal(t, []int64{1}, deletePayload.HistorySequences)
}
