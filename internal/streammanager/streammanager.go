// Package streammanager implements the Stream Manager: drives at most one
// active LM stream per workspace, translating the provider's opaque event
// sequence into the Event Bus's typed vocabulary, persisting the in-progress
// message as it grows, and on completion either appending the turn to
// history normally or routing it through the Compaction Engine.
package streammanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mux/internal/compaction"
	"mux/internal/eventbus"
	"mux/internal/history"
	"mux/internal/sysprompt"
	"mux/internal/workspace"
	"mux/pkg/logging"
)

// activeStream tracks the one in-flight stream a workspace may have,
// grounded on internal/services' BaseService pattern of a mutex-guarded
// state field plus a cancellation hook, generalized from service
// start/stop to stream start/abort.
type activeStream struct {
	mu          sync.Mutex
	cancel      context.CancelFunc
	abortReason eventbus.AbortReason
}

// StartParams describes one stream request. The triggering user message is
// assumed already appended to Log by the caller (the Session Orchestrator),
// per the control-flow note in spec.md §4: "a frontend request ... enters
// the Session Orchestrator, which appends to the History Log, invokes the
// Stream Manager".
type StartParams struct {
	WorkspaceID string
	MessageID   string // id assigned to the assistant message this stream produces
	Model       string
	Log         *history.Log
	Compactor   *compaction.Engine
	CompactedBy compaction.Source // attribution if this turn resolves to a compaction commit
	SysPrompt   sysprompt.Params
	Messages    []workspace.Message // full conversation, including the already-appended trigger message
}

// ErrAlreadyStreaming is returned by Start when the workspace already has an
// active stream.
type ErrAlreadyStreaming struct{ WorkspaceID string }

func (e *ErrAlreadyStreaming) Error() string {
	return fmt.Sprintf("streammanager: workspace %s already has an active stream", e.WorkspaceID)
}

// Manager drives streams for every workspace it is asked to serve. One
// Manager is shared process-wide; per-workspace serialization comes from
// the active-stream map, not from a dedicated goroutine pool — callers
// invoke Start from whatever per-workspace actor goroutine they already
// have, per §5's "per-workspace logical single-threaded actors" model.
type Manager struct {
	mu     sync.Mutex
	active map[string]*activeStream

	Bus      *eventbus.Bus
	Tools    ToolLeaser
	Provider Provider
	Now      func() time.Time
}

// New builds a Manager. Provider and Tools are required; Bus may be nil, in
// which case no events are published (callers should share one Bus across
// the whole process so subscribers see every workspace's events).
func New(bus *eventbus.Bus, tools ToolLeaser, provider Provider) *Manager {
	return &Manager{
		active:   make(map[string]*activeStream),
		Bus:      bus,
		Tools:    tools,
		Provider: provider,
		Now:      time.Now,
	}
}

// Start runs one stream to completion (or abort), blocking the calling
// goroutine for its duration. It acquires the MCP tools lease, builds the
// system message, opens the provider stream, and emits events to Bus as the
// provider produces them.
func (m *Manager) Start(ctx context.Context, p StartParams) error {
	if err := m.register(p.WorkspaceID); err != nil {
		return err
	}
	defer m.unregister(p.WorkspaceID)

	streamCtx, cancel := context.WithCancel(ctx)
	as := m.lookup(p.WorkspaceID)
	as.mu.Lock()
	as.cancel = cancel
	as.mu.Unlock()
	defer cancel()

	lease, err := m.Tools.AcquireLease(streamCtx, p.WorkspaceID)
	if err != nil {
		return fmt.Errorf("streammanager: acquire tool lease: %w", err)
	}
	defer lease.Release()

	systemMessage := sysprompt.Build(p.SysPrompt)

	seq, err := p.Log.PeekNextSequence()
	if err != nil {
		return fmt.Errorf("streammanager: peek next sequence: %w", err)
	}

	events, err := m.Provider.Stream(streamCtx, StreamRequest{
		WorkspaceID:   p.WorkspaceID,
		Model:         p.Model,
		SystemMessage: systemMessage,
		Messages:      p.Messages,
		Tools:         lease.Tools,
	})
	if err != nil {
		return fmt.Errorf("streammanager: open provider stream: %w", err)
	}

	m.publish(eventbus.Event{
		Kind: eventbus.KindStreamStart, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: m.Now(),
		Payload: eventbus.StreamStartPayload{Model: p.Model, HistorySequence: seq},
	})

	acc := newAccumulator()
	return m.consume(streamCtx, p, as, events, acc)
}

func (m *Manager) consume(ctx context.Context, p StartParams, as *activeStream, events <-chan ProviderEvent, acc *accumulator) error {
	for {
		select {
		case <-ctx.Done():
			as.mu.Lock()
			reason := as.abortReason
			as.mu.Unlock()
			if reason == "" {
				reason = eventbus.AbortRuntimeError
			}
			m.finishAbort(p, reason, acc)
			return nil

		case ev, ok := <-events:
			if !ok {
				m.finishAbort(p, eventbus.AbortRuntimeError, acc)
				return nil
			}
			if done, err := m.handleEvent(p, acc, ev); done {
				return err
			}
		}
	}
}

// handleEvent applies one provider event to acc and emits the corresponding
// bus event. It returns done=true once the stream has reached a terminal
// state (Done or Error), at which point the caller must stop consuming.
func (m *Manager) handleEvent(p StartParams, acc *accumulator, ev ProviderEvent) (done bool, err error) {
	now := m.Now()
	switch ev.Kind {
	case ProviderTextDelta:
		acc.addText(ev.Delta)
		m.publish(eventbus.Event{
			Kind: eventbus.KindStreamDelta, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: now,
			Payload: eventbus.StreamDeltaPayload{Delta: ev.Delta, Tokens: ApproxTokens(ev.Delta)},
		})
		m.savePartial(p, acc)

	case ProviderReasoningDelta:
		acc.addReasoning(ev.Delta)
		m.publish(eventbus.Event{
			Kind: eventbus.KindReasoningDelta, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: now,
			Payload: eventbus.StreamDeltaPayload{Delta: ev.Delta, Tokens: ApproxTokens(ev.Delta)},
		})
		m.savePartial(p, acc)

	case ProviderToolCallStart:
		acc.toolCallStart(ev.ToolCallID, ev.ToolName, ev.Args)
		m.publish(eventbus.Event{
			Kind: eventbus.KindToolCallStart, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: now,
			Payload: eventbus.ToolCallStartPayload{ToolCallID: ev.ToolCallID, ToolName: ev.ToolName, Args: ev.Args, Tokens: approxArgsTokens(ev.Args)},
		})
		m.savePartial(p, acc)

	case ProviderToolCallEnd:
		acc.toolCallEnd(ev.ToolCallID, ev.Result, ev.IsError, ev.ErrMsg)
		m.publish(eventbus.Event{
			Kind: eventbus.KindToolCallEnd, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: now,
			Payload: eventbus.ToolCallEndPayload{ToolCallID: ev.ToolCallID, ToolName: ev.ToolName, Result: ev.Result},
		})
		m.savePartial(p, acc)

	case ProviderDone:
		m.finishDone(p, ev, acc)
		return true, nil

	case ProviderError:
		m.finishError(p, ev)
		return true, nil
	}
	return false, nil
}

func (m *Manager) savePartial(p StartParams, acc *accumulator) {
	msg := workspace.Message{
		ID:    p.MessageID,
		Role:  workspace.RoleAssistant,
		Parts: acc.parts,
		Metadata: workspace.Metadata{
			Timestamp: m.Now(),
			Model:     p.Model,
		},
	}
	if err := p.Log.SavePartial(msg); err != nil {
		logging.Error("streammanager", nil, "save partial for workspace %s: %v", p.WorkspaceID, err)
	}
}

func (m *Manager) finishAbort(p StartParams, reason eventbus.AbortReason, acc *accumulator) {
	m.publish(eventbus.Event{
		Kind: eventbus.KindStreamAbort, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: m.Now(),
		Payload: eventbus.StreamAbortPayload{Reason: reason},
	})
}

func (m *Manager) finishError(p StartParams, ev ProviderEvent) {
	errType := ev.ProviderError
	if errType == "" {
		errType = string(eventbus.ErrorUnknown)
	}
	msg := errType
	if ev.Err != nil {
		msg = ev.Err.Error()
	} else if ev.ErrMsg != "" {
		msg = ev.ErrMsg
	}
	m.publish(eventbus.Event{
		Kind: eventbus.KindError, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: m.Now(),
		Payload: eventbus.ErrorPayload{Error: msg, ErrorType: eventbus.ErrorType(errType)},
	})
}

func (m *Manager) finishDone(p StartParams, ev ProviderEvent, acc *accumulator) {
	metadata := ev.Metadata
	contextUsage := ev.ContextUsage

	streamEnd := eventbus.StreamEndPayload{
		Parts:        partsToInterfaces(acc.parts),
		Metadata:     metadata,
		ContextUsage: contextUsage,
	}

	compactEv := compaction.StreamEndEvent{
		MessageID:    p.MessageID,
		Parts:        acc.parts,
		ContextUsage: contextUsage,
		Usage:        ev.Usage,
	}

	if p.Compactor != nil {
		source := p.CompactedBy
		if source == "" {
			source = workspace.CompactedUser
		}
		m.publish(eventbus.Event{Kind: eventbus.KindCompactionStart, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: m.Now()})

		handled, err := p.Compactor.Compact(compactEv, source)
		if handled {
			m.publish(eventbus.Event{
				Kind: eventbus.KindCompactionEnd, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: m.Now(),
				Payload: eventbus.CompactionPayload{Succeeded: err == nil, Error: errString(err)},
			})
			m.publish(eventbus.Event{
				Kind: eventbus.KindStreamEnd, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: m.Now(),
				Payload: streamEnd,
			})
			return
		}
	}

	assistantMsg := workspace.Message{
		ID:   p.MessageID,
		Role: workspace.RoleAssistant,
		Parts: acc.parts,
		Metadata: workspace.Metadata{
			Timestamp:        m.Now(),
			Model:            p.Model,
			TokenUsage:       ev.Usage,
			ContextUsage:     contextUsage,
			ProviderMetadata: metadata,
		},
	}
	if _, err := p.Log.AppendToHistory(assistantMsg); err != nil {
		logging.Error("streammanager", nil, "append assistant message for workspace %s: %v", p.WorkspaceID, err)
	}
	if err := p.Log.DeletePartial(); err != nil {
		logging.Error("streammanager", nil, "delete partial for workspace %s: %v", p.WorkspaceID, err)
	}

	m.publish(eventbus.Event{
		Kind: eventbus.KindStreamEnd, WorkspaceID: p.WorkspaceID, MessageID: p.MessageID, At: m.Now(),
		Payload: streamEnd,
	})
}

// Stop requests abort of workspaceID's active stream, if any. It returns
// false if the workspace has no active stream.
func (m *Manager) Stop(workspaceID string, reason eventbus.AbortReason) bool {
	as := m.lookup(workspaceID)
	if as == nil {
		return false
	}
	as.mu.Lock()
	as.abortReason = reason
	cancel := as.cancel
	as.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return true
}

func (m *Manager) register(workspaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.active[workspaceID]; exists {
		return &ErrAlreadyStreaming{WorkspaceID: workspaceID}
	}
	m.active[workspaceID] = &activeStream{}
	return nil
}

func (m *Manager) unregister(workspaceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, workspaceID)
}

func (m *Manager) lookup(workspaceID string) *activeStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[workspaceID]
}

func (m *Manager) publish(ev eventbus.Event) {
	if m.Bus != nil {
		m.Bus.Publish(ev)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func approxArgsTokens(args map[string]interface{}) int {
	// Estimated from rendered length, same ceil(len/4) rule as text deltas;
	// exact tokenization happens out-of-band per spec.md §5.
	n := 0
	for k, v := range args {
		n += len(k) + len(fmt.Sprint(v))
	}
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

func partsToInterfaces(parts []workspace.Part) []interface{} {
	out := make([]interface{}, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}
