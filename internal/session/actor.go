// Package session implements the Session Orchestration Layer: one actor per
// workspace that serializes frontend requests (send, stop, delete, compact)
// against that workspace's History Log and Stream Manager. Per spec.md's
// control-flow note: "a frontend request ... enters the Session
// Orchestrator, which appends to the History Log, invokes the Stream
// Manager, which acquires Runtime + MCP tools, opens an LM stream, emits
// events as they arrive, and on completion either updates History normally
// or routes through the Compaction Engine."
//
// An Actor never runs two turns concurrently for its workspace: a Send
// arriving while a stream is active is coalesced into the Message Queue
// instead of racing it, and is flushed as the next turn once the active
// stream ends, following msgqueue's first-metadata/latest-options rules.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mux/internal/eventbus"
	"mux/internal/msgqueue"
	"mux/internal/streammanager"
	"mux/internal/workspace"
	"mux/pkg/logging"
)

// Actor owns one workspace's session state machine.
type Actor struct {
	cfg   Config
	queue *msgqueue.Queue

	mu        sync.Mutex
	streaming bool
}

func newActor(cfg Config) *Actor {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Actor{cfg: cfg, queue: msgqueue.New()}
}

// turn is one resolved user turn ready to append and stream.
type turn struct {
	text    string
	images  []workspace.Part
	muxMeta *workspace.MuxMetadata
	model   string
	source  workspace.CompactedBy
}

// Send appends p as the next user turn, or — if this workspace already has
// a stream in flight — coalesces it into the pending Message Queue. It
// returns once the turn is durably queued or handed off to a streaming
// goroutine; it does not wait for the stream itself to finish.
func (a *Actor) Send(ctx context.Context, p SendParams) error {
	return a.enqueueOrStart(ctx, turn{text: p.Text, images: p.Images, muxMeta: p.MuxMetadata, model: p.Model})
}

// Compact requests an explicit (user-triggered) compaction, following the
// same path as an ordinary send: the Stream Manager's Compactor detects the
// compaction-request metadata on completion and routes accordingly.
func (a *Actor) Compact(ctx context.Context, model string) error {
	return a.enqueueOrStart(ctx, turn{
		text:    "/compact",
		muxMeta: &workspace.MuxMetadata{Type: workspace.MuxMetadataCompactionRequest},
		model:   model,
		source:  workspace.CompactedUser,
	})
}

// IdleCompact requests a system-triggered compaction after a period of
// inactivity. It behaves like Compact but attributes the resulting boundary
// to "idle" rather than "user", per spec.md §4.10's two compaction sources.
func (a *Actor) IdleCompact(ctx context.Context, model string) error {
	return a.enqueueOrStart(ctx, turn{
		text:    "/compact",
		muxMeta: &workspace.MuxMetadata{Type: workspace.MuxMetadataCompactionRequest},
		model:   model,
		source:  workspace.CompactedIdle,
	})
}

func (a *Actor) enqueueOrStart(ctx context.Context, t turn) error {
	a.mu.Lock()
	if a.streaming {
		err := a.queue.Add(t.text, t.images, t.muxMeta, msgqueue.Options{Model: t.model})
		a.mu.Unlock()
		return err
	}
	a.streaming = true
	a.mu.Unlock()

	go a.runLoop(ctx, t)
	return nil
}

// runLoop drives turns one at a time until the Message Queue is empty,
// coalescing anything that arrived mid-stream into the next turn.
func (a *Actor) runLoop(ctx context.Context, first turn) {
	t := first
	for {
		if err := a.appendAndStream(ctx, t); err != nil {
			logging.Error("session", nil, "turn failed for workspace %s: %v", a.cfg.WorkspaceID, err)
		}

		a.mu.Lock()
		if a.queue.IsEmpty() {
			a.streaming = false
			a.mu.Unlock()
			return
		}
		produced := a.queue.ProduceMessage()
		a.queue.Clear()
		a.mu.Unlock()

		t = turn{
			text:    produced.Text,
			images:  produced.Images,
			muxMeta: produced.MuxMetadata,
			model:   produced.Options.Model,
		}
	}
}

func (a *Actor) appendAndStream(ctx context.Context, t turn) error {
	model := t.model
	if model == "" {
		model = a.cfg.DefaultModel
	}

	parts := make([]workspace.Part, 0, len(t.images)+1)
	if t.text != "" {
		parts = append(parts, workspace.Part{Kind: workspace.PartText, Text: t.text})
	}
	parts = append(parts, t.images...)

	userMsg := workspace.Message{
		ID:   a.cfg.NewID(),
		Role: workspace.RoleUser,
		Parts: parts,
		Metadata: workspace.Metadata{
			Timestamp:       a.cfg.Now(),
			HistorySequence: -1,
			MuxMetadata:     t.muxMeta,
		},
	}

	saved, err := a.cfg.Log.AppendToHistory(userMsg)
	if err != nil {
		return fmt.Errorf("session: append user message: %w", err)
	}
	a.publishChatMessage(saved)

	full, err := a.cfg.Log.GetLastMessages(0)
	if err != nil {
		return fmt.Errorf("session: load history: %w", err)
	}

	sysPrompt := a.cfg.SysPrompt
	sysPrompt.ModelID = model

	if err := a.cfg.Streams.Start(ctx, streammanager.StartParams{
		WorkspaceID: a.cfg.WorkspaceID,
		MessageID:   a.cfg.NewID(),
		Model:       model,
		Log:         a.cfg.Log,
		Compactor:   a.cfg.Compactor,
		CompactedBy: t.source,
		SysPrompt:   sysPrompt,
		Messages:    full,
	}); err != nil {
		return fmt.Errorf("session: start stream: %w", err)
	}
	return nil
}

// Stop requests abort of this workspace's active stream, if any.
func (a *Actor) Stop(reason eventbus.AbortReason) bool {
	return a.cfg.Streams.Stop(a.cfg.WorkspaceID, reason)
}

// DeleteHistory clears the workspace's entire history log and emits a
// delete chat-event bearing the removed sequence numbers.
func (a *Actor) DeleteHistory() error {
	removed, err := a.cfg.Log.ClearHistory()
	if err != nil {
		return fmt.Errorf("session: clear history: %w", err)
	}
	a.publish(eventbus.Event{
		Kind:        eventbus.KindDelete,
		WorkspaceID: a.cfg.WorkspaceID,
		At:          a.cfg.Now(),
		Payload:     eventbus.DeletePayload{HistorySequences: removed},
	})
	return nil
}

func (a *Actor) publishChatMessage(msg workspace.Message) {
	a.publish(eventbus.Event{
		Kind:        eventbus.KindChatMessage,
		WorkspaceID: a.cfg.WorkspaceID,
		MessageID:   msg.ID,
		At:          a.cfg.Now(),
		Payload:     eventbus.ChatMessagePayload{Message: msg},
	})
}

func (a *Actor) publish(ev eventbus.Event) {
	if a.cfg.Bus != nil {
		a.cfg.Bus.Publish(ev)
	}
}
