package session

import (
	"time"

	"mux/internal/compaction"
	"mux/internal/eventbus"
	"mux/internal/history"
	"mux/internal/streammanager"
	"mux/internal/sysprompt"
	"mux/internal/workspace"
)

// Config wires one workspace's Actor to the components it drives. Every
// field except WorkspaceID, Log, and Streams is optional.
type Config struct {
	WorkspaceID string

	Log       *history.Log
	Streams   *streammanager.Manager
	Compactor *compaction.Engine
	Bus       *eventbus.Bus

	// SysPrompt is the per-workspace template; ModelID is overwritten per
	// turn with the resolved model before it reaches the Stream Manager.
	SysPrompt sysprompt.Params

	// DefaultModel is used when a Send/Compact call leaves Model empty.
	DefaultModel string

	// NewID generates message ids; defaults to uuid.NewString.
	NewID func() string
	// Now is the injected clock; defaults to time.Now.
	Now func() time.Time
}

// SendParams describes one frontend-originated user turn.
type SendParams struct {
	Text        string
	Images      []workspace.Part
	MuxMetadata *workspace.MuxMetadata
	Model       string
}
