package streammanager

import (
	"context"
	"strings"

	"mux/internal/workspace"
)

// ToolDescriptor is one namespaced tool the MCP Server Manager exposes to a
// provider's tool catalog (`<server>_<tool>`, per §4.12).
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// ToolLease is a held reference-counted lease on a workspace's MCP tool set
// (§4.12 acquireLease/releaseLease). Release must be idempotent.
type ToolLease struct {
	Tools   []ToolDescriptor
	Release func()
}

// ToolLeaser is implemented by the MCP Server Manager. Defined here, rather
// than depended on from there, so the Stream Manager is testable against a
// fake without requiring a live MCP manager.
type ToolLeaser interface {
	AcquireLease(ctx context.Context, workspaceID string) (ToolLease, error)
}

// ProviderEventKind discriminates the tagged-variant ProviderEvent.
type ProviderEventKind string

const (
	ProviderTextDelta      ProviderEventKind = "text-delta"
	ProviderReasoningDelta ProviderEventKind = "reasoning-delta"
	ProviderToolCallStart  ProviderEventKind = "tool-call-start"
	ProviderToolCallEnd    ProviderEventKind = "tool-call-end"
	ProviderDone           ProviderEventKind = "done"
	ProviderError          ProviderEventKind = "error"
)

// ProviderEvent is one item of the cold event sequence a provider streams
// back for one request. Providers are treated as an opaque streaming
// generator with this fixed event vocabulary; the concrete LM SDK behind
// Provider is explicitly out of scope.
type ProviderEvent struct {
	Kind ProviderEventKind

	// ProviderTextDelta / ProviderReasoningDelta
	Delta string

	// ProviderToolCallStart
	ToolCallID string
	ToolName   string
	Args       map[string]interface{}

	// ProviderToolCallEnd
	Result  interface{}
	IsError bool
	ErrMsg  string

	// ProviderDone
	Usage        *workspace.TokenUsage
	ContextUsage *int
	Metadata     map[string]interface{}

	// ProviderError
	Err           error
	ProviderError string // authentication | runtime_not_ready | runtime_start_failed | model_not_found | unknown
}

// StreamRequest is what Provider.Stream needs to open one LM stream.
type StreamRequest struct {
	WorkspaceID   string
	Model         string
	SystemMessage string
	Messages      []workspace.Message
	Tools         []ToolDescriptor
}

// Provider opens one cold sequence of ProviderEvents for req. Implementers
// must stop emitting once ctx is done; the Stream Manager's consumer loop
// also stops reading on ctx.Done() regardless, so a provider slow to react
// to cancellation never blocks shutdown.
type Provider interface {
	Stream(ctx context.Context, req StreamRequest) (<-chan ProviderEvent, error)
}

// ApproxTokens is the ceil(trimmed-length/4) estimate spec.md mandates for
// per-chunk token counts; exact counts are produced out-of-band by a
// tokenizer and are not part of per-delta emission.
func ApproxTokens(s string) int {
	n := len(strings.TrimSpace(s))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
