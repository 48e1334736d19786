// Package workspace holds the data model shared by every core component:
// messages, their tagged-variant parts, per-workspace metadata, and runtime
// configuration. Types here carry no behavior beyond what is needed to
// serialize and validate them; the components that own the corresponding
// operations (history, compaction, runtime) live in their own packages.
package workspace

import "time"

// Role is the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// CompactedBy records which trigger produced a compaction boundary.
type CompactedBy string

const (
	CompactedAbsent CompactedBy = ""
	CompactedUser   CompactedBy = "user"
	CompactedIdle   CompactedBy = "idle"
)

// MuxMetadataType tags why a message was produced, distinguishing ordinary
// chat turns from compaction plumbing.
type MuxMetadataType string

const (
	MuxMetadataNormal            MuxMetadataType = "normal"
	MuxMetadataCompactionRequest MuxMetadataType = "compaction-request"
	MuxMetadataCompactionSummary MuxMetadataType = "compaction-summary"
)

// MuxMetadata is the typed sub-object distinguishing message intent.
type MuxMetadata struct {
	Type MuxMetadataType `json:"type"`
}

// Metadata carries everything about a Message beyond its content.
type Metadata struct {
	Timestamp             time.Time              `json:"timestamp"`
	Model                 string                 `json:"model,omitempty"`
	TokenUsage            *TokenUsage            `json:"tokenUsage,omitempty"`
	Duration              time.Duration          `json:"duration,omitempty"`
	MuxMetadata           *MuxMetadata           `json:"muxMetadata,omitempty"`
	HistorySequence       int64                  `json:"historySequence"`
	Compacted             CompactedBy            `json:"compacted,omitempty"`
	CompactionBoundary    bool                   `json:"compactionBoundary,omitempty"`
	CompactionEpoch       int                    `json:"compactionEpoch,omitempty"`
	ContextUsage          *int                   `json:"contextUsage,omitempty"`
	ProviderMetadata      map[string]interface{} `json:"providerMetadata,omitempty"`
	ContextProviderMeta   map[string]interface{} `json:"contextProviderMetadata,omitempty"`
}

// TokenUsage captures provider-reported token counts for one message.
type TokenUsage struct {
	InputTokens     int `json:"inputTokens"`
	OutputTokens    int `json:"outputTokens"`
	ReasoningTokens int `json:"reasoningTokens,omitempty"`
}

// PartKind discriminates the Part tagged variant.
type PartKind string

const (
	PartText     PartKind = "text"
	PartReasoning PartKind = "reasoning"
	PartToolCall PartKind = "tool-call"
	PartImage    PartKind = "image"
)

// ToolCallState is the lifecycle of a tool-call Part.
type ToolCallState string

const (
	ToolCallInputStreaming  ToolCallState = "input-streaming"
	ToolCallInputAvailable  ToolCallState = "input-available"
	ToolCallOutputAvailable ToolCallState = "output-available"
	ToolCallError           ToolCallState = "error"
)

// Part is a tagged variant: exactly the fields for Kind are meaningful.
// Modeled as a flat struct (rather than an interface with a type switch)
// because parts serialize directly to/from the wire JSON format that
// frontend bridges already expect; Kind plays the role of the type tag.
type Part struct {
	Kind PartKind `json:"kind"`

	// PartText
	Text string `json:"text,omitempty"`

	// PartReasoning
	Reasoning string `json:"reasoning,omitempty"`

	// PartToolCall
	ToolCallID string                 `json:"toolCallId,omitempty"`
	ToolName   string                 `json:"toolName,omitempty"`
	Input      map[string]interface{} `json:"input,omitempty"`
	State      ToolCallState          `json:"state,omitempty"`
	Result     interface{}            `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`

	// PartImage
	ImageURL  string `json:"imageUrl,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
}

// Message is the unit the History Log stores.
type Message struct {
	ID       string   `json:"id"`
	Role     Role     `json:"role"`
	Parts    []Part   `json:"parts"`
	Metadata Metadata `json:"metadata"`
}

// RuntimeKind discriminates the RuntimeConfig tagged variant.
type RuntimeKind string

const (
	RuntimeLocal        RuntimeKind = "local"
	RuntimeWorktree     RuntimeKind = "worktree"
	RuntimeSSH          RuntimeKind = "ssh"
	RuntimeDocker       RuntimeKind = "docker"
	RuntimeDevcontainer RuntimeKind = "devcontainer"
)

// CoderConfig is the sub-variant carried by an "ssh" RuntimeConfig whose
// host is a Coder-hosted workspace.
type CoderConfig struct {
	URL          string `json:"url" yaml:"url"`
	Token        string `json:"-" yaml:"-"` // never persisted; supplied by the embedding frontend at runtime
	WorkspaceID  string `json:"workspaceId,omitempty" yaml:"workspaceId,omitempty"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
}

// RuntimeConfig is the tagged-variant runtime configuration attached to a
// Workspace. Exactly one of the Kind-specific fields is populated.
type RuntimeConfig struct {
	Kind RuntimeKind `json:"kind" yaml:"kind"`

	// local / worktree
	ProjectPath string `json:"projectPath,omitempty" yaml:"projectPath,omitempty"`
	SrcBaseDir  string `json:"srcBaseDir,omitempty" yaml:"srcBaseDir,omitempty"`

	// ssh
	Host         string       `json:"host,omitempty" yaml:"host,omitempty"`
	Port         int          `json:"port,omitempty" yaml:"port,omitempty"`
	IdentityFile string       `json:"identityFile,omitempty" yaml:"identityFile,omitempty"`
	Coder        *CoderConfig `json:"coder,omitempty" yaml:"coder,omitempty"`

	// docker
	Image         string `json:"image,omitempty" yaml:"image,omitempty"`
	ContainerName string `json:"containerName,omitempty" yaml:"containerName,omitempty"`

	// devcontainer
	DevcontainerPath string `json:"devcontainerPath,omitempty" yaml:"devcontainerPath,omitempty"`
}

// Workspace is a session's immutable identity plus its runtime binding.
type Workspace struct {
	ID                string        `json:"id" yaml:"id"`
	Name              string        `json:"name" yaml:"name"`
	ProjectPath       string        `json:"projectPath" yaml:"projectPath"`
	Runtime           RuntimeConfig `json:"runtime" yaml:"runtime"`
	ParentWorkspaceID string        `json:"parentWorkspaceId,omitempty" yaml:"parentWorkspaceId,omitempty"`
}
