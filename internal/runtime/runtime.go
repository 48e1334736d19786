// Package runtime implements the Runtime Dispatcher: a factory that selects
// a Runtime variant (local, worktree, ssh, Coder SSH, docker, devcontainer)
// from a workspace.RuntimeConfig and exposes every variant through one
// contract, so the Session Orchestrator never branches on runtime kind.
package runtime

import (
	"context"
	"io"
	"time"

	"mux/internal/bgprocess"
	"mux/internal/sshtransport"
)

// ExecOptions configures one exec call against a Runtime.
type ExecOptions struct {
	Cwd         string
	Env         map[string]string
	TimeoutSecs int
	ForcePTY    bool
}

// ExecStream is the live result of an exec call.
type ExecStream = sshtransport.ExecStream

// BackgroundOptions configures a spawnBackground call.
type BackgroundOptions struct {
	Cwd         string
	WorkspaceID string
	Env         map[string]string
	Niceness    int
}

// FileStat is the subset of file metadata the contract exposes.
type FileStat = sshtransport.FileStat

// CreateParams describes a new workspace to materialize on the runtime.
type CreateParams struct {
	ProjectPath           string
	WorkspaceName         string
	BranchName            string
	DeferredRuntimeAccess bool // skip srcBaseDir resolution until post-create
	ConfigLevelCollisionDetection bool
}

// InitLogger streams long-running setup output (postCreateSetup).
type InitLogger interface {
	Log(line string)
	LogError(line string)
}

// ReadinessStatus is one point in a runtime readiness status sink.
type ReadinessStatus string

const (
	StatusChecking ReadinessStatus = "checking"
	StatusWaiting  ReadinessStatus = "waiting"
	StatusStarting ReadinessStatus = "starting"
	StatusReady    ReadinessStatus = "ready"
	StatusError    ReadinessStatus = "error"
)

// StatusSink receives readiness status transitions during ensureReady.
type StatusSink func(status ReadinessStatus, detail string)

// ReadyResult is the outcome of ensureReady.
type ReadyResult struct {
	Ready     bool
	Error     string
	ErrorType string // "runtime_not_ready" | "runtime_start_failed"
}

// EnsureReadyOptions configures one ensureReady call.
type EnsureReadyOptions struct {
	StatusSink StatusSink
}

// Runtime is the contract every variant implements, per spec §6.
type Runtime interface {
	Exec(ctx context.Context, command string, opts ExecOptions) (ExecStream, error)
	SpawnBackground(ctx context.Context, script string, opts BackgroundOptions) (*bgprocess.Handle, error)
	ReadFile(ctx context.Context, path string) (io.ReadCloser, error)
	WriteFile(ctx context.Context, path string, r io.Reader) error
	Stat(ctx context.Context, path string) (FileStat, error)
	EnsureDir(ctx context.Context, path string) error
	ResolvePath(ctx context.Context, path string) (string, error)
	NormalizePath(target, base string) string

	GetWorkspacePath(projectPath, workspaceName string) string
	CreateWorkspace(ctx context.Context, params CreateParams) (workspacePath string, err error)
	InitWorkspace(ctx context.Context, params CreateParams) error
	// PostCreateSetup is optional; variants without long-running setup no-op.
	PostCreateSetup(ctx context.Context, params CreateParams, logger InitLogger) error
	// FinalizeConfig is optional; most variants return cfg unchanged.
	FinalizeConfig(ctx context.Context, branchName string, cfg interface{}) (interface{}, error)
	// ValidateBeforePersist is optional; default implementations no-op.
	ValidateBeforePersist(ctx context.Context, branchName string, cfg interface{}) error
	RenameWorkspace(ctx context.Context, oldName, newName string) error
	DeleteWorkspace(ctx context.Context, projectPath, name string, force bool) error
	ForkWorkspace(ctx context.Context, sourceName, newName string) (workspacePath string, err error)

	EnsureReady(ctx context.Context, opts EnsureReadyOptions) (ReadyResult, error)

	TempDir() string
	GetMuxHome() string
}

// RuntimeBase holds the state every variant shares: where background
// process output and temp files live, plus CachedUser/CachedHome fields
// that no variant reads (path resolution goes through each variant's own
// HomeCtx or the local environment). Variants embed this for TempDir and
// GetMuxHome and implement the rest of the contract themselves, composing
// capability instead of subclassing a LocalBaseRuntime/SSHRuntime
// inheritance chain.
type RuntimeBase struct {
	BgOutputDir string
	MuxHome     string
	CachedUser  string
	CachedHome  string
}

func (b *RuntimeBase) TempDir() string   { return b.BgOutputDir }
func (b *RuntimeBase) GetMuxHome() string { return b.MuxHome }

// NoopInitLogger discards init output; used by variants with nothing to log.
type NoopInitLogger struct{}

func (NoopInitLogger) Log(string)      {}
func (NoopInitLogger) LogError(string) {}

// now is a package-level clock seam so tests can freeze time without each
// variant threading its own clock field through every constructor.
var now = time.Now
