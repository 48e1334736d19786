package runtime

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mux/internal/bgprocess"
	"mux/internal/coderapi"
)

const coderReadyGracePeriod = 5 * time.Minute
const coderPollInterval = 2 * time.Second
const coderEnsureReadyTimeout = 120 * time.Second

var coderSlugRe = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9]+)*$`)

// CoderWorkspaceName derives "mux-<slug>" from a branch name: lowercase,
// underscores to hyphens, runs of hyphens collapsed, leading/trailing
// hyphens trimmed. Returns an error if the resulting slug is empty or
// fails the alphanumeric-hyphenated-segments shape.
func CoderWorkspaceName(branchName string) (string, error) {
	slug := strings.ToLower(branchName)
	slug = strings.ReplaceAll(slug, "_", "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if slug == "" || !coderSlugRe.MatchString(slug) {
		return "", fmt.Errorf("runtime: branch name %q does not yield a valid Coder workspace slug", branchName)
	}
	return "mux-" + slug, nil
}

// CoderHost suffixes a Coder workspace name into the SSH alias the
// dispatcher hands to the inner SSH driver.
func CoderHost(workspaceName string) string {
	return workspaceName + ".mux--coder"
}

// coderAPI is the subset of *coderapi.Client the ensureReady FSM calls,
// extracted as an interface so tests can inject a fake without standing up
// an HTTP server (the same test-seam-via-constructor-option spirit as
// sshpool.NewWithClock and compaction.NewWithNow).
type coderAPI interface {
	GetWorkspace(ctx context.Context, name string) (coderapi.WorkspaceStatus, error)
	StartWorkspace(ctx context.Context, name string) error
	StopWorkspace(ctx context.Context, name string) error
	DeleteWorkspace(ctx context.Context, name string) error
	StreamStartupLogs(ctx context.Context, name string, onLine func(line string)) error
}

// CoderSSHRuntime composes by wrapping an inner SSHRuntime rather than
// subclassing SSHRuntime, per spec §9's capability-composition guidance.
type CoderSSHRuntime struct {
	Inner         *SSHRuntime
	API           coderAPI
	WorkspaceName string

	mu          sync.Mutex
	lastReadyAt time.Time
	ensureGroup *singleflight.Group
}

func NewCoderSSHRuntime(inner *SSHRuntime, api *coderapi.Client, workspaceName string) *CoderSSHRuntime {
	return &CoderSSHRuntime{Inner: inner, API: api, WorkspaceName: workspaceName, ensureGroup: &singleflight.Group{}}
}

func (r *CoderSSHRuntime) Exec(ctx context.Context, command string, opts ExecOptions) (ExecStream, error) {
	return r.Inner.Exec(ctx, command, opts)
}
func (r *CoderSSHRuntime) SpawnBackground(ctx context.Context, script string, opts BackgroundOptions) (*bgprocess.Handle, error) {
	return r.Inner.SpawnBackground(ctx, script, opts)
}
func (r *CoderSSHRuntime) ReadFile(ctx context.Context, path string) (io.ReadCloser, error) {
	return r.Inner.ReadFile(ctx, path)
}
func (r *CoderSSHRuntime) WriteFile(ctx context.Context, path string, src io.Reader) error {
	return r.Inner.WriteFile(ctx, path, src)
}
func (r *CoderSSHRuntime) Stat(ctx context.Context, path string) (FileStat, error) {
	return r.Inner.Stat(ctx, path)
}
func (r *CoderSSHRuntime) EnsureDir(ctx context.Context, path string) error {
	return r.Inner.EnsureDir(ctx, path)
}
func (r *CoderSSHRuntime) ResolvePath(ctx context.Context, path string) (string, error) {
	return r.Inner.ResolvePath(ctx, path)
}
func (r *CoderSSHRuntime) NormalizePath(target, base string) string {
	return r.Inner.NormalizePath(target, base)
}
func (r *CoderSSHRuntime) GetWorkspacePath(projectPath, workspaceName string) string {
	return r.Inner.GetWorkspacePath(projectPath, workspaceName)
}
func (r *CoderSSHRuntime) CreateWorkspace(ctx context.Context, params CreateParams) (string, error) {
	return r.Inner.CreateWorkspace(ctx, params)
}
func (r *CoderSSHRuntime) InitWorkspace(ctx context.Context, params CreateParams) error {
	return r.Inner.InitWorkspace(ctx, params)
}
func (r *CoderSSHRuntime) PostCreateSetup(ctx context.Context, params CreateParams, logger InitLogger) error {
	return r.Inner.PostCreateSetup(ctx, params, logger)
}

// FinalizeConfig derives the Coder workspace name and host from branchName,
// per §4.5.1.
func (r *CoderSSHRuntime) FinalizeConfig(ctx context.Context, branchName string, cfg interface{}) (interface{}, error) {
	name, err := CoderWorkspaceName(branchName)
	if err != nil {
		return nil, err
	}
	r.WorkspaceName = name
	r.Inner.Config.Host = CoderHost(name)
	return cfg, nil
}

func (r *CoderSSHRuntime) ValidateBeforePersist(ctx context.Context, branchName string, cfg interface{}) error {
	_, err := CoderWorkspaceName(branchName)
	return err
}

func (r *CoderSSHRuntime) RenameWorkspace(ctx context.Context, oldName, newName string) error {
	return r.Inner.RenameWorkspace(ctx, oldName, newName)
}

func (r *CoderSSHRuntime) ForkWorkspace(ctx context.Context, sourceName, newName string) (string, error) {
	return r.Inner.ForkWorkspace(ctx, sourceName, newName)
}

func (r *CoderSSHRuntime) TempDir() string    { return r.Inner.TempDir() }
func (r *CoderSSHRuntime) GetMuxHome() string { return r.Inner.GetMuxHome() }

// DeleteWorkspace skips SSH cleanup when the Coder workspace is already
// gone (not_found/deleting/deleted), otherwise delegates SSH cleanup first
// and requests Coder deletion after, preserving both error texts on
// partial failure.
func (r *CoderSSHRuntime) DeleteWorkspace(ctx context.Context, projectPath, name string, force bool) error {
	status, statusErr := r.API.GetWorkspace(ctx, r.WorkspaceName)

	var sshErr error
	if statusErr != nil || (status.Status != coderapi.StatusNotFound && status.Status != coderapi.StatusDeleting && status.Status != coderapi.StatusDeleted) {
		sshErr = r.Inner.DeleteWorkspace(ctx, projectPath, name, force)
	}

	deleteErr := r.API.DeleteWorkspace(ctx, r.WorkspaceName)

	if sshErr != nil && deleteErr != nil {
		return fmt.Errorf("runtime: coder delete failed on both paths: ssh cleanup: %v; coder delete: %v", sshErr, deleteErr)
	}
	if sshErr != nil {
		return fmt.Errorf("runtime: coder delete: ssh cleanup failed: %w", sshErr)
	}
	if deleteErr != nil {
		return fmt.Errorf("runtime: coder delete: coder deletion failed: %w", deleteErr)
	}
	return nil
}

// EnsureReady implements the fast-path/poll/FSM described in §4.5.1,
// sharing one in-flight evaluation per workspace name via singleflight so
// concurrent callers observe the same result instead of issuing duplicate
// Coder API calls.
func (r *CoderSSHRuntime) EnsureReady(ctx context.Context, opts EnsureReadyOptions) (ReadyResult, error) {
	r.mu.Lock()
	fastPath := !r.lastReadyAt.IsZero() && time.Since(r.lastReadyAt) < coderReadyGracePeriod
	r.mu.Unlock()
	if fastPath {
		if opts.StatusSink != nil {
			opts.StatusSink(StatusReady, "recent activity")
		}
		return ReadyResult{Ready: true}, nil
	}

	result, err, _ := r.ensureGroup.Do(r.WorkspaceName, func() (interface{}, error) {
		return r.ensureReadyUncached(ctx, opts)
	})
	if err != nil {
		return ReadyResult{}, err
	}
	rr := result.(ReadyResult)
	if rr.Ready {
		r.mu.Lock()
		r.lastReadyAt = time.Now()
		r.mu.Unlock()
	}
	return rr, nil
}

func (r *CoderSSHRuntime) ensureReadyUncached(ctx context.Context, opts EnsureReadyOptions) (ReadyResult, error) {
	emit := func(s ReadinessStatus, detail string) {
		if opts.StatusSink != nil {
			opts.StatusSink(s, detail)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, coderEnsureReadyTimeout)
	defer cancel()

	emit(StatusChecking, r.WorkspaceName)

	status, err := r.API.GetWorkspace(ctx, r.WorkspaceName)
	if err != nil {
		emit(StatusError, err.Error())
		return ReadyResult{Ready: false, Error: err.Error(), ErrorType: "runtime_not_ready"}, nil
	}

	switch status.Status {
	case coderapi.StatusRunning:
		emit(StatusReady, r.WorkspaceName)
		return ReadyResult{Ready: true}, nil

	case coderapi.StatusNotFound:
		emit(StatusError, "workspace not found")
		return ReadyResult{Ready: false, Error: "workspace not found", ErrorType: "runtime_not_ready"}, nil

	case coderapi.StatusStopping, coderapi.StatusCanceling:
		emit(StatusWaiting, string(status.Status))
		return r.pollUntilClear(ctx, emit)

	default: // stopped, starting, pending
		emit(StatusStarting, string(status.Status))
		if err := r.API.StartWorkspace(ctx, r.WorkspaceName); err != nil {
			emit(StatusError, err.Error())
			return ReadyResult{Ready: false, Error: err.Error(), ErrorType: classifyStartError(err)}, nil
		}
		return r.waitForStartupScripts(ctx, emit)
	}
}

func (r *CoderSSHRuntime) pollUntilClear(ctx context.Context, emit func(ReadinessStatus, string)) (ReadyResult, error) {
	ticker := time.NewTicker(coderPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ReadyResult{Ready: false, Error: "timed out waiting for workspace to clear stopping/canceling", ErrorType: "runtime_not_ready"}, nil
		case <-ticker.C:
			status, err := r.API.GetWorkspace(ctx, r.WorkspaceName)
			if err != nil {
				emit(StatusError, err.Error())
				return ReadyResult{Ready: false, Error: err.Error(), ErrorType: "runtime_not_ready"}, nil
			}
			if status.Status != coderapi.StatusStopping && status.Status != coderapi.StatusCanceling {
				emit(StatusStarting, string(status.Status))
				if status.Status == coderapi.StatusRunning {
					emit(StatusReady, r.WorkspaceName)
					return ReadyResult{Ready: true}, nil
				}
				if err := r.API.StartWorkspace(ctx, r.WorkspaceName); err != nil {
					return ReadyResult{Ready: false, Error: err.Error(), ErrorType: classifyStartError(err)}, nil
				}
				return r.waitForStartupScripts(ctx, emit)
			}
		}
	}
}

func (r *CoderSSHRuntime) waitForStartupScripts(ctx context.Context, emit func(ReadinessStatus, string)) (ReadyResult, error) {
	err := r.API.StreamStartupLogs(ctx, r.WorkspaceName, func(line string) {
		emit(StatusStarting, line)
	})
	if err != nil {
		emit(StatusError, err.Error())
		return ReadyResult{Ready: false, Error: err.Error(), ErrorType: classifyStartError(err)}, nil
	}

	status, err := r.API.GetWorkspace(ctx, r.WorkspaceName)
	if err != nil || status.Status != coderapi.StatusRunning {
		reason := "workspace failed to reach running"
		if err != nil {
			reason = err.Error()
		}
		return ReadyResult{Ready: false, Error: reason, ErrorType: "runtime_start_failed"}, nil
	}

	emit(StatusReady, r.WorkspaceName)
	return ReadyResult{Ready: true}, nil
}

// classifyStartError distinguishes "the workspace is simply unreachable"
// from "it exists but failed to start", per §4.5.1's
// not-found|no-access -> runtime_not_ready, else -> runtime_start_failed rule.
func classifyStartError(err error) string {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") || strings.Contains(msg, "no access") || strings.Contains(msg, "forbidden") {
		return "runtime_not_ready"
	}
	return "runtime_start_failed"
}
