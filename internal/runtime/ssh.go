package runtime

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"mux/internal/askpass"
	"mux/internal/bgprocess"
	"mux/internal/pathresolve"
	"mux/internal/sshpool"
	"mux/internal/sshtransport"
)

// TransportFactory opens a fresh sshtransport.Transport for cfg. SSHRuntime
// calls it once per Exec-family operation rather than holding one
// long-lived connection, so the pool's acquireConnection wrapper stays the
// single place backoff/health state is observed.
type TransportFactory func(ctx context.Context, cfg sshpool.Config) (sshtransport.Transport, error)

// SSHRuntime executes over SSH, acquiring the connection pool's health gate
// before every physical use and routing askpass prompts through an open
// Session when one is configured.
type SSHRuntime struct {
	RuntimeBase
	Config      sshpool.Config
	Pool        *sshpool.Pool
	NewTransport TransportFactory
	Askpass     *askpass.Session
	RemoteBase  string // remote base directory workspaces are created under
	HomeCtx     pathresolve.HomeContext
}

func NewSSHRuntime(cfg sshpool.Config, pool *sshpool.Pool, newTransport TransportFactory, remoteBase, bgOutputDir, muxHome string) *SSHRuntime {
	return &SSHRuntime{
		RuntimeBase:  RuntimeBase{BgOutputDir: bgOutputDir, MuxHome: muxHome},
		Config:       cfg,
		Pool:         pool,
		NewTransport: newTransport,
		RemoteBase:   remoteBase,
	}
}

// acquireConnection runs the pool's acquire protocol, then opens a fresh
// transport for the caller's single operation. Per §4.2, the transport
// never touches Health directly — only this wrapper does.
func (r *SSHRuntime) acquireConnection(ctx context.Context, probe sshpool.ProbeFunc) (sshtransport.Transport, error) {
	if err := r.Pool.Acquire(ctx, r.Config, probe, sshpool.AcquireOptions{}); err != nil {
		return nil, err
	}
	return r.NewTransport(ctx, r.Config)
}

func (r *SSHRuntime) defaultProbe(ctx context.Context) error {
	t, err := r.NewTransport(ctx, r.Config)
	if err != nil {
		return err
	}
	defer t.Close()
	stream, err := t.Exec(ctx, "true", sshtransport.ExecOptions{})
	if err != nil {
		return err
	}
	code, _, err := stream.Wait()
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("runtime: ssh probe exited %d", code)
	}
	return nil
}

func (r *SSHRuntime) Exec(ctx context.Context, command string, opts ExecOptions) (ExecStream, error) {
	t, err := r.acquireConnection(ctx, func(ctx context.Context, cfg sshpool.Config) error { return r.defaultProbe(ctx) })
	if err != nil {
		return nil, err
	}
	return t.Exec(ctx, command, sshtransport.ExecOptions{
		Cwd:         opts.Cwd,
		Env:         opts.Env,
		TimeoutSecs: opts.TimeoutSecs,
		ForcePTY:    opts.ForcePTY,
	})
}

func (r *SSHRuntime) SpawnBackground(ctx context.Context, script string, opts BackgroundOptions) (*bgprocess.Handle, error) {
	processID := uuid.NewString()
	// Background processes on SSH runtimes run via the same exec path,
	// wrapped the same way bgprocess wraps local scripts; nohup + process
	// group detachment happens on the remote side through the wrapper
	// script executed over the transport.
	cwd := opts.Cwd
	if cwd == "" {
		cwd = r.RemoteBase
	}
	wrapped := fmt.Sprintf("mkdir -p %s && cd %s && %s", bgOutDirFor(r.BgOutputDir, opts.WorkspaceID, processID), cwd, script)
	stream, err := r.Exec(ctx, wrapped, ExecOptions{Env: opts.Env})
	if err != nil {
		return nil, err
	}
	go stream.Wait()
	return &bgprocess.Handle{PID: 0, OutputDir: bgOutDirFor(r.BgOutputDir, opts.WorkspaceID, processID)}, nil
}

func bgOutDirFor(base, workspaceID, processID string) string {
	return path.Join(base, workspaceID, processID)
}

func (r *SSHRuntime) ReadFile(ctx context.Context, filePath string) (io.ReadCloser, error) {
	t, err := r.acquireConnection(ctx, func(ctx context.Context, cfg sshpool.Config) error { return r.defaultProbe(ctx) })
	if err != nil {
		return nil, err
	}
	return t.ReadFile(ctx, filePath)
}

func (r *SSHRuntime) WriteFile(ctx context.Context, filePath string, src io.Reader) error {
	t, err := r.acquireConnection(ctx, func(ctx context.Context, cfg sshpool.Config) error { return r.defaultProbe(ctx) })
	if err != nil {
		return err
	}
	return t.WriteFile(ctx, filePath, src)
}

func (r *SSHRuntime) Stat(ctx context.Context, filePath string) (FileStat, error) {
	t, err := r.acquireConnection(ctx, func(ctx context.Context, cfg sshpool.Config) error { return r.defaultProbe(ctx) })
	if err != nil {
		return FileStat{}, err
	}
	return t.Stat(ctx, filePath)
}

func (r *SSHRuntime) EnsureDir(ctx context.Context, dirPath string) error {
	stream, err := r.Exec(ctx, "mkdir -p "+shellQuoteSSH(dirPath), ExecOptions{})
	if err != nil {
		return err
	}
	_, _, err = stream.Wait()
	return err
}

func (r *SSHRuntime) ResolvePath(ctx context.Context, filePath string) (string, error) {
	if resolved, err := pathresolve.Resolve(filePath, r.HomeCtx); err == nil {
		return resolved, nil
	}
	t, err := r.acquireConnection(ctx, func(ctx context.Context, cfg sshpool.Config) error { return r.defaultProbe(ctx) })
	if err != nil {
		return "", err
	}
	return t.ResolvePath(ctx, filePath)
}

func (r *SSHRuntime) NormalizePath(target, base string) string {
	return pathresolve.Normalize(target, base)
}

func (r *SSHRuntime) GetWorkspacePath(projectPath, workspaceName string) string {
	return path.Join(r.RemoteBase, workspaceName)
}

func (r *SSHRuntime) CreateWorkspace(ctx context.Context, params CreateParams) (string, error) {
	workspacePath := r.GetWorkspacePath(params.ProjectPath, params.WorkspaceName)
	if err := r.EnsureDir(ctx, workspacePath); err != nil {
		return "", err
	}
	return workspacePath, nil
}

func (r *SSHRuntime) InitWorkspace(ctx context.Context, params CreateParams) error { return nil }

func (r *SSHRuntime) PostCreateSetup(ctx context.Context, params CreateParams, logger InitLogger) error {
	return nil
}

func (r *SSHRuntime) FinalizeConfig(ctx context.Context, branchName string, cfg interface{}) (interface{}, error) {
	return cfg, nil
}

func (r *SSHRuntime) ValidateBeforePersist(ctx context.Context, branchName string, cfg interface{}) error {
	return nil
}

func (r *SSHRuntime) RenameWorkspace(ctx context.Context, oldName, newName string) error {
	oldPath := r.GetWorkspacePath("", oldName)
	newPath := r.GetWorkspacePath("", newName)
	stream, err := r.Exec(ctx, fmt.Sprintf("mv %s %s", shellQuoteSSH(oldPath), shellQuoteSSH(newPath)), ExecOptions{})
	if err != nil {
		return err
	}
	_, _, err = stream.Wait()
	return err
}

func (r *SSHRuntime) DeleteWorkspace(ctx context.Context, projectPath, name string, force bool) error {
	workspacePath := r.GetWorkspacePath(projectPath, name)
	flag := ""
	if !force {
		flag = "-i" // won't actually prompt non-interactively, but mirrors the "careful by default" intent
	}
	cmd := fmt.Sprintf("rm -rf %s %s", flag, shellQuoteSSH(workspacePath))
	stream, err := r.Exec(ctx, cmd, ExecOptions{})
	if err != nil {
		return err
	}
	_, _, err = stream.Wait()
	return err
}

func (r *SSHRuntime) ForkWorkspace(ctx context.Context, sourceName, newName string) (string, error) {
	sourcePath := r.GetWorkspacePath("", sourceName)
	newPath := r.GetWorkspacePath("", newName)
	cmd := fmt.Sprintf("cp -a %s %s", shellQuoteSSH(sourcePath), shellQuoteSSH(newPath))
	stream, err := r.Exec(ctx, cmd, ExecOptions{})
	if err != nil {
		return "", err
	}
	if _, _, err := stream.Wait(); err != nil {
		return "", err
	}
	return newPath, nil
}

// EnsureReady for a plain SSH runtime is just reachability: a healthy pool
// entry (or a fresh successful probe) is sufficient, unlike the Coder
// variant's full workspace-lifecycle FSM.
func (r *SSHRuntime) EnsureReady(ctx context.Context, opts EnsureReadyOptions) (ReadyResult, error) {
	if opts.StatusSink != nil {
		opts.StatusSink(StatusChecking, r.Config.Host)
	}
	err := r.Pool.Acquire(ctx, r.Config, func(ctx context.Context, cfg sshpool.Config) error {
		return r.defaultProbe(ctx)
	}, sshpool.AcquireOptions{})
	if err != nil {
		if opts.StatusSink != nil {
			opts.StatusSink(StatusError, err.Error())
		}
		return ReadyResult{Ready: false, Error: err.Error(), ErrorType: "runtime_not_ready"}, nil
	}
	if opts.StatusSink != nil {
		opts.StatusSink(StatusReady, r.Config.Host)
	}
	return ReadyResult{Ready: true}, nil
}

func shellQuoteSSH(s string) string {
	out := "'"
	for _, r := range s {
		if r == '\'' {
			out += `'\''`
		} else {
			out += string(r)
		}
	}
	return out + "'"
}
