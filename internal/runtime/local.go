package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mux/internal/bgprocess"
	"mux/internal/muxerr"
	"mux/internal/pathresolve"
)

// localExecStream adapts a local *exec.Cmd to the shared ExecStream contract.
type localExecStream struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	start time.Time
}

func (s *localExecStream) Stdin() io.WriteCloser { return s.stdin }
func (s *localExecStream) Stdout() io.Reader {
	r, _ := s.cmd.StdoutPipe()
	return r
}
func (s *localExecStream) Stderr() io.Reader {
	r, _ := s.cmd.StderrPipe()
	return r
}

func (s *localExecStream) Wait() (int, time.Duration, error) {
	err := s.cmd.Wait()
	duration := time.Since(s.start)
	code := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
		err = nil
	}
	return code, duration, err
}

// LocalRuntime executes directly on the host filesystem, either against a
// fixed projectPath (no isolation) or, when SrcBaseDir is set, as the
// "worktree" variant's shared implementation (local-with-srcBaseDir is a
// legacy alias for worktree, per spec §4.5).
type LocalRuntime struct {
	RuntimeBase
	ProjectPath string
	SrcBaseDir  string // non-empty selects worktree-per-workspace layout
}

func NewLocalRuntime(projectPath, srcBaseDir, bgOutputDir, muxHome string) *LocalRuntime {
	return &LocalRuntime{
		RuntimeBase: RuntimeBase{BgOutputDir: bgOutputDir, MuxHome: muxHome},
		ProjectPath: projectPath,
		SrcBaseDir:  srcBaseDir,
	}
}

func (r *LocalRuntime) Exec(ctx context.Context, command string, opts ExecOptions) (ExecStream, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if opts.Cwd != "" {
		cmd.Dir = opts.Cwd
	} else {
		cmd.Dir = r.ProjectPath
	}
	cmd.Env = os.Environ()
	for k, v := range opts.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("runtime: stdin pipe: %w", err)
	}
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("runtime: start command: %w", err)
	}
	return &localExecStream{cmd: cmd, stdin: stdin, start: start}, nil
}

func (r *LocalRuntime) SpawnBackground(ctx context.Context, script string, opts BackgroundOptions) (*bgprocess.Handle, error) {
	processID := uuid.NewString()
	cwd := opts.Cwd
	if cwd == "" {
		cwd = r.ProjectPath
	}
	return bgprocess.Spawn(r.BgOutputDir, processID, script, bgprocess.SpawnOptions{
		Cwd:         cwd,
		WorkspaceID: opts.WorkspaceID,
		Env:         opts.Env,
		Niceness:    opts.Niceness,
	})
}

func (r *LocalRuntime) ReadFile(ctx context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (r *LocalRuntime) WriteFile(ctx context.Context, path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, src)
	return err
}

func (r *LocalRuntime) Stat(ctx context.Context, path string) (FileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileStat{}, err
	}
	return FileStat{Size: info.Size(), IsDir: info.IsDir(), Mode: uint32(info.Mode())}, nil
}

func (r *LocalRuntime) EnsureDir(ctx context.Context, path string) error {
	return os.MkdirAll(path, 0o755)
}

func (r *LocalRuntime) ResolvePath(ctx context.Context, path string) (string, error) {
	home, _ := os.UserHomeDir()
	user := os.Getenv("USER")
	hctx := pathresolve.HomeContext{CurrentUser: user, Homes: map[string]string{user: home}}
	return pathresolve.Resolve(path, hctx)
}

func (r *LocalRuntime) NormalizePath(target, base string) string {
	return pathresolve.Normalize(target, base)
}

func (r *LocalRuntime) GetWorkspacePath(projectPath, workspaceName string) string {
	if r.SrcBaseDir == "" {
		return projectPath
	}
	return filepath.Join(r.SrcBaseDir, workspaceName)
}

func (r *LocalRuntime) CreateWorkspace(ctx context.Context, params CreateParams) (string, error) {
	path := r.GetWorkspacePath(params.ProjectPath, params.WorkspaceName)
	if r.SrcBaseDir == "" {
		return path, nil // project-directory mode: no isolation, nothing to create
	}
	if err := r.createWorktree(ctx, params.ProjectPath, path, params.BranchName); err != nil {
		return "", err
	}
	return path, nil
}

func (r *LocalRuntime) createWorktree(ctx context.Context, projectPath, path, branchName string) error {
	args := []string{"worktree", "add", "-B", branchName, path}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = projectPath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("runtime: git worktree add: %w: %s", err, stderr.String())
	}
	return nil
}

func (r *LocalRuntime) InitWorkspace(ctx context.Context, params CreateParams) error { return nil }

func (r *LocalRuntime) PostCreateSetup(ctx context.Context, params CreateParams, logger InitLogger) error {
	return nil
}

func (r *LocalRuntime) FinalizeConfig(ctx context.Context, branchName string, cfg interface{}) (interface{}, error) {
	return cfg, nil
}

func (r *LocalRuntime) ValidateBeforePersist(ctx context.Context, branchName string, cfg interface{}) error {
	return nil
}

func (r *LocalRuntime) RenameWorkspace(ctx context.Context, oldName, newName string) error {
	if r.SrcBaseDir == "" {
		return nil
	}
	oldPath := filepath.Join(r.SrcBaseDir, oldName)
	newPath := filepath.Join(r.SrcBaseDir, newName)
	return os.Rename(oldPath, newPath)
}

func (r *LocalRuntime) DeleteWorkspace(ctx context.Context, projectPath, name string, force bool) error {
	if r.SrcBaseDir == "" {
		return nil
	}
	path := filepath.Join(r.SrcBaseDir, name)
	args := []string{"worktree", "remove", path}
	if force {
		args = append(args, "--force")
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = projectPath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("runtime: git worktree remove: %w: %s", err, stderr.String())
	}
	return nil
}

func (r *LocalRuntime) ForkWorkspace(ctx context.Context, sourceName, newName string) (string, error) {
	if r.SrcBaseDir == "" {
		return "", muxerr.New(muxerr.KindRuntimeNotReady, "forkWorkspace requires a worktree-backed runtime")
	}
	sourcePath := filepath.Join(r.SrcBaseDir, sourceName)
	newPath := filepath.Join(r.SrcBaseDir, newName)
	cmd := exec.CommandContext(ctx, "git", "worktree", "add", "-B", newName, newPath, "HEAD")
	cmd.Dir = sourcePath
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("runtime: git worktree add (fork): %w: %s", err, stderr.String())
	}
	return newPath, nil
}

// EnsureReady is trivially ready for local/worktree: the filesystem is
// always available once CreateWorkspace has succeeded.
func (r *LocalRuntime) EnsureReady(ctx context.Context, opts EnsureReadyOptions) (ReadyResult, error) {
	if opts.StatusSink != nil {
		opts.StatusSink(StatusReady, "local filesystem")
	}
	return ReadyResult{Ready: true}, nil
}
