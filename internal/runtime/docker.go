package runtime

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/google/uuid"

	"mux/internal/bgprocess"
	"mux/internal/pathresolve"
)

const dockerReadyTimeout = 60 * time.Second

// dockerExecStream adapts the Docker exec attach stream to the shared
// ExecStream contract; exit code is fetched from ContainerExecInspect once
// the attached connection closes.
type dockerExecStream struct {
	cli    *client.Client
	execID string
	conn   io.WriteCloser
	reader io.Reader
	start  time.Time
}

func (s *dockerExecStream) Stdin() io.WriteCloser { return s.conn }
func (s *dockerExecStream) Stdout() io.Reader     { return s.reader }
func (s *dockerExecStream) Stderr() io.Reader     { return s.reader } // docker multiplexes both over one stream when Tty is set

func (s *dockerExecStream) Wait() (int, time.Duration, error) {
	duration := time.Since(s.start)
	inspect, err := s.cli.ContainerExecInspect(context.Background(), s.execID)
	if err != nil {
		return 0, duration, fmt.Errorf("runtime: inspect exec %s: %w", s.execID, err)
	}
	return inspect.ExitCode, duration, nil
}

// DockerRuntime executes inside a named container, created either by
// bind-mounting the host project path (fresh workspace) or by attaching to
// a container whose name is derived from (projectPath, workspaceName) in
// "existing"-workspace mode, per spec §4.5.
type DockerRuntime struct {
	RuntimeBase
	Client        *client.Client
	Image         string
	ContainerName string
	HomeCtx       pathresolve.HomeContext
	MountedPath   string // container path the host project is mounted at
}

func NewDockerRuntime(cli *client.Client, image, containerName, mountedPath, bgOutputDir, muxHome string) *DockerRuntime {
	return &DockerRuntime{
		RuntimeBase:   RuntimeBase{BgOutputDir: bgOutputDir, MuxHome: muxHome},
		Client:        cli,
		Image:         image,
		ContainerName: containerName,
		MountedPath:   mountedPath,
	}
}

// DeriveContainerName names an "existing"-workspace-mode container from
// (projectPath, workspaceName) deterministically, so repeated dispatcher
// calls for the same workspace find the same container.
func DeriveContainerName(projectPath, workspaceName string) string {
	base := path.Base(projectPath)
	return fmt.Sprintf("mux-%s-%s", sanitizeContainerComponent(base), sanitizeContainerComponent(workspaceName))
}

func sanitizeContainerComponent(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func (r *DockerRuntime) findContainerID(ctx context.Context) (string, error) {
	list, err := r.Client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", r.ContainerName)),
	})
	if err != nil {
		return "", fmt.Errorf("runtime: list containers: %w", err)
	}
	for _, c := range list {
		for _, n := range c.Names {
			if strings.TrimPrefix(n, "/") == r.ContainerName {
				return c.ID, nil
			}
		}
	}
	return "", fmt.Errorf("runtime: container %s not found", r.ContainerName)
}

func (r *DockerRuntime) Exec(ctx context.Context, command string, opts ExecOptions) (ExecStream, error) {
	id, err := r.findContainerID(ctx)
	if err != nil {
		return nil, err
	}

	env := make([]string, 0, len(opts.Env))
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}
	cwd := opts.Cwd
	if cwd == "" {
		cwd = r.MountedPath
	}

	execConfig := container.ExecOptions{
		Cmd:          []string{"sh", "-c", command},
		Env:          env,
		WorkingDir:   cwd,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Tty:          opts.ForcePTY,
	}
	created, err := r.Client.ContainerExecCreate(ctx, id, execConfig)
	if err != nil {
		return nil, fmt.Errorf("runtime: exec create: %w", err)
	}

	attach, err := r.Client.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{Tty: opts.ForcePTY})
	if err != nil {
		return nil, fmt.Errorf("runtime: exec attach: %w", err)
	}

	return &dockerExecStream{cli: r.Client, execID: created.ID, conn: attach.Conn, reader: attach.Reader, start: time.Now()}, nil
}

func (r *DockerRuntime) SpawnBackground(ctx context.Context, script string, opts BackgroundOptions) (*bgprocess.Handle, error) {
	processID := uuid.NewString()
	outDir := path.Join(r.BgOutputDir, opts.WorkspaceID, processID)
	wrapped := fmt.Sprintf("mkdir -p %s && %s > %s/stdout.log 2> %s/stderr.log; echo $? > %s/exit_code",
		outDir, script, outDir, outDir, outDir)
	stream, err := r.Exec(ctx, wrapped, ExecOptions{Cwd: opts.Cwd, Env: opts.Env})
	if err != nil {
		return nil, err
	}
	go stream.Wait()
	return &bgprocess.Handle{PID: 0, OutputDir: outDir}, nil
}

func (r *DockerRuntime) ReadFile(ctx context.Context, filePath string) (io.ReadCloser, error) {
	stream, err := r.Exec(ctx, "cat "+shellQuoteSSH(filePath), ExecOptions{})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bufio.NewReader(stream.Stdout())), nil
}

func (r *DockerRuntime) WriteFile(ctx context.Context, filePath string, src io.Reader) error {
	stream, err := r.Exec(ctx, "cat > "+shellQuoteSSH(filePath), ExecOptions{})
	if err != nil {
		return err
	}
	if _, err := io.Copy(stream.Stdin(), src); err != nil {
		return err
	}
	stream.Stdin().Close()
	code, _, err := stream.Wait()
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("runtime: container write failed with exit code %d", code)
	}
	return nil
}

func (r *DockerRuntime) Stat(ctx context.Context, filePath string) (FileStat, error) {
	stream, err := r.Exec(ctx, fmt.Sprintf("stat -c '%%s %%F' %s", shellQuoteSSH(filePath)), ExecOptions{})
	if err != nil {
		return FileStat{}, err
	}
	var buf strings.Builder
	io.Copy(&buf, stream.Stdout())
	stream.Wait()
	var size int64
	var kind string
	if _, err := fmt.Sscanf(buf.String(), "%d %s", &size, &kind); err != nil {
		return FileStat{}, fmt.Errorf("runtime: unexpected stat output %q", buf.String())
	}
	return FileStat{Size: size, IsDir: kind == "directory"}, nil
}

func (r *DockerRuntime) EnsureDir(ctx context.Context, dirPath string) error {
	stream, err := r.Exec(ctx, "mkdir -p "+shellQuoteSSH(dirPath), ExecOptions{})
	if err != nil {
		return err
	}
	_, _, err = stream.Wait()
	return err
}

func (r *DockerRuntime) ResolvePath(ctx context.Context, filePath string) (string, error) {
	return pathresolve.Resolve(filePath, r.HomeCtx)
}

func (r *DockerRuntime) NormalizePath(target, base string) string {
	return pathresolve.Normalize(target, base)
}

func (r *DockerRuntime) GetWorkspacePath(projectPath, workspaceName string) string {
	return r.MountedPath
}

// CreateWorkspace builds and starts the container, bind-mounting the host
// project path at MountedPath.
func (r *DockerRuntime) CreateWorkspace(ctx context.Context, params CreateParams) (string, error) {
	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{
			{Type: mount.TypeBind, Source: params.ProjectPath, Target: r.MountedPath},
		},
	}
	resp, err := r.Client.ContainerCreate(ctx, &container.Config{
		Image:      r.Image,
		Cmd:        []string{"sleep", "infinity"},
		WorkingDir: r.MountedPath,
	}, hostConfig, nil, nil, r.ContainerName)
	if err != nil {
		return "", fmt.Errorf("runtime: container create: %w", err)
	}
	if err := r.Client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("runtime: container start: %w", err)
	}
	return r.MountedPath, nil
}

func (r *DockerRuntime) InitWorkspace(ctx context.Context, params CreateParams) error { return nil }

func (r *DockerRuntime) PostCreateSetup(ctx context.Context, params CreateParams, logger InitLogger) error {
	return nil
}

func (r *DockerRuntime) FinalizeConfig(ctx context.Context, branchName string, cfg interface{}) (interface{}, error) {
	return cfg, nil
}

func (r *DockerRuntime) ValidateBeforePersist(ctx context.Context, branchName string, cfg interface{}) error {
	return nil
}

func (r *DockerRuntime) RenameWorkspace(ctx context.Context, oldName, newName string) error {
	id, err := r.findContainerID(ctx)
	if err != nil {
		return err
	}
	return r.Client.ContainerRename(ctx, id, newName)
}

func (r *DockerRuntime) DeleteWorkspace(ctx context.Context, projectPath, name string, force bool) error {
	id, err := r.findContainerID(ctx)
	if err != nil {
		return nil // already gone
	}
	timeout := 10
	if err := r.Client.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
		if !force {
			return fmt.Errorf("runtime: stop container %s: %w", r.ContainerName, err)
		}
	}
	return r.Client.ContainerRemove(ctx, id, container.RemoveOptions{Force: force})
}

func (r *DockerRuntime) ForkWorkspace(ctx context.Context, sourceName, newName string) (string, error) {
	return "", fmt.Errorf("runtime: forkWorkspace is not supported for the docker runtime variant")
}

// EnsureReady polls ContainerInspect for State.Running, per §4.5.2.
func (r *DockerRuntime) EnsureReady(ctx context.Context, opts EnsureReadyOptions) (ReadyResult, error) {
	emit := func(s ReadinessStatus, detail string) {
		if opts.StatusSink != nil {
			opts.StatusSink(s, detail)
		}
	}
	emit(StatusChecking, r.ContainerName)

	ctx, cancel := context.WithTimeout(ctx, dockerReadyTimeout)
	defer cancel()

	id, err := r.findContainerID(ctx)
	if err != nil {
		emit(StatusError, err.Error())
		return ReadyResult{Ready: false, Error: err.Error(), ErrorType: "runtime_not_ready"}, nil
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		inspect, err := r.Client.ContainerInspect(ctx, id)
		if err != nil {
			emit(StatusError, err.Error())
			return ReadyResult{Ready: false, Error: err.Error(), ErrorType: "runtime_not_ready"}, nil
		}
		if inspect.State != nil && inspect.State.Running {
			emit(StatusReady, r.ContainerName)
			return ReadyResult{Ready: true}, nil
		}
		select {
		case <-ctx.Done():
			return ReadyResult{Ready: false, Error: "timed out waiting for container to start", ErrorType: "runtime_start_failed"}, nil
		case <-ticker.C:
			emit(StatusStarting, r.ContainerName)
		}
	}
}
