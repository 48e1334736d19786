package runtime

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"mux/internal/bgprocess"
)

// DevcontainerSpec is the subset of devcontainer.json fields needed to
// derive a container create spec.
type DevcontainerSpec struct {
	Image           string            `json:"image,omitempty"`
	DockerFile      string            `json:"dockerFile,omitempty"`
	WorkspaceFolder string            `json:"workspaceFolder,omitempty"`
	WorkspaceMount  string            `json:"workspaceMount,omitempty"`
	ContainerEnv    map[string]string `json:"containerEnv,omitempty"`
	RemoteUser      string            `json:"remoteUser,omitempty"`
}

// ParseDevcontainerJSON decodes a devcontainer.json file, tolerating the
// `//` line comments the format permits but encoding/json rejects outright.
// Trailing commas are not tolerated: they reach encoding/json unchanged and
// fail the parse.
func ParseDevcontainerJSON(r io.Reader) (DevcontainerSpec, error) {
	stripped, err := stripJSONComments(r)
	if err != nil {
		return DevcontainerSpec{}, fmt.Errorf("runtime: read devcontainer.json: %w", err)
	}
	var spec DevcontainerSpec
	if err := json.Unmarshal(stripped, &spec); err != nil {
		return DevcontainerSpec{}, fmt.Errorf("runtime: parse devcontainer.json: %w", err)
	}
	return spec, nil
}

// stripJSONComments removes `//`-prefixed line comments outside of string
// literals. Trailing commas are left in place, and encoding/json rejects
// them; devcontainer.json writers rarely rely on them, so only comments are
// stripped here.
func stripJSONComments(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	var out strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if idx := findUnquotedSlashSlash(line); idx >= 0 {
			line = line[:idx]
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return []byte(out.String()), scanner.Err()
}

func findUnquotedSlashSlash(line string) int {
	inString := false
	escaped := false
	for i := 0; i < len(line)-1; i++ {
		c := line[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '/':
			if !inString && line[i+1] == '/' {
				return i
			}
		}
	}
	return -1
}

// DevcontainerRuntime wraps an inner DockerRuntime exactly the way
// CoderSSHRuntime wraps an inner SSHRuntime (§9 capability composition):
// it reads devcontainer.json to derive the inner driver's create spec, then
// delegates every lifecycle call to it.
type DevcontainerRuntime struct {
	Inner *DockerRuntime
	Spec  DevcontainerSpec
}

// NewDevcontainerRuntime reads devcontainerPath and builds the inner Docker
// driver's configuration from it.
func NewDevcontainerRuntime(inner *DockerRuntime, devcontainerPath string) (*DevcontainerRuntime, error) {
	f, err := os.Open(devcontainerPath)
	if err != nil {
		return nil, fmt.Errorf("runtime: open devcontainer.json: %w", err)
	}
	defer f.Close()

	spec, err := ParseDevcontainerJSON(f)
	if err != nil {
		return nil, err
	}
	if spec.Image != "" {
		inner.Image = spec.Image
	}
	if spec.WorkspaceFolder != "" {
		inner.MountedPath = spec.WorkspaceFolder
	}
	return &DevcontainerRuntime{Inner: inner, Spec: spec}, nil
}

func (r *DevcontainerRuntime) Exec(ctx context.Context, command string, opts ExecOptions) (ExecStream, error) {
	if opts.Env == nil && len(r.Spec.ContainerEnv) > 0 {
		opts.Env = r.Spec.ContainerEnv
	}
	return r.Inner.Exec(ctx, command, opts)
}
func (r *DevcontainerRuntime) SpawnBackground(ctx context.Context, script string, opts BackgroundOptions) (*bgprocess.Handle, error) {
	return r.Inner.SpawnBackground(ctx, script, opts)
}

// File operations delegate to the inner Docker runtime unchanged; host
// paths are not mapped onto the container mount here.
func (r *DevcontainerRuntime) ReadFile(ctx context.Context, path string) (io.ReadCloser, error) {
	return r.Inner.ReadFile(ctx, path)
}
func (r *DevcontainerRuntime) WriteFile(ctx context.Context, path string, src io.Reader) error {
	return r.Inner.WriteFile(ctx, path, src)
}
func (r *DevcontainerRuntime) Stat(ctx context.Context, path string) (FileStat, error) {
	return r.Inner.Stat(ctx, path)
}
func (r *DevcontainerRuntime) EnsureDir(ctx context.Context, path string) error {
	return r.Inner.EnsureDir(ctx, path)
}
func (r *DevcontainerRuntime) ResolvePath(ctx context.Context, path string) (string, error) {
	return r.Inner.ResolvePath(ctx, path)
}
func (r *DevcontainerRuntime) NormalizePath(target, base string) string {
	return r.Inner.NormalizePath(target, base)
}
func (r *DevcontainerRuntime) GetWorkspacePath(projectPath, workspaceName string) string {
	return r.Inner.GetWorkspacePath(projectPath, workspaceName)
}
func (r *DevcontainerRuntime) CreateWorkspace(ctx context.Context, params CreateParams) (string, error) {
	return r.Inner.CreateWorkspace(ctx, params)
}
func (r *DevcontainerRuntime) InitWorkspace(ctx context.Context, params CreateParams) error {
	return r.Inner.InitWorkspace(ctx, params)
}
func (r *DevcontainerRuntime) PostCreateSetup(ctx context.Context, params CreateParams, logger InitLogger) error {
	return r.Inner.PostCreateSetup(ctx, params, logger)
}
func (r *DevcontainerRuntime) FinalizeConfig(ctx context.Context, branchName string, cfg interface{}) (interface{}, error) {
	return r.Inner.FinalizeConfig(ctx, branchName, cfg)
}
func (r *DevcontainerRuntime) ValidateBeforePersist(ctx context.Context, branchName string, cfg interface{}) error {
	return r.Inner.ValidateBeforePersist(ctx, branchName, cfg)
}
func (r *DevcontainerRuntime) RenameWorkspace(ctx context.Context, oldName, newName string) error {
	return r.Inner.RenameWorkspace(ctx, oldName, newName)
}
func (r *DevcontainerRuntime) DeleteWorkspace(ctx context.Context, projectPath, name string, force bool) error {
	return r.Inner.DeleteWorkspace(ctx, projectPath, name, force)
}
func (r *DevcontainerRuntime) ForkWorkspace(ctx context.Context, sourceName, newName string) (string, error) {
	return r.Inner.ForkWorkspace(ctx, sourceName, newName)
}
func (r *DevcontainerRuntime) EnsureReady(ctx context.Context, opts EnsureReadyOptions) (ReadyResult, error) {
	return r.Inner.EnsureReady(ctx, opts)
}
func (r *DevcontainerRuntime) TempDir() string    { return r.Inner.TempDir() }
func (r *DevcontainerRuntime) GetMuxHome() string { return r.Inner.GetMuxHome() }
