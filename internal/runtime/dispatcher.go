package runtime

import (
	"context"
	"fmt"

	dockerclient "github.com/docker/docker/client"

	"mux/internal/coderapi"
	"mux/internal/muxerr"
	"mux/internal/sshpool"
	"mux/internal/sshtransport"
	"mux/internal/workspace"
)

// Options supplies the process-wide collaborators the dispatcher wires
// into whichever variant a RuntimeConfig selects.
type Options struct {
	BgOutputDir   string
	MuxHome       string
	Pool          *sshpool.Pool
	NewTransport  TransportFactory
	LocalUsername string
	DockerClient  func() (*dockerclient.Client, error)
	CoderAPI      func(url string) *coderapi.Client
	// ProjectPath is required for "local" without SrcBaseDir (project-
	// directory mode, no isolation), per §4.5.
	ProjectPath string
}

// New selects a Runtime variant from cfg, enforcing the rules in §4.5.
func New(cfg workspace.RuntimeConfig, workspaceName string, opts Options) (Runtime, error) {
	switch cfg.Kind {
	case workspace.RuntimeLocal:
		if cfg.SrcBaseDir == "" {
			if opts.ProjectPath == "" && cfg.ProjectPath == "" {
				return nil, muxerr.New(muxerr.KindRuntimeIncompatible, "local runtime without srcBaseDir requires a projectPath")
			}
			projectPath := cfg.ProjectPath
			if projectPath == "" {
				projectPath = opts.ProjectPath
			}
			return NewLocalRuntime(projectPath, "", opts.BgOutputDir, opts.MuxHome), nil
		}
		// local with srcBaseDir is a legacy alias for worktree.
		return NewLocalRuntime(cfg.ProjectPath, cfg.SrcBaseDir, opts.BgOutputDir, opts.MuxHome), nil

	case workspace.RuntimeWorktree:
		return NewLocalRuntime(cfg.ProjectPath, cfg.SrcBaseDir, opts.BgOutputDir, opts.MuxHome), nil

	case workspace.RuntimeSSH:
		if cfg.Coder != nil {
			return newCoderRuntime(cfg, workspaceName, opts)
		}
		sshCfg := sshpool.Config{Host: cfg.Host, Port: cfg.Port, IdentityFile: cfg.IdentityFile, LocalUser: opts.LocalUsername}
		remoteBase := cfg.ProjectPath
		return NewSSHRuntime(sshCfg, opts.Pool, opts.NewTransport, remoteBase, opts.BgOutputDir, opts.MuxHome), nil

	case workspace.RuntimeDocker:
		if opts.DockerClient == nil {
			return nil, muxerr.New(muxerr.KindRuntimeIncompatible, "docker runtime requested but no Docker client factory configured")
		}
		cli, err := opts.DockerClient()
		if err != nil {
			return nil, fmt.Errorf("runtime: docker client: %w", err)
		}
		containerName := cfg.ContainerName
		if containerName == "" {
			// "existing"-workspace mode: derive deterministically so
			// repeat calls for the same workspace find the same container.
			containerName = DeriveContainerName(cfg.ProjectPath, workspaceName)
		}
		return NewDockerRuntime(cli, cfg.Image, containerName, "/workspace", opts.BgOutputDir, opts.MuxHome), nil

	case workspace.RuntimeDevcontainer:
		if opts.DockerClient == nil {
			return nil, muxerr.New(muxerr.KindRuntimeIncompatible, "devcontainer runtime requested but no Docker client factory configured")
		}
		cli, err := opts.DockerClient()
		if err != nil {
			return nil, fmt.Errorf("runtime: docker client: %w", err)
		}
		containerName := DeriveContainerName(cfg.ProjectPath, workspaceName)
		inner := NewDockerRuntime(cli, cfg.Image, containerName, "/workspace", opts.BgOutputDir, opts.MuxHome)
		return NewDevcontainerRuntime(inner, cfg.DevcontainerPath)

	default:
		return nil, muxerr.New(muxerr.KindRuntimeIncompatible,
			fmt.Sprintf("unknown runtime kind %q; a newer mux release may support it", cfg.Kind))
	}
}

func newCoderRuntime(cfg workspace.RuntimeConfig, workspaceName string, opts Options) (Runtime, error) {
	if opts.CoderAPI == nil {
		return nil, muxerr.New(muxerr.KindRuntimeIncompatible, "ssh runtime with coder sub-block requires a Coder API client factory")
	}
	name := workspaceName
	if cfg.Coder.WorkspaceID != "" {
		name = cfg.Coder.WorkspaceID
	}
	host := CoderHost(name)
	sshCfg := sshpool.Config{Host: host, Port: cfg.Port, IdentityFile: cfg.IdentityFile, LocalUser: opts.LocalUsername}
	inner := NewSSHRuntime(sshCfg, opts.Pool, opts.NewTransport, cfg.ProjectPath, opts.BgOutputDir, opts.MuxHome)
	api := opts.CoderAPI(cfg.Coder.URL)
	return NewCoderSSHRuntime(inner, api, name), nil
}

// DefaultTransportFactory builds an OpenSSH-process transport for cfg,
// rooted at a shared control-master directory.
func DefaultTransportFactory(controlDir string, hostKeyMode sshtransport.HostKeyMode, askpassEnv []string) TransportFactory {
	return func(ctx context.Context, cfg sshpool.Config) (sshtransport.Transport, error) {
		controlPath := sshtransport.ControlMasterPath(controlDir, cfg.Host, cfg.Port, cfg.IdentityFile, cfg.LocalUser)
		return &sshtransport.ProcessTransport{
			Host:          cfg.Host,
			Port:          cfg.Port,
			IdentityFile:  cfg.IdentityFile,
			LocalUsername: cfg.LocalUser,
			ControlPath:   controlPath,
			HostKeyMode:   hostKeyMode,
			AskpassEnv:    askpassEnv,
		}, nil
	}
}
