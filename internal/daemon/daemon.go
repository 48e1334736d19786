// Package daemon bootstraps the mux serve process: it wires the Event Bus,
// MCP Server Manager, built-in Runtime tool set, Stream Manager, Session
// Orchestrator, and OAuth Manager into the single composition root "mux
// serve" runs, then blocks until the context is cancelled. It plays the
// role the teacher's internal/app package played for the aggregator
// server, generalized from ServiceClass/Workflow bootstrap to the
// workspace/session domain.
package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mux/internal/agenttools"
	"mux/internal/compaction"
	"mux/internal/config"
	"mux/internal/eventbus"
	"mux/internal/history"
	"mux/internal/llmprovider"
	"mux/internal/mcpmanager"
	"mux/internal/oauth"
	"mux/internal/runtime"
	"mux/internal/session"
	"mux/internal/sshpool"
	"mux/internal/sshtransport"
	"mux/internal/streammanager"
	"mux/internal/sysprompt"
	"mux/internal/workspace"
	"mux/pkg/logging"
)

// Config configures one daemon run. AnthropicAPIKey is read from the
// environment by the caller (cmd/serve.go); an empty key still builds a
// working daemon, but every stream fails at the provider call.
type Config struct {
	Debug           bool
	MuxHome         string
	AnthropicAPIKey string
	DefaultModel    string
	LocalUsername   string
	OAuth           oauth.Config
}

// Daemon owns every process-wide collaborator "mux serve" assembles.
type Daemon struct {
	cfg Config

	Bus         *eventbus.Bus
	Workspaces  *workspace.Store
	MCP         *mcpmanager.Manager
	OAuth       *oauth.Manager
	Sessions    *session.Manager
	SSHPool     *sshpool.Pool
	RuntimeOpts runtime.Options

	mu       sync.Mutex
	runtimes map[string]runtime.Runtime
}

// New builds a Daemon from cfg, without starting any background loop.
func New(cfg Config) (*Daemon, error) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, os.Stdout)

	if cfg.MuxHome == "" {
		return nil, fmt.Errorf("daemon: MuxHome is required")
	}
	for _, sub := range []string{"workspaces", "mcpservers", "bg-output", "ssh-control"} {
		if err := os.MkdirAll(filepath.Join(cfg.MuxHome, sub), 0o755); err != nil {
			return nil, fmt.Errorf("daemon: create %s dir: %w", sub, err)
		}
	}

	storage := config.NewStorageWithPath(cfg.MuxHome)
	workspaces := workspace.NewStore(storage)

	mcpStore := mcpmanager.NewDefinitionStore(storage)
	mcpMgr := mcpmanager.New(mcpStore, mcpmanager.DialDefinition)

	oauthMgr := oauth.NewManager(cfg.OAuth)
	if oauthMgr != nil {
		mcpMgr.SetOAuthManager(oauthMgr)
	}

	bus := eventbus.New()

	pool := sshpool.New()
	transportFactory := runtime.DefaultTransportFactory(
		filepath.Join(cfg.MuxHome, "ssh-control"),
		sshtransport.HostKeyModeStrict,
		nil,
	)
	runtimeOpts := runtime.Options{
		BgOutputDir:   filepath.Join(cfg.MuxHome, "bg-output"),
		MuxHome:       cfg.MuxHome,
		Pool:          pool,
		NewTransport:  transportFactory,
		LocalUsername: cfg.LocalUsername,
	}

	d := &Daemon{
		cfg:         cfg,
		Bus:         bus,
		Workspaces:  workspaces,
		MCP:         mcpMgr,
		OAuth:       oauthMgr,
		SSHPool:     pool,
		RuntimeOpts: runtimeOpts,
		runtimes:    make(map[string]runtime.Runtime),
	}

	provider := llmprovider.New(cfg.AnthropicAPIKey, d.executeTool)
	streams := streammanager.New(bus, d, provider)
	d.Sessions = session.NewManager(d.sessionConfigFor(streams))

	return d, nil
}

// runtimeFor lazily constructs (and caches) the Runtime for a workspace.
func (d *Daemon) runtimeFor(w workspace.Workspace) (runtime.Runtime, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rt, ok := d.runtimes[w.ID]; ok {
		return rt, nil
	}
	opts := d.RuntimeOpts
	opts.ProjectPath = w.ProjectPath
	rt, err := runtime.New(w.Runtime, w.Name, opts)
	if err != nil {
		return nil, err
	}
	d.runtimes[w.ID] = rt
	return rt, nil
}

// AcquireLease implements streammanager.ToolLeaser, merging the MCP Server
// Manager's leased catalog with the fixed built-in Runtime tool set.
func (d *Daemon) AcquireLease(ctx context.Context, workspaceID string) (streammanager.ToolLease, error) {
	lease, err := d.MCP.AcquireLease(ctx, workspaceID)
	if err != nil {
		return streammanager.ToolLease{}, err
	}
	tools := append(append([]streammanager.ToolDescriptor{}, lease.Tools...), agenttools.Descriptors()...)
	return streammanager.ToolLease{Tools: tools, Release: lease.Release}, nil
}

// executeTool is the llmprovider.ToolExecutor wired into the Anthropic
// Provider: built-in names route to the workspace's Runtime, everything
// else routes to the MCP Server Manager's spawned clients.
func (d *Daemon) executeTool(ctx context.Context, workspaceID, name string, args map[string]interface{}) (interface{}, bool, string) {
	if agenttools.IsBuiltin(name) {
		w, err := d.Workspaces.Get(workspaceID)
		if err != nil {
			return nil, true, fmt.Sprintf("resolve workspace: %v", err)
		}
		rt, err := d.runtimeFor(w)
		if err != nil {
			return nil, true, fmt.Sprintf("resolve runtime: %v", err)
		}
		return agenttools.Call(ctx, rt, name, args)
	}
	return d.MCP.CallTool(ctx, workspaceID, name, args)
}

// sessionConfigFor returns the session.ConfigFactory backing every
// workspace's Actor: a dedicated History Log and Compaction Engine rooted
// at {MuxHome}/workspaces/{id}, sharing the daemon's Stream Manager and bus.
func (d *Daemon) sessionConfigFor(streams *streammanager.Manager) session.ConfigFactory {
	return func(workspaceID string) (session.Config, error) {
		w, err := d.Workspaces.Get(workspaceID)
		if err != nil {
			return session.Config{}, err
		}

		dir := filepath.Join(d.cfg.MuxHome, "workspaces", w.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return session.Config{}, fmt.Errorf("daemon: create workspace dir: %w", err)
		}

		log := history.New(dir)
		return session.Config{
			Log:          log,
			Streams:      streams,
			Compactor:    compaction.New(log, dir),
			Bus:          d.Bus,
			DefaultModel: d.cfg.DefaultModel,
			SysPrompt: sysprompt.Params{
				RuntimeKind: w.Runtime.Kind,
				ProjectPath: w.ProjectPath,
			},
		}, nil
	}
}

// Run starts the MCP idle sweeper and blocks until ctx is cancelled, then
// closes every spawned MCP client.
func (d *Daemon) Run(ctx context.Context) error {
	go d.MCP.RunIdleSweeper(ctx)

	logging.Info("daemon", "mux serve ready (home=%s)", d.cfg.MuxHome)
	<-ctx.Done()

	logging.Info("daemon", "shutting down")
	d.MCP.CloseAll()
	return nil
}
