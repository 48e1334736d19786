package mcpmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"mux/internal/oauth"
	"mux/internal/streammanager"
	"mux/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	sweepInterval = 60 * time.Second
	idleTimeout   = 10 * time.Minute
)

// Overrides is the workspace-level MCP configuration applied on top of the
// project's server definitions, per §4.12's "overrides applied last" rule.
type Overrides struct {
	EnabledServers  []string
	DisabledServers []string
	// ToolAllowlist, per server name, is intersected with the project-level
	// allowlist already on the definition.
	ToolAllowlist map[string][]string
}

// spawnedInstance is one running client for one (workspace, server) pair.
type spawnedInstance struct {
	signature    string
	client       MCPClient
	tools        []mcp.Tool
	lastActivity time.Time
	isClosed     bool
}

type workspaceState struct {
	mu             sync.Mutex
	instances      map[string]*spawnedInstance // server name -> instance
	leaseCount     int
	restartPending bool
}

// Manager is the workspace-scoped cache of spawned MCP clients described by
// §4.12: signature-based reuse, reference-counted leases, idle eviction.
type Manager struct {
	definitions *DefinitionStore
	dial        func(ctx context.Context, def ServerDefinition, tokens TokenProvider) (MCPClient, error)

	oauthManager *oauth.Manager

	mu         sync.Mutex
	workspaces map[string]*workspaceState

	stopSweep chan struct{}
}

// New builds a Manager reading definitions from store. dial, if nil,
// defaults to DialDefinition.
func New(store *DefinitionStore, dial func(ctx context.Context, def ServerDefinition, tokens TokenProvider) (MCPClient, error)) *Manager {
	if dial == nil {
		dial = DialDefinition
	}
	return &Manager{
		definitions: store,
		dial:        dial,
		workspaces:  make(map[string]*workspaceState),
	}
}

// SetOAuthManager wires the OAuth manager whose tokens back every
// HTTP-transport MCP server connection dialed from here on. Passing nil
// disables OAuth token injection; definitions then rely solely on their
// static header templates.
func (m *Manager) SetOAuthManager(om *oauth.Manager) {
	m.oauthManager = om
}

// tokenProviderFor returns the TokenProvider a dial for (sessionID,
// serverName) should use, or nil if no OAuth manager is configured.
func (m *Manager) tokenProviderFor(sessionID, serverName string) TokenProvider {
	if m.oauthManager == nil {
		return nil
	}
	return &oauthTokenProvider{manager: m.oauthManager, sessionID: sessionID, serverName: serverName}
}

// DialDefinition starts or connects the client for def, applying the
// HTTP -> SSE auto-fallback §4.12 specifies for the "http" type. tokens, if
// non-nil, overrides def's static header templates with a live bearer token
// on every request.
func DialDefinition(ctx context.Context, def ServerDefinition, tokens TokenProvider) (MCPClient, error) {
	switch def.Type {
	case TypeLocalCommand:
		c := NewStdioClient(def.Command[0], def.Command[1:], def.Env)
		if err := c.Initialize(ctx); err != nil {
			return nil, err
		}
		return c, nil

	case TypeContainer:
		return nil, fmt.Errorf("mcpmanager: container-type MCP servers require a configured runtime, not yet wired")

	case TypeHTTP:
		headers := expandHeaders(def.HeaderTemplates)
		c := NewStreamableHTTPClient(def.URL, headers, tokens)
		if err := c.Initialize(ctx); err != nil {
			if IsFallbackEligible(err) {
				logging.Info("mcpmanager", "falling back to SSE transport for %s after %v", def.Name, err)
				sse := NewSSEClient(def.URL, headers)
				if sseErr := sse.Initialize(ctx); sseErr != nil {
					return nil, sseErr
				}
				return sse, nil
			}
			return nil, err
		}
		return c, nil

	case TypeSSE:
		c := NewSSEClient(def.URL, expandHeaders(def.HeaderTemplates))
		if err := c.Initialize(ctx); err != nil {
			return nil, err
		}
		return c, nil

	default:
		return nil, fmt.Errorf("mcpmanager: unknown server type %q", def.Type)
	}
}

func expandHeaders(templates map[string]string) map[string]string {
	if len(templates) == 0 {
		return nil
	}
	out := make(map[string]string, len(templates))
	for k, v := range templates {
		out[k] = os.ExpandEnv(v)
	}
	return out
}

func (m *Manager) workspace(wsID string) *workspaceState {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workspaces[wsID]
	if !ok {
		ws = &workspaceState{instances: make(map[string]*spawnedInstance)}
		m.workspaces[wsID] = ws
	}
	return ws
}

// applyOverrides filters defs per §4.12: workspace enabledServers
// force-enable past a project-level disable, disabledServers force-skip,
// and per-server toolAllowlist intersects with the definition's own.
func applyOverrides(defs []ServerDefinition, ov Overrides) []ServerDefinition {
	enabled := toSet(ov.EnabledServers)
	disabled := toSet(ov.DisabledServers)

	out := make([]ServerDefinition, 0, len(defs))
	for _, def := range defs {
		if disabled[def.Name] && !enabled[def.Name] {
			continue
		}
		if allow, ok := ov.ToolAllowlist[def.Name]; ok {
			def.ToolAllowlist = intersect(def.ToolAllowlist, allow)
		}
		out = append(out, def)
	}
	return out
}

func toSet(names []string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

func intersect(a, b []string) []string {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	bSet := toSet(b)
	out := make([]string, 0, len(a))
	for _, v := range a {
		if bSet[v] {
			out = append(out, v)
		}
	}
	return out
}

// getToolsForWorkspace returns the aggregated, namespaced tool set for
// wsID's enabled servers, reusing any cached instance whose signature still
// matches and restarting only the ones that don't (or report isClosed).
func (m *Manager) getToolsForWorkspace(ctx context.Context, wsID string, ov Overrides) ([]streammanager.ToolDescriptor, error) {
	defs, err := m.definitions.List()
	if err != nil {
		return nil, fmt.Errorf("list MCP server definitions: %w", err)
	}
	defs = applyOverrides(defs, ov)

	ws := m.workspace(wsID)
	ws.mu.Lock()
	defer ws.mu.Unlock()

	var tools []streammanager.ToolDescriptor
	seen := make(map[string]bool, len(defs))

	for _, def := range defs {
		seen[def.Name] = true
		sig := def.Signature()

		inst, ok := ws.instances[def.Name]
		if ok && !inst.isClosed && inst.client.Ping(ctx) != nil {
			inst.isClosed = true
		}
		needsRestart := !ok || inst.isClosed || (inst.signature != sig && ws.leaseCount == 0)
		if ok && inst.signature != sig && ws.leaseCount > 0 {
			// Config changed under an active lease: defer until the lease drops.
			ws.restartPending = true
			needsRestart = false
		}

		if needsRestart {
			if ok && inst.client != nil {
				_ = inst.client.Close()
			}
			client, err := m.dial(ctx, def, m.tokenProviderFor(wsID, def.Name))
			if err != nil {
				logging.Warn("mcpmanager", "failed to start MCP server %s for workspace %s: %v", def.Name, wsID, err)
				delete(ws.instances, def.Name)
				continue
			}
			rawTools, err := client.ListTools(ctx)
			if err != nil {
				logging.Warn("mcpmanager", "failed to list tools for MCP server %s: %v", def.Name, err)
				_ = client.Close()
				delete(ws.instances, def.Name)
				continue
			}
			inst = &spawnedInstance{signature: sig, client: client, tools: rawTools}
			ws.instances[def.Name] = inst
		}

		inst.lastActivity = time.Now()
		tools = append(tools, namespacedTools(def.Name, inst.tools, def.ToolAllowlist)...)
	}

	// Servers that dropped out of this workspace's config entirely are
	// closed once no lease is held; while the workspace is leased they stay
	// until a later unleased call or the idle sweeper removes them.
	if ws.leaseCount == 0 {
		for name, inst := range ws.instances {
			if !seen[name] {
				_ = inst.client.Close()
				delete(ws.instances, name)
			}
		}
	}

	return tools, nil
}

func namespacedTools(server string, tools []mcp.Tool, allowlist []string) []streammanager.ToolDescriptor {
	allowed := toSet(allowlist)
	out := make([]streammanager.ToolDescriptor, 0, len(tools))
	for _, t := range tools {
		if len(allowed) > 0 && !allowed[t.Name] {
			continue
		}
		out = append(out, streammanager.ToolDescriptor{
			Name:        server + "_" + t.Name,
			Description: t.Description,
			InputSchema: schemaToMap(t.InputSchema),
		})
	}
	return out
}

// schemaToMap round-trips an mcp-go tool schema through JSON so callers get
// a plain map regardless of the mcp-go SDK's concrete schema struct shape.
func schemaToMap(schema interface{}) map[string]interface{} {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// AcquireLease implements streammanager.ToolLeaser. While leased, healthy
// instances are never closed by the idle sweeper or a config change.
func (m *Manager) AcquireLease(ctx context.Context, workspaceID string) (streammanager.ToolLease, error) {
	return m.AcquireLeaseWithOverrides(ctx, workspaceID, Overrides{})
}

// AcquireLeaseWithOverrides is AcquireLease with explicit workspace
// overrides; streammanager.ToolLeaser only needs the zero-value path, but
// the session layer calls this form directly.
func (m *Manager) AcquireLeaseWithOverrides(ctx context.Context, workspaceID string, ov Overrides) (streammanager.ToolLease, error) {
	ws := m.workspace(workspaceID)

	tools, err := m.getToolsForWorkspace(ctx, workspaceID, ov)
	if err != nil {
		return streammanager.ToolLease{}, err
	}

	ws.mu.Lock()
	ws.leaseCount++
	ws.mu.Unlock()

	released := false
	var releaseMu sync.Mutex
	release := func() {
		releaseMu.Lock()
		defer releaseMu.Unlock()
		if released {
			return
		}
		released = true
		m.releaseLease(workspaceID)
	}

	return streammanager.ToolLease{Tools: tools, Release: release}, nil
}

func (m *Manager) releaseLease(workspaceID string) {
	ws := m.workspace(workspaceID)
	ws.mu.Lock()
	if ws.leaseCount > 0 {
		ws.leaseCount--
	}
	pending := ws.leaseCount == 0 && ws.restartPending
	if pending {
		ws.restartPending = false
	}
	ws.mu.Unlock()

	if pending {
		// A subsequent unleased getToolsForWorkspace call will pick up the
		// new signature and restart the affected servers.
		logging.Debug("mcpmanager", "lease on workspace %s dropped to zero with a pending restart", workspaceID)
	}
}

// RunIdleSweeper closes instances with no lease and no activity in the
// last idleTimeout, on a sweepInterval tick, until ctx is done.
func (m *Manager) RunIdleSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepIdle()
		}
	}
}

func (m *Manager) sweepIdle() {
	m.mu.Lock()
	workspaces := make(map[string]*workspaceState, len(m.workspaces))
	for id, ws := range m.workspaces {
		workspaces[id] = ws
	}
	m.mu.Unlock()

	now := time.Now()
	for wsID, ws := range workspaces {
		ws.mu.Lock()
		if ws.leaseCount == 0 {
			for name, inst := range ws.instances {
				if now.Sub(inst.lastActivity) > idleTimeout {
					logging.Debug("mcpmanager", "closing idle MCP server %s for workspace %s", name, wsID)
					_ = inst.client.Close()
					delete(ws.instances, name)
				}
			}
		}
		ws.mu.Unlock()
	}
}

// CallTool invokes a namespaced tool name (as produced by namespacedTools:
// "<server>_<tool>") against workspaceID's already-spawned instance for
// that server. The lease backing namespacedName's ToolDescriptor must still
// be held; calling after Release risks the instance having been evicted by
// the idle sweeper.
func (m *Manager) CallTool(ctx context.Context, workspaceID, namespacedName string, args map[string]interface{}) (interface{}, bool, string) {
	ws := m.workspace(workspaceID)
	ws.mu.Lock()
	var inst *spawnedInstance
	var toolName string
	for server, candidate := range ws.instances {
		prefix := server + "_"
		if strings.HasPrefix(namespacedName, prefix) {
			inst = candidate
			toolName = strings.TrimPrefix(namespacedName, prefix)
			break
		}
	}
	ws.mu.Unlock()

	if inst == nil {
		return nil, true, fmt.Sprintf("mcpmanager: no spawned server matches tool %q", namespacedName)
	}

	result, err := inst.client.CallTool(ctx, toolName, args)
	if err != nil {
		return nil, true, err.Error()
	}
	if result.IsError {
		return result.Content, true, fmt.Sprintf("tool %s reported an error", namespacedName)
	}
	return result.Content, false, ""
}

// CloseAll tears down every spawned client across every workspace,
// regardless of lease state; used on process shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ws := range m.workspaces {
		ws.mu.Lock()
		for name, inst := range ws.instances {
			_ = inst.client.Close()
			delete(ws.instances, name)
		}
		ws.mu.Unlock()
	}
}
