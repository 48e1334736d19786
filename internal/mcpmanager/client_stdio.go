package mcpmanager

import (
	"context"
	"fmt"
	"time"

	"mux/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultStdioInitTimeout bounds subprocess start + MCP handshake.
const DefaultStdioInitTimeout = 10 * time.Second

// StdioClient runs a localCommand MCP server as a subprocess, talking
// over its stdin/stdout.
type StdioClient struct {
	baseMCPClient
	command string
	args    []string
	env     map[string]string
}

func NewStdioClient(command string, args []string, env map[string]string) *StdioClient {
	return &StdioClient{command: command, args: args, env: env}
}

func (c *StdioClient) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	envStrings := make([]string, 0, len(c.env))
	for k, v := range c.env {
		envStrings = append(envStrings, fmt.Sprintf("%s=%s", k, v))
	}

	mcpClient, err := client.NewStdioMCPClient(c.command, envStrings, c.args...)
	if err != nil {
		return fmt.Errorf("create stdio client for %s: %w", c.command, err)
	}

	initCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, DefaultStdioInitTimeout)
		defer cancel()
	}

	if _, err := mcpClient.Initialize(initCtx, initializeRequest()); err != nil {
		logging.Error("mcpmanager", err, "failed to initialize stdio MCP server %s", c.command)
		_ = mcpClient.Close()
		return fmt.Errorf("initialize stdio MCP server %s: %w", c.command, err)
	}

	c.client = mcpClient
	c.connected = true
	return nil
}

func (c *StdioClient) Close() error { return c.closeClient() }

func (c *StdioClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

func (c *StdioClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *StdioClient) Ping(ctx context.Context) error { return c.ping(ctx) }
