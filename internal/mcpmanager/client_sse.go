package mcpmanager

import (
	"context"
	"fmt"
	"strings"

	"mux/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// SSEClient connects to a remote MCP server over Server-Sent Events. The
// manager dials this as the automatic fallback when an "http" definition's
// initial connection returns 400/404/405.
type SSEClient struct {
	baseMCPClient
	url     string
	headers map[string]string
}

func NewSSEClient(url string, headers map[string]string) *SSEClient {
	if headers == nil {
		headers = make(map[string]string)
	}
	return &SSEClient{url: url, headers: headers}
}

func (c *SSEClient) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	var opts []transport.ClientOption
	if len(c.headers) > 0 {
		opts = append(opts, transport.WithHeaders(c.headers))
	}

	mcpClient, err := client.NewSSEMCPClient(c.url, opts...)
	if err != nil {
		return fmt.Errorf("create SSE client for %s: %w", c.url, err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		if authErr := checkForAuthRequiredError(err, c.url); authErr != nil {
			return authErr
		}
		return fmt.Errorf("start SSE transport to %s: %w", c.url, err)
	}

	if _, err := mcpClient.Initialize(ctx, initializeRequest()); err != nil {
		_ = mcpClient.Close()
		if authErr := checkForAuthRequiredError(err, c.url); authErr != nil {
			return authErr
		}
		return fmt.Errorf("initialize SSE MCP server %s: %w", c.url, err)
	}

	c.client = mcpClient
	c.connected = true
	logging.Debug("mcpmanager", "SSE client initialized for %s", c.url)
	return nil
}

func (c *SSEClient) Close() error { return c.closeClient() }

func (c *SSEClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

func (c *SSEClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *SSEClient) Ping(ctx context.Context) error { return c.ping(ctx) }

// IsFallbackEligible reports whether err is one of the HTTP statuses
// §4.12 says should trigger automatic HTTP -> SSE fallback.
func IsFallbackEligible(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, code := range []string{"400", "404", "405"} {
		if strings.Contains(s, code) {
			return true
		}
	}
	return false
}
