package mcpmanager

import (
	"context"
	"fmt"

	"mux/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// TokenProvider supplies the current bearer token for an HTTP-transport MCP
// client on every request, so a refreshed OAuth token is picked up without
// tearing down and re-dialing the client.
type TokenProvider interface {
	AccessToken(ctx context.Context) string
}

// StaticTokenProvider always returns the same token; used when a
// definition's header templates already resolved to a fixed value.
type StaticTokenProvider string

func (t StaticTokenProvider) AccessToken(context.Context) string { return string(t) }

func headerFunc(provider TokenProvider) func(context.Context) map[string]string {
	return func(ctx context.Context) map[string]string {
		if provider == nil {
			return nil
		}
		token := provider.AccessToken(ctx)
		if token == "" {
			return nil
		}
		return map[string]string{"Authorization": "Bearer " + token}
	}
}

// StreamableHTTPClient connects to a remote MCP server over streamable
// HTTP. A TokenProvider, when set, overrides static Headers for the
// Authorization header on every request.
type StreamableHTTPClient struct {
	baseMCPClient
	url     string
	headers map[string]string
	tokens  TokenProvider
}

func NewStreamableHTTPClient(url string, headers map[string]string, tokens TokenProvider) *StreamableHTTPClient {
	if headers == nil {
		headers = make(map[string]string)
	}
	return &StreamableHTTPClient{url: url, headers: headers, tokens: tokens}
}

func (c *StreamableHTTPClient) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	var opts []transport.StreamableHTTPCOption
	if len(c.headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(c.headers))
	}
	if c.tokens != nil {
		opts = append(opts, transport.WithHTTPHeaderFunc(headerFunc(c.tokens)))
	}

	mcpClient, err := client.NewStreamableHttpClient(c.url, opts...)
	if err != nil {
		return fmt.Errorf("create streamable-http client for %s: %w", c.url, err)
	}

	if _, err := mcpClient.Initialize(ctx, initializeRequest()); err != nil {
		_ = mcpClient.Close()
		if authErr := checkForAuthRequiredError(err, c.url); authErr != nil {
			return authErr
		}
		return fmt.Errorf("initialize streamable-http MCP server %s: %w", c.url, err)
	}

	c.client = mcpClient
	c.connected = true
	logging.Debug("mcpmanager", "streamable-http client initialized for %s", c.url)
	return nil
}

func (c *StreamableHTTPClient) Close() error { return c.closeClient() }

func (c *StreamableHTTPClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return c.listTools(ctx)
}

func (c *StreamableHTTPClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, name, args)
}

func (c *StreamableHTTPClient) Ping(ctx context.Context) error { return c.ping(ctx) }
