package mcpmanager

import (
	"context"

	"mux/internal/oauth"
)

// oauthTokenProvider adapts an *oauth.Manager into a TokenProvider scoped to
// one workspace session's connection to one MCP server, so a refreshed token
// is picked up on the next request without tearing down the client.
type oauthTokenProvider struct {
	manager    *oauth.Manager
	sessionID  string
	serverName string
}

func (p *oauthTokenProvider) AccessToken(ctx context.Context) string {
	if p == nil || p.manager == nil {
		return ""
	}
	token := p.manager.GetToken(ctx, p.sessionID, p.serverName)
	if token == nil {
		return ""
	}
	return token.AccessToken
}
