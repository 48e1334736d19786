package mcpmanager

import (
	"context"
	"testing"

	"mux/internal/oauth"
)

func TestOAuthTokenProviderNilManagerReturnsEmpty(t *testing.T) {
	p := &oauthTokenProvider{sessionID: "s", serverName: "github"}
	if got := p.AccessToken(context.Background()); got != "" {
		t.Errorf("expected empty token with nil manager, got %q", got)
	}
}

func TestOAuthTokenProviderNilReceiverReturnsEmpty(t *testing.T) {
	var p *oauthTokenProvider
	if got := p.AccessToken(context.Background()); got != "" {
		t.Errorf("expected empty token on nil receiver, got %q", got)
	}
}

func TestOAuthTokenProviderUnregisteredServerReturnsEmpty(t *testing.T) {
	mgr := oauth.NewManager(oauth.Config{Enabled: true, PublicURL: "https://mux.example.com", CallbackPath: "/oauth/callback"})
	defer mgr.Stop()

	p := &oauthTokenProvider{manager: mgr, sessionID: "s", serverName: "github"}
	if got := p.AccessToken(context.Background()); got != "" {
		t.Errorf("expected empty token for unregistered server, got %q", got)
	}
}

func TestManagerTokenProviderForWithoutOAuthManagerIsNil(t *testing.T) {
	m := New(nil, nil)
	if got := m.tokenProviderFor("s", "github"); got != nil {
		t.Errorf("expected nil TokenProvider when no oauth manager is configured, got %v", got)
	}
}
