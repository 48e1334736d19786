package oauth

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"mux/pkg/logging"
)

// AuthCompletionCallback is invoked after a session successfully completes
// the browser OAuth flow for a server, so the caller can retry whatever tool
// call triggered the original 401.
type AuthCompletionCallback func(ctx context.Context, sessionID, serverName, accessToken string) error

// Config configures a Manager. PublicURL and CallbackPath must together form
// the daemon's externally reachable callback endpoint
// (PublicURL + CallbackPath), which is registered with each identity
// provider as the client's redirect_uri.
type Config struct {
	Enabled bool

	// PublicURL is the daemon's externally reachable base URL.
	PublicURL string
	// CallbackPath is the path of the OAuth callback endpoint, e.g.
	// "/oauth/callback".
	CallbackPath string
	// ClientID overrides the auto-derived CIMD URL used as client_id.
	// Leave empty to self-host a Client ID Metadata Document at
	// PublicURL + CIMDPath and use that URL as the client_id.
	ClientID string
	// CIMDPath is the path mux serves its own Client ID Metadata Document
	// at, when ClientID is empty. Defaults to "/.well-known/mux-client".
	CIMDPath string
	// CIMDScopes lists the scopes advertised in the self-hosted CIMD.
	CIMDScopes string
	// CAFile, if set, is a PEM-encoded CA bundle trusted for all OAuth HTTP
	// calls (metadata discovery, code exchange, refresh) — useful when an
	// identity provider uses a private or self-signed certificate.
	CAFile string
}

func (c Config) effectiveClientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return strings.TrimSuffix(c.PublicURL, "/") + c.cimdPath()
}

func (c Config) cimdPath() string {
	if c.CIMDPath != "" {
		return c.CIMDPath
	}
	return "/.well-known/mux-client"
}

func (c Config) shouldServeCIMD() bool {
	return c.ClientID == ""
}

// AuthServerConfig holds OAuth configuration for a specific remote MCP server.
type AuthServerConfig struct {
	ServerName string
	Issuer     string
	Scope      string
}

// AuthRequiredResponse is returned when a server requires authentication.
type AuthRequiredResponse struct {
	Status     string `json:"status"`
	AuthURL    string `json:"auth_url"`
	ServerName string `json:"server_name,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Manager coordinates OAuth flows for a workspace's remote MCP server
// connections: it tracks which servers require auth, brokers the
// authorization-code-with-PKCE flow, and serves tokens back to the MCP
// Server Manager for outgoing requests.
type Manager struct {
	mu sync.RWMutex

	config  Config
	client  *Client
	handler *Handler

	serverConfigs map[string]*AuthServerConfig

	authCompletionCallback AuthCompletionCallback
}

// NewManager creates a new OAuth manager with the given configuration, or
// returns nil if cfg.Enabled is false. Every Manager method is a no-op (or
// returns a "disabled" error) on a nil receiver, so callers can wire an
// always-present *Manager without special-casing the disabled path.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		logging.Info("oauth", "MCP server OAuth is disabled")
		return nil
	}

	client := NewClient(cfg.effectiveClientID(), cfg.PublicURL, cfg.CallbackPath, cfg.CIMDScopes)

	if cfg.CAFile != "" {
		httpClient, err := httpClientWithCA(cfg.CAFile)
		if err != nil {
			logging.Warn("oauth", "failed to configure custom CA, using default: %v", err)
		} else {
			client.SetHTTPClient(httpClient)
			logging.Info("oauth", "configured OAuth client with custom CA from %s", cfg.CAFile)
		}
	}

	handler := NewHandler(client)

	m := &Manager{
		config:        cfg,
		client:        client,
		handler:       handler,
		serverConfigs: make(map[string]*AuthServerConfig),
	}
	handler.SetManager(m)

	if cfg.shouldServeCIMD() {
		logging.Info("oauth", "OAuth manager initialized with self-hosted CIMD (publicURL=%s, clientID=%s)",
			cfg.PublicURL, cfg.effectiveClientID())
	} else {
		logging.Info("oauth", "OAuth manager initialized with external client_id=%s", cfg.effectiveClientID())
	}

	return m
}

func httpClientWithCA(caFile string) (*http.Client, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("parse CA certificate")
	}

	return &http.Client{
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}},
		Timeout:   30 * time.Second,
	}, nil
}

// IsEnabled returns whether OAuth support is enabled.
func (m *Manager) IsEnabled() bool {
	return m != nil
}

// GetHTTPHandler returns the HTTP handler for the OAuth callback endpoint.
func (m *Manager) GetHTTPHandler() http.Handler {
	if m == nil {
		return nil
	}
	return m.handler
}

// GetCallbackPath returns the configured callback path.
func (m *Manager) GetCallbackPath() string {
	if m == nil {
		return ""
	}
	return m.config.CallbackPath
}

// GetCIMDPath returns the path mux serves its own Client ID Metadata
// Document at, if it does.
func (m *Manager) GetCIMDPath() string {
	if m == nil {
		return ""
	}
	return m.config.cimdPath()
}

// ShouldServeCIMD returns true if mux should serve its own CIMD.
func (m *Manager) ShouldServeCIMD() bool {
	return m != nil && m.config.shouldServeCIMD()
}

// GetCIMDHandler returns the HTTP handler that serves the CIMD.
func (m *Manager) GetCIMDHandler() http.HandlerFunc {
	if m == nil || m.handler == nil {
		return nil
	}
	return m.handler.ServeCIMD
}

// RegisterServer records the issuer and scope an MCP server requires, so a
// later GetToken call knows where to refresh from.
func (m *Manager) RegisterServer(serverName, issuer, scope string) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.serverConfigs[serverName] = &AuthServerConfig{
		ServerName: serverName,
		Issuer:     issuer,
		Scope:      scope,
	}

	logging.Debug("oauth", "registered server=%s issuer=%s scope=%s", serverName, issuer, scope)
}

// GetServerConfig returns the OAuth configuration for a server, if registered.
func (m *Manager) GetServerConfig(serverName string) *AuthServerConfig {
	if m == nil {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.serverConfigs[serverName]
}

// GetToken returns a valid access token for sessionID's connection to
// serverName, refreshing it first if it is close to expiry. Returns nil if
// the server isn't registered or no valid token is available — the caller
// should fall back to CreateAuthChallenge.
func (m *Manager) GetToken(ctx context.Context, sessionID, serverName string) *Token {
	if m == nil {
		return nil
	}

	m.mu.RLock()
	serverCfg := m.serverConfigs[serverName]
	m.mu.RUnlock()
	if serverCfg == nil {
		return nil
	}

	token := m.client.GetToken(sessionID, serverCfg.Issuer, serverCfg.Scope)
	if token == nil {
		return nil
	}
	if !token.IsExpiredWithMargin(tokenExpiryMargin) {
		return token
	}

	refreshed, err := m.client.RefreshToken(ctx, token)
	if err != nil {
		logging.Debug("oauth", "token refresh failed for session=%s server=%s: %v",
			logging.TruncateSessionID(sessionID), serverName, err)
		return nil
	}

	m.client.StoreToken(sessionID, refreshed)
	logging.Debug("oauth", "refreshed token for session=%s server=%s", logging.TruncateSessionID(sessionID), serverName)
	return refreshed
}

// ClearToken removes any stored token for sessionID's connection to
// serverName, forcing the next GetToken call to report no valid token.
func (m *Manager) ClearToken(sessionID, serverName string) {
	if m == nil {
		return
	}

	m.mu.RLock()
	serverCfg := m.serverConfigs[serverName]
	m.mu.RUnlock()
	if serverCfg == nil {
		return
	}

	m.client.GetTokenStore().Delete(TokenKey{SessionID: sessionID, Issuer: serverCfg.Issuer, Scope: serverCfg.Scope})
}

// CreateAuthChallenge generates an authorization URL for a 401 recovered
// from serverName, registering the server's issuer/scope in the process.
func (m *Manager) CreateAuthChallenge(ctx context.Context, sessionID, serverName, issuer, scope string) (*AuthRequiredResponse, error) {
	if m == nil {
		return nil, fmt.Errorf("oauth: manager disabled")
	}

	m.RegisterServer(serverName, issuer, scope)

	authURL, err := m.client.GenerateAuthURL(ctx, sessionID, serverName, issuer, scope)
	if err != nil {
		return nil, fmt.Errorf("generate auth url: %w", err)
	}

	logging.Info("oauth", "created auth challenge for session=%s server=%s", logging.TruncateSessionID(sessionID), serverName)

	return &AuthRequiredResponse{
		Status:     "auth_required",
		AuthURL:    authURL,
		ServerName: serverName,
		Message:    fmt.Sprintf("Authentication required for %s. Visit the link to authenticate.", serverName),
	}, nil
}

// SetAuthCompletionCallback registers the callback invoked once a browser
// OAuth flow completes, so the caller can resume whatever was waiting on it.
func (m *Manager) SetAuthCompletionCallback(callback AuthCompletionCallback) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.authCompletionCallback = callback
}

// HandleCallback processes an OAuth callback programmatically (used by
// tests and non-HTTP callers). The production path is Handler.HandleCallback,
// the actual HTTP endpoint, which also invokes the completion callback.
func (m *Manager) HandleCallback(ctx context.Context, code, state string) error {
	if m == nil {
		return fmt.Errorf("oauth: manager disabled")
	}

	stateData := m.client.GetStateStore().ValidateState(state)
	if stateData == nil {
		return fmt.Errorf("invalid or expired state")
	}
	if stateData.Issuer == "" {
		return fmt.Errorf("missing issuer in state")
	}
	if stateData.CodeVerifier == "" {
		return fmt.Errorf("missing code verifier in state")
	}

	token, err := m.client.ExchangeCode(ctx, code, stateData.CodeVerifier, stateData.Issuer)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	m.client.StoreToken(stateData.SessionID, token)
	logging.Info("oauth", "completed OAuth flow for session=%s server=%s",
		logging.TruncateSessionID(stateData.SessionID), stateData.ServerName)

	return nil
}

// Stop stops the OAuth manager's background cleanup goroutines.
func (m *Manager) Stop() {
	if m == nil {
		return
	}
	m.client.Stop()
	logging.Info("oauth", "OAuth manager stopped")
}
