// Package oauth provides shared OAuth 2.1 types and utilities used by both
// the mux CLI and the mux daemon.
//
// This package contains the OAuth functionality shared between the CLI's
// local login flow (file-based token storage, opens a browser) and the
// daemon-side implementation (internal/oauth, in-memory token storage, HTTP
// callback endpoint) that authenticates to OAuth-protected MCP servers on
// the workbench's behalf.
//
// # Core Components
//
//   - Token: OAuth token representation with expiry checking
//   - Metadata: OAuth/OIDC server metadata (RFC 8414)
//   - AuthChallenge: Parsed WWW-Authenticate header information
//   - PKCE: Proof Key for Code Exchange generation (RFC 7636)
//   - Client: OAuth client for metadata discovery and token operations
//
// # Usage
//
// CLI usage (file-based storage, browser opening):
//
//	import "mux/pkg/oauth"
//
//	challenge, err := oauth.ParseWWWAuthenticate(header)
//	verifier, challengeStr, err := oauth.GeneratePKCE()
//
// Daemon usage (in-memory storage, HTTP callbacks):
//
//	import "mux/pkg/oauth"
//
//	client := oauth.NewClient(httpClient, logger)
//	metadata, err := client.DiscoverMetadata(ctx, issuer)
package oauth
