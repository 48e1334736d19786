// Package oauth implements the daemon side of OAuth 2.1 authentication for
// remote MCP servers: the mux daemon authenticates to a protected MCP server
// on behalf of the workspace's sessions, without exposing tokens to the
// frontend.
//
// # Architecture
//
// The proxy follows a three-legged OAuth 2.1 Authorization Code flow with
// PKCE:
//
//  1. Connecting to a remote MCP server gets a 401.
//  2. The MCP Server Manager's HTTP/SSE client parses the WWW-Authenticate
//     challenge into an AuthRequiredError; the caller passes its issuer and
//     scope to Manager.CreateAuthChallenge to get an auth URL. (The MCP
//     Server Manager's own tool aggregation logs a failed dial and does not
//     call CreateAuthChallenge.)
//  3. The caller surfaces the auth URL to the user, who authenticates with
//     the identity provider in a browser.
//  4. The IdP redirects to the daemon's callback endpoint with an
//     authorization code.
//  5. The daemon exchanges the code for tokens and stores them.
//  6. The next tool call against that server picks up the stored token.
//
// # Components
//
//   - TokenStore: in-memory token storage, indexed by session and issuer
//   - StateStore: CSRF state tracking for in-flight authorization requests
//   - Client: OAuth client handling metadata discovery, code exchange, and
//     refresh
//   - Handler: HTTP handler for the /oauth/callback and CIMD endpoints
//   - Manager: ties the above together per registered MCP server
//
// # Security
//
// Tokens are held in memory by the daemon and never reach the frontend.
// Sessions are identified by workspace ID, which doubles as the lookup key
// for SSO token reuse across MCP servers sharing an issuer.
package oauth
