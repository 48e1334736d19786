package mcpmanager

import (
	"net/http"
	"strings"

	"mux/internal/oauth"
)

// AuthInfo carries the OAuth challenge parameters recovered from a 401
// response, enough for the caller to kick off the authorization flow.
type AuthInfo struct {
	Issuer              string
	Scope               string
	ResourceMetadataURL string
}

// AuthRequiredError signals that an MCP server demands OAuth
// authentication before it will complete initialization.
type AuthRequiredError struct {
	URL      string
	AuthInfo AuthInfo
	Err      error
}

func (e *AuthRequiredError) Error() string {
	return "mcp server " + e.URL + " requires authentication: " + e.Err.Error()
}

func (e *AuthRequiredError) Unwrap() error { return e.Err }

// checkForAuthRequiredError inspects a transport error for a 401 response
// and, if found, extracts whatever WWW-Authenticate parameters the error
// text carries. mcp-go surfaces the HTTP status in the error string rather
// than a typed error, so this is necessarily a text match.
func checkForAuthRequiredError(err error, url string) *AuthRequiredError {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "401") && !strings.Contains(errStr, http.StatusText(http.StatusUnauthorized)) {
		return nil
	}

	info := AuthInfo{}
	if idx := strings.Index(errStr, "Bearer"); idx >= 0 {
		headerPart := errStr[idx:]
		if endIdx := strings.IndexByte(headerPart, '\n'); endIdx > 0 {
			headerPart = headerPart[:endIdx]
		}
		if params := oauth.ParseWWWAuthenticate(headerPart); params != nil {
			info.Issuer = params.Realm
			info.Scope = params.Scope
			info.ResourceMetadataURL = params.ResourceMetadataURL
		}
	}

	return &AuthRequiredError{URL: url, AuthInfo: info, Err: err}
}
