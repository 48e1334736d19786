// Package coderapi is a thin REST client for the Coder workspace service:
// status polling, start/stop/delete, and startup-log streaming. It never
// persists a secret — the bearer token is supplied to New by the
// embedding frontend and held only in memory for the client's lifetime.
package coderapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Status is a Coder workspace's lifecycle state, as reported by the API.
type Status string

const (
	StatusRunning   Status = "running"
	StatusStopped   Status = "stopped"
	StatusStarting  Status = "starting"
	StatusStopping  Status = "stopping"
	StatusCanceling Status = "canceling"
	StatusPending   Status = "pending"
	StatusDeleting  Status = "deleting"
	StatusDeleted   Status = "deleted"
	StatusNotFound  Status = "not_found"
	StatusFailed    Status = "failed"
)

// WorkspaceStatus is the polled descriptor §3's Coder Workspace Descriptor
// entity names.
type WorkspaceStatus struct {
	Name         string    `json:"name"`
	Status       Status    `json:"status"`
	LastActivity time.Time `json:"last_activity_at"`
	AgentID      string    `json:"agent_id,omitempty"`
}

// Client talks to one Coder deployment's REST API over a bearer token.
type Client struct {
	BaseURL string
	Token   string
	http    *http.Client
}

// New builds a Client backed by go-retryablehttp's bounded-retry transport
// so transient 5xx/network errors during a workspace status poll don't
// immediately surface as ensureReady failures.
func New(baseURL, token string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Token: token, http: rc.StandardClient()}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("coderapi: encode request: %w", err)
		}
		reqBody = *strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &reqBody)
	if err != nil {
		return nil, fmt.Errorf("coderapi: build request: %w", err)
	}
	req.Header.Set("Coder-Session-Token", c.Token)
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// GetWorkspace fetches the current status of a named workspace. A 404 is
// translated into StatusNotFound rather than an error, matching
// ensureReady's treatment of "not found" as a classified state, not a
// transport failure.
func (c *Client) GetWorkspace(ctx context.Context, name string) (WorkspaceStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v2/workspaces/"+name, nil)
	if err != nil {
		return WorkspaceStatus{}, fmt.Errorf("coderapi: get workspace %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return WorkspaceStatus{Name: name, Status: StatusNotFound}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return WorkspaceStatus{}, fmt.Errorf("coderapi: get workspace %s: unexpected status %d", name, resp.StatusCode)
	}

	var ws WorkspaceStatus
	if err := json.NewDecoder(resp.Body).Decode(&ws); err != nil {
		return WorkspaceStatus{}, fmt.Errorf("coderapi: decode workspace %s: %w", name, err)
	}
	return ws, nil
}

// StartWorkspace requests a transition to running.
func (c *Client) StartWorkspace(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/v2/workspaces/"+name+"/builds", map[string]string{"transition": "start"})
	if err != nil {
		return fmt.Errorf("coderapi: start workspace %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("coderapi: start workspace %s: status %d", name, resp.StatusCode)
	}
	return nil
}

// StopWorkspace requests a transition to stopped.
func (c *Client) StopWorkspace(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/v2/workspaces/"+name+"/builds", map[string]string{"transition": "stop"})
	if err != nil {
		return fmt.Errorf("coderapi: stop workspace %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("coderapi: stop workspace %s: status %d", name, resp.StatusCode)
	}
	return nil
}

// DeleteWorkspace requests permanent deletion. The core never calls this
// speculatively — only after the caller has decided SSH-side cleanup
// succeeded or was skipped (§4.5.1 deleteWorkspace).
func (c *Client) DeleteWorkspace(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/v2/workspaces/"+name+"/builds", map[string]string{"transition": "delete"})
	if err != nil {
		return fmt.Errorf("coderapi: delete workspace %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("coderapi: delete workspace %s: status %d", name, resp.StatusCode)
	}
	return nil
}

// StreamStartupLogs yields each startup log line to onLine until the
// response body closes or ctx is cancelled. Used by waitForStartupScripts
// to surface "starting" status events while a workspace builds.
func (c *Client) StreamStartupLogs(ctx context.Context, name string, onLine func(line string)) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/v2/workspaces/"+name+"/builds/latest/logs?follow=true", nil)
	if err != nil {
		return fmt.Errorf("coderapi: stream startup logs %s: %w", name, err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		onLine(scanner.Text())
	}
	return scanner.Err()
}
