// Package askpass implements the scoped SSH_ASKPASS session the connection
// pool opens before spawning an ssh subprocess that might prompt
// interactively. A small helper script writes each prompt to a file in a
// per-session temp directory; this process watches the directory with
// fsnotify and answers through a registered Resolver.
package askpass

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"mux/internal/sshpool"
	"mux/pkg/logging"
)

// HostKeyInfo is the structured result of parsing a host-key confirmation
// prompt. Unparseable prompts yield "unknown" for every field.
type HostKeyInfo struct {
	Host        string
	KeyType     string
	Fingerprint string
}

var continueConnectingRe = regexp.MustCompile(`(?i)continue connecting`)

// ClassifyPrompt routes a raw askpass prompt string to host-key
// verification or generic credential handling.
func ClassifyPrompt(prompt string) sshpool.PromptKind {
	if continueConnectingRe.MatchString(prompt) {
		return sshpool.PromptHostKey
	}
	return sshpool.PromptCredential
}

var hostKeyPromptRe = regexp.MustCompile(`(?is)The authenticity of host '([^']+)'.*?\(([A-Za-z0-9_-]+)\).*?fingerprint is ([A-Za-z0-9:+/=]+)`)

// ParseHostKeyPrompt extracts host, key type, and fingerprint from a
// standard OpenSSH host-key confirmation prompt. Fields that cannot be
// parsed are reported as "unknown".
func ParseHostKeyPrompt(prompt string) HostKeyInfo {
	m := hostKeyPromptRe.FindStringSubmatch(prompt)
	if m == nil {
		return HostKeyInfo{Host: "unknown", KeyType: "unknown", Fingerprint: "unknown"}
	}
	return HostKeyInfo{Host: m[1], KeyType: m[2], Fingerprint: m[3]}
}

// Resolver answers a single prompt with the text to feed back to ssh.
type Resolver func(ctx context.Context, prompt string, kind sshpool.PromptKind, info HostKeyInfo) (string, error)

// Session is one scoped askpass directory and its watcher goroutine.
type Session struct {
	Dir string

	resolver Resolver
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	handled map[string]bool

	cancel context.CancelFunc
	done   chan struct{}
}

// Env returns the environment variables a spawned ssh process needs to
// route prompts through this session.
func (s *Session) Env(helperScriptPath string) []string {
	return []string{
		"SSH_ASKPASS=" + helperScriptPath,
		"SSH_ASKPASS_REQUIRE=force",
		"DISPLAY=:0",
		"MUX_ASKPASS_DIR=" + s.Dir,
	}
}

// helperScript is a POSIX shell script: it writes its $1 argument (the
// prompt ssh passes to $SSH_ASKPASS) to prompt.<reqId>.txt, then polls for
// response.<reqId>.txt and prints its contents to stdout for ssh to read.
const helperScript = `#!/bin/sh
set -eu
dir="$MUX_ASKPASS_DIR"
req="$$-$(date +%s%N 2>/dev/null || date +%s)"
prompt_file="$dir/prompt.$req.txt"
resp_file="$dir/response.$req.txt"
tmp="$prompt_file.tmp"
printf '%s' "$1" > "$tmp"
mv "$tmp" "$prompt_file"
while [ ! -f "$resp_file" ]; do
  sleep 0.05
done
cat "$resp_file"
`

// Open creates the scoped temp directory, writes the helper script, and
// starts the watcher goroutine that answers prompts via resolve. Cleanup
// happens when the returned Session's Close is called; if Open fails partway
// it removes the temp dir itself and returns a nil Session.
func Open(ctx context.Context, resolve Resolver) (*Session, error) {
	dir, err := os.MkdirTemp("", "mux-askpass-")
	if err != nil {
		return nil, fmt.Errorf("askpass: create session dir: %w", err)
	}

	helperPath := filepath.Join(dir, "helper.sh")
	if err := os.WriteFile(helperPath, []byte(helperScript), 0o700); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("askpass: write helper script: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("askpass: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("askpass: watch session dir: %w", err)
	}

	sessCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		Dir:      dir,
		resolver: resolve,
		watcher:  watcher,
		handled:  make(map[string]bool),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go s.watch(sessCtx)

	return s, nil
}

// HelperPath returns the path to the askpass helper script inside this
// session's directory, for Env/callers that spawn ssh directly.
func (s *Session) HelperPath() string {
	return filepath.Join(s.Dir, "helper.sh")
}

func (s *Session) watch(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			base := filepath.Base(ev.Name)
			if !strings.HasPrefix(base, "prompt.") || !strings.HasSuffix(base, ".txt") {
				continue
			}
			reqID := strings.TrimSuffix(strings.TrimPrefix(base, "prompt."), ".txt")
			go s.handlePrompt(ctx, reqID, ev.Name)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("askpass", "watcher error in session %s: %v", s.Dir, err)
		}
	}
}

func (s *Session) handlePrompt(ctx context.Context, reqID, promptPath string) {
	s.mu.Lock()
	if s.handled[reqID] {
		s.mu.Unlock()
		return
	}
	s.handled[reqID] = true
	s.mu.Unlock()

	raw, err := os.ReadFile(promptPath)
	if err != nil {
		logging.Warn("askpass", "read prompt %s: %v", reqID, err)
		return
	}
	prompt := string(raw)
	kind := ClassifyPrompt(prompt)
	var info HostKeyInfo
	if kind == sshpool.PromptHostKey {
		info = ParseHostKeyPrompt(prompt)
	}

	answer, err := s.resolver(ctx, prompt, kind, info)
	if err != nil {
		logging.Warn("askpass", "resolver failed for %s: %v", reqID, err)
		answer = ""
	}

	respPath := filepath.Join(s.Dir, "response."+reqID+".txt")
	tmp := respPath + ".tmp" + uuid.NewString()
	if err := os.WriteFile(tmp, []byte(answer), 0o600); err != nil {
		logging.Warn("askpass", "write response %s: %v", reqID, err)
		return
	}
	if err := os.Rename(tmp, respPath); err != nil {
		logging.Warn("askpass", "rename response %s: %v", reqID, err)
		return
	}

	os.Remove(promptPath)
	// The helper script polls for resp_file's existence and reads it as
	// soon as it appears; it has already consumed it by the time it exits,
	// so removing it here just keeps the session directory from
	// accumulating stale files across many prompts in one session.
	os.Remove(respPath)
}

// Close stops the watcher and removes the session directory. It is
// idempotent and safe to call multiple times.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.watcher != nil {
		<-s.done
		s.watcher.Close()
	}
	return os.RemoveAll(s.Dir)
}
