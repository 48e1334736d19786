// Package sshtransport implements the exec/file contract the Runtime SSH
// variant needs, with two interchangeable implementations: spawning the
// system `ssh` binary (OpenSSH-process, the default on POSIX) or driving
// golang.org/x/crypto/ssh directly in-process (Library, used on Windows or
// when explicitly configured).
package sshtransport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// HostKeyMode controls how an OpenSSH-process transport answers host key
// prompts when no askpass resolver overrides it.
type HostKeyMode string

const (
	HostKeyModeStrict           HostKeyMode = "strict"
	HostKeyModeHeadlessFallback HostKeyMode = "headless-fallback"
)

// ExecOptions configures one exec call.
type ExecOptions struct {
	Cwd         string
	Env         map[string]string
	TimeoutSecs int
	ForcePTY    bool
}

// ExecStream is a live remote command: a stdin sink, stdout/stderr
// sources, and futures for exit code and duration that resolve once the
// command finishes.
type ExecStream interface {
	Stdin() io.WriteCloser
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the command exits, returning its exit code and
	// wall-clock duration.
	Wait() (exitCode int, duration time.Duration, err error)
}

// FileStat is the subset of file metadata callers need.
type FileStat struct {
	Size  int64
	IsDir bool
	Mode  uint32
}

// Transport is the contract both variants implement. The pool never calls
// methods here directly for health tracking; callers wrap every use in
// sshpool.Acquire first.
type Transport interface {
	Exec(ctx context.Context, command string, opts ExecOptions) (ExecStream, error)
	ReadFile(ctx context.Context, path string) (io.ReadCloser, error)
	WriteFile(ctx context.Context, path string, r io.Reader) error
	Stat(ctx context.Context, path string) (FileStat, error)
	ResolvePath(ctx context.Context, path string) (string, error)
	Close() error
}

// ControlMasterPath derives the OpenSSH ControlMaster socket path for
// (host, port, identityFile, localUsername), scoped by local user and a
// digest of the other three so concurrent users sharing a temp directory
// never collide.
func ControlMasterPath(tmpDir, host string, port int, identityFile, localUsername string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s:%s", host, port, identityFile, localUsername)))
	digest := hex.EncodeToString(sum[:])[:16]
	return fmt.Sprintf("%s/mux-ssh-%s-%s.sock", tmpDir, localUsername, digest)
}
