package sshtransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

// HostKeyCallbackFor builds an ssh.HostKeyCallback for the configured mode,
// falling back to ssh.InsecureIgnoreHostKey only in headless-fallback mode.
func HostKeyCallbackFor(mode HostKeyMode, known ssh.HostKeyCallback) ssh.HostKeyCallback {
	if mode == HostKeyModeHeadlessFallback {
		return ssh.InsecureIgnoreHostKey()
	}
	if known != nil {
		return known
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		return fmt.Errorf("sshtransport: no known-hosts callback to verify %s in strict host key mode", hostname)
	}
}

// LibraryTransport drives golang.org/x/crypto/ssh directly in-process,
// holding one multiplexed *ssh.Client open across calls. Used on Windows,
// or wherever an OpenSSH binary cannot be assumed present.
type LibraryTransport struct {
	client *ssh.Client
}

// DialLibrary opens the underlying ssh.Client. hostPort is "host:port".
func DialLibrary(ctx context.Context, hostPort string, config *ssh.ClientConfig) (*LibraryTransport, error) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", hostPort)
	if err != nil {
		return nil, fmt.Errorf("sshtransport: dial %s: %w", hostPort, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, hostPort, config)
	if err != nil {
		return nil, fmt.Errorf("sshtransport: handshake %s: %w", hostPort, err)
	}
	return &LibraryTransport{client: ssh.NewClient(c, chans, reqs)}, nil
}

type libraryExecStream struct {
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
	stderr  io.Reader
	done    chan error
	start   time.Time
}

func (s *libraryExecStream) Stdin() io.WriteCloser { return s.stdin }
func (s *libraryExecStream) Stdout() io.Reader     { return s.stdout }
func (s *libraryExecStream) Stderr() io.Reader     { return s.stderr }

func (s *libraryExecStream) Wait() (int, time.Duration, error) {
	err := <-s.done
	duration := time.Since(s.start)
	code := 0
	if exitErr, ok := err.(*ssh.ExitError); ok {
		code = exitErr.ExitStatus()
		err = nil
	}
	s.session.Close()
	return code, duration, err
}

func (t *LibraryTransport) Exec(ctx context.Context, command string, opts ExecOptions) (ExecStream, error) {
	session, err := t.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("sshtransport: new session: %w", err)
	}

	if opts.ForcePTY {
		if err := session.RequestPty("xterm", 80, 40, ssh.TerminalModes{}); err != nil {
			session.Close()
			return nil, fmt.Errorf("sshtransport: request pty: %w", err)
		}
	}
	for k, v := range opts.Env {
		if err := session.Setenv(k, v); err != nil {
			continue // remote sshd may reject unlisted AcceptEnv vars; not fatal
		}
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("sshtransport: stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("sshtransport: stdout pipe: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("sshtransport: stderr pipe: %w", err)
	}

	full := command
	if opts.Cwd != "" {
		full = fmt.Sprintf("cd %s && %s", shellQuote(opts.Cwd), command)
	}

	start := time.Now()
	done := make(chan error, 1)
	if err := session.Start(full); err != nil {
		session.Close()
		return nil, fmt.Errorf("sshtransport: start command: %w", err)
	}
	go func() { done <- session.Wait() }()

	return &libraryExecStream{session: session, stdin: stdin, stdout: stdout, stderr: stderr, done: done, start: start}, nil
}

func (t *LibraryTransport) ReadFile(ctx context.Context, path string) (io.ReadCloser, error) {
	stream, err := t.Exec(ctx, "cat "+shellQuote(path), ExecOptions{})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(stream.Stdout()), nil
}

func (t *LibraryTransport) WriteFile(ctx context.Context, path string, r io.Reader) error {
	stream, err := t.Exec(ctx, "cat > "+shellQuote(path), ExecOptions{})
	if err != nil {
		return err
	}
	if _, err := io.Copy(stream.Stdin(), r); err != nil {
		return fmt.Errorf("sshtransport: write file: %w", err)
	}
	stream.Stdin().Close()
	code, _, err := stream.Wait()
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("sshtransport: remote write failed with exit code %d", code)
	}
	return nil
}

func (t *LibraryTransport) Stat(ctx context.Context, path string) (FileStat, error) {
	stream, err := t.Exec(ctx, fmt.Sprintf("stat -c '%%s %%F' %s", shellQuote(path)), ExecOptions{})
	if err != nil {
		return FileStat{}, err
	}
	var buf bytes.Buffer
	io.Copy(&buf, stream.Stdout())
	stream.Wait()

	var size int64
	var kind string
	if _, err := fmt.Sscanf(buf.String(), "%d %s", &size, &kind); err != nil {
		return FileStat{}, fmt.Errorf("sshtransport: unexpected stat output %q", buf.String())
	}
	return FileStat{Size: size, IsDir: kind == "directory"}, nil
}

func (t *LibraryTransport) ResolvePath(ctx context.Context, path string) (string, error) {
	stream, err := t.Exec(ctx, "readlink -f "+shellQuote(path)+" 2>/dev/null || echo "+shellQuote(path), ExecOptions{})
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	io.Copy(&buf, stream.Stdout())
	stream.Wait()
	result := buf.String()
	for len(result) > 0 && (result[len(result)-1] == '\n' || result[len(result)-1] == '\r') {
		result = result[:len(result)-1]
	}
	return result, nil
}

func (t *LibraryTransport) Close() error {
	return t.client.Close()
}
