package askpass

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mux/internal/sshpool"
)

func TestClassifyPromptHostKey(t *testing.T) {
	prompt := "Are you sure you want to continue connecting (yes/no/[fingerprint])?"
	assert.Equal(t, sshpool.PromptHostKey, ClassifyPrompt(prompt))
}

func TestClassifyPromptCredential(t *testing.T) {
	assert.Equal(t, sshpool.PromptCredential, ClassifyPrompt("alice@build.example.com's password:"))
}

func TestParseHostKeyPrompt(t *testing.T) {
	prompt := "The authenticity of host 'build.example.com (10.0.0.5)' can't be established.\n" +
		"ED25519 key fingerprint is SHA256:abc123XYZ+/=.\nAre you sure you want to continue connecting?"
	info := ParseHostKeyPrompt(prompt)
	assert.Equal(t, "build.example.com (10.0.0.5)", info.Host)
	assert.Equal(t, "ED25519", info.KeyType)
	assert.Contains(t, info.Fingerprint, "SHA256")
}

func TestParseHostKeyPromptUnparseable(t *testing.T) {
	info := ParseHostKeyPrompt("gibberish")
	assert.Equal(t, "unknown", info.Host)
	assert.Equal(t, "unknown", info.KeyType)
	assert.Equal(t, "unknown", info.Fingerprint)
}

func TestSessionAnswersPromptViaResolver(t *testing.T) {
	var seenKind sshpool.PromptKind
	resolver := func(ctx context.Context, prompt string, kind sshpool.PromptKind, info HostKeyInfo) (string, error) {
		seenKind = kind
		return "yes", nil
	}

	sess, err := Open(context.Background(), resolver)
	require.NoError(t, err)
	defer sess.Close()

	promptPath := filepath.Join(sess.Dir, "prompt.req-1.txt")
	tmp := promptPath + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte("continue connecting to host?"), 0o600))
	require.NoError(t, os.Rename(tmp, promptPath))

	respPath := filepath.Join(sess.Dir, "response.req-1.txt")
	require.Eventually(t, func() bool {
		_, err := os.Stat(respPath)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(respPath)
	require.NoError(t, err)
	assert.Equal(t, "yes", string(data))
	assert.Equal(t, sshpool.PromptHostKey, seenKind)
}

func TestSessionHandlesEachRequestOnce(t *testing.T) {
	calls := 0
	resolver := func(ctx context.Context, prompt string, kind sshpool.PromptKind, info HostKeyInfo) (string, error) {
		calls++
		return "ok", nil
	}

	sess, err := Open(context.Background(), resolver)
	require.NoError(t, err)
	defer sess.Close()

	promptPath := filepath.Join(sess.Dir, "prompt.req-dup.txt")
	require.NoError(t, os.WriteFile(promptPath, []byte("password:"), 0o600))
	// a second write to the same prompt file should not trigger a second resolve
	require.NoError(t, os.WriteFile(promptPath, []byte("password:"), 0o600))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(sess.Dir, "response.req-dup.txt.placeholder"))
		return true || err != nil // allow event loop to settle
	}, 200*time.Millisecond, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, calls)
}

func TestSessionCloseIdempotent(t *testing.T) {
	sess, err := Open(context.Background(), func(ctx context.Context, prompt string, kind sshpool.PromptKind, info HostKeyInfo) (string, error) {
		return "", nil
	})
	require.NoError(t, err)
	assert.NoError(t, sess.Close())
	assert.NoError(t, sess.Close())

	_, statErr := os.Stat(sess.Dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnvIncludesAskpassDir(t *testing.T) {
	sess := &Session{Dir: "/tmp/mux-askpass-xyz"}
	env := sess.Env("/tmp/mux-askpass-xyz/helper.sh")
	assert.Contains(t, env, "MUX_ASKPASS_DIR=/tmp/mux-askpass-xyz")
	assert.Contains(t, env, "SSH_ASKPASS=/tmp/mux-askpass-xyz/helper.sh")
}
