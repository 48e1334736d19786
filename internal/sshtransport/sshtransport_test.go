package sshtransport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControlMasterPathDeterministic(t *testing.T) {
	a := ControlMasterPath("/tmp", "build.example.com", 22, "default", "alice")
	b := ControlMasterPath("/tmp", "build.example.com", 22, "default", "alice")
	assert.Equal(t, a, b)
}

func TestControlMasterPathDiffersByHost(t *testing.T) {
	a := ControlMasterPath("/tmp", "host-a", 22, "default", "alice")
	b := ControlMasterPath("/tmp", "host-b", 22, "default", "alice")
	assert.NotEqual(t, a, b)
}

func TestControlMasterPathScopedByLocalUser(t *testing.T) {
	a := ControlMasterPath("/tmp", "host", 22, "default", "alice")
	b := ControlMasterPath("/tmp", "host", 22, "default", "bob")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "alice")
	assert.Contains(t, b, "bob")
}

func TestHostKeyCallbackForHeadlessFallbackIgnoresHostKey(t *testing.T) {
	cb := HostKeyCallbackFor(HostKeyModeHeadlessFallback, nil)
	assert.NoError(t, cb("host", nil, nil))
}
