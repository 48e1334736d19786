package sshconfig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
# comment, should be ignored
Host devbox
	HostName 10.0.0.5
	User alice
	Port 2222
	IdentityFile ~/.ssh/devbox_key

Host bastion-*
	User jump
	ProxyJump relay.example.com

Host *
	User defaultuser
`

func TestResolveExactHostStanza(t *testing.T) {
	r, err := Parse(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	alias, ok := r.Resolve("devbox")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.5", alias.HostName)
	assert.Equal(t, "alice", alias.User)
	assert.Equal(t, 2222, alias.Port)
	assert.True(t, strings.HasSuffix(alias.IdentityFile, "/.ssh/devbox_key"))
	assert.NotContains(t, alias.IdentityFile, "~")
}

func TestResolveWildcardPatternMatches(t *testing.T) {
	r, err := Parse(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	alias, ok := r.Resolve("bastion-east")
	require.True(t, ok)
	assert.Equal(t, "jump", alias.User)
	assert.Equal(t, "relay.example.com", alias.ProxyJump)
}

func TestResolveFallsBackToCatchAllStanza(t *testing.T) {
	r, err := Parse(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	alias, ok := r.Resolve("unlisted-host")
	require.True(t, ok, "the trailing Host * stanza should match everything")
	assert.Equal(t, "defaultuser", alias.User)
	assert.Equal(t, "unlisted-host", alias.HostName)
	assert.Equal(t, 22, alias.Port)
}

func TestResolveUnmatchedAliasDefaultsToLiteralName(t *testing.T) {
	r, err := Parse(strings.NewReader("Host devbox\n\tHostName 10.0.0.5\n"))
	require.NoError(t, err)

	alias, ok := r.Resolve("somethingelse")
	assert.False(t, ok)
	assert.Equal(t, "somethingelse", alias.HostName)
	assert.Equal(t, 22, alias.Port)
}

func TestParseAcceptsEqualsSyntax(t *testing.T) {
	r, err := Parse(strings.NewReader("Host eq\n\tHostName=10.0.0.9\n\tPort=2200\n"))
	require.NoError(t, err)

	alias, ok := r.Resolve("eq")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.9", alias.HostName)
	assert.Equal(t, 2200, alias.Port)
}

func TestFirstMatchingStanzaWinsPerField(t *testing.T) {
	cfg := `
Host devbox
	User first

Host devbox
	User second
	Port 2201
`
	r, err := Parse(strings.NewReader(cfg))
	require.NoError(t, err)

	alias, ok := r.Resolve("devbox")
	require.True(t, ok)
	assert.Equal(t, "first", alias.User, "earlier stanza's field wins over a later match")
	assert.Equal(t, 2201, alias.Port, "a field absent from the earlier stanza falls through to a later match")
}

func TestLoadMissingFileYieldsEmptyResolver(t *testing.T) {
	r, err := Load("/nonexistent/path/to/ssh/config")
	require.NoError(t, err)

	alias, ok := r.Resolve("anything")
	assert.False(t, ok)
	assert.Equal(t, "anything", alias.HostName)
}

func TestValidateAliasNameRejectsSpaces(t *testing.T) {
	assert.NoError(t, ValidateAliasName("devbox"))
	assert.Error(t, ValidateAliasName("dev box"))
	assert.Error(t, ValidateAliasName(""))
}
