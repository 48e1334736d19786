package pathresolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mux/internal/muxerr"
)

func TestResolve(t *testing.T) {
	ctx := HomeContext{
		CurrentUser: "deploy",
		Homes: map[string]string{
			"deploy": "/home/deploy",
			"alice":  "/home/alice",
		},
	}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "absolute passthrough", path: "/var/www", want: "/var/www"},
		{name: "bare tilde", path: "~/projects/foo", want: "/home/deploy/projects/foo"},
		{name: "tilde user", path: "~alice/code", want: "/home/alice/code"},
		{name: "windows backslashes", path: `~\projects\foo`, want: "/home/deploy/projects/foo"},
		{name: "bare tilde only", path: "~", want: "/home/deploy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.path, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUnknownHome(t *testing.T) {
	ctx := HomeContext{CurrentUser: "deploy"}
	_, err := Resolve("~/projects", ctx)
	require.Error(t, err)
	assert.Equal(t, muxerr.KindPathUnknownHome, muxerr.Classify(err))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/work/ws", Normalize(".", "/work/ws"))
	assert.Equal(t, "/work/ws/sub", Normalize("sub", "/work/ws"))
	assert.Equal(t, "/other", Normalize("/other", "/work/ws"))
	assert.Equal(t, "~/foo", Normalize("~/foo", "/work/ws"))
}

func TestMapHostPathToContainer(t *testing.T) {
	mapped, ok := MapHostPathToContainer("/home/deploy/ws/src/main.go", "/home/deploy/ws", "/workspace")
	require.True(t, ok)
	assert.Equal(t, "/workspace/src/main.go", mapped)

	_, ok = MapHostPathToContainer("/tmp/other", "/home/deploy/ws", "/workspace")
	assert.False(t, ok)
}

func TestQuoteForContainer(t *testing.T) {
	assert.Equal(t, `"$HOME/bin"`, QuoteForContainer("~/bin"))
	assert.Equal(t, `"$HOME"`, QuoteForContainer("~"))
	assert.Equal(t, "'/tmp/a b'", QuoteForContainer("/tmp/a b"))
}

func TestHasDriveLetterOrBackslash(t *testing.T) {
	assert.True(t, HasDriveLetterOrBackslash(`C:\Users\foo`))
	assert.True(t, HasDriveLetterOrBackslash(`foo\bar`))
	assert.False(t, HasDriveLetterOrBackslash("/home/deploy"))
}
