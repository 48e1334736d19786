package msgqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mux/internal/workspace"
)

func TestAddIgnoresEmpty(t *testing.T) {
	q := New()
	require.NoError(t, q.Add("", nil, nil, Options{}))
	assert.True(t, q.IsEmpty())
}

func TestAddCoalescesText(t *testing.T) {
	q := New()
	require.NoError(t, q.Add("first", nil, nil, Options{Model: "a"}))
	require.NoError(t, q.Add("second", nil, nil, Options{Model: "b"}))

	produced := q.ProduceMessage()
	assert.Equal(t, "first\nsecond", produced.Text)
	assert.Equal(t, "b", produced.Options.Model)
}

func TestFirstMuxMetadataPreserved(t *testing.T) {
	q := New()
	first := &workspace.MuxMetadata{Type: workspace.MuxMetadataNormal}
	require.NoError(t, q.Add("a", nil, first, Options{}))
	require.NoError(t, q.Add("b", nil, &workspace.MuxMetadata{Type: workspace.MuxMetadataCompactionSummary}, Options{}))

	produced := q.ProduceMessage()
	require.NotNil(t, produced.MuxMetadata)
	assert.Equal(t, workspace.MuxMetadataNormal, produced.MuxMetadata.Type)
}

func TestCompactionRequestRejectedWhenQueueNonEmpty(t *testing.T) {
	q := New()
	require.NoError(t, q.Add("pending text", nil, nil, Options{}))

	err := q.Add("/compact", nil, &workspace.MuxMetadata{Type: workspace.MuxMetadataCompactionRequest}, Options{})
	assert.Error(t, err)
}

func TestDisplayTextForSoloCompactionRequest(t *testing.T) {
	q := New()
	require.NoError(t, q.Add("/compact", nil, &workspace.MuxMetadata{Type: workspace.MuxMetadataCompactionRequest}, Options{}))
	assert.Equal(t, "/compact", q.GetDisplayText())
}

func TestImagesAccumulate(t *testing.T) {
	q := New()
	img1 := workspace.Part{Kind: workspace.PartImage, ImageURL: "a.png"}
	img2 := workspace.Part{Kind: workspace.PartImage, ImageURL: "b.png"}
	require.NoError(t, q.Add("", []workspace.Part{img1}, nil, Options{}))
	require.NoError(t, q.Add("", []workspace.Part{img2}, nil, Options{}))

	produced := q.ProduceMessage()
	assert.Len(t, produced.Images, 2)
}

func TestClearResetsState(t *testing.T) {
	q := New()
	require.NoError(t, q.Add("a", nil, nil, Options{}))
	q.Clear()
	assert.True(t, q.IsEmpty())
	assert.Equal(t, "", q.GetDisplayText())
}
