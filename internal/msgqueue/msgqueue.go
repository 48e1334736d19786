// Package msgqueue coalesces messages a frontend sends while a workspace's
// stream is already active, so they land as one user turn once the stream
// finishes instead of racing it.
package msgqueue

import (
	"fmt"
	"strings"
	"sync"

	"mux/internal/muxerr"
	"mux/internal/workspace"
)

// Options carries the per-add, overwritable knobs (model selection, etc.)
// a frontend attaches to a send.
type Options struct {
	Model string
}

// Queue accumulates text, images, and a preserved-first compaction tag
// while a stream is in flight.
type Queue struct {
	mu sync.Mutex

	texts          []string
	images         []workspace.Part
	firstMuxMeta   *workspace.MuxMetadata
	latestOptions  Options
	hasContent     bool
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Add appends one pending send. Empty text with no images is ignored. The
// first non-nil muxMetadata across adds is preserved; latestOptions is
// always overwritten with the most recent add's options.
func (q *Queue) Add(text string, images []workspace.Part, muxMeta *workspace.MuxMetadata, opts Options) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if strings.TrimSpace(text) == "" && len(images) == 0 {
		return nil
	}

	if muxMeta != nil && muxMeta.Type == workspace.MuxMetadataCompactionRequest && q.hasContent {
		return muxerr.New(muxerr.KindCompactionBusy, "msgqueue: compaction_busy")
	}

	if text != "" {
		q.texts = append(q.texts, text)
	}
	q.images = append(q.images, images...)
	if q.firstMuxMeta == nil {
		q.firstMuxMeta = muxMeta
	}
	q.latestOptions = opts
	q.hasContent = true

	return nil
}

// GetDisplayText returns what a frontend should show as "what's queued":
// the raw command if the only thing queued is a single compaction request,
// otherwise every queued text joined with newlines.
func (q *Queue) GetDisplayText() string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.firstMuxMeta != nil && q.firstMuxMeta.Type == workspace.MuxMetadataCompactionRequest && len(q.texts) == 1 {
		return q.texts[0]
	}
	return strings.Join(q.texts, "\n")
}

// ProducedMessage is what ProduceMessage returns: the joined text, the
// options from the most recent add, the preserved first muxMetadata, and
// every accumulated image part.
type ProducedMessage struct {
	Text        string
	Options     Options
	MuxMetadata *workspace.MuxMetadata
	Images      []workspace.Part
}

// ProduceMessage flattens the queue into a single outgoing user message. It
// does not clear the queue; callers call Clear once the message has been
// durably appended.
func (q *Queue) ProduceMessage() ProducedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	return ProducedMessage{
		Text:        strings.Join(q.texts, "\n"),
		Options:     q.latestOptions,
		MuxMetadata: q.firstMuxMeta,
		Images:      append([]workspace.Part(nil), q.images...),
	}
}

// Clear resets all accumulated state.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.texts = nil
	q.images = nil
	q.firstMuxMeta = nil
	q.latestOptions = Options{}
	q.hasContent = false
}

// IsEmpty reports whether anything is queued.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.hasContent
}
