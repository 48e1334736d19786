// Package history implements the per-workspace append-only History Log:
// the committed message sequence plus its in-progress (partial.json)
// sidecar. The post-compaction.json sidecar in the same directory is written
// by the compaction package, not by this one. Every write is atomic
// (temp file, fsync, rename) so a crash mid-write never corrupts the log a
// concurrent reader observes.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mux/internal/workspace"
)

const (
	logFileName     = "history.json"
	partialFileName = "partial.json"
)

// Log is one workspace's history file, with in-memory caching of the
// decoded messages and the next sequence number to assign.
type Log struct {
	mu       sync.Mutex
	dir      string
	messages []workspace.Message
	nextSeq  int64
	loaded   bool
	now      func() int64
}

// New creates a Log rooted at dir (typically {muxHome}/workspaces/{id}).
func New(dir string) *Log {
	return &Log{dir: dir}
}

func (l *Log) logPath() string     { return filepath.Join(l.dir, logFileName) }
func (l *Log) partialPath() string { return filepath.Join(l.dir, partialFileName) }

func (l *Log) ensureLoaded() error {
	if l.loaded {
		return nil
	}
	raw, err := os.ReadFile(l.logPath())
	if os.IsNotExist(err) {
		l.messages = nil
		l.nextSeq = 1
		l.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("history: read log: %w", err)
	}

	var msgs []workspace.Message
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return fmt.Errorf("history: decode log: %w", err)
		}
	}

	l.messages = msgs
	l.nextSeq = deriveNextSeq(msgs)
	l.loaded = true
	return nil
}

// deriveNextSeq is 1 + the max valid (non-negative integer) historySequence
// across msgs, ignoring anything malformed rather than failing to load.
func deriveNextSeq(msgs []workspace.Message) int64 {
	var max int64 = 0
	for _, m := range msgs {
		if m.Metadata.HistorySequence >= 0 && m.Metadata.HistorySequence+1 > max {
			max = m.Metadata.HistorySequence + 1
		}
	}
	if max == 0 {
		return 1
	}
	return max
}

func (l *Log) persist() error {
	raw, err := json.Marshal(l.messages)
	if err != nil {
		return fmt.Errorf("history: encode log: %w", err)
	}
	return writeFileAtomic(l.logPath(), raw)
}

// writeFileAtomic writes data to a temp file in the same directory as path,
// fsyncs it, then renames it over path so readers never observe a partial
// write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// AppendToHistory assigns HistorySequence = nextSeq if the message doesn't
// already carry a non-negative sequence, advances nextSeq past whatever was
// assigned, and persists the log.
func (l *Log) AppendToHistory(msg workspace.Message) (workspace.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(); err != nil {
		return workspace.Message{}, err
	}

	if msg.Metadata.HistorySequence < 0 {
		msg.Metadata.HistorySequence = l.nextSeq
	}
	if msg.Metadata.HistorySequence+1 > l.nextSeq {
		l.nextSeq = msg.Metadata.HistorySequence + 1
	}

	l.messages = append(l.messages, msg)
	if err := l.persist(); err != nil {
		return workspace.Message{}, err
	}
	return msg, nil
}

// UpdateHistory replaces the message with matching ID in place, preserving
// its position in the log.
func (l *Log) UpdateHistory(msg workspace.Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(); err != nil {
		return err
	}

	for i := range l.messages {
		if l.messages[i].ID == msg.ID {
			l.messages[i] = msg
			return l.persist()
		}
	}
	return fmt.Errorf("history: message %s not found", msg.ID)
}

// ClearHistory empties the log and returns the sequence numbers that were
// removed, for the caller to emit as delete events.
func (l *Log) ClearHistory() ([]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}

	removed := make([]int64, 0, len(l.messages))
	for _, m := range l.messages {
		removed = append(removed, m.Metadata.HistorySequence)
	}
	l.messages = nil
	l.nextSeq = 1
	if err := l.persist(); err != nil {
		return nil, err
	}
	return removed, nil
}

// GetLastMessages returns up to n messages from the tail of the log, in
// history order.
func (l *Log) GetLastMessages(n int) ([]workspace.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(l.messages) {
		out := make([]workspace.Message, len(l.messages))
		copy(out, l.messages)
		return out, nil
	}
	out := make([]workspace.Message, n)
	copy(out, l.messages[len(l.messages)-n:])
	return out, nil
}

// PeekNextSequence returns the HistorySequence that would be assigned to the
// next appended message, without mutating the log.
func (l *Log) PeekNextSequence() (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(); err != nil {
		return 0, err
	}
	return l.nextSeq, nil
}

// SavePartial atomically writes the in-progress stream snapshot.
func (l *Log) SavePartial(msg workspace.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("history: encode partial: %w", err)
	}
	return writeFileAtomic(l.partialPath(), raw)
}

// DeletePartial idempotently removes the in-progress sidecar.
func (l *Log) DeletePartial() error {
	err := os.Remove(l.partialPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("history: delete partial: %w", err)
	}
	return nil
}
