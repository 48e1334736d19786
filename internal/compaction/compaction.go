// Package compaction implements the Compaction Engine: detecting a
// compaction-request/stream-end pair, validating the produced summary,
// committing it as a boundary message, and tracking the file-edit diffs it
// subsumed so a later consumer can replay them exactly once.
package compaction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mux/internal/history"
	"mux/internal/workspace"
	"mux/pkg/logging"
)

const pendingDiffsFileName = "post-compaction.json"

// FileDiff is one file-edit tool's recorded change.
type FileDiff struct {
	Path string `json:"path"`
	Diff string `json:"diff"`
}

// PendingDiffSnapshot is the post-compaction.json sidecar contract.
type PendingDiffSnapshot struct {
	Version int        `json:"version"`
	Diffs   []FileDiff `json:"diffs"`
}

// StreamEndEvent is the subset of a stream-end event the engine needs: the
// rendered parts (to extract summary text and tool outputs from) and any
// provider-reported usage/contextUsage.
type StreamEndEvent struct {
	MessageID    string
	Parts        []workspace.Part
	ContextUsage *int
	Usage        *workspace.TokenUsage
	// SystemMessageTokens is the token count of the system message sent
	// with the request; it is added to the derived contextUsage.
	SystemMessageTokens int
}

// Source ∈ {user, idle}; "user" is an explicit `/compact`, "idle" is
// triggered by the system when a workspace goes quiet.
type Source = workspace.CompactedBy

// Engine commits compactions for one workspace. A process typically keeps
// one Engine per open workspace.
type Engine struct {
	mu            sync.Mutex
	log           *history.Log
	dir           string
	processedReqs map[string]bool
	now           func() time.Time
}

// New creates an Engine operating against log, whose sidecar files live in
// dir (the same directory the History Log itself uses).
func New(log *history.Log, dir string) *Engine {
	return &Engine{
		log:           log,
		dir:           dir,
		processedReqs: make(map[string]bool),
		now:           time.Now,
	}
}

// NewWithNow is the test seam variant of New.
func NewWithNow(log *history.Log, dir string, now func() time.Time) *Engine {
	e := New(log, dir)
	e.now = now
	return e
}

func (e *Engine) sidecarPath() string {
	return filepath.Join(e.dir, pendingDiffsFileName)
}

// Compact runs detection, validation, and commit for ev. Returns true if
// ev was (or had already been) processed as a compaction; false if it is
// not a compaction at all or failed validation.
func (e *Engine) Compact(ev StreamEndEvent, source Source) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	last10, err := e.log.GetLastMessages(10)
	if err != nil {
		return false, err
	}

	req := lastUserMessage(last10)
	if req == nil || req.Metadata.MuxMetadata == nil || req.Metadata.MuxMetadata.Type != workspace.MuxMetadataCompactionRequest {
		return false, nil
	}

	if e.processedReqs[req.ID] {
		return true, nil
	}

	summary := joinText(ev.Parts)
	if !validSummary(summary) {
		return false, nil
	}

	if err := e.commit(ev, last10, source); err != nil {
		e.removePendingDiffsBestEffort()
		return false, err
	}

	e.processedReqs[req.ID] = true
	return true, nil
}

func lastUserMessage(msgs []workspace.Message) *workspace.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == workspace.RoleUser {
			return &msgs[i]
		}
	}
	return nil
}

func joinText(parts []workspace.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Kind == workspace.PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// validSummary rejects an empty trimmed string and anything that parses as
// a top-level JSON object (a likely leaked tool-call payload). JSON arrays
// and prose that merely embeds JSON substrings are accepted.
func validSummary(summary string) bool {
	trimmed := strings.TrimSpace(summary)
	if trimmed == "" {
		return false
	}
	var obj map[string]interface{}
	if json.Unmarshal([]byte(trimmed), &obj) == nil {
		return false
	}
	return true
}

func (e *Engine) commit(ev StreamEndEvent, last10 []workspace.Message, source Source) error {
	if err := e.log.DeletePartial(); err != nil {
		return err
	}

	full, err := e.log.GetLastMessages(0)
	if err != nil {
		return err
	}

	diffs := extractEpochDiffs(full)
	if err := writeJSONAtomic(e.sidecarPath(), PendingDiffSnapshot{Version: 1, Diffs: diffs}); err != nil {
		return err
	}

	nextEpoch := nextCompactionEpoch(full)
	timestamp := e.computeTimestamp(full, source)
	contextUsage := computeContextUsage(ev)

	summaryMsg := workspace.Message{
		ID:   ev.MessageID,
		Role: workspace.RoleAssistant,
		Parts: []workspace.Part{
			{Kind: workspace.PartText, Text: joinText(ev.Parts)},
		},
		Metadata: workspace.Metadata{
			Timestamp:          timestamp,
			HistorySequence:    -1, // assigned by AppendToHistory/nextSeq derivation
			Compacted:          source,
			CompactionBoundary: true,
			CompactionEpoch:    nextEpoch,
			ContextUsage:       contextUsage,
			MuxMetadata:        &workspace.MuxMetadata{Type: workspace.MuxMetadataCompactionSummary},
		},
	}

	if reuseInPlace(full, ev.MessageID) {
		summaryMsg.Metadata.HistorySequence = lastMessageSeq(full)
		if err := e.log.UpdateHistory(summaryMsg); err != nil {
			return err
		}
	} else {
		if _, err := e.log.AppendToHistory(summaryMsg); err != nil {
			return err
		}
	}

	logging.Info("compaction", "workspace compaction committed epoch=%d source=%s tokens~%d",
		nextEpoch, source, roundToPowerOfTwo(approxTokens(ev)))

	return nil
}

func reuseInPlace(full []workspace.Message, outgoingID string) bool {
	if len(full) == 0 {
		return false
	}
	return full[len(full)-1].ID == outgoingID
}

func lastMessageSeq(full []workspace.Message) int64 {
	if len(full) == 0 {
		return 0
	}
	return full[len(full)-1].Metadata.HistorySequence
}

// extractEpochDiffs collects every successful file_edit_* tool output
// strictly after the latest well-formed compaction boundary, preserving
// order.
func extractEpochDiffs(full []workspace.Message) []FileDiff {
	boundaryIdx := -1
	for i := len(full) - 1; i >= 0; i-- {
		m := full[i]
		if isWellFormedBoundary(m.Metadata) {
			boundaryIdx = i
			break
		}
	}

	var diffs []FileDiff
	for i, m := range full {
		if i <= boundaryIdx {
			continue
		}
		for _, p := range m.Parts {
			if p.Kind != workspace.PartToolCall || p.State != workspace.ToolCallOutputAvailable {
				continue
			}
			if !strings.HasPrefix(p.ToolName, "file_edit_") {
				continue
			}
			path, diff, ok := asFileEditResult(p.Result)
			if ok {
				diffs = append(diffs, FileDiff{Path: path, Diff: diff})
			}
		}
	}
	return diffs
}

func asFileEditResult(result interface{}) (path, diff string, ok bool) {
	m, isMap := result.(map[string]interface{})
	if !isMap {
		return "", "", false
	}
	p, _ := m["path"].(string)
	d, _ := m["diff"].(string)
	if p == "" {
		return "", "", false
	}
	return p, d, true
}

func isWellFormedBoundary(md workspace.Metadata) bool {
	return md.CompactionBoundary &&
		(md.Compacted == workspace.CompactedUser || md.Compacted == workspace.CompactedIdle) &&
		md.CompactionEpoch >= 1
}

// nextCompactionEpoch is 1 + the max epoch over well-formed boundaries in
// full history; legacy messages carrying only compacted="user" without
// boundary flags count as epoch 1 contributions so their presence is never
// silently dropped.
func nextCompactionEpoch(full []workspace.Message) int {
	max := 0
	for _, m := range full {
		if isWellFormedBoundary(m.Metadata) {
			if m.Metadata.CompactionEpoch > max {
				max = m.Metadata.CompactionEpoch
			}
		} else if m.Metadata.Compacted == workspace.CompactedUser {
			if max < 1 {
				max = 1
			}
		}
	}
	return max + 1
}

func (e *Engine) computeTimestamp(full []workspace.Message, source Source) time.Time {
	if source != workspace.CompactedIdle {
		return e.now()
	}

	var lastNonRequestUser, lastCompactedAssistant time.Time
	for _, m := range full {
		if m.Role == workspace.RoleUser {
			if m.Metadata.MuxMetadata == nil || m.Metadata.MuxMetadata.Type != workspace.MuxMetadataCompactionRequest {
				if m.Metadata.Timestamp.After(lastNonRequestUser) {
					lastNonRequestUser = m.Metadata.Timestamp
				}
			}
		}
		if m.Role == workspace.RoleAssistant && m.Metadata.Compacted != workspace.CompactedAbsent {
			if m.Metadata.Timestamp.After(lastCompactedAssistant) {
				lastCompactedAssistant = m.Metadata.Timestamp
			}
		}
	}

	latest := lastNonRequestUser
	if lastCompactedAssistant.After(latest) {
		latest = lastCompactedAssistant
	}
	if latest.IsZero() {
		return e.now()
	}
	return latest
}

// computeContextUsage prefers the event's own contextUsage; otherwise
// derives outputTokens - reasoningTokens + systemMessageTokens, omitting a
// negative result.
func computeContextUsage(ev StreamEndEvent) *int {
	if ev.ContextUsage != nil {
		return ev.ContextUsage
	}
	if ev.Usage == nil {
		return nil
	}
	derived := ev.Usage.OutputTokens - ev.Usage.ReasoningTokens + ev.SystemMessageTokens
	if derived < 0 {
		return nil
	}
	return &derived
}

func approxTokens(ev StreamEndEvent) int {
	if ev.Usage == nil {
		return 0
	}
	return ev.Usage.OutputTokens
}

func roundToPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (e *Engine) removePendingDiffsBestEffort() {
	_ = os.Remove(e.sidecarPath())
}

func writeJSONAtomic(path string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("compaction: encode %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// PeekPendingDiffs reads the sidecar without consuming it.
func (e *Engine) PeekPendingDiffs() (*PendingDiffSnapshot, error) {
	raw, err := os.ReadFile(e.sidecarPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap PendingDiffSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("compaction: decode pending diffs: %w", err)
	}
	return &snap, nil
}

// AckPendingDiffsConsumed atomically removes the sidecar. Only this call
// removes it; a process restart preserves it so a missed consumer can
// still catch up.
func (e *Engine) AckPendingDiffsConsumed() error {
	err := os.Remove(e.sidecarPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
