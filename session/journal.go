package session

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voicedesk/voicedesk/types"
)

// Record is one journalled session, appended as a single JSON line.
type Record struct {
	SessionID       string          `json:"session_id"`
	StartedAt       time.Time       `json:"started_at"`
	DurationSeconds float64         `json:"duration_seconds"`
	Metrics         Metrics         `json:"metrics"`
	Conversation    []types.Message `json:"conversation"`
}

// Journal appends finished sessions to a JSONL file. Writes are best effort:
// a journal failure is logged and never propagated to the call path.
type Journal struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewJournal creates a journal writing to path.
func NewJournal(path string, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{
		path:   path,
		logger: logger.With(zap.String("component", "session_journal")),
	}
}

// Write appends the session's record. Call once, at disconnect.
func (j *Journal) Write(c *Context) {
	rec := Record{
		SessionID:       c.ID,
		StartedAt:       c.StartedAt,
		DurationSeconds: time.Since(c.StartedAt).Seconds(),
		Metrics:         c.SessionMetrics(),
		Conversation:    c.Transcript(),
	}

	line, err := json.Marshal(rec)
	if err != nil {
		j.logger.Warn("marshal session record failed",
			zap.String("session_id", c.ID),
			zap.Error(err))
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		j.logger.Warn("open session journal failed",
			zap.String("path", j.path),
			zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		j.logger.Warn("write session journal failed",
			zap.String("path", j.path),
			zap.Error(err))
	}
}
