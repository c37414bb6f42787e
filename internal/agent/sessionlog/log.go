// Package sessionlog is the append-only, ordered record of one chat session.
package sessionlog

import (
	"context"
	"sync"

	"github.com/hydrochat-core/server/internal/agent/model"
	logx "github.com/hydrochat-core/server/pkg/logger"
)

// Sink receives every appended record, in append order.
type Sink interface {
	Publish(ctx context.Context, record model.SessionRecord) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, record model.SessionRecord) error

func (f SinkFunc) Publish(ctx context.Context, record model.SessionRecord) error {
	return f(ctx, record)
}

// Log never removes or reorders records. Appends and sink fan-out happen
// under one lock so sinks observe the same order as readers.
type Log struct {
	mu      sync.RWMutex
	pubMu   sync.Mutex
	records []model.SessionRecord
	sinks   []Sink
}

func New(sinks ...Sink) *Log {
	return &Log{sinks: sinks}
}

// AddSink registers a sink for records appended from now on.
func (l *Log) AddSink(s Sink) {
	l.pubMu.Lock()
	defer l.pubMu.Unlock()
	l.sinks = append(l.sinks, s)
}

// Append adds a record and publishes it. Sink failures are logged and never
// fail the append.
func (l *Log) Append(ctx context.Context, record model.SessionRecord) int {
	l.pubMu.Lock()
	defer l.pubMu.Unlock()

	l.mu.Lock()
	l.records = append(l.records, record)
	n := len(l.records)
	l.mu.Unlock()

	for _, s := range l.sinks {
		if err := s.Publish(ctx, record); err != nil {
			logx.Warn().
				Err(err).
				Str("turn_id", record.TurnID()).
				Str("role", string(record.Role())).
				Msg("Session sink failed to publish record")
		}
	}
	return n
}

// Records returns a copy of the whole log.
func (l *Log) Records() []model.SessionRecord {
	return l.Since(0)
}

// Since returns a copy of the records at index n and later.
func (l *Log) Since(n int) []model.SessionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n >= len(l.records) {
		return nil
	}
	out := make([]model.SessionRecord, len(l.records)-n)
	copy(out, l.records[n:])
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
