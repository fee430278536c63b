// Package audit provides an append-only, many-writer audit trail.
// Writers never block on disk I/O: entries are pushed onto a buffered
// channel and a single background goroutine drains them into storage.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/synapsestrike/tradeengine/model"
)

// Repo is the storage dependency audit writes through. store.AuditRepo
// satisfies it.
type Repo interface {
	Append(model.AuditEntry) error
}

// Logger accumulates audit entries off the hot path and drains them
// into Repo on a single background goroutine.
type Logger struct {
	repo    Repo
	entries chan model.AuditEntry
	stopCh  chan struct{}
	wg      sync.WaitGroup

	dropMu  sync.Mutex
	dropped int

	onWriteError func(error)
}

// New builds a Logger with the given channel buffer depth. A full
// buffer drops the incoming entry rather than blocking the caller —
// audit logging must never slow down order submission.
func New(repo Repo, bufferSize int, onWriteError func(error)) *Logger {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Logger{
		repo:         repo,
		entries:      make(chan model.AuditEntry, bufferSize),
		stopCh:       make(chan struct{}),
		onWriteError: onWriteError,
	}
}

// Start launches the background drain goroutine.
func (l *Logger) Start() {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case e := <-l.entries:
				l.write(e)
			case <-l.stopCh:
				l.drain()
				return
			}
		}
	}()
}

// drain flushes whatever is left in the channel before shutdown.
func (l *Logger) drain() {
	for {
		select {
		case e := <-l.entries:
			l.write(e)
		default:
			return
		}
	}
}

func (l *Logger) write(e model.AuditEntry) {
	if err := l.repo.Append(e); err != nil && l.onWriteError != nil {
		l.onWriteError(fmt.Errorf("audit: writing entry %s: %w", e.ID, err))
	}
}

// Stop signals the background goroutine to flush and exit, then waits
// for it.
func (l *Logger) Stop() {
	close(l.stopCh)
	l.wg.Wait()
}

// Log enqueues a new audit entry, stamping it with an ID and the
// current time. Non-blocking: if the buffer is full the entry is
// dropped and counted rather than stalling the caller.
func (l *Logger) Log(severity model.AuditSeverity, category model.AuditCategory, message string, ctx map[string]any, related *Related) {
	entry := model.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Severity:  severity,
		Category:  category,
		Message:   message,
		Context:   ctx,
	}
	if related != nil {
		entry.RelatedEntityID = &related.ID
		entry.RelatedEntityType = &related.Type
	}
	select {
	case l.entries <- entry:
	default:
		l.dropMu.Lock()
		l.dropped++
		l.dropMu.Unlock()
	}
}

// Related identifies the entity an audit entry is about (a trade,
// signal, or position).
type Related struct {
	ID   string
	Type string
}

// Dropped reports how many entries have been discarded due to buffer
// pressure since startup.
func (l *Logger) Dropped() int {
	l.dropMu.Lock()
	defer l.dropMu.Unlock()
	return l.dropped
}

// Info is a convenience wrapper for SeverityInfo entries.
func (l *Logger) Info(category model.AuditCategory, message string, ctx map[string]any) {
	l.Log(model.SeverityInfo, category, message, ctx, nil)
}

// Warn is a convenience wrapper for SeverityWarn entries.
func (l *Logger) Warn(category model.AuditCategory, message string, ctx map[string]any) {
	l.Log(model.SeverityWarn, category, message, ctx, nil)
}

// Error is a convenience wrapper for SeverityError entries.
func (l *Logger) Error(category model.AuditCategory, message string, ctx map[string]any) {
	l.Log(model.SeverityError, category, message, ctx, nil)
}

// Critical is a convenience wrapper for SeverityCritical entries, used
// for circuit-breaker trips and broker-authentication failures.
func (l *Logger) Critical(category model.AuditCategory, message string, ctx map[string]any) {
	l.Log(model.SeverityCritical, category, message, ctx, nil)
}
