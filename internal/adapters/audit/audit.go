// Package audit provides the append-only newline-delimited event stream
// recording every vote and reset. The file is never rewritten in place.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/logoduel/internal/domain/model"
	"github.com/okian/logoduel/pkg/logger"
	"github.com/okian/logoduel/pkg/metrics"
)

// Append and scan configuration constants.
const (
	filePerm      = 0o600
	maxLineLength = 1 << 20 // 1 MiB per event line
)

// Log is the append-only audit stream backed by one physical file.
type Log struct {
	path string
	mu   sync.Mutex
	log  logger.Logger
}

// NewLog creates an audit log at path with configuration options.
func NewLog(path string, opts ...Option) *Log {
	l := &Log{
		path: path,
		log:  logger.Get().Named("audit"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the stream location.
func (l *Log) Path() string { return l.path }

// NewRecord stamps an event with a fresh id and occurrence time.
func NewRecord(contestID string, event model.AuditEvent) model.AuditRecord {
	return model.AuditRecord{
		ID:         uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		ContestID:  contestID,
		Event:      event,
	}
}

// Append writes one record as a single line. The line goes out in one
// write call so concurrent logical operations interleave whole events,
// and the file is synced before returning.
func (l *Log) Append(ctx context.Context, rec model.AuditRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePerm)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync audit log: %w", err)
	}

	metrics.RecordAuditAppend()
	l.log.Debug(ctx, "audit event appended",
		logger.String("id", rec.ID),
		logger.String("type", string(rec.Event.Kind())),
		logger.String("contest", rec.ContestID),
	)
	return nil
}

// ReadAll returns every record in occurrence (file) order. Malformed lines
// are skipped with a warning; a missing file yields an empty slice.
func (l *Log) ReadAll(ctx context.Context) ([]model.AuditRecord, error) {
	return l.read(ctx, "")
}

// ReadContest returns the records for one contest in occurrence order
// without materializing other contests' events.
func (l *Log) ReadContest(ctx context.Context, contestID string) ([]model.AuditRecord, error) {
	return l.read(ctx, contestID)
}

func (l *Log) read(ctx context.Context, contestID string) ([]model.AuditRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []model.AuditRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec model.AuditRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			metrics.RecordAuditDecodeSkip()
			l.log.Warn(ctx, "skipping malformed audit line",
				logger.Int("line", line),
				logger.Error(err),
			)
			continue
		}
		if contestID != "" && rec.ContestID != contestID {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return records, nil
}
