// Package parser turns a conversation log into a models.ConversationRecord.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/internal/extract"
	"github.com/neilberkman/ccsearch/internal/logging"
	"github.com/neilberkman/ccsearch/internal/models"
)

const (
	// LogExt is the file extension of conversation logs.
	LogExt = ".jsonl"

	summaryMaxRunes = 50
)

// Parser converts raw log lines into conversation records
type Parser struct {
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger used to report skipped lines.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) { p.logger = logging.OrNop(l) }
}

// WithClock overrides the source of "now" used for fallback timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// New creates a new parser
func New(opts ...Option) *Parser {
	p := &Parser{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ConversationID derives a conversation's identifier from its log file name.
func ConversationID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), LogExt)
}

// ParseFile opens and parses one log file. A missing file is reported as
// models.ErrNotFound.
func (p *Parser) ParseFile(ctx context.Context, path, projectID string) (*models.ConversationRecord, error) {
	id := ConversationID(path)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("conversation %q: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open conversation %q: %w", id, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			p.logger.Warn("failed to close log file", zap.String("file", path), zap.Error(err))
		}
	}()

	return p.Parse(ctx, file, id, projectID)
}

// Parse reads every line of r. Lines that fail to decode are logged and
// skipped; only a read error on r itself fails the parse.
func (p *Parser) Parse(ctx context.Context, r io.Reader, conversationID, projectID string) (*models.ConversationRecord, error) {
	rec := &models.ConversationRecord{
		ID:        conversationID,
		ProjectID: projectID,
		Messages:  make([]models.Message, 0),
	}

	var (
		summary   summaryTracker
		sidechain sidechainDepth
		seenUUIDs = make(map[string]struct{})
	)

	err := ForEachLine(ctx, r, func(lineNo int, line []byte) error {
		record, err := DecodeLine(line)
		if err != nil {
			rec.MalformedLines++
			p.logger.Debug("skipping malformed log line",
				zap.String("conversation", conversationID),
				zap.Int("line", lineNo),
				zap.Error(err),
			)
			return nil
		}

		summary.observe(record)

		switch record.Type {
		case RecordSidechainStart:
			sidechain.enter()
		case RecordSidechainEnd:
			sidechain.leave()
		case RecordUser, RecordAssistant, RecordSystem:
			msg := models.Message{
				UUID:        uniqueUUID(record.UUID, conversationID, lineNo, seenUUIDs),
				ParentUUID:  record.ParentUUID,
				Timestamp:   record.Timestamp,
				Role:        record.Role,
				IsSidechain: sidechain.active() || record.IsSidechain,
				Content:     record.Content,
				Model:       record.Model,
				Usage:       record.Usage,
			}
			rec.Messages = append(rec.Messages, msg)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation %q: %w", conversationID, err)
	}

	if rec.MalformedLines > 0 {
		p.logger.Info("skipped malformed lines",
			zap.String("conversation", conversationID),
			zap.Int("count", rec.MalformedLines),
		)
	}

	rec.MessageCount = len(rec.Messages)
	rec.Summary = p.resolveSummary(summary, rec)
	rec.LastUpdated = p.resolveLastUpdated(summary, rec)
	return rec, nil
}

// uniqueUUID keeps message identifiers unique within a conversation. Records
// without a uuid get one derived from their line number.
func uniqueUUID(uuid, conversationID string, lineNo int, seen map[string]struct{}) string {
	if uuid == "" {
		uuid = fmt.Sprintf("%s:%d", conversationID, lineNo)
	}
	if _, dup := seen[uuid]; dup {
		uuid = fmt.Sprintf("%s#%d", uuid, lineNo)
	}
	seen[uuid] = struct{}{}
	return uuid
}

// resolveSummary returns the recorded summary, or synthesizes one from the
// first user message that has text.
func (p *Parser) resolveSummary(s summaryTracker, rec *models.ConversationRecord) models.Summary {
	if s.found && strings.TrimSpace(s.text) != "" {
		return models.Summary{Text: s.text, Timestamp: s.timestamp}
	}

	for _, msg := range rec.Messages {
		if msg.Role != models.RoleUser {
			continue
		}
		text := strings.Join(strings.Fields(extract.Text(msg)), " ")
		if text == "" {
			continue
		}
		ts := msg.Timestamp
		if ts.IsZero() {
			ts = p.now()
		}
		return models.Summary{
			Text:        extract.Truncate(text, summaryMaxRunes),
			Timestamp:   ts,
			Synthesized: true,
		}
	}

	return models.Summary{
		Text:        fallbackTitle(rec.ID),
		Timestamp:   p.now(),
		Synthesized: true,
	}
}

// resolveLastUpdated picks the recorded summary timestamp, then the final
// message's timestamp, then now.
func (p *Parser) resolveLastUpdated(s summaryTracker, rec *models.ConversationRecord) time.Time {
	if s.found && !s.timestamp.IsZero() {
		return s.timestamp
	}
	for i := len(rec.Messages) - 1; i >= 0; i-- {
		if ts := rec.Messages[i].Timestamp; !ts.IsZero() {
			return ts
		}
	}
	return p.now()
}

func fallbackTitle(conversationID string) string {
	short := conversationID
	if len(short) > 8 {
		short = short[:8]
	}
	if short == "" {
		return "Untitled session"
	}
	return "Session " + short
}
