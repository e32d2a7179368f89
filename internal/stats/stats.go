// Package stats computes usage statistics by streaming raw conversation logs
// once, without building a searchable index.
package stats

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/internal/logging"
	"github.com/neilberkman/ccsearch/internal/models"
	"github.com/neilberkman/ccsearch/internal/parser"
)

const dayLayout = "2006-01-02"

// Aggregator computes project and conversation statistics
type Aggregator struct {
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// Option configures an Aggregator
type Option func(*Aggregator)

func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = logging.OrNop(l) }
}

// WithLocation sets the time zone used for the hourly and daily histograms.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) { a.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator creates an aggregator bucketing activity in local time.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		logger: zap.NewNop(),
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Project aggregates every log in files. Files that cannot be read are logged
// and skipped; files without any message records do not count as
// conversations.
func (a *Aggregator) Project(ctx context.Context, projectID string, files []string) (*models.ProjectStats, error) {
	b := newBuilder(a.loc)
	out := &models.ProjectStats{ProjectID: projectID}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileBuilder := newBuilder(a.loc)
		if err := a.scanFile(ctx, path, fileBuilder); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.logger.Warn("skipping unreadable log", zap.String("file", path), zap.Error(err))
			continue
		}
		b.merge(fileBuilder)

		messages := fileBuilder.counters.TotalMessages
		if messages == 0 {
			continue
		}
		out.TotalConversations++
		if messages > out.LongestConversation.MessageCount {
			out.LongestConversation = models.ConversationLength{
				ConversationID: parser.ConversationID(path),
				MessageCount:   messages,
			}
		}
	}

	out.Counters = b.publish()
	out.MostActiveDay = mostActiveDay(out.DailyActivity)
	out.ComputedAt = a.now()
	return out, nil
}

// Conversation aggregates a single log file. A missing file is reported as
// models.ErrNotFound.
func (a *Aggregator) Conversation(ctx context.Context, path, projectID string) (*models.ConversationStats, error) {
	b := newBuilder(a.loc)
	id := parser.ConversationID(path)
	if err := a.scanFile(ctx, path, b); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("conversation %q: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to aggregate conversation %q: %w", id, err)
	}

	out := &models.ConversationStats{
		Counters:       b.publish(),
		ConversationID: id,
		ProjectID:      projectID,
		Models:         b.models,
	}
	out.MostActiveDay = mostActiveDay(out.DailyActivity)
	if !out.FirstActivity.IsZero() {
		out.Duration = out.LastActivity.Sub(out.FirstActivity)
	}
	return out, nil
}

func (a *Aggregator) scanFile(ctx context.Context, path string, b *builder) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); err != nil {
			a.logger.Warn("failed to close log file", zap.String("file", path), zap.Error(err))
		}
	}()

	return parser.ForEachLine(ctx, file, func(lineNo int, line []byte) error {
		rec, err := parser.DecodeLine(line)
		if err != nil {
			b.counters.MalformedLines++
			a.logger.Debug("skipping malformed log line",
				zap.String("file", path),
				zap.Int("line", lineNo),
				zap.Error(err),
			)
			return nil
		}
		if rec.Type.IsMessage() {
			b.add(rec)
		}
		return nil
	})
}

// builder accumulates counters privately until publish.
type builder struct {
	loc      *time.Location
	counters models.Counters
	models   map[string]int
}

func newBuilder(loc *time.Location) *builder {
	return &builder{
		loc: loc,
		counters: models.Counters{
			MessagesByRole: make(map[models.Role]int),
			ToolUsage:      make(map[string]int),
			DailyActivity:  make(map[string]int),
		},
		models: make(map[string]int),
	}
}

func (b *builder) add(rec parser.Record) {
	c := &b.counters
	c.TotalMessages++
	c.MessagesByRole[rec.Role]++

	if !rec.Timestamp.IsZero() {
		ts := rec.Timestamp.In(b.loc)
		c.HourlyActivity[ts.Hour()]++
		c.DailyActivity[ts.Format(dayLayout)]++
		if c.FirstActivity.IsZero() || ts.Before(c.FirstActivity) {
			c.FirstActivity = ts
		}
		if ts.After(c.LastActivity) {
			c.LastActivity = ts
		}
	}

	if rec.Model != "" {
		b.models[rec.Model]++
	}

	var textLen int
	switch rec.Content.Shape() {
	case models.ShapeString:
		textLen += utf8.RuneCountInString(rec.Content.String())
	case models.ShapeBlocks:
		for _, block := range rec.Content.Blocks() {
			switch v := block.(type) {
			case models.TextBlock:
				textLen += utf8.RuneCountInString(v.Text)
			case models.ThinkingBlock:
				c.ThinkingBlocks++
				textLen += utf8.RuneCountInString(v.Thinking)
			case models.ToolUseBlock:
				if v.Name != "" {
					c.ToolUsage[v.Name]++
				}
				textLen += utf8.RuneCount(v.Input)
			case models.ToolResultBlock:
				if v.IsError {
					c.ErrorCount++
				}
				textLen += utf8.RuneCountInString(v.Text)
			}
		}
	}

	if rec.Usage != nil {
		c.Tokens.Input += rec.Usage.InputTokens
		c.Tokens.Output += rec.Usage.OutputTokens
		c.Tokens.CacheCreation += rec.Usage.CacheCreationInputTokens
		c.Tokens.CacheRead += rec.Usage.CacheReadInputTokens
		c.Tokens.Estimated += rec.Usage.Total()
	} else {
		c.Tokens.Estimated += EstimateTokens(textLen)
	}
}

// merge folds another builder's counters into b.
func (b *builder) merge(o *builder) {
	c, oc := &b.counters, &o.counters
	c.TotalMessages += oc.TotalMessages
	c.ThinkingBlocks += oc.ThinkingBlocks
	c.ErrorCount += oc.ErrorCount
	c.MalformedLines += oc.MalformedLines
	for role, n := range oc.MessagesByRole {
		c.MessagesByRole[role] += n
	}
	for tool, n := range oc.ToolUsage {
		c.ToolUsage[tool] += n
	}
	for day, n := range oc.DailyActivity {
		c.DailyActivity[day] += n
	}
	for i, n := range oc.HourlyActivity {
		c.HourlyActivity[i] += n
	}
	for m, n := range o.models {
		b.models[m] += n
	}
	c.Tokens.Input += oc.Tokens.Input
	c.Tokens.Output += oc.Tokens.Output
	c.Tokens.CacheCreation += oc.Tokens.CacheCreation
	c.Tokens.CacheRead += oc.Tokens.CacheRead
	c.Tokens.Estimated += oc.Tokens.Estimated
	if !oc.FirstActivity.IsZero() && (c.FirstActivity.IsZero() || oc.FirstActivity.Before(c.FirstActivity)) {
		c.FirstActivity = oc.FirstActivity
	}
	if oc.LastActivity.After(c.LastActivity) {
		c.LastActivity = oc.LastActivity
	}
}

func (b *builder) publish() models.Counters {
	return b.counters
}

// EstimateTokens approximates the token count of n characters of text.
func EstimateTokens(n int) int64 {
	if n <= 0 {
		return 0
	}
	return int64((n + 3) / 4)
}

// mostActiveDay picks the day with the most messages, the earliest on ties.
func mostActiveDay(daily map[string]int) models.DayActivity {
	days := make([]string, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Strings(days)

	var best models.DayActivity
	for _, d := range days {
		if daily[d] > best.Messages {
			best = models.DayActivity{Date: d, Messages: daily[d]}
		}
	}
	return best
}
