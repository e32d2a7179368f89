package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/internal/extract"
	"github.com/neilberkman/ccsearch/internal/index"
	"github.com/neilberkman/ccsearch/internal/logging"
	"github.com/neilberkman/ccsearch/internal/models"
)

// Mode selects how a query string is matched against indexed text
type Mode string

const (
	// ModeExact matches the whole query as one phrase bounded by word
	// boundaries.
	ModeExact Mode = "exact"
	// ModePartial requires every query token to appear somewhere in the text.
	ModePartial Mode = "partial"

	// modeRegexAlias is the historical name of ModePartial. It never did
	// regular expression matching.
	modeRegexAlias = "regex"
)

// ErrInvalidMode is returned by ParseMode for unrecognized mode names.
var ErrInvalidMode = errors.New("invalid search mode")

// ParseMode resolves a mode name. The empty string selects ModePartial.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModePartial), modeRegexAlias:
		return ModePartial, nil
	case string(ModeExact):
		return ModeExact, nil
	default:
		return "", fmt.Errorf("%w: %q (want exact or partial)", ErrInvalidMode, s)
	}
}

// DefaultPreviewLength is used when an Engine is created with a non-positive
// preview length.
const DefaultPreviewLength = 160

// Engine evaluates queries against a built index
type Engine struct {
	logger        *zap.Logger
	previewLength int
}

// NewEngine creates a new search engine
func NewEngine(logger *zap.Logger, previewLength int) *Engine {
	if previewLength <= 0 {
		previewLength = DefaultPreviewLength
	}
	return &Engine{logger: logging.OrNop(logger), previewLength: previewLength}
}

type match struct {
	conversationID string
	messageIDs     []string
	seen           map[string]struct{}
	preview        string
	latest         models.IndexEntry
}

// Query returns every conversation in idx with at least one matching entry,
// ranked by Sort. A query without word characters yields no results.
func (e *Engine) Query(idx *index.Index, query string, mode Mode) []models.SearchResult {
	m := compile(query, mode)
	if m == nil || idx == nil {
		return []models.SearchResult{}
	}

	byConversation := make(map[string]*match)
	var order []*match
	for _, entry := range idx.Entries() {
		if !m.matches(entry.Lower) {
			continue
		}
		g, ok := byConversation[entry.ConversationID]
		if !ok {
			g = &match{
				conversationID: entry.ConversationID,
				seen:           make(map[string]struct{}),
				preview:        extract.Preview(entry.Text, m.needle(), e.previewLength),
			}
			byConversation[entry.ConversationID] = g
			order = append(order, g)
		}
		if _, dup := g.seen[entry.MessageID]; dup {
			continue
		}
		g.seen[entry.MessageID] = struct{}{}
		g.messageIDs = append(g.messageIDs, entry.MessageID)
		if entry.Timestamp.After(g.latest.Timestamp) {
			g.latest = entry
		}
	}

	results := make([]models.SearchResult, 0, len(order))
	for _, g := range order {
		r := models.SearchResult{
			ConversationID:     g.conversationID,
			MatchingMessageIDs: g.messageIDs,
			MatchCount:         len(g.messageIDs),
			Preview:            g.preview,
			LastUpdated:        g.latest.Timestamp,
		}
		if rec, ok := idx.Conversation(g.conversationID); ok {
			r.ProjectID = rec.ProjectID
			r.Conversation = rec.Header()
			r.LastUpdated = rec.LastUpdated
		}
		results = append(results, r)
	}
	Sort(results)

	e.logger.Debug("query evaluated",
		zap.String("mode", string(mode)),
		zap.Int("entries", idx.Len()),
		zap.Int("conversations", len(results)),
	)
	return results
}

// Sort orders results by match count, then recency, then conversation ID.
func Sort(results []models.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.MatchCount != b.MatchCount {
			return a.MatchCount > b.MatchCount
		}
		if !a.LastUpdated.Equal(b.LastUpdated) {
			return a.LastUpdated.After(b.LastUpdated)
		}
		if a.ConversationID != b.ConversationID {
			return a.ConversationID < b.ConversationID
		}
		return a.ProjectID < b.ProjectID
	})
}

// Merge concatenates independently computed result sets and re-ranks them.
func Merge(sets ...[]models.SearchResult) []models.SearchResult {
	total := 0
	for _, s := range sets {
		total += len(s)
	}
	merged := make([]models.SearchResult, 0, total)
	for _, s := range sets {
		merged = append(merged, s...)
	}
	Sort(merged)
	return merged
}

// matcher tests lowercased entry text
type matcher interface {
	matches(lower string) bool
	needle() string
}

// compile normalizes query for mode. It returns nil when nothing is left to
// match.
func compile(query string, mode Mode) matcher {
	lower := strings.ToLower(strings.TrimSpace(query))
	tokens := Tokenize(lower)
	if len(tokens) == 0 {
		return nil
	}
	if mode == ModeExact {
		phrase := normalizePhrase(lower)
		return phraseMatcher{phrase: phrase, spaced: strings.Contains(phrase, " ")}
	}
	return tokenMatcher{tokens: tokens}
}

// Tokenize splits s into lowercase runs of word characters.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !isWordRune(r) })
}

// normalizePhrase collapses interior whitespace so "a   cat" behaves like
// "a cat".
func normalizePhrase(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type tokenMatcher struct {
	tokens []string
}

func (m tokenMatcher) matches(lower string) bool {
	for _, tok := range m.tokens {
		if !strings.Contains(lower, tok) {
			return false
		}
	}
	return true
}

func (m tokenMatcher) needle() string { return m.tokens[0] }

type phraseMatcher struct {
	phrase string
	spaced bool
}

func (m phraseMatcher) needle() string { return m.phrase }

// matches reports whether the phrase occurs with a word boundary at each end.
// An edge of the phrase that is itself punctuation needs no boundary. Any run
// of whitespace in the text matches a single space in a multi-word phrase.
func (m phraseMatcher) matches(lower string) bool {
	p := m.phrase
	if m.spaced {
		lower = normalizePhrase(lower)
	}
	first, _ := utf8.DecodeRuneInString(p)
	last, _ := utf8.DecodeLastRuneInString(p)
	checkStart, checkEnd := isWordRune(first), isWordRune(last)

	for offset := 0; offset <= len(lower)-len(p); {
		i := strings.Index(lower[offset:], p)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(p)

		okStart := true
		if checkStart && start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(lower[:start])
			okStart = !isWordRune(prev)
		}
		okEnd := true
		if checkEnd && end < len(lower) {
			next, _ := utf8.DecodeRuneInString(lower[end:])
			okEnd = !isWordRune(next)
		}
		if okStart && okEnd {
			return true
		}

		_, size := utf8.DecodeRuneInString(lower[start:])
		offset = start + size
	}
	return false
}
