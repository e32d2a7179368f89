// Package index builds the in-memory searchable structure over parsed
// conversations.
package index

import (
	"strings"

	"github.com/neilberkman/ccsearch/internal/extract"
	"github.com/neilberkman/ccsearch/internal/models"
)

// Index is an immutable, flat sequence of searchable entries plus the
// conversations they came from.
type Index struct {
	entries       []models.IndexEntry
	conversations map[string]*models.ConversationRecord
}

// Build creates an index over records. Entries keep conversation order and,
// within a conversation, log order. Messages without extractable text are not
// indexed.
func Build(records []*models.ConversationRecord) *Index {
	total := 0
	for _, rec := range records {
		if rec != nil {
			total += len(rec.Messages)
		}
	}

	idx := &Index{
		entries:       make([]models.IndexEntry, 0, total),
		conversations: make(map[string]*models.ConversationRecord, len(records)),
	}

	for _, rec := range records {
		if rec == nil {
			continue
		}
		idx.conversations[rec.ID] = rec
		for _, msg := range rec.Messages {
			text := extract.Text(msg)
			if text == "" {
				continue
			}
			idx.entries = append(idx.entries, models.IndexEntry{
				ConversationID: rec.ID,
				MessageID:      msg.UUID,
				Text:           text,
				Lower:          strings.ToLower(text),
				Timestamp:      msg.Timestamp,
			})
		}
	}
	return idx
}

// Entries returns the indexed entries. Callers must not modify the slice.
func (i *Index) Entries() []models.IndexEntry {
	return i.entries
}

// Conversation returns the record for id, if indexed.
func (i *Index) Conversation(id string) (*models.ConversationRecord, bool) {
	rec, ok := i.conversations[id]
	return rec, ok
}

// Conversations returns every indexed conversation, in no particular order.
func (i *Index) Conversations() []*models.ConversationRecord {
	out := make([]*models.ConversationRecord, 0, len(i.conversations))
	for _, rec := range i.conversations {
		out = append(out, rec)
	}
	return out
}

func (i *Index) Len() int { return len(i.entries) }
