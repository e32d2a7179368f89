package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/neilberkman/ccsearch/internal/models"
)

func TestSortedCounts(t *testing.T) {
	got := sortedCounts(map[string]int{"Read": 3, "Bash": 5, "Edit": 3})
	want := []count{{"Bash", 5}, {"Edit", 3}, {"Read", 3}}
	if len(got) != len(want) {
		t.Fatalf("sortedCounts() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sortedCounts()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPeakHourAndSparkline(t *testing.T) {
	var hours [24]int
	if peakHour(hours) != -1 || sparkline(hours) != "" {
		t.Error("empty histogram should have no peak and no sparkline")
	}

	hours[9] = 8
	hours[14] = 4
	hours[15] = 8
	if got := peakHour(hours); got != 9 {
		t.Errorf("peakHour() = %d, want 9 (earliest of ties)", got)
	}
	line := []rune(sparkline(hours))
	if len(line) != 24 {
		t.Fatalf("sparkline has %d columns, want 24", len(line))
	}
	if line[9] != '█' || line[14] != '▄' || line[0] != ' ' {
		t.Errorf("sparkline() = %q", string(line))
	}
}

func TestPrintProject(t *testing.T) {
	st := &models.ProjectStats{
		ProjectID:           "-work-api",
		TotalConversations:  2,
		LongestConversation: models.ConversationLength{ConversationID: "c1", MessageCount: 1200},
		MostActiveDay:       models.DayActivity{Date: "2025-01-01", Messages: 1200},
		ComputedAt:          time.Now(),
		Counters: models.Counters{
			TotalMessages:  1500,
			MessagesByRole: map[models.Role]int{models.RoleUser: 700, models.RoleAssistant: 800},
			ToolUsage:      map[string]int{"Read": 40, "Bash": 12},
			Tokens:         models.TokenTotals{Input: 1000, Output: 2500, Estimated: 3500},
			ErrorCount:     3,
			FirstActivity:  time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
			LastActivity:   time.Date(2025, 1, 2, 17, 30, 0, 0, time.UTC),
		},
	}
	st.HourlyActivity[9] = 1500

	var buf bytes.Buffer
	printProject(&buf, st)
	out := buf.String()

	for _, want := range []string{
		"=== Project -work-api ===",
		"Conversations: 2",
		"Longest:       c1 (1,200 messages)",
		"Messages:      1,500",
		"assistant:  800",
		"Tool errors:   3",
		"Tokens:        ~3,500",
		"output:      2,500",
		"First: 2025-01-01 09:00",
		"Read                 40",
		"Busiest hour: 09:00",
		"Most active day: 2025-01-01 (1,200 messages)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Read") > strings.Index(out, "Bash") {
		t.Error("tools should be listed by count, highest first")
	}
}

func TestPrintConversation(t *testing.T) {
	st := &models.ConversationStats{
		ConversationID: "c1",
		ProjectID:      "-work-api",
		Duration:       90*time.Minute + 400*time.Millisecond,
		Models:         map[string]int{"claude-sonnet": 4},
	}

	var buf bytes.Buffer
	printConversation(&buf, st)
	out := buf.String()
	if !strings.Contains(out, "Duration: 1h30m0s") {
		t.Errorf("duration not rounded:\n%s", out)
	}
	if !strings.Contains(out, "claude-sonnet") {
		t.Errorf("models not listed:\n%s", out)
	}
	if strings.Contains(out, "Date Range") {
		t.Errorf("zero activity should not print a date range:\n%s", out)
	}
}
