package search

import (
	"errors"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single word",
			input:    "python",
			expected: []string{"python"},
		},
		{
			name:     "multi word",
			input:    "Machine Learning",
			expected: []string{"machine", "learning"},
		},
		{
			name:     "punctuation splits tokens",
			input:    "foo.bar(baz)",
			expected: []string{"foo", "bar", "baz"},
		},
		{
			name:     "underscores stay in words",
			input:    "snake_case value",
			expected: []string{"snake_case", "value"},
		},
		{
			name:     "trimmed spaces",
			input:    "  python  django  ",
			expected: []string{"python", "django"},
		},
		{
			name:     "non-ascii letters",
			input:    "Café crème",
			expected: []string{"café", "crème"},
		},
		{
			name:     "punctuation only",
			input:    "?!... --",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Tokenize(tt.input)
			if len(result) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{input: "exact", expected: ModeExact},
		{input: "EXACT", expected: ModeExact},
		{input: "partial", expected: ModePartial},
		{input: "regex", expected: ModePartial},
		{input: "", expected: ModePartial},
		{input: "fuzzy", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMode) {
					t.Errorf("ParseMode(%q) error = %v, want ErrInvalidMode", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) error = %v", tt.input, err)
			}
			if mode != tt.expected {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.input, mode, tt.expected)
			}
		})
	}
}

func TestPhraseMatcher(t *testing.T) {
	tests := []struct {
		phrase string
		text   string
		want   bool
	}{
		{"cat", "a cat sat", true},
		{"cat", "category", false},
		{"cat", "concat", false},
		{"cat", "category then cat.", true},
		{"cat", "cat", true},
		{"cat", "snake_cat", false},
		{"hello world", "say hello world!", true},
		{"hello world", "hello worldwide", false},
		{"c++", "i like c++ a lot", true},
		{"c++", "objc++", false},
		{"café", "un café noir", true},
		{"café", "cafés", false},
	}

	for _, tt := range tests {
		t.Run(tt.phrase+"/"+tt.text, func(t *testing.T) {
			m := phraseMatcher{phrase: tt.phrase}
			if got := m.matches(tt.text); got != tt.want {
				t.Errorf("phrase %q in %q = %v, want %v", tt.phrase, tt.text, got, tt.want)
			}
		})
	}
}
