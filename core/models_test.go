package core

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContentDistinct(t *testing.T) {
	a := IDFromContent("model|encrypt data at rest")
	b := IDFromContent("model|encrypt data in transit")
	if a == b {
		t.Errorf("IDFromContent() collided for distinct content: %d", a)
	}
}

func TestTruncateDescription(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
	}{
		{name: "short", input: "Encrypt data at rest", wantLen: 20},
		{name: "exact", input: strings.Repeat("a", MaxDescriptionLength), wantLen: MaxDescriptionLength},
		{name: "long", input: strings.Repeat("b", MaxDescriptionLength+25), wantLen: MaxDescriptionLength},
		{name: "multibyte", input: strings.Repeat("é", MaxDescriptionLength+1), wantLen: MaxDescriptionLength},
		{name: "empty", input: "", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateDescription(tt.input)
			if n := utf8.RuneCountInString(got); n != tt.wantLen {
				t.Errorf("TruncateDescription() length = %d, want %d", n, tt.wantLen)
			}
			if !utf8.ValidString(got) {
				t.Errorf("TruncateDescription() produced invalid UTF-8")
			}
			if !strings.HasPrefix(tt.input, got) {
				t.Errorf("TruncateDescription() result is not a prefix of the input")
			}
		})
	}
}
