package models

import (
	"testing"
)

func TestMessage_Redact(t *testing.T) {
	tests := []struct {
		name        string
		message     Message
		wantContent string
	}{
		{
			name:        "Deleted message gets placeholder",
			message:     Message{Content: "something regrettable", IsDeleted: true},
			wantContent: DeletedPlaceholder,
		},
		{
			name:        "Live message keeps content",
			message:     Message{Content: "hello world", IsDeleted: false},
			wantContent: "hello world",
		},
		{
			name:        "Already-redacted message is stable",
			message:     Message{Content: DeletedPlaceholder, IsDeleted: true},
			wantContent: DeletedPlaceholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.message.Redact()
			if tt.message.Content != tt.wantContent {
				t.Errorf("Redact() content = %q, want %q", tt.message.Content, tt.wantContent)
			}
		})
	}
}

func TestMessage_RedactKeepsDeletedFlag(t *testing.T) {
	m := Message{Content: "original", IsDeleted: true}
	m.Redact()

	if !m.IsDeleted {
		t.Error("Redact() must not clear the deleted flag")
	}
	if m.Content == "original" {
		t.Error("deleted content must never survive redaction")
	}
}
