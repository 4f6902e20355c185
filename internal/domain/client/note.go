package client

import (
	"strings"
	"time"

	"github.com/advisory/backoffice/internal/domain/shared"
)

// Note timestamps are stored as text in the legacy layout
const (
	NoteTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

// ClientNote is a free-text note on a client, optionally carrying a reminder date.
type ClientNote struct {
	ID          uint
	ClientID    uint
	Note        string
	CreatedAt   string
	ReminderAt  *string
	DismissedAt *string
}

// NewClientNote creates a note stamped at now (UTC)
func NewClientNote(clientID uint, text string, reminderAt *string, now time.Time) (*ClientNote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "note text is required")
	}
	if reminderAt != nil {
		trimmed := strings.TrimSpace(*reminderAt)
		if trimmed == "" {
			reminderAt = nil
		} else {
			if _, err := time.Parse(DateLayout, trimmed); err != nil {
				return nil, shared.NewDomainError("INVALID_INPUT", "reminder date must be YYYY-MM-DD")
			}
			reminderAt = &trimmed
		}
	}
	return &ClientNote{
		ClientID:   clientID,
		Note:       text,
		CreatedAt:  now.UTC().Format(NoteTimeLayout),
		ReminderAt: reminderAt,
	}, nil
}

// Dismiss marks the reminder as handled
func (n *ClientNote) Dismiss(now time.Time) {
	ts := now.UTC().Format(NoteTimeLayout)
	n.DismissedAt = &ts
}

// ClearReminder drops both the reminder and its dismissal
func (n *ClientNote) ClearReminder() {
	n.ReminderAt = nil
	n.DismissedAt = nil
}

// IsDue reports whether the reminder should be surfaced on today (YYYY-MM-DD)
func (n *ClientNote) IsDue(today string) bool {
	if n.ReminderAt == nil || *n.ReminderAt == "" || n.DismissedAt != nil {
		return false
	}
	return *n.ReminderAt <= today
}
