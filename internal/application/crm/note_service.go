package crm

import (
	"context"
	"fmt"

	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/infrastructure/logger"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// NoteService handles client notes and reminders
type NoteService struct {
	clientRepo client.ClientRepository
	noteRepo   client.NoteRepository
	clock      clockwork.Clock
	logger     *zap.Logger
}

// NewNoteService creates a new NoteService
func NewNoteService(
	clientRepo client.ClientRepository,
	noteRepo client.NoteRepository,
	clock clockwork.Clock,
	logger *zap.Logger,
) *NoteService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{
		clientRepo: clientRepo,
		noteRepo:   noteRepo,
		clock:      clock,
		logger:     logger,
	}
}

// List returns the client's notes, newest first
func (s *NoteService) List(ctx context.Context, clientID uint) ([]NoteResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.FindByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	items := make([]NoteResponse, len(notes))
	for i := range notes {
		items[i] = toNoteResponse(&notes[i])
	}
	return items, nil
}

// Create adds a note to the client
func (s *NoteService) Create(ctx context.Context, clientID uint, req CreateNoteRequest) (*NoteResponse, error) {
	if _, err := s.clientRepo.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	note, err := client.NewClientNote(clientID, req.Note, req.ReminderAt, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.noteRepo.Save(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}
	resp := toNoteResponse(note)
	return &resp, nil
}

// Dismiss marks the note's reminder as handled
func (s *NoteService) Dismiss(ctx context.Context, noteID uint) (*NoteResponse, error) {
	return s.mutate(ctx, noteID, func(n *client.ClientNote) {
		n.Dismiss(s.clock.Now())
	})
}

// ClearReminder removes the note's reminder and dismissal
func (s *NoteService) ClearReminder(ctx context.Context, noteID uint) (*NoteResponse, error) {
	return s.mutate(ctx, noteID, (*client.ClientNote).ClearReminder)
}

func (s *NoteService) mutate(ctx context.Context, noteID uint, fn func(*client.ClientNote)) (*NoteResponse, error) {
	note, err := s.noteRepo.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	fn(note)
	if err := s.noteRepo.Save(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	resp := toNoteResponse(note)
	return &resp, nil
}

// Delete removes a note
func (s *NoteService) Delete(ctx context.Context, noteID uint) error {
	if _, err := s.noteRepo.FindByID(ctx, noteID); err != nil {
		return err
	}
	if err := s.noteRepo.Delete(ctx, noteID); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

// Reminders returns every note whose reminder is due today or earlier
func (s *NoteService) Reminders(ctx context.Context) ([]ReminderResponse, error) {
	notes, err := s.noteRepo.FindPendingReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}

	today := s.clock.Now().Format(client.DateLayout)
	names := map[uint]string{}
	items := make([]ReminderResponse, 0, len(notes))
	for i := range notes {
		note := &notes[i]
		if !note.IsDue(today) {
			continue
		}
		name, ok := names[note.ClientID]
		if !ok {
			c, err := s.clientRepo.FindByID(ctx, note.ClientID)
			if err != nil {
				logger.FromContext(ctx, s.logger).Warn("Reminder for missing client", zap.Uint("note_id", note.ID), zap.Error(err))
				continue
			}
			name = c.FullName
			names[note.ClientID] = name
		}
		items = append(items, ReminderResponse{NoteResponse: toNoteResponse(note), ClientName: name})
	}
	return items, nil
}
