package client

import "context"

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// FindByID finds a client by its ID
	FindByID(ctx context.Context, id uint) (*Client, error)

	// FindByIDNumber finds a client by its normalized national ID
	FindByIDNumber(ctx context.Context, idNumber string) (*Client, error)

	// FindAll returns every client ordered by ID
	FindAll(ctx context.Context) ([]Client, error)

	// Save creates or updates a client
	Save(ctx context.Context, client *Client) error

	// Delete removes a client together with its dependent rows
	Delete(ctx context.Context, id uint) error
}

// NoteRepository defines the interface for client note persistence
type NoteRepository interface {
	// FindByID finds a note by its ID
	FindByID(ctx context.Context, id uint) (*ClientNote, error)

	// FindByClient lists a client's notes newest first
	FindByClient(ctx context.Context, clientID uint) ([]ClientNote, error)

	// FindPendingReminders lists notes with a reminder that was not dismissed
	FindPendingReminders(ctx context.Context) ([]ClientNote, error)

	// Save creates or updates a note
	Save(ctx context.Context, note *ClientNote) error

	// Delete removes a note
	Delete(ctx context.Context, id uint) error

	// DeleteAll removes every note and returns the number removed
	DeleteAll(ctx context.Context) (int64, error)
}

// BeneficiaryRepository defines the interface for beneficiary persistence
type BeneficiaryRepository interface {
	// FindByClient lists a client's beneficiaries ordered by slot index
	FindByClient(ctx context.Context, clientID uint) ([]ClientBeneficiary, error)

	// ReplaceForClient swaps the whole beneficiary set of a client
	ReplaceForClient(ctx context.Context, clientID uint, items []ClientBeneficiary) error
}
