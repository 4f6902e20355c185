package crm

import "context"

// SnapshotKey identifies one fund balance on one date from one provider
type SnapshotKey struct {
	ClientID   uint
	FundNumber string
	Date       string
	Source     string
}

// SnapshotRepository defines the interface for snapshot persistence
type SnapshotRepository interface {
	// FindByClient lists a client's snapshots, newest date first
	FindByClient(ctx context.Context, clientID uint) ([]Snapshot, error)

	// FindActive lists every active snapshot
	FindActive(ctx context.Context) ([]Snapshot, error)

	// FindActiveByClient lists a client's active snapshots
	FindActiveByClient(ctx context.Context, clientID uint) ([]Snapshot, error)

	// FindByClientAndFund lists one fund's active snapshots ordered by date
	FindByClientAndFund(ctx context.Context, clientID uint, fundNumber string) ([]Snapshot, error)

	// FindByKey finds the snapshot stored under the given upsert key
	FindByKey(ctx context.Context, key SnapshotKey) (*Snapshot, error)

	// Save creates or updates a snapshot
	Save(ctx context.Context, snapshot *Snapshot) error

	// DeleteAll removes every snapshot and returns the number removed
	DeleteAll(ctx context.Context) (int64, error)
}
