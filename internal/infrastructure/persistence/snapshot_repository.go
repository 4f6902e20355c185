package persistence

import (
	"context"

	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSnapshotRepository implements SnapshotRepository using GORM
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// FindByClient lists a client's snapshots, newest date first
func (r *GormSnapshotRepository) FindByClient(ctx context.Context, clientID uint) ([]crm.Snapshot, error) {
	var rows []models.SnapshotModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("snapshot_date DESC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return snapshotsToDomain(rows), nil
}

// FindActive lists every active snapshot ordered by client and date
func (r *GormSnapshotRepository) FindActive(ctx context.Context) ([]crm.Snapshot, error) {
	var rows []models.SnapshotModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("client_id ASC").Order("snapshot_date ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return snapshotsToDomain(rows), nil
}

// FindActiveByClient lists a client's active snapshots ordered by date
func (r *GormSnapshotRepository) FindActiveByClient(ctx context.Context, clientID uint) ([]crm.Snapshot, error) {
	var rows []models.SnapshotModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND is_active = ?", clientID, true).
		Order("snapshot_date ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return snapshotsToDomain(rows), nil
}

// FindByClientAndFund lists one fund's active snapshots ordered by date
func (r *GormSnapshotRepository) FindByClientAndFund(ctx context.Context, clientID uint, fundNumber string) ([]crm.Snapshot, error) {
	var rows []models.SnapshotModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND fund_number = ? AND is_active = ?", clientID, fundNumber, true).
		Order("snapshot_date ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return snapshotsToDomain(rows), nil
}

// FindByKey finds the snapshot stored under the given upsert key.
// Missing fund numbers and sources compare as empty strings.
func (r *GormSnapshotRepository) FindByKey(ctx context.Context, key crm.SnapshotKey) (*crm.Snapshot, error) {
	var model models.SnapshotModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ? AND COALESCE(fund_number, '') = ? AND snapshot_date = ? AND COALESCE(source, '') = ?",
			key.ClientID, key.FundNumber, key.Date, key.Source).
		Order("id ASC").
		First(&model).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a snapshot
func (r *GormSnapshotRepository) Save(ctx context.Context, snapshot *crm.Snapshot) error {
	model := models.SnapshotModelFromDomain(snapshot)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	snapshot.ID = model.ID
	return nil
}

// DeleteAll removes every snapshot and returns the number removed
func (r *GormSnapshotRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.SnapshotModel{})
	return result.RowsAffected, result.Error
}

func snapshotsToDomain(rows []models.SnapshotModel) []crm.Snapshot {
	snapshots := make([]crm.Snapshot, len(rows))
	for i := range rows {
		snapshots[i] = *rows[i].ToDomain()
	}
	return snapshots
}

var _ crm.SnapshotRepository = (*GormSnapshotRepository)(nil)
