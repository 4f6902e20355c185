package persistence

import (
	"context"
	"fmt"

	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uint) (*client.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrClientNotFound)
	}
	return model.ToDomain(), nil
}

// FindByIDNumber finds a client by its normalized national ID
func (r *GormClientRepository) FindByIDNumber(ctx context.Context, idNumber string) (*client.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).Where("id_number = ?", idNumber).First(&model).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrClientNotFound)
	}
	return model.ToDomain(), nil
}

// FindAll returns every client ordered by ID
func (r *GormClientRepository) FindAll(ctx context.Context) ([]client.Client, error) {
	var rows []models.ClientModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	clients := make([]client.Client, len(rows))
	for i := range rows {
		clients[i] = *rows[i].ToDomain()
	}
	return clients, nil
}

// Save creates or updates a client. A clash on the normalized ID number
// is reported as ErrDuplicateIDNumber.
func (r *GormClientRepository) Save(ctx context.Context, c *client.Client) error {
	model := models.ClientModelFromDomain(c)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateIDNumber
		}
		return err
	}
	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a client together with its snapshots, notes, beneficiaries,
// products, forms and signing links.
func (r *GormClientRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ClientModel
		if err := tx.Select("id").First(&existing, "id = ?", id).Error; err != nil {
			return notFoundAs(err, shared.ErrClientNotFound)
		}

		newProductIDs := tx.Model(&models.NewProductModel{}).Select("id").Where("client_id = ?", id)
		steps := []struct {
			name  string
			query *gorm.DB
			model any
		}{
			{"form instances", tx.Where("new_product_id IN (?)", newProductIDs), &models.FormInstanceModel{}},
			{"new products", tx.Where("client_id = ?", id), &models.NewProductModel{}},
			{"existing products", tx.Where("client_id = ?", id), &models.ExistingProductModel{}},
			{"snapshots", tx.Where("client_id = ?", id), &models.SnapshotModel{}},
			{"notes", tx.Where("client_id = ?", id), &models.ClientNoteModel{}},
			{"beneficiaries", tx.Where("client_id = ?", id), &models.ClientBeneficiaryModel{}},
			{"signature requests", tx.Where("client_id = ?", id), &models.ClientSignatureRequestModel{}},
		}
		for _, step := range steps {
			if err := step.query.Delete(step.model).Error; err != nil {
				return fmt.Errorf("delete %s: %w", step.name, err)
			}
		}
		return tx.Delete(&models.ClientModel{}, "id = ?", id).Error
	})
}

// GormNoteRepository implements NoteRepository using GORM
type GormNoteRepository struct {
	db *gorm.DB
}

// NewGormNoteRepository creates a new GormNoteRepository
func NewGormNoteRepository(db *gorm.DB) *GormNoteRepository {
	return &GormNoteRepository{db: db}
}

// FindByID finds a note by its ID
func (r *GormNoteRepository) FindByID(ctx context.Context, id uint) (*client.ClientNote, error) {
	var model models.ClientNoteModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, shared.ErrNoteNotFound)
	}
	return model.ToDomain(), nil
}

// FindByClient lists a client's notes newest first
func (r *GormNoteRepository) FindByClient(ctx context.Context, clientID uint) ([]client.ClientNote, error) {
	var rows []models.ClientNoteModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return notesToDomain(rows), nil
}

// FindPendingReminders lists notes with a reminder that was not dismissed, earliest first
func (r *GormNoteRepository) FindPendingReminders(ctx context.Context) ([]client.ClientNote, error) {
	var rows []models.ClientNoteModel
	if err := r.db.WithContext(ctx).
		Where("reminder_at IS NOT NULL AND reminder_at <> '' AND dismissed_at IS NULL").
		Order("reminder_at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return notesToDomain(rows), nil
}

// Save creates or updates a note
func (r *GormNoteRepository) Save(ctx context.Context, note *client.ClientNote) error {
	model := models.ClientNoteModelFromDomain(note)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	note.ID = model.ID
	return nil
}

// Delete removes a note
func (r *GormNoteRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ClientNoteModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNoteNotFound
	}
	return nil
}

// DeleteAll removes every note and returns the number removed
func (r *GormNoteRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.ClientNoteModel{})
	return result.RowsAffected, result.Error
}

func notesToDomain(rows []models.ClientNoteModel) []client.ClientNote {
	notes := make([]client.ClientNote, len(rows))
	for i := range rows {
		notes[i] = *rows[i].ToDomain()
	}
	return notes
}

// GormBeneficiaryRepository implements BeneficiaryRepository using GORM
type GormBeneficiaryRepository struct {
	db *gorm.DB
}

// NewGormBeneficiaryRepository creates a new GormBeneficiaryRepository
func NewGormBeneficiaryRepository(db *gorm.DB) *GormBeneficiaryRepository {
	return &GormBeneficiaryRepository{db: db}
}

// FindByClient lists a client's beneficiaries ordered by slot index
func (r *GormBeneficiaryRepository) FindByClient(ctx context.Context, clientID uint) ([]client.ClientBeneficiary, error) {
	var rows []models.ClientBeneficiaryModel
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order(`"index" ASC`).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]client.ClientBeneficiary, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// ReplaceForClient swaps the whole beneficiary set of a client
func (r *GormBeneficiaryRepository) ReplaceForClient(ctx context.Context, clientID uint, items []client.ClientBeneficiary) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", clientID).Delete(&models.ClientBeneficiaryModel{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		rows := make([]*models.ClientBeneficiaryModel, len(items))
		for i := range items {
			b := items[i]
			b.ID = 0
			b.ClientID = clientID
			rows[i] = models.ClientBeneficiaryModelFromDomain(&b)
		}
		return tx.Create(rows).Error
	})
}

var (
	_ client.ClientRepository      = (*GormClientRepository)(nil)
	_ client.NoteRepository        = (*GormNoteRepository)(nil)
	_ client.BeneficiaryRepository = (*GormBeneficiaryRepository)(nil)
)
