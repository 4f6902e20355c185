package legacydb

import (
	"context"
	"fmt"

	"github.com/advisory/backoffice/internal/application/legacy"
	gormlogger "gorm.io/gorm/logger"
)

type miniCRMClientRow struct {
	ID      int64
	IDCanon string
	Name    string
}

func (miniCRMClientRow) TableName() string { return "client" }

type miniCRMSnapshotRow struct {
	ID           int64
	ClientID     int64
	FundCode     string
	FundType     *string
	FundName     *string
	FundNumber   *string
	Source       *string
	Amount       float64
	SnapshotDate string
	IsActive     *bool
}

func (miniCRMSnapshotRow) TableName() string { return "snapshot" }

// MiniCRMReader loads the mini CRM sqlite file
type MiniCRMReader struct {
	path string
	log  gormlogger.Interface
}

// NewMiniCRMReader creates a reader for the file at path
func NewMiniCRMReader(path string, log gormlogger.Interface) *MiniCRMReader {
	return &MiniCRMReader{path: path, log: log}
}

// LoadMiniCRM reads every client and snapshot
func (r *MiniCRMReader) LoadMiniCRM(ctx context.Context) (*legacy.MiniCRMData, error) {
	db, err := Open(r.path, r.log)
	if err != nil {
		return nil, err
	}
	defer closeDB(db)

	var clientRows []miniCRMClientRow
	if err := db.WithContext(ctx).Order("id ASC").Find(&clientRows).Error; err != nil {
		return nil, fmt.Errorf("read mini crm clients: %w", err)
	}
	var snapshotRows []miniCRMSnapshotRow
	if err := db.WithContext(ctx).Order("id ASC").Find(&snapshotRows).Error; err != nil {
		return nil, fmt.Errorf("read mini crm snapshots: %w", err)
	}

	data := &legacy.MiniCRMData{
		Clients:   make([]legacy.MiniCRMClient, len(clientRows)),
		Snapshots: make(map[int64][]legacy.MiniCRMSnapshot),
	}
	for i, c := range clientRows {
		data.Clients[i] = legacy.MiniCRMClient{ID: c.ID, IDCanon: c.IDCanon, Name: c.Name}
	}
	for _, s := range snapshotRows {
		data.Snapshots[s.ClientID] = append(data.Snapshots[s.ClientID], legacy.MiniCRMSnapshot{
			ID:           s.ID,
			ClientID:     s.ClientID,
			FundCode:     s.FundCode,
			FundType:     s.FundType,
			FundName:     s.FundName,
			FundNumber:   s.FundNumber,
			Source:       s.Source,
			Amount:       s.Amount,
			SnapshotDate: s.SnapshotDate,
			IsActive:     s.IsActive,
		})
	}
	return data, nil
}

var _ legacy.MiniCRMSource = (*MiniCRMReader)(nil)
