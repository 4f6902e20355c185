package importapp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/tabular"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const kindLegacyClients = "legacy_clients_xlsx"

// LegacyClientsImportService back-fills client personal details from the
// mini CRM's Clients.xlsx
type LegacyClientsImportService struct {
	txScope     appshared.TransactionScope
	defaultPath string
	cache       appshared.ReportCache
	logger      *zap.Logger
}

// NewLegacyClientsImportService creates a new LegacyClientsImportService.
// defaultPath is read when no file is uploaded.
func NewLegacyClientsImportService(
	txScope appshared.TransactionScope,
	defaultPath string,
	cache appshared.ReportCache,
	logger *zap.Logger,
) *LegacyClientsImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LegacyClientsImportService{
		txScope:     txScope,
		defaultPath: defaultPath,
		cache:       cache,
		logger:      logger,
	}
}

// ImportLegacyClients fills empty fields of existing clients from the
// spreadsheet. Populated fields are never overwritten and unknown IDs are
// counted as reused, never created.
func (s *LegacyClientsImportService) ImportLegacyClients(ctx context.Context, upload *Upload) (*LegacyClientsResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "import", "legacy_clients")
	defer span.End()

	upload, err := s.resolveUpload(upload)
	if err != nil {
		return nil, err
	}
	records, err := readSpreadsheet(upload.Filename, upload.Data)
	if err != nil {
		return nil, err
	}
	table, err := locate(legacyClientsSchema, records)
	if err != nil {
		return nil, err
	}

	result := &LegacyClientsResult{}
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		counts := LegacyClientsResult{}
		clients, err := repos.Clients().FindAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load clients: %w", err)
		}
		index := client.NewIndex(clients)

		for _, row := range table.Rows {
			counts.RowsProcessed++
			incoming := clientFromLegacyRow(row)
			if incoming == nil {
				continue
			}
			existing, ok := index.Get(client.Deref(incoming.IDNumber))
			if !ok || !existing.FillMissing(incoming) {
				counts.Reused++
				continue
			}
			if err := repos.Clients().Save(ctx, existing); err != nil {
				return fmt.Errorf("failed to update client %d: %w", existing.ID, err)
			}
			counts.Updated++
		}
		*result = counts
		return nil
	})
	telemetry.RecordImport(kindLegacyClients, map[string]int{
		"updated":   result.Updated,
		"unchanged": result.Reused,
		"processed": result.RowsProcessed,
	}, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("legacy clients import failed: %w", err)
	}

	appshared.InvalidateCRM(ctx, s.cache, s.logger)
	s.logger.Info("Legacy clients back-filled",
		zap.String("file", upload.Filename),
		zap.Int("rows", result.RowsProcessed),
		zap.Int("updated", result.Updated),
		zap.Int("reused", result.Reused),
	)
	return result, nil
}

func (s *LegacyClientsImportService) resolveUpload(upload *Upload) (*Upload, error) {
	if upload != nil && len(upload.Data) > 0 {
		return upload, nil
	}
	if s.defaultPath == "" {
		return nil, shared.ErrEmptyUpload
	}
	data, err := os.ReadFile(s.defaultPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: clients spreadsheet not found at %s", shared.ErrLegacySourceUnavailable, s.defaultPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.defaultPath, err)
	}
	return &Upload{Filename: filepath.Base(s.defaultPath), Data: data}, nil
}

// clientFromLegacyRow returns nil for rows without a usable ID
func clientFromLegacyRow(row *tabular.Row) *client.Client {
	id := client.NormalizeIDNumber(tabular.CellText(row.Get(fieldLegacyID)))
	if id == "" {
		return nil
	}
	text := func(f tabular.Field) *string {
		return client.CleanText(client.StringPtr(tabular.CellText(row.Get(f))))
	}

	c := &client.Client{
		IDNumber:           &id,
		FirstName:          text(fieldFirstName),
		LastName:           text(fieldLastName),
		Phone:              text(fieldPhone),
		Email:              text(fieldEmail),
		AddressCity:        text(fieldCity),
		AddressHouseNumber: text(fieldHouseNumber),
		Gender:             text(fieldGender),
		MaritalStatus:      text(fieldMaritalStatus),
		BirthCountry:       text(fieldBirthCountry),
		EmployerName:       text(fieldEmployerName),
		EmployerHP:         text(fieldEmployerHP),
		EmployerAddress:    text(fieldEmployerAddress),
		EmployerPhone:      text(fieldEmployerPhone),
	}
	c.AddressStreet = text(fieldStreet)
	if c.AddressStreet != nil && c.AddressHouseNumber != nil {
		street := *c.AddressStreet + " " + *c.AddressHouseNumber
		c.AddressStreet = &street
	}
	if birth, ok := tabular.ParseDate(row.Get(fieldBirthDate)); ok {
		c.BirthDate = birth
	}
	return c
}
