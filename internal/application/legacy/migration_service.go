package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Kinds reported to the import metrics
const (
	kindMiniCRM              = "migrate_mini_crm"
	kindJustification        = "migrate_justification"
	kindJustificationClients = "migrate_justification_clients"
)

// MigrationService copies the retired systems into the unified schema. Every
// run is a single transaction and can be repeated without duplicating rows.
type MigrationService struct {
	txScope       appshared.TransactionScope
	miniCRM       MiniCRMSource
	justification JustificationSource
	cache         appshared.ReportCache
	clock         clockwork.Clock
	logger        *zap.Logger
}

// NewMigrationService creates a new MigrationService. Either source may be
// nil, in which case its migrations fail with ErrLegacySourceUnavailable.
func NewMigrationService(
	txScope appshared.TransactionScope,
	miniCRM MiniCRMSource,
	justificationSource JustificationSource,
	cache appshared.ReportCache,
	clock clockwork.Clock,
	logger *zap.Logger,
) *MigrationService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationService{
		txScope:       txScope,
		miniCRM:       miniCRM,
		justification: justificationSource,
		cache:         cache,
		clock:         clock,
		logger:        logger,
	}
}

// =============================================================================
// Mini CRM
// =============================================================================

// MigrateMiniCRM copies mini CRM clients and snapshots. Clients are matched by
// normalized national ID; snapshots already stored under the same
// (client, fund number, date, source) key are skipped.
func (s *MigrationService) MigrateMiniCRM(ctx context.Context) (*MiniCRMResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "legacy_migration", "mini_crm")
	defer span.End()

	if s.miniCRM == nil {
		return nil, shared.ErrLegacySourceUnavailable
	}
	data, err := s.miniCRM.LoadMiniCRM(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.AddEvent("legacy_loaded", trace.WithAttributes(telemetry.AttrLegacyClients.Int(len(data.Clients))))

	result := &MiniCRMResult{}
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		*result = MiniCRMResult{}
		index, err := loadIndex(ctx, repos.Clients())
		if err != nil {
			return err
		}

		for _, lc := range data.Clients {
			c, created, err := s.resolveClient(ctx, repos.Clients(), index, &client.Client{
				IDNumberRaw: client.StringPtr(strings.TrimSpace(lc.IDCanon)),
				FullName:    strings.TrimSpace(lc.Name),
			})
			if err != nil {
				return err
			}
			if c == nil {
				continue
			}
			if created {
				result.CreatedClients++
			} else {
				result.ReusedClients++
			}

			for _, ls := range data.Snapshots[lc.ID] {
				snap, ok := s.snapshotFromLegacy(c.ID, ls)
				if !ok {
					result.SkippedSnapshots++
					continue
				}
				_, err := repos.Snapshots().FindByKey(ctx, crm.SnapshotKey{
					ClientID:   snap.ClientID,
					FundNumber: snap.FundNumberOrEmpty(),
					Date:       snap.SnapshotDate,
					Source:     snap.SourceOrEmpty(),
				})
				if err == nil {
					result.SkippedSnapshots++
					continue
				}
				if !errors.Is(err, shared.ErrNotFound) {
					return fmt.Errorf("failed to look up snapshot: %w", err)
				}
				if err := repos.Snapshots().Save(ctx, snap); err != nil {
					return fmt.Errorf("failed to save snapshot: %w", err)
				}
				result.CreatedSnapshots++
			}
		}
		return nil
	})
	telemetry.RecordImport(kindMiniCRM, map[string]int{
		"created": result.CreatedClients + result.CreatedSnapshots,
		"reused":  result.ReusedClients,
		"skipped": result.SkippedSnapshots,
	}, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("mini CRM migration failed: %w", err)
	}

	appshared.InvalidateCRM(ctx, s.cache, s.logger)
	s.logger.Info("Mini CRM migrated",
		zap.Int("created_clients", result.CreatedClients),
		zap.Int("reused_clients", result.ReusedClients),
		zap.Int("created_snapshots", result.CreatedSnapshots),
		zap.Int("skipped_snapshots", result.SkippedSnapshots),
	)
	return result, nil
}

func (s *MigrationService) snapshotFromLegacy(clientID uint, ls MiniCRMSnapshot) (*crm.Snapshot, bool) {
	date := strings.TrimSpace(ls.SnapshotDate)
	if len(date) > len(crm.DateLayout) {
		date = date[:len(crm.DateLayout)]
	}
	code := strings.TrimSpace(ls.FundCode)
	if code == "" && ls.FundNumber != nil {
		code = strings.TrimSpace(*ls.FundNumber)
	}

	snap, err := crm.NewSnapshot(clientID, code, decimal.NewFromFloat(ls.Amount), date)
	if err != nil {
		s.logger.Warn("Skipping legacy snapshot",
			zap.Int64("legacy_id", ls.ID),
			zap.String("date", ls.SnapshotDate),
			zap.Error(err),
		)
		return nil, false
	}
	snap.FundType = client.CleanText(ls.FundType)
	snap.FundName = client.CleanText(ls.FundName)
	snap.FundNumber = client.CleanText(ls.FundNumber)
	snap.Source = client.CleanText(ls.Source)
	if ls.IsActive != nil {
		snap.IsActive = *ls.IsActive
	}
	return snap, true
}

// =============================================================================
// Justification
// =============================================================================

// MigrateJustification copies the justification tool: clients, then saving
// products, existing products, new products and form instances, remapping
// legacy IDs along the way.
func (s *MigrationService) MigrateJustification(ctx context.Context) (*JustificationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "legacy_migration", "justification")
	defer span.End()

	if s.justification == nil {
		return nil, shared.ErrLegacySourceUnavailable
	}
	data, err := s.justification.LoadJustification(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &JustificationResult{}
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		*result = JustificationResult{}
		m := &justificationMigration{svc: s, repos: repos, data: data, result: result}
		return m.run(ctx)
	})
	telemetry.RecordImport(kindJustification, map[string]int{
		"created": result.CreatedClients + result.CreatedSavingProducts + result.CreatedExistingProducts +
			result.CreatedNewProducts + result.CreatedFormInstances,
		"reused": result.ReusedClients + result.ReusedSavingProducts + result.ReusedExistingProducts +
			result.ReusedNewProducts + result.ReusedFormInstances,
	}, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("justification migration failed: %w", err)
	}

	appshared.InvalidateCRM(ctx, s.cache, s.logger)
	s.logger.Info("Justification migrated",
		zap.Int("created_clients", result.CreatedClients),
		zap.Int("created_saving_products", result.CreatedSavingProducts),
		zap.Int("created_existing_products", result.CreatedExistingProducts),
		zap.Int("created_new_products", result.CreatedNewProducts),
		zap.Int("created_form_instances", result.CreatedFormInstances),
	)
	return result, nil
}

// MigrateJustificationClients creates missing clients from the justification
// tool and back-fills empty personal fields of existing ones.
func (s *MigrationService) MigrateJustificationClients(ctx context.Context) (*ClientsResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "legacy_migration", "justification_clients")
	defer span.End()

	if s.justification == nil {
		return nil, shared.ErrLegacySourceUnavailable
	}
	legacyClients, err := s.justification.LoadJustificationClients(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &ClientsResult{}
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		*result = ClientsResult{}
		index, err := loadIndex(ctx, repos.Clients())
		if err != nil {
			return err
		}

		for _, lc := range legacyClients {
			incoming := clientFromJustification(lc)
			existing, ok := index.Get(client.Deref(incoming.IDNumberRaw))
			if !ok {
				c, created, err := s.resolveClient(ctx, repos.Clients(), index, incoming)
				if err != nil {
					return err
				}
				if created {
					result.CreatedClients++
				} else if c != nil {
					result.ReusedClients++
				}
				continue
			}

			result.ReusedClients++
			if !existing.FillMissing(incoming) {
				continue
			}
			if err := repos.Clients().Save(ctx, existing); err != nil {
				return fmt.Errorf("failed to update client %d: %w", existing.ID, err)
			}
			result.UpdatedClients++
		}
		return nil
	})
	telemetry.RecordImport(kindJustificationClients, map[string]int{
		"created": result.CreatedClients,
		"updated": result.UpdatedClients,
		"reused":  result.ReusedClients,
	}, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("justification clients migration failed: %w", err)
	}

	appshared.InvalidateCRM(ctx, s.cache, s.logger)
	s.logger.Info("Justification clients migrated",
		zap.Int("created_clients", result.CreatedClients),
		zap.Int("updated_clients", result.UpdatedClients),
		zap.Int("reused_clients", result.ReusedClients),
	)
	return result, nil
}

// =============================================================================
// Clearing
// =============================================================================

// ClearCRMData deletes every snapshot and client note
func (s *MigrationService) ClearCRMData(ctx context.Context) (*ClearCRMResult, error) {
	result := &ClearCRMResult{}
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		if result.DeletedSnapshots, err = repos.Snapshots().DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to delete snapshots: %w", err)
		}
		if result.DeletedClientNotes, err = repos.Notes().DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to delete client notes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	appshared.InvalidateCRM(ctx, s.cache, s.logger)
	s.logger.Warn("CRM data cleared",
		zap.Int64("snapshots", result.DeletedSnapshots),
		zap.Int64("client_notes", result.DeletedClientNotes),
	)
	return result, nil
}

// ClearJustificationData deletes form instances, new, existing and saving
// products, children first
func (s *MigrationService) ClearJustificationData(ctx context.Context) (*ClearJustificationResult, error) {
	result := &ClearJustificationResult{}
	err := s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		if result.DeletedFormInstances, err = repos.FormInstances().DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to delete form instances: %w", err)
		}
		if result.DeletedNewProducts, err = repos.NewProducts().DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to delete new products: %w", err)
		}
		if result.DeletedExistingProducts, err = repos.ExistingProducts().DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to delete existing products: %w", err)
		}
		if result.DeletedSavingProducts, err = repos.SavingProducts().DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to delete saving products: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("Justification data cleared",
		zap.Int64("form_instances", result.DeletedFormInstances),
		zap.Int64("new_products", result.DeletedNewProducts),
		zap.Int64("existing_products", result.DeletedExistingProducts),
		zap.Int64("saving_products", result.DeletedSavingProducts),
	)
	return result, nil
}

// =============================================================================
// Helpers
// =============================================================================

func loadIndex(ctx context.Context, repo client.ClientRepository) (*client.Index, error) {
	clients, err := repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}
	return client.NewIndex(clients), nil
}

// resolveClient returns the indexed client for incoming's national ID, or
// creates it. A nil client means the ID was unusable and the row is skipped.
func (s *MigrationService) resolveClient(ctx context.Context, repo client.ClientRepository, index *client.Index, incoming *client.Client) (*client.Client, bool, error) {
	raw := client.Deref(incoming.IDNumberRaw)
	id := client.NormalizeIDNumber(raw)
	if id == "" {
		return nil, false, nil
	}
	if existing, ok := index.Get(id); ok {
		return existing, false, nil
	}
	if len(id) > 9 {
		s.logger.Warn("Skipping legacy client with malformed ID", zap.String("id_number", raw))
		return nil, false, nil
	}

	incoming.IDNumber = &id
	if strings.TrimSpace(incoming.FullName) == "" {
		incoming.FullName = client.JoinName(incoming.FirstName, incoming.LastName)
	}
	if incoming.FullName == "" {
		incoming.FullName = id
	}
	incoming.IsActive = true
	now := s.clock.Now().UTC()
	incoming.CreatedAt, incoming.UpdatedAt = now, now

	if err := repo.Save(ctx, incoming); err != nil {
		return nil, false, fmt.Errorf("failed to create client %s: %w", id, err)
	}
	index.Put(incoming)
	return incoming, true, nil
}

func clientFromJustification(lc JustificationClient) *client.Client {
	c := &client.Client{
		IDNumberRaw:        client.StringPtr(strings.TrimSpace(lc.NationalID)),
		FirstName:          client.StringPtr(strings.TrimSpace(lc.FirstName)),
		LastName:           client.StringPtr(strings.TrimSpace(lc.LastName)),
		Gender:             client.CleanText(lc.Gender),
		MaritalStatus:      client.CleanText(lc.MaritalStatus),
		Email:              client.CleanText(lc.Email),
		Phone:              client.CleanText(lc.Phone),
		AddressCity:        client.CleanText(lc.City),
		AddressStreet:      client.CleanText(lc.Street),
		AddressHouseNumber: client.CleanText(lc.HouseNumber),
		AddressApartment:   client.CleanText(lc.ApartmentNumber),
		AddressPostalCode:  client.CleanText(lc.ZipCode),
		EmployerName:       client.CleanText(lc.EmployerName),
		EmployerHP:         client.CleanText(lc.EmployerHP),
		EmployerAddress:    client.CleanText(lc.EmployerAddress),
		EmployerPhone:      client.CleanText(lc.EmployerPhone),
	}
	if lc.DateOfBirth != nil && !lc.DateOfBirth.IsZero() {
		d := lc.DateOfBirth.UTC()
		c.BirthDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	return c
}

func fundFromLegacy(f JustificationFund) justification.FundInfo {
	return justification.FundInfo{
		FundType:    strings.TrimSpace(f.FundType),
		CompanyName: strings.TrimSpace(f.CompanyName),
		FundName:    strings.TrimSpace(f.FundName),
		FundCode:    strings.TrimSpace(f.FundCode),
		Yield1Yr:    f.Yield1Yr,
		Yield3Yr:    f.Yield3Yr,
	}
}

func holdingFromLegacy(h JustificationHolding) justification.Holding {
	return justification.Holding{
		ManagementFeeBalance:       h.ManagementFeeBalance,
		ManagementFeeContributions: h.ManagementFeeContributions,
		AccumulatedAmount:          h.AccumulatedAmount,
		EmploymentStatus:           client.CleanText(h.EmploymentStatus),
		HasRegularContributions:    h.HasRegularContributions,
	}
}
