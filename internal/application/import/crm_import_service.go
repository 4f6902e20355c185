// Package importapp loads provider balance reports, the gemelnet market fund
// export and the legacy clients spreadsheet into the unified schema.
package importapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/crm"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/tabular"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const kindCRMExcel = "crm_excel"

// CRMImportService imports monthly provider balance reports as snapshots
type CRMImportService struct {
	txScope appshared.TransactionScope
	cache   appshared.ReportCache
	clock   clockwork.Clock
	logger  *zap.Logger
}

// NewCRMImportService creates a new CRMImportService
func NewCRMImportService(
	txScope appshared.TransactionScope,
	cache appshared.ReportCache,
	clock clockwork.Clock,
	logger *zap.Logger,
) *CRMImportService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CRMImportService{
		txScope: txScope,
		cache:   cache,
		clock:   clock,
		logger:  logger,
	}
}

// fundGroup is the aggregate of every row of one client and fund number
type fundGroup struct {
	idRaw      string
	idNumber   string
	fundNumber string
	clientName string
	fundName   string
	fundType   string
	fundCode   string
	amount     decimal.Decimal
	line       int
}

// ImportCRM stores the balances of one provider report as snapshots dated the
// first of the given month. Rows are summed per (client, fund number); a
// balance already stored for the same client, fund, month and provider is
// overwritten in place.
func (s *CRMImportService) ImportCRM(ctx context.Context, input CRMImportInput) (*CRMImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "import", "crm_excel")
	defer span.End()

	if len(input.Data) == 0 {
		return nil, shared.ErrEmptyUpload
	}
	if strings.TrimSpace(input.SnapshotMonth) == "" {
		return nil, shared.ErrMissingSnapshotMonth
	}
	snapshotDate, err := crm.FirstOfMonth(input.SnapshotMonth)
	if err != nil {
		return nil, err
	}

	records, err := readSpreadsheet(input.Filename, input.Data)
	if err != nil {
		return nil, err
	}
	table, err := locate(crmSchema, records)
	if err != nil {
		return nil, err
	}

	company := crm.NormalizeCompanyCode(input.CompanyCode)
	if company == "" {
		company = companyFromFilename(input.Filename)
	}
	span.SetAttributes(
		telemetry.AttrImportFile.String(input.Filename),
		telemetry.AttrSnapshotMonth.String(input.SnapshotMonth),
		telemetry.AttrCompany.String(company),
		telemetry.AttrImportRows.Int(len(table.Rows)),
	)

	issues := tabular.NewErrorCollection(maxReportedErrors)
	groups := groupRows(table.Rows, issues)

	result := &CRMImportResult{CompanyCode: company}
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		counts := CRMImportResult{CompanyCode: company}
		clients, err := repos.Clients().FindAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load clients: %w", err)
		}
		index := client.NewIndex(clients)

		for _, g := range groups {
			counts.RowsProcessed++
			if !g.amount.IsPositive() {
				issues.AddInvalid(g.line, fieldAmount, tabular.ErrCodeNonPositive, g.amount.String())
				continue
			}

			c, ok := index.Get(g.idNumber)
			if ok {
				counts.ReusedClients++
			} else {
				c = s.newClient(g)
				if err := repos.Clients().Save(ctx, c); err != nil {
					return fmt.Errorf("failed to create client %s: %w", g.idNumber, err)
				}
				index.Put(c)
				counts.CreatedClients++
			}

			created, err := s.upsertSnapshot(ctx, repos.Snapshots(), c.ID, company, snapshotDate, g)
			if err != nil {
				if errors.Is(err, shared.ErrInvalidInput) {
					issues.AddInvalid(g.line, fieldFundCode, tabular.ErrCodeRequiredField, g.fundCode)
					continue
				}
				return err
			}
			if created {
				counts.CreatedSnapshots++
			} else {
				counts.DuplicatesSkipped++
			}
		}
		*result = counts
		return nil
	})
	telemetry.RecordImport(kindCRMExcel, map[string]int{
		"created":   result.CreatedSnapshots,
		"updated":   result.DuplicatesSkipped,
		"rejected":  issues.TotalCount(),
		"processed": result.RowsProcessed,
	}, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("CRM import failed: %w", err)
	}
	result.RowIssues = rowIssues(issues)

	appshared.InvalidateCRM(ctx, s.cache, s.logger)
	s.logger.Info("CRM report imported",
		zap.String("company", company),
		zap.String("snapshot_date", snapshotDate),
		zap.Int("rows", result.RowsProcessed),
		zap.Int("created_clients", result.CreatedClients),
		zap.Int("created_snapshots", result.CreatedSnapshots),
		zap.Int("overwritten", result.DuplicatesSkipped),
		zap.Int("row_errors", issues.TotalCount()),
	)
	return result, nil
}

// groupRows sums amounts per (normalized ID, fund number) in first-seen order.
// Rows without a usable ID or amount are reported and dropped.
func groupRows(rows []*tabular.Row, issues *tabular.ErrorCollection) []*fundGroup {
	byKey := make(map[[2]string]*fundGroup)
	var ordered []*fundGroup

	for _, row := range rows {
		raw := tabular.CellText(row.Get(fieldIDNumber))
		if raw == "" {
			issues.AddRequired(row.LineNumber, fieldIDNumber)
			continue
		}
		id := client.NormalizeIDNumber(raw)
		if id == "" || len(id) > 9 {
			issues.AddInvalid(row.LineNumber, fieldIDNumber, tabular.ErrCodeInvalidID, raw)
			continue
		}
		amount, ok := tabular.ParseDecimal(row.Get(fieldAmount))
		if !ok {
			issues.AddInvalid(row.LineNumber, fieldAmount, tabular.ErrCodeInvalidNumber, row.Get(fieldAmount))
			continue
		}

		fundNumber := tabular.CellText(row.Get(fieldFundNumber))
		key := [2]string{id, fundNumber}
		g, seen := byKey[key]
		if !seen {
			g = &fundGroup{idRaw: raw, idNumber: id, fundNumber: fundNumber, line: row.LineNumber}
			byKey[key] = g
			ordered = append(ordered, g)
		}
		g.amount = g.amount.Add(amount)
		firstNonEmpty(&g.clientName, row.Get(fieldClientName))
		firstNonEmpty(&g.fundName, row.Get(fieldFundName))
		firstNonEmpty(&g.fundType, row.Get(fieldFundType))
		firstNonEmpty(&g.fundCode, tabular.CellText(row.Get(fieldFundCode)))
	}
	return ordered
}

func firstNonEmpty(dst *string, v string) {
	if *dst == "" && !client.IsNaNLike(v) {
		*dst = strings.TrimSpace(v)
	}
}

func (s *CRMImportService) newClient(g *fundGroup) *client.Client {
	name := g.clientName
	if name == "" {
		name = g.idRaw
	}
	id := g.idNumber
	now := s.clock.Now().UTC()
	return &client.Client{
		IDNumberRaw: client.StringPtr(g.idRaw),
		IDNumber:    &id,
		FullName:    name,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// upsertSnapshot reports true when a new snapshot was created and false when
// an existing one was overwritten
func (s *CRMImportService) upsertSnapshot(ctx context.Context, repo crm.SnapshotRepository, clientID uint, company, date string, g *fundGroup) (bool, error) {
	code := g.fundCode
	if code == "" {
		code = g.fundNumber
	}
	snap, err := crm.NewSnapshot(clientID, code, g.amount, date)
	if err != nil {
		return false, err
	}
	snap.FundNumber = client.StringPtr(g.fundNumber)
	snap.FundName = client.StringPtr(g.fundName)
	snap.FundType = client.StringPtr(g.fundType)
	snap.Source = client.StringPtr(company)

	existing, err := repo.FindByKey(ctx, crm.SnapshotKey{
		ClientID:   clientID,
		FundNumber: g.fundNumber,
		Date:       date,
		Source:     company,
	})
	switch {
	case err == nil:
		snap.ID = existing.ID
	case !errors.Is(err, shared.ErrNotFound):
		return false, fmt.Errorf("failed to look up snapshot: %w", err)
	}

	if err := repo.Save(ctx, snap); err != nil {
		return false, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return existing == nil, nil
}
