package importapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"github.com/advisory/backoffice/internal/infrastructure/tabular"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const kindGemelnet = "gemelnet_xml"

// GemelnetImportService loads the market fund table from the gemelnet XML export
type GemelnetImportService struct {
	txScope appshared.TransactionScope
	logger  *zap.Logger
}

// NewGemelnetImportService creates a new GemelnetImportService
func NewGemelnetImportService(txScope appshared.TransactionScope, logger *zap.Logger) *GemelnetImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GemelnetImportService{txScope: txScope, logger: logger}
}

// ImportGemelnet creates a saving product per (type, company, name, code) and
// refreshes the yields of the ones already known
func (s *GemelnetImportService) ImportGemelnet(ctx context.Context, data []byte) (*GemelnetImportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "import", "gemelnet_xml")
	defer span.End()

	if len(data) == 0 {
		return nil, shared.ErrEmptyUpload
	}
	rows, err := tabular.ReadGemelnetXML(data)
	if err != nil {
		if errors.Is(err, tabular.ErrEmptyFile) {
			return nil, shared.ErrEmptyUpload
		}
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	span.SetAttributes(telemetry.AttrImportRows.Int(len(rows)))

	result := &GemelnetImportResult{}
	err = s.txScope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		counts := GemelnetImportResult{}
		for _, row := range rows {
			counts.RowsProcessed++
			if row.FundCode == "" || row.FundName == "" || row.CompanyName == "" {
				continue
			}
			incoming := savingProductFromRow(row)

			existing, err := repos.SavingProducts().FindByKey(ctx, incoming.Key())
			if errors.Is(err, shared.ErrNotFound) {
				if err := repos.SavingProducts().Save(ctx, incoming); err != nil {
					return fmt.Errorf("failed to save saving product %s: %w", incoming.FundCode, err)
				}
				counts.CreatedSavingProducts++
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to look up saving product: %w", err)
			}

			if !existing.ReplaceMarketData(incoming) {
				counts.DuplicatesSkipped++
				continue
			}
			if err := repos.SavingProducts().Save(ctx, existing); err != nil {
				return fmt.Errorf("failed to update saving product %d: %w", existing.ID, err)
			}
			counts.UpdatedSavingProducts++
		}
		*result = counts
		return nil
	})
	telemetry.RecordImport(kindGemelnet, map[string]int{
		"created":   result.CreatedSavingProducts,
		"updated":   result.UpdatedSavingProducts,
		"unchanged": result.DuplicatesSkipped,
		"processed": result.RowsProcessed,
	}, err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("gemelnet import failed: %w", err)
	}

	s.logger.Info("Gemelnet export imported",
		zap.Int("rows", result.RowsProcessed),
		zap.Int("created", result.CreatedSavingProducts),
		zap.Int("updated", result.UpdatedSavingProducts),
	)
	return result, nil
}

func savingProductFromRow(row tabular.GemelnetRow) *justification.SavingProduct {
	yield1 := nonZeroPercent(row.YieldPeriod)
	if yield1 == nil {
		yield1 = nonZeroPercent(row.YieldAnnualAvg3Y)
	}
	yield3 := nonZeroPercent(row.Yield36Months)
	if yield3 == nil {
		yield3 = nonZeroPercent(row.YieldAvg36Months)
	}
	return &justification.SavingProduct{
		FundInfo: justification.FundInfo{
			FundType:    classifyFundType(row.FundName, row.CompanyName),
			CompanyName: row.CompanyName,
			FundName:    row.FundName,
			FundCode:    row.FundCode,
			Yield1Yr:    yield1,
			Yield3Yr:    yield3,
		},
	}
}

// nonZeroPercent treats a zero yield like a missing one so the fallback column applies
func nonZeroPercent(v string) *float64 {
	p := tabular.ParsePercent(v)
	if p == nil || *p == 0 {
		return nil
	}
	return p
}

// classifyFundType derives the fund type from the track and company names
func classifyFundType(fundName, companyName string) string {
	text := fundName + " " + companyName
	switch {
	case strings.Contains(text, justification.FundTypeGemelInvestment):
		return justification.FundTypeGemelInvestment
	case (strings.Contains(fundName, "חסכון פלוס") || strings.Contains(fundName, "חיסכון פלוס")) &&
		strings.Contains(companyName, "אלטשולר"):
		return justification.FundTypeGemelInvestment
	case strings.Contains(text, justification.FundTypeHishtalmut):
		return justification.FundTypeHishtalmut
	default:
		return justification.FundTypeGemel
	}
}
