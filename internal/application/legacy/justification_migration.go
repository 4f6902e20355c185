package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/client"
	"github.com/advisory/backoffice/internal/domain/justification"
	"github.com/advisory/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// justificationMigration carries the legacy-to-new ID maps through one run
type justificationMigration struct {
	svc    *MigrationService
	repos  appshared.TransactionalRepositories
	data   *JustificationData
	result *JustificationResult

	clientIDs   map[int64]uint
	existingIDs map[int64]uint
	newIDs      map[int64]uint
}

func (m *justificationMigration) run(ctx context.Context) error {
	m.clientIDs = make(map[int64]uint, len(m.data.Clients))
	m.existingIDs = make(map[int64]uint, len(m.data.ExistingProducts))
	m.newIDs = make(map[int64]uint, len(m.data.NewProducts))

	steps := []func(context.Context) error{
		m.clients,
		m.savingProducts,
		m.existingProducts,
		m.newProducts,
		m.formInstances,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *justificationMigration) clients(ctx context.Context) error {
	index, err := loadIndex(ctx, m.repos.Clients())
	if err != nil {
		return err
	}
	for _, lc := range m.data.Clients {
		c, created, err := m.svc.resolveClient(ctx, m.repos.Clients(), index, clientFromJustification(lc))
		if err != nil {
			return err
		}
		if c == nil {
			continue
		}
		if created {
			m.result.CreatedClients++
		} else {
			m.result.ReusedClients++
		}
		m.clientIDs[lc.ID] = c.ID
	}
	return nil
}

func (m *justificationMigration) savingProducts(ctx context.Context) error {
	repo := m.repos.SavingProducts()
	for _, ls := range m.data.SavingProducts {
		product := &justification.SavingProduct{
			FundInfo:         fundFromLegacy(ls.JustificationFund),
			RiskLevel:        ls.RiskLevel,
			GuaranteedReturn: ls.GuaranteedReturn,
		}
		_, err := repo.FindByKey(ctx, product.Key())
		if err == nil {
			m.result.ReusedSavingProducts++
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("failed to look up saving product: %w", err)
		}
		if err := repo.Save(ctx, product); err != nil {
			return fmt.Errorf("failed to save saving product %q: %w", product.FundName, err)
		}
		m.result.CreatedSavingProducts++
	}
	return nil
}

func (m *justificationMigration) existingProducts(ctx context.Context) error {
	repo := m.repos.ExistingProducts()
	for _, le := range m.data.ExistingProducts {
		personal := strings.TrimSpace(client.Deref(le.PersonalNumber))
		if personal != "" {
			found, err := repo.FindByPersonalNumber(ctx, personal)
			if err == nil {
				m.existingIDs[le.ID] = found.ID
				m.result.ReusedExistingProducts++
				continue
			}
			if !errors.Is(err, shared.ErrExistingProductNotFound) {
				return fmt.Errorf("failed to look up existing product: %w", err)
			}
		}

		clientID, ok := m.clientIDs[le.ClientID]
		if !ok {
			continue
		}
		product := &justification.ExistingProduct{
			ClientID:       clientID,
			FundInfo:       fundFromLegacy(le.JustificationFund),
			PersonalNumber: personal,
			Holding:        holdingFromLegacy(le.JustificationHolding),
		}
		if err := product.Validate(); err != nil {
			m.svc.logger.Warn("Skipping legacy existing product", zap.Int64("legacy_id", le.ID), zap.Error(err))
			continue
		}
		if err := repo.Save(ctx, product); err != nil {
			return fmt.Errorf("failed to save existing product %s: %w", personal, err)
		}
		m.existingIDs[le.ID] = product.ID
		m.result.CreatedExistingProducts++
	}
	return nil
}

func (m *justificationMigration) newProducts(ctx context.Context) error {
	repo := m.repos.NewProducts()
	for _, ln := range m.data.NewProducts {
		personal := strings.TrimSpace(client.Deref(ln.PersonalNumber))
		if personal != "" {
			found, err := repo.FindByPersonalNumber(ctx, personal)
			if err == nil {
				m.newIDs[ln.ID] = found.ID
				m.result.ReusedNewProducts++
				continue
			}
			if !errors.Is(err, shared.ErrNewProductNotFound) {
				return fmt.Errorf("failed to look up new product: %w", err)
			}
		}

		clientID, ok := m.clientIDs[ln.ClientID]
		if !ok {
			continue
		}
		product := &justification.NewProduct{
			ClientID: clientID,
			FundInfo: fundFromLegacy(ln.JustificationFund),
			Holding:  holdingFromLegacy(ln.JustificationHolding),
		}
		if personal != "" {
			product.PersonalNumber = &personal
		}
		if ln.ExistingProductID != nil {
			if id, ok := m.existingIDs[*ln.ExistingProductID]; ok {
				product.ExistingProductID = &id
			}
		}
		if ln.CreatedAt != nil {
			product.CreatedAt = ln.CreatedAt.UTC()
		} else {
			product.CreatedAt = m.svc.clock.Now().UTC()
		}
		if err := product.Validate(); err != nil {
			m.svc.logger.Warn("Skipping legacy new product", zap.Int64("legacy_id", ln.ID), zap.Error(err))
			continue
		}
		if err := repo.Save(ctx, product); err != nil {
			return fmt.Errorf("failed to save new product: %w", err)
		}
		m.newIDs[ln.ID] = product.ID
		m.result.CreatedNewProducts++
	}
	return nil
}

// formInstances copies forms of migrated products. A form already recorded
// for the same product, template and generation time is reused.
func (m *justificationMigration) formInstances(ctx context.Context) error {
	repo := m.repos.FormInstances()
	known := make(map[uint][]justification.FormInstance)

	for _, lf := range m.data.FormInstances {
		productID, ok := m.newIDs[lf.NewProductID]
		if !ok {
			continue
		}
		generatedAt := m.svc.clock.Now().UTC()
		if lf.GeneratedAt != nil {
			generatedAt = lf.GeneratedAt.UTC()
		}
		form, err := justification.NewFormInstance(productID, lf.TemplateFilename, lf.Status, lf.FilledData, lf.FileOutputPath, generatedAt)
		if err != nil {
			m.svc.logger.Warn("Skipping legacy form instance", zap.Int64("legacy_id", lf.ID), zap.Error(err))
			continue
		}

		existing, loaded := known[productID]
		if !loaded {
			if existing, err = repo.FindByNewProduct(ctx, productID); err != nil {
				return fmt.Errorf("failed to list form instances: %w", err)
			}
		}
		if containsForm(existing, form) {
			known[productID] = existing
			m.result.ReusedFormInstances++
			continue
		}
		if err := repo.Save(ctx, form); err != nil {
			return fmt.Errorf("failed to save form instance: %w", err)
		}
		known[productID] = append(existing, *form)
		m.result.CreatedFormInstances++
	}
	return nil
}

func containsForm(forms []justification.FormInstance, f *justification.FormInstance) bool {
	for _, other := range forms {
		if other.TemplateFilename == f.TemplateFilename && other.GeneratedAt.Equal(f.GeneratedAt) {
			return true
		}
	}
	return false
}
