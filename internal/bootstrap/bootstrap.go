// Package bootstrap wires the infrastructure and application services shared
// by the HTTP server and the offline admin CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	crmapp "github.com/advisory/backoffice/internal/application/crm"
	identityapp "github.com/advisory/backoffice/internal/application/identity"
	importapp "github.com/advisory/backoffice/internal/application/import"
	justapp "github.com/advisory/backoffice/internal/application/justification"
	legacyapp "github.com/advisory/backoffice/internal/application/legacy"
	"github.com/advisory/backoffice/internal/infrastructure/auth"
	"github.com/advisory/backoffice/internal/infrastructure/cache"
	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/advisory/backoffice/internal/infrastructure/legacydb"
	"github.com/advisory/backoffice/internal/infrastructure/logger"
	"github.com/advisory/backoffice/internal/infrastructure/persistence"
	"github.com/advisory/backoffice/internal/infrastructure/printing"
	"github.com/advisory/backoffice/internal/infrastructure/storage"
	"github.com/advisory/backoffice/internal/infrastructure/telemetry"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container owns every long-lived dependency. Close releases them in
// reverse order of creation.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Clock  clockwork.Clock

	DB       *persistence.Database
	Cache    cache.Cache
	Renderer *printing.ChainRenderer
	JWT      *auth.JWTService

	Clients   *crmapp.ClientService
	Snapshots *crmapp.SnapshotService
	Notes     *crmapp.NoteService
	Reports   *crmapp.ReportService

	Products  *justapp.ProductService
	Documents *justapp.DocumentService
	Signing   *justapp.SigningService

	CRMImport           *importapp.CRMImportService
	GemelnetImport      *importapp.GemelnetImportService
	LegacyClientsImport *importapp.LegacyClientsImportService
	Migration           *legacyapp.MigrationService

	Auth *identityapp.AuthService

	closers []func() error
}

// Option customizes the container
type Option func(*Container)

// WithClock replaces the real clock, for tests
func WithClock(clock clockwork.Clock) Option {
	return func(c *Container) {
		c.Clock = clock
	}
}

// New opens the database and builds the full service graph
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: log,
		Clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.build(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

func (c *Container) build(ctx context.Context) error {
	cfg, log := c.Config, c.Logger

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	db, err := OpenDatabase(ctx, cfg, gormLog, log)
	if err != nil {
		return err
	}
	c.DB = db
	c.onClose(db.Close)

	reportCache, err := cache.NewReportCacheFactory(cfg.Redis, cache.WithLogger(log)).CreateCache()
	if err != nil {
		return err
	}
	c.Cache = reportCache
	c.onClose(reportCache.Close)

	store, err := storage.NewDocumentStore(&cfg.Documents, log)
	if err != nil {
		return fmt.Errorf("failed to create document store: %w", err)
	}

	templateOpts := []printing.TemplateEngineOption{
		printing.WithTemplateClock(c.Clock),
		printing.WithTemplateLogger(log),
	}
	if cfg.Documents.TemplatesDir != "" {
		templateOpts = append(templateOpts, printing.WithTemplatesDir(cfg.Documents.TemplatesDir))
	}
	templates, err := printing.NewTemplateEngine(templateOpts...)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	renderer, err := printing.NewRenderer(&cfg.PDF, log, printing.WithRenderObserver(telemetry.RecordRender))
	if err != nil {
		return fmt.Errorf("failed to create PDF renderer: %w", err)
	}
	c.Renderer = renderer
	c.onClose(renderer.Close)
	log.Info("PDF renderer ready", zap.Strings("engines", renderer.Engines()))

	pdfKit, err := printing.NewPDFKit(cfg.PDF.OverlayFont, printing.WithPDFKitLogger(log))
	if err != nil {
		return fmt.Errorf("failed to create PDF toolkit: %w", err)
	}

	repos := persistence.Repositories(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)
	assets := justapp.NewDirAssets(cfg.Documents.KitsDir, cfg.Documents.StaticDir, cfg.Documents.B1Template)

	c.Clients = crmapp.NewClientService(repos.ClientRepo, repos.BeneficiaryRepo, reportCache, log)
	c.Snapshots = crmapp.NewSnapshotService(repos.ClientRepo, repos.SnapshotRepo, reportCache, log)
	c.Notes = crmapp.NewNoteService(repos.ClientRepo, repos.NoteRepo, c.Clock, log)
	c.Reports = crmapp.NewReportService(repos.ClientRepo, repos.SnapshotRepo, templates, renderer, c.Clock, log)

	c.Products = justapp.NewProductService(repos, txScope, c.Clock, log)
	c.Documents = justapp.NewDocumentService(repos, store, templates, renderer, pdfKit, assets, c.Clock, log)
	c.Signing = justapp.NewSigningService(repos, store, templates, pdfKit, c.Documents, cfg.App.PublicBaseURL, c.Clock, log)

	c.CRMImport = importapp.NewCRMImportService(txScope, reportCache, c.Clock, log)
	c.GemelnetImport = importapp.NewGemelnetImportService(txScope, log)
	c.LegacyClientsImport = importapp.NewLegacyClientsImportService(txScope, cfg.Legacy.ClientsXLSXPath, reportCache, log)
	c.Migration = legacyapp.NewMigrationService(
		txScope,
		legacydb.NewMiniCRMReader(cfg.Legacy.MiniCRMPath, gormLog),
		legacydb.NewJustificationReader(cfg.Legacy.JustificationPath, gormLog),
		reportCache,
		c.Clock,
		log,
	)

	c.JWT = auth.NewJWTService(cfg.JWT, auth.WithJWTClock(c.Clock))
	c.Auth = identityapp.NewAuthService(c.JWT, c.tokenBlacklist(reportCache), identityapp.AuthServiceConfig{
		Username:     cfg.Admin.Username,
		PasswordHash: cfg.Admin.PasswordHash,
	}, c.Clock, log)

	return nil
}

// tokenBlacklist shares Redis with the report cache when it is available
func (c *Container) tokenBlacklist(reportCache cache.Cache) auth.TokenBlacklist {
	if _, ok := reportCache.(*cache.RedisReportCache); !ok {
		return auth.NewInMemoryTokenBlacklist(c.Clock)
	}
	rc := c.Config.Redis
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", rc.Host, rc.Port),
		Password: rc.Password,
		DB:       rc.DB,
	})
	c.onClose(client.Close)
	return auth.NewRedisTokenBlacklist(client)
}

// Close releases everything New acquired
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// OpenDatabase connects to the configured database. The sqlite dev mode
// creates its schema with AutoMigrate; postgres relies on cmd/migrate.
// Statement tracing and metrics are attached by the server.
func OpenDatabase(ctx context.Context, cfg *config.Config, gormLog *logger.GormLogger, log *zap.Logger) (*persistence.Database, error) {
	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("SQLite schema ready", zap.String("path", cfg.Database.SQLitePath))
	}

	log.Info("Database connected", zap.String("driver", db.Driver))
	return db, nil
}
