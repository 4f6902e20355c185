package storage

import (
	"fmt"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	infraconfig "github.com/advisory/backoffice/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewDocumentStore builds the configured document store
func NewDocumentStore(cfg *infraconfig.DocumentsConfig, logger *zap.Logger) (appshared.DocumentStore, error) {
	switch cfg.Storage {
	case "", infraconfig.StorageFilesystem:
		return NewFileSystemStore(cfg.ExportDir, logger)
	case infraconfig.StorageS3:
		return NewS3DocumentStore(&cfg.S3, WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown document storage %q", cfg.Storage)
	}
}
