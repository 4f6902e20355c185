package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	appshared "github.com/advisory/backoffice/internal/application/shared"
	"github.com/advisory/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// FileSystemStore keeps client folders under a base directory
type FileSystemStore struct {
	basePath string
	logger   *zap.Logger
}

// NewFileSystemStore creates the base directory when missing
func NewFileSystemStore(basePath string, logger *zap.Logger) (*FileSystemStore, error) {
	if basePath == "" {
		basePath = "exports"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory %s: %w", basePath, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemStore{basePath: basePath, logger: logger}, nil
}

// BasePath returns the root directory
func (s *FileSystemStore) BasePath() string {
	return s.basePath
}

// Read returns a file's content
func (s *FileSystemStore) Read(ctx context.Context, folder, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(folder, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, shared.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces a file, creating the folder as needed. The content is
// written to a temp file first so readers never see a partial PDF.
func (s *FileSystemStore) Write(ctx context.Context, folder, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(folder, name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	s.logger.Debug("Document stored", zap.String("path", path), zap.Int("size", len(data)))
	return nil
}

// Exists reports whether a file is present
func (s *FileSystemStore) Exists(ctx context.Context, folder, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.resolve(folder, name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return !info.IsDir(), nil
}

// Delete removes a file; a missing file is not an error
func (s *FileSystemStore) Delete(ctx context.Context, folder, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(folder, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// resolve joins folder and name under the base path, refusing anything that
// would escape it
func (s *FileSystemStore) resolve(folder, name string) (string, error) {
	if name == "" || containsDotDot(folder) || containsDotDot(name) ||
		filepath.IsAbs(folder) || filepath.IsAbs(name) {
		s.logger.Warn("Blocked document path", zap.String("folder", folder), zap.String("name", name))
		return "", shared.NewDomainError("INVALID_INPUT", "invalid document path")
	}

	fullPath := filepath.Join(s.basePath, folder, name)
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("Path escape attempt blocked", zap.String("path", absPath))
		return "", shared.NewDomainError("INVALID_INPUT", "invalid document path")
	}
	return fullPath, nil
}

// containsDotDot checks if a path contains ".." components
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return slices.Contains(parts, "..")
}

var _ appshared.DocumentStore = (*FileSystemStore)(nil)
