package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/advisory/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(func() (*config.Config, error) {
		if cfg == nil {
			return nil, errors.New("no config")
		}
		return cfg, nil
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestList_Embedded(t *testing.T) {
	out, err := execute(t, nil, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "000001_initial_schema")
}

func TestCreate_WritesPair(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, nil, "--path", dir, "create", "add fund index", "Index snapshots")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Len(t, names, 2)
	assert.True(t, strings.HasSuffix(names[0], ".down.sql"))
	assert.True(t, strings.HasSuffix(names[1], ".up.sql"))

	out, err := execute(t, nil, "--path", dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "000001_add_fund_index")
}

func TestDrop_RequiresConfirm(t *testing.T) {
	_, err := execute(t, nil, "drop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--confirm")
}

func TestMigratorCommands_RejectSQLite(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "advisory.db"),
	}}
	_, err := execute(t, cfg, "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestMigratorCommands_ConfigError(t *testing.T) {
	_, err := execute(t, nil, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestArgumentValidation(t *testing.T) {
	for _, args := range [][]string{{"steps"}, {"goto"}, {"force", "1", "2"}, {"up", "extra"}} {
		_, err := execute(t, nil, args...)
		assert.Error(t, err, args)
	}
}
