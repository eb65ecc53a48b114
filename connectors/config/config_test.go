package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "repetitions", c.Export.Basename)
	require.Equal(t, 2, c.Dataset.SampleSize)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
dataset:
  date_column: Horodateur
  operator_column: Prénom et nom
  category_column: Opérateur
  photo_columns: [Photo avant, Photo après]
server:
  addr: ":9000"
  session_ttl: 30m
export:
  basename: interventions
  formats: [xlsx, pdf, csv]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("INTERVENTION_LOG_LEVEL", "debug")
	t.Setenv("INTERVENTION_REMOTE_TOKEN", "secret")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Horodateur", c.Dataset.DateColumn)
	require.Equal(t, []string{"Photo avant", "Photo après"}, c.Dataset.PhotoColumns)
	require.Equal(t, ":9000", c.Server.Addr)
	require.Equal(t, 30*time.Minute, c.Server.SessionTTL)
	require.Equal(t, 32, c.Server.MaxUploadMB)
	require.Equal(t, []string{"xlsx", "pdf", "csv"}, c.Export.Formats)
	require.Equal(t, "debug", c.Log.Level)
	require.Equal(t, "secret", c.Remote.Token)

	d := c.Dataset.Dialect()
	require.Equal(t, "Opérateur", d.CategoryColumn)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}
