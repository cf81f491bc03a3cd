package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ",", cfg.CSV.Delimiter)
	assert.True(t, cfg.CSV.IncludeHeaders)
	assert.NotNil(t, cfg.Logger())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BANKFILES_LOG_LEVEL", "debug")
	t.Setenv("BANKFILES_LOG_FORMAT", "json")
	t.Setenv("BANKFILES_CSV_DELIMITER", ";")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ";", cfg.CSV.Delimiter)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Setenv("BANKFILES_LOG_LEVEL", "loud")
	_, err := Load()
	assert.Error(t, err)
	t.Setenv("BANKFILES_LOG_LEVEL", "info")

	t.Setenv("BANKFILES_LOG_FORMAT", "xml")
	_, err = Load()
	assert.Error(t, err)
	t.Setenv("BANKFILES_LOG_FORMAT", "text")

	t.Setenv("BANKFILES_CSV_DELIMITER", "||")
	_, err = Load()
	assert.Error(t, err)
}
