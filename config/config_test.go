package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidateWithSecret(t *testing.T) {
	cfg := Defaults()
	cfg.MemorySecretKey = "0123456789012345678901234567890123456789"
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsMissingSecret(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsTrimBatchExceedingMax(t *testing.T) {
	cfg := Defaults()
	cfg.MemorySecretKey = "0123456789012345678901234567890123456789"
	cfg.STMTrimBatch = cfg.STMMaxEntries + 1
	require.Error(t, cfg.Validate())
}

func TestWeakSecretWarning(t *testing.T) {
	cfg := Defaults()
	cfg.MemorySecretKey = "short"
	assert.NotEmpty(t, cfg.WeakSecretWarning())

	cfg.MemorySecretKey = "0123456789012345678901234567890123456789"
	assert.Empty(t, cfg.WeakSecretWarning())
}
