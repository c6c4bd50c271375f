package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := fromLookup(env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, AuthModeDev, cfg.AuthMode)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, "0x1", cfg.RegistryOwner.String())
	assert.Equal(t, 5*time.Minute, cfg.AuthMaxSkew)
}

func TestFromEnv_SignatureModeRequiresOwner(t *testing.T) {
	_, err := fromLookup(env(map[string]string{"AUTH_MODE": "signature"}))
	require.Error(t, err)

	cfg, err := fromLookup(env(map[string]string{
		"AUTH_MODE":      "signature",
		"REGISTRY_OWNER": "0xABCDEF",
		"AUTH_MAX_SKEW":  "30s",
		"PORT":           "9000",
	}))
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef", cfg.RegistryOwner.String())
	assert.Equal(t, 30*time.Second, cfg.AuthMaxSkew)
	assert.Equal(t, ":9000", cfg.Addr)
}

func TestFromEnv_Database(t *testing.T) {
	cfg, err := fromLookup(env(map[string]string{"DB_DSN": "postgres://localhost/pets"}))
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.DBDriver)

	_, err = fromLookup(env(map[string]string{"DB_DRIVER": "sqlite"}))
	require.Error(t, err)

	_, err = fromLookup(env(map[string]string{"DB_DRIVER": "mongo", "DB_DSN": "x"}))
	require.Error(t, err)
}

func TestFromEnv_RejectsBadOwner(t *testing.T) {
	_, err := fromLookup(env(map[string]string{"REGISTRY_OWNER": "alice"}))
	require.Error(t, err)
}
