package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVaultServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestApplyVaultSecretsOverlaysKnownKeysOnly(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("UNRELATED_SETTING", "")

	server := newVaultServer(t, `{
		"data": {"data": {
			"OPENAI_API_KEY": "sk-from-vault",
			"UNRELATED_SETTING": "should-not-land"
		}}
	}`)

	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "test-token",
		Mount:     "secret",
		Path:      "insight-engine",
		KVVersion: 2,
		Timeout:   time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "sk-from-vault", os.Getenv("OPENAI_API_KEY"))
	assert.Empty(t, os.Getenv("UNRELATED_SETTING"))
}

func TestApplyVaultSecretsKeepsExistingValueWithoutOverwrite(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-local")

	server := newVaultServer(t, `{
		"data": {"data": {"ANTHROPIC_API_KEY": "sk-from-vault"}}
	}`)

	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "test-token",
		Mount:     "secret",
		Path:      "insight-engine",
		KVVersion: 2,
		Timeout:   time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "sk-local", os.Getenv("ANTHROPIC_API_KEY"))
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, result.Enabled)
}

func TestBuildVaultURL(t *testing.T) {
	tests := []struct {
		name      string
		kvVersion int
		want      string
	}{
		{name: "kv v2", kvVersion: 2, want: "https://vault.internal/v1/secret/data/insight-engine"},
		{name: "kv v1", kvVersion: 1, want: "https://vault.internal/v1/secret/insight-engine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := buildVaultURL("https://vault.internal/", "secret", "/insight-engine", tt.kvVersion)
			require.NoError(t, err)
			assert.Equal(t, tt.want, url)
		})
	}
}
