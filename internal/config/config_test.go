package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setFirebaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_API_KEY", "fk")
	t.Setenv("FIREBASE_AUTH_DOMAIN", "app.firebaseapp.com")
	t.Setenv("FIREBASE_PROJECT_ID", "proj")
	t.Setenv("FIREBASE_STORAGE_BUCKET", "proj.appspot.com")
	t.Setenv("FIREBASE_MESSAGING_SENDER_ID", "123")
	t.Setenv("FIREBASE_APP_ID", "1:123:web:abc")
}

func TestLoadRequiresGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gk")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.WebAddr)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.GeminiBaseURL)
	assert.Equal(t, "v1beta", cfg.GeminiAPIVersion)
	assert.Equal(t, 180*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestStorageFallsBackToLocal(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gk")
	t.Setenv("DATA_DIR", "/tmp/barbertry-test")
	// One Firebase parameter missing keeps the remote store off.
	setFirebaseEnv(t)
	t.Setenv("FIREBASE_APP_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Firebase.Ready())

	storage := cfg.Storage()
	require.NotNil(t, storage.Local)
	assert.Nil(t, storage.Remote)
	assert.Equal(t, "/tmp/barbertry-test", storage.Local.Dir)
}

func TestStorageSelectsRemoteWhenConfigured(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gk")
	setFirebaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Firebase.Ready())

	storage := cfg.Storage()
	require.NotNil(t, storage.Remote)
	assert.Nil(t, storage.Local)
	assert.Equal(t, "proj", storage.Remote.ProjectID)
	assert.Equal(t, "fk", storage.Remote.APIKey)
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gk")
	t.Setenv("MAX_CONCURRENT", "0")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "-5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaxConcurrent)
	assert.Equal(t, 180*time.Second, cfg.RequestTimeout)
}
