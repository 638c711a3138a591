package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "recordings", cfg.S3Bucket)
}

func TestParseJson_Overlay(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	jc := JsonConfig{
		EndpointAddr: ":9999",
		DatabaseDSN:  "postgres://u:p@db:5432/x",
		SecretKey:    "json-secret",
		S3Bucket:     "other-bucket",
		S3Region:     "eu-west-1",
	}
	b, err := json.Marshal(jc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, b, 0o600))

	os.Args = []string{"app", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddr)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DatabaseDSN)
	assert.Equal(t, "json-secret", cfg.SecretKey)
	assert.Equal(t, "other-bucket", cfg.S3Bucket)
	assert.Equal(t, "eu-west-1", cfg.S3Region)
}

func TestParseJson_NoFileFlag(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"app"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":8080", cfg.EndpointAddr)
}
