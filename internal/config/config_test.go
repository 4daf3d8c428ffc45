// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fauxid/fauxid/internal/config"
	"github.com/fauxid/fauxid/pkg/errutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func serveFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.String("log-format", "json", "")
	fs.String("log-level", "info", "")
	fs.String("metrics-addr", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.CurrentVersion, cfg.Version)
	assert.Equal(t, 60*time.Second, cfg.Reset.Cooldown.Std())
	assert.Equal(t, time.Hour, cfg.Tokens.AccessTTL.Std())
	assert.Zero(t, cfg.Lifecycle.Buffer)
}

func TestLoadWithoutSourcesReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
version: "1.2"
log:
  level: debug
reset:
  cooldown: 30s
tokens:
  format: jwt
  signing_key: "0123456789abcdef0123456789abcdef"
  access_ttl: "0"
passwords:
  hasher: argon2id
`)
	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "1.2", cfg.Version)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "unset keys keep defaults")
	assert.Equal(t, 30*time.Second, cfg.Reset.Cooldown.Std())
	assert.Equal(t, time.Hour, cfg.Reset.TTL.Std())
	assert.Equal(t, "jwt", cfg.Tokens.Format)
	assert.Zero(t, cfg.Tokens.AccessTTL)
	assert.Equal(t, "argon2id", cfg.Passwords.Hasher)
}

func TestLoadChangedFlagsWin(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
log:
  format: text
  level: warn
metrics:
  addr: "127.0.0.1:9000"
`)
	cfg, err := config.Load(path, serveFlags(t, "--log-level=debug", "--metrics-addr=:9999"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
	assert.Equal(t, "text", cfg.Log.Format, "unchanged flag defaults must not override the file")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "version: \"1.0\"\ndatabase:\n  url: postgres://x\n")
	_, err := config.Load(path, nil)
	errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_VIOLATION")
}

func TestLoadRejectsBadDurations(t *testing.T) {
	path := writeConfig(t, "version: \"1.0\"\nreset:\n  ttl: soon\n")
	_, err := config.Load(path, nil)
	errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_VIOLATION")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	errutil.AssertErrorCode(t, err, "CONFIG_READ_FAILED")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unsupported major version", func(c *config.Config) { c.Version = "2.0" }},
		{"version not semver", func(c *config.Config) { c.Version = "latest" }},
		{"unknown log format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"unknown log level", func(c *config.Config) { c.Log.Level = "loud" }},
		{"zero cooldown", func(c *config.Config) { c.Reset.Cooldown = 0 }},
		{"zero reset ttl", func(c *config.Config) { c.Reset.TTL = 0 }},
		{"zero purge interval", func(c *config.Config) { c.Reset.PurgeInterval = 0 }},
		{"negative access ttl", func(c *config.Config) { c.Tokens.AccessTTL = config.Duration(-time.Second) }},
		{"unknown token format", func(c *config.Config) { c.Tokens.Format = "paseto" }},
		{"jwt with short key", func(c *config.Config) {
			c.Tokens.Format = "jwt"
			c.Tokens.SigningKey = "short"
		}},
		{"unknown hasher", func(c *config.Config) { c.Passwords.Hasher = "md5" }},
		{"negative lifecycle buffer", func(c *config.Config) { c.Lifecycle.Buffer = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			errutil.AssertErrorCode(t, cfg.Validate(), "CONFIG_INVALID")
		})
	}
}

func TestDurationText(t *testing.T) {
	var d config.Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	errutil.AssertErrorCode(t, d.UnmarshalText([]byte("ninety")), "CONFIG_DURATION_INVALID")
}

func TestValidateSchema(t *testing.T) {
	require.NoError(t, config.ValidateSchema([]byte("version: \"1.0\"\nlifecycle:\n  buffer: 8\n")))

	errutil.AssertErrorCode(t, config.ValidateSchema(nil), "CONFIG_EMPTY")
	errutil.AssertErrorCode(t, config.ValidateSchema([]byte("version: [")), "CONFIG_YAML_INVALID")
	errutil.AssertErrorCode(t, config.ValidateSchema([]byte("log:\n  level: info\n")), "CONFIG_SCHEMA_VIOLATION")
	errutil.AssertErrorCode(t, config.ValidateSchema([]byte("version: \"1.0\"\nlog:\n  format: xml\n")), "CONFIG_SCHEMA_VIOLATION")
	errutil.AssertErrorCode(t, config.ValidateSchema([]byte("version: \"1.0\"\nlifecycle:\n  buffer: -1\n")), "CONFIG_SCHEMA_VIOLATION")
}

func TestGenerateSchema(t *testing.T) {
	data, err := config.GenerateSchema()
	require.NoError(t, err)

	schema := string(data)
	assert.Contains(t, schema, config.SchemaID)
	for _, key := range []string{"version", "log", "metrics", "reset", "tokens", "passwords", "lifecycle", "purge_interval"} {
		assert.Contains(t, schema, `"`+key+`"`)
	}
	assert.Contains(t, schema, `"additionalProperties": false`)
}

func TestFormatSchemaError(t *testing.T) {
	assert.Empty(t, config.FormatSchemaError(nil))

	err := config.ValidateSchema([]byte("version: \"1.0\"\nlog:\n  format: xml\n"))
	require.Error(t, err)
	msg := config.FormatSchemaError(err)
	assert.False(t, strings.HasPrefix(msg, "schema validation failed"))
	assert.Contains(t, msg, "format")
}
