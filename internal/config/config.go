// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

// Package config loads and validates fauxid configuration.
//
// Values come from built-in defaults, then an optional YAML file (checked
// against the generated JSON schema first), then command-line flags that
// were explicitly set.
package config

import (
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// CurrentVersion is the config format version written by this release.
const CurrentVersion = "1.0"

// versionConstraint lists the config format versions this release reads.
const versionConstraint = "^1"

// MinSigningKeyBytes is the shortest accepted JWT signing key.
const MinSigningKeyBytes = 32

// Config is the complete fauxid configuration.
type Config struct {
	Version   string          `koanf:"version" json:"version" jsonschema:"required,description=Config format version; must satisfy ^1"`
	Log       LogConfig       `koanf:"log" json:"log,omitempty"`
	Metrics   MetricsConfig   `koanf:"metrics" json:"metrics,omitempty"`
	Reset     ResetConfig     `koanf:"reset" json:"reset,omitempty"`
	Tokens    TokensConfig    `koanf:"tokens" json:"tokens,omitempty"`
	Passwords PasswordsConfig `koanf:"passwords" json:"passwords,omitempty"`
	Lifecycle LifecycleConfig `koanf:"lifecycle" json:"lifecycle,omitempty"`
}

// LogConfig controls process logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text,default=json"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// MetricsConfig controls the observability endpoint.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" jsonschema:"description=host:port for /metrics and health probes; empty disables"`
}

// ResetConfig controls the password reset flow.
type ResetConfig struct {
	Cooldown      Duration `koanf:"cooldown" json:"cooldown,omitempty"`
	TTL           Duration `koanf:"ttl" json:"ttl,omitempty"`
	PurgeInterval Duration `koanf:"purge_interval" json:"purge_interval,omitempty"`
}

// TokensConfig controls token minting.
type TokensConfig struct {
	Format     string   `koanf:"format" json:"format,omitempty" jsonschema:"enum=opaque,enum=jwt,default=opaque"`
	AccessTTL  Duration `koanf:"access_ttl" json:"access_ttl,omitempty"`
	SigningKey string   `koanf:"signing_key" json:"signing_key,omitempty" jsonschema:"description=HMAC key for jwt tokens; at least 32 bytes"`
	Issuer     string   `koanf:"issuer" json:"issuer,omitempty"`
}

// PasswordsConfig controls password storage.
type PasswordsConfig struct {
	Hasher string `koanf:"hasher" json:"hasher,omitempty" jsonschema:"enum=plain,enum=argon2id,default=plain"`
}

// LifecycleConfig controls lifecycle event fan-out.
type LifecycleConfig struct {
	// Buffer bounds each channel subscriber; 0 queues without limit.
	Buffer int `koanf:"buffer" json:"buffer,omitempty" jsonschema:"minimum=0,default=0"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Log:     LogConfig{Format: "json", Level: "info"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Reset: ResetConfig{
			Cooldown:      Duration(60 * time.Second),
			TTL:           Duration(time.Hour),
			PurgeInterval: Duration(5 * time.Minute),
		},
		Tokens: TokensConfig{
			Format:    "opaque",
			AccessTTL: Duration(time.Hour),
			Issuer:    "fauxid",
		},
		Passwords: PasswordsConfig{Hasher: "plain"},
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"log-format":   "log.format",
	"log-level":    "log.level",
	"metrics-addr": "metrics.addr",
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the explicitly set flags in flags (may be nil).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		fp := file.Provider(path)
		data, err := fp.ReadBytes()
		if err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
		if err := k.Load(fp, yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").With("path", path).Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func invalid(field string) oops.OopsErrorBuilder {
	return oops.Code("CONFIG_INVALID").With("field", field)
}

// Validate checks rules the schema cannot express.
func (c *Config) Validate() error {
	if err := checkVersion(c.Version); err != nil {
		return err
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format").Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level").Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	for _, d := range []struct {
		field string
		value Duration
	}{
		{"reset.cooldown", c.Reset.Cooldown},
		{"reset.ttl", c.Reset.TTL},
		{"reset.purge_interval", c.Reset.PurgeInterval},
	} {
		if d.value <= 0 {
			return invalid(d.field).Errorf("%s must be positive", d.field)
		}
	}
	if c.Tokens.AccessTTL < 0 {
		return invalid("tokens.access_ttl").Errorf("tokens.access_ttl must not be negative")
	}

	switch c.Tokens.Format {
	case "opaque":
	case "jwt":
		if len(c.Tokens.SigningKey) < MinSigningKeyBytes {
			return invalid("tokens.signing_key").
				Errorf("tokens.signing_key must be at least %d bytes for jwt tokens", MinSigningKeyBytes)
		}
	default:
		return invalid("tokens.format").Errorf("tokens.format must be opaque or jwt, got %q", c.Tokens.Format)
	}

	switch c.Passwords.Hasher {
	case "plain", "argon2id":
	default:
		return invalid("passwords.hasher").Errorf("passwords.hasher must be plain or argon2id, got %q", c.Passwords.Hasher)
	}

	if c.Lifecycle.Buffer < 0 {
		return invalid("lifecycle.buffer").Errorf("lifecycle.buffer must not be negative")
	}
	return nil
}

func checkVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return invalid("version").With("version", version).Wrapf(err, "config version is not a semantic version")
	}
	constraint, err := semver.NewConstraint(versionConstraint)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if !constraint.Check(v) {
		return invalid("version").
			With("version", version).
			Errorf("config version %s is not supported (want %s)", version, versionConstraint)
	}
	return nil
}
