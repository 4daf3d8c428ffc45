// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"

	"github.com/fauxid/fauxid/internal/auth"
	"github.com/fauxid/fauxid/internal/config"
	"github.com/fauxid/fauxid/internal/xdg"
)

// resolveConfigPath returns explicit when set, otherwise the XDG config
// file if one exists, otherwise "".
func resolveConfigPath(explicit string, finder func() (string, error)) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if finder == nil {
		finder = xdg.ExistingConfigFile
	}
	path, err := finder()
	if err != nil {
		return "", oops.With("operation", "locate_config").Wrap(err)
	}
	return path, nil
}

// coreOptions translates cfg into auth.Core options.
func coreOptions(cfg *config.Config, logger *slog.Logger, metrics *auth.Metrics) ([]auth.CoreOption, error) {
	hasher, err := auth.NewHasher(cfg.Passwords.Hasher)
	if err != nil {
		return nil, err
	}

	var source auth.TokenSource = auth.OpaqueTokenSource{}
	if cfg.Tokens.Format == "jwt" {
		jwtSource, err := auth.NewJWTTokenSource([]byte(cfg.Tokens.SigningKey), cfg.Tokens.Issuer)
		if err != nil {
			return nil, err
		}
		source = jwtSource
	}

	return []auth.CoreOption{
		auth.WithLogger(logger),
		auth.WithMetrics(metrics),
		auth.WithHasher(hasher),
		auth.WithTokenSource(source),
		auth.WithAccessTokenTTL(cfg.Tokens.AccessTTL.Std()),
		auth.WithResetCooldown(cfg.Reset.Cooldown.Std()),
		auth.WithResetTTL(cfg.Reset.TTL.Std()),
		auth.WithLifecycleBuffer(cfg.Lifecycle.Buffer),
	}, nil
}
