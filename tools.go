// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

//go:build tools
// +build tools

// Package main pins test-only dependencies to go.mod.
package main

import (
	_ "github.com/onsi/ginkgo/v2"
	_ "github.com/onsi/gomega"
	_ "github.com/stretchr/testify/assert"
	_ "github.com/stretchr/testify/require"
	_ "go.uber.org/goleak"
)
