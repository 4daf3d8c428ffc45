// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package errutil

import (
	"slices"

	"github.com/samber/oops"
)

// Code returns the oops code carried by err as a string. Errors without a
// string code, and non-oops errors, yield "".
func Code(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// HasTag reports whether err is an oops error tagged with tag.
func HasTag(err error, tag string) bool {
	if err == nil {
		return false
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return slices.Contains(oopsErr.Tags(), tag)
}
