// Package common defines shared constants and sentinel errors used across
// userstore packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrorNotFound reports that a single-row lookup matched nothing. The
	// service layer maps it to a nil result on plain lookups and only lets it
	// escape from the "require" variants.
	ErrorNotFound = errors.New("not found")
)
