// Package sentinel holds the infrastructure facts that caches and record
// stores report, so callers can branch on them with errors.Is.
package sentinel

import "errors"

// ErrNotFound means the key or record has nothing stored, or what was stored
// is no longer fresh. Input problems are reported through pkg/domain-errors.
var ErrNotFound = errors.New("not found")
