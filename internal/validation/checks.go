package validation

import (
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

// KeySubset reports whether every key of update is present in existing.
func KeySubset(existing, update map[string]struct{}) bool {
	for k := range update {
		if _, ok := existing[k]; !ok {
			return false
		}
	}
	return true
}

// NewKeys returns the keys of update absent from existing, used to build a
// ConfigKeysMismatchError payload.
func NewKeys(existing, update map[string]struct{}) []string {
	var extra []string
	for k := range update {
		if _, ok := existing[k]; !ok {
			extra = append(extra, k)
		}
	}
	return extra
}

// RequireKeySubset validates the subset rule and returns a coded error
// naming the offending owner when it is violated.
func RequireKeySubset(owner string, existing, update map[string]struct{}) error {
	if extra := NewKeys(existing, update); len(extra) > 0 {
		return cperrors.NewConfigKeysMismatchError(owner, extra)
	}
	return nil
}
