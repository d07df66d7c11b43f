package validation

import (
	"testing"

	"github.com/stretchr/testify/require"

	cperrors "github.com/scystream/control-plane/pkg/errors"
)

func set(keys ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func TestKeySubsetAllowsOverwrite(t *testing.T) {
	t.Parallel()
	require.True(t, KeySubset(set("A", "B"), set("A")))
}

func TestKeySubsetRejectsAddition(t *testing.T) {
	t.Parallel()
	require.False(t, KeySubset(set("A"), set("A", "B")))
}

func TestNewKeysReturnsOnlyAdditions(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{"B"}, NewKeys(set("A"), set("A", "B")))
}

func TestRequireKeySubsetReturnsCodedError(t *testing.T) {
	t.Parallel()
	err := RequireKeySubset("port:p1", set("A"), set("A", "B"))
	require.Equal(t, cperrors.CodeConfigKeysMismatch, cperrors.Coerce(err))
}

func TestRequireKeySubsetPassesThrough(t *testing.T) {
	t.Parallel()
	require.NoError(t, RequireKeySubset("port:p1", set("A", "B"), set("B")))
}
