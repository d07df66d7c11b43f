package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotFoundErrorFormatsEntityAndID(t *testing.T) {
	t.Parallel()

	err := NewNotFoundError("block", "b-1")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "block", notFound.Entity)
	require.Equal(t, CodeNotFound, Coerce(err))
	require.Contains(t, err.Error(), "b-1")
}

func TestTypeMismatchErrorCode(t *testing.T) {
	t.Parallel()

	err := NewTypeMismatchError("FILE", "PGTABLE")
	require.Equal(t, CodeTypeMismatch, Coerce(err))
	require.Contains(t, err.Error(), "FILE")
	require.Contains(t, err.Error(), "PGTABLE")
}

func TestConfigKeysMismatchErrorListsKeys(t *testing.T) {
	t.Parallel()

	err := NewConfigKeysMismatchError("entrypoint:e1", []string{"NEW_KEY"})

	var mismatch *ConfigKeysMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, []string{"NEW_KEY"}, mismatch.NewKeys)
	require.Equal(t, CodeConfigKeysMismatch, Coerce(err))
}

func TestCyclicErrorDistinguishesTemplateScope(t *testing.T) {
	t.Parallel()

	projectErr := NewCyclicError("project", []string{"a", "b"})
	require.Equal(t, CodeCyclic, Coerce(projectErr))

	templateErr := NewCyclicError("template", []string{"x", "y"})
	require.Equal(t, CodeTemplateCyclic, Coerce(templateErr))
}

func TestManifestErrorKinds(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")

	require.Equal(t, CodeManifestInvalid, Coerce(NewManifestInvalidError("repo", underlying)))
	require.Equal(t, CodeManifestNotFound, Coerce(NewManifestNotFoundError("repo")))
	require.Equal(t, CodeRepoUnreachable, Coerce(NewRepoUnreachableError("repo", underlying)))

	err := NewManifestInvalidError("repo", underlying)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestMissingConfigErrorCarriesPerBlockPayload(t *testing.T) {
	t.Parallel()

	err := NewMissingConfigError([]MissingConfig{
		{BlockID: "b1", MissingKeys: []string{"S3_HOST"}},
	})

	var missing *MissingConfigError
	require.ErrorAs(t, err, &missing)
	require.Len(t, missing.Blocks, 1)
	require.Equal(t, CodeMissingConfig, Coerce(err))
}

func TestEmptyProjectErrorIsDistinctFromMissingConfig(t *testing.T) {
	t.Parallel()

	err := NewEmptyProjectError("p1")
	require.Equal(t, CodeEmptyProject, Coerce(err))
	require.NotEqual(t, CodeMissingConfig, Coerce(err))
}

func TestUpstreamFailureErrorUnwraps(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("connection refused")
	err := NewUpstreamFailureError("orchestrator", 503, "", underlying)

	require.True(t, stdErrors.Is(err, underlying))
	require.Equal(t, CodeUpstreamFailure, Coerce(err))
}

func TestAuthErrorForbiddenVsUnauthorized(t *testing.T) {
	t.Parallel()

	require.Equal(t, CodeUnauthorized, Coerce(NewUnauthorizedError("no token")))
	require.Equal(t, CodeForbidden, Coerce(NewForbiddenError("not a member")))
}

func TestCoerceDefaultsToInternalForPlainErrors(t *testing.T) {
	t.Parallel()

	require.Equal(t, CodeInternal, Coerce(stdErrors.New("boom")))
	require.Equal(t, Code(""), Coerce(nil))
}
