package defaultconfig

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scystream/control-plane/internal/domain/graph"
)

func TestMustValidateDescriptorsDoesNotPanic(t *testing.T) {
	t.Parallel()
	require.NotPanics(t, MustValidateDescriptors)
}

func TestDefaultsGeneratesUniqueFileName(t *testing.T) {
	t.Parallel()

	p := NewProvider(Settings{S3Host: "minio", S3Port: "9000"})
	cfg1, ok := p.Defaults(graph.DataTypeFile, "out")
	require.True(t, ok)
	cfg2, _ := p.Defaults(graph.DataTypeFile, "out")

	require.Equal(t, "minio", *cfg1["S3_HOST"].Scalar)
	require.NotEqual(t, *cfg1["FILE_NAME"].Scalar, *cfg2["FILE_NAME"].Scalar)
}

func TestExtractDefaultsMatchesNamespacedKeys(t *testing.T) {
	t.Parallel()

	p := NewProvider(Settings{})
	host := "h"
	fname := "file_42"
	cfg := graph.Config{
		"OUT_S3_HOST":  {Scalar: &host},
		"OUT_FILE_NAME": {Scalar: &fname},
		"UNRELATED":     {Scalar: ptr("x")},
	}

	values := p.ExtractDefaults(graph.DataTypeFile, cfg)
	require.Equal(t, "h", *values["S3_HOST"].Scalar)
	require.Equal(t, "file_42", *values["FILE_NAME"].Scalar)
	require.NotContains(t, values, "UNRELATED")
}

func TestApplyDefaultSubstitutionOnlyOverwritesMatchingKeys(t *testing.T) {
	t.Parallel()

	empty := ""
	target := graph.Config{
		"IN_S3_HOST":  {Scalar: &empty},
		"IN_FILE_NAME": {Scalar: &empty},
	}
	values := map[string]graph.ConfigValue{
		"S3_HOST":   {Scalar: ptr("h")},
		"FILE_NAME": {Scalar: ptr("file_42")},
	}

	merged := ApplyDefaultSubstitution(graph.DataTypeFile, target, values)
	require.Equal(t, "h", *merged["IN_S3_HOST"].Scalar)
	require.Equal(t, "file_42", *merged["IN_FILE_NAME"].Scalar)
}

func TestApplyDefaultSubstitutionNoSourceValueLeavesTargetUnchanged(t *testing.T) {
	t.Parallel()

	empty := ""
	target := graph.Config{"IN_FILE_NAME": {Scalar: &empty}}
	merged := ApplyDefaultSubstitution(graph.DataTypeFile, target, map[string]graph.ConfigValue{})
	require.Equal(t, "", *merged["IN_FILE_NAME"].Scalar)
}

func ptr(s string) *string { return &s }
