package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	RepoURL     string `validate:"required,git_url"`
	DisplayName string `validate:"required,block_display_name"`
	Direction   string `validate:"required,port_direction"`
	DataType    string `validate:"required,data_type"`
}

func TestGetReturnsSameInstance(t *testing.T) {
	t.Parallel()
	require.Same(t, Get(), Get())
}

func TestGitURLRule(t *testing.T) {
	t.Parallel()

	valid := fixture{RepoURL: "https://github.com/org/repo.git", DisplayName: "csv-reader", Direction: "INPUT", DataType: "FILE"}
	require.NoError(t, Get().Struct(valid))

	invalid := valid
	invalid.RepoURL = "not a url"
	require.Error(t, Get().Struct(invalid))
}

func TestPortDirectionAndDataTypeRules(t *testing.T) {
	t.Parallel()

	f := fixture{RepoURL: "git@github.com:org/repo.git", DisplayName: "block-1", Direction: "SIDEWAYS", DataType: "FILE"}
	require.Error(t, Get().Struct(f))

	f.Direction = "OUTPUT"
	f.DataType = "JSON"
	require.Error(t, Get().Struct(f))

	f.DataType = "PGTABLE"
	require.NoError(t, Get().Struct(f))
}
