package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	cperrors "github.com/scystream/control-plane/pkg/errors"
)

func scalar(s string) ConfigValue { return ConfigValue{Scalar: &s} }

func TestValidateEdgeEndpointsRejectsTypeMismatch(t *testing.T) {
	t.Parallel()

	upstream := &Port{Direction: DirectionOutput, DataType: DataTypeFile}
	downstream := &Port{Direction: DirectionInput, DataType: DataTypePGTable}

	err := ValidateEdgeEndpoints(upstream, downstream, false)
	require.Equal(t, cperrors.CodeTypeMismatch, cperrors.Coerce(err))
}

func TestValidateEdgeEndpointsRejectsWrongDirection(t *testing.T) {
	t.Parallel()

	upstream := &Port{Direction: DirectionInput, DataType: DataTypeFile}
	downstream := &Port{Direction: DirectionInput, DataType: DataTypeFile}

	err := ValidateEdgeEndpoints(upstream, downstream, false)
	require.Error(t, err)
}

func TestValidateEdgeEndpointsCustomRequiresConsent(t *testing.T) {
	t.Parallel()

	upstream := &Port{Direction: DirectionOutput, DataType: DataTypeCustom}
	downstream := &Port{Direction: DirectionInput, DataType: DataTypeCustom}

	require.Error(t, ValidateEdgeEndpoints(upstream, downstream, false))
	require.NoError(t, ValidateEdgeEndpoints(upstream, downstream, true))
}

func TestValidateConfigKeySubsetRejectsNewKeys(t *testing.T) {
	t.Parallel()

	existing := Config{"S3_HOST": scalar("h")}
	update := Config{"NEW_KEY": scalar("v")}

	err := ValidateConfigKeySubset("port:p1", existing, update)
	require.Equal(t, cperrors.CodeConfigKeysMismatch, cperrors.Coerce(err))
}

func TestValidateConfigKeySubsetAllowsOverwrite(t *testing.T) {
	t.Parallel()

	existing := Config{"S3_HOST": scalar("h")}
	update := Config{"S3_HOST": scalar("h2")}

	require.NoError(t, ValidateConfigKeySubset("port:p1", existing, update))
}

func TestPropagatesOnOutputUpdateFixesLogicalOperatorBug(t *testing.T) {
	t.Parallel()

	require.True(t, PropagatesOnOutputUpdate(DataTypeFile))
	require.True(t, PropagatesOnOutputUpdate(DataTypePGTable))
	require.False(t, PropagatesOnOutputUpdate(DataTypeCustom))
}

func TestBuildProjectGraphDetectsCycle(t *testing.T) {
	t.Parallel()

	edges := []Edge{
		{UpstreamBlockID: "a", DownstreamBlockID: "b"},
		{UpstreamBlockID: "b", DownstreamBlockID: "a"},
	}
	g := BuildProjectGraph([]string{"a", "b"}, edges)
	require.NotNil(t, g.DetectCycle())
}

func TestBuildProjectGraphAcyclicHasNoCycle(t *testing.T) {
	t.Parallel()

	edges := []Edge{
		{UpstreamBlockID: "a", DownstreamBlockID: "b"},
	}
	g := BuildProjectGraph([]string{"a", "b", "c"}, edges)
	require.Nil(t, g.DetectCycle())

	components := g.WeaklyConnectedComponents()
	require.Len(t, components, 2) // {a,b} and {c}
}
