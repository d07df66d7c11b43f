package configengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/logging"
	"github.com/scystream/control-plane/internal/ports"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

type fakeStore struct {
	ports.GraphStore
	createdEdge      graph.Edge
	downstreamConfig graph.Config
	updatedPortID    string
	updatedConfig    graph.Config
	cascade          map[string]graph.Config
}

func (f *fakeStore) CreateEdge(ctx context.Context, edge graph.Edge, downstreamConfig graph.Config) error {
	f.createdEdge = edge
	f.downstreamConfig = downstreamConfig
	return nil
}

func (f *fakeStore) DeleteEdge(ctx context.Context, edge graph.Edge) error { return nil }

func (f *fakeStore) UpdatePortConfig(ctx context.Context, portID string, newConfig graph.Config, cascade map[string]graph.Config) error {
	f.updatedPortID = portID
	f.updatedConfig = newConfig
	f.cascade = cascade
	return nil
}

func scalarv(s string) graph.ConfigValue { v := s; return graph.ConfigValue{Scalar: &v} }

func TestCreateEdgePropagatesDefaultsOnFileType(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{})
	eng := New(store, provider, logging.NoOp{})

	upstream := graph.Port{ID: "o1", Direction: graph.DirectionOutput, DataType: graph.DataTypeFile, Config: graph.Config{
		"OUT_S3_HOST":  scalarv("h"),
		"OUT_FILE_NAME": scalarv("file_42"),
	}}
	downstream := graph.Port{ID: "i1", Direction: graph.DirectionInput, DataType: graph.DataTypeFile, Config: graph.Config{
		"IN_S3_HOST":  scalarv(""),
		"IN_FILE_NAME": scalarv(""),
	}}

	err := eng.CreateEdge(context.Background(), CreateEdgeParams{
		Upstream: upstream, UpstreamBlock: "bA",
		Downstream: downstream, DownstreamBlock: "bB",
	})
	require.NoError(t, err)
	require.Equal(t, "h", *store.downstreamConfig["IN_S3_HOST"].Scalar)
	require.Equal(t, "file_42", *store.downstreamConfig["IN_FILE_NAME"].Scalar)
}

func TestCreateEdgeRejectsTypeMismatch(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{})
	eng := New(store, provider, logging.NoOp{})

	upstream := graph.Port{ID: "o1", Direction: graph.DirectionOutput, DataType: graph.DataTypeFile}
	downstream := graph.Port{ID: "i1", Direction: graph.DirectionInput, DataType: graph.DataTypePGTable}

	err := eng.CreateEdge(context.Background(), CreateEdgeParams{Upstream: upstream, Downstream: downstream})
	require.Equal(t, cperrors.CodeTypeMismatch, cperrors.Coerce(err))
}

func TestCreateEdgeCustomRequiresConsentAndSkipsPropagation(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{})
	eng := New(store, provider, logging.NoOp{})

	upstream := graph.Port{ID: "o1", Direction: graph.DirectionOutput, DataType: graph.DataTypeCustom, Config: graph.Config{"K": scalarv("v")}}
	downstream := graph.Port{ID: "i1", Direction: graph.DirectionInput, DataType: graph.DataTypeCustom, Config: graph.Config{"K": scalarv("unchanged")}}

	err := eng.CreateEdge(context.Background(), CreateEdgeParams{
		Upstream: upstream, Downstream: downstream, CustomConsent: true,
	})
	require.NoError(t, err)
	require.Equal(t, "unchanged", *store.downstreamConfig["K"].Scalar)
}

func TestUpdatePortConfigRejectsNewKeys(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{})
	eng := New(store, provider, logging.NoOp{})

	port := graph.Port{ID: "p1", Direction: graph.DirectionOutput, DataType: graph.DataTypeFile, Config: graph.Config{"S3_HOST": scalarv("h")}}

	err := eng.UpdatePortConfig(context.Background(), port, graph.Config{"NEW": scalarv("v")}, nil, nil)
	require.Equal(t, cperrors.CodeConfigKeysMismatch, cperrors.Coerce(err))
}

func TestUpdatePortConfigCascadesOnlyForFileAndPGTable(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{})
	eng := New(store, provider, logging.NoOp{})

	port := graph.Port{ID: "o1", Direction: graph.DirectionOutput, DataType: graph.DataTypeFile, Config: graph.Config{"OUT_S3_HOST": scalarv("old")}}
	downstreamPort := graph.Port{ID: "i1", Config: graph.Config{"IN_S3_HOST": scalarv("")}}
	edges := []graph.Edge{{UpstreamPortID: "o1", DownstreamPortID: "i1"}}

	err := eng.UpdatePortConfig(context.Background(), port, graph.Config{"OUT_S3_HOST": scalarv("new")}, []graph.Port{downstreamPort}, edges)
	require.NoError(t, err)
	require.Equal(t, "new", *store.cascade["i1"]["IN_S3_HOST"].Scalar)
}

func TestUpdatePortConfigDoesNotCascadeForCustom(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{})
	eng := New(store, provider, logging.NoOp{})

	port := graph.Port{ID: "o1", Direction: graph.DirectionOutput, DataType: graph.DataTypeCustom, Config: graph.Config{"K": scalarv("old")}}

	err := eng.UpdatePortConfig(context.Background(), port, graph.Config{"K": scalarv("new")}, nil, nil)
	require.NoError(t, err)
	require.Empty(t, store.cascade)
}
