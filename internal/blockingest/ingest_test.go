package blockingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/domain/manifest"
	"github.com/scystream/control-plane/internal/logging"
	"github.com/scystream/control-plane/internal/ports"
)

type fakeFetcher struct {
	manifest manifest.BlockManifest
}

func (f *fakeFetcher) Fetch(ctx context.Context, repoURL string) (manifest.BlockManifest, error) {
	return f.manifest, nil
}

type fakeStore struct {
	ports.GraphStore
	got ports.CreateBlockInput
}

func (f *fakeStore) CreateBlock(ctx context.Context, input ports.CreateBlockInput) (*ports.BlockView, error) {
	f.got = input
	return &ports.BlockView{Block: graph.Block{ID: "b-1", DisplayName: input.DisplayName}}, nil
}

func strp(s string) *string { return &s }

func TestIngestAppliesOutputDefaults(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{manifest: manifest.BlockManifest{
		Name: "csv-reader",
		Entrypoints: map[string]manifest.EntrypointManifest{
			"main": {
				Name: "main",
				Outputs: map[string]manifest.PortManifest{
					"out": {DataType: graph.DataTypeFile, Config: graph.Config{"OUT_S3_HOST": {Scalar: strp("")}}},
				},
			},
		},
	}}
	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{S3Host: "minio"})

	ing := New(fetcher, store, provider, logging.NoOp{})
	view, err := ing.Ingest(context.Background(), Params{ProjectID: "p-1", RepoURL: "git://x", EntrypointName: "main"})
	require.NoError(t, err)
	require.Equal(t, "csv-reader", store.got.DisplayName)
	require.Equal(t, "b-1", view.Block.ID)

	var outPort ports.PortInput
	for _, p := range store.got.Outputs {
		if p.Name == "out" {
			outPort = p
		}
	}
	require.Equal(t, "minio", *outPort.Config["OUT_S3_HOST"].Scalar)
}

func TestIngestRejectsUnknownEntrypoint(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{manifest: manifest.BlockManifest{Name: "x", Entrypoints: map[string]manifest.EntrypointManifest{}}}
	ing := New(fetcher, &fakeStore{}, defaultconfig.NewProvider(defaultconfig.Settings{}), logging.NoOp{})

	_, err := ing.Ingest(context.Background(), Params{ProjectID: "p-1", RepoURL: "git://x", EntrypointName: "missing"})
	require.Error(t, err)
}
