package templateengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/domain/manifest"
	"github.com/scystream/control-plane/internal/logging"
	"github.com/scystream/control-plane/internal/ports"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

type fakeFetcher struct {
	byURL map[string]manifest.BlockManifest
}

func (f *fakeFetcher) Fetch(ctx context.Context, repoURL string) (manifest.BlockManifest, error) {
	m, ok := f.byURL[repoURL]
	if !ok {
		return manifest.BlockManifest{}, cperrors.NewManifestNotFoundError(repoURL)
	}
	return m, nil
}

type fakeStore struct {
	ports.GraphStore
	gotBlocks []ports.CreateBlockInput
	gotEdges  []ports.TemplateEdgeInput
}

func (f *fakeStore) InstantiateTemplate(ctx context.Context, projectID string, blocks []ports.CreateBlockInput, edges []ports.TemplateEdgeInput) ([]ports.BlockView, error) {
	f.gotBlocks = blocks
	f.gotEdges = edges
	views := make([]ports.BlockView, 0, len(blocks))
	for _, b := range blocks {
		views = append(views, ports.BlockView{Block: graph.Block{DisplayName: b.DisplayName, ProjectID: projectID}})
	}
	return views, nil
}

func readerManifest() manifest.BlockManifest {
	return manifest.BlockManifest{
		Name: "reader", Description: "reads files", Author: "a", Image: "img:1",
		Entrypoints: map[string]manifest.EntrypointManifest{
			"main": {
				Name: "main",
				Outputs: map[string]manifest.PortManifest{
					"out1": {Name: "out1", DataType: graph.DataTypeFile, Config: graph.Config{
						"OUT1_S3_HOST": {Scalar: strp("")},
						"OUT1_FILE_NAME": {Scalar: strp("")},
					}},
				},
			},
		},
	}
}

func writerManifest() manifest.BlockManifest {
	return manifest.BlockManifest{
		Name: "writer", Description: "writes files", Author: "a", Image: "img:2",
		Entrypoints: map[string]manifest.EntrypointManifest{
			"main": {
				Name: "main",
				Inputs: map[string]manifest.PortManifest{
					"in1": {Name: "in1", DataType: graph.DataTypeFile, Config: graph.Config{
						"IN1_S3_HOST": {Scalar: strp("")},
						"IN1_FILE_NAME": {Scalar: strp("")},
					}},
				},
			},
		},
	}
}

func strp(s string) *string { return &s }

func TestInstantiateBuildsBlocksAndEdgesInTopoOrder(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{byURL: map[string]manifest.BlockManifest{
		"https://example.com/reader.git": readerManifest(),
		"https://example.com/writer.git": writerManifest(),
	}}
	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{S3Host: "minio"})
	eng := New(fetcher, store, provider, logging.NoOp{})

	doc := Document{
		Pipeline: PipelineHeader{Name: "pipe"},
		Blocks: []TemplateBlock{
			{Name: "w", RepoURL: "https://example.com/writer.git", Entrypoint: "main", Inputs: []TemplateIO{
				{Identifier: "in1", DependsOn: &DependsOn{Block: "r", Output: "out1"}},
			}},
			{Name: "r", RepoURL: "https://example.com/reader.git", Entrypoint: "main"},
		},
	}

	views, err := eng.Instantiate(context.Background(), "proj1", doc)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Len(t, store.gotEdges, 1)
	require.Equal(t, "r", store.gotEdges[0].UpstreamBlockName)
	require.Equal(t, "out1", store.gotEdges[0].UpstreamPortName)
	require.Equal(t, "w", store.gotEdges[0].DownstreamBlockName)
	require.Equal(t, "in1", store.gotEdges[0].DownstreamPortName)

	// reader (no deps) must be placed before writer in the build order.
	require.Equal(t, "r", store.gotBlocks[0].DisplayName)
	require.Equal(t, "w", store.gotBlocks[1].DisplayName)

	for _, p := range store.gotBlocks[0].Outputs {
		require.Equal(t, "minio", *p.Config["OUT1_S3_HOST"].Scalar)
	}
}

func TestInstantiateRejectsCyclicTemplate(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{byURL: map[string]manifest.BlockManifest{
		"https://example.com/a.git": writerManifest(),
		"https://example.com/b.git": readerManifest(),
	}}
	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{})
	eng := New(fetcher, store, provider, logging.NoOp{})

	doc := Document{
		Pipeline: PipelineHeader{Name: "pipe"},
		Blocks: []TemplateBlock{
			{Name: "a", RepoURL: "https://example.com/a.git", Entrypoint: "main", Inputs: []TemplateIO{
				{Identifier: "in1", DependsOn: &DependsOn{Block: "b", Output: "out1"}},
			}},
			{Name: "b", RepoURL: "https://example.com/b.git", Entrypoint: "main", Inputs: []TemplateIO{
				{Identifier: "in1", DependsOn: &DependsOn{Block: "a", Output: "out1"}},
			}},
		},
	}

	_, err := eng.Instantiate(context.Background(), "proj1", doc)
	require.Equal(t, cperrors.CodeTemplateCyclic, cperrors.Coerce(err))
}

func TestInstantiateRejectsUnknownEntrypoint(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{byURL: map[string]manifest.BlockManifest{
		"https://example.com/reader.git": readerManifest(),
	}}
	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{})
	eng := New(fetcher, store, provider, logging.NoOp{})

	doc := Document{
		Pipeline: PipelineHeader{Name: "pipe"},
		Blocks: []TemplateBlock{
			{Name: "r", RepoURL: "https://example.com/reader.git", Entrypoint: "missing"},
		},
	}

	_, err := eng.Instantiate(context.Background(), "proj1", doc)
	require.Equal(t, cperrors.CodeTemplateInvalid, cperrors.Coerce(err))
}

func TestInstantiateRejectsOverrideWithUnknownKey(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{byURL: map[string]manifest.BlockManifest{
		"https://example.com/reader.git": readerManifest(),
	}}
	store := &fakeStore{}
	provider := defaultconfig.NewProvider(defaultconfig.Settings{})
	eng := New(fetcher, store, provider, logging.NoOp{})

	doc := Document{
		Pipeline: PipelineHeader{Name: "pipe"},
		Blocks: []TemplateBlock{
			{Name: "r", RepoURL: "https://example.com/reader.git", Entrypoint: "main", Outputs: []TemplateIO{
				{Identifier: "out1", Settings: map[string]wireValue{"BOGUS_KEY": {scalar: strp("x")}}},
			}},
		},
	}

	_, err := eng.Instantiate(context.Background(), "proj1", doc)
	require.Equal(t, cperrors.CodeConfigKeysMismatch, cperrors.Coerce(err))
}
