package dagcompiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/logging"
	"github.com/scystream/control-plane/internal/ports"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

type fakeStore struct {
	ports.GraphStore
	blocks []ports.BlockView
	edges  []graph.Edge
}

func (f *fakeStore) ProjectBlocks(ctx context.Context, projectID string) ([]ports.BlockView, error) {
	return f.blocks, nil
}

func (f *fakeStore) ProjectEdges(ctx context.Context, projectID string, blockIDs []string) ([]graph.Edge, error) {
	return f.edges, nil
}

func block(id, name string) ports.BlockView {
	return ports.BlockView{
		Block:      graph.Block{ID: id, DisplayName: name, Image: "img:1"},
		Entrypoint: graph.Entrypoint{Name: "main", Envs: graph.Config{}},
	}
}

func TestCompileWritesArtifactAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := &fakeStore{
		blocks: []ports.BlockView{block("a-1", "A"), block("b-2", "B")},
		edges:  []graph.Edge{{UpstreamBlockID: "a-1", DownstreamBlockID: "b-2"}},
	}
	c := New(store, dir, logging.NoOp{})

	path, err := c.Compile(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "dag_proj_1.py"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "task_a_1")
	require.Contains(t, string(data), "task_a_1.set_downstream(task_b_2)")

	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestCompileRejectsCycle(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		blocks: []ports.BlockView{block("a-1", "A"), block("b-2", "B")},
		edges: []graph.Edge{
			{UpstreamBlockID: "a-1", DownstreamBlockID: "b-2"},
			{UpstreamBlockID: "b-2", DownstreamBlockID: "a-1"},
		},
	}
	c := New(store, t.TempDir(), logging.NoOp{})

	_, err := c.Compile(context.Background(), "proj-1")
	require.Equal(t, cperrors.CodeCyclic, cperrors.Coerce(err))
}

func TestCompileRejectsDisconnectedGraph(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		blocks: []ports.BlockView{block("a-1", "A"), block("b-2", "B"), block("c-3", "C")},
		edges:  []graph.Edge{{UpstreamBlockID: "a-1", DownstreamBlockID: "b-2"}},
	}
	c := New(store, t.TempDir(), logging.NoOp{})

	_, err := c.Compile(context.Background(), "proj-1")
	require.Equal(t, cperrors.CodeDisconnected, cperrors.Coerce(err))
}

func TestCompileRejectsEmptyProject(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	c := New(store, t.TempDir(), logging.NoOp{})

	_, err := c.Compile(context.Background(), "proj-1")
	require.Equal(t, cperrors.CodeEmptyProject, cperrors.Coerce(err))
}
