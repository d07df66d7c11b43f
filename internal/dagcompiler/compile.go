// Package dagcompiler renders the in-memory pipeline graph of a project
// into a DAG artifact file consumed by the external workflow engine.
package dagcompiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/ports"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

// Compiler renders DAG artifacts from a project's persisted graph.
type Compiler struct {
	store     ports.GraphStore
	outputDir string
	logger    ports.Logger
}

// New returns a Compiler that writes artifacts under outputDir.
func New(store ports.GraphStore, outputDir string, logger ports.Logger) *Compiler {
	return &Compiler{store: store, outputDir: outputDir, logger: logger}
}

// ArtifactPath returns the path Compile would write to for projectID,
// without compiling anything (the orchestrator's own naming contract).
func (c *Compiler) ArtifactPath(projectID string) string {
	return filepath.Join(c.outputDir, fmt.Sprintf("dag_%s.py", toUnderscored(projectID)))
}

// Compile loads projectID's blocks, ports, and edges, verifies the graph is
// a connected DAG, and writes the rendered artifact atomically. Returns the
// written path.
func (c *Compiler) Compile(ctx context.Context, projectID string) (string, error) {
	blocks, err := c.store.ProjectBlocks(ctx, projectID)
	if err != nil {
		return "", err
	}
	if len(blocks) == 0 {
		return "", cperrors.NewEmptyProjectError(projectID)
	}

	blockIDs := make([]string, 0, len(blocks))
	for _, b := range blocks {
		blockIDs = append(blockIDs, b.Block.ID)
	}
	edges, err := c.store.ProjectEdges(ctx, projectID, blockIDs)
	if err != nil {
		return "", err
	}

	depGraph := graph.BuildProjectGraph(blockIDs, edges)
	if cycle := depGraph.DetectCycle(); cycle != nil {
		return "", cperrors.NewCyclicError("project", cycle)
	}
	if components := depGraph.WeaklyConnectedComponents(); len(components) > 1 {
		return "", cperrors.NewDisconnectedError(len(components))
	}

	artifact, err := render(projectID, blocks, edges)
	if err != nil {
		return "", err
	}

	path := c.ArtifactPath(projectID)
	if err := writeAtomic(path, artifact); err != nil {
		return "", fmt.Errorf("write dag artifact: %w", err)
	}
	if c.logger != nil {
		c.logger.Info(ctx, "dag artifact compiled", "project_id", projectID, "path", path, "blocks", len(blocks), "edges", len(edges))
	}
	return path, nil
}

// toUnderscored applies the task id substitution: dashes become underscores.
func toUnderscored(id string) string {
	return strings.ReplaceAll(id, "-", "_")
}

// taskID derives a task id from a block id by the reversible substitution
// of the rendered artifact.
func taskID(blockID string) string {
	return "task_" + toUnderscored(blockID)
}

func render(projectID string, blocks []ports.BlockView, edges []graph.Edge) ([]byte, error) {
	var buf bytes.Buffer
	if err := headerTemplate.Execute(&buf, struct{ DAGID string }{DAGID: toUnderscored(projectID)}); err != nil {
		return nil, fmt.Errorf("render header: %w", err)
	}

	sorted := make([]ports.BlockView, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Block.ID < sorted[j].Block.ID })

	for _, b := range sorted {
		env, err := flattenEnvironment(b)
		if err != nil {
			return nil, fmt.Errorf("flatten environment for block %s: %w", b.Block.ID, err)
		}
		node := taskNode{
			TaskID:                   taskID(b.Block.ID),
			Image:                    b.Block.Image,
			Name:                     b.Block.DisplayName,
			UUID:                     b.Block.ID,
			EntryName:                b.Entrypoint.Name,
			Project:                  projectID,
			Environment:              env,
			LocalStoragePathExternal: "",
			NetworkMode:              "bridge",
		}
		if err := taskTemplate.Execute(&buf, node); err != nil {
			return nil, fmt.Errorf("render task %s: %w", b.Block.ID, err)
		}
	}

	sortedEdges := make([]graph.Edge, len(edges))
	copy(sortedEdges, edges)
	sort.Slice(sortedEdges, func(i, j int) bool {
		if sortedEdges[i].UpstreamBlockID != sortedEdges[j].UpstreamBlockID {
			return sortedEdges[i].UpstreamBlockID < sortedEdges[j].UpstreamBlockID
		}
		return sortedEdges[i].DownstreamBlockID < sortedEdges[j].DownstreamBlockID
	})
	for _, e := range sortedEdges {
		dep := dependencyEdge{FromTask: taskID(e.UpstreamBlockID), ToTask: taskID(e.DownstreamBlockID)}
		if err := edgeTemplate.Execute(&buf, dep); err != nil {
			return nil, fmt.Errorf("render edge %s->%s: %w", e.UpstreamBlockID, e.DownstreamBlockID, err)
		}
	}

	return buf.Bytes(), nil
}

// flattenEnvironment builds the node's environment map: entrypoint envs
// union every port's config, list values JSON-encoded, everything else
// stringified, rendered as a Python dict literal.
func flattenEnvironment(b ports.BlockView) (string, error) {
	flat := make(map[string]string)
	if err := mergeConfigInto(flat, b.Entrypoint.Envs); err != nil {
		return "", err
	}
	for _, p := range b.Ports {
		if err := mergeConfigInto(flat, p.Config); err != nil {
			return "", err
		}
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%q: %q", k, flat[k])
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func mergeConfigInto(flat map[string]string, cfg graph.Config) error {
	for k, v := range cfg {
		switch {
		case v.IsNull:
			flat[k] = ""
		case v.List != nil:
			b, err := json.Marshal(v.List)
			if err != nil {
				return err
			}
			flat[k] = string(b)
		case v.Scalar != nil:
			flat[k] = *v.Scalar
		default:
			flat[k] = ""
		}
	}
	return nil
}

// writeAtomic writes data to path via a temp file + rename, grounded on the
// registry's atomic-write pattern: never leave a partially written artifact
// visible to the orchestrator.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
