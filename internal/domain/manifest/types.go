// Package manifest holds the typed representation of a Compute Block's
// declarative manifest, as fetched and parsed by internal/manifestloader.
package manifest

import "github.com/scystream/control-plane/internal/domain/graph"

// PortManifest is one declared input or output inside an entrypoint.
type PortManifest struct {
	Name        string
	DataType    graph.DataType
	Description string
	Config      graph.Config
}

// EntrypointManifest is one named invocation surface declared by the block.
type EntrypointManifest struct {
	Name        string
	Description string
	Envs        graph.Config
	Inputs      map[string]PortManifest
	Outputs     map[string]PortManifest
}

// BlockManifest is the fully parsed, normalized manifest of a Compute Block.
type BlockManifest struct {
	Name        string
	Description string
	Author      string
	Image       string
	Entrypoints map[string]EntrypointManifest
}
