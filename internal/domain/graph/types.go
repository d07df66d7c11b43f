// Package graph models the pipeline graph: projects, blocks, entrypoints,
// typed I/O ports, and the edges that connect them. The types here are pure
// value objects; the invariants that guard their mutation live in
// internal/configengine and internal/store, the two layers that actually
// perform mutations.
package graph

import "time"

// Direction is the orientation of a port on an entrypoint.
type Direction string

const (
	DirectionInput  Direction = "INPUT"
	DirectionOutput Direction = "OUTPUT"
)

// DataType is the storage kind of a port. It is a closed variant: FILE and
// PGTABLE carry a default settings schema (internal/defaultconfig), CUSTOM
// does not and never participates in automatic propagation.
type DataType string

const (
	DataTypeFile    DataType = "FILE"
	DataTypePGTable DataType = "PGTABLE"
	DataTypeCustom  DataType = "CUSTOM"
)

// ConfigValue is the tagged variant a config map's values hold: a scalar
// string, a list of strings, or null (absent/unset). List-ness is preserved
// through update/merge so the DAG compiler can re-encode it as JSON text.
type ConfigValue struct {
	Scalar *string
	List   []string
	IsNull bool
}

// Config is a named bag of ConfigValue, the shape used by entrypoint envs
// and port config.
type Config map[string]ConfigValue

// Keys returns the config's key set.
func (c Config) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(c))
	for k := range c {
		keys[k] = struct{}{}
	}
	return keys
}

// IsUnconfigured reports whether v is null, empty string, empty list, or
// (the map-valued case has no representation here, so) an empty list.
func (v ConfigValue) IsUnconfigured() bool {
	if v.IsNull {
		return true
	}
	if v.Scalar != nil {
		return *v.Scalar == ""
	}
	return len(v.List) == 0
}

// Merge overlays update onto c, returning a new Config. Both maps are
// assumed to already satisfy the key-subset invariant; callers enforce that
// separately before calling Merge.
func (c Config) Merge(update Config) Config {
	merged := make(Config, len(c))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}
	return merged
}

// Project is the top-level container: a named workspace owning a set of
// blocks, authorized by project membership rather than per-entity ACLs.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Members   map[string]struct{}
}

// HasMember reports whether userID is a member of the project.
func (p *Project) HasMember(userID string) bool {
	_, ok := p.Members[userID]
	return ok
}

// Block is one compute node placed on a project's canvas.
type Block struct {
	ID                string
	ProjectID         string
	ManifestName      string
	DisplayName       string
	Description       string
	Author            string
	Image             string
	ManifestURL       string
	X                 float64
	Y                 float64
	SelectedEntrypoint string
}

// Entrypoint is a named invocation surface of a block.
type Entrypoint struct {
	ID          string
	BlockID     string
	Name        string
	Description string
	Envs        Config
}

// Port is a typed, named input or output of an entrypoint.
type Port struct {
	ID           string
	EntrypointID string
	Direction    Direction
	Name         string
	DataType     DataType
	Description  string
	Config       Config
}

// Edge is a directed connection from one OUTPUT port to one INPUT port. Its
// identity is the four-tuple, never a synthetic surrogate key, per the
// association-table design in the data model.
type Edge struct {
	UpstreamBlockID    string
	UpstreamPortID     string
	DownstreamBlockID  string
	DownstreamPortID   string
}
