package validation

import "github.com/scystream/control-plane/internal/domain/graph"

// ConfigKeySet adapts a graph.Config into the key-set shape used by
// KeySubset/NewKeys/RequireKeySubset.
func ConfigKeySet(cfg graph.Config) map[string]struct{} {
	out := make(map[string]struct{}, len(cfg))
	for k := range cfg {
		out[k] = struct{}{}
	}
	return out
}
