package graph

import cperrors "github.com/scystream/control-plane/pkg/errors"

// ValidateEdgeEndpoints enforces invariants 1 and 3 of the data model:
// direction correctness and data-type compatibility. customConsent must be
// true for the caller to connect two CUSTOM ports explicitly; it is ignored
// for any other data type.
func ValidateEdgeEndpoints(upstream, downstream *Port, customConsent bool) error {
	if upstream.Direction != DirectionOutput {
		return cperrors.NewTypeMismatchError(string(upstream.DataType), string(downstream.DataType))
	}
	if downstream.Direction != DirectionInput {
		return cperrors.NewTypeMismatchError(string(upstream.DataType), string(downstream.DataType))
	}
	if upstream.DataType != downstream.DataType {
		return cperrors.NewTypeMismatchError(string(upstream.DataType), string(downstream.DataType))
	}
	if upstream.DataType == DataTypeCustom && !customConsent {
		return cperrors.NewTypeMismatchError(string(upstream.DataType), string(downstream.DataType))
	}
	return nil
}

// ValidateConfigKeySubset enforces invariant 4: an update's key set must be
// a subset of the existing config's key set.
func ValidateConfigKeySubset(owner string, existing, update Config) error {
	var newKeys []string
	for k := range update {
		if _, ok := existing[k]; !ok {
			newKeys = append(newKeys, k)
		}
	}
	if len(newKeys) > 0 {
		return cperrors.NewConfigKeysMismatchError(owner, newKeys)
	}
	return nil
}

// PropagatesOnOutputUpdate reports whether a port-config update on a typed
// OUTPUT should cascade to downstream inputs. This fixes the logical-operator
// bug noted in the design notes (the source's `!= FILE or != PGTABLE` is
// always true): propagation must happen iff data_type is FILE or PGTABLE.
func PropagatesOnOutputUpdate(dataType DataType) bool {
	return dataType == DataTypeFile || dataType == DataTypePGTable
}

// BuildProjectGraph returns a DependencyGraph over block ids for the given
// edges, used by the DAG compiler's acyclicity and connectivity checks.
func BuildProjectGraph(blockIDs []string, edges []Edge) *DependencyGraph {
	g := NewDependencyGraph()
	for _, id := range blockIDs {
		g.AddNode(id)
	}
	for _, e := range edges {
		g.AddEdge(e.UpstreamBlockID, e.DownstreamBlockID)
	}
	return g
}
