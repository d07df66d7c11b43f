package api

import (
	"encoding/json"
	"fmt"

	"github.com/scystream/control-plane/internal/domain/graph"
)

// wireValue is the JSON counterpart of graph.ConfigValue: a scalar string,
// a list of strings, or null, matching the request bodies of PATCH
// /ports/:port_id and PATCH /entrypoints/:entrypoint_id/envs.
type wireValue struct {
	scalar *string
	list   []string
	isNull bool
}

func (v *wireValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		v.isNull = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.scalar = &s
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		v.list = list
		return nil
	}
	return fmt.Errorf("config value must be a string, a list of strings, or null")
}

func (v wireValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.isNull:
		return []byte("null"), nil
	case v.list != nil:
		return json.Marshal(v.list)
	case v.scalar != nil:
		return json.Marshal(*v.scalar)
	default:
		return []byte("null"), nil
	}
}

func toGraphConfig(m map[string]wireValue) graph.Config {
	cfg := make(graph.Config, len(m))
	for k, v := range m {
		cfg[k] = graph.ConfigValue{Scalar: v.scalar, List: v.list, IsNull: v.isNull}
	}
	return cfg
}
