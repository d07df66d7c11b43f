package store

import (
	"encoding/json"
	"fmt"

	"github.com/scystream/control-plane/internal/domain/graph"
)

// encodeConfig stores each graph.ConfigValue of cfg as a bare JSON scalar,
// a JSON array, or JSON null.
func encodeConfig(cfg graph.Config) ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(cfg))
	for k, v := range cfg {
		b, err := encodeConfigValue(v)
		if err != nil {
			return nil, fmt.Errorf("encode config key %q: %w", k, err)
		}
		raw[k] = b
	}
	return json.Marshal(raw)
}

func encodeConfigValue(v graph.ConfigValue) ([]byte, error) {
	switch {
	case v.IsNull:
		return json.Marshal(nil)
	case v.List != nil:
		return json.Marshal(v.List)
	default:
		scalar := ""
		if v.Scalar != nil {
			scalar = *v.Scalar
		}
		return json.Marshal(scalar)
	}
}

func decodeConfig(data []byte) (graph.Config, error) {
	if len(data) == 0 {
		return graph.Config{}, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg := make(graph.Config, len(raw))
	for k, v := range raw {
		val, err := decodeConfigValue(v)
		if err != nil {
			return nil, fmt.Errorf("decode config key %q: %w", k, err)
		}
		cfg[k] = val
	}
	return cfg, nil
}

func decodeConfigValue(data []byte) (graph.ConfigValue, error) {
	var asNull interface{}
	if err := json.Unmarshal(data, &asNull); err == nil && asNull == nil {
		return graph.ConfigValue{IsNull: true}, nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return graph.ConfigValue{List: list}, nil
	}

	var scalar string
	if err := json.Unmarshal(data, &scalar); err != nil {
		return graph.ConfigValue{}, fmt.Errorf("unsupported config value %s", string(data))
	}
	return graph.ConfigValue{Scalar: &scalar}, nil
}
