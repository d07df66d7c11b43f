package manifestloader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/domain/manifest"
)

// wireManifest mirrors the on-disk manifest YAML shape described in the
// external interfaces: name, description, author, docker_image, and a map
// of named entrypoints.
type wireManifest struct {
	Name        string                    `yaml:"name"`
	Description string                    `yaml:"description"`
	Author      string                    `yaml:"author"`
	Image       string                    `yaml:"docker_image"`
	Entrypoints map[string]wireEntrypoint `yaml:"entrypoints"`
}

type wireEntrypoint struct {
	Description string              `yaml:"description"`
	Envs        map[string]wireValue `yaml:"envs"`
	Inputs      map[string]wirePort  `yaml:"inputs"`
	Outputs     map[string]wirePort  `yaml:"outputs"`
}

type wirePort struct {
	Type        string               `yaml:"type"`
	Description string               `yaml:"description"`
	Config      map[string]wireValue `yaml:"config"`
}

// wireValue decodes the scalar|list|null config value variant.
type wireValue struct {
	scalar *string
	list   []string
	isNull bool
}

func (v *wireValue) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			v.isNull = true
			return nil
		}
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		v.scalar = &s
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		v.list = list
	default:
		return fmt.Errorf("unsupported config value kind %v", value.Kind)
	}
	return nil
}

func (v wireValue) toConfigValue() graph.ConfigValue {
	return graph.ConfigValue{Scalar: v.scalar, List: v.list, IsNull: v.isNull}
}

func toConfig(m map[string]wireValue) graph.Config {
	cfg := make(graph.Config, len(m))
	for k, v := range m {
		cfg[k] = v.toConfigValue()
	}
	return cfg
}

func toDataType(wireType string) graph.DataType {
	switch wireType {
	case "file":
		return graph.DataTypeFile
	case "db_table":
		return graph.DataTypePGTable
	default:
		return graph.DataTypeCustom
	}
}

func (w *wireManifest) normalize() manifest.BlockManifest {
	entrypoints := make(map[string]manifest.EntrypointManifest, len(w.Entrypoints))
	for name, ep := range w.Entrypoints {
		inputs := make(map[string]manifest.PortManifest, len(ep.Inputs))
		for id, p := range ep.Inputs {
			inputs[id] = manifest.PortManifest{
				Name:        id,
				DataType:    toDataType(p.Type),
				Description: p.Description,
				Config:      toConfig(p.Config),
			}
		}
		outputs := make(map[string]manifest.PortManifest, len(ep.Outputs))
		for id, p := range ep.Outputs {
			outputs[id] = manifest.PortManifest{
				Name:        id,
				DataType:    toDataType(p.Type),
				Description: p.Description,
				Config:      toConfig(p.Config),
			}
		}
		entrypoints[name] = manifest.EntrypointManifest{
			Name:        name,
			Description: ep.Description,
			Envs:        toConfig(ep.Envs),
			Inputs:      inputs,
			Outputs:     outputs,
		}
	}
	return manifest.BlockManifest{
		Name:        w.Name,
		Description: w.Description,
		Author:      w.Author,
		Image:       w.Image,
		Entrypoints: entrypoints,
	}
}

func parseManifest(data []byte) (manifest.BlockManifest, error) {
	var w wireManifest
	if err := yaml.Unmarshal(data, &w); err != nil {
		return manifest.BlockManifest{}, err
	}
	if w.Name == "" || w.Image == "" || len(w.Entrypoints) == 0 {
		return manifest.BlockManifest{}, fmt.Errorf("manifest missing required fields (name, docker_image, entrypoints)")
	}
	return w.normalize(), nil
}
