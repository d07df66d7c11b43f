package templateengine

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/scystream/control-plane/internal/domain/graph"
)

// Document mirrors the workflow-template YAML shape ("Workflow template
// format").
type Document struct {
	Pipeline PipelineHeader  `yaml:"pipeline"`
	Blocks   []TemplateBlock `yaml:"blocks"`
}

type PipelineHeader struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags,omitempty"`
}

type TemplateBlock struct {
	Name       string                 `yaml:"name"`
	RepoURL    string                 `yaml:"repo_url"`
	Entrypoint string                 `yaml:"entrypoint"`
	Settings   map[string]wireValue   `yaml:"settings,omitempty"`
	Inputs     []TemplateIO           `yaml:"inputs,omitempty"`
	Outputs    []TemplateIO           `yaml:"outputs,omitempty"`
}

type TemplateIO struct {
	Identifier string               `yaml:"identifier"`
	Settings   map[string]wireValue `yaml:"settings,omitempty"`
	DependsOn  *DependsOn           `yaml:"depends_on,omitempty"`
}

type DependsOn struct {
	Block  string `yaml:"block"`
	Output string `yaml:"output"`
}

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
		return fmt.Errorf("unsupported settings value kind %v", value.Kind)
	}
	return nil
}

func toConfig(m map[string]wireValue) graph.Config {
	cfg := make(graph.Config, len(m))
	for k, v := range m {
		cfg[k] = graph.ConfigValue{Scalar: v.scalar, List: v.list, IsNull: v.isNull}
	}
	return cfg
}

// ParseDocument parses a workflow template document from YAML bytes.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	if doc.Pipeline.Name == "" || len(doc.Blocks) == 0 {
		return Document{}, fmt.Errorf("template missing pipeline name or blocks")
	}
	return doc, nil
}
