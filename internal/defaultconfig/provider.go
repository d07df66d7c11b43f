// Package defaultconfig implements the settings-schema-per-data-type
// provider: the default key set and generated values assigned to
// unconfigured typed outputs, and the inverse substring-extraction used to
// propagate those values across edges and namespaced port configs.
package defaultconfig

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/scystream/control-plane/internal/domain/graph"
)

// Settings is the process-wide default data-plane configuration that seeds
// generated default values (object-store endpoint/credentials, relational
// store endpoint/credentials). It is supplied once by internal/appconfig.
type Settings struct {
	S3Host      string
	S3Port      string
	S3AccessKey string
	S3SecretKey string
	BucketName  string

	PGUser string
	PGPass string
	PGHost string
	PGPort string
}

// descriptor is the per-data-type settings schema: a fixed set of default
// keys. Default keys must never be substrings of one another within the
// same descriptor, asserted at startup by MustValidateDescriptors.
type descriptor struct {
	dataType graph.DataType
	keys     []string
}

var descriptors = []descriptor{
	{
		dataType: graph.DataTypeFile,
		keys:     []string{"S3_HOST", "S3_PORT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "BUCKET_NAME", "FILE_PATH", "FILE_NAME"},
	},
	{
		dataType: graph.DataTypePGTable,
		keys:     []string{"PG_USER", "PG_PASS", "PG_HOST", "PG_PORT", "DB_TABLE"},
	},
}

// MustValidateDescriptors asserts that no descriptor's default keys are
// substrings of one another, the invariant the substring-matching rule
// depends on. Called once at startup.
func MustValidateDescriptors() {
	for _, d := range descriptors {
		for i, a := range d.keys {
			for j, b := range d.keys {
				if i == j {
					continue
				}
				if strings.Contains(b, a) {
					panic(fmt.Sprintf("defaultconfig: default key %q is a substring of %q for %s", a, b, d.dataType))
				}
			}
		}
	}
}

func descriptorFor(dataType graph.DataType) (descriptor, bool) {
	for _, d := range descriptors {
		if d.dataType == dataType {
			return d, true
		}
	}
	return descriptor{}, false
}

// Provider produces default config maps and extracts default values from
// arbitrary port configs.
type Provider struct {
	settings Settings
}

// NewProvider returns a Provider seeded with process-wide defaults.
func NewProvider(settings Settings) *Provider {
	return &Provider{settings: settings}
}

// Defaults returns the default key/value map for dataType, with a
// per-port uniquifier embedded in the generated file/table name. Returns
// (nil, false) for data types without a settings schema (CUSTOM).
func (p *Provider) Defaults(dataType graph.DataType, ioName string) (graph.Config, bool) {
	switch dataType {
	case graph.DataTypeFile:
		return graph.Config{
			"S3_HOST":       scalar(p.settings.S3Host),
			"S3_PORT":       scalar(p.settings.S3Port),
			"S3_ACCESS_KEY": scalar(p.settings.S3AccessKey),
			"S3_SECRET_KEY": scalar(p.settings.S3SecretKey),
			"BUCKET_NAME":   scalar(p.settings.BucketName),
			"FILE_PATH":     scalar(""),
			"FILE_NAME":     scalar(fmt.Sprintf("file_%s_%s", ioName, uuid.NewString())),
		}, true
	case graph.DataTypePGTable:
		return graph.Config{
			"PG_USER":  scalar(p.settings.PGUser),
			"PG_PASS":  scalar(p.settings.PGPass),
			"PG_HOST":  scalar(p.settings.PGHost),
			"PG_PORT":  scalar(p.settings.PGPort),
			"DB_TABLE": scalar(fmt.Sprintf("table_%s_%s", ioName, uuid.NewString())),
		}, true
	default:
		return nil, false
	}
}

// ExtractDefaults scans cfg and returns {default_key → value} for every
// config key that contains a default key of dataType as a substring. This
// is the inverse of Defaults: it lets a port's user-namespaced keys (e.g.
// INPUT1_S3_HOST) be recognized as instances of the default key S3_HOST.
func (p *Provider) ExtractDefaults(dataType graph.DataType, cfg graph.Config) map[string]graph.ConfigValue {
	d, ok := descriptorFor(dataType)
	if !ok {
		return nil
	}
	out := make(map[string]graph.ConfigValue)
	for _, defaultKey := range d.keys {
		for cfgKey, v := range cfg {
			if strings.Contains(cfgKey, defaultKey) {
				out[defaultKey] = v
				break
			}
		}
	}
	return out
}

// ApplyDefaultSubstitution overwrites, within target, every key that
// matches a default key (by substring) present in values, preserving
// target's own namespacing. Keys in target with no matching default key
// pass through unchanged. This implements the overwrite step shared by
// edge creation and port-update cascade.
func ApplyDefaultSubstitution(dataType graph.DataType, target graph.Config, values map[string]graph.ConfigValue) graph.Config {
	d, ok := descriptorFor(dataType)
	if !ok || len(values) == 0 {
		return target
	}
	out := make(graph.Config, len(target))
	for k, v := range target {
		out[k] = v
	}
	for cfgKey := range target {
		for _, defaultKey := range d.keys {
			if !strings.Contains(cfgKey, defaultKey) {
				continue
			}
			if v, ok := values[defaultKey]; ok {
				out[cfgKey] = v
			}
			break
		}
	}
	return out
}

func scalar(s string) graph.ConfigValue {
	v := s
	return graph.ConfigValue{Scalar: &v}
}
