package artifact

import (
	"context"
	"strings"
	"time"

	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/domain/graph"
	"github.com/scystream/control-plane/internal/ports"
)

// requiredKeys are the FILE descriptor keys every port must carry before it
// is eligible for location.
var requiredKeys = []string{"S3_HOST", "S3_PORT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "BUCKET_NAME", "FILE_PATH", "FILE_NAME"}

// LocatedObject is one object resolved for a FILE-typed port.
type LocatedObject struct {
	BlockID string
	PortID  string
	Key     string
	URL     string
}

// Locator resolves FILE-typed port configs to presigned object URLs.
type Locator struct {
	store        ports.GraphStore
	objects      ports.ObjectStore
	defaults     *defaultconfig.Provider
	internalHost string
	externalHost string
	ttl          time.Duration
}

// New returns a Locator. internalHost is the object-store host used inside
// the cluster; externalHost replaces it in every minted URL so clients
// outside the internal network can reach the object ("Host
// rewriting"). ttl is the presigned URL lifetime (default 24h). defaults
// supplies the substring-extraction rule (§3 invariant 5) used to resolve
// namespaced FILE descriptor keys like INPUT1_S3_HOST.
func New(store ports.GraphStore, objects ports.ObjectStore, defaults *defaultconfig.Provider, internalHost, externalHost string, ttl time.Duration) *Locator {
	return &Locator{store: store, objects: objects, defaults: defaults, internalHost: internalHost, externalHost: externalHost, ttl: ttl}
}

// Locate finds every object addressed by projectID's FILE-typed ports.
// Ports missing any required config key are silently skipped.
func (l *Locator) Locate(ctx context.Context, projectID string) ([]LocatedObject, error) {
	blocks, err := l.store.ProjectBlocks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	type target struct {
		blockID, portID, fileName string
		creds                     ports.ObjectStoreCredentials
		prefix                    string
	}

	groups := make(map[ports.ObjectStoreCredentials][]target)
	for _, b := range blocks {
		for _, p := range b.Ports {
			if p.DataType != graph.DataTypeFile {
				continue
			}
			values, ok := l.extractDescriptor(p.Config)
			if !ok {
				continue
			}

			host := values["S3_HOST"]
			if host == l.internalHost {
				host = l.externalHost
			}
			creds := ports.ObjectStoreCredentials{
				Host:      host,
				Port:      values["S3_PORT"],
				AccessKey: values["S3_ACCESS_KEY"],
				SecretKey: values["S3_SECRET_KEY"],
				Bucket:    values["BUCKET_NAME"],
			}
			groups[creds] = append(groups[creds], target{
				blockID:  b.Block.ID,
				portID:   p.ID,
				fileName: values["FILE_NAME"],
				creds:    creds,
				prefix:   values["FILE_PATH"],
			})
		}
	}

	var located []LocatedObject
	for creds, targets := range groups {
		byPrefix := make(map[string][]target)
		for _, t := range targets {
			byPrefix[t.prefix] = append(byPrefix[t.prefix], t)
		}
		for prefix, ts := range byPrefix {
			objs, err := l.objects.ListObjects(ctx, creds, prefix)
			if err != nil {
				return nil, err
			}
			for _, t := range ts {
				for _, o := range objs {
					if !strings.Contains(o.Key, t.fileName) {
						continue
					}
					url, err := l.objects.PresignGet(ctx, creds, o.Key, l.ttl)
					if err != nil {
						return nil, err
					}
					located = append(located, LocatedObject{BlockID: t.blockID, PortID: t.portID, Key: o.Key, URL: url})
				}
			}
		}
	}
	return located, nil
}

// extractDescriptor resolves the seven FILE descriptor keys out of cfg using
// the same substring-matching rule as edge propagation (§3 invariant 5):
// a config key "belongs" to a default key (e.g. S3_HOST) iff the default
// key is a substring of it, so namespaced keys like INPUT1_S3_HOST resolve
// correctly. ok is false if any descriptor key has no match or is
// unconfigured.
func (l *Locator) extractDescriptor(cfg graph.Config) (map[string]string, bool) {
	extracted := l.defaults.ExtractDefaults(graph.DataTypeFile, cfg)
	values := make(map[string]string, len(requiredKeys))
	for _, key := range requiredKeys {
		v, present := extracted[key]
		if !present || v.IsUnconfigured() {
			return nil, false
		}
		if v.Scalar == nil {
			return nil, false
		}
		values[key] = *v.Scalar
	}
	return values, true
}
