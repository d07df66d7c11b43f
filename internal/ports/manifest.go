package ports

import (
	"context"

	"github.com/scystream/control-plane/internal/domain/manifest"
)

// ManifestFetcher clones a block's source repository and parses its
// manifest. Implementations must remove their scratch clone
// directory on every exit path and translate failures into
// pkg/errors.ManifestError variants.
type ManifestFetcher interface {
	Fetch(ctx context.Context, repoURL string) (manifest.BlockManifest, error)
}
