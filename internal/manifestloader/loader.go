// Package manifestloader clones a Compute Block's source repository and
// parses its declarative manifest into a typed BlockManifest.
package manifestloader

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"

	"github.com/scystream/control-plane/internal/domain/manifest"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

// ManifestFileName is the fixed file name located at the repository root.
const ManifestFileName = "block.yaml"

// Loader fetches and parses block manifests from git repositories.
type Loader struct {
	cloneTimeout time.Duration
	scratchDir   string
}

// New returns a Loader. cloneTimeout bounds each shallow clone; scratchDir
// is the parent directory under which per-fetch scratch directories are
// created (empty string uses the OS temp directory).
func New(cloneTimeout time.Duration, scratchDir string) *Loader {
	return &Loader{cloneTimeout: cloneTimeout, scratchDir: scratchDir}
}

// Fetch clones repoURL shallowly on a single branch, parses the manifest
// file at its root, and returns the normalized BlockManifest. The scratch
// clone directory is removed on every exit path.
func (l *Loader) Fetch(ctx context.Context, repoURL string) (manifest.BlockManifest, error) {
	dir, err := os.MkdirTemp(l.scratchDir, "manifest-*")
	if err != nil {
		return manifest.BlockManifest{}, cperrors.NewRepoUnreachableError(repoURL, err)
	}
	defer os.RemoveAll(dir)

	cloneCtx, cancel := context.WithTimeout(ctx, l.cloneTimeout)
	defer cancel()

	cloneOpts := &git.CloneOptions{
		URL:          repoURL,
		Depth:        1,
		SingleBranch: true,
	}
	if isSSHURL(repoURL) {
		auth, err := sshAuthMethod(repoURL)
		if err != nil {
			return manifest.BlockManifest{}, cperrors.NewRepoUnreachableError(repoURL, err)
		}
		cloneOpts.Auth = auth
	}

	_, err = git.PlainCloneContext(cloneCtx, dir, false, cloneOpts)
	if err != nil {
		return manifest.BlockManifest{}, cperrors.NewRepoUnreachableError(repoURL, err)
	}

	manifestPath := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return manifest.BlockManifest{}, cperrors.NewManifestNotFoundError(repoURL)
		}
		return manifest.BlockManifest{}, cperrors.NewManifestInvalidError(repoURL, err)
	}

	parsed, err := parseManifest(data)
	if err != nil {
		return manifest.BlockManifest{}, cperrors.NewManifestInvalidError(repoURL, err)
	}
	return parsed, nil
}

// isSSHURL reports whether repoURL names an SSH transport: an explicit
// "ssh://" scheme, or the scp-like "git@host:path" shorthand (no "://" at
// all). An "https://user@host/..." URL carries userinfo, not an SSH
// transport, and must not match.
func isSSHURL(repoURL string) bool {
	if strings.HasPrefix(repoURL, "ssh://") {
		return true
	}
	return !strings.Contains(repoURL, "://") && strings.Contains(repoURL, "@")
}

// sshAuthMethod builds the SSH auth for repoURL from the local ssh-agent,
// with host-key verification disabled per §4.A ("strict-host-key checks
// disabled for SSH"). Source repos are operator-supplied manifest hosts,
// not arbitrary user input, so skipping known_hosts verification here
// trades host-key pinning for zero-config cloning.
func sshAuthMethod(repoURL string) (transport.AuthMethod, error) {
	auth, err := gitssh.NewSSHAgentAuth(sshUser(repoURL))
	if err != nil {
		return nil, err
	}
	auth.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	return auth, nil
}

// sshUser extracts the SSH user from repoURL ("git@host:path" or
// "ssh://user@host/path"), defaulting to "git" as most git hosts do.
func sshUser(repoURL string) string {
	if strings.HasPrefix(repoURL, "ssh://") {
		if u, err := url.Parse(repoURL); err == nil && u.User != nil && u.User.Username() != "" {
			return u.User.Username()
		}
		return "git"
	}
	if i := strings.Index(repoURL, "@"); i > 0 {
		return repoURL[:i]
	}
	return "git"
}
