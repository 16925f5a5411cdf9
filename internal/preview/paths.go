package preview

import (
	"fmt"
	"path/filepath"
	"strings"
)

// artifactName is the preview index filename Plex looks for inside a
// bundle's Indexes directory.
const artifactName = "index-sd.bif"

// NormalizePath converts any backslash separators to forward slashes. It is
// applied uniformly at the system boundary regardless of host platform, so
// paths reported by a Windows-hosted Plex server resolve the same way
// everywhere.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// RemapPath rewrites a configured path prefix, used when the Plex server
// reports source files under a different mount than this machine sees.
func RemapPath(path, from, to string) string {
	if from == "" {
		return path
	}
	return strings.Replace(path, from, to, 1)
}

// bundlePaths holds the per-item storage locations derived from its content
// hash.
type bundlePaths struct {
	indexesDir string
	artifact   string
	tmpDir     string
}

// newBundlePaths derives storage locations: the hash's first character
// selects a shard directory and the remainder forms the bundle name.
func newBundlePaths(mediaPath, tmpRoot, hash string) (bundlePaths, error) {
	if len(hash) < 2 {
		return bundlePaths{}, fmt.Errorf("content hash %q too short to derive bundle path", hash)
	}

	bundleDir := NormalizePath(filepath.Join(mediaPath, "localhost", hash[:1], hash[1:]+".bundle"))
	indexesDir := NormalizePath(filepath.Join(bundleDir, "Contents", "Indexes"))

	return bundlePaths{
		indexesDir: indexesDir,
		artifact:   NormalizePath(filepath.Join(indexesDir, artifactName)),
		tmpDir:     NormalizePath(filepath.Join(tmpRoot, hash)),
	}, nil
}
