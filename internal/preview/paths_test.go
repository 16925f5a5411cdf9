package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/media/tv/show.mkv", NormalizePath("/media/tv/show.mkv"))
	assert.Equal(t, "C:/Media/TV/show.mkv", NormalizePath(`C:\Media\TV\show.mkv`))
	assert.Equal(t, "//server/share/file", NormalizePath(`\\server\share\file`))
}

func TestRemapPath(t *testing.T) {
	assert.Equal(t, "/mnt/media/tv/a.mkv", RemapPath("/data/tv/a.mkv", "/data", "/mnt/media"))

	// Only the first occurrence is rewritten.
	assert.Equal(t, "/mnt/data/data/a.mkv", RemapPath("/data/data/a.mkv", "/data", "/mnt/data"))

	// An empty mapping is a no-op.
	assert.Equal(t, "/data/tv/a.mkv", RemapPath("/data/tv/a.mkv", "", "/mnt"))
}

func TestBundlePathSharding(t *testing.T) {
	paths, err := newBundlePaths("/plex/Media", "/dev/shm/previews", "ab12cd")
	require.NoError(t, err)

	assert.Equal(t, "/plex/Media/localhost/a/b12cd.bundle/Contents/Indexes", paths.indexesDir)
	assert.Equal(t, "/plex/Media/localhost/a/b12cd.bundle/Contents/Indexes/index-sd.bif", paths.artifact)
	assert.Equal(t, "/dev/shm/previews/ab12cd", paths.tmpDir)
}

func TestBundlePathRejectsShortHash(t *testing.T) {
	for _, hash := range []string{"", "a"} {
		_, err := newBundlePaths("/plex", "/tmp", hash)
		assert.Error(t, err, "hash %q", hash)
	}
}
