package database

import (
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MetricsStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	return NewMetricsStore(db, hclog.NewNullLogger())
}

func TestRecordAndLatest(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordPreview("/media/a.mkv", true, 12.5, 3.1))
	require.NoError(t, store.RecordPreview("/media/b.mkv", false, 40.0, 0.9))

	metrics, err := store.Latest(10)
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	// Newest first.
	assert.Equal(t, "/media/b.mkv", metrics[0].VideoFile)
	assert.False(t, metrics[0].HWAccel)
	assert.Equal(t, "/media/a.mkv", metrics[1].VideoFile)
	assert.True(t, metrics[1].HWAccel)
	assert.Equal(t, 12.5, metrics[1].TimeSeconds)
	assert.Equal(t, 3.1, metrics[1].Speed)
}

func TestLatestHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordPreview("/media/a.mkv", false, 1, 1))
	}

	metrics, err := store.Latest(3)
	require.NoError(t, err)
	assert.Len(t, metrics, 3)
}

func TestLatestDefaultsLimit(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.RecordPreview("/media/a.mkv", false, 1, 1))

	metrics, err := store.Latest(0)
	require.NoError(t, err)
	assert.Len(t, metrics, 1)
}
