package journal

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndReplay(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, j.Append(EntryApplying, "ws-1", "i-1", "user@example.com", map[string]string{"kind": "stop"}))
	require.NoError(t, j.AppendError(EntryApplyFailed, "ws-1", "i-1", "user@example.com", nil, errors.New("throttled")))
	require.NoError(t, j.Close())

	files, err := filepath.Glob(filepath.Join(dir, "frugal-*.journal"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	r, err := NewReader(files[0])
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EntryApplying, first.Type)
	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, "ws-1", first.WorkspaceID)

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EntryApplyFailed, second.Type)
	assert.Equal(t, "throttled", second.Error)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRotationBySize(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	require.NoError(t, err)
	j.maxSize = 256 // force rotation quickly

	for i := 0; i < 10; i++ {
		require.NoError(t, j.Append(EntryApplied, "ws-1", "i-1", "actor", map[string]string{"padding": "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"}))
	}
	require.NoError(t, j.Close())

	files, err := filepath.Glob(filepath.Join(dir, "frugal-*.journal"))
	require.NoError(t, err)
	assert.Greater(t, len(files), 1, "writes beyond max size rotate to a new file")

	stats := j.GetStats()
	assert.Equal(t, int64(10), stats.LastSequence, "sequence is continuous across rotation")
	assert.Equal(t, len(files), stats.TotalFiles)
}
