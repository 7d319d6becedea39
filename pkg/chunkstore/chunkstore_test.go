package chunkstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burstfs/burstfs/pkg/chunkid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), 64, false)
	require.NoError(t, err)
	return s
}

func TestNew_RejectsZeroChunkSize(t *testing.T) {
	t.Parallel()
	_, err := New(t.TempDir(), 0, false)
	assert.Error(t, err)
}

func TestNew_RejectsMissingRoot(t *testing.T) {
	t.Parallel()
	_, err := New("/no/such/directory/hopefully", 64, false)
	assert.Error(t, err)
}

func TestWriteReadChunk_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	in := []byte("0123456789")
	n, err := s.WriteChunk("/file", 0, in, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(in)), n)

	out := make([]byte, len(in))
	n, err = s.ReadChunk("/file", 0, out, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(in)), n)
	assert.Equal(t, in, out)
}

func TestReadChunk_MissingFileIsHole(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	buf := make([]byte, 16)
	n, err := s.ReadChunk("/nope", 3, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
	assert.Equal(t, make([]byte, 16), buf)
}

func TestWriteChunk_RejectsOverflow(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.WriteChunk("/file", 0, make([]byte, 10), 60)
	require.Error(t, err)
	var serr *Error
	require.ErrorAs(t, err, &serr)
}

func TestWriteChunk_ZeroLengthIsNoop(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	n, err := s.WriteChunk("/file", 0, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}

func TestTruncateChunkFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.WriteChunk("/file", 0, []byte("0123456789"), 0)
	require.NoError(t, err)

	require.NoError(t, s.TruncateChunkFile("/file", 0, 4))

	out := make([]byte, 10)
	n, err := s.ReadChunk("/file", 0, out, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
	assert.Equal(t, []byte("0123"), out[:4])
}

func TestTruncateChunkFile_MissingIsNoop(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	assert.NoError(t, s.TruncateChunkFile("/never-written", 0, 8))
}

func TestTruncateChunkFile_RejectsOutOfRangeLength(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	assert.Error(t, s.TruncateChunkFile("/file", 0, 0))
	assert.Error(t, s.TruncateChunkFile("/file", 0, 1000))
}

func TestTrimChunkSpace(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for id := chunkid.ID(0); id < 5; id++ {
		_, err := s.WriteChunk("/file", id, []byte("data"), 0)
		require.NoError(t, err)
	}

	require.NoError(t, s.TrimChunkSpace("/file", 2))

	for id := chunkid.ID(0); id < 5; id++ {
		buf := make([]byte, 4)
		n, err := s.ReadChunk("/file", id, buf, 0)
		require.NoError(t, err)
		if id < 2 {
			assert.Equal(t, uint64(4), n, "chunk %d should survive trim", id)
		} else {
			assert.Equal(t, uint64(0), n, "chunk %d should have been trimmed", id)
		}
	}
}

func TestTrimChunkSpace_MissingDirIsNoop(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	assert.NoError(t, s.TrimChunkSpace("/never-touched", 0))
}

func TestDestroyChunkSpace(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.WriteChunk("/file", 0, []byte("data"), 0)
	require.NoError(t, err)
	require.NoError(t, s.DestroyChunkSpace("/file"))

	buf := make([]byte, 4)
	n, err := s.ReadChunk("/file", 0, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}

func TestChunkStat(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	stat, err := s.ChunkStat()
	require.NoError(t, err)
	assert.Equal(t, uint64(64), stat.ChunkSize)
	assert.Greater(t, stat.ChunkTotal, uint64(0))
}

func TestWriteChunk_Durable(t *testing.T) {
	t.Parallel()
	s, err := New(t.TempDir(), 64, true)
	require.NoError(t, err)

	n, err := s.WriteChunk("/file", 0, []byte("durable write"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(len("durable write")), n)
}
