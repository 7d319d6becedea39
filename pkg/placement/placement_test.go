package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burstfs/burstfs/pkg/chunkid"
)

func TestNew_ZeroHostSize(t *testing.T) {
	t.Parallel()

	_, err := New(0)
	require.Error(t, err)
}

func TestPlace_Deterministic(t *testing.T) {
	t.Parallel()

	p, err := New(8)
	require.NoError(t, err)

	a := p.Place("/foo/bar", 42)
	b := p.Place("/foo/bar", 42)
	assert.Equal(t, a, b)
	assert.Less(t, a, uint32(8))
}

func TestPlace_DistributesAcrossHosts(t *testing.T) {
	t.Parallel()

	p, err := New(4)
	require.NoError(t, err)

	seen := make(map[uint32]bool)
	for i := chunkid.ID(0); i < 200; i++ {
		seen[p.Place("/big/file", i)] = true
	}
	assert.Greater(t, len(seen), 1, "expected chunk placement to spread across multiple daemons")
}

func TestPlaceShard_VariesByShardIndex(t *testing.T) {
	t.Parallel()

	p, err := New(16)
	require.NoError(t, err)

	// Not every shard index needs to collide, but shard 0 must reproduce
	// Place's single-placement behavior exactly.
	assert.Equal(t, p.Place("/x", 3), p.PlaceShard("/x", 3, 0))
}

func TestBucketize(t *testing.T) {
	t.Parallel()

	p, err := New(4)
	require.NoError(t, err)

	rng := chunkid.Range{Start: 0, End: 9}
	targets, startTarget, endTarget := Bucketize(p, "/f", rng)

	var total int
	for daemon, chunks := range targets {
		total += len(chunks)
		for _, id := range chunks {
			assert.Equal(t, daemon, p.Place("/f", id))
		}
		for i := 1; i < len(chunks); i++ {
			assert.Less(t, chunks[i-1], chunks[i], "chunks within a bucket must stay in ascending order")
		}
	}
	assert.Equal(t, int(rng.Count()), total)
	assert.Equal(t, p.Place("/f", rng.Start), startTarget)
	assert.Equal(t, p.Place("/f", rng.End), endTarget)
}
