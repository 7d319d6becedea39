// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package placement implements the deterministic, stateless mapping from a
// file path and chunk ID to the daemon that owns that chunk's bytes.
package placement

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/burstfs/burstfs/pkg/chunkid"
)

// Target groups the chunk IDs that one write or read call sends to a single
// daemon, mirroring one entry of the RPC input's target_chunks map.
type Target struct {
	DaemonID uint32
	Chunks   []chunkid.ID
}

// Placer maps (path, chunk ID) to an owning daemon. Implementations must be
// pure and stable: two calls with the same arguments always return the same
// daemon for the lifetime of a given HostSize.
type Placer interface {
	HostSize() uint32
	Place(path string, id chunkid.ID) uint32
}

// HashPlacer is the reference placement function: hash(path, chunk_id) mod
// host_size. It carries no mutable state; changing host_size means
// constructing a new HashPlacer, which the rest of the system treats as a
// fresh file system (old placements are no longer valid).
type HashPlacer struct {
	hostSize uint32
}

// New returns a HashPlacer over hostSize daemons. hostSize must be > 0.
func New(hostSize uint32) (*HashPlacer, error) {
	if hostSize == 0 {
		return nil, fmt.Errorf("placement: host_size must be > 0")
	}
	return &HashPlacer{hostSize: hostSize}, nil
}

func (p *HashPlacer) HostSize() uint32 { return p.hostSize }

// Place returns the daemon ID owning chunk id of path.
func (p *HashPlacer) Place(path string, id chunkid.ID) uint32 {
	return p.PlaceShard(path, id, 0)
}

// PlaceShard is Place generalized with a shard index, so that different
// shards of one chunk hash independently. Distinct shard indices are not
// guaranteed to map to distinct daemons, and no caller in this repository
// passes a non-zero index. shard_idx 0 reproduces Place's
// single-placement behavior exactly.
func (p *HashPlacer) PlaceShard(path string, id chunkid.ID, shardIdx uint32) uint32 {
	h := xxhash.New()
	_, _ = h.WriteString(path)

	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(id))
	binary.LittleEndian.PutUint32(buf[8:12], shardIdx)
	_, _ = h.Write(buf[:])

	return uint32(h.Sum64() % uint64(p.hostSize))
}

// Bucketize groups the inclusive chunk range [r.Start, r.End] by the daemon
// each chunk ID hashes to, preserving ascending chunk order within each
// bucket. It also reports the daemons owning the first and last chunk of
// the range. pkg/client groups chunks with its own helper and does not
// call Bucketize.
func Bucketize(p Placer, path string, r chunkid.Range) (targets map[uint32][]chunkid.ID, startTarget, endTarget uint32) {
	targets = make(map[uint32][]chunkid.ID)
	for id := r.Start; id <= r.End; id++ {
		d := p.Place(path, id)
		targets[d] = append(targets[d], id)
	}
	startTarget = p.Place(path, r.Start)
	endTarget = p.Place(path, r.End)
	return targets, startTarget, endTarget
}
