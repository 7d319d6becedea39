// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package replica provides the N+K erasure coder for the §9 "replica
// hook": Coder splits a chunk's bytes into N data shards and K parity
// shards and reconstructs missing ones. The daemon only validates a shard
// configuration with it at startup; the client data path does not call
// it, so every chunk is still written to and read from a single owning
// daemon.
package replica

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// Coder splits a chunk's bytes into data+parity shards and reconstructs
// them on read when some shards are missing.
type Coder struct {
	enc          reedsolomon.Encoder
	dataShards   int
	parityShards int
}

// NewCoder returns a Coder for dataShards data shards and parityShards
// parity shards.
func NewCoder(dataShards, parityShards int) (*Coder, error) {
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("replica: new coder: %w", err)
	}
	return &Coder{enc: enc, dataShards: dataShards, parityShards: parityShards}, nil
}

func (c *Coder) DataShards() int   { return c.dataShards }
func (c *Coder) ParityShards() int { return c.parityShards }
func (c *Coder) TotalShards() int  { return c.dataShards + c.parityShards }

// Shard splits chunkBytes into DataShards()+ParityShards() equal-length
// byte slices, the last of which may be zero-padded, with parity shards
// computed over the data shards.
func (c *Coder) Shard(chunkBytes []byte) ([][]byte, error) {
	if len(chunkBytes) == 0 {
		return make([][]byte, c.TotalShards()), nil
	}
	shards, err := c.enc.Split(chunkBytes)
	if err != nil {
		return nil, fmt.Errorf("replica: split: %w", err)
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("replica: encode: %w", err)
	}
	return shards, nil
}

// Reconstruct fills in any nil entries of shards in place from the
// remaining shards, provided at least DataShards() of them are present.
func (c *Coder) Reconstruct(shards [][]byte) error {
	missing := false
	for _, s := range shards {
		if s == nil {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}
	if err := c.enc.Reconstruct(shards); err != nil {
		return fmt.Errorf("replica: reconstruct: %w", err)
	}
	return nil
}

// Join concatenates data shards back into the original chunk bytes,
// trimming the zero padding Shard may have added. originalSize is the
// chunk's true byte length before sharding.
func (c *Coder) Join(shards [][]byte, originalSize int) ([]byte, error) {
	out := make([]byte, 0, originalSize)
	for i := 0; i < c.dataShards && len(out) < originalSize; i++ {
		if shards[i] == nil {
			return nil, fmt.Errorf("replica: join: data shard %d missing", i)
		}
		out = append(out, shards[i]...)
	}
	if len(out) < originalSize {
		return nil, fmt.Errorf("replica: join: reconstructed %d bytes, want %d", len(out), originalSize)
	}
	return out[:originalSize], nil
}
