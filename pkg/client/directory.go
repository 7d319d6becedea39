// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements the client-side data dispatcher (C5): it
// buckets a write or read call's chunk range by destination daemon,
// builds one RPC per destination, fans them out concurrently, and joins
// the results back into a single (bytes transferred, error) pair.
package client

import (
	"fmt"

	"github.com/burstfs/burstfs/pkg/config"
)

// Directory resolves a daemon ID to its dial address, the out-of-band
// mapping §6 assumes exists (no service discovery is in scope).
type Directory struct {
	addrByID map[uint32]string
}

// NewDirectory builds a Directory from a config's static daemon list.
func NewDirectory(daemons []config.Daemon) *Directory {
	d := &Directory{addrByID: make(map[uint32]string, len(daemons))}
	for _, dd := range daemons {
		d.addrByID[dd.ID] = dd.Address
	}
	return d
}

// Address returns the dial address for daemonID.
func (d *Directory) Address(daemonID uint32) (string, error) {
	addr, ok := d.addrByID[daemonID]
	if !ok {
		return "", fmt.Errorf("client: no address configured for daemon %d", daemonID)
	}
	return addr, nil
}
