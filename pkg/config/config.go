// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the daemon and client tunables named in §6: chunk
// size, host size, RPC retry/timeout policy, the root path, statistics
// toggles, and the static daemon addressing directory. It follows the
// teacher's flags-over-viper precedence pattern so every value can be
// supplied by flag, environment variable, or config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/burstfs/burstfs/pkg/utils"
)

// Defaults match §6's tunables list; CHUNKSIZE is 512 KiB as suggested by
// spec.md §3 (the legacy 400-byte constant is explicitly not a design
// value).
const (
	DefaultChunkSize         = 512 * 1024
	DefaultRPCTries          = 3
	DefaultRPCTimeout        = 5 * time.Second
	DefaultTaskletConcurrency = 32
)

// Daemon holds one daemon's address-directory entry: a stable numeric ID
// resolved to a transport address via the out-of-band directory §6
// describes.
type Daemon struct {
	ID      uint32 `mapstructure:"id"`
	Address string `mapstructure:"address"`
}

// Config is the fully resolved configuration for either a daemon process
// or a client dispatcher.
type Config struct {
	RootPath  string   `mapstructure:"root_path"`
	ChunkSize uint64   `mapstructure:"chunk_size"`
	HostID    uint32   `mapstructure:"host_id"`
	Daemons   []Daemon `mapstructure:"daemons"`

	RPCTries            int           `mapstructure:"rpc_tries"`
	RPCTimeout          time.Duration `mapstructure:"rpc_timeout"`
	TaskletConcurrency  int64         `mapstructure:"tasklet_concurrency"`
	StatsEnabled        bool          `mapstructure:"stats_enabled"`
	StatsRedisAddr      string        `mapstructure:"stats_redis_addr"`
	ArchiveEnabled       bool          `mapstructure:"archive_enabled"`
	ArchiveBucket        string        `mapstructure:"archive_bucket"`
	ReplicaEnabled       bool          `mapstructure:"replica_enabled"`
	ReplicaDataShards    int           `mapstructure:"replica_data_shards"`
	ReplicaParityShards  int           `mapstructure:"replica_parity_shards"`
	ListenAddr          string        `mapstructure:"listen_addr"`
	DebugAddr           string        `mapstructure:"debug_addr"`
	MinFreeSpace        string        `mapstructure:"min_free_space"`
}

// ParsedMinFreeSpace parses MinFreeSpace, returning nil when it is unset.
// Callers should only reach this after Validate has already confirmed the
// value parses.
func (c Config) ParsedMinFreeSpace() (*utils.FreeSpace, error) {
	if c.MinFreeSpace == "" {
		return nil, nil
	}
	return utils.ParseMinFreeSpace(c.MinFreeSpace)
}

// HostSize returns the number of daemons in the placement universe.
func (c Config) HostSize() uint32 {
	return uint32(len(c.Daemons))
}

// setDefaults registers every tunable's default with viper so Load can
// read them back regardless of whether a config file or flags supplied
// anything.
func setDefaults() {
	viper.SetDefault("chunk_size", DefaultChunkSize)
	viper.SetDefault("rpc_tries", DefaultRPCTries)
	viper.SetDefault("rpc_timeout", DefaultRPCTimeout)
	viper.SetDefault("tasklet_concurrency", DefaultTaskletConcurrency)
	viper.SetDefault("stats_enabled", false)
	viper.SetDefault("archive_enabled", false)
	viper.SetDefault("replica_enabled", false)
	viper.SetDefault("replica_data_shards", 4)
	viper.SetDefault("replica_parity_shards", 2)
	viper.SetDefault("listen_addr", "0.0.0.0:9000")
	viper.SetDefault("debug_addr", "0.0.0.0:9001")
}

// Load reads "burstfsd" (or "burstfs" for the client CLI) from the
// configured search paths, falling back to defaults for anything not
// found when required is false.
func Load(configName string, required bool) (Config, error) {
	setDefaults()
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	utils.LoadConfiguration(configName, required)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the system assumes hold
// before a daemon or client starts serving traffic.
func (c Config) Validate() error {
	if c.RootPath == "" {
		return fmt.Errorf("config: root_path is required")
	}
	if c.ChunkSize == 0 {
		return fmt.Errorf("config: chunk_size must be > 0")
	}
	if len(c.Daemons) == 0 {
		return fmt.Errorf("config: at least one daemon must be configured")
	}
	if c.ReplicaEnabled && c.ReplicaDataShards+c.ReplicaParityShards > len(c.Daemons) {
		return fmt.Errorf("config: replica shards (%d+%d) exceed daemon count (%d)",
			c.ReplicaDataShards, c.ReplicaParityShards, len(c.Daemons))
	}
	if _, err := c.ParsedMinFreeSpace(); err != nil {
		return fmt.Errorf("config: min_free_space: %w", err)
	}
	return nil
}
