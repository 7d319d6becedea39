package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burstfs/burstfs/pkg/utils"
)

// resetViper clears global viper state between tests since Load reads
// from the package-level singleton the way the teacher's utils.LoadConfiguration
// does.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(func() { viper.Reset() })
}

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	resetViper(t)

	cfg, err := Load("burstfsd-nonexistent", false)
	require.NoError(t, err)

	assert.EqualValues(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultRPCTries, cfg.RPCTries)
	assert.Equal(t, DefaultRPCTimeout, cfg.RPCTimeout)
	assert.EqualValues(t, DefaultTaskletConcurrency, cfg.TaskletConcurrency)
	assert.False(t, cfg.StatsEnabled)
	assert.False(t, cfg.ArchiveEnabled)
	assert.False(t, cfg.ReplicaEnabled)
	assert.Equal(t, 4, cfg.ReplicaDataShards)
	assert.Equal(t, 2, cfg.ReplicaParityShards)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	assert.Equal(t, "0.0.0.0:9001", cfg.DebugAddr)
}

func TestLoad_EnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("CHUNK_SIZE", "1024")

	cfg, err := Load("burstfsd-nonexistent", false)
	require.NoError(t, err)
	assert.EqualValues(t, 1024, cfg.ChunkSize)
}

func TestLoad_DaemonsUnmarshal(t *testing.T) {
	resetViper(t)
	viper.Set("daemons", []map[string]interface{}{
		{"id": 0, "address": "127.0.0.1:9000"},
		{"id": 1, "address": "127.0.0.1:9010"},
	})

	cfg, err := Load("burstfsd-nonexistent", false)
	require.NoError(t, err)
	require.Len(t, cfg.Daemons, 2)
	assert.EqualValues(t, 1, cfg.Daemons[1].ID)
	assert.Equal(t, "127.0.0.1:9010", cfg.Daemons[1].Address)
	assert.EqualValues(t, 2, cfg.HostSize())
}

func TestValidate_RequiresRootPath(t *testing.T) {
	t.Parallel()
	cfg := Config{ChunkSize: 1, Daemons: []Daemon{{ID: 0, Address: "x"}}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root_path")
}

func TestValidate_RequiresChunkSize(t *testing.T) {
	t.Parallel()
	cfg := Config{RootPath: "/tmp", Daemons: []Daemon{{ID: 0, Address: "x"}}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_size")
}

func TestValidate_RequiresAtLeastOneDaemon(t *testing.T) {
	t.Parallel()
	cfg := Config{RootPath: "/tmp", ChunkSize: 4096}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon")
}

func TestValidate_RejectsOversizedReplicaShards(t *testing.T) {
	t.Parallel()
	cfg := Config{
		RootPath:            "/tmp",
		ChunkSize:           4096,
		Daemons:             []Daemon{{ID: 0, Address: "x"}, {ID: 1, Address: "y"}},
		ReplicaEnabled:       true,
		ReplicaDataShards:    4,
		ReplicaParityShards:  2,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replica shards")
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	t.Parallel()
	cfg := Config{
		RootPath:  "/tmp",
		ChunkSize: 4096,
		Daemons:   []Daemon{{ID: 0, Address: "x"}, {ID: 1, Address: "y"}},
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsMalformedMinFreeSpace(t *testing.T) {
	t.Parallel()
	cfg := Config{
		RootPath:     "/tmp",
		ChunkSize:    4096,
		Daemons:      []Daemon{{ID: 0, Address: "x"}},
		MinFreeSpace: "not-a-size",
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_free_space")
}

func TestValidate_AcceptsWellFormedMinFreeSpace(t *testing.T) {
	t.Parallel()
	cfg := Config{
		RootPath:     "/tmp",
		ChunkSize:    4096,
		Daemons:      []Daemon{{ID: 0, Address: "x"}},
		MinFreeSpace: "10",
	}
	assert.NoError(t, cfg.Validate())
}

func TestParsedMinFreeSpace_EmptyIsNilWithoutError(t *testing.T) {
	t.Parallel()
	var cfg Config
	fs, err := cfg.ParsedMinFreeSpace()
	require.NoError(t, err)
	assert.Nil(t, fs)
}

func TestParsedMinFreeSpace_ParsesPercent(t *testing.T) {
	t.Parallel()
	cfg := Config{MinFreeSpace: "5"}
	fs, err := cfg.ParsedMinFreeSpace()
	require.NoError(t, err)
	require.NotNil(t, fs)
	assert.Equal(t, utils.AsPercent, fs.Type)
	assert.EqualValues(t, 5, fs.Percent)
}

func TestHostSize_MatchesDaemonCount(t *testing.T) {
	t.Parallel()
	cfg := Config{Daemons: []Daemon{{ID: 0}, {ID: 1}, {ID: 2}}}
	assert.EqualValues(t, 3, cfg.HostSize())
}

func TestHostSize_ZeroWhenEmpty(t *testing.T) {
	t.Parallel()
	var cfg Config
	assert.EqualValues(t, 0, cfg.HostSize())
}

func TestDefaultRPCTimeout_IsFiveSeconds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 5*time.Second, DefaultRPCTimeout)
}
