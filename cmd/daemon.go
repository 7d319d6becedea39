// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/burstfs/burstfs/pkg/archive"
	"github.com/burstfs/burstfs/pkg/chunkstore"
	"github.com/burstfs/burstfs/pkg/config"
	"github.com/burstfs/burstfs/pkg/daemon"
	"github.com/burstfs/burstfs/pkg/debug"
	"github.com/burstfs/burstfs/pkg/logger"
	"github.com/burstfs/burstfs/pkg/replica"
	"github.com/burstfs/burstfs/pkg/stats"
	"github.com/burstfs/burstfs/pkg/tasklet"
	"github.com/burstfs/burstfs/pkg/utils"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start a burstfsd data-plane node",
	Long: `Start a burstfsd node: a chunk store, a tasklet pool, and a gRPC
server exposing the write/read/truncate/chunk_stat data-plane RPCs. A
node has no knowledge of the other daemons beyond its own host_id and
the static daemon directory in its configuration.`,
	Run: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	f := daemonCmd.Flags()
	f.String("root_path", "", "Local directory chunks are stored under (required)")
	f.Uint64("chunk_size", config.DefaultChunkSize, "Chunk size in bytes")
	f.Uint32("host_id", 0, "This daemon's ID in the placement universe")
	f.String("listen_addr", "0.0.0.0:9000", "Address to bind the data-plane gRPC server")
	f.String("debug_addr", "0.0.0.0:9001", "Address to bind the metrics/pprof/health HTTP server")
	f.Int64("tasklet_concurrency", config.DefaultTaskletConcurrency, "Max concurrent chunk I/O tasklets")
	f.Bool("durable", false, "fdatasync every chunk write before responding")
	f.Bool("stats_enabled", false, "Export prometheus counters and publish to the redis sink")
	f.String("stats_redis_addr", "", "Redis address for cross-daemon stats aggregation")
	f.Bool("archive_enabled", false, "Periodically archive chunks to S3")
	f.String("archive_bucket", "", "S3 bucket for cold archival")
	f.Duration("archive_interval", 10*time.Minute, "How often to sweep the chunk store for archival")
	f.Bool("replica_enabled", false, "Validate an erasure-coding shard configuration at startup")
	f.Int("replica_data_shards", 4, "Data shard count for the replica coder")
	f.Int("replica_parity_shards", 2, "Parity shard count for the replica coder")
	f.String("cert_file", "", "TLS certificate for the gRPC server")
	f.String("key_file", "", "TLS key for the gRPC server")
	f.String("min_free_space", "", "Reject writes once free disk space drops below this (percent, e.g. \"10\", or a human size, e.g. \"10GB\")")
	f.String("advertise_ip", utils.DetectedHostAddress(), "IP address daemons/clients should use to reach this node, logged at startup")
}

func runDaemon(cmd *cobra.Command, args []string) {
	cfg, err := config.Load("burstfsd", false)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	f := NewFlagLoader(cmd)

	if v := f.String("root_path"); v != "" {
		cfg.RootPath = v
	}
	if f.cmd.Flags().Changed("chunk_size") {
		cfg.ChunkSize = f.Uint64("chunk_size")
	}
	if f.cmd.Flags().Changed("host_id") {
		cfg.HostID = f.Uint32("host_id")
	}
	if v := f.String("listen_addr"); v != "" {
		cfg.ListenAddr = v
	}
	if v := f.String("debug_addr"); v != "" {
		cfg.DebugAddr = v
	}
	if f.cmd.Flags().Changed("tasklet_concurrency") {
		cfg.TaskletConcurrency = f.Int64("tasklet_concurrency")
	}
	if f.cmd.Flags().Changed("stats_enabled") {
		cfg.StatsEnabled = f.Bool("stats_enabled")
	}
	if v := f.String("stats_redis_addr"); v != "" {
		cfg.StatsRedisAddr = v
	}
	if f.cmd.Flags().Changed("archive_enabled") {
		cfg.ArchiveEnabled = f.Bool("archive_enabled")
	}
	if v := f.String("archive_bucket"); v != "" {
		cfg.ArchiveBucket = v
	}
	if f.cmd.Flags().Changed("replica_enabled") {
		cfg.ReplicaEnabled = f.Bool("replica_enabled")
	}
	if f.cmd.Flags().Changed("replica_data_shards") {
		cfg.ReplicaDataShards = f.Int("replica_data_shards")
	}
	if f.cmd.Flags().Changed("replica_parity_shards") {
		cfg.ReplicaParityShards = f.Int("replica_parity_shards")
	}
	if v := f.String("min_free_space"); v != "" {
		cfg.MinFreeSpace = v
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	debug.SetNotReady()

	if err := utils.TestWritableFile(cfg.RootPath); err != nil {
		logger.Fatal().Err(err).Str("root_path", cfg.RootPath).Msg("root_path is not a writable directory")
	}

	store, err := chunkstore.New(cfg.RootPath, cfg.ChunkSize, f.Bool("durable"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open chunk store")
	}

	debug.RegisterHandlerFunc("/debug/bufferpool", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(utils.GetBufferPoolStats())
	})

	pool := tasklet.NewPool(cfg.TaskletConcurrency)

	counters := stats.New(cfg.StatsEnabled)
	if cfg.StatsRedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.StatsRedisAddr})
		counters = counters.WithRedisSink(rdb, "burstfs:stats:"+cfg.StatsRedisAddr)
	}

	if cfg.ReplicaEnabled {
		if _, err := replica.NewCoder(cfg.ReplicaDataShards, cfg.ReplicaParityShards); err != nil {
			logger.Fatal().Err(err).Msg("invalid replica shard configuration")
		}
		logger.Info().
			Int("data_shards", cfg.ReplicaDataShards).
			Int("parity_shards", cfg.ReplicaParityShards).
			Msg("replica shard coder validated")
	}

	dctx := daemon.New(store, pool, counters, cfg.ChunkSize, cfg.HostID, cfg.HostSize())

	minFree, err := cfg.ParsedMinFreeSpace()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid min_free_space")
	}
	if minFree != nil {
		dctx.SetMinFreeSpace(minFree)
		logger.Info().Str("min_free_space", minFree.String()).Msg("write admission: low disk space check enabled")
	}

	var stopArchive context.CancelFunc
	if cfg.ArchiveEnabled {
		bgCtx, cancel := context.WithCancel(context.Background())
		stopArchive = cancel
		a, err := archive.New(bgCtx, archive.Options{Bucket: cfg.ArchiveBucket})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init archiver")
		}
		go runArchiveLoop(bgCtx, a, cfg.RootPath, f.Duration("archive_interval"))
	}

	server := daemon.NewServer(dctx, loadTLSServerOpts(f.String("cert_file"), f.String("key_file"))...)

	if _, portStr, splitErr := net.SplitHostPort(cfg.ListenAddr); splitErr == nil {
		if port, convErr := strconv.Atoi(portStr); convErr == nil {
			logger.Info().Str("advertise_addr", utils.JoinHostPort(f.String("advertise_ip"), port)).Msg("data-plane node reachable at")
		}
	}

	debugSrv := startHTTPServer(debug.GetMux(), cfg.DebugAddr)

	go func() {
		if err := server.Serve(cfg.ListenAddr); err != nil {
			logger.Fatal().Err(err).Msg("data server exited")
		}
	}()

	debug.SetReady()
	waitForShutdown()

	debug.SetNotReady()
	if stopArchive != nil {
		stopArchive()
	}
	server.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	debugSrv.Shutdown(shutdownCtx)
}

func runArchiveLoop(ctx context.Context, a *archive.Archiver, rootPath string, interval time.Duration) {
	tickCh, stopTicker := utils.JitteredTicker(interval, 0.1)
	defer stopTicker()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-tickCh:
			if !ok {
				return
			}
			if err := a.ArchiveAll(ctx, rootPath); err != nil {
				logger.Warn().Err(err).Msg("archive sweep failed")
			}
		}
	}
}

func startHTTPServer(handler http.Handler, addr string) *http.Server {
	listener, err := utils.NewListener(addr, 0)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", addr).Msg("failed to create HTTP listener")
	}

	httpServer := &http.Server{Handler: handler}
	go func() {
		logger.Info().Str("http_addr", addr).Msg("starting HTTP server")
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()
	return httpServer
}

func loadTLSServerOpts(certFile, keyFile string) []grpc.ServerOption {
	tlsOpt, err := utils.GetServerOption(certFile, keyFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load TLS credentials")
	}
	if tlsOpt != nil {
		logger.Info().Msg("gRPC server using TLS")
		return []grpc.ServerOption{tlsOpt}
	}
	return nil
}

func waitForShutdown() {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGALRM, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	<-stopChan
}
