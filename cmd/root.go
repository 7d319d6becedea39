// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"github.com/burstfs/burstfs/pkg/logger"
	"github.com/burstfs/burstfs/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "burstfs",
	Short: "BurstFS - a burst-buffer scale-out file system",
	Long: `BurstFS shards each file's bytes into fixed-size chunks and scatters
them across a fixed set of daemons by a deterministic hash of the file
path and chunk index. It has no metadata service and no cluster
membership protocol: chunk placement is a pure function of a static
daemon directory.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if dsn, _ := cmd.Flags().GetString("sentry_dsn"); dsn != "" {
			if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
				logger.Warn().Err(err).Msg("sentry init failed, continuing without crash reporting")
			}
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")
	rootCmd.PersistentFlags().String("sentry_dsn", "", "Sentry DSN for crash reporting (optional, or set SENTRY_DSN)")
}

// Execute runs the root command. Crash reporting is initialized from
// SENTRY_DSN before any command runs (and again from --sentry_dsn, when
// set, once flags are parsed), and buffered events are flushed when
// Execute returns. Panics are not recovered here, and the os.Exit path on
// a command error skips the flush.
func Execute() {
	dsn := os.Getenv("SENTRY_DSN")
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
		logger.Warn().Err(err).Msg("sentry init failed, continuing without crash reporting")
	}
	defer sentry.Flush(2 * time.Second)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
