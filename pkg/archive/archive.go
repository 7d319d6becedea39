// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive implements the optional Cold Archiver (C8): a
// best-effort background copy of a file's chunk directory to an
// S3-compatible bucket for durability beyond node-local NVMe. It never
// runs on the write/read hot path and a failure here never affects a data
// RPC's response.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/burstfs/burstfs/pkg/chunkid"
	"github.com/burstfs/burstfs/pkg/logger"
)

// Archiver copies chunk files up to an S3-compatible bucket, keyed by the
// same mangled-path convention the local chunk store uses, so archived
// objects can be located without a separate index.
type Archiver struct {
	client *s3.Client
	bucket string
}

// Options configures the S3 client used by the archiver.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// New builds an Archiver from opts. Bucket is required; the rest follow
// the AWS SDK's default credential/region resolution when left empty.
func New(ctx context.Context, opts Options) (*Archiver, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("archive: bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Archiver{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: opts.Bucket,
	}, nil
}

// ArchiveFile streams every chunk file under rootPath's chunk directory
// for path up to s3://<bucket>/<mangled_path>/<chunk_id>. Best effort: the
// first error aborts the remaining uploads for this call but does not
// retry, since the periodic schedule that calls ArchiveFile will pick up
// stragglers on its next pass.
func (a *Archiver) ArchiveFile(ctx context.Context, rootPath, path string) error {
	dir := filepath.Join(rootPath, chunkid.Mangle(path))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("archive: read chunk dir %q: %w", dir, err)
	}

	for _, entry := range entries {
		if _, perr := strconv.ParseUint(entry.Name(), 10, 64); perr != nil {
			continue
		}
		chunkPath := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(chunkPath)
		if err != nil {
			return fmt.Errorf("archive: read %q: %w", chunkPath, err)
		}

		key := chunkid.Mangle(path) + "/" + entry.Name()
		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(a.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
		})
		if err != nil {
			return fmt.Errorf("archive: put %q: %w", key, err)
		}
		logger.Debug().Str("path", path).Str("key", key).Msg("archived chunk")
	}
	return nil
}

// ArchiveAll sweeps every mangled-path directory directly under rootPath
// and uploads its chunk files, for the daemon's periodic background pass.
// It works from the on-disk mangled names rather than a list of live file
// paths, since the chunk store keeps no separate file index.
func (a *Archiver) ArchiveAll(ctx context.Context, rootPath string) error {
	entries, err := os.ReadDir(rootPath)
	if err != nil {
		return fmt.Errorf("archive: read root %q: %w", rootPath, err)
	}
	var firstErr error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := a.ArchiveFile(ctx, rootPath, "/"+entry.Name()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
