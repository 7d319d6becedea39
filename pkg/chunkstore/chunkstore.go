// Copyright 2025 BurstFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunkstore persists and retrieves fixed-size chunks on a
// daemon's local disk. Every file gets a single flat directory under
// root_path named by its mangled path; every chunk of that file is one
// regular file inside that directory, named by its decimal chunk ID.
package chunkstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/burstfs/burstfs/pkg/chunkid"
	"github.com/burstfs/burstfs/pkg/errno"
	"github.com/burstfs/burstfs/pkg/logger"
)

const (
	chunkDirMode  = 0750
	chunkFileMode = 0640
)

// Error wraps a storage-layer failure with the errno it should surface in
// an RPC response, matching §4.2's "each fails with StorageError{errno,
// message}" contract.
type Error struct {
	Errno int32
	Op    string
	Path  string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("chunkstore: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(op, path string, err error) *Error {
	return &Error{Errno: errno.FromError(err), Op: op, Path: path, Err: err}
}

// Stat reports the chunk store's capacity in whole chunks, derived from a
// filesystem-space query on root_path.
type Stat struct {
	ChunkSize  uint64
	ChunkTotal uint64
	ChunkFree  uint64
}

// Store persists chunks under a single root directory. It holds no
// per-file state; every method takes the file path explicitly, matching
// §9's guidance against ambient singletons.
type Store struct {
	rootPath  string
	chunkSize uint64
	durable   bool
}

// New returns a Store rooted at rootPath, which must already exist and be
// read/write/execute accessible to the daemon's user. When durable is
// true, every WriteChunk fdatasyncs the chunk file before returning,
// trading write latency for a guarantee that the bytes survive a crash.
func New(rootPath string, chunkSize uint64, durable bool) (*Store, error) {
	if chunkSize == 0 {
		return nil, fmt.Errorf("chunkstore: chunk size must be > 0")
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("chunkstore: root_path %q: %w", rootPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("chunkstore: root_path %q is not a directory", rootPath)
	}
	return &Store{rootPath: rootPath, chunkSize: chunkSize, durable: durable}, nil
}

func (s *Store) chunkDir(path string) string {
	return filepath.Join(s.rootPath, chunkid.Mangle(path))
}

func (s *Store) chunkPath(path string, id chunkid.ID) string {
	return filepath.Join(s.chunkDir(path), strconv.FormatUint(uint64(id), 10))
}

func (s *Store) initChunkSpace(path string) error {
	dir := s.chunkDir(path)
	if err := os.Mkdir(dir, chunkDirMode); err != nil && !os.IsExist(err) {
		return newErr("init_chunk_space", path, err)
	}
	return nil
}

// WriteChunk writes size bytes from buf to chunk id of path at the given
// intra-chunk offset. The caller must ensure offset+size <= chunk size.
// The chunk directory and file are created lazily on first write.
func (s *Store) WriteChunk(path string, id chunkid.ID, buf []byte, offset uint64) (uint64, error) {
	size := uint64(len(buf))
	if offset+size > s.chunkSize {
		return 0, newErr("write_chunk", path, fmt.Errorf("offset %d + size %d exceeds chunk size %d", offset, size, s.chunkSize))
	}
	if size == 0 {
		return 0, nil
	}

	if err := s.initChunkSpace(path); err != nil {
		return 0, err
	}

	chunkPath := s.chunkPath(path, id)
	created := false
	if _, statErr := os.Stat(chunkPath); statErr != nil && os.IsNotExist(statErr) {
		created = true
	}

	f, err := os.OpenFile(chunkPath, os.O_WRONLY|os.O_CREATE, chunkFileMode)
	if err != nil {
		return 0, newErr("write_chunk", chunkPath, err)
	}
	defer f.Close()

	if created {
		if err := fallocate(f, int64(s.chunkSize)); err != nil {
			logger.Debug().Err(err).Str("path", chunkPath).Msg("fallocate not supported, continuing sparse")
		}
	}

	var written uint64
	for written != size {
		n, werr := f.WriteAt(buf[written:], int64(offset+written))
		if n > 0 {
			written += uint64(n)
		}
		if werr != nil {
			if isRetryable(werr) {
				continue
			}
			return written, newErr("write_chunk", chunkPath, werr)
		}
	}

	if s.durable {
		if err := fdatasync(f); err != nil {
			return written, newErr("write_chunk", chunkPath, err)
		}
	}

	logger.Debug().Str("path", path).Uint64("chunk", uint64(id)).Uint64("size", size).Msg("wrote chunk")
	return written, nil
}

// ReadChunk reads up to len(buf) bytes from chunk id of path at the given
// intra-chunk offset. A missing chunk file is not an error: it is a hole
// and reads as zero bytes, returning io size 0.
func (s *Store) ReadChunk(path string, id chunkid.ID, buf []byte, offset uint64) (uint64, error) {
	size := uint64(len(buf))
	if offset+size > s.chunkSize {
		return 0, newErr("read_chunk", path, fmt.Errorf("offset %d + size %d exceeds chunk size %d", offset, size, s.chunkSize))
	}
	if size == 0 {
		return 0, nil
	}

	chunkPath := s.chunkPath(path, id)
	f, err := os.Open(chunkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, newErr("read_chunk", chunkPath, err)
	}
	defer f.Close()

	var read uint64
	for read != size {
		n, rerr := f.ReadAt(buf[read:], int64(offset+read))
		if n > 0 {
			read += uint64(n)
		}
		if rerr != nil {
			if rerr == io.EOF {
				break
			}
			if isRetryable(rerr) {
				continue
			}
			return read, newErr("read_chunk", chunkPath, rerr)
		}
		if n == 0 {
			break
		}
	}

	return read, nil
}

// TruncateChunkFile truncates a single chunk file to length, which must be
// in (0, chunk size].
func (s *Store) TruncateChunkFile(path string, id chunkid.ID, length uint64) error {
	if length == 0 || length > s.chunkSize {
		return newErr("truncate_chunk_file", path, fmt.Errorf("length %d out of range (0, %d]", length, s.chunkSize))
	}
	chunkPath := s.chunkPath(path, id)
	if err := os.Truncate(chunkPath, int64(length)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return newErr("truncate_chunk_file", chunkPath, err)
	}
	return nil
}

// TrimChunkSpace removes every chunk file of path whose ID is >= chunkStart.
// Missing files are ignored. If any removal fails with another error, the
// remaining files are still attempted before an aggregated error is
// returned.
func (s *Store) TrimChunkSpace(path string, chunkStart chunkid.ID) error {
	dir := s.chunkDir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return newErr("trim_chunk_space", dir, err)
	}

	var errs []error
	for _, entry := range entries {
		id, perr := strconv.ParseUint(entry.Name(), 10, 64)
		if perr != nil {
			continue
		}
		if chunkid.ID(id) < chunkStart {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		if rerr := os.Remove(p); rerr != nil && !os.IsNotExist(rerr) {
			errs = append(errs, rerr)
		}
	}

	if len(errs) > 0 {
		return newErr("trim_chunk_space", dir, errors.Join(errs...))
	}
	return nil
}

// DestroyChunkSpace recursively removes a file's entire chunk directory. A
// missing directory is not an error.
func (s *Store) DestroyChunkSpace(path string) error {
	dir := s.chunkDir(path)
	if err := os.RemoveAll(dir); err != nil {
		return newErr("destroy_chunk_space", dir, err)
	}
	return nil
}

// ChunkStat reports the chunk store's capacity in whole chunks.
func (s *Store) ChunkStat() (Stat, error) {
	var fsStat syscall.Statfs_t
	if err := syscall.Statfs(s.rootPath, &fsStat); err != nil {
		return Stat{}, newErr("chunk_stat", s.rootPath, err)
	}

	bsize := uint64(fsStat.Bsize)
	total := fsStat.Blocks * bsize
	free := fsStat.Bfree * bsize

	return Stat{
		ChunkSize:  s.chunkSize,
		ChunkTotal: total / s.chunkSize,
		ChunkFree:  free / s.chunkSize,
	}, nil
}

func isRetryable(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINTR || errno == syscall.EAGAIN || errno == syscall.EWOULDBLOCK
	}
	return false
}
