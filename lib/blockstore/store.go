// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package blockstore persists canonically encoded blocks on the local
// filesystem, keyed by their content identifier. Every block lives in
// its own file under a two-level shard directory derived from the
// digest, with a one-byte compression tag and the uncompressed size
// ahead of the payload. Writes go through a temp file and rename, so
// a crash never leaves a partial block under its final name, and
// every read re-verifies the digest before returning bytes.
package blockstore

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/canon/lib/dagcbor"
	"github.com/bureau-foundation/canon/lib/link"
)

// Directory names within the store root.
const (
	blocksDir = "blocks"
	tmpDir    = "tmp"
)

// ErrNotFound reports a lookup for a block the store does not hold.
var ErrNotFound = errors.New("blockstore: block not found")

// Config holds the parameters for opening a store. Root is required;
// all other fields have sensible defaults.
type Config struct {
	// Root is the store directory. It and its substructure are
	// created if missing.
	Root string

	// Compression is attempted for new blocks; incompressible
	// blocks degrade to plain storage automatically. If nil,
	// defaults to CompressionZstd; point at CompressionNone for a
	// store that never compresses. Reads honor whatever tag a block
	// was written with, so stores survive a change of policy.
	Compression *CompressionTag

	// Hash selects the digest function for identifiers minted by
	// Put. Defaults to link.HashBlake3; use link.HashSHA256 for
	// interchange with systems that expect it. Get accepts blocks
	// written under either.
	Hash uint64

	// Logger receives operational messages (store open, block
	// writes). If nil, a no-op logger is used.
	Logger *slog.Logger
}

// Store is a content-addressed block store rooted at one directory.
// All methods are safe for concurrent use: Put is atomic via
// temp-file rename, and identical content converges on the same
// final path regardless of racing writers.
type Store struct {
	root        string
	compression CompressionTag
	hash        uint64
	logger      *slog.Logger
}

// Open validates the configuration, creates the directory structure,
// and returns the store.
func Open(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("blockstore: Root is required")
	}
	compression := CompressionZstd
	if cfg.Compression != nil {
		compression = *cfg.Compression
		if compression > CompressionZstd {
			return nil, fmt.Errorf("blockstore: unsupported compression tag: %d", compression)
		}
	}

	switch cfg.Hash {
	case 0:
		cfg.Hash = link.HashBlake3
	case link.HashSHA256, link.HashBlake3:
	default:
		return nil, fmt.Errorf("blockstore: unsupported hash function 0x%x", cfg.Hash)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for _, dir := range []string{
		cfg.Root,
		filepath.Join(cfg.Root, blocksDir),
		filepath.Join(cfg.Root, tmpDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}

	logger.Info("block store opened",
		"root", cfg.Root,
		"compression", compression,
		"hash", fmt.Sprintf("0x%x", cfg.Hash),
	)

	return &Store{
		root:        cfg.Root,
		compression: compression,
		hash:        cfg.Hash,
		logger:      logger,
	}, nil
}

// Put stores data under the given codec and returns its identifier.
// Content addressing makes Put idempotent: storing bytes the store
// already holds is a no-op that returns the same identifier.
func (s *Store) Put(codec uint64, data []byte) (link.CID, error) {
	c := s.identify(codec, data)
	path := s.blockPath(c)
	if _, err := os.Stat(path); err == nil {
		s.logger.Debug("block already stored", "cid", c)
		return c, nil
	}

	payload, tag, err := compressWithFallback(data, s.compression)
	if err != nil {
		return link.CID{}, fmt.Errorf("compressing block %s: %w", c, err)
	}

	header := make([]byte, 0, 1+binary.MaxVarintLen64)
	header = append(header, byte(tag))
	header = binary.AppendUvarint(header, uint64(len(data)))

	if err := s.writeAtomic(path, header, payload); err != nil {
		return link.CID{}, fmt.Errorf("writing block %s: %w", c, err)
	}

	s.logger.Debug("block stored",
		"cid", c,
		"size", len(data),
		"stored_size", len(payload),
		"compression", tag,
	)
	return c, nil
}

// PutValue canonically encodes v and stores the result as a DAG-CBOR
// block.
func (s *Store) PutValue(v any) (link.CID, error) {
	data, err := dagcbor.Marshal(v)
	if err != nil {
		return link.CID{}, err
	}
	return s.Put(link.CodecDagCBOR, data)
}

// Get returns the block's uncompressed bytes. The digest is
// recomputed on every read, so corruption on disk surfaces as
// link.ErrDigestMismatch instead of silently wrong bytes.
func (s *Store) Get(c link.CID) ([]byte, error) {
	raw, err := os.ReadFile(s.blockPath(c))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, c)
	}
	if err != nil {
		return nil, fmt.Errorf("reading block %s: %w", c, err)
	}

	tag, size, payload, err := splitBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", c, err)
	}
	data, err := Decompress(payload, tag, int(size))
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", c, err)
	}
	if err := c.Verify(data); err != nil {
		return nil, fmt.Errorf("block %s: %w", c, err)
	}
	return data, nil
}

// Has reports whether the store holds the block. It consults only
// the filesystem; a corrupt block still reports true until a Get
// rejects it.
func (s *Store) Has(c link.CID) (bool, error) {
	_, err := os.Stat(s.blockPath(c))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking block %s: %w", c, err)
}

// Delete removes the block. Deleting an absent block returns
// ErrNotFound.
func (s *Store) Delete(c link.CID) error {
	err := os.Remove(s.blockPath(c))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, c)
	}
	if err != nil {
		return fmt.Errorf("deleting block %s: %w", c, err)
	}
	s.logger.Debug("block deleted", "cid", c)
	return nil
}

// BlockInfo describes one stored block without decompressing it.
type BlockInfo struct {
	// Compression is the tag the block was written with.
	Compression CompressionTag
	// Size is the uncompressed content size recorded at write time.
	Size uint64
	// StoredSize is the payload size on disk, header excluded.
	StoredSize int64
}

// Stat reads a block's header.
func (s *Store) Stat(c link.CID) (BlockInfo, error) {
	raw, err := os.ReadFile(s.blockPath(c))
	if errors.Is(err, fs.ErrNotExist) {
		return BlockInfo{}, fmt.Errorf("%w: %s", ErrNotFound, c)
	}
	if err != nil {
		return BlockInfo{}, fmt.Errorf("reading block %s: %w", c, err)
	}
	tag, size, payload, err := splitBlock(raw)
	if err != nil {
		return BlockInfo{}, fmt.Errorf("block %s: %w", c, err)
	}
	return BlockInfo{
		Compression: tag,
		Size:        size,
		StoredSize:  int64(len(payload)),
	}, nil
}

// Walk visits every block in the store in unspecified order,
// recovering each identifier from its file name. Returning an error
// from fn stops the walk and propagates the error. Files that do not
// parse as identifiers (editor droppings, partial copies) are
// skipped with a log line rather than failing the walk.
func (s *Store) Walk(fn func(link.CID) error) error {
	blocksRoot := filepath.Join(s.root, blocksDir)
	return filepath.WalkDir(blocksRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		c, err := link.Parse(d.Name())
		if err != nil {
			s.logger.Warn("skipping foreign file in block store", "path", path, "error", err)
			return nil
		}
		return fn(c)
	})
}

func (s *Store) identify(codec uint64, data []byte) link.CID {
	if s.hash == link.HashSHA256 {
		return link.Sum(codec, data)
	}
	return link.SumBlake3(codec, data)
}

// blockPath returns the sharded path for a block: two levels of
// directories from the digest hex, then the full text identifier as
// the file name. Sharding keeps directory fan-out bounded; the
// self-describing file name lets Walk rebuild identifiers without an
// index.
func (s *Store) blockPath(c link.CID) string {
	digest := hex.EncodeToString(c.Digest[:])
	return filepath.Join(s.root, blocksDir, digest[:2], digest[2:4], c.String())
}

// splitBlock separates a raw block file into its header fields and
// payload.
func splitBlock(raw []byte) (CompressionTag, uint64, []byte, error) {
	if len(raw) < 2 {
		return 0, 0, nil, errors.New("truncated header")
	}
	tag := CompressionTag(raw[0])
	size, n := binary.Uvarint(raw[1:])
	if n <= 0 {
		return 0, 0, nil, errors.New("corrupt size header")
	}
	return tag, size, raw[1+n:], nil
}

// writeAtomic writes header+payload to a temp file in the store's
// tmp directory and renames it into place. Rename is atomic on the
// same filesystem, which tmp shares with the block tree.
func (s *Store) writeAtomic(path string, header, payload []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Join(s.root, tmpDir), "block-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(header); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := tmpFile.Write(payload); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing payload: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating shard directory: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	committed = true
	return nil
}
