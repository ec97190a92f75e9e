// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blockstore

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression applied to a stored
// block. The tag is the first byte of every block file — these
// values are format constants, and changing them strands existing
// stores.
type CompressionTag uint8

const (
	// CompressionNone stores block bytes as-is. Selected
	// automatically when compression would not shrink the block,
	// which is common for small blocks and already-dense content.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 is LZ4 block compression: modest ratios but
	// very cheap decode, for stores where read latency dominates.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd is zstd at the default level. Canonical
	// encodings are structured and repetitive, so zstd typically
	// wins meaningful space at acceptable cost; this is the default
	// for new stores.
	CompressionZstd CompressionTag = 2
)

// String returns the name used in CLI flags and log output.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag parses a tag from its string form.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression tag: %q", name)
	}
}

// errIncompressible is returned by the compressors when output would
// not be smaller than input. Callers fall back to CompressionNone.
var errIncompressible = fmt.Errorf("data is incompressible")

// IsIncompressible reports whether err means the data could not be
// compressed below its original size.
func IsIncompressible(err error) bool {
	return err == errIncompressible
}

// Compress compresses data with the given algorithm. For
// CompressionNone the input is returned unchanged, without copying.
func Compress(data []byte, tag CompressionTag) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		return compressLZ4(data)
	case CompressionZstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// Decompress reverses Compress. The uncompressedSize recorded at
// write time must match the output exactly; a mismatch means the
// block file is corrupt.
func Decompress(compressed []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(compressed) != uncompressedSize {
			return nil, fmt.Errorf("stored block: size %d does not match recorded %d",
				len(compressed), uncompressedSize)
		}
		return compressed, nil
	case CompressionLZ4:
		return decompressLZ4(compressed, uncompressedSize)
	case CompressionZstd:
		return decompressZstd(compressed, uncompressedSize)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

// compressWithFallback compresses with the requested algorithm,
// degrading to CompressionNone when the data is incompressible. The
// returned tag is what must be recorded in the block header.
func compressWithFallback(data []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	if tag == CompressionNone {
		return data, CompressionNone, nil
	}
	compressed, err := Compress(data, tag)
	if err != nil {
		if IsIncompressible(err) {
			return data, CompressionNone, nil
		}
		return nil, 0, err
	}
	return compressed, tag, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for data it judges incompressible; a
	// result no smaller than the input is equally not worth storing.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

// zstdEncoder and zstdDecoder are shared across all stores in the
// process; both are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("blockstore: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("blockstore: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, 0, uncompressedSize)
	result, err := zstdDecoder.DecodeAll(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
	}
	return result, nil
}
