// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package link implements version-1 content identifiers (CIDs) for
// canonically encoded blocks: a codec number naming what the bytes
// are, plus a hash of the bytes themselves. The identifier is derived
// entirely from content, so two parties that encode the same value
// canonically compute the same CID without coordination.
package link

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"
)

// Multicodec codes for the block contents this toolkit produces.
const (
	// CodecDagCBOR marks canonical DAG-CBOR bytes.
	CodecDagCBOR uint64 = 0x71
	// CodecRaw marks opaque bytes addressed as-is.
	CodecRaw uint64 = 0x55
)

// Multihash function codes. Both produce 32-byte digests; no other
// digest size is representable here.
const (
	HashSHA256 uint64 = 0x12
	HashBlake3 uint64 = 0x1e
)

const digestSize = 32

// ErrDigestMismatch reports content whose hash does not match the
// identifier claiming to address it.
var ErrDigestMismatch = errors.New("link: digest mismatch")

// multibase base32: lowercase, no padding, string prefix 'b'. This is
// the default text form because it is case-insensitive-safe in DNS
// labels and URLs.
var base32Lower = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// CID is a version-1 content identifier. The zero value is not a
// valid identifier; construct one with Sum or parse one from its
// text or binary form. CIDs are comparable and usable as map keys.
type CID struct {
	// Codec names the encoding of the addressed bytes (CodecDagCBOR
	// or CodecRaw).
	Codec uint64
	// Hash names the digest function (HashSHA256 or HashBlake3).
	Hash uint64
	// Digest is the 32-byte output of the hash function over the
	// addressed bytes.
	Digest [digestSize]byte
}

// Sum computes the SHA-256 identifier of data under the given codec.
func Sum(codec uint64, data []byte) CID {
	return CID{Codec: codec, Hash: HashSHA256, Digest: sha256.Sum256(data)}
}

// SumBlake3 computes the BLAKE3 identifier of data under the given
// codec. BLAKE3 is the right choice for local stores where speed
// matters; SHA-256 for interchange with systems that expect it.
func SumBlake3(codec uint64, data []byte) CID {
	return CID{Codec: codec, Hash: HashBlake3, Digest: blake3.Sum256(data)}
}

// Bytes returns the binary form: uvarint version 1, uvarint codec,
// then the multihash (uvarint function code, uvarint digest length,
// digest bytes).
func (c CID) Bytes() []byte {
	buf := make([]byte, 0, 4+digestSize)
	buf = binary.AppendUvarint(buf, 1)
	buf = binary.AppendUvarint(buf, c.Codec)
	buf = binary.AppendUvarint(buf, c.Hash)
	buf = binary.AppendUvarint(buf, digestSize)
	return append(buf, c.Digest[:]...)
}

// String returns the canonical text form: multibase base32 lowercase,
// prefixed 'b'.
func (c CID) String() string {
	return "b" + base32Lower.EncodeToString(c.Bytes())
}

// Base58 returns the base58btc text form, prefixed 'z'. Shorter than
// base32 but case-sensitive; used where humans copy identifiers by
// hand.
func (c CID) Base58() string {
	return "z" + base58.Encode(c.Bytes())
}

// MarshalText implements encoding.TextMarshaler using the base32
// form, so identifiers embed in canonical documents as text strings.
func (c CID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, accepting any
// form Parse accepts.
func (c *CID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Verify recomputes the digest of data with the identifier's hash
// function and compares. A nil result means data is exactly the
// content this identifier addresses.
func (c CID) Verify(data []byte) error {
	var digest [digestSize]byte
	switch c.Hash {
	case HashSHA256:
		digest = sha256.Sum256(data)
	case HashBlake3:
		digest = blake3.Sum256(data)
	default:
		return fmt.Errorf("link: unknown hash function 0x%x", c.Hash)
	}
	if digest != c.Digest {
		return fmt.Errorf("%w: content hashes to %x, identifier claims %x",
			ErrDigestMismatch, digest, c.Digest)
	}
	return nil
}

// Parse reads a text-form identifier. The multibase prefix selects
// the alphabet: 'b' for base32 lowercase, 'z' for base58btc.
func Parse(s string) (CID, error) {
	if len(s) < 2 {
		return CID{}, fmt.Errorf("link: identifier %q too short", s)
	}
	var (
		raw []byte
		err error
	)
	switch s[0] {
	case 'b':
		raw, err = base32Lower.DecodeString(s[1:])
	case 'z':
		raw, err = base58.Decode(s[1:])
	default:
		return CID{}, fmt.Errorf("link: unknown multibase prefix %q", s[0])
	}
	if err != nil {
		return CID{}, fmt.Errorf("link: decoding %q: %w", s, err)
	}
	return Decode(raw)
}

// Decode reads the binary form produced by Bytes.
func Decode(raw []byte) (CID, error) {
	version, n := binary.Uvarint(raw)
	if n <= 0 {
		return CID{}, errors.New("link: truncated identifier")
	}
	if version != 1 {
		return CID{}, fmt.Errorf("link: unsupported version %d", version)
	}
	raw = raw[n:]

	codec, n := binary.Uvarint(raw)
	if n <= 0 {
		return CID{}, errors.New("link: truncated identifier")
	}
	if codec != CodecDagCBOR && codec != CodecRaw {
		return CID{}, fmt.Errorf("link: unsupported codec 0x%x", codec)
	}
	raw = raw[n:]

	hash, n := binary.Uvarint(raw)
	if n <= 0 {
		return CID{}, errors.New("link: truncated identifier")
	}
	if hash != HashSHA256 && hash != HashBlake3 {
		return CID{}, fmt.Errorf("link: unsupported hash function 0x%x", hash)
	}
	raw = raw[n:]

	length, n := binary.Uvarint(raw)
	if n <= 0 {
		return CID{}, errors.New("link: truncated identifier")
	}
	raw = raw[n:]
	if length != digestSize {
		return CID{}, fmt.Errorf("link: declared digest length %d, want %d", length, digestSize)
	}
	if len(raw) != digestSize {
		return CID{}, fmt.Errorf("link: digest is %d bytes, want %d", len(raw), digestSize)
	}

	c := CID{Codec: codec, Hash: hash}
	copy(c.Digest[:], raw)
	return c, nil
}
