// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dagcbor encodes Go values into canonical DAG-CBOR: the
// strict CBOR subset used for content-addressed data, where equal
// values must produce identical bytes so that hashes and block
// identifiers are stable across processes, machines, and time.
//
// The encoder enforces every determinism rule of the profile rather
// than trusting callers to hold them:
//
//   - integer heads use the smallest width that fits the value
//   - floats are always 64-bit doubles; NaN and infinities are
//     rejected rather than given an arbitrary bit pattern
//   - map entries are sorted by bytewise comparison of their encoded
//     keys, and only text-string keys are allowed
//   - indefinite-length items and semantic tags are never emitted
//   - text strings must be valid UTF-8
//
// There is no decoder here. Canonical bytes exist to be hashed and
// stored; reading them back is a different concern with different
// strictness tradeoffs, served by general CBOR decoders.
//
// For buffer-oriented use:
//
//	data, err := dagcbor.Marshal(value)
//
// For stream-oriented use:
//
//	encoder := dagcbor.NewEncoder(w)
//	err := encoder.Encode(value)
//
// # Value Mapping
//
// Go values map onto the data model as follows:
//
//   - nil, nil pointers/interfaces/maps/slices: null
//   - bool: true/false
//   - int*, uint*: major type 0 or 1
//   - *big.Int: major type 0 or 1 when within [-2^64, 2^64 - 1],
//     ErrIntegerRange otherwise
//   - float32, float64: 64-bit float
//   - string: text string (UTF-8 checked)
//   - []byte, [N]byte: byte string
//   - other slices and arrays: array
//   - map[string]T, map with TextMarshaler keys: map
//   - struct: map of visible fields (`cbor` tag first, `json` tag as
//     fallback; omitempty and "-" behave as in encoding/json)
//   - func(func(V) bool): array, drained like iter.Seq
//   - func(func(K, V) bool): map, drained like iter.Seq2
//   - Variant: tagged-union encoding (see Variant)
//
// Types implementing encoding.TextMarshaler encode as text strings
// and types implementing encoding.BinaryMarshaler as byte strings,
// with TextMarshaler taking precedence. Channels, complex numbers,
// uintptr, unsafe pointers, and other function shapes have no
// encoding and fail with UnsupportedTypeError.
//
// # Determinism Caveat
//
// Marshal is deterministic per value, not per type: two different Go
// shapes may encode to the same bytes (int(1) and uint(1) do), and
// the same logical record split across different struct definitions
// encodes identically only if the visible field names and values
// match. Hash the bytes, not assumptions about the types.
package dagcbor
