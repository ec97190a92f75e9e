// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"errors"
	"reflect"
)

// Sentinel errors for inputs that are shaped correctly but carry a
// value the canonical form cannot represent. All are range or content
// violations on otherwise-encodable Go types; callers match them with
// errors.Is. Errors wrapping these never leave partial output in the
// destination writer.
var (
	// ErrIntegerRange reports a big.Int outside [-2^64, 2^64 - 1],
	// the closed interval representable by CBOR major types 0 and 1.
	ErrIntegerRange = errors.New("dagcbor: integer outside the 64-bit encodable range")

	// ErrNonFiniteFloat reports NaN or an infinity. The canonical
	// form has exactly one encoding per value, and non-finite floats
	// have no agreed value identity, so they are rejected rather
	// than encoded.
	ErrNonFiniteFloat = errors.New("dagcbor: non-finite float has no canonical encoding")

	// ErrInvalidUTF8 reports a Go string holding bytes that are not
	// valid UTF-8. Major type 3 carries only well-formed UTF-8; raw
	// bytes belong in a byte string ([]byte).
	ErrInvalidUTF8 = errors.New("dagcbor: text string is not valid UTF-8")

	// ErrDuplicateMapKey reports two map entries whose keys encode to
	// identical bytes. Go map keys are unique as Go values, but keys
	// encoded through TextMarshaler can collide after rendering.
	ErrDuplicateMapKey = errors.New("dagcbor: duplicate map key")
)

// UnsupportedTypeError reports a Go type with no representation in
// the encoded form: channels, complex numbers, uintptr, unsafe
// pointers, functions that are not iterator-shaped, and maps or
// iterator sequences whose keys do not encode as text strings (for
// those, Type names the map or function type, not the key type).
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return "dagcbor: unsupported type: " + e.Type.String()
}
