// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"unicode/utf8"
)

// CBOR major types (RFC 8949 §3.1). Major type 6 (tags) is absent on
// purpose: the profile this encoder targets forbids tags, so nothing
// here can emit one.
const (
	majorUnsigned byte = 0 // non-negative integer
	majorNegative byte = 1 // negative integer, argument is -1 - n
	majorBytes    byte = 2 // byte string
	majorText     byte = 3 // UTF-8 text string
	majorArray    byte = 4 // array
	majorMap      byte = 5 // map
	majorSimple   byte = 7 // simple values and floats
)

// Additional-information values selecting the argument width that
// follows the initial byte.
const (
	aiUint8  = 24
	aiUint16 = 25
	aiUint32 = 26
	aiUint64 = 27
)

// Simple values carried in major type 7.
const (
	simpleFalse = 20
	simpleTrue  = 21
	simpleNull  = 22
)

// encodeState is an append-only byte sink threaded through one encode
// traversal. Appends cannot fail, so only emitters that validate
// their input (text, floats, big integers) return errors. Encoders
// that need to know a length before the data that produced it (maps,
// unbounded sequences) build into a private encodeState and splice
// the finished bytes into their parent.
type encodeState struct {
	buf []byte
}

func (e *encodeState) reset() { e.buf = e.buf[:0] }

func (e *encodeState) writeByte(b byte) { e.buf = append(e.buf, b) }

func (e *encodeState) write(p []byte) { e.buf = append(e.buf, p...) }

// writeHead emits the initial byte and argument for one data item.
// The canonical form admits exactly one width per argument, the
// smallest that holds it (RFC 8949 §4.2.1), and never the
// indefinite-length form.
func (e *encodeState) writeHead(major byte, n uint64) {
	switch {
	case n < 24:
		e.writeByte(major<<5 | byte(n))
	case n <= math.MaxUint8:
		e.writeByte(major<<5 | aiUint8)
		e.writeByte(byte(n))
	case n <= math.MaxUint16:
		e.writeByte(major<<5 | aiUint16)
		e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(n))
	case n <= math.MaxUint32:
		e.writeByte(major<<5 | aiUint32)
		e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(n))
	default:
		e.writeByte(major<<5 | aiUint64)
		e.buf = binary.BigEndian.AppendUint64(e.buf, n)
	}
}

func (e *encodeState) writeNull() {
	e.writeByte(majorSimple<<5 | simpleNull)
}

func (e *encodeState) writeBool(b bool) {
	if b {
		e.writeByte(majorSimple<<5 | simpleTrue)
	} else {
		e.writeByte(majorSimple<<5 | simpleFalse)
	}
}

// writeInt encodes a signed integer: major type 0 for n >= 0, major
// type 1 with argument -1 - n for negatives. The argument arithmetic
// is done after negation-by-one so math.MinInt64 does not overflow.
func (e *encodeState) writeInt(v int64) {
	if v >= 0 {
		e.writeHead(majorUnsigned, uint64(v))
		return
	}
	e.writeHead(majorNegative, uint64(-(v + 1)))
}

// writeFloat encodes a finite float as the full 8-byte
// double-precision form (0xfb). The profile fixes float width at 64
// bits; the shortest-width preference from generic canonical CBOR
// does not apply here. Float32 inputs are widened by the caller,
// which is exact and therefore round-trippable.
func (e *encodeState) writeFloat(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrNonFiniteFloat, f)
	}
	e.writeByte(majorSimple<<5 | aiUint64)
	e.buf = binary.BigEndian.AppendUint64(e.buf, math.Float64bits(f))
	return nil
}

func (e *encodeState) writeText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidUTF8, s)
	}
	e.writeHead(majorText, uint64(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}

func (e *encodeState) writeBytes(b []byte) {
	e.writeHead(majorBytes, uint64(len(b)))
	e.write(b)
}

// writeBigInt encodes an arbitrary-precision integer, provided it
// fits the encodable domain [-2^64, 2^64 - 1]. Values below int64
// range are still representable: major type 1 carries magnitudes up
// to 2^64 - 1, reaching -2^64. For a negative n the argument is
// -1 - n, which is exactly what big.Int.Not computes.
func (e *encodeState) writeBigInt(i *big.Int) error {
	if i.Sign() >= 0 {
		if !i.IsUint64() {
			return fmt.Errorf("%w: %s", ErrIntegerRange, i)
		}
		e.writeHead(majorUnsigned, i.Uint64())
		return nil
	}
	var arg big.Int
	arg.Not(i)
	if !arg.IsUint64() {
		return fmt.Errorf("%w: %s", ErrIntegerRange, i)
	}
	e.writeHead(majorNegative, arg.Uint64())
	return nil
}
