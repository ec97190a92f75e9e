// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"bytes"
	"encoding"
	"fmt"
	"io"
	"math/big"
	"reflect"
	"sync"
)

var (
	bigIntType          = reflect.TypeOf(big.Int{})
	bigIntPtrType       = reflect.TypeOf((*big.Int)(nil))
	variantType         = reflect.TypeOf(Variant{})
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	binaryMarshalerType = reflect.TypeOf((*encoding.BinaryMarshaler)(nil)).Elem()
)

var statePool = sync.Pool{
	New: func() any { return new(encodeState) },
}

// Marshal returns the canonical encoding of v as one complete data
// item. Equal values always encode to identical bytes, which is what
// makes the output safe to hash for content addressing. On error the
// returned bytes are nil; there is no partial output.
func Marshal(v any) ([]byte, error) {
	e := statePool.Get().(*encodeState)
	defer func() {
		e.reset()
		statePool.Put(e)
	}()
	if err := encodeValue(e, reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return bytes.Clone(e.buf), nil
}

// An Encoder writes canonical items to an output stream.
type Encoder struct {
	w io.Writer
	e encodeState
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the canonical encoding of v to the stream. The item
// is built fully in memory first and handed to the writer in a single
// Write call, so an encoding failure leaves the stream untouched. A
// failed or short write is returned wrapped; the stream state is then
// whatever the writer left behind.
func (enc *Encoder) Encode(v any) error {
	enc.e.reset()
	if err := encodeValue(&enc.e, reflect.ValueOf(v)); err != nil {
		return err
	}
	if _, err := enc.w.Write(enc.e.buf); err != nil {
		return fmt.Errorf("dagcbor: write: %w", err)
	}
	return nil
}

// encodeValue dispatches one Go value to its emitter. The type-exact
// cases (Variant, big.Int) run before the marshaler interfaces
// because *big.Int implements TextMarshaler and would otherwise
// encode as a decimal string instead of an integer.
func encodeValue(e *encodeState, rv reflect.Value) error {
	if !rv.IsValid() {
		e.writeNull()
		return nil
	}

	// Nil pointers, interfaces, maps, slices, and iterator functions
	// all encode as null, before any marshaler gets a say.
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		if rv.IsNil() {
			e.writeNull()
			return nil
		}
	}

	t := rv.Type()
	switch t {
	case variantType:
		return encodeVariant(e, rv.Interface().(Variant))
	case bigIntType:
		i := rv.Interface().(big.Int)
		return e.writeBigInt(&i)
	case bigIntPtrType:
		return e.writeBigInt(rv.Interface().(*big.Int))
	}

	// TextMarshaler wins over BinaryMarshaler when a type implements
	// both, so types like time.Time keep a readable form.
	if m, ok := textMarshalerFor(rv); ok {
		text, err := m.MarshalText()
		if err != nil {
			return fmt.Errorf("dagcbor: %s.MarshalText: %w", t, err)
		}
		return e.writeText(string(text))
	}
	if m, ok := binaryMarshalerFor(rv); ok {
		data, err := m.MarshalBinary()
		if err != nil {
			return fmt.Errorf("dagcbor: %s.MarshalBinary: %w", t, err)
		}
		e.writeBytes(data)
		return nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		e.writeBool(rv.Bool())
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.writeInt(rv.Int())
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		e.writeHead(majorUnsigned, rv.Uint())
		return nil

	case reflect.Float32, reflect.Float64:
		return e.writeFloat(rv.Float())

	case reflect.String:
		return e.writeText(rv.String())

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			e.writeBytes(rv.Bytes())
			return nil
		}
		return encodeArray(e, rv)

	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			// Byte arrays may be unaddressable (map values, interface
			// contents), in which case Bytes() is unavailable.
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			e.writeBytes(b)
			return nil
		}
		return encodeArray(e, rv)

	case reflect.Map:
		return encodeMap(e, rv)

	case reflect.Struct:
		return encodeStruct(e, rv)

	case reflect.Pointer, reflect.Interface:
		return encodeValue(e, rv.Elem())

	case reflect.Func:
		return encodeIterator(e, rv)

	default:
		// Chan, Complex64, Complex128, Uintptr, UnsafePointer.
		return &UnsupportedTypeError{Type: t}
	}
}

// encodeArray encodes a slice or array whose length is known up
// front: the definite-length header, then each element in order.
// Element order is meaningful and preserved exactly.
func encodeArray(e *encodeState, rv reflect.Value) error {
	length := rv.Len()
	e.writeHead(majorArray, uint64(length))
	for i := 0; i < length; i++ {
		if err := encodeValue(e, rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// encodeMap encodes a Go map. Iteration order is random, so entries
// pass through a collector that sorts them by encoded key; the length
// header is deferred until collection ends.
func encodeMap(e *encodeState, rv reflect.Value) error {
	var c mapCollector
	iter := rv.MapRange()
	for iter.Next() {
		if err := c.addKey(iter.Key(), rv.Type()); err != nil {
			return err
		}
		if err := c.addValue(iter.Value()); err != nil {
			return err
		}
	}
	return c.end(e, true)
}

// encodeStruct encodes a struct as a map of its visible fields. The
// field set and omitempty filtering resolve before any bytes are
// written, so the pair count is exact and the header goes first; the
// collector still sorts, because tag names need not follow field
// declaration order.
func encodeStruct(e *encodeState, rv reflect.Value) error {
	type member struct {
		name  string
		value reflect.Value
	}
	fields := cachedTypeFields(rv.Type())
	include := make([]member, 0, len(fields))
	for _, f := range fields {
		fv, ok := fieldByIndex(rv, f.index)
		if !ok || (f.omitEmpty && isEmptyValue(fv)) {
			continue
		}
		include = append(include, member{name: f.name, value: fv})
	}
	e.writeHead(majorMap, uint64(len(include)))
	var c mapCollector
	for _, m := range include {
		if err := c.addField(m.name); err != nil {
			return err
		}
		if err := c.addValue(m.value); err != nil {
			return err
		}
	}
	return c.end(e, false)
}

// textMarshalerFor reports whether rv (or its address, when
// addressable) implements encoding.TextMarshaler.
func textMarshalerFor(rv reflect.Value) (encoding.TextMarshaler, bool) {
	if rv.Type().Implements(textMarshalerType) {
		return rv.Interface().(encoding.TextMarshaler), true
	}
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(textMarshalerType) {
		return rv.Addr().Interface().(encoding.TextMarshaler), true
	}
	return nil, false
}

// binaryMarshalerFor reports whether rv (or its address, when
// addressable) implements encoding.BinaryMarshaler.
func binaryMarshalerFor(rv reflect.Value) (encoding.BinaryMarshaler, bool) {
	if rv.Type().Implements(binaryMarshalerType) {
		return rv.Interface().(encoding.BinaryMarshaler), true
	}
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(binaryMarshalerType) {
		return rv.Addr().Interface().(encoding.BinaryMarshaler), true
	}
	return nil, false
}
