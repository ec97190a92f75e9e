// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"reflect"
)

// seqArity classifies a function type against the iterator shapes
// from package iter: 1 for func(yield func(V) bool), 2 for
// func(yield func(K, V) bool), 0 for anything else. Detection is
// structural, so named types like iter.Seq[V] and hand-written
// equivalents both qualify.
func seqArity(t reflect.Type) int {
	if t.Kind() != reflect.Func || t.IsVariadic() || t.NumIn() != 1 || t.NumOut() != 0 {
		return 0
	}
	yield := t.In(0)
	if yield.Kind() != reflect.Func || yield.IsVariadic() {
		return 0
	}
	if yield.NumOut() != 1 || yield.Out(0).Kind() != reflect.Bool {
		return 0
	}
	switch yield.NumIn() {
	case 1, 2:
		return yield.NumIn()
	default:
		return 0
	}
}

// encodeIterator encodes a function value that matches one of the
// iterator shapes. Single-value sequences become arrays; keyed
// sequences become maps and go through the same collector as Go maps,
// so their keys are sorted and deduplicated identically.
func encodeIterator(e *encodeState, rv reflect.Value) error {
	switch seqArity(rv.Type()) {
	case 1:
		return encodeSeq(e, rv)
	case 2:
		return encodeSeq2(e, rv)
	default:
		return &UnsupportedTypeError{Type: rv.Type()}
	}
}

// encodeSeq drains a single-value iterator into an array. The element
// count is unknown until the iterator finishes, and the canonical
// form forbids indefinite-length items, so elements are encoded into
// a scratch sink alongside a counter and the definite-length header
// is written only afterwards. A failed element discards the scratch
// whole; nothing partial reaches e.
func encodeSeq(e *encodeState, rv reflect.Value) error {
	var (
		scratch encodeState
		count   uint64
		encErr  error
	)
	yieldType := rv.Type().In(0)
	yield := reflect.MakeFunc(yieldType, func(args []reflect.Value) []reflect.Value {
		if encErr != nil {
			// A misbehaving iterator may keep yielding after a
			// false return; refuse further elements.
			return []reflect.Value{reflect.ValueOf(false)}
		}
		if err := encodeValue(&scratch, args[0]); err != nil {
			encErr = err
			return []reflect.Value{reflect.ValueOf(false)}
		}
		count++
		return []reflect.Value{reflect.ValueOf(true)}
	})
	rv.Call([]reflect.Value{yield})
	if encErr != nil {
		return encErr
	}
	e.writeHead(majorArray, count)
	e.write(scratch.buf)
	return nil
}

// encodeSeq2 drains a keyed iterator into a map. Entry count and
// order are both unknown until the iterator finishes, so pairs flow
// into a mapCollector and the header is deferred to the end, exactly
// as for a Go map.
func encodeSeq2(e *encodeState, rv reflect.Value) error {
	var (
		c      mapCollector
		encErr error
	)
	yieldType := rv.Type().In(0)
	yield := reflect.MakeFunc(yieldType, func(args []reflect.Value) []reflect.Value {
		if encErr != nil {
			return []reflect.Value{reflect.ValueOf(false)}
		}
		if err := c.addKey(args[0], rv.Type()); err != nil {
			encErr = err
		} else if err := c.addValue(args[1]); err != nil {
			encErr = err
		}
		return []reflect.Value{reflect.ValueOf(encErr == nil)}
	})
	rv.Call([]reflect.Value{yield})
	if encErr != nil {
		return encErr
	}
	return c.end(e, true)
}
