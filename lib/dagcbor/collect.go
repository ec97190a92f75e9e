// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"bytes"
	"fmt"
	"reflect"
	"slices"
)

// encodedPair holds one map entry as finished bytes. Sorting operates
// on the key bytes alone; values ride along untouched.
type encodedPair struct {
	key   []byte
	value []byte
}

// mapCollector accumulates map entries as encoded byte pairs so they
// can be emitted in canonical order: sorted by bytewise comparison of
// the full encoded key, length header included. Because the header
// encodes the key's length, shorter keys sort before longer ones with
// a shared prefix ("b" before "aa"), which is the order the format
// requires, not a plain string sort.
//
// Keys and values are encoded into reusable scratch states and copied
// out per entry, so a failing value leaves no trace: either both
// halves of a pair are captured or neither is.
type mapCollector struct {
	keyScratch encodeState
	valScratch encodeState
	entries    []encodedPair
}

// addKey encodes one map key into the key scratch. Only values that
// render as text strings are accepted: Go strings, and types whose
// TextMarshaler output stands in for them. A TextMarshaler wins over
// string kind, the same precedence encodeValue applies in value
// position, so a named string type encodes identically as a key and
// as a value. container names the map or iterator type being encoded
// and is used only for the error.
func (c *mapCollector) addKey(kv reflect.Value, container reflect.Type) error {
	c.keyScratch.reset()
	if kv.Kind() == reflect.Interface {
		if kv.IsNil() {
			return &UnsupportedTypeError{Type: container}
		}
		kv = kv.Elem()
	}
	if m, ok := textMarshalerFor(kv); ok {
		text, err := m.MarshalText()
		if err != nil {
			return fmt.Errorf("dagcbor: %s.MarshalText: %w", kv.Type(), err)
		}
		return c.keyScratch.writeText(string(text))
	}
	if kv.Kind() == reflect.String {
		return c.keyScratch.writeText(kv.String())
	}
	return &UnsupportedTypeError{Type: container}
}

// addField encodes a literal field name into the key scratch. Struct
// encoders use this; the names come from Go identifiers or struct
// tags and are validated as UTF-8 like any other text.
func (c *mapCollector) addField(name string) error {
	c.keyScratch.reset()
	return c.keyScratch.writeText(name)
}

// addValue encodes one map value and captures the pending key/value
// pair. Call it immediately after addKey or addField; on error the
// pair is dropped whole.
func (c *mapCollector) addValue(vv reflect.Value) error {
	c.valScratch.reset()
	if err := encodeValue(&c.valScratch, vv); err != nil {
		return err
	}
	c.entries = append(c.entries, encodedPair{
		key:   bytes.Clone(c.keyScratch.buf),
		value: bytes.Clone(c.valScratch.buf),
	})
	return nil
}

// end sorts the collected pairs and writes them to e. When
// deferHeader is true the definite-length map header is written here,
// once the entry count is finally known; struct encoders know their
// count up front and write the header themselves before collecting.
//
// The sort is stable so that equal keys stay adjacent in insertion
// order for the duplicate scan; duplicates are then rejected, since a
// canonical map cannot carry the same key twice.
func (c *mapCollector) end(e *encodeState, deferHeader bool) error {
	slices.SortStableFunc(c.entries, func(a, b encodedPair) int {
		return bytes.Compare(a.key, b.key)
	})
	for i := 1; i < len(c.entries); i++ {
		if bytes.Equal(c.entries[i-1].key, c.entries[i].key) {
			return fmt.Errorf("%w: %q", ErrDuplicateMapKey, textKeyString(c.entries[i].key))
		}
	}
	if deferHeader {
		e.writeHead(majorMap, uint64(len(c.entries)))
	}
	for _, pair := range c.entries {
		e.write(pair.key)
		e.write(pair.value)
	}
	return nil
}

// textKeyString recovers the string from an encoded text-string key
// for error messages. The collector only ever produces text keys, so
// the major type is known; only the argument width varies.
func textKeyString(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	skip := 1
	switch key[0] & 0x1f {
	case aiUint8:
		skip = 2
	case aiUint16:
		skip = 3
	case aiUint32:
		skip = 5
	case aiUint64:
		skip = 9
	}
	if skip > len(key) {
		return ""
	}
	return string(key[skip:])
}
