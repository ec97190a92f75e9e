// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"reflect"
)

type variantKind uint8

const (
	unitKind variantKind = iota
	newtypeKind
	tupleKind
	structKind
)

// Variant is one case of a tagged union. The format has no native
// union kind, so the conventional encoding is used: a unit case is
// the bare case name as a text string, and every payload-carrying
// case is a single-entry map from the case name to its payload.
//
//	UnitVariant("Off")                 -> "Off"
//	NewtypeVariant("Radius", 5)        -> {"Radius": 5}
//	TupleVariant("Point", 1, 2)        -> {"Point": [1, 2]}
//	StructVariant("Move",
//	    Field{"X", 1}, Field{"Y", 2})  -> {"Move": {"X": 1, "Y": 2}}
//
// A decoder distinguishes the cases by shape: text means unit, a
// one-entry map means payload, and the inner value's shape selects
// among newtype, tuple, and struct.
type Variant struct {
	name   string
	kind   variantKind
	value  any
	tuple  []any
	fields []Field
}

// Field is one named field of a struct variant. Input order is
// irrelevant: fields encode as a map and are sorted like any other
// map entries.
type Field struct {
	Name  string
	Value any
}

// UnitVariant returns a case with no payload.
func UnitVariant(name string) Variant {
	return Variant{name: name, kind: unitKind}
}

// NewtypeVariant returns a case wrapping a single value. A nil value
// encodes as {name: null}.
func NewtypeVariant(name string, value any) Variant {
	return Variant{name: name, kind: newtypeKind, value: value}
}

// TupleVariant returns a case carrying a fixed-arity list of values.
func TupleVariant(name string, values ...any) Variant {
	return Variant{name: name, kind: tupleKind, tuple: values}
}

// StructVariant returns a case carrying named fields.
func StructVariant(name string, fields ...Field) Variant {
	return Variant{name: name, kind: structKind, fields: fields}
}

// Name returns the case name.
func (v Variant) Name() string { return v.name }

func encodeVariant(e *encodeState, v Variant) error {
	if v.kind == unitKind {
		return e.writeText(v.name)
	}
	// Payload cases share the single-entry map envelope. The entry
	// count is fixed at one, so no collector pass is needed for the
	// outer map; only a struct payload sorts, via its own collector.
	e.writeHead(majorMap, 1)
	if err := e.writeText(v.name); err != nil {
		return err
	}
	switch v.kind {
	case newtypeKind:
		return encodeValue(e, reflect.ValueOf(v.value))
	case tupleKind:
		e.writeHead(majorArray, uint64(len(v.tuple)))
		for _, elem := range v.tuple {
			if err := encodeValue(e, reflect.ValueOf(elem)); err != nil {
				return err
			}
		}
		return nil
	default:
		e.writeHead(majorMap, uint64(len(v.fields)))
		var c mapCollector
		for _, f := range v.fields {
			if err := c.addField(f.Name); err != nil {
				return err
			}
			if err := c.addValue(reflect.ValueOf(f.Value)); err != nil {
				return err
			}
		}
		return c.end(e, false)
	}
}
