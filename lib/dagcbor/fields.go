// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"reflect"
	"slices"
	"strings"
	"sync"
)

// structField describes one encodable field of a struct type: the map
// key it encodes under, the index chain that reaches it through any
// embedded structs, and its tag options.
type structField struct {
	name      string
	index     []int
	omitEmpty bool
	tagged    bool
}

var fieldCache sync.Map // reflect.Type -> []structField

// cachedTypeFields returns the encodable fields of a struct type,
// resolving them once per type for the life of the process.
func cachedTypeFields(t reflect.Type) []structField {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]structField)
	}
	fields, _ := fieldCache.LoadOrStore(t, typeFields(t))
	return fields.([]structField)
}

// fieldTag reads the encoding name and options for one struct field.
// The cbor key is authoritative; json is honored as a fallback so
// types already tagged for encoding/json encode under the same names
// here. A "-" tag excludes the field.
func fieldTag(sf reflect.StructField) (name string, omitEmpty, skip bool) {
	tag, ok := sf.Tag.Lookup("cbor")
	if !ok {
		tag = sf.Tag.Get("json")
	}
	if tag == "-" {
		return "", false, true
	}
	name, rest, _ := strings.Cut(tag, ",")
	for rest != "" {
		var opt string
		opt, rest, _ = strings.Cut(rest, ",")
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

// typeFields resolves the fields of t the way encoding/json does:
// breadth-first over embedded structs, with shallower fields hiding
// deeper ones of the same name, explicit tags dominating untagged
// promotions, and same-depth conflicts cancelling each other out.
func typeFields(t reflect.Type) []structField {
	type embedded struct {
		typ   reflect.Type
		index []int
	}

	var fields []structField
	next := []embedded{{typ: t}}
	visited := map[reflect.Type]bool{}

	for len(next) > 0 {
		current := next
		next = nil
		for _, emb := range current {
			if visited[emb.typ] {
				continue
			}
			visited[emb.typ] = true
			for i := 0; i < emb.typ.NumField(); i++ {
				sf := emb.typ.Field(i)
				if sf.Anonymous {
					ft := sf.Type
					if ft.Kind() == reflect.Pointer {
						ft = ft.Elem()
					}
					// Unexported embedded structs still contribute
					// their exported fields; any other unexported
					// field is invisible.
					if !sf.IsExported() && ft.Kind() != reflect.Struct {
						continue
					}
				} else if !sf.IsExported() {
					continue
				}
				name, omitEmpty, skip := fieldTag(sf)
				if skip {
					continue
				}
				index := make([]int, len(emb.index)+1)
				copy(index, emb.index)
				index[len(emb.index)] = i

				ft := sf.Type
				if ft.Name() == "" && ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if name == "" && sf.Anonymous && ft.Kind() == reflect.Struct {
					next = append(next, embedded{typ: ft, index: index})
					continue
				}
				tagged := name != ""
				if name == "" {
					name = sf.Name
				}
				fields = append(fields, structField{
					name:      name,
					index:     index,
					omitEmpty: omitEmpty,
					tagged:    tagged,
				})
			}
		}
	}

	// Group by name; within a group shallower wins, a tag beats an
	// untagged field at the same depth, and a tie hides the name
	// entirely (the standard embedding ambiguity rule).
	slices.SortStableFunc(fields, func(a, b structField) int {
		if c := strings.Compare(a.name, b.name); c != 0 {
			return c
		}
		if c := len(a.index) - len(b.index); c != 0 {
			return c
		}
		if a.tagged != b.tagged {
			if a.tagged {
				return -1
			}
			return 1
		}
		return 0
	})

	out := fields[:0]
	for i := 0; i < len(fields); {
		j := i + 1
		for j < len(fields) && fields[j].name == fields[i].name {
			j++
		}
		if j-i == 1 {
			out = append(out, fields[i])
		} else if len(fields[i].index) != len(fields[i+1].index) ||
			fields[i].tagged != fields[i+1].tagged {
			out = append(out, fields[i])
		}
		i = j
	}
	return slices.Clip(out)
}

// fieldByIndex walks an index chain to the field value. A nil
// embedded pointer on the way makes the field unreachable; it is
// reported as absent and the caller omits it, matching encoding/json.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for _, i := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v, true
}

// isEmptyValue mirrors encoding/json's omitempty test.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
