// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	data, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return data
}

func checkEncode(t *testing.T, input string, yamlInput bool, wantHex string) {
	t.Helper()
	var out bytes.Buffer
	if err := encodeInput([]byte(input), &out, yamlInput); err != nil {
		t.Fatalf("encodeInput(%q) error: %v", input, err)
	}
	if got := hex.EncodeToString(out.Bytes()); got != wantHex {
		t.Errorf("encodeInput(%q) = %s, want %s", input, got, wantHex)
	}
}

func TestEncodeJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"integer", `42`, "182a"},
		{"negative integer", `-1`, "20"},
		{"float", `2.5`, "fb4004000000000000"},
		{"string", `"a"`, "6161"},
		{"null", `null`, "f6"},
		{"booleans", `[true, false]`, "82f5f4"},
		{"object", `{"count": 42}`, "a165636f756e74182a"},
		{"keys sorted", `{"b": 1, "a": 2}`, "a2616102616201"},
		{"nested", `{"a": {"b": [true, false, null]}}`, "a16161a1616283f5f4f6"},
		{"array of numbers", `[1, 2.5]`, "8201fb4004000000000000"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			checkEncode(t, test.input, false, test.want)
		})
	}
}

func TestEncodeIntegersStayIntegers(t *testing.T) {
	// A whole number must come out as a CBOR integer, not a float.
	// {"count": 42} and {"count": 42.0} address different blocks.
	checkEncode(t, `{"count": 42}`, false, "a165636f756e74182a")
	checkEncode(t, `{"count": 42.0}`, false, "a165636f756e74fb4045000000000000")
}

func TestEncodeWideIntegersStayIntegers(t *testing.T) {
	// Integers above int64 still encode as CBOR integers, not floats:
	// the maximum uint64 value must come out as the 1b head with all
	// eight argument bytes set.
	checkEncode(t, `{"n": 18446744073709551615}`, false, "a1616e1bffffffffffffffff")
	checkEncode(t, `18446744073709551615`, false, "1bffffffffffffffff")
}

func TestEncodeIntegerBeyondFormatRange(t *testing.T) {
	// 2^64 has integer identity but no CBOR representation; the
	// encoder's range check reports it instead of a silent float.
	var out bytes.Buffer
	err := encodeInput([]byte(`{"n": 18446744073709551616}`), &out, false)
	if err == nil {
		t.Fatal("encodeInput(2^64) = nil, want range error")
	}
	if !strings.Contains(err.Error(), "range") {
		t.Errorf("error = %q, want integer range failure", err.Error())
	}
	if out.Len() != 0 {
		t.Errorf("failed encode wrote %d bytes", out.Len())
	}
}

func TestEncodeHugeFloatRejected(t *testing.T) {
	// 1e999 overflows float64; it must surface as an error, never a
	// panic or an infinity.
	var out bytes.Buffer
	err := encodeInput([]byte(`{"n": 1e999}`), &out, false)
	if err == nil {
		t.Fatal("encodeInput(1e999) = nil, want error")
	}
	if !strings.Contains(err.Error(), "1e999") {
		t.Errorf("error = %q, want the offending literal named", err.Error())
	}
}

func TestEncodeStripsComments(t *testing.T) {
	input := `{
	// the answer
	"count": 42, /* trailing comma above is fine too */
}`
	checkEncode(t, input, false, "a165636f756e74182a")
}

func TestEncodeYAML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"mapping", "count: 42\n", "a165636f756e74182a"},
		{"sequence", "- 1\n- 2\n", "820102"},
		{"string value", "name: doc\n", "a1646e616d6563646f63"},
		{"nested", "a:\n  b: true\n", "a16161a16162f5"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			checkEncode(t, test.input, true, test.want)
		})
	}
}

func TestEncodeYAMLMatchesJSON(t *testing.T) {
	var fromJSON, fromYAML bytes.Buffer
	if err := encodeInput([]byte(`{"count": 42, "name": "doc"}`), &fromJSON, false); err != nil {
		t.Fatalf("JSON encode error: %v", err)
	}
	if err := encodeInput([]byte("count: 42\nname: doc\n"), &fromYAML, true); err != nil {
		t.Fatalf("YAML encode error: %v", err)
	}
	if !bytes.Equal(fromJSON.Bytes(), fromYAML.Bytes()) {
		t.Errorf("JSON and YAML encodings differ: %x vs %x", fromJSON.Bytes(), fromYAML.Bytes())
	}
}

func TestEncodeEmptyInput(t *testing.T) {
	var out bytes.Buffer
	err := encodeInput(nil, &out, false)
	if err == nil {
		t.Fatal("encodeInput(empty) = nil, want error")
	}
	if !strings.Contains(err.Error(), "empty input") {
		t.Errorf("error = %q, want mention of empty input", err.Error())
	}
	if out.Len() != 0 {
		t.Errorf("failed encode wrote %d bytes", out.Len())
	}
}

func TestEncodeInvalidJSON(t *testing.T) {
	var out bytes.Buffer
	err := encodeInput([]byte(`{"count":`), &out, false)
	if err == nil {
		t.Fatal("encodeInput(invalid) = nil, want error")
	}
	if !strings.Contains(err.Error(), "decode JSON") {
		t.Errorf("error = %q, want decode JSON context", err.Error())
	}
}

func TestEncodeInvalidYAML(t *testing.T) {
	var out bytes.Buffer
	err := encodeInput([]byte("[1, 2\n"), &out, true)
	if err == nil {
		t.Fatal("encodeInput(invalid yaml) = nil, want error")
	}
	if !strings.Contains(err.Error(), "decode YAML") {
		t.Errorf("error = %q, want decode YAML context", err.Error())
	}
}
