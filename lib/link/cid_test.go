// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package link

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/canon/lib/dagcbor"
)

// The identifier of the empty raw block is a fixed point of the whole
// stack (sha-256 of no bytes, wrapped and base32-encoded), so its
// text form is a stable cross-implementation vector.
func TestEmptyRawBlockVector(t *testing.T) {
	c := Sum(CodecRaw, nil)
	const want = "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku"
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := c.Bytes()[:4]; !bytes.Equal(got, []byte{0x01, 0x55, 0x12, 0x20}) {
		t.Errorf("header = %x, want 01551220", got)
	}
}

func TestHeaderBytes(t *testing.T) {
	data := []byte("payload")
	cases := []struct {
		c    CID
		want []byte
	}{
		{Sum(CodecDagCBOR, data), []byte{0x01, 0x71, 0x12, 0x20}},
		{Sum(CodecRaw, data), []byte{0x01, 0x55, 0x12, 0x20}},
		{SumBlake3(CodecDagCBOR, data), []byte{0x01, 0x71, 0x1e, 0x20}},
		{SumBlake3(CodecRaw, data), []byte{0x01, 0x55, 0x1e, 0x20}},
	}
	for _, tc := range cases {
		raw := tc.c.Bytes()
		if len(raw) != 36 {
			t.Errorf("Bytes() length %d, want 36", len(raw))
		}
		if !bytes.Equal(raw[:4], tc.want) {
			t.Errorf("header = %x, want %x", raw[:4], tc.want)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	data := []byte("round trip me")
	identifiers := []CID{
		Sum(CodecDagCBOR, data),
		Sum(CodecRaw, data),
		SumBlake3(CodecDagCBOR, data),
		SumBlake3(CodecRaw, data),
	}
	for _, c := range identifiers {
		for _, text := range []string{c.String(), c.Base58()} {
			parsed, err := Parse(text)
			if err != nil {
				t.Errorf("Parse(%q): %v", text, err)
				continue
			}
			if parsed != c {
				t.Errorf("Parse(%q) = %+v, want %+v", text, parsed, c)
			}
		}
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	c := SumBlake3(CodecDagCBOR, []byte("block"))
	decoded, err := Decode(c.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != c {
		t.Errorf("Decode(Bytes()) = %+v, want %+v", decoded, c)
	}
}

// Every strict prefix of a valid binary identifier must fail to
// decode; there is no length at which truncation goes unnoticed.
func TestDecodeTruncated(t *testing.T) {
	raw := Sum(CodecDagCBOR, []byte("x")).Bytes()
	for i := range raw {
		if _, err := Decode(raw[:i]); err == nil {
			t.Errorf("Decode accepted %d-byte prefix of %d-byte identifier", i, len(raw))
		}
	}
}

func TestDecodeRejectsForeignValues(t *testing.T) {
	digest := make([]byte, 32)

	build := func(version, codec, hash, length uint64) []byte {
		raw := binary.AppendUvarint(nil, version)
		raw = binary.AppendUvarint(raw, codec)
		raw = binary.AppendUvarint(raw, hash)
		raw = binary.AppendUvarint(raw, length)
		return append(raw, digest...)
	}

	cases := []struct {
		name string
		raw  []byte
	}{
		{"version 0", build(0, CodecDagCBOR, HashSHA256, 32)},
		{"version 2", build(2, CodecDagCBOR, HashSHA256, 32)},
		{"unknown codec", build(1, 0x70, HashSHA256, 32)},
		{"unknown hash", build(1, CodecDagCBOR, 0x13, 32)},
		{"declared length 16", build(1, CodecDagCBOR, HashSHA256, 16)},
	}
	for _, tc := range cases {
		if _, err := Decode(tc.raw); err == nil {
			t.Errorf("%s: Decode accepted invalid input", tc.name)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"b",
		"qnotaprefix",
		"b!!!not-base32!!!",
		"z0OIl", // characters outside the base58 alphabet
	}
	for _, s := range cases {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) accepted invalid input", s)
		}
	}
}

func TestVerify(t *testing.T) {
	data := []byte("content to address")
	for _, c := range []CID{Sum(CodecRaw, data), SumBlake3(CodecRaw, data)} {
		if err := c.Verify(data); err != nil {
			t.Errorf("Verify(original): %v", err)
		}
		corrupted := append([]byte{}, data...)
		corrupted[0] ^= 0xff
		if err := c.Verify(corrupted); !errors.Is(err, ErrDigestMismatch) {
			t.Errorf("Verify(corrupted): err = %v, want ErrDigestMismatch", err)
		}
	}

	unknown := CID{Codec: CodecRaw, Hash: 0x99}
	if err := unknown.Verify(data); err == nil || errors.Is(err, ErrDigestMismatch) {
		t.Errorf("Verify with unknown hash: err = %v, want distinct failure", err)
	}
}

func TestComparableAndMapKey(t *testing.T) {
	a := Sum(CodecRaw, []byte("a"))
	b := Sum(CodecRaw, []byte("b"))
	if a == b {
		t.Fatal("distinct content produced equal identifiers")
	}
	seen := map[CID]string{a: "a", b: "b"}
	if seen[Sum(CodecRaw, []byte("a"))] != "a" {
		t.Error("identifier not stable as map key")
	}
}

// Identifiers embed in canonical documents as text strings via
// TextMarshaler, indistinguishable from writing the string by hand.
func TestEncodesAsTextString(t *testing.T) {
	c := Sum(CodecDagCBOR, []byte("linked block"))
	asLink, err := dagcbor.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal(CID): %v", err)
	}
	asString, err := dagcbor.Marshal(c.String())
	if err != nil {
		t.Fatalf("Marshal(string): %v", err)
	}
	if !bytes.Equal(asLink, asString) {
		t.Errorf("CID encoding %x != string encoding %x", asLink, asString)
	}

	// And round-trips back out of a document field.
	var parsed CID
	if err := parsed.UnmarshalText([]byte(c.String())); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed != c {
		t.Errorf("UnmarshalText = %+v, want %+v", parsed, c)
	}
}

func TestBase58Prefix(t *testing.T) {
	c := Sum(CodecRaw, []byte("x"))
	if !strings.HasPrefix(c.Base58(), "z") {
		t.Errorf("Base58() = %q, want z prefix", c.Base58())
	}
}
