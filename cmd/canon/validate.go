// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/canon/cmd/canon/cli"
	"github.com/bureau-foundation/canon/lib/dagcbor"
)

// toolDecMode decodes untrusted CBOR for the validate command. It is
// deliberately stricter than a general-purpose decoder: duplicate map
// keys, indefinite-length items, and tags are all outside the
// canonical profile, so rejecting them at decode time produces a
// precise error instead of a bare byte-mismatch verdict.
var toolDecMode = func() cbor.DecMode {
	mode, err := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
		TagsMd:      cbor.TagsForbidden,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("canon: CBOR decode mode initialization failed: %v", err))
	}
	return mode
}()

func validateCommand() *cli.Command {
	var slurp bool
	var hexInput bool

	return &cli.Command{
		Name:    "validate",
		Summary: "Check whether CBOR is in canonical DAG-CBOR form",
		Description: `Read CBOR data and verify it is in canonical DAG-CBOR form. Exits 0
with "valid" if the input is canonical, exits 1 with a diagnostic
message if not.

Validation works by decoding the input and re-encoding it with the
canonical encoder, then comparing the bytes. This catches unsorted
map keys, non-minimal integer heads, floats narrower than 64 bits,
indefinite-length items, and tags.

With -s, validates each item in a CBOR sequence independently.`,
		Usage: "canon validate [-s] [-x] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			flagSet.BoolVarP(&slurp, "slurp", "s", false, "validate each item in a CBOR sequence independently")
			flagSet.BoolVarP(&hexInput, "hex", "x", false, "treat input as hex-encoded CBOR")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Validate CBOR from a pipeline",
				Command:     "echo '{\"count\":42}' | canon encode | canon validate",
			},
			{
				Description: "Validate a block file",
				Command:     "canon validate block.cbor",
			},
			{
				Description: "Validate hex-encoded CBOR",
				Command:     "echo 'a1636b657963766174' | canon validate --hex",
			},
		},
		Run: func(args []string) error {
			data, remainingArgs, err := readInput(args, hexInput)
			if err != nil {
				return err
			}
			if len(remainingArgs) > 0 {
				return fmt.Errorf("validate takes no positional arguments besides an optional file path, got %q", remainingArgs[0])
			}
			return validateCBOR(data, os.Stdout, slurp)
		},
	}
}

// validateCBOR checks whether data is canonical DAG-CBOR by decoding
// and re-encoding, then comparing bytes. A canonical input prints
// "valid" and returns nil. A well-formed but non-canonical input
// prints a mismatch diagnostic and returns a handled exit-1 error.
// Malformed input returns a plain error.
func validateCBOR(data []byte, w io.Writer, slurp bool) error {
	if len(data) == 0 {
		return fmt.Errorf("empty input: expected CBOR data")
	}

	if slurp {
		return validateSequence(data, w)
	}

	return validateSingle(data, w)
}

func validateSingle(data []byte, w io.Writer) error {
	var value any
	if err := toolDecMode.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode CBOR: %w", err)
	}

	reencoded, err := dagcbor.Marshal(value)
	if err != nil {
		return fmt.Errorf("re-encode CBOR: %w", err)
	}

	return verdict(data, reencoded, w)
}

func validateSequence(data []byte, w io.Writer) error {
	decoder := toolDecMode.NewDecoder(bytes.NewReader(data))
	var reencoded bytes.Buffer
	var count int
	for {
		var value any
		if err := decoder.Decode(&value); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode CBOR sequence item %d: %w", count, err)
		}

		itemBytes, err := dagcbor.Marshal(value)
		if err != nil {
			return fmt.Errorf("re-encode CBOR sequence item %d: %w", count, err)
		}
		reencoded.Write(itemBytes)
		count++
	}

	if count == 0 {
		return fmt.Errorf("empty input: expected CBOR data")
	}

	return verdict(data, reencoded.Bytes(), w)
}

// verdict prints "valid" when original and reencoded agree, otherwise
// prints where they diverge and returns a handled exit-1 error.
func verdict(original, reencoded []byte, w io.Writer) error {
	if bytes.Equal(original, reencoded) {
		fmt.Fprintln(w, "valid")
		return nil
	}

	offset := 0
	minLength := min(len(original), len(reencoded))
	for offset < minLength {
		if original[offset] != reencoded[offset] {
			break
		}
		offset++
	}

	fmt.Fprintf(w, "not canonical: first difference at byte %d (original %d bytes, re-encoded %d bytes)\n",
		offset, len(original), len(reencoded))
	return &cli.ExitError{Code: 1}
}
