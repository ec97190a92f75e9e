// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/canon/cmd/canon/cli"
)

func diagCommand() *cli.Command {
	var hexInput bool

	return &cli.Command{
		Name:    "diag",
		Summary: "Convert DAG-CBOR to diagnostic notation",
		Description: `Read CBOR from stdin (or a file argument) and write RFC 8949 Extended
Diagnostic Notation (EDN) to stdout.

Unlike JSON output, diagnostic notation preserves CBOR type
information: integer vs float, byte strings vs text strings. This is
useful for inspecting the exact wire representation of a block before
it is hashed.

Examples of diagnostic notation:

  {"count": 42, "name": "doc"}    text keys, integer value
  [1, 2.5, h'a1b2']               integer, float, byte string

Input that is a CBOR sequence (multiple concatenated items, as
produced by Encoder) prints one line per item.`,
		Usage: "canon diag [-x] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("diag", pflag.ContinueOnError)
			flagSet.BoolVarP(&hexInput, "hex", "x", false, "treat input as hex-encoded CBOR")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Show diagnostic notation for a block",
				Command:     "canon diag < block.cbor",
			},
			{
				Description: "Encode JSON and inspect the CBOR structure",
				Command:     "echo '{\"count\":42}' | canon encode | canon diag",
			},
			{
				Description: "Inspect hex-dumped bytes",
				Command:     "echo 'a165636f756e74182a' | canon diag --hex",
			},
		},
		Run: func(args []string) error {
			data, remainingArgs, err := readInput(args, hexInput)
			if err != nil {
				return err
			}
			if len(remainingArgs) > 0 {
				return fmt.Errorf("diag takes no positional arguments besides an optional file path, got %q", remainingArgs[0])
			}
			return diagCBOR(data, os.Stdout)
		},
	}
}

// diagCBOR writes the diagnostic notation of data to w, one line per
// CBOR item.
func diagCBOR(data []byte, w io.Writer) error {
	if len(data) == 0 {
		return fmt.Errorf("empty input: expected CBOR data")
	}

	// Process as a sequence: diagnose each item and print on its
	// own line. For a single item this produces one line; for CBOR
	// sequences (RFC 8742) it produces one line per item.
	remaining := data
	for len(remaining) > 0 {
		notation, rest, err := cbor.DiagnoseFirst(remaining)
		if err != nil {
			offset := len(data) - len(remaining)
			return fmt.Errorf("diagnose CBOR at byte %d: %w", offset, err)
		}
		if _, err := fmt.Fprintln(w, notation); err != nil {
			return err
		}
		remaining = rest
	}

	return nil
}
