// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/canon/cmd/canon/cli"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output (like validate) return
		// an ExitError with the desired exit code. Don't print a
		// redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return rootCommand().Execute(os.Args[1:])
}

// rootCommand builds the complete canon command tree.
func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "canon",
		Description: `Canon: canonical DAG-CBOR toolkit.

Encode structured data into the deterministic DAG-CBOR subset used
for content addressing, inspect and validate encoded blocks, compute
content identifiers, and manage a local content-addressed block
store.`,
		Subcommands: []*cli.Command{
			encodeCommand(),
			diagCommand(),
			validateCommand(),
			cidCommand(),
			storeCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Encode JSON to canonical DAG-CBOR",
				Command:     "echo '{\"count\":42}' | canon encode > block.cbor",
			},
			{
				Description: "Inspect a block's structure",
				Command:     "canon diag block.cbor",
			},
			{
				Description: "Check that bytes are canonical",
				Command:     "canon validate block.cbor",
			},
			{
				Description: "Compute a block's content identifier",
				Command:     "canon cid --codec dag-cbor block.cbor",
			},
			{
				Description: "Encode and store in one step",
				Command:     "echo '{\"count\":42}' | canon store put --encode --root /var/blocks",
			},
		},
	}
}
