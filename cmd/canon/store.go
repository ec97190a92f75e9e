// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/canon/cmd/canon/cli"
	"github.com/bureau-foundation/canon/lib/blockstore"
	"github.com/bureau-foundation/canon/lib/link"
)

func storeCommand() *cli.Command {
	return &cli.Command{
		Name:    "store",
		Summary: "Manage a content-addressed block store",
		Description: `Store and retrieve blocks addressed by their content.

Blocks live under a root directory given by --root or the CANON_STORE
environment variable. New blocks are compressed at rest (zstd by
default) and written atomically; reads verify the digest before
returning bytes, so a corrupted block is reported rather than served.`,
		Subcommands: []*cli.Command{
			storePutCommand(),
			storeGetCommand(),
			storeHasCommand(),
			storeStatCommand(),
			storeListCommand(),
			storeRemoveCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Store a file and print its identifier",
				Command:     "canon store put --root /var/blocks layer.tar",
			},
			{
				Description: "Store a JSON document as canonical DAG-CBOR",
				Command:     "echo '{\"count\":42}' | canon store put --encode",
			},
			{
				Description: "Fetch a block",
				Command:     "canon store get bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku",
			},
			{
				Description: "Check presence by exit code",
				Command:     "canon store has $CID && echo present",
			},
		},
	}
}

// registerRootFlag adds the --root flag shared by every store
// subcommand. The default comes from CANON_STORE so pipelines can
// configure the store once.
func registerRootFlag(flagSet *pflag.FlagSet, root *string) {
	flagSet.StringVar(root, "root", os.Getenv("CANON_STORE"), "block store root directory (default $CANON_STORE)")
}

// openStore opens the block store for a subcommand, with a logger
// scoped to the command name. compression and hash may be zero for
// read-side commands; the store then uses its defaults, which only
// affect writes.
func openStore(command, root string, compression *blockstore.CompressionTag, hash uint64) (*blockstore.Store, error) {
	if root == "" {
		return nil, fmt.Errorf("block store root not set (use --root or CANON_STORE)")
	}
	logger := cli.NewCommandLogger().With("command", command)
	return blockstore.Open(blockstore.Config{
		Root:        root,
		Compression: compression,
		Hash:        hash,
		Logger:      logger,
	})
}

func storePutCommand() *cli.Command {
	var root string
	var codecName string
	var compressionName string
	var hashName string
	var encodeFirst bool
	var yamlInput bool

	return &cli.Command{
		Name:    "put",
		Summary: "Write a block to the store",
		Description: `Read a block from stdin (or a file argument), write it to the store,
and print its identifier.

With --encode, the input is parsed as JSON (or YAML with --yaml) and
stored as its canonical DAG-CBOR encoding instead of verbatim bytes;
the stored block is byte-identical to the output of "canon encode".
Without --encode, the bytes are stored as-is under the --codec label.

Storing the same content twice is a no-op that prints the same
identifier.`,
		Usage: "canon store put [flags] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("put", pflag.ContinueOnError)
			registerRootFlag(flagSet, &root)
			flagSet.StringVar(&codecName, "codec", "raw", "content encoding of the block (raw, dag-cbor)")
			flagSet.StringVar(&compressionName, "compression", "zstd", "at-rest compression for new blocks (none, lz4, zstd)")
			flagSet.StringVar(&hashName, "hash", "blake3", "digest function for new blocks (blake3, sha2-256)")
			flagSet.BoolVar(&encodeFirst, "encode", false, "parse input as JSON and store the canonical encoding")
			flagSet.BoolVar(&yamlInput, "yaml", false, "with --encode, parse input as YAML")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Store an already-encoded block",
				Command:     "canon store put --codec dag-cbor manifest.cbor",
			},
			{
				Description: "Encode and store in one step",
				Command:     "canon store put --encode manifest.jsonc",
			},
			{
				Description: "Store uncompressed",
				Command:     "canon store put --compression none layer.tar",
			},
		},
		Run: func(args []string) error {
			data, remainingArgs, err := readInput(args, false)
			if err != nil {
				return err
			}
			if len(remainingArgs) > 0 {
				return fmt.Errorf("put takes no positional arguments besides an optional file path, got %q", remainingArgs[0])
			}

			compression, err := blockstore.ParseCompressionTag(compressionName)
			if err != nil {
				return err
			}
			hash, err := parseHashName(hashName)
			if err != nil {
				return err
			}
			store, err := openStore("store/put", root, &compression, hash)
			if err != nil {
				return err
			}

			c, err := putBlock(store, data, codecName, encodeFirst, yamlInput)
			if err != nil {
				return err
			}
			fmt.Println(c)
			return nil
		},
	}
}

// putBlock stores data and returns its identifier. With encodeFirst,
// data is parsed as a JSON or YAML document and stored as canonical
// DAG-CBOR; otherwise the raw bytes are stored under the named codec.
func putBlock(store *blockstore.Store, data []byte, codecName string, encodeFirst, yamlInput bool) (link.CID, error) {
	if encodeFirst {
		value, err := parseDocument(data, yamlInput)
		if err != nil {
			return link.CID{}, err
		}
		return store.PutValue(value)
	}

	codec, err := parseCodecName(codecName)
	if err != nil {
		return link.CID{}, err
	}
	return store.Put(codec, data)
}

func storeGetCommand() *cli.Command {
	var root string
	var outputPath string

	return &cli.Command{
		Name:    "get",
		Summary: "Read a block from the store",
		Description: `Fetch a block by identifier and write the verified bytes to stdout
(or to --output). The digest is recomputed on every read; a block
that fails verification is reported as corrupt, never returned.`,
		Usage: "canon store get [-o file] <cid>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			registerRootFlag(flagSet, &root)
			flagSet.StringVarP(&outputPath, "output", "o", "", "write the block to a file instead of stdout")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("get takes exactly one CID argument, got %d", len(args))
			}
			c, err := link.Parse(args[0])
			if err != nil {
				return err
			}
			store, err := openStore("store/get", root, nil, 0)
			if err != nil {
				return err
			}
			data, err := store.Get(c)
			if err != nil {
				return err
			}
			if outputPath != "" {
				return os.WriteFile(outputPath, data, 0o644)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func storeHasCommand() *cli.Command {
	var root string

	return &cli.Command{
		Name:    "has",
		Summary: "Check whether a block is present",
		Description: `Exit 0 if the block is in the store, 1 if it is not. Prints nothing;
the exit code is the answer, for use in scripts and pipelines.`,
		Usage: "canon store has <cid>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("has", pflag.ContinueOnError)
			registerRootFlag(flagSet, &root)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("has takes exactly one CID argument, got %d", len(args))
			}
			c, err := link.Parse(args[0])
			if err != nil {
				return err
			}
			store, err := openStore("store/has", root, nil, 0)
			if err != nil {
				return err
			}
			present, err := store.Has(c)
			if err != nil {
				return err
			}
			if !present {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func storeStatCommand() *cli.Command {
	var root string
	var jsonOutput bool

	return &cli.Command{
		Name:    "stat",
		Summary: "Show block metadata",
		Description: `Print the codec, digest function, at-rest compression, and logical
and stored sizes of a block without reading its content.`,
		Usage: "canon store stat [--json] <cid>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("stat", pflag.ContinueOnError)
			registerRootFlag(flagSet, &root)
			flagSet.BoolVar(&jsonOutput, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("stat takes exactly one CID argument, got %d", len(args))
			}
			c, err := link.Parse(args[0])
			if err != nil {
				return err
			}
			store, err := openStore("store/stat", root, nil, 0)
			if err != nil {
				return err
			}
			return statBlock(store, c, os.Stdout, jsonOutput)
		},
	}
}

// blockReport is the --json output shape of "store stat".
type blockReport struct {
	CID         string `json:"cid"`
	Codec       string `json:"codec"`
	Hash        string `json:"hash"`
	Compression string `json:"compression"`
	Size        uint64 `json:"size"`
	StoredSize  int64  `json:"stored_size"`
}

func statBlock(store *blockstore.Store, c link.CID, w io.Writer, jsonOutput bool) error {
	info, err := store.Stat(c)
	if err != nil {
		return err
	}

	if jsonOutput {
		return cli.WriteJSON(w, blockReport{
			CID:         c.String(),
			Codec:       codecLabel(c.Codec),
			Hash:        hashLabel(c.Hash),
			Compression: info.Compression.String(),
			Size:        info.Size,
			StoredSize:  info.StoredSize,
		})
	}

	fmt.Fprintf(w, "cid:         %s\n", c)
	fmt.Fprintf(w, "codec:       %s\n", codecLabel(c.Codec))
	fmt.Fprintf(w, "hash:        %s\n", hashLabel(c.Hash))
	fmt.Fprintf(w, "compression: %s\n", info.Compression)
	fmt.Fprintf(w, "size:        %d\n", info.Size)
	fmt.Fprintf(w, "stored:      %d\n", info.StoredSize)
	return nil
}

func storeListCommand() *cli.Command {
	var root string
	var jsonOutput bool

	return &cli.Command{
		Name:    "ls",
		Summary: "List all blocks in the store",
		Description: `Walk the store and print one identifier per line. Output order is
deterministic (shard directory order). Foreign files under the store
root are skipped with a warning.`,
		Usage: "canon store ls [--json]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ls", pflag.ContinueOnError)
			registerRootFlag(flagSet, &root)
			flagSet.BoolVar(&jsonOutput, "json", false, "output as a JSON array")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("ls takes no positional arguments, got %q", args[0])
			}
			store, err := openStore("store/ls", root, nil, 0)
			if err != nil {
				return err
			}
			return listBlocks(store, os.Stdout, jsonOutput)
		},
	}
}

func listBlocks(store *blockstore.Store, w io.Writer, jsonOutput bool) error {
	var ids []string
	err := store.Walk(func(c link.CID) error {
		ids = append(ids, c.String())
		return nil
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return cli.WriteJSON(w, ids)
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

func storeRemoveCommand() *cli.Command {
	var root string

	return &cli.Command{
		Name:    "rm",
		Summary: "Delete a block from the store",
		Usage:   "canon store rm <cid>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("rm", pflag.ContinueOnError)
			registerRootFlag(flagSet, &root)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("rm takes exactly one CID argument, got %d", len(args))
			}
			c, err := link.Parse(args[0])
			if err != nil {
				return err
			}
			store, err := openStore("store/rm", root, nil, 0)
			if err != nil {
				return err
			}
			return store.Delete(c)
		},
	}
}
