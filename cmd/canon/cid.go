// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/canon/cmd/canon/cli"
	"github.com/bureau-foundation/canon/lib/link"
)

func cidCommand() *cli.Command {
	var codecName string
	var hashName string
	var baseName string
	var hexInput bool
	var jsonOutput bool

	return &cli.Command{
		Name:    "cid",
		Summary: "Compute the content identifier of a block",
		Description: `Read a block from stdin (or a file argument) and print its CIDv1.

The identifier covers the exact input bytes. For DAG-CBOR blocks,
pass --codec dag-cbor so the identifier declares the encoding;
consumers use the codec to know how to interpret the addressed
bytes. The empty raw block under sha2-256 is
bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku.

blake3 is the digest used by the local block store; sha2-256 is the
common interchange default.`,
		Usage: "canon cid [--codec raw|dag-cbor] [--hash sha2-256|blake3] [--base base32|base58btc] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("cid", pflag.ContinueOnError)
			flagSet.StringVar(&codecName, "codec", "raw", "content encoding declared by the identifier (raw, dag-cbor)")
			flagSet.StringVar(&hashName, "hash", "sha2-256", "digest function (sha2-256, blake3)")
			flagSet.StringVar(&baseName, "base", "base32", "text form (base32, base58btc)")
			flagSet.BoolVarP(&hexInput, "hex", "x", false, "treat input as hex-encoded bytes")
			flagSet.BoolVar(&jsonOutput, "json", false, "output as JSON")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Identify an encoded block",
				Command:     "canon encode manifest.jsonc | canon cid --codec dag-cbor",
			},
			{
				Description: "Identify a raw file with the store's digest",
				Command:     "canon cid --hash blake3 layer.tar",
			},
			{
				Description: "Short base58 form for copy-pasting",
				Command:     "canon cid --base base58btc block.cbor",
			},
		},
		Run: func(args []string) error {
			data, remainingArgs, err := readInput(args, hexInput)
			if err != nil {
				return err
			}
			if len(remainingArgs) > 0 {
				return fmt.Errorf("cid takes no positional arguments besides an optional file path, got %q", remainingArgs[0])
			}

			c, err := computeCID(data, codecName, hashName)
			if err != nil {
				return err
			}

			if jsonOutput {
				return cli.WriteJSON(os.Stdout, cidReport{
					CID:    c.String(),
					Base58: c.Base58(),
					Codec:  codecLabel(c.Codec),
					Hash:   hashLabel(c.Hash),
					Size:   len(data),
				})
			}

			text, err := formatCID(c, baseName)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}

// cidReport is the --json output shape of the cid command.
type cidReport struct {
	CID    string `json:"cid"`
	Base58 string `json:"base58"`
	Codec  string `json:"codec"`
	Hash   string `json:"hash"`
	Size   int    `json:"size"`
}

// computeCID hashes data under the named codec and digest function.
func computeCID(data []byte, codecName, hashName string) (link.CID, error) {
	codec, err := parseCodecName(codecName)
	if err != nil {
		return link.CID{}, err
	}
	hash, err := parseHashName(hashName)
	if err != nil {
		return link.CID{}, err
	}
	if hash == link.HashBlake3 {
		return link.SumBlake3(codec, data), nil
	}
	return link.Sum(codec, data), nil
}

// formatCID renders c in the named multibase text form.
func formatCID(c link.CID, baseName string) (string, error) {
	switch baseName {
	case "base32":
		return c.String(), nil
	case "base58btc":
		return c.Base58(), nil
	}
	return "", fmt.Errorf("unknown base %q (base32 or base58btc)", baseName)
}

func parseCodecName(name string) (uint64, error) {
	switch name {
	case "raw":
		return link.CodecRaw, nil
	case "dag-cbor":
		return link.CodecDagCBOR, nil
	}
	return 0, fmt.Errorf("unknown codec %q (raw or dag-cbor)", name)
}

func parseHashName(name string) (uint64, error) {
	switch name {
	case "sha2-256":
		return link.HashSHA256, nil
	case "blake3":
		return link.HashBlake3, nil
	}
	return 0, fmt.Errorf("unknown hash %q (sha2-256 or blake3)", name)
}

// codecLabel names a multicodec for display alongside identifiers.
func codecLabel(codec uint64) string {
	switch codec {
	case link.CodecDagCBOR:
		return "dag-cbor"
	case link.CodecRaw:
		return "raw"
	}
	return fmt.Sprintf("0x%x", codec)
}

// hashLabel names a multihash function code for display.
func hashLabel(hash uint64) string {
	switch hash {
	case link.HashSHA256:
		return "sha2-256"
	case link.HashBlake3:
		return "blake3"
	}
	return fmt.Sprintf("0x%x", hash)
}
