// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/canon/cmd/canon/cli"
	"github.com/bureau-foundation/canon/lib/dagcbor"
)

func encodeCommand() *cli.Command {
	var yamlInput bool

	return &cli.Command{
		Name:    "encode",
		Summary: "Convert JSON or YAML to canonical DAG-CBOR",
		Description: `Read JSON from stdin (or a file argument) and write the equivalent
canonical DAG-CBOR to stdout.

The input may contain // line comments, /* block comments */, and
trailing commas; they are stripped before parsing. With --yaml, the
input is parsed as YAML instead.

JSON integers are preserved as CBOR integers (not floats). This
matters for content addressing: {"count": 42} and {"count": 42.0}
are different blocks with different identifiers.

The output is binary. Pipe to "canon diag" or "xxd" to inspect.`,
		Usage: "canon encode [--yaml] [file]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
			flagSet.BoolVar(&yamlInput, "yaml", false, "parse input as YAML instead of JSON")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Encode JSON to DAG-CBOR",
				Command:     "echo '{\"action\":\"status\"}' | canon encode > block.cbor",
			},
			{
				Description: "Encode a JSON file (comments and trailing commas allowed)",
				Command:     "canon encode manifest.jsonc > manifest.cbor",
			},
			{
				Description: "Encode YAML",
				Command:     "canon encode --yaml config.yaml > config.cbor",
			},
			{
				Description: "Encode and inspect the result",
				Command:     "echo '{\"count\":42}' | canon encode | canon diag",
			},
		},
		Run: func(args []string) error {
			data, remainingArgs, err := readInput(args, false)
			if err != nil {
				return err
			}
			if len(remainingArgs) > 0 {
				return fmt.Errorf("encode takes no positional arguments besides an optional file path, got %q", remainingArgs[0])
			}
			return encodeInput(data, os.Stdout, yamlInput)
		},
	}
}

// encodeInput parses data as JSON (comments and trailing commas
// allowed) or YAML and writes the canonical DAG-CBOR encoding to w.
func encodeInput(data []byte, w io.Writer, yamlInput bool) error {
	value, err := parseDocument(data, yamlInput)
	if err != nil {
		return err
	}

	encoded, err := dagcbor.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode CBOR: %w", err)
	}

	_, err = w.Write(encoded)
	return err
}

// parseDocument parses data as JSON (default) or YAML into the value
// tree the encoder consumes. JSON integer literals come back as int64
// when they fit and *big.Int beyond that; fractional and exponent
// literals become float64. "store put --encode" shares this path so a
// block stored from JSON is byte-identical to one piped through
// "canon encode".
func parseDocument(data []byte, yamlInput bool) (any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: expected JSON or YAML data")
	}

	var value any
	if yamlInput {
		if err := yaml.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
		return value, nil
	}

	// Strip comments and trailing commas before parsing as standard
	// JSON.
	stripped := jsonc.ToJSON(data)

	decoder := json.NewDecoder(bytes.NewReader(stripped))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	return convertNumbers(value)
}

// convertNumbers recursively walks a JSON-decoded value and converts
// json.Number to a numeric type. Without this, json.Decoder with
// UseNumber() leaves numbers as strings that the CBOR encoder would
// encode as text instead of numeric types.
//
// Integer literals keep integer identity at full precision: values
// outside int64 become *big.Int rather than degrading to float64, so
// 18446744073709551615 encodes as the CBOR integer it is and a value
// the format cannot represent is reported by the encoder's own range
// check instead of silently changing the block. Literals with a
// fraction or exponent become float64; those too large for a float64
// (1e999) are an error.
func convertNumbers(v any) (any, error) {
	switch value := v.(type) {
	case json.Number:
		if integer, err := value.Int64(); err == nil {
			return integer, nil
		}
		literal := value.String()
		if !strings.ContainsAny(literal, ".eE") {
			wide, ok := new(big.Int).SetString(literal, 10)
			if !ok {
				return nil, fmt.Errorf("number %q is not a valid integer", literal)
			}
			return wide, nil
		}
		if float, err := value.Float64(); err == nil {
			return float, nil
		}
		return nil, fmt.Errorf("number %q does not fit a 64-bit float", literal)

	case map[string]any:
		for key, element := range value {
			converted, err := convertNumbers(element)
			if err != nil {
				return nil, err
			}
			value[key] = converted
		}
		return value, nil

	case []any:
		for index, element := range value {
			converted, err := convertNumbers(element)
			if err != nil {
				return nil, err
			}
			value[index] = converted
		}
		return value, nil

	default:
		return v, nil
	}
}
