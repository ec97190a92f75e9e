// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "canon",
		Subcommands: []*Command{
			{
				Name: "encode",
				Run: func(args []string) error {
					called = "encode"
					return nil
				},
			},
			{
				Name: "validate",
				Run: func(args []string) error {
					called = "validate"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"validate"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "validate" {
		t.Errorf("dispatched to %q, want %q", called, "validate")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "canon",
		Subcommands: []*Command{
			{
				Name: "store",
				Subcommands: []*Command{
					{
						Name: "put",
						Run: func(args []string) error {
							called = "store put"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"store", "put", "block.cbor"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "store put" {
		t.Errorf("dispatched to %q, want %q", called, "store put")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "block.cbor" {
		t.Errorf("args = %v, want [block.cbor]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var root string
	var target string

	command := &Command{
		Name: "put",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("put", pflag.ContinueOnError)
			flagSet.StringVar(&root, "root", "/default/store", "store root")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--root", "/tmp/blocks", "data.cbor"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if root != "/tmp/blocks" {
		t.Errorf("root = %q, want %q", root, "/tmp/blocks")
	}
	if target != "data.cbor" {
		t.Errorf("target = %q, want %q", target, "data.cbor")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "encode",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
			flagSet.Bool("yaml", false, "treat input as YAML")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--ymal"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --yaml") {
		t.Errorf("error = %q, want suggestion for '--yaml'", errStr)
	}
	// Suggestion should be on the same line as the error, not buried.
	if !strings.Contains(errStr, "ymal") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	// Should include a pointer to --help.
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownShorthandSuggestion(t *testing.T) {
	command := &Command{
		Name: "validate",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			flagSet.BoolP("hex", "x", false, "treat input as hex")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"-z"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown shorthand")
	}
	if !strings.Contains(err.Error(), "did you mean -x") {
		t.Errorf("error = %q, want shorthand suggestion '-x'", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "encode",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
			flagSet.Bool("yaml", false, "treat input as YAML")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "canon",
		Subcommands: []*Command{
			{Name: "encode"},
			{Name: "validate"},
			{Name: "diag"},
		},
	}

	err := root.Execute([]string{"validte"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"validate\"") {
		t.Errorf("error = %q, want suggestion for 'validate'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "canon",
		Subcommands: []*Command{
			{Name: "encode"},
			{Name: "validate"},
		},
	}

	err := root.Execute([]string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "canon",
				Summary: "Canonical DAG-CBOR toolkit",
				Subcommands: []*Command{
					{Name: "encode", Summary: "Convert JSON to DAG-CBOR"},
				},
			}

			err := root.Execute([]string{helpArg})
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_HelpFlagAfterArgs(t *testing.T) {
	// --help after a positional argument is caught during flag
	// parsing (pflag.ErrHelp) rather than by the leading-arg check.
	ran := false
	command := &Command{
		Name: "encode",
		Flags: func() *pflag.FlagSet {
			return pflag.NewFlagSet("encode", pflag.ContinueOnError)
		},
		Run: func(args []string) error {
			ran = true
			return nil
		},
	}

	if err := command.Execute([]string{"input.json", "--help"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if ran {
		t.Error("Run executed despite --help")
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "canon",
		Subcommands: []*Command{
			{Name: "encode", Summary: "Convert JSON to DAG-CBOR"},
		},
	}

	err := root.Execute([]string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "canon",
		Description: "Canonical DAG-CBOR toolkit.",
		Subcommands: []*Command{
			{Name: "encode", Summary: "Convert JSON to canonical DAG-CBOR"},
			{Name: "validate", Summary: "Check canonical form"},
			{Name: "cid", Summary: "Compute a content identifier"},
		},
		Examples: []Example{
			{
				Description: "Encode JSON from stdin",
				Command:     "echo '{\"count\":42}' | canon encode",
			},
			{
				Description: "Validate a block",
				Command:     "canon validate block.cbor",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Canonical DAG-CBOR toolkit.",
		"Usage:",
		"Commands:",
		"encode",
		"Convert JSON to canonical DAG-CBOR",
		"Examples:",
		"canon validate block.cbor",
		"Run 'canon <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_FlagSection(t *testing.T) {
	command := &Command{
		Name:    "encode",
		Summary: "Convert JSON to canonical DAG-CBOR",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
			flagSet.Bool("yaml", false, "treat input as YAML")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	if !strings.Contains(output, "Flags:") {
		t.Errorf("help output missing flag section:\n%s", output)
	}
	if !strings.Contains(output, "--yaml") {
		t.Errorf("help output missing --yaml:\n%s", output)
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{
		Name: "canon",
		Subcommands: []*Command{
			{
				Name: "store",
				Subcommands: []*Command{
					{
						Name: "put",
						Run: func(args []string) error {
							return nil
						},
					},
				},
			},
		},
	}

	// Dispatch sets parent pointers; fullName is exercised through the
	// error path of an unknown nested subcommand.
	err := root.Execute([]string{"store", "putt"})
	if err == nil {
		t.Fatal("Execute() = nil, want error")
	}
	if !strings.Contains(err.Error(), "'canon store --help'") {
		t.Errorf("error = %q, want full command path in help hint", err.Error())
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 3}
	if err.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", err.ExitCode())
	}
	if !strings.Contains(err.Error(), "3") {
		t.Errorf("Error() = %q, want mention of code", err.Error())
	}
}

func TestWriteJSON_NormalizesNilSlice(t *testing.T) {
	var entries []string

	var buffer bytes.Buffer
	if err := WriteJSON(&buffer, entries); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	if got := strings.TrimSpace(buffer.String()); got != "[]" {
		t.Errorf("WriteJSON(nil slice) = %q, want []", got)
	}
}

func TestWriteJSON_Indents(t *testing.T) {
	var buffer bytes.Buffer
	err := WriteJSON(&buffer, map[string]int{"size": 42})
	if err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	want := "{\n  \"size\": 42\n}\n"
	if buffer.String() != want {
		t.Errorf("WriteJSON() = %q, want %q", buffer.String(), want)
	}
}
