// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Canon is the command-line toolkit for canonical DAG-CBOR. It
// encodes JSON and YAML documents into the deterministic CBOR subset
// used for content addressing (encode), inspects and validates
// encoded blocks (diag, validate), computes content identifiers
// (cid), and manages a local content-addressed block store (store).
package main
