// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides xorpad's CBOR encoding configuration.
//
// Share manifests are the only persistent structured data xorpad
// writes, and they are CBOR: compact, binary-safe for digests, and
// deterministic. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items, so the same manifest always produces the
// same bytes. Types implementing encoding.TextMarshaler (digest.Hash,
// streamcodec.Codec) encode as CBOR text strings.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// [Diagnose] renders CBOR diagnostic notation for "xorpad manifest
// --diag".
//
// Types only ever serialized as CBOR use `cbor` struct tags; types that
// are also printed as JSON use `json` tags, which fxamacker/cbor reads
// as a fallback. Never both on one field.
package codec
