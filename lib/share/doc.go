// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package share splits a secret into N equal-length shares whose XOR
// is the secret.
//
// Shares 1 through N-1 are one-time pads drawn from a random source.
// Share N is the secret XORed with every pad, produced by the same
// combine pipeline that later recovers it. Every share on its own is
// indistinguishable from random bytes; all N together reproduce the
// secret exactly. A manifest written next to the shares records the
// length, the optional compression applied before padding, and keyed
// BLAKE3 digests of every share and of the combined stream.
package share
