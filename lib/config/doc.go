// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads xorpad configuration.
//
// Configuration comes from a single file named by the --config flag
// (via [LoadFile]) or the XORPAD_CONFIG environment variable (via
// [Load]). With neither, [Default] applies. There is no discovery of
// files in home or system directories.
//
// YAML is the primary format. Files ending in .json or .jsonc are read
// as JSON extended with comments and trailing commas. Unknown keys are
// errors in both, so a misspelled setting fails loudly instead of
// being ignored.
//
// After loading, ${VAR} and ${VAR:-default} are expanded in
// split.output_dir. Environment variables do not otherwise override
// file values; command-line flags do, in the commands themselves.
package config
