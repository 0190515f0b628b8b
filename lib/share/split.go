// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package share

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/xorpad/lib/combine"
	"github.com/bureau-foundation/xorpad/lib/digest"
	"github.com/bureau-foundation/xorpad/lib/manifest"
	"github.com/bureau-foundation/xorpad/lib/process"
	"github.com/bureau-foundation/xorpad/lib/source"
	"github.com/bureau-foundation/xorpad/lib/streamcodec"
)

// MinShares is the smallest useful share count: one pad and the
// masked secret.
const MinShares = 2

// ErrShareCount is returned for a share count outside
// [MinShares, combine.MaxSources].
var ErrShareCount = fmt.Errorf("share count must be between %d and %d", MinShares, combine.MaxSources)

// Options configures Split.
type Options struct {
	// Shares is the number of shares to produce.
	Shares int

	// Directory receives the shares and the manifest. Empty means the
	// current directory.
	Directory string

	// Prefix names the share set: shares are PREFIX.1 .. PREFIX.N and
	// the manifest is PREFIX.manifest. It must be a plain file name.
	Prefix string

	// Compression is applied to the secret before padding.
	Compression streamcodec.Codec

	// ChunkSize and LockMemory are passed to the combine pipeline.
	ChunkSize  int
	LockMemory bool

	// Force replaces existing share and manifest files.
	Force bool

	// Random supplies pad bytes. Nil selects crypto/rand.
	Random io.Reader

	Logger *slog.Logger

	// wrapShare, when set, wraps each share file before it is written.
	wrapShare func(index int, w io.Writer) io.Writer
}

// Result describes a completed split.
type Result struct {
	ManifestPath string
	SharePaths   []string
	Manifest     *manifest.Manifest
}

// ConfigError reports invalid Options. It exits with the usage code.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "split: " + e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }

// ExitCode implements process.ExitCoder.
func (e *ConfigError) ExitCode() int { return process.ExitUsage }

// OutputError reports a failure creating, writing or finalizing a
// share or manifest file.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// ExitCode implements process.ExitCoder.
func (e *OutputError) ExitCode() int { return process.ExitSinkWrite }

// Split reads the secret named by input ("-" reads stdin) and writes a
// share set as described by options. On failure no share or manifest
// file created by this call is left behind.
func Split(input string, stdin io.Reader, options Options) (*Result, error) {
	if err := options.validate(); err != nil {
		return nil, err
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	random := options.Random
	if random == nil {
		random = rand.Reader
	}
	directory := options.Directory
	if directory == "" {
		directory = "."
	}

	secret, err := source.Open(input, stdin)
	if err != nil {
		return nil, err
	}
	defer secret.Close()

	plaintext, length, secretLength, cleanupSpool, err := prepare(secret, directory, options)
	if err != nil {
		return nil, err
	}
	defer cleanupSpool()

	logger.Debug("splitting secret",
		"input", input,
		"shares", options.Shares,
		"length", length,
		"secret_length", secretLength,
		"compression", options.Compression,
	)

	set := &outputSet{force: options.Force}
	defer set.abort()

	manifestPath := manifest.Path(directory, options.Prefix)
	if !options.Force {
		if _, err := os.Lstat(manifestPath); err == nil {
			return nil, &OutputError{Path: manifestPath, Err: os.ErrExist}
		}
	}

	shareFiles := make([]*digest.Writer, options.Shares)
	shareWriters := make([]*shareWriter, options.Shares)
	for index := range shareFiles {
		path := filepath.Join(directory, manifest.ShareName(options.Prefix, index+1))
		file, err := set.create(path)
		if err != nil {
			return nil, err
		}
		var w io.Writer = file
		if options.wrapShare != nil {
			w = options.wrapShare(index, w)
		}
		shareWriters[index] = &shareWriter{path: path, w: w}
		shareFiles[index] = digest.NewWriter(digest.ShareDomain, shareWriters[index])
	}

	// Source 0 is the secret, sources 1..N-1 the pads. Each pad is
	// copied into its share file as the pipeline reads it.
	streamHash := digest.NewWriter(digest.StreamDomain, nil)
	handles := make([]*source.Handle, 0, options.Shares)
	handles = append(handles, source.New(input, io.TeeReader(plaintext, streamHash)))
	for index := 0; index < options.Shares-1; index++ {
		pad := io.TeeReader(io.LimitReader(random, length), shareFiles[index])
		handles = append(handles, source.New(fmt.Sprintf("pad %d", index+1), pad))
	}

	last := shareFiles[options.Shares-1]
	stats, err := combine.Run(handles, last, combine.Options{
		ChunkSize:  options.ChunkSize,
		LockMemory: options.LockMemory,
		Logger:     logger,
	})
	if err != nil {
		// A pad's share file fails inside its tee, which the pipeline
		// sees as a read error. Report the file instead.
		for _, writer := range shareWriters {
			if writer.err != nil {
				return nil, writer.err
			}
		}
		return nil, err
	}
	if stats.Bytes != length {
		return nil, &OutputError{
			Path: set.paths[options.Shares-1],
			Err:  fmt.Errorf("wrote %d bytes, expected %d", stats.Bytes, length),
		}
	}

	if err := set.commit(); err != nil {
		return nil, err
	}

	result := &manifest.Manifest{
		Version:      manifest.FormatVersion,
		Length:       length,
		SecretLength: secretLength,
		Compression:  options.Compression,
		Digest:       streamHash.Sum(),
		Shares:       make([]manifest.Share, options.Shares),
	}
	for index, writer := range shareFiles {
		result.Shares[index] = manifest.Share{
			Name:   manifest.ShareName(options.Prefix, index+1),
			Digest: writer.Sum(),
		}
	}
	if err := manifest.Write(manifestPath, result); err != nil {
		return nil, &OutputError{Path: manifestPath, Err: err}
	}
	set.keep()

	logger.Info("split complete",
		"manifest", manifestPath,
		"shares", options.Shares,
		"length", length,
	)
	return &Result{ManifestPath: manifestPath, SharePaths: set.paths, Manifest: result}, nil
}

func (o *Options) validate() error {
	var errs []error
	if o.Shares < MinShares || o.Shares > combine.MaxSources {
		errs = append(errs, fmt.Errorf("%w, got %d", ErrShareCount, o.Shares))
	}
	if o.Prefix == "" {
		errs = append(errs, errors.New("share name prefix is required"))
	} else if o.Prefix != filepath.Base(o.Prefix) || o.Prefix == "." || o.Prefix == ".." || strings.ContainsRune(o.Prefix, os.PathSeparator) {
		errs = append(errs, fmt.Errorf("share name prefix %q must be a plain file name", o.Prefix))
	}
	if o.Compression == "" {
		o.Compression = streamcodec.None
	}
	if _, err := streamcodec.Parse(string(o.Compression)); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}

// prepare returns a reader for the bytes that will be padded, their
// length, and the length of the secret before compression. A regular
// file read without compression is padded in place; anything else is
// first spooled to a temporary file in directory so its length is
// known before the pads are drawn. The returned cleanup removes the
// spool.
func prepare(secret *source.Handle, directory string, options Options) (io.Reader, int64, int64, func(), error) {
	if size, known := secret.Size(); known && options.Compression == streamcodec.None {
		return io.LimitReader(secret, size), size, size, func() {}, nil
	}

	spool, err := os.CreateTemp(directory, "."+options.Prefix+".spool-*")
	if err != nil {
		return nil, 0, 0, nil, &OutputError{Path: directory, Err: fmt.Errorf("creating spool: %w", err)}
	}
	cleanup := func() {
		spool.Close()
		os.Remove(spool.Name())
	}

	encoder, err := streamcodec.NewWriter(options.Compression, spool)
	if err != nil {
		cleanup()
		return nil, 0, 0, nil, &ConfigError{Err: err}
	}
	secretLength, err := io.Copy(encoder, secret)
	if err != nil {
		encoder.Close()
		cleanup()
		var writeError *os.PathError
		if errors.As(err, &writeError) && writeError.Path == spool.Name() {
			return nil, 0, 0, nil, &OutputError{Path: spool.Name(), Err: err}
		}
		return nil, 0, 0, nil, &combine.SourceReadError{Source: secret.Name, Err: err}
	}
	if err := encoder.Close(); err != nil {
		cleanup()
		return nil, 0, 0, nil, &OutputError{Path: spool.Name(), Err: err}
	}

	length, err := spool.Seek(0, io.SeekCurrent)
	if err == nil {
		_, err = spool.Seek(0, io.SeekStart)
	}
	if err != nil {
		cleanup()
		return nil, 0, 0, nil, &OutputError{Path: spool.Name(), Err: err}
	}
	return spool, length, secretLength, cleanup, nil
}

// shareWriter records the first write failure on a share file.
type shareWriter struct {
	path string
	w    io.Writer
	err  error
}

func (s *shareWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil && s.err == nil {
		s.err = &OutputError{Path: s.path, Err: err}
	}
	return n, err
}

// outputSet tracks the share files one Split creates so that a failure
// at any point removes all of them.
type outputSet struct {
	force bool
	paths []string
	files []*os.File
	kept  bool
}

func (s *outputSet) create(path string) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if s.force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return nil, &OutputError{Path: path, Err: err}
	}
	s.paths = append(s.paths, path)
	s.files = append(s.files, file)
	return file, nil
}

// commit syncs and closes every share file.
func (s *outputSet) commit() error {
	for index, file := range s.files {
		if err := file.Sync(); err != nil {
			return &OutputError{Path: s.paths[index], Err: err}
		}
		if err := file.Close(); err != nil {
			return &OutputError{Path: s.paths[index], Err: err}
		}
		s.files[index] = nil
	}
	return nil
}

func (s *outputSet) keep() {
	s.kept = true
}

func (s *outputSet) abort() {
	if s.kept {
		return
	}
	for index, path := range s.paths {
		if s.files[index] != nil {
			s.files[index].Close()
		}
		os.Remove(path)
	}
}
