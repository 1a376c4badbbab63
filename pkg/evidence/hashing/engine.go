// Package hashing computes multi-algorithm digests of evidence payloads.
//
// A single streaming pass feeds every requested algorithm simultaneously in
// fixed-size chunks, so digesting a multi-gigabyte memory image costs the
// same memory as digesting a log file. Digest computation over one source is
// always sequential; parallelism across distinct files is provided by
// DigestTree's worker pool.
package hashing

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// ChunkSize is the read granularity of the streaming digest loop.
const ChunkSize = 64 * 1024

// constructors maps supported algorithm names to their hash constructors.
// MD5 and SHA-1 stay in the set: leading forensic formats still publish
// legacy digests and verification must be able to recompute them.
var constructors = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// SupportedAlgorithms returns the supported algorithm names, sorted.
func SupportedAlgorithms() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supported reports whether the named algorithm can be computed.
func Supported(name string) bool {
	_, ok := constructors[strings.ToLower(name)]
	return ok
}

// Result holds the outcome of one digest pass over a single source.
type Result struct {
	// Digests maps algorithm name to lowercase hex digest.
	Digests map[string]string `json:"digests"`

	// BytesRead is the total number of bytes streamed through the hashes.
	BytesRead int64 `json:"file_size"`
}

// Engine computes digests with a configurable default algorithm set.
// The zero value is not usable; construct with NewEngine.
type Engine struct {
	defaults []string
	logger   *slog.Logger
}

// NewEngine creates an Engine. algorithms is the default request set used
// when a digest call names none; empty means every supported algorithm.
// A nil logger falls back to slog.Default().
func NewEngine(algorithms []string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := normalize(algorithms)
	if len(defaults) == 0 {
		defaults = SupportedAlgorithms()
	}
	return &Engine{
		defaults: defaults,
		logger:   logger.With("component", "evidence.hashing"),
	}
}

// DefaultAlgorithms returns a copy of the engine's default request set.
func (e *Engine) DefaultAlgorithms() []string {
	out := make([]string, len(e.defaults))
	copy(out, e.defaults)
	return out
}

// DigestFile streams the file at path through the requested algorithms
// (engine defaults when none are given). The file is read in ChunkSize
// chunks; a zero-byte file yields each algorithm's well-known empty digest.
//
// Unknown algorithm names are dropped with a warning. If nothing usable
// remains the call fails with *evidence.UnsupportedAlgorithmError. Open and
// read failures fail with *evidence.SourceUnreadableError and discard all
// partial state — no partial digests are ever returned.
func (e *Engine) DigestFile(ctx context.Context, path string, algorithms ...string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, evidence.NewSourceUnreadableError(path, "open", err)
	}
	defer f.Close()

	result, err := e.digest(ctx, f, path, algorithms)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DigestReader streams r through the requested algorithms. Used for
// in-memory payloads; semantics match DigestFile.
func (e *Engine) DigestReader(ctx context.Context, r io.Reader, algorithms ...string) (*Result, error) {
	return e.digest(ctx, r, "reader", algorithms)
}

// VerifyFile recomputes a single digest of path and compares it to expected,
// case-insensitively. The file is always re-read in full — size or mtime
// shortcuts would miss byte-level tampering.
func (e *Engine) VerifyFile(ctx context.Context, path, expected, algorithm string) (bool, error) {
	result, err := e.DigestFile(ctx, path, algorithm)
	if err != nil {
		return false, err
	}

	computed := result.Digests[strings.ToLower(algorithm)]
	if strings.EqualFold(computed, expected) {
		return true, nil
	}
	e.logger.Warn("digest mismatch",
		"path", path,
		"algorithm", algorithm,
		"expected", expected,
		"computed", computed)
	return false, nil
}

func (e *Engine) digest(ctx context.Context, r io.Reader, source string, requested []string) (*Result, error) {
	hashers, err := e.hashers(requested)
	if err != nil {
		return nil, err
	}

	writers := make([]io.Writer, 0, len(hashers))
	for _, h := range hashers {
		writers = append(writers, h)
	}
	sink := io.MultiWriter(writers...)

	buf := make([]byte, ChunkSize)
	var total int64
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := sink.Write(buf[:n]); werr != nil {
				return nil, evidence.NewSourceUnreadableError(source, "hash", werr)
			}
			total += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, evidence.NewSourceUnreadableError(source, "read", rerr)
		}
	}

	digests := make(map[string]string, len(hashers))
	for name, h := range hashers {
		digests[name] = hex.EncodeToString(h.Sum(nil))
	}
	return &Result{Digests: digests, BytesRead: total}, nil
}

// hashers resolves the requested algorithm names to live hash states.
// Unknown names are dropped with a warning rather than failing the call;
// an empty remainder is *evidence.UnsupportedAlgorithmError.
func (e *Engine) hashers(requested []string) (map[string]hash.Hash, error) {
	if len(requested) == 0 {
		requested = e.defaults
	}

	hashers := make(map[string]hash.Hash, len(requested))
	for _, name := range requested {
		key := strings.ToLower(strings.TrimSpace(name))
		ctor, ok := constructors[key]
		if !ok {
			e.logger.Warn("unsupported hash algorithm dropped", "algorithm", name)
			continue
		}
		if _, dup := hashers[key]; dup {
			continue
		}
		hashers[key] = ctor()
	}

	if len(hashers) == 0 {
		return nil, evidence.NewUnsupportedAlgorithmError(requested)
	}
	return hashers, nil
}

// normalize lowercases, trims, and deduplicates algorithm names. Unsupported
// names are kept: each digest call drops them with a warning, so a
// misconfigured set surfaces in the log instead of being silently rewritten.
func normalize(algorithms []string) []string {
	seen := make(map[string]bool, len(algorithms))
	out := make([]string, 0, len(algorithms))
	for _, name := range algorithms {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
