package hashing

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/servais1983/autoforensic-collector/internal/atomicfile"
	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// TreeOptions configure a directory digest pass.
type TreeOptions struct {
	// Recursive descends into subdirectories. Default false.
	Recursive bool

	// Algorithms overrides the engine defaults for this pass.
	Algorithms []string

	// Exclude holds glob patterns; a file is skipped when a pattern matches
	// its path relative to the root or its base name.
	Exclude []string

	// Workers bounds the number of files digested concurrently.
	// Zero or negative means GOMAXPROCS. Each file is still streamed
	// sequentially by exactly one worker.
	Workers int

	// Progress, when non-nil, receives the completed and total file counts:
	// once with (0, total) before hashing starts, then after every file.
	// Called from the collecting goroutine, never concurrently.
	Progress func(done, total int)
}

type treeResult struct {
	rel    string
	result *Result
	err    error
}

// DigestTree digests every regular file under root and returns results keyed
// by path relative to root. Files are fanned out across a bounded worker
// pool; per-file read failures are logged and the file is skipped, matching
// the per-evidence isolation rule — one unreadable file never fails the
// pass. Cancelling ctx stops the pass between files.
func (e *Engine) DigestTree(ctx context.Context, root string, opts TreeOptions) (map[string]*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, evidence.NewSourceUnreadableError(root, "stat", err)
	}
	if !info.IsDir() {
		return nil, evidence.NewSourceUnreadableError(root, "stat", fs.ErrInvalid)
	}

	files, err := e.collectFiles(root, opts)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan string)
	results := make(chan treeResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range jobs {
				res, derr := e.DigestFile(ctx, filepath.Join(root, rel), opts.Algorithms...)
				results <- treeResult{rel: rel, result: res, err: derr}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rel := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- rel:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	if opts.Progress != nil {
		opts.Progress(0, len(files))
	}

	done := 0
	out := make(map[string]*Result, len(files))
	for r := range results {
		done++
		if opts.Progress != nil {
			opts.Progress(done, len(files))
		}
		if r.err != nil {
			e.logger.Error("tree digest failed for file", "file", r.rel, "error", r.err)
			continue
		}
		out[r.rel] = r.result
	}

	if ctx.Err() != nil {
		return out, ctx.Err()
	}
	return out, nil
}

func (e *Engine) collectFiles(root string, opts TreeOptions) ([]string, error) {
	var files []string

	appendFile := func(rel string) {
		if !e.excluded(rel, opts.Exclude) {
			files = append(files, rel)
		}
	}

	if opts.Recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, werr error) error {
			if werr != nil {
				e.logger.Warn("skipping unreadable path", "path", path, "error", werr)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, rerr := filepath.Rel(root, path)
			if rerr != nil {
				return nil
			}
			appendFile(rel)
			return nil
		})
		if err != nil {
			return nil, evidence.NewSourceUnreadableError(root, "walk", err)
		}
		return files, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, evidence.NewSourceUnreadableError(root, "read", err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			appendFile(entry.Name())
		}
	}
	return files, nil
}

func (e *Engine) excluded(rel string, patterns []string) bool {
	base := filepath.Base(rel)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Report is the JSON envelope produced by WriteReport.
type Report struct {
	GeneratedAt time.Time          `json:"generated_at"`
	FileCount   int                `json:"file_count"`
	Hashes      map[string]*Result `json:"hashes"`
}

// WriteReport writes a digest report for results to path via atomic replace,
// creating parent directories as needed.
func WriteReport(results map[string]*Result, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return evidence.NewPersistFailureError(path, "mkdir", err)
	}

	report := Report{
		GeneratedAt: time.Now().UTC(),
		FileCount:   len(results),
		Hashes:      results,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return evidence.NewPersistFailureError(path, "encode", err)
	}
	return atomicfile.WriteFile(path, data, 0o644)
}
