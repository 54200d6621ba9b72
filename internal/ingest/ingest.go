// Package ingest discovers input files on disk and submits them to the
// processing queue.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

type FileResult struct {
	Path         string
	Deduplicated bool
	HashHex      string
	Err          string
}

type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Usecase hands discovered files to a queue, skipping content it has
// already submitted.
type Usecase struct {
	queue  async.Queue
	logger *slog.Logger
	force  bool

	mu   sync.Mutex
	seen map[string]string // content hash -> first path
}

func NewUsecase(q async.Queue, logger *slog.Logger, force bool) *Usecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &Usecase{queue: q, logger: logger, force: force, seen: map[string]string{}}
}

// IngestPath hashes path and enqueues it unless identical content was
// already submitted.
func (u *Usecase) IngestPath(ctx context.Context, path string) (FileResult, error) {
	out := FileResult{Path: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, err
	}
	out.Path = abs
	if !AllowedExt(filepath.Ext(abs)) {
		return out, fmt.Errorf("%s: %w", abs, common.ErrUnsupported)
	}

	sum, err := HashFile(abs)
	if err != nil {
		return out, err
	}
	out.HashHex = sum

	u.mu.Lock()
	first, dup := u.seen[sum]
	if !dup {
		u.seen[sum] = abs
	}
	u.mu.Unlock()
	if dup && !u.force {
		u.logger.Info("ingest.dedup", "path", abs, "same_as", first)
		out.Deduplicated = true
		return out, nil
	}

	if err := u.queue.Enqueue(ctx, async.NewJob(abs)); err != nil {
		u.forget(sum, abs)
		return out, err
	}
	return out, nil
}

func (u *Usecase) forget(sum, path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.seen[sum] == path {
		delete(u.seen, sum)
	}
}

// HashFile returns the hex sha256 of the file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// AllowedExt checks if a file extension is in the default allowed set.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// extSet builds a lookup of normalized extensions, defaulting to
// constants.AllowedExtensions.
func extSet(includeExts []string) map[string]struct{} {
	exts := map[string]struct{}{}
	for _, e := range includeExts {
		if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
			exts[e] = struct{}{}
		}
	}
	if len(exts) == 0 {
		return constants.AllowedExtensions
	}
	return exts
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
