// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert applies the cost rewrite to every object file in a
// directory, backing each file up before its first overwrite and treating an
// existing backup as proof the file was already converted.
package convert

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/creachadair/atomicfile"

	"github.com/pdiddy/costconv/internal/costline"
	"github.com/pdiddy/costconv/pkg/types"
)

// ErrObjectDirNotFound is returned by ConvertDir when the object directory
// does not exist or is not a directory.
var ErrObjectDirNotFound = errors.New("object directory not found")

// Options controls a conversion run.
type Options struct {
	// Rate multiplies every cost below SkipThreshold.
	Rate          int64
	SkipThreshold int64
	BackupSuffix  string
	// Extension selects candidate files, e.g. ".obj".
	Extension string
	DryRun    bool
	// SkipIfBackup leaves a file untouched when its backup already exists.
	SkipIfBackup bool
}

// OptionsFromConfig builds Options from cfg and a resolved rate.
func OptionsFromConfig(cfg types.ConversionConfig, rate int64) Options {
	cfg = cfg.WithDefaults()
	return Options{
		Rate:          rate,
		SkipThreshold: cfg.SkipThreshold,
		BackupSuffix:  cfg.BackupSuffix,
		Extension:     cfg.Extension,
		DryRun:        cfg.DryRun,
		SkipIfBackup:  !cfg.IgnoreBackups,
	}
}

// FileResult is the outcome for a single object file.
type FileResult struct {
	Path         string
	BackupPath   string
	Outcome      types.Outcome
	ChangedLines int
	MatchedLines int
	Err          error
}

// BatchResult holds the outcome of a directory run.
type BatchResult struct {
	// Processed is the number of candidate files examined.
	Processed int
	// Converted is the number of files rewritten, or that would be under a
	// dry run.
	Converted int
	DryRun    bool
	Files     []FileResult
}

// Count returns the number of files with outcome o.
func (r BatchResult) Count(o types.Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == o {
			n++
		}
	}
	return n
}

// HasFailures reports whether any file failed.
func (r BatchResult) HasFailures() bool {
	return r.Count(types.OutcomeFailed) > 0
}

// BackupPath returns the backup location for path.
func BackupPath(path, suffix string) string {
	return path + suffix
}

// ListObjectFiles returns the regular files directly inside dir whose names
// end in ext, sorted by name.
func ListObjectFiles(dir, ext string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectDirNotFound, dir)
		}
		return nil, fmt.Errorf("reading object directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrObjectDirNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading object directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// ConvertFile rescales the costs in one object file and writes a status
// line to w for every outcome except OutcomeUnchanged.
func ConvertFile(path string, opts Options, w io.Writer) FileResult {
	res := FileResult{Path: path, BackupPath: BackupPath(path, opts.BackupSuffix)}

	if opts.SkipIfBackup && !opts.DryRun {
		if _, err := os.Stat(res.BackupPath); err == nil {
			res.Outcome = types.OutcomeSkippedBackup
			fmt.Fprintf(w, "skipped %s (backup already exists)\n", path)
			return res
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return failed(res, w, err)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return failed(res, w, err)
	}

	rw := costline.Rewrite(string(original), opts.Rate, opts.SkipThreshold)
	res.ChangedLines = rw.ChangedLines
	res.MatchedLines = rw.MatchedLines
	slog.Debug("scanned object file",
		slog.String("file", path),
		slog.Int("matched", rw.MatchedLines),
		slog.Int("changed", rw.ChangedLines),
	)

	switch {
	case rw.Changed && opts.DryRun:
		res.Outcome = types.OutcomeWouldConvert
		fmt.Fprintf(w, "would convert %s\n", path)
	case rw.Changed:
		if err := createBackup(res.BackupPath, original, info.Mode().Perm()); err != nil {
			return failed(res, w, err)
		}
		if err := atomicfile.WriteData(path, []byte(rw.Content), info.Mode().Perm()); err != nil {
			return failed(res, w, fmt.Errorf("writing %s: %w", path, err))
		}
		res.Outcome = types.OutcomeConverted
		fmt.Fprintf(w, "converted %s\n", path)
	case rw.Matched:
		res.Outcome = types.OutcomeSkippedLarge
		fmt.Fprintf(w, "skipped %s (cost already large enough)\n", path)
	default:
		res.Outcome = types.OutcomeUnchanged
	}
	return res
}

// ConvertDir converts every candidate file in dir in name order, printing
// per-file status and a final summary to w. It fails only when dir cannot
// be listed; per-file failures are recorded in the result.
func ConvertDir(dir string, opts Options, w io.Writer) (BatchResult, error) {
	paths, err := ListObjectFiles(dir, opts.Extension)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{DryRun: opts.DryRun}
	for _, p := range paths {
		fr := ConvertFile(p, opts, w)
		result.Processed++
		if fr.Outcome.Counts() {
			result.Converted++
		}
		result.Files = append(result.Files, fr)
	}

	fmt.Fprintf(w, "Processed %d files; %d converted.\n", result.Processed, result.Converted)
	if opts.DryRun {
		fmt.Fprintln(w, "Dry run complete; no files were written.")
	}
	return result, nil
}

// createBackup writes data to path unless path already exists. An existing
// backup is never replaced.
func createBackup(path string, data []byte, perm fs.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating backup %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing backup %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("closing backup %s: %w", path, err)
	}
	return nil
}

func failed(res FileResult, w io.Writer, err error) FileResult {
	res.Outcome = types.OutcomeFailed
	res.Err = err
	fmt.Fprintf(w, "failed %s (%v)\n", res.Path, err)
	return res
}
