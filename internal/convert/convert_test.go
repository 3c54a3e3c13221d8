// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/costconv/pkg/types"
)

const (
	cheapObj = "#3001\nsword~\na long sword~\n5 0 8193\n0 3 4 3\n8 50 20\nE\n$\n"
	dearObj  = "#3002\nshield~\na tower shield~\n9 0 513\n10 0 0 0\n15 150000 20\n$\n"
	plainObj = "#3003\nrock~\n$\n"
)

func testOptions() Options {
	return Options{
		Rate:          1000,
		SkipThreshold: 100000,
		BackupSuffix:  types.DefaultBackupSuffix,
		Extension:     types.DefaultExtension,
		SkipIfBackup:  true,
	}
}

// writeObj creates an object file in dir and returns its path.
func writeObj(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestConvertFile(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		dryRun      bool
		preBackup   bool
		ignore      bool
		wantOutcome types.Outcome
		wantLog     string
		wantContent string
		wantBackup  bool
	}{
		{
			name:        "converts cheap cost",
			content:     cheapObj,
			wantOutcome: types.OutcomeConverted,
			wantLog:     "converted ",
			wantContent: "#3001\nsword~\na long sword~\n5 0 8193\n0 3 4 3\n8 50000 20\nE\n$\n",
			wantBackup:  true,
		},
		{
			name:        "dry run writes nothing",
			content:     cheapObj,
			dryRun:      true,
			wantOutcome: types.OutcomeWouldConvert,
			wantLog:     "would convert ",
			wantContent: cheapObj,
		},
		{
			name:        "existing backup skips file",
			content:     cheapObj,
			preBackup:   true,
			wantOutcome: types.OutcomeSkippedBackup,
			wantLog:     "(backup already exists)",
			wantContent: cheapObj,
			wantBackup:  true,
		},
		{
			name:        "ignore backups converts and keeps old backup",
			content:     cheapObj,
			preBackup:   true,
			ignore:      true,
			wantOutcome: types.OutcomeConverted,
			wantLog:     "converted ",
			wantContent: "#3001\nsword~\na long sword~\n5 0 8193\n0 3 4 3\n8 50000 20\nE\n$\n",
			wantBackup:  true,
		},
		{
			name:        "dry run ignores backup guard",
			content:     cheapObj,
			preBackup:   true,
			dryRun:      true,
			wantOutcome: types.OutcomeWouldConvert,
			wantLog:     "would convert ",
			wantContent: cheapObj,
			wantBackup:  true,
		},
		{
			name:        "large cost is reported",
			content:     dearObj,
			wantOutcome: types.OutcomeSkippedLarge,
			wantLog:     "(cost already large enough)",
			wantContent: dearObj,
		},
		{
			name:        "no cost lines is silent",
			content:     plainObj,
			wantOutcome: types.OutcomeUnchanged,
			wantContent: plainObj,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeObj(t, dir, "30.obj", tt.content)
			backup := path + types.DefaultBackupSuffix
			if tt.preBackup {
				require.NoError(t, os.WriteFile(backup, []byte("old backup"), 0o644))
			}

			opts := testOptions()
			opts.DryRun = tt.dryRun
			opts.SkipIfBackup = !tt.ignore

			var log bytes.Buffer
			res := ConvertFile(path, opts, &log)

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.NoError(t, res.Err)
			if tt.wantLog == "" {
				assert.Empty(t, log.String())
			} else {
				assert.Contains(t, log.String(), tt.wantLog)
			}
			assert.Equal(t, tt.wantContent, readFile(t, path))

			_, err := os.Stat(backup)
			if tt.wantBackup {
				require.NoError(t, err)
			} else {
				assert.True(t, os.IsNotExist(err), "backup should not exist")
			}
			if tt.preBackup {
				assert.Equal(t, "old backup", readFile(t, backup), "existing backup must not be replaced")
			}
		})
	}
}

func TestConvertFile_BackupHoldsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := writeObj(t, dir, "30.obj", cheapObj)
	require.NoError(t, os.Chmod(path, 0o600))

	var log bytes.Buffer
	res := ConvertFile(path, testOptions(), &log)
	require.Equal(t, types.OutcomeConverted, res.Outcome)

	assert.Equal(t, cheapObj, readFile(t, res.BackupPath))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConvertFile_ReadFailure(t *testing.T) {
	dir := t.TempDir()
	var log bytes.Buffer
	res := ConvertFile(filepath.Join(dir, "missing.obj"), testOptions(), &log)

	assert.Equal(t, types.OutcomeFailed, res.Outcome)
	assert.Error(t, res.Err)
	assert.Contains(t, log.String(), "failed ")
}

func TestConvertDir(t *testing.T) {
	dir := t.TempDir()
	writeObj(t, dir, "b.obj", cheapObj)
	writeObj(t, dir, "a.obj", dearObj)
	writeObj(t, dir, "c.obj", plainObj)
	writeObj(t, dir, "notes.txt", cheapObj)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.obj"), 0o755))

	var log bytes.Buffer
	res, err := ConvertDir(dir, testOptions(), &log)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 1, res.Converted)
	assert.False(t, res.HasFailures())
	assert.Equal(t, 1, res.Count(types.OutcomeSkippedLarge))
	assert.Equal(t, 1, res.Count(types.OutcomeUnchanged))

	want := "skipped " + filepath.Join(dir, "a.obj") + " (cost already large enough)\n" +
		"converted " + filepath.Join(dir, "b.obj") + "\n" +
		"Processed 3 files; 1 converted.\n"
	assert.Equal(t, want, log.String())
	assert.Equal(t, cheapObj, readFile(t, filepath.Join(dir, "notes.txt")))
}

func TestConvertDir_Idempotent(t *testing.T) {
	dir := t.TempDir()
	a := writeObj(t, dir, "a.obj", cheapObj)
	b := writeObj(t, dir, "b.obj", cheapObj)

	var first bytes.Buffer
	res, err := ConvertDir(dir, testOptions(), &first)
	require.NoError(t, err)
	require.Equal(t, 2, res.Converted)
	afterFirst := readFile(t, a)

	var second bytes.Buffer
	res, err = ConvertDir(dir, testOptions(), &second)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 0, res.Converted)
	assert.Equal(t, 2, res.Count(types.OutcomeSkippedBackup))
	assert.Equal(t, afterFirst, readFile(t, a))
	assert.Equal(t, afterFirst, readFile(t, b))
	assert.Contains(t, second.String(), "skipped "+a+" (backup already exists)")
	assert.Contains(t, second.String(), "skipped "+b+" (backup already exists)")
}

func TestConvertDir_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeObj(t, dir, "a.obj", cheapObj)

	opts := testOptions()
	opts.DryRun = true
	var log bytes.Buffer
	res, err := ConvertDir(dir, opts, &log)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Converted)
	assert.Equal(t, cheapObj, readFile(t, path))
	assert.NoFileExists(t, path+types.DefaultBackupSuffix)
	assert.Contains(t, log.String(), "would convert "+path)
	assert.Contains(t, log.String(), "Dry run complete; no files were written.")
}

func TestConvertDir_MissingDirectory(t *testing.T) {
	var log bytes.Buffer
	_, err := ConvertDir(filepath.Join(t.TempDir(), "nope"), testOptions(), &log)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrObjectDirNotFound)
	assert.Empty(t, log.String())
}

func TestConvertDir_NotADirectory(t *testing.T) {
	path := writeObj(t, t.TempDir(), "a.obj", cheapObj)
	var log bytes.Buffer
	_, err := ConvertDir(path, testOptions(), &log)
	assert.ErrorIs(t, err, ErrObjectDirNotFound)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(types.ConversionConfig{SkipThreshold: 500, IgnoreBackups: true, DryRun: true}, 10)
	assert.Equal(t, Options{
		Rate:          10,
		SkipThreshold: 500,
		BackupSuffix:  types.DefaultBackupSuffix,
		Extension:     types.DefaultExtension,
		DryRun:        true,
		SkipIfBackup:  false,
	}, opts)
}

func TestConvertFile_ZeroThreshold(t *testing.T) {
	dir := t.TempDir()
	path := writeObj(t, dir, "30.obj", cheapObj)

	opts := OptionsFromConfig(types.ConversionConfig{ObjectDir: dir, SkipThreshold: 0}, 1000)
	require.Equal(t, int64(0), opts.SkipThreshold)

	var log bytes.Buffer
	res := ConvertFile(path, opts, &log)

	assert.Equal(t, types.OutcomeSkippedLarge, res.Outcome)
	assert.Equal(t, 1, res.MatchedLines)
	assert.Equal(t, 0, res.ChangedLines)
	assert.Equal(t, cheapObj, readFile(t, path))
	assert.NoFileExists(t, res.BackupPath)
}
