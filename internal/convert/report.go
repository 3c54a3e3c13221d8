// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/costconv/pkg/types"
)

// Report is the on-disk YAML record of a conversion run. It lists every
// examined file so a reviewer can see what a dry run would touch before
// running for real.
type Report struct {
	Config  ReportConfig  `yaml:"config"`
	Files   []ReportFile  `yaml:"files"`
	Summary ReportSummary `yaml:"summary"`
}

// ReportConfig stores the settings that produced the run.
type ReportConfig struct {
	ObjectDir     string `yaml:"object_dir"`
	CopperPerGold int64  `yaml:"copper_per_gold"`
	RateSource    string `yaml:"rate_source,omitempty"`
	SkipThreshold int64  `yaml:"skip_threshold"`
	BackupSuffix  string `yaml:"backup_suffix"`
	DryRun        bool   `yaml:"dry_run"`
	IgnoreBackups bool   `yaml:"ignore_backups"`
}

// ReportFile is one file's entry.
type ReportFile struct {
	Path         string        `yaml:"path"`
	Outcome      types.Outcome `yaml:"outcome"`
	ChangedLines int           `yaml:"changed_lines,omitempty"`
	MatchedLines int           `yaml:"matched_lines,omitempty"`
	Backup       string        `yaml:"backup,omitempty"`
	Error        string        `yaml:"error,omitempty"`
}

// ReportSummary stores totals and a timestamp.
type ReportSummary struct {
	Processed int                   `yaml:"processed"`
	Converted int                   `yaml:"converted"`
	Outcomes  map[types.Outcome]int `yaml:"outcomes,omitempty"`
	Timestamp time.Time             `yaml:"timestamp"`
}

// NewReport builds a Report from a finished run.
func NewReport(cfg types.ConversionConfig, rate int64, rateSource string, res BatchResult) Report {
	cfg = cfg.WithDefaults()
	r := Report{
		Config: ReportConfig{
			ObjectDir:     cfg.ObjectDir,
			CopperPerGold: rate,
			RateSource:    rateSource,
			SkipThreshold: cfg.SkipThreshold,
			BackupSuffix:  cfg.BackupSuffix,
			DryRun:        cfg.DryRun,
			IgnoreBackups: cfg.IgnoreBackups,
		},
		Summary: ReportSummary{
			Processed: res.Processed,
			Converted: res.Converted,
			Outcomes:  map[types.Outcome]int{},
			Timestamp: time.Now(),
		},
	}
	for _, f := range res.Files {
		entry := ReportFile{
			Path:         f.Path,
			Outcome:      f.Outcome,
			ChangedLines: f.ChangedLines,
			MatchedLines: f.MatchedLines,
		}
		if f.Outcome == types.OutcomeConverted || f.Outcome == types.OutcomeSkippedBackup {
			entry.Backup = f.BackupPath
		}
		if f.Err != nil {
			entry.Error = f.Err.Error()
		}
		r.Files = append(r.Files, entry)
		r.Summary.Outcomes[f.Outcome]++
	}
	return r
}

// WriteReport saves r to path as YAML.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a previously written report.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &r, nil
}
