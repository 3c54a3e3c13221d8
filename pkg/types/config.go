// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Defaults for ConversionConfig. These match the layout of a stock world
// directory and the legacy gold-to-copper rate.
const (
	DefaultObjectDir     = "lib/world/obj"
	DefaultSkipThreshold = 100000
	DefaultBackupSuffix  = ".gold_cost.bak"
	DefaultDefinitions   = "src/structs.h"
	DefaultExtension     = ".obj"
	DefaultCopperPerGold = 1000
)

// ConversionConfig holds settings for a cost conversion run.
type ConversionConfig struct {
	// ObjectDir is the directory scanned (non-recursively) for object files.
	ObjectDir string `json:"object_dir" yaml:"object_dir"`

	// Extension selects candidate files by name suffix (default ".obj").
	Extension string `json:"extension" yaml:"extension"`

	// SkipThreshold is the cost at or above which a line is treated as
	// already converted (default 100000).
	SkipThreshold int64 `json:"skip_threshold" yaml:"skip_threshold"`

	// BackupSuffix is appended to a file name to form its backup path.
	BackupSuffix string `json:"backup_suffix" yaml:"backup_suffix"`

	// CopperPerGold overrides rate inference when positive.
	CopperPerGold int64 `json:"copper_per_gold,omitempty" yaml:"copper_per_gold,omitempty"`

	// DefinitionsPath is the header scanned for the coin constants when no
	// override is given.
	DefinitionsPath string `json:"definitions_path" yaml:"definitions_path"`

	// DryRun reports what would change without writing files or backups.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// IgnoreBackups disables the skip-if-backup-exists guard.
	IgnoreBackups bool `json:"ignore_backups" yaml:"ignore_backups"`

	// ReportPath, when set, receives a YAML report of the run.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`

	// JournalPath, when set, is the SQLite database the run is recorded in.
	JournalPath string `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`
}

// WithDefaults returns a copy of c with empty path and suffix fields filled
// from the package defaults. SkipThreshold is taken as given: 0 is a valid
// threshold that leaves every non-negative cost alone.
func (c ConversionConfig) WithDefaults() ConversionConfig {
	if c.ObjectDir == "" {
		c.ObjectDir = DefaultObjectDir
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	if c.BackupSuffix == "" {
		c.BackupSuffix = DefaultBackupSuffix
	}
	if c.DefinitionsPath == "" {
		c.DefinitionsPath = DefaultDefinitions
	}
	return c
}
