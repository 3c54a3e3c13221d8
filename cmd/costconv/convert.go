// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/costconv/internal/convert"
	"github.com/pdiddy/costconv/internal/journal"
	"github.com/pdiddy/costconv/internal/rate"
	"github.com/pdiddy/costconv/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Rescale object costs from gold to copper",
	Long: `Convert scans --object-dir for object files and multiplies each cost
below --skip-threshold by the copper-per-gold rate. The rate comes from
--copper-per-gold, or is inferred from COPPER_PER_SILVER and SILVER_PER_GOLD
in the --definitions header, or defaults to 1000.

Use --dry-run to see which files would change without writing anything.`,
	RunE: runConvert,
}

func init() {
	addConvertFlags(convertCmd)
	rootCmd.AddCommand(convertCmd)
}

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().String("object-dir", types.DefaultObjectDir, "directory containing object files")
	cmd.Flags().Int64("skip-threshold", types.DefaultSkipThreshold, "costs at or above this are treated as already converted")
	cmd.Flags().String("backup-suffix", types.DefaultBackupSuffix, "suffix appended to a file name for its backup copy")
	cmd.Flags().Int64("copper-per-gold", 0, "override the copper-per-gold rate (0 = infer)")
	cmd.Flags().Bool("dry-run", false, "show what would change without writing files")
	cmd.Flags().Bool("ignore-backups", false, "convert files even if a backup already exists")
	cmd.Flags().String("definitions", types.DefaultDefinitions, "header scanned for the coin constants")
	cmd.Flags().String("ext", types.DefaultExtension, "extension of object files")
	cmd.Flags().String("report", "", "write a YAML report of the run to this path")
	cmd.Flags().String("journal", "", "record the run in this SQLite journal")
}

// convertKeys maps config keys to convert flags. The keys match the yaml
// tags of types.ConversionConfig and the run report, so either can be used
// as a costconv.yaml.
var convertKeys = map[string]string{
	"object_dir":       "object-dir",
	"extension":        "ext",
	"skip_threshold":   "skip-threshold",
	"backup_suffix":    "backup-suffix",
	"copper_per_gold":  "copper-per-gold",
	"definitions_path": "definitions",
	"dry_run":          "dry-run",
	"ignore_backups":   "ignore-backups",
	"report_path":      "report",
	"journal_path":     "journal",
}

func runConvert(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := bindFlags(v, cmd.Flags(), convertKeys); err != nil {
		return err
	}
	return convertObjects(cmd.Context(), conversionConfig(v), cmd.OutOrStdout())
}

// bindFlags binds each config key to its flag. Flag defaults apply only
// when neither the flag, the environment nor the config file sets the key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// conversionConfig collects the convert settings from v.
func conversionConfig(v *viper.Viper) types.ConversionConfig {
	return types.ConversionConfig{
		ObjectDir:       v.GetString("object_dir"),
		Extension:       v.GetString("extension"),
		SkipThreshold:   v.GetInt64("skip_threshold"),
		BackupSuffix:    v.GetString("backup_suffix"),
		CopperPerGold:   v.GetInt64("copper_per_gold"),
		DefinitionsPath: v.GetString("definitions_path"),
		DryRun:          v.GetBool("dry_run"),
		IgnoreBackups:   v.GetBool("ignore_backups"),
		ReportPath:      v.GetString("report_path"),
		JournalPath:     v.GetString("journal_path"),
	}
}

// convertObjects resolves the rate and converts cfg.ObjectDir, writing
// progress and the summary to w. It fails on a negative rate override,
// when the directory is missing,
// when the report or journal cannot be written, or when any file failed.
func convertObjects(ctx context.Context, cfg types.ConversionConfig, w io.Writer) error {
	cfg = cfg.WithDefaults()
	if err := rate.CheckOverride(cfg.CopperPerGold); err != nil {
		return err
	}

	copperPerGold, source := rate.Resolve(cfg.CopperPerGold, cfg.DefinitionsPath, rate.Names{})
	slog.Debug("resolved rate",
		slog.Int64("copper_per_gold", copperPerGold),
		slog.String("source", string(source)),
		slog.String("definitions", cfg.DefinitionsPath),
	)
	fmt.Fprintf(w, "Using copper_per_gold=%d\n", copperPerGold)

	res, err := convert.ConvertDir(cfg.ObjectDir, convert.OptionsFromConfig(cfg, copperPerGold), w)
	if err != nil {
		return err
	}

	if cfg.ReportPath != "" {
		report := convert.NewReport(cfg, copperPerGold, string(source), res)
		if err := convert.WriteReport(cfg.ReportPath, report); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		slog.Debug("wrote report", slog.String("path", cfg.ReportPath))
	}

	if cfg.JournalPath != "" {
		id, err := recordRun(ctx, cfg, copperPerGold, res)
		if err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
		slog.Debug("recorded run", slog.String("journal", cfg.JournalPath), slog.String("run", id))
	}

	if n := res.Count(types.OutcomeFailed); n > 0 {
		return fmt.Errorf("%d file(s) failed conversion", n)
	}
	return nil
}

func recordRun(ctx context.Context, cfg types.ConversionConfig, copperPerGold int64, res convert.BatchResult) (string, error) {
	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return "", err
	}
	defer j.Close()

	run := journal.Run{
		ObjectDir:     cfg.ObjectDir,
		CopperPerGold: copperPerGold,
		SkipThreshold: cfg.SkipThreshold,
		DryRun:        cfg.DryRun,
		Processed:     res.Processed,
		Converted:     res.Converted,
	}
	for _, f := range res.Files {
		entry := journal.File{
			Path:         f.Path,
			Outcome:      f.Outcome,
			ChangedLines: f.ChangedLines,
			MatchedLines: f.MatchedLines,
		}
		if f.Err != nil {
			entry.Error = f.Err.Error()
		}
		run.Files = append(run.Files, entry)
	}
	return j.Record(ctx, run)
}
