// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/costconv/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List conversion runs recorded in the journal",
	Long: `History reads the SQLite journal written by "convert --journal" and
lists recorded runs, newest first. Use --run to list the files of one run,
or --file to show when a file was last converted.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("journal", "", "SQLite journal to read")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 = all)")
	historyCmd.Flags().String("run", "", "list the files of this run ID")
	historyCmd.Flags().String("file", "", "show when this object file was last converted")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := bindFlags(v, cmd.Flags(), map[string]string{"journal_path": "journal"}); err != nil {
		return err
	}
	path := v.GetString("journal_path")
	if path == "" {
		return errors.New("journal path required: pass --journal or set journal_path in the config file")
	}

	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	runID, _ := cmd.Flags().GetString("run")
	file, _ := cmd.Flags().GetString("file")
	switch {
	case file != "":
		when, ok, err := j.LastConverted(ctx, file)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(w, "%s has not been converted\n", file)
			return nil
		}
		fmt.Fprintf(w, "%s converted at %s\n", file, when.Local().Format("2006-01-02 15:04:05"))
		return nil
	case runID != "":
		files, err := j.Files(ctx, runID)
		if err != nil {
			return err
		}
		printFiles(w, files)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := j.Runs(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(w, runs)
	return nil
}

func printRuns(w io.Writer, runs []journal.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-19s  %-7s  %-9s  %-9s  %s\n",
		"Run", "Started", "Rate", "Processed", "Converted", "Directory")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		dir := r.ObjectDir
		if r.DryRun {
			dir += " (dry run)"
		}
		fmt.Fprintf(w, "%-36s  %-19s  %-7d  %-9d  %-9d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.CopperPerGold, r.Processed, r.Converted, dir)
	}
}

func printFiles(w io.Writer, files []journal.File) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No files recorded for this run.")
		return
	}
	for _, f := range files {
		line := fmt.Sprintf("%-14s  %s", f.Outcome, f.Path)
		if f.ChangedLines > 0 || f.MatchedLines > 0 {
			line += fmt.Sprintf(" (%d of %d cost lines changed)", f.ChangedLines, f.MatchedLines)
		}
		if f.Error != "" {
			line += ": " + f.Error
		}
		fmt.Fprintln(w, line)
	}
}
