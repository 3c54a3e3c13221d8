// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Outcome is the per-file result of a conversion run.
type Outcome string

const (
	// OutcomeUnchanged means no cost line was found; nothing is reported.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeConverted means the file was backed up and rewritten.
	OutcomeConverted Outcome = "converted"
	// OutcomeWouldConvert is OutcomeConverted under a dry run.
	OutcomeWouldConvert Outcome = "would-convert"
	// OutcomeSkippedBackup means a backup exists and the file was not read.
	OutcomeSkippedBackup Outcome = "skipped-backup"
	// OutcomeSkippedLarge means cost lines were found but all were at or
	// above the skip threshold.
	OutcomeSkippedLarge Outcome = "skipped-large"
	// OutcomeFailed means reading, backing up or writing the file failed.
	OutcomeFailed Outcome = "failed"
)

// Counts reports whether the outcome adds to the converted total.
func (o Outcome) Counts() bool {
	return o == OutcomeConverted || o == OutcomeWouldConvert
}
