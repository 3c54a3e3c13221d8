// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/costconv/pkg/types"
)

// newConvertViper returns a fresh viper bound to a fresh set of convert
// flags, configured like the CLI. Flags are set before binding.
func newConvertViper(t *testing.T, flags map[string]string, configYAML string) *viper.Viper {
	t.Helper()
	cmd := &cobra.Command{Use: "convert"}
	addConvertFlags(cmd)
	for name, value := range flags {
		require.NoError(t, cmd.Flags().Set(name, value))
	}

	v := viper.New()
	configureEnv(v)
	if configYAML != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBufferString(configYAML)))
	}
	require.NoError(t, bindFlags(v, cmd.Flags(), convertKeys))
	return v
}

func defaultConfig() types.ConversionConfig {
	return types.ConversionConfig{
		ObjectDir:       types.DefaultObjectDir,
		Extension:       types.DefaultExtension,
		SkipThreshold:   types.DefaultSkipThreshold,
		BackupSuffix:    types.DefaultBackupSuffix,
		DefinitionsPath: types.DefaultDefinitions,
	}
}

func TestConversionConfig(t *testing.T) {
	tests := []struct {
		name   string
		flags  map[string]string
		env    map[string]string
		config string
		want   func(c *types.ConversionConfig)
	}{
		{
			name: "flag defaults",
			want: func(c *types.ConversionConfig) {},
		},
		{
			name: "flags",
			flags: map[string]string{
				"object-dir":      "world/obj",
				"skip-threshold":  "0",
				"copper-per-gold": "7",
				"dry-run":         "true",
				"ignore-backups":  "true",
				"ext":             ".o",
				"report":          "run.yaml",
				"journal":         "runs.db",
			},
			want: func(c *types.ConversionConfig) {
				c.ObjectDir = "world/obj"
				c.SkipThreshold = 0
				c.CopperPerGold = 7
				c.DryRun = true
				c.IgnoreBackups = true
				c.Extension = ".o"
				c.ReportPath = "run.yaml"
				c.JournalPath = "runs.db"
			},
		},
		{
			name: "environment",
			env: map[string]string{
				"COSTCONV_SKIP_THRESHOLD":   "0",
				"COSTCONV_OBJECT_DIR":       "env/obj",
				"COSTCONV_DEFINITIONS_PATH": "env/structs.h",
				"COSTCONV_DRY_RUN":          "true",
			},
			want: func(c *types.ConversionConfig) {
				c.SkipThreshold = 0
				c.ObjectDir = "env/obj"
				c.DefinitionsPath = "env/structs.h"
				c.DryRun = true
			},
		},
		{
			name:   "config file uses the yaml tag names",
			config: "object_dir: file/obj\nskip_threshold: 0\nbackup_suffix: .bak\ncopper_per_gold: 100\nreport_path: r.yaml\n",
			want: func(c *types.ConversionConfig) {
				c.ObjectDir = "file/obj"
				c.SkipThreshold = 0
				c.BackupSuffix = ".bak"
				c.CopperPerGold = 100
				c.ReportPath = "r.yaml"
			},
		},
		{
			name:   "flag beats environment beats config file",
			flags:  map[string]string{"skip-threshold": "5"},
			env:    map[string]string{"COSTCONV_SKIP_THRESHOLD": "6", "COSTCONV_OBJECT_DIR": "env/obj"},
			config: "skip_threshold: 7\nobject_dir: file/obj\nextension: .wld\n",
			want: func(c *types.ConversionConfig) {
				c.SkipThreshold = 5
				c.ObjectDir = "env/obj"
				c.Extension = ".wld"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			v := newConvertViper(t, tt.flags, tt.config)

			want := defaultConfig()
			tt.want(&want)
			assert.Equal(t, want, conversionConfig(v))
		})
	}
}

func TestConversionConfig_MarshaledConfigReadsBack(t *testing.T) {
	in := types.ConversionConfig{
		ObjectDir:       "lib/world/obj",
		Extension:       ".obj",
		SkipThreshold:   0,
		BackupSuffix:    ".old",
		CopperPerGold:   250,
		DefinitionsPath: "include/structs.h",
		DryRun:          true,
		IgnoreBackups:   true,
		ReportPath:      "report.yaml",
		JournalPath:     "journal.db",
	}
	data, err := yaml.Marshal(&in)
	require.NoError(t, err)

	v := newConvertViper(t, nil, string(data))
	assert.Equal(t, in, conversionConfig(v))
}
