// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the costconv CLI, a one-shot
// converter that rescales object costs in world files from gold to copper.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the costconv CLI. Run without a
// subcommand it behaves like "costconv convert".
var rootCmd = &cobra.Command{
	Use:   "costconv",
	Short: "Convert object costs in world files from gold to copper",
	Long: `costconv rewrites the cost field of every object in a directory of
.obj world files, multiplying gold values by the copper-per-gold rate.

Each rewritten file is first copied to <file>.gold_cost.bak. A file whose
backup already exists is skipped, so running the tool twice is safe. Costs at
or above the skip threshold are treated as already converted.`,
	SilenceUsage: true,
	RunE:         runConvert,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./costconv.yaml or ~/.config/costconv/costconv.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging on stderr")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	addConvertFlags(rootCmd)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("costconv")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "costconv"))
		}
	}

	configureEnv(viper.GetViper())

	err := viper.ReadInConfig()
	setupLogger(viper.GetBool("verbose"))
	if err == nil {
		slog.Info("using config file", slog.String("path", viper.ConfigFileUsed()))
	}
}

// configureEnv lets COSTCONV_<KEY> override any config key, e.g.
// COSTCONV_SKIP_THRESHOLD for skip_threshold.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("COSTCONV")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// setupLogger installs a text logger on stderr as the slog default.
func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log.With(slog.String("app", "costconv")))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
