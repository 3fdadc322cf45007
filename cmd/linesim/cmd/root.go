// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package cmd implements the linesim command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/petenewcomb/linesim"
)

var (
	cfgFile     string
	processFile string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "linesim",
	Short: "linesim simulates a multi-engine assembly line",
	Long: `linesim runs a discrete-event simulation of an assembly line: a DAG of
process steps executed by a pool of workers and capacity-limited equipment
over an operating month.

Typical usage:

  Simulate a process with an explicit configuration:
    linesim run --process process.yaml --config config.yaml

  Compare against the no-rest baseline:
    linesim run --process process.yaml --config config.yaml --no-rest

  Inspect a process definition without simulating:
    linesim describe --process process.yaml

Configuration values may also come from LINESIM_* environment variables
(e.g. LINESIM_NUM_WORKERS, LINESIM_RANDOM_SEED).`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "simulation config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&processFile, "process", "", "process definition file (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.SetEnvPrefix("LINESIM")
	viper.AutomaticEnv()

	defaults := linesim.DefaultConfig()
	viper.SetDefault("work_hours_per_day", defaults.WorkHoursPerDay)
	viper.SetDefault("work_days_per_month", defaults.WorkDaysPerMonth)
	viper.SetDefault("num_workers", defaults.NumWorkers)
	viper.SetDefault("target_output", defaults.TargetOutput)
	viper.SetDefault("rest_time_threshold", defaults.RestTimeThreshold)
	viper.SetDefault("rest_duration_time", defaults.RestDurationTime)
	viper.SetDefault("rest_load_threshold", defaults.RestLoadThreshold)
	viper.SetDefault("rest_duration_load", defaults.RestDurationLoad)
	viper.SetDefault("pipeline_mode", defaults.PipelineMode)
	viper.SetDefault("pipeline_margin", defaults.PipelineMargin)
	// random_seed has no default; bind it so LINESIM_RANDOM_SEED reaches
	// Unmarshal.
	_ = viper.BindEnv("random_seed")

	if cfgFile != "" {
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "cannot read config %s: %v\n", cfgFile, err)
			os.Exit(1)
		}
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (linesim.SimConfig, error) {
	var cfg linesim.SimConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("cannot decode config: %w", err)
	}
	return cfg, nil
}

func loadProcess() (*linesim.ProcessDefinition, error) {
	if processFile == "" {
		return nil, fmt.Errorf("--process is required")
	}
	data, err := os.ReadFile(processFile)
	if err != nil {
		return nil, fmt.Errorf("cannot read process %s: %w", processFile, err)
	}
	var def linesim.ProcessDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("cannot decode process %s: %w", processFile, err)
	}
	return &def, nil
}
