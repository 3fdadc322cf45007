// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petenewcomb/linesim"
)

var (
	outputFile string
	noRest     bool
	kpiOnly    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation and write the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		process, err := loadProcess()
		if err != nil {
			return err
		}

		engine := linesim.NewEngine(cfg, process)
		engine.SetLogger(newLogger())

		var result *linesim.SimResult
		if noRest {
			result, err = engine.RunWithoutRest()
		} else {
			result, err = engine.Run()
		}
		if err != nil {
			return err
		}

		var payload any = result
		if kpiOnly {
			payload = result.KPI()
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')

		if outputFile == "" || outputFile == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(outputFile, data, 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", outputFile, err)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write result to file instead of stdout")
	runCmd.Flags().BoolVar(&noRest, "no-rest", false, "disable worker rest rules (A/B baseline)")
	runCmd.Flags().BoolVar(&kpiOnly, "kpi", false, "print only the KPI summary")
	rootCmd.AddCommand(runCmd)
}
