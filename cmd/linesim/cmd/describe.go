// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petenewcomb/linesim"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Validate a process definition and print its structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		process, err := loadProcess()
		if err != nil {
			return err
		}
		graph := linesim.NewGraph(process)
		if err := graph.Validate(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "process: %s\n", process.Name)
		if process.Description != "" {
			fmt.Fprintf(out, "description: %s\n", process.Description)
		}
		fmt.Fprintf(out, "nodes: %d\n", graph.Count())
		fmt.Fprintf(out, "total std duration: %.1f min\n", process.TotalStdDuration())

		fmt.Fprintf(out, "topological order: %s\n", strings.Join(graph.TopologicalOrder(), " -> "))
		path, length := graph.CriticalPath()
		fmt.Fprintf(out, "critical path (%.1f min): %s\n", length, strings.Join(path, " -> "))

		fmt.Fprintln(out, "parallel groups:")
		for i, group := range graph.ParallelGroups() {
			fmt.Fprintf(out, "  %d: %s\n", i+1, strings.Join(group, ", "))
		}

		tools := process.AllTools()
		if len(tools) > 0 {
			names := make([]string, 0, len(tools))
			for name := range tools {
				names = append(names, name)
			}
			fmt.Fprintf(out, "equipment referenced: %d types\n", len(names))
		}
		if m := process.MeasurementNodes(); len(m) > 0 {
			ids := make([]string, len(m))
			for i, node := range m {
				ids[i] = node.StepID
			}
			fmt.Fprintf(out, "inspection steps: %s\n", strings.Join(ids, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
