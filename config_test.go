// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	chk := require.New(t)
	cfg := DefaultConfig()
	chk.NoError(cfg.Validate())
	chk.Equal(8*60*22.0, cfg.simTimeMinutes())
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SimConfig)
	}{
		{"hours too low", func(c *SimConfig) { c.WorkHoursPerDay = 0 }},
		{"hours too high", func(c *SimConfig) { c.WorkHoursPerDay = 25 }},
		{"days too low", func(c *SimConfig) { c.WorkDaysPerMonth = 0 }},
		{"days too high", func(c *SimConfig) { c.WorkDaysPerMonth = 32 }},
		{"no workers", func(c *SimConfig) { c.NumWorkers = 0 }},
		{"no target", func(c *SimConfig) { c.TargetOutput = 0 }},
		{"zero capacity equipment", func(c *SimConfig) { c.CriticalEquipment = map[string]int{"press": 0} }},
		{"rest threshold below a minute", func(c *SimConfig) { c.RestTimeThreshold = 0.5 }},
		{"negative time rest", func(c *SimConfig) { c.RestDurationTime = -1 }},
		{"load threshold too high", func(c *SimConfig) { c.RestLoadThreshold = 11 }},
		{"negative load rest", func(c *SimConfig) { c.RestDurationLoad = -1 }},
		{"negative margin", func(c *SimConfig) { c.PipelineMargin = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrConfig)
		})
	}
}

func TestWithDefaultsFillsOptionalFields(t *testing.T) {
	chk := require.New(t)
	cfg := SimConfig{
		WorkHoursPerDay:  8,
		WorkDaysPerMonth: 20,
		NumWorkers:       4,
		TargetOutput:     2,
	}.withDefaults()
	chk.Equal(50.0, cfg.RestTimeThreshold)
	chk.Equal(5.0, cfg.RestDurationTime)
	chk.Equal(7, cfg.RestLoadThreshold)
	chk.Equal(3.0, cfg.RestDurationLoad)
	chk.Equal(2, cfg.PipelineMargin)
	chk.NoError(cfg.Validate())
}

func TestWarnings(t *testing.T) {
	chk := require.New(t)

	cfg := DefaultConfig()
	chk.Empty(cfg.Warnings())

	cfg.WorkHoursPerDay = 14
	cfg.NumWorkers = 1
	cfg.RestTimeThreshold = 2
	cfg.RestDurationTime = 5
	chk.Len(cfg.Warnings(), 3)
}
