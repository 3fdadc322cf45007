// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import "fmt"

// SimConfig holds the per-run parameters: shift shape, crew size, production
// target, equipment capacities, and the rest rules. Zero-valued optional
// fields take the defaults listed on each field. A SimConfig is immutable
// once a run starts.
type SimConfig struct {
	// WorkHoursPerDay (1..24) and WorkDaysPerMonth (1..31) bound the run:
	// the simulation deadline is WorkHoursPerDay * WorkDaysPerMonth * 60
	// minutes.
	WorkHoursPerDay  int `json:"work_hours_per_day" yaml:"work_hours_per_day" mapstructure:"work_hours_per_day"`
	WorkDaysPerMonth int `json:"work_days_per_month" yaml:"work_days_per_month" mapstructure:"work_days_per_month"`

	// NumWorkers is the size of the interchangeable worker pool.
	NumWorkers int `json:"num_workers" yaml:"num_workers" mapstructure:"num_workers"`

	// TargetOutput is the number of product units the run aims to complete.
	TargetOutput int `json:"target_output" yaml:"target_output" mapstructure:"target_output"`

	// CriticalEquipment maps equipment names to integer capacities. Equipment
	// not listed here is unlimited (grants never block, usage is still
	// tracked).
	CriticalEquipment map[string]int `json:"critical_equipment,omitempty" yaml:"critical_equipment,omitempty" mapstructure:"critical_equipment"`

	// RestTimeThreshold is the continuous-work minutes after which rule A
	// forces a rest of RestDurationTime minutes. Default 50 and 5.
	RestTimeThreshold float64 `json:"rest_time_threshold,omitempty" yaml:"rest_time_threshold,omitempty" mapstructure:"rest_time_threshold"`
	RestDurationTime  float64 `json:"rest_duration_time,omitempty" yaml:"rest_duration_time,omitempty" mapstructure:"rest_duration_time"`

	// RestLoadThreshold is the work-load score at or above which rule B
	// forces a rest of RestDurationLoad minutes after the task. Default 7
	// and 3.
	RestLoadThreshold int     `json:"rest_load_threshold,omitempty" yaml:"rest_load_threshold,omitempty" mapstructure:"rest_load_threshold"`
	RestDurationLoad  float64 `json:"rest_duration_load,omitempty" yaml:"rest_duration_load,omitempty" mapstructure:"rest_duration_load"`

	// PipelineMode admits successive units while earlier ones are still in
	// progress. When false a single unit is produced.
	PipelineMode bool `json:"pipeline_mode" yaml:"pipeline_mode" mapstructure:"pipeline_mode"`

	// PipelineMargin is the number of units the pipeline controller may admit
	// beyond TargetOutput, a safety margin against rework losses. Default 2.
	PipelineMargin int `json:"pipeline_margin,omitempty" yaml:"pipeline_margin,omitempty" mapstructure:"pipeline_margin"`

	// RandomSeed makes runs reproducible. Nil seeds from the clock.
	RandomSeed *int64 `json:"random_seed,omitempty" yaml:"random_seed,omitempty" mapstructure:"random_seed"`
}

// DefaultConfig returns the baseline configuration: an 8-hour day, 22-day
// month, 6 workers, target of 3 units, pipelined, with the standard rest
// rules.
func DefaultConfig() SimConfig {
	return SimConfig{
		WorkHoursPerDay:   8,
		WorkDaysPerMonth:  22,
		NumWorkers:        6,
		TargetOutput:      3,
		RestTimeThreshold: 50,
		RestDurationTime:  5,
		RestLoadThreshold: 7,
		RestDurationLoad:  3,
		PipelineMode:      true,
		PipelineMargin:    2,
	}
}

// simTimeMinutes is the global deadline in simulated minutes.
func (c *SimConfig) simTimeMinutes() float64 {
	return float64(c.WorkHoursPerDay) * 60 * float64(c.WorkDaysPerMonth)
}

// withDefaults fills zero-valued optional fields. It does not touch required
// fields or PipelineMode.
func (c SimConfig) withDefaults() SimConfig {
	if c.RestTimeThreshold == 0 {
		c.RestTimeThreshold = 50
	}
	if c.RestDurationTime == 0 {
		c.RestDurationTime = 5
	}
	if c.RestLoadThreshold == 0 {
		c.RestLoadThreshold = 7
	}
	if c.RestDurationLoad == 0 {
		c.RestDurationLoad = 3
	}
	if c.PipelineMargin == 0 {
		c.PipelineMargin = 2
	}
	return c
}

// Validate checks the hard constraints of the configuration. Every violation
// wraps [ErrConfig].
func (c *SimConfig) Validate() error {
	if c.WorkHoursPerDay < 1 || c.WorkHoursPerDay > 24 {
		return fmt.Errorf("%w: work_hours_per_day %d outside 1..24", ErrConfig, c.WorkHoursPerDay)
	}
	if c.WorkDaysPerMonth < 1 || c.WorkDaysPerMonth > 31 {
		return fmt.Errorf("%w: work_days_per_month %d outside 1..31", ErrConfig, c.WorkDaysPerMonth)
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("%w: num_workers %d must be at least 1", ErrConfig, c.NumWorkers)
	}
	if c.TargetOutput < 1 {
		return fmt.Errorf("%w: target_output %d must be at least 1", ErrConfig, c.TargetOutput)
	}
	for name, capacity := range c.CriticalEquipment {
		if capacity < 1 {
			return fmt.Errorf("%w: equipment %q capacity %d must be at least 1", ErrConfig, name, capacity)
		}
	}
	if c.RestTimeThreshold < 1 {
		return fmt.Errorf("%w: rest_time_threshold %g must be at least 1 minute", ErrConfig, c.RestTimeThreshold)
	}
	if c.RestDurationTime < 0 {
		return fmt.Errorf("%w: rest_duration_time %g must not be negative", ErrConfig, c.RestDurationTime)
	}
	if c.RestLoadThreshold < 1 || c.RestLoadThreshold > 10 {
		return fmt.Errorf("%w: rest_load_threshold %d outside 1..10", ErrConfig, c.RestLoadThreshold)
	}
	if c.RestDurationLoad < 0 {
		return fmt.Errorf("%w: rest_duration_load %g must not be negative", ErrConfig, c.RestDurationLoad)
	}
	if c.PipelineMargin < 0 {
		return fmt.Errorf("%w: pipeline_margin %d must not be negative", ErrConfig, c.PipelineMargin)
	}
	return nil
}

// Warnings returns non-fatal advisories about questionable but legal
// configurations.
func (c *SimConfig) Warnings() []string {
	var warnings []string
	if c.WorkHoursPerDay > 12 {
		warnings = append(warnings, fmt.Sprintf("work_hours_per_day %d exceeds 12; shift may be unrealistically long", c.WorkHoursPerDay))
	}
	if c.NumWorkers < 2 {
		warnings = append(warnings, "fewer than 2 workers limits pipeline overlap")
	}
	if c.RestTimeThreshold < c.RestDurationTime {
		warnings = append(warnings, "rest_time_threshold is below rest_duration_time; workers rest more than they work")
	}
	return warnings
}
