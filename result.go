// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import "math"

// SimStatus is the terminal status of a run.
type SimStatus string

const (
	// StatusCompleted means the run executed to its deadline or until all
	// engines finished. Starvation and deadline truncation still complete.
	StatusCompleted SimStatus = "COMPLETED"
	// StatusFailed means validation rejected the configuration or graph
	// before the clock started.
	StatusFailed SimStatus = "FAILED"
)

// ResourceType tags a ResourceUtilization row.
type ResourceType string

const (
	ResourceWorker    ResourceType = "WORKER"
	ResourceEquipment ResourceType = "EQUIPMENT"
)

// ResourceUtilization is one worker's or one equipment type's usage summary.
// Worker rows carry rest and fatigue fields; equipment rows carry Capacity
// (zero for unlimited equipment).
type ResourceUtilization struct {
	ResourceID         string         `json:"resource_id" yaml:"resource_id"`
	ResourceType       ResourceType   `json:"resource_type" yaml:"resource_type"`
	Capacity           int            `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	TotalTime          float64        `json:"total_time" yaml:"total_time"`
	WorkTime           float64        `json:"work_time" yaml:"work_time"`
	RestTime           float64        `json:"rest_time,omitempty" yaml:"rest_time,omitempty"`
	IdleTime           float64        `json:"idle_time" yaml:"idle_time"`
	UtilizationRate    float64        `json:"utilization_rate" yaml:"utilization_rate"`
	TasksCompleted     int            `json:"tasks_completed" yaml:"tasks_completed"`
	FatigueLevel       float64        `json:"fatigue_level,omitempty" yaml:"fatigue_level,omitempty"`
	HighIntensityCount int            `json:"high_intensity_count,omitempty" yaml:"high_intensity_count,omitempty"`
	FatigueHistory     []FatiguePoint `json:"fatigue_history,omitempty" yaml:"fatigue_history,omitempty"`
}

// QualityStats aggregates the inspection and rework outcomes of a run.
type QualityStats struct {
	TotalInspections int     `json:"total_inspections" yaml:"total_inspections"`
	TotalReworks     int     `json:"total_reworks" yaml:"total_reworks"`
	FirstPassRate    float64 `json:"first_pass_rate" yaml:"first_pass_rate"`
	ReworkTimeTotal  float64 `json:"rework_time_total" yaml:"rework_time_total"`
}

// HumanFactorsStats aggregates the ergonomic outcomes of a run.
type HumanFactorsStats struct {
	TotalRestTime              float64 `json:"total_rest_time" yaml:"total_rest_time"`
	AvgFatigueLevel            float64 `json:"avg_fatigue_level" yaml:"avg_fatigue_level"`
	MaxFatigueLevel            float64 `json:"max_fatigue_level" yaml:"max_fatigue_level"`
	TotalHighIntensityExposure int     `json:"total_high_intensity_exposure" yaml:"total_high_intensity_exposure"`
	RestEventsCount            int     `json:"rest_events_count" yaml:"rest_events_count"`
}

// TimeMapping relates simulated minutes to the working calendar, for Gantt
// axes.
type TimeMapping struct {
	MinutesPerDay   int     `json:"minutes_per_day" yaml:"minutes_per_day"`
	TotalDays       int     `json:"total_days" yaml:"total_days"`
	TotalMinutes    float64 `json:"total_minutes" yaml:"total_minutes"`
	WorkHoursPerDay int     `json:"work_hours_per_day" yaml:"work_hours_per_day"`
}

func newTimeMapping(c *SimConfig) TimeMapping {
	return TimeMapping{
		MinutesPerDay:   c.WorkHoursPerDay * 60,
		TotalDays:       c.WorkDaysPerMonth,
		TotalMinutes:    c.simTimeMinutes(),
		WorkHoursPerDay: c.WorkHoursPerDay,
	}
}

// DayHour converts a simulated minute offset to a 1-based working day and an
// hour offset within that day.
func (m TimeMapping) DayHour(minutes float64) (day int, hour float64) {
	if m.MinutesPerDay <= 0 {
		return 1, 0
	}
	mpd := float64(m.MinutesPerDay)
	day = int(math.Floor(minutes/mpd)) + 1
	hour = math.Mod(minutes, mpd) / 60
	return day, hour
}

// SimResult is the complete outcome of one simulation run.
type SimResult struct {
	SimID                 string                `json:"sim_id" yaml:"sim_id"`
	Status                SimStatus             `json:"status" yaml:"status"`
	Config                SimConfig             `json:"config" yaml:"config"`
	SimDuration           float64               `json:"sim_duration" yaml:"sim_duration"`
	EnginesCompleted      int                   `json:"engines_completed" yaml:"engines_completed"`
	TargetAchievementRate float64               `json:"target_achievement_rate" yaml:"target_achievement_rate"`
	AvgCycleTime          float64               `json:"avg_cycle_time" yaml:"avg_cycle_time"`
	WorkerStats           []ResourceUtilization `json:"worker_stats" yaml:"worker_stats"`
	EquipmentStats        []ResourceUtilization `json:"equipment_stats" yaml:"equipment_stats"`
	QualityStats          QualityStats          `json:"quality_stats" yaml:"quality_stats"`
	HumanFactorsStats     HumanFactorsStats     `json:"human_factors_stats" yaml:"human_factors_stats"`
	Events                []Event               `json:"events" yaml:"events"`
	TimeMapping           TimeMapping           `json:"time_mapping" yaml:"time_mapping"`
	CreatedAt             string                `json:"created_at" yaml:"created_at"`
	CompletedAt           string                `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Error                 string                `json:"error,omitempty" yaml:"error,omitempty"`
}

// KPISummary condenses a result into headline indicators.
type KPISummary struct {
	EnginesCompleted            int     `json:"engines_completed" yaml:"engines_completed"`
	TargetOutput                int     `json:"target_output" yaml:"target_output"`
	TargetAchievementRate       float64 `json:"target_achievement_rate" yaml:"target_achievement_rate"`
	AvgCycleTimeMinutes         float64 `json:"avg_cycle_time_minutes" yaml:"avg_cycle_time_minutes"`
	SimDurationMinutes          float64 `json:"sim_duration_minutes" yaml:"sim_duration_minutes"`
	AvgWorkerUtilization        float64 `json:"avg_worker_utilization" yaml:"avg_worker_utilization"`
	MaxWorkerUtilization        float64 `json:"max_worker_utilization" yaml:"max_worker_utilization"`
	MinWorkerUtilization        float64 `json:"min_worker_utilization" yaml:"min_worker_utilization"`
	AvgEquipmentUtilization     float64 `json:"avg_equipment_utilization" yaml:"avg_equipment_utilization"`
	FirstPassRate               float64 `json:"first_pass_rate" yaml:"first_pass_rate"`
	TotalRestTimeMinutes        float64 `json:"total_rest_time_minutes" yaml:"total_rest_time_minutes"`
	TotalHighIntensityExposures int     `json:"total_high_intensity_exposures" yaml:"total_high_intensity_exposures"`
}

// KPI derives the headline indicators from a result.
func (r *SimResult) KPI() KPISummary {
	k := KPISummary{
		EnginesCompleted:            r.EnginesCompleted,
		TargetOutput:                r.Config.TargetOutput,
		TargetAchievementRate:       r.TargetAchievementRate,
		AvgCycleTimeMinutes:         r.AvgCycleTime,
		SimDurationMinutes:          r.SimDuration,
		FirstPassRate:               r.QualityStats.FirstPassRate,
		TotalRestTimeMinutes:        r.HumanFactorsStats.TotalRestTime,
		TotalHighIntensityExposures: r.HumanFactorsStats.TotalHighIntensityExposure,
	}
	if len(r.WorkerStats) > 0 {
		k.MinWorkerUtilization = math.Inf(1)
		var sum float64
		for i := range r.WorkerStats {
			rate := r.WorkerStats[i].UtilizationRate
			sum += rate
			k.MaxWorkerUtilization = math.Max(k.MaxWorkerUtilization, rate)
			k.MinWorkerUtilization = math.Min(k.MinWorkerUtilization, rate)
		}
		k.AvgWorkerUtilization = sum / float64(len(r.WorkerStats))
	}
	if len(r.EquipmentStats) > 0 {
		var sum float64
		for i := range r.EquipmentStats {
			sum += r.EquipmentStats[i].UtilizationRate
		}
		k.AvgEquipmentUtilization = sum / float64(len(r.EquipmentStats))
	}
	return k
}
