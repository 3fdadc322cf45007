// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimeMappingDayHour(t *testing.T) {
	chk := require.New(t)
	cfg := DefaultConfig() // 8h days
	m := newTimeMapping(&cfg)

	chk.Equal(480, m.MinutesPerDay)
	chk.Equal(22, m.TotalDays)
	chk.Equal(8*60*22.0, m.TotalMinutes)

	day, hour := m.DayHour(0)
	chk.Equal(1, day)
	chk.Zero(hour)

	day, hour = m.DayHour(90)
	chk.Equal(1, day)
	chk.InDelta(1.5, hour, 1e-9)

	day, hour = m.DayHour(480)
	chk.Equal(2, day)
	chk.Zero(hour)

	day, hour = m.DayHour(480*3 + 120)
	chk.Equal(4, day)
	chk.InDelta(2.0, hour, 1e-9)
}

func TestResultKPI(t *testing.T) {
	chk := require.New(t)
	cfg := DefaultConfig()
	result := &SimResult{
		Config:                cfg,
		SimDuration:           1000,
		EnginesCompleted:      2,
		TargetAchievementRate: 2.0 / 3.0,
		AvgCycleTime:          400,
		WorkerStats: []ResourceUtilization{
			{ResourceID: "Worker_01", ResourceType: ResourceWorker, UtilizationRate: 0.8},
			{ResourceID: "Worker_02", ResourceType: ResourceWorker, UtilizationRate: 0.4},
		},
		EquipmentStats: []ResourceUtilization{
			{ResourceID: "press", ResourceType: ResourceEquipment, UtilizationRate: 0.5},
			{ResourceID: "gauge", ResourceType: ResourceEquipment, UtilizationRate: 0.1},
		},
		QualityStats:      QualityStats{FirstPassRate: 0.9},
		HumanFactorsStats: HumanFactorsStats{TotalRestTime: 25, TotalHighIntensityExposure: 4},
	}

	k := result.KPI()
	chk.Equal(2, k.EnginesCompleted)
	chk.Equal(3, k.TargetOutput)
	chk.InDelta(0.6, k.AvgWorkerUtilization, 1e-9)
	chk.InDelta(0.8, k.MaxWorkerUtilization, 1e-9)
	chk.InDelta(0.4, k.MinWorkerUtilization, 1e-9)
	chk.InDelta(0.3, k.AvgEquipmentUtilization, 1e-9)
	chk.Equal(0.9, k.FirstPassRate)
	chk.Equal(25.0, k.TotalRestTimeMinutes)
	chk.Equal(4, k.TotalHighIntensityExposures)
}

func TestRunPopulatesResultMetadata(t *testing.T) {
	chk := require.New(t)
	result, err := Run(baseConfig(), defOf(node("S1", "")))
	chk.NoError(err)

	chk.NotEmpty(result.SimID)
	chk.NotEmpty(result.CreatedAt)
	chk.NotEmpty(result.CompletedAt)
	chk.Equal(24, result.TimeMapping.WorkHoursPerDay)
	chk.Len(result.WorkerStats, 1)
	chk.Equal(ResourceWorker, result.WorkerStats[0].ResourceType)
	chk.Equal("Worker_01", result.WorkerStats[0].ResourceID)
	chk.Equal(10.0, result.WorkerStats[0].WorkTime)
	chk.Equal(1, result.WorkerStats[0].TasksCompleted)

	second, err := Run(baseConfig(), defOf(node("S1", "")))
	chk.NoError(err)
	chk.NotEqual(result.SimID, second.SimID)
}
