// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import (
	"math/rand"

	"github.com/petenewcomb/linesim/internal/kernel"
)

// taskExecutor runs a single step of a single engine as a cooperative
// process: acquire workers then equipment, work for a sampled duration,
// record the segment, release, and loop while inspection fails.
type taskExecutor struct {
	pool      *workerPool
	equipment *equipmentManager
	collector *eventCollector
	rng       *rand.Rand
}

// sampleDuration draws the actual duration from N(std, variance²), floored
// at one minute. Zero variance is exact.
func (x *taskExecutor) sampleDuration(std, variance float64) float64 {
	if variance <= 0 {
		return std
	}
	return max(1, std+x.rng.NormFloat64()*variance)
}

// run executes the step to completion. Acquisitions always proceed workers
// first, then equipment in sorted-name order; a single WAITING event covers
// any time spent queued before the segment starts.
func (x *taskExecutor) run(proc *kernel.Proc, engineID int, node *ProcessNode) {
	tools := acquireOrder(node.RequiredTools)
	reworks := 0
	for {
		waitStart := proc.Now()
		workerIDs := x.pool.acquire(proc, node.RequiredWorkers)
		x.equipment.acquire(proc, tools)
		start := proc.Now()
		if start > waitStart {
			x.collector.add(Event{
				EngineID:      engineID,
				StepID:        node.StepID,
				TaskName:      node.TaskName,
				OpType:        node.OpType,
				EventType:     EventWaiting,
				StartTime:     waitStart,
				EndTime:       start,
				WorkerIDs:     []string{},
				EquipmentUsed: []string{},
			})
		}

		duration := x.sampleDuration(node.StdDuration, node.TimeVariance)
		proc.Sleep(duration)

		eventType := EventNormal
		reworkCount := 0
		if reworks > 0 {
			eventType = EventRework
			reworkCount = reworks
		}
		x.collector.add(Event{
			EngineID:      engineID,
			StepID:        node.StepID,
			TaskName:      node.TaskName,
			OpType:        node.OpType,
			EventType:     eventType,
			StartTime:     start,
			EndTime:       proc.Now(),
			WorkerIDs:     workerIDs,
			EquipmentUsed: tools,
			ReworkCount:   reworkCount,
		})

		x.equipment.release(tools, duration)
		x.pool.release(workerIDs, duration, node.WorkLoadScore)

		if node.CanTriggerRework() && x.rng.Float64() < node.ReworkProb {
			reworks++
			continue
		}
		return
	}
}
