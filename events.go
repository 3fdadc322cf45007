// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import "sort"

// EventType labels a timeline segment.
type EventType string

const (
	// EventNormal is a completed execution of a step.
	EventNormal EventType = "NORMAL"
	// EventRework is a repeated execution of an inspection step that failed.
	EventRework EventType = "REWORK"
	// EventWaiting is the span a task spent queued for workers or equipment.
	EventWaiting EventType = "WAITING"
	// EventRest is a worker rest break. Rest events carry no step or task
	// name and an engine id of zero.
	EventRest EventType = "REST"
)

// Event is one closed timeline segment, in the form a Gantt chart consumes.
// Times are minutes from the start of the run. Events are recorded only when
// the segment closes; work in flight when the deadline hits leaves no event.
type Event struct {
	EngineID      int       `json:"engine_id" yaml:"engine_id"`
	StepID        string    `json:"step_id" yaml:"step_id"`
	TaskName      string    `json:"task_name" yaml:"task_name"`
	OpType        OpType    `json:"op_type,omitempty" yaml:"op_type,omitempty"`
	EventType     EventType `json:"event_type" yaml:"event_type"`
	StartTime     float64   `json:"start_time" yaml:"start_time"`
	EndTime       float64   `json:"end_time" yaml:"end_time"`
	WorkerIDs     []string  `json:"worker_ids" yaml:"worker_ids"`
	EquipmentUsed []string  `json:"equipment_used" yaml:"equipment_used"`
	ReworkCount   int       `json:"rework_count" yaml:"rework_count"`
}

// Duration returns the event's length in minutes.
func (e *Event) Duration() float64 {
	return e.EndTime - e.StartTime
}

// eventCollector appends closed events and derives aggregate statistics at
// the end of a run. It is append-only during the run; nothing reads it until
// the kernel stops.
type eventCollector struct {
	events []Event
}

func (c *eventCollector) add(e Event) {
	c.events = append(c.events, e)
}

// sorted returns the events ordered by start time, ties broken by engine id.
// sort.SliceStable keeps append order within equal (start, engine) pairs.
func (c *eventCollector) sorted() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].EngineID < out[j].EngineID
	})
	return out
}

// qualityStats derives the inspection counters. An inspection is each NORMAL
// execution of a measurement step plus each rework. The first-pass rate is
// the fraction of measurement steps executed with zero reworks, averaged
// across engines that executed at least one measurement step; with no
// inspections at all it is 1.
func (c *eventCollector) qualityStats() QualityStats {
	stats := QualityStats{FirstPassRate: 1}

	type stepKey struct {
		engine int
		step   string
	}
	mSteps := make(map[stepKey]bool)  // executed measurement steps
	reworked := make(map[stepKey]bool)
	engines := make(map[int]bool)

	for i := range c.events {
		e := &c.events[i]
		switch e.EventType {
		case EventNormal:
			if e.OpType == OpMeasurement {
				stats.TotalInspections++
				mSteps[stepKey{e.EngineID, e.StepID}] = true
				engines[e.EngineID] = true
			}
		case EventRework:
			stats.TotalInspections++
			stats.TotalReworks++
			stats.ReworkTimeTotal += e.Duration()
			mSteps[stepKey{e.EngineID, e.StepID}] = true
			reworked[stepKey{e.EngineID, e.StepID}] = true
			engines[e.EngineID] = true
		}
	}

	if len(engines) > 0 {
		ids := make([]int, 0, len(engines))
		for engine := range engines {
			ids = append(ids, engine)
		}
		sort.Ints(ids)
		var sum float64
		for _, engine := range ids {
			var executed, clean int
			for key := range mSteps {
				if key.engine != engine {
					continue
				}
				executed++
				if !reworked[key] {
					clean++
				}
			}
			sum += float64(clean) / float64(executed)
		}
		stats.FirstPassRate = sum / float64(len(ids))
	}
	return stats
}

// Query helpers over a closed event list.

// EventsByEngine returns the events belonging to the given engine, preserving
// order.
func EventsByEngine(events []Event, engineID int) []Event {
	var out []Event
	for _, e := range events {
		if e.EngineID == engineID {
			out = append(out, e)
		}
	}
	return out
}

// EventsByType returns the events of the given type, preserving order.
func EventsByType(events []Event, t EventType) []Event {
	var out []Event
	for _, e := range events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// EventsByWorker returns the events the given worker took part in.
func EventsByWorker(events []Event, workerID string) []Event {
	var out []Event
	for _, e := range events {
		for _, id := range e.WorkerIDs {
			if id == workerID {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// EventsByEquipment returns the events that used the given equipment.
func EventsByEquipment(events []Event, name string) []Event {
	var out []Event
	for _, e := range events {
		for _, used := range e.EquipmentUsed {
			if used == name {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// EventsInRange returns the events overlapping the half-open window
// [startMinute, endMinute).
func EventsInRange(events []Event, startMinute, endMinute float64) []Event {
	var out []Event
	for _, e := range events {
		if e.EndTime > startMinute && e.StartTime < endMinute {
			out = append(out, e)
		}
	}
	return out
}

// EventTypeCounts tallies events by type.
func EventTypeCounts(events []Event) map[EventType]int {
	counts := make(map[EventType]int)
	for _, e := range events {
		counts[e.EventType]++
	}
	return counts
}

// TotalTimeByType sums event durations of the given type.
func TotalTimeByType(events []Event, t EventType) float64 {
	var total float64
	for _, e := range events {
		if e.EventType == t {
			total += e.Duration()
		}
	}
	return total
}

// EngineCompletionTimes returns, per engine, the latest end time among its
// events.
func EngineCompletionTimes(events []Event) map[int]float64 {
	out := make(map[int]float64)
	for _, e := range events {
		if e.EngineID == 0 {
			continue
		}
		if e.EndTime > out[e.EngineID] {
			out[e.EngineID] = e.EndTime
		}
	}
	return out
}
