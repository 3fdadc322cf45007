// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import (
	"sort"

	"github.com/gammazero/deque"

	"github.com/petenewcomb/linesim/internal/kernel"
)

// equipmentType is one named equipment class: a counting semaphore when a
// capacity is configured, an always-grant counter otherwise. Usage is
// tracked either way so unlimited equipment still shows up in utilization.
type equipmentType struct {
	name        string
	capacity    int
	unlimited   bool
	inUse       int
	waiters     deque.Deque[*kernel.Proc]
	workTime    float64
	tasksServed int
}

// equipmentManager owns every equipment type referenced by the run. Unknown
// names are materialized on first use as unlimited types, so call sites have
// no special branch for them.
type equipmentManager struct {
	env   *kernel.Env
	types map[string]*equipmentType
}

func newEquipmentManager(env *kernel.Env, critical map[string]int) *equipmentManager {
	m := &equipmentManager{
		env:   env,
		types: make(map[string]*equipmentType, len(critical)),
	}
	for name, capacity := range critical {
		m.types[name] = &equipmentType{name: name, capacity: capacity}
	}
	return m
}

func (m *equipmentManager) get(name string) *equipmentType {
	t, ok := m.types[name]
	if !ok {
		t = &equipmentType{name: name, unlimited: true}
		m.types[name] = t
	}
	return t
}

// acquireOrder returns the canonical acquisition order for a tool list:
// sorted by name, duplicates kept. Acquiring in one global order prevents
// deadlock between tasks that share equipment.
func acquireOrder(names []string) []string {
	ordered := make([]string, len(names))
	copy(ordered, names)
	sort.Strings(ordered)
	return ordered
}

// acquire takes one unit of every named equipment, in canonical order,
// suspending the caller FIFO per equipment whenever a unit is unavailable.
// Duplicate names each take an independent unit.
func (m *equipmentManager) acquire(proc *kernel.Proc, names []string) {
	for _, name := range acquireOrder(names) {
		t := m.get(name)
		if t.unlimited {
			t.inUse++
			continue
		}
		if t.waiters.Len() == 0 && t.inUse < t.capacity {
			t.inUse++
			continue
		}
		t.waiters.PushBack(proc)
		proc.Park()
		// The releasing process incremented inUse on our behalf before
		// waking us.
	}
}

// release returns one unit per name and credits duration minutes of work to
// each acquisition. Freed units go to the earliest waiters.
func (m *equipmentManager) release(names []string, duration float64) {
	for _, name := range names {
		t := m.get(name)
		t.inUse--
		t.workTime += duration
		t.tasksServed++
		if !t.unlimited && t.waiters.Len() > 0 && t.inUse < t.capacity {
			t.inUse++
			m.env.Ready(t.waiters.PopFront())
		}
	}
}

// stats returns per-equipment utilization rows sorted by name. Utilization
// divides accrued work time by the run's duration; for capacity above one
// the rate can exceed 1 by design of the reporting schema.
func (m *equipmentManager) stats(simDuration float64) []ResourceUtilization {
	names := make([]string, 0, len(m.types))
	for name := range m.types {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ResourceUtilization, 0, len(names))
	for _, name := range names {
		t := m.types[name]
		totalTime := simDuration
		capacity := t.capacity
		if !t.unlimited {
			totalTime = simDuration * float64(t.capacity)
		} else {
			capacity = 0
		}
		var rate float64
		if simDuration > 0 {
			rate = t.workTime / simDuration
		}
		out = append(out, ResourceUtilization{
			ResourceID:      t.name,
			ResourceType:    ResourceEquipment,
			Capacity:        capacity,
			TotalTime:       totalTime,
			WorkTime:        t.workTime,
			IdleTime:        max(0, totalTime-t.workTime),
			UtilizationRate: rate,
			TasksCompleted:  t.tasksServed,
		})
	}
	return out
}
