// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import (
	"fmt"
	"sort"

	"github.com/gammazero/deque"

	"github.com/petenewcomb/linesim/internal/kernel"
)

// FatiguePoint is one sample of a worker's fatigue level over time.
type FatiguePoint struct {
	Time  float64 `json:"time" yaml:"time"`
	Level float64 `json:"level" yaml:"level"`
}

// worker state is mutated only by the pool, between yield points.
type worker struct {
	id      string
	busy    bool
	resting bool

	fatigueLevel          float64
	continuousWorkMinutes float64
	highIntensityCount    int
	totalWorkTime         float64
	totalRestTime         float64
	tasksCompleted        int
	fatigueHistory        []FatiguePoint
}

// restPolicy decides how long a worker rests after releasing a task. The
// comparison engine swaps in disabledRestPolicy; everything else is shared.
type restPolicy struct {
	timeThreshold float64
	timeDuration  float64
	loadThreshold int
	loadDuration  float64
}

func restPolicyFromConfig(c *SimConfig) restPolicy {
	return restPolicy{
		timeThreshold: c.RestTimeThreshold,
		timeDuration:  c.RestDurationTime,
		loadThreshold: c.RestLoadThreshold,
		loadDuration:  c.RestDurationLoad,
	}
}

// disabledRestPolicy clamps the time trigger practically infinite and zeroes
// both durations, so no rest ever happens.
func disabledRestPolicy() restPolicy {
	return restPolicy{timeThreshold: 1e12, loadThreshold: 10}
}

// duration returns how long the worker should rest after a task of the given
// load, zero for no rest. When both rules fire the longer duration wins and
// counts as a single rest.
func (rp restPolicy) duration(w *worker, workLoad int) float64 {
	var d float64
	if w.continuousWorkMinutes >= rp.timeThreshold {
		d = rp.timeDuration
	}
	if workLoad >= rp.loadThreshold && rp.loadDuration > d {
		d = rp.loadDuration
	}
	return d
}

// workerWaiter is one queued multi-worker reservation. Grants are assigned
// before the waiter resumes, so a woken waiter just reads granted.
type workerWaiter struct {
	n       int
	proc    *kernel.Proc
	granted []string
}

// workerPool grants exclusive multi-worker reservations in strict FIFO order
// and applies the rest rules on release.
type workerPool struct {
	env       *kernel.Env
	policy    restPolicy
	loadScale float64 // fatigue accumulated per unit load per minute
	workers   []*worker
	byID      map[string]*worker
	waiters   deque.Deque[*workerWaiter]
	collector *eventCollector
}

func newWorkerPool(env *kernel.Env, count int, policy restPolicy, collector *eventCollector) *workerPool {
	p := &workerPool{
		env:       env,
		policy:    policy,
		loadScale: 0.1,
		byID:      make(map[string]*worker, count),
		collector: collector,
	}
	for i := 0; i < count; i++ {
		w := &worker{id: fmt.Sprintf("Worker_%02d", i+1)}
		p.workers = append(p.workers, w)
		p.byID[w.id] = w
	}
	return p
}

// available returns the number of workers neither assigned nor resting.
func (p *workerPool) available() int {
	n := 0
	for _, w := range p.workers {
		if !w.busy && !w.resting {
			n++
		}
	}
	return n
}

// acquire reserves n workers for the calling process, suspending it FIFO
// behind earlier requests until the reservation is satisfiable. It returns
// the granted worker ids.
func (p *workerPool) acquire(proc *kernel.Proc, n int) []string {
	if p.waiters.Len() == 0 && p.available() >= n {
		return p.grab(n)
	}
	w := &workerWaiter{n: n, proc: proc}
	p.waiters.PushBack(w)
	proc.Park()
	return w.granted
}

// grab marks the n least-worked available workers busy and returns their ids.
// Least total work time first, ties by id, keeps assignments balanced and
// deterministic.
func (p *workerPool) grab(n int) []string {
	var free []*worker
	for _, w := range p.workers {
		if !w.busy && !w.resting {
			free = append(free, w)
		}
	}
	sort.SliceStable(free, func(i, j int) bool {
		if free[i].totalWorkTime != free[j].totalWorkTime {
			return free[i].totalWorkTime < free[j].totalWorkTime
		}
		return free[i].id < free[j].id
	})
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		free[i].busy = true
		ids[i] = free[i].id
	}
	return ids
}

// grantWaiters satisfies queued reservations from the front while possible.
// The head of the queue blocks later requests even if those could be
// satisfied: grants are strict FIFO.
func (p *workerPool) grantWaiters() {
	for p.waiters.Len() > 0 {
		head := p.waiters.Front()
		if p.available() < head.n {
			return
		}
		p.waiters.PopFront()
		head.granted = p.grab(head.n)
		p.env.Ready(head.proc)
	}
}

// release frees the workers, credits the finished segment to their counters
// and fatigue, and applies the rest rules. Workers owed a rest become
// unavailable immediately; their rest processes run the break and log one
// REST event each.
func (p *workerPool) release(ids []string, workDuration float64, workLoad int) {
	now := p.env.Now()
	for _, id := range ids {
		w := p.byID[id]
		w.busy = false
		w.totalWorkTime += workDuration
		w.continuousWorkMinutes += workDuration
		w.tasksCompleted++
		if workLoad >= p.policy.loadThreshold {
			w.highIntensityCount++
		}
		w.fatigueLevel = clamp(w.fatigueLevel+p.loadScale*float64(workLoad)*workDuration, 0, 100)
		w.fatigueHistory = append(w.fatigueHistory, FatiguePoint{Time: now, Level: w.fatigueLevel})

		if d := p.policy.duration(w, workLoad); d > 0 {
			w.resting = true
			rw := w
			p.env.Spawn(func(proc *kernel.Proc) {
				p.rest(proc, rw, d)
			})
		}
	}
	p.grantWaiters()
}

// rest runs one worker's break.
func (p *workerPool) rest(proc *kernel.Proc, w *worker, duration float64) {
	start := proc.Now()
	proc.Sleep(duration)
	w.resting = false
	w.totalRestTime += duration
	w.continuousWorkMinutes = 0
	w.fatigueLevel = max(0, w.fatigueLevel-2*duration)
	w.fatigueHistory = append(w.fatigueHistory, FatiguePoint{Time: proc.Now(), Level: w.fatigueLevel})
	p.collector.add(Event{
		EventType:     EventRest,
		StartTime:     start,
		EndTime:       proc.Now(),
		WorkerIDs:     []string{w.id},
		EquipmentUsed: []string{},
	})
	p.grantWaiters()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
