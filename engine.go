// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package linesim

import (
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/petenewcomb/linesim/internal/kernel"
)

// Engine binds a configuration and a process definition into a runnable
// simulation. An Engine is single-use per Run call but carries no mutable
// state between calls; each Run builds a fresh environment.
type Engine struct {
	config  SimConfig
	process *ProcessDefinition
	logger  *slog.Logger
}

// NewEngine creates an engine for the given configuration and process. The
// configuration's optional fields are defaulted; validation happens at Run.
func NewEngine(config SimConfig, process *ProcessDefinition) *Engine {
	return &Engine{
		config:  config.withDefaults(),
		process: process,
		logger:  slog.Default(),
	}
}

// SetLogger replaces the engine's logger. Nil restores the default.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

// Run validates the inputs and executes the simulation with the configured
// rest rules. Configuration and graph errors short-circuit to a FAILED
// result carrying the error; the error is also returned. Non-fatal
// anomalies (starvation, deadline) end in a COMPLETED result.
func (e *Engine) Run() (*SimResult, error) {
	return e.run(restPolicyFromConfig(&e.config))
}

// RunWithoutRest executes the same simulation with rest evaluation disabled:
// the time trigger is clamped practically infinite and both rest durations
// are zero. All other behavior, the random seed included, is identical. Use
// it as the baseline of an A/B comparison of the ergonomic rules.
func (e *Engine) RunWithoutRest() (*SimResult, error) {
	policy := disabledRestPolicy()
	// Keep the configured load threshold: it also decides which tasks count
	// as high-intensity exposures. With zero durations it triggers no rest.
	policy.loadThreshold = e.config.RestLoadThreshold
	return e.run(policy)
}

// Run is shorthand for NewEngine(config, process).Run().
func Run(config SimConfig, process *ProcessDefinition) (*SimResult, error) {
	return NewEngine(config, process).Run()
}

// RunWithoutRest is shorthand for NewEngine(config, process).RunWithoutRest().
func RunWithoutRest(config SimConfig, process *ProcessDefinition) (*SimResult, error) {
	return NewEngine(config, process).RunWithoutRest()
}

func (e *Engine) run(policy restPolicy) (*SimResult, error) {
	simID := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339)
	log := e.logger.With("sim_id", simID)

	if err := e.config.Validate(); err != nil {
		log.Error("configuration rejected", "error", err)
		return failedResult(simID, &e.config, createdAt, err), err
	}
	for _, warning := range e.config.Warnings() {
		log.Warn("configuration advisory", "warning", warning)
	}
	graph := NewGraph(e.process)
	if err := graph.Validate(); err != nil {
		log.Error("process graph rejected", "error", err)
		return failedResult(simID, &e.config, createdAt, err), err
	}

	var seed int64
	if e.config.RandomSeed != nil {
		seed = *e.config.RandomSeed
	} else {
		seed = time.Now().UnixNano()
	}

	r := &run{
		config:    &e.config,
		graph:     graph,
		logger:    log,
		env:       kernel.New(),
		collector: &eventCollector{},
		rng:       rand.New(rand.NewSource(seed)),

		engineStartTimes: make(map[int]float64),
		engineEndTimes:   make(map[int]float64),
	}
	r.pool = newWorkerPool(r.env, e.config.NumWorkers, policy, r.collector)
	r.equipment = newEquipmentManager(r.env, e.config.CriticalEquipment)
	r.executor = &taskExecutor{
		pool:      r.pool,
		equipment: r.equipment,
		collector: r.collector,
		rng:       r.rng,
	}

	limit := e.config.simTimeMinutes()
	log.Info("simulation starting",
		"process", e.process.Name,
		"nodes", graph.Count(),
		"workers", e.config.NumWorkers,
		"target", e.config.TargetOutput,
		"pipeline", e.config.PipelineMode,
		"deadline_minutes", limit)

	if e.config.PipelineMode {
		r.env.Spawn(r.pipelineController)
	} else {
		r.engineStartTimes[1] = 0
		r.env.Spawn(func(proc *kernel.Proc) {
			r.engineProcess(proc, 1)
		})
	}
	simDuration := r.env.RunUntil(limit)

	result := r.collectResults(simID, createdAt, simDuration)
	log.Info("simulation finished",
		"sim_duration", simDuration,
		"engines_completed", r.enginesCompleted,
		"events", len(result.Events))
	return result, nil
}

// run is the per-execution state shared by the controller, engine processes,
// and executors.
type run struct {
	config    *SimConfig
	graph     *Graph
	logger    *slog.Logger
	env       *kernel.Env
	pool      *workerPool
	equipment *equipmentManager
	executor  *taskExecutor
	collector *eventCollector
	rng       *rand.Rand

	enginesCompleted int
	engineStartTimes map[int]float64
	engineEndTimes   map[int]float64
}

// pipelineController admits successive engines while the first step's worker
// demand can be met, up to target_output plus the configured margin. After
// each admission it waits half the first step's standard duration; when
// workers are short it retries every 10 minutes.
func (r *run) pipelineController(proc *kernel.Proc) {
	starts := r.graph.StartNodes()
	if len(starts) == 0 {
		return
	}
	first := starts[0]
	limit := r.config.simTimeMinutes()
	maxEngines := r.config.TargetOutput + r.config.PipelineMargin

	engineID := 0
	for engineID < maxEngines && proc.Now() < limit {
		if r.pool.available() >= first.RequiredWorkers {
			engineID++
			id := engineID
			r.engineStartTimes[id] = proc.Now()
			r.logger.Debug("engine admitted", "engine_id", id, "t", proc.Now())
			proc.Env().Spawn(func(p *kernel.Proc) {
				r.engineProcess(p, id)
			})
			proc.Sleep(0.5 * first.StdDuration)
		} else {
			proc.Sleep(10)
		}
	}
}

// engineProcess drives one product unit through the graph. It spawns an
// executor for every ready step and blocks on a completion signal; each
// completion re-resolves the ready set, so successors start at the exact
// instant their predecessors finish.
func (r *run) engineProcess(proc *kernel.Proc, engineID int) {
	completed := make(map[string]bool)
	running := make(map[string]bool)
	total := r.graph.Count()

	// progress is replaced each round; executors fire whichever signal is
	// current when they finish, waking the engine to re-resolve readiness.
	var progress *kernel.Signal
	for len(completed) < total {
		progress = proc.Env().NewSignal()
		for _, node := range r.graph.Ready(completed) {
			if running[node.StepID] {
				continue
			}
			running[node.StepID] = true
			n := node
			proc.Env().Spawn(func(p *kernel.Proc) {
				r.executor.run(p, engineID, n)
				delete(running, n.StepID)
				completed[n.StepID] = true
				progress.Fire()
			})
		}
		progress.Wait(proc)
	}

	r.engineEndTimes[engineID] = proc.Now()
	r.enginesCompleted++
	r.logger.Debug("engine completed", "engine_id", engineID, "t", proc.Now())
}

func (r *run) collectResults(simID, createdAt string, simDuration float64) *SimResult {
	cfg := r.config

	var cycleSum float64
	var cycleCount int
	for _, engineID := range sortedEngineIDs(r.engineEndTimes) {
		if start, ok := r.engineStartTimes[engineID]; ok {
			cycleSum += r.engineEndTimes[engineID] - start
			cycleCount++
		}
	}
	var avgCycleTime float64
	if cycleCount > 0 {
		avgCycleTime = cycleSum / float64(cycleCount)
	}

	workerStats := make([]ResourceUtilization, 0, len(r.pool.workers))
	var totalRestTime float64
	var totalHighIntensity int
	var fatigueSum, fatigueMax float64
	for _, w := range r.pool.workers {
		var rate float64
		if simDuration > 0 {
			rate = w.totalWorkTime / simDuration
		}
		workerStats = append(workerStats, ResourceUtilization{
			ResourceID:         w.id,
			ResourceType:       ResourceWorker,
			TotalTime:          simDuration,
			WorkTime:           w.totalWorkTime,
			RestTime:           w.totalRestTime,
			IdleTime:           max(0, simDuration-w.totalWorkTime-w.totalRestTime),
			UtilizationRate:    rate,
			TasksCompleted:     w.tasksCompleted,
			FatigueLevel:       w.fatigueLevel,
			HighIntensityCount: w.highIntensityCount,
			FatigueHistory:     w.fatigueHistory,
		})
		totalRestTime += w.totalRestTime
		totalHighIntensity += w.highIntensityCount
		fatigueSum += w.fatigueLevel
		if w.fatigueLevel > fatigueMax {
			fatigueMax = w.fatigueLevel
		}
	}
	var avgFatigue float64
	if len(r.pool.workers) > 0 {
		avgFatigue = fatigueSum / float64(len(r.pool.workers))
	}

	events := r.collector.sorted()
	restEvents := 0
	for i := range events {
		if events[i].EventType == EventRest {
			restEvents++
		}
	}

	return &SimResult{
		SimID:                 simID,
		Status:                StatusCompleted,
		Config:                *cfg,
		SimDuration:           simDuration,
		EnginesCompleted:      r.enginesCompleted,
		TargetAchievementRate: float64(r.enginesCompleted) / float64(cfg.TargetOutput),
		AvgCycleTime:          avgCycleTime,
		WorkerStats:           workerStats,
		EquipmentStats:        r.equipment.stats(simDuration),
		QualityStats:          r.collector.qualityStats(),
		HumanFactorsStats: HumanFactorsStats{
			TotalRestTime:              totalRestTime,
			AvgFatigueLevel:            avgFatigue,
			MaxFatigueLevel:            fatigueMax,
			TotalHighIntensityExposure: totalHighIntensity,
			RestEventsCount:            restEvents,
		},
		Events:      events,
		TimeMapping: newTimeMapping(cfg),
		CreatedAt:   createdAt,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func failedResult(simID string, cfg *SimConfig, createdAt string, err error) *SimResult {
	return &SimResult{
		SimID:        simID,
		Status:       StatusFailed,
		Config:       *cfg,
		QualityStats: QualityStats{FirstPassRate: 1},
		Events:       []Event{},
		TimeMapping:  newTimeMapping(cfg),
		CreatedAt:    createdAt,
		CompletedAt:  time.Now().UTC().Format(time.RFC3339),
		Error:        err.Error(),
	}
}

// sortedEngineIDs is a small helper for deterministic iteration over the
// engine bookkeeping maps.
func sortedEngineIDs(m map[int]float64) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
