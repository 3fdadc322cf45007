// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package linesim simulates a multi-engine assembly line with discrete-event
// semantics. Given a directed acyclic workflow of tasks, a pool of
// interchangeable workers, capacity-limited equipment, and operating-shift
// parameters, it produces per-unit cycle times, resource utilization, quality
// statistics (rework), ergonomic statistics (worker fatigue and rest), and a
// full event timeline suitable for Gantt visualization.
//
// The engine is driven by a single-threaded cooperative event loop, so with a
// fixed random seed an entire run — event order and times included — is
// bit-identical across executions. Workers and equipment are granted in
// strict FIFO order, the ready set of the task graph resolves in declaration
// order, and all random draws come from one shared generator.
//
// [Run] executes a simulation; [RunWithoutRest] executes the same simulation
// with the worker rest rules disabled, for A/B comparison of ergonomic
// policies.
package linesim
