// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package kernel

import "github.com/gammazero/deque"

// A Signal is a one-shot event other processes can wait on. Waiting after the
// signal has fired returns immediately. When it fires, waiters become
// runnable in the order they began waiting.
type Signal struct {
	env     *Env
	fired   bool
	waiters deque.Deque[*Proc]
}

// NewSignal creates an unfired signal bound to the environment.
func (e *Env) NewSignal() *Signal {
	return &Signal{env: e}
}

// Fired reports whether the signal has fired.
func (s *Signal) Fired() bool {
	return s.fired
}

// Wait suspends p until the signal fires.
func (s *Signal) Wait(p *Proc) {
	if s.fired {
		return
	}
	s.waiters.PushBack(p)
	p.Park()
}

// Fire marks the signal fired and schedules all waiters at the current time,
// in FIFO order. Firing twice is a no-op.
func (s *Signal) Fire() {
	if s.fired {
		return
	}
	s.fired = true
	for s.waiters.Len() > 0 {
		s.env.Ready(s.waiters.PopFront())
	}
}
