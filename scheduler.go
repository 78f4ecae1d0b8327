// scheduler.go - host-tick scheduler for fake86-go
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later
//
// Grounded on spec.md §4.8's tick scheduler contract and §5's single
// logical thread model: one call per host tick advances CPU state by a
// quantum of Step calls, optionally throttled to a target guest MHz,
// sleeping only when asked to back off (the teacher's frame-paced main
// loop, generalized from a video frame tick to an instruction quantum).
package main

import "time"

const defaultQuantum = 10000

// Scheduler drives a Machine's single emulation thread: one Tick call
// per host timer interval runs a quantum of instructions, optionally
// throttled against a target clock rate.
type Scheduler struct {
	m *Machine

	quantum int

	// targetHz, when non-zero, paces execution to approximately that
	// many guest instructions per second by batching targetHz/100
	// instructions per Tick and sleeping a fixed 1 ms after each batch, per spec
	// §4.8 ("If a target guest MHz is configured, batch mhz/100
	// instructions then sleep").
	targetHz int

	running bool
}

// NewScheduler returns a scheduler over m with the default quantum and
// no throttling.
func NewScheduler(m *Machine) *Scheduler {
	return &Scheduler{m: m, quantum: defaultQuantum, running: true}
}

// SetSpeed configures throttling to hz guest instructions per second.
// Zero disables throttling and runs the default fixed quantum per Tick.
func (s *Scheduler) SetSpeed(hz int) {
	s.targetHz = hz
}

// Stop causes the next Tick to return immediately without running any
// instructions, matching spec §5's "running=false exits after the
// current quantum" cancellation contract.
func (s *Scheduler) Stop() {
	s.running = false
}

// Tick flips the VGA's coarse retrace heartbeat and runs one quantum of
// Machine.Step calls (each of which drains at most one pending keyboard
// byte). It does not advance any timer state and does not raise IRQ0;
// no 8253 timer is attached to the scheduler.
func (s *Scheduler) Tick() {
	if !s.running {
		return
	}

	s.m.VGA.TickRetrace()

	n := s.quantum
	if s.targetHz > 0 {
		n = s.targetHz / 100
		if n <= 0 {
			n = 1
		}
	}

	for i := 0; i < n; i++ {
		s.m.Step()
		if !s.running {
			return
		}
	}

	if s.targetHz > 0 {
		// The audio backpressure collaborator named in spec §6
		// (audio_buffer_filled) is out of scope for the core per
		// spec.md §1's Non-goals; a fixed sleep approximates the
		// same pacing effect without that collaborator present.
		time.Sleep(time.Millisecond)
	}
}

// Run drives Tick in a loop at roughly 100 Hz (spec §4.8's "one call
// per host tick") until Stop is called or the Machine's running flag is
// cleared; both are checked between quanta.
func (s *Scheduler) Run() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for s.running && s.m.Running() {
		<-ticker.C
		s.Tick()
	}
}
