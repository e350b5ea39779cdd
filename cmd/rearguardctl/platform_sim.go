//go:build !(linux && arm)

package main

import (
	"time"

	"rearguard.dev/port/sim"
)

// simPlatform wraps the in-memory test fake so the main loop can run
// unattended off-target: without real interrupts to wake it, Sleep
// instead advances the simulated clock by a small real-time slice.
type simPlatform struct {
	*sim.Port
}

func (s simPlatform) Sleep() {
	time.Sleep(10 * time.Millisecond)
	s.Port.AdvanceMS(10)
}

func newPlatform() (platformPort, func(), error) {
	return simPlatform{sim.New()}, func() {}, nil
}
