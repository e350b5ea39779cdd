package button_test

import (
	"testing"

	"rearguard.dev/button"
	"rearguard.dev/port/sim"
)

const debounceMS = 150

func newButton(p *sim.Port) *button.Button {
	return button.New(1, p, p.NowMS, debounceMS)
}

// click drives the fake button through a full press of holdMS
// duration and lets the FSM run to completion, firing enough times to
// cross both debounce windows.
func click(t *testing.T, b *button.Button, p *sim.Port, holdMS uint32) {
	t.Helper()
	p.SetPressed(1, true)
	b.Fire() // Released -> PressedWait
	p.AdvanceMS(debounceMS)
	b.Fire() // PressedWait -> Pressed
	p.AdvanceMS(holdMS)
	p.SetPressed(1, true)
	b.Fire() // Pressed -> ReleasedWait
	p.AdvanceMS(debounceMS)
	b.Fire() // ReleasedWait -> Released
}

func TestDebounceCorrectness(t *testing.T) {
	cases := []struct {
		name   string
		holdMS uint32
		want   uint32
	}{
		{"long press", 1200, debounceMS + 1200},
		{"short press still classified", 10, debounceMS + 10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := sim.New()
			b := newButton(p)
			click(t, b, p, c.holdMS)
			if got := b.DurationMS(); got != c.want {
				t.Fatalf("DurationMS() = %d, want %d", got, c.want)
			}
			if b.State() != button.Released {
				t.Fatalf("state = %d, want Released", b.State())
			}
		})
	}
}

func TestResetDurationPreventsDoubleObservation(t *testing.T) {
	p := sim.New()
	b := newButton(p)
	click(t, b, p, 1200)
	if b.DurationMS() == 0 {
		t.Fatal("expected non-zero duration after classified press")
	}
	b.ResetDuration()
	if b.DurationMS() != 0 {
		t.Fatal("ResetDuration did not clear DurationMS")
	}
}

func TestCheckActivity(t *testing.T) {
	p := sim.New()
	b := newButton(p)
	if b.CheckActivity() {
		t.Fatal("button should be inactive before any press")
	}
	p.SetPressed(1, true)
	b.Fire()
	if !b.CheckActivity() {
		t.Fatal("button should be active mid-debounce")
	}
}

func TestFireIsPureFunctionOfState(t *testing.T) {
	// Determinism: same guard-value vector yields the same transition
	// regardless of how many times an unrelated Fire happened before.
	p1, p2 := sim.New(), sim.New()
	b1, b2 := newButton(p1), newButton(p2)
	for i := 0; i < 3; i++ {
		b1.Fire()
	}
	p1.SetPressed(1, true)
	p2.SetPressed(1, true)
	b1.Fire()
	b2.Fire()
	if b1.State() != b2.State() {
		t.Fatalf("non-deterministic states: %d vs %d", b1.State(), b2.State())
	}
}
