package display_test

import (
	"testing"

	"rearguard.dev/display"
	"rearguard.dev/port"
	"rearguard.dev/port/sim"
)

const id = 1

func TestColourMonotonicityAtBoundaries(t *testing.T) {
	cases := []struct {
		cm   int32
		want port.RGB
	}{
		{0, display.Red},
		{25, display.Yellow},
		{50, display.Green},
		{150, display.Turquoise},
		{175, display.Blue},
		{200, display.Blue},
		{201, display.Off},
		{-1, display.Off},
	}
	for _, c := range cases {
		if got := display.Colour(c.cm); got != c.want {
			t.Errorf("Colour(%d) = %+v, want %+v", c.cm, got, c.want)
		}
	}
}

func TestColourInterpolatesWithinBand(t *testing.T) {
	// Scenario: 17cm sits within [0,25] at t=17*255/25=173, which
	// should land strictly between RED and YELLOW on the green
	// channel (the only channel that moves across this band).
	got := display.Colour(17)
	if got.R != 255 {
		t.Fatalf("R = %d, want 255 (constant across RED->YELLOW)", got.R)
	}
	if got.G == 0 || got.G == 255 {
		t.Fatalf("G = %d, want strictly between 0 and 255", got.G)
	}
	if got.B != 0 {
		t.Fatalf("B = %d, want 0", got.B)
	}
}

func TestFSMRendersOffWhenDisabled(t *testing.T) {
	p := sim.New()
	d := display.New(id, p)
	d.Fire() // WaitDisplay, !enabled -> no-op
	if d.State() != display.WaitDisplay {
		t.Fatalf("state = %d, want WaitDisplay", d.State())
	}
	if got := p.RGB(id); got != display.Off {
		t.Fatalf("RGB = %+v, want Off", got)
	}
}

func TestFSMRendersColourOnNewSample(t *testing.T) {
	p := sim.New()
	d := display.New(id, p)
	d.Enable()
	d.Fire() // WaitDisplay -> SetDisplay, render OFF
	if d.State() != display.SetDisplay {
		t.Fatalf("state = %d, want SetDisplay", d.State())
	}
	d.SetDistanceCM(17)
	d.Fire() // SetDisplay, new_colour -> SetDisplay, render
	if d.Idle() != true {
		t.Fatal("expected Idle after a render")
	}
	want := display.Colour(17)
	if got := p.RGB(id); got != want {
		t.Fatalf("RGB = %+v, want %+v", got, want)
	}
}

func TestFSMGoesIdleBetweenSamples(t *testing.T) {
	p := sim.New()
	d := display.New(id, p)
	d.Enable()
	d.Fire()
	d.SetDistanceCM(30)
	d.Fire()
	if !d.Idle() {
		t.Fatal("expected Idle after a render with no pending sample")
	}
	// Firing again with no new sample must not re-render or clear idle.
	before := p.RGB(id)
	d.Fire()
	if p.RGB(id) != before {
		t.Fatal("RGB changed without a new sample")
	}
	if !d.Idle() {
		t.Fatal("Idle should remain true absent a new sample")
	}
}

func TestFSMDisableClearsAndReturnsToWait(t *testing.T) {
	p := sim.New()
	d := display.New(id, p)
	d.Enable()
	d.Fire()
	d.SetDistanceCM(10)
	d.Fire()
	d.Disable()
	d.Fire()
	if d.State() != display.WaitDisplay {
		t.Fatalf("state = %d, want WaitDisplay", d.State())
	}
	if d.Idle() {
		t.Fatal("Idle should be cleared on disable")
	}
	if got := p.RGB(id); got != display.Off {
		t.Fatalf("RGB = %+v, want Off", got)
	}
}
