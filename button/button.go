// package button implements the debounce/classification FSM for a
// single momentary button.
package button

import (
	"rearguard.dev/fsm"
	"rearguard.dev/port"
)

// State values (spec.md §3).
const (
	Released State = iota
	PressedWait
	Pressed
	ReleasedWait
)

// State is one of Released, PressedWait, Pressed, ReleasedWait.
type State = int

// Button debounces a single momentary input and measures press
// duration against a monotonic millisecond clock.
//
// Port.Pressed(id) mirrors "an edge was detected and not yet
// consumed" — the EXTI ISR sets it on every raw line change, and the
// FSM clears it (via Port.SetPressed(id, false)) once it has acted on
// the edge. Because presses and releases strictly alternate, the FSM
// does not need to inspect the direction of the edge: PressedWait only
// fires after a consumed "pressed" edge, ReleasedWait only after a
// consumed edge observed while in the Pressed state.
type Button struct {
	fsm.Engine[*Button]

	port port.ButtonPort
	now  func() uint32

	id          uint32
	debounceMS  uint32
	pressTick   uint32
	releaseTick uint32
	durationMS  uint32
}

// New creates a button bound to id, using p for port access and now
// for the monotonic millisecond clock. debounceMS is the debounce
// window; spec.md §6 fixes it at port.DebounceWindow in production.
func New(id uint32, p port.ButtonPort, now func() uint32, debounceMS uint32) *Button {
	b := &Button{
		port:       p,
		now:        now,
		id:         id,
		debounceMS: debounceMS,
	}
	p.Init(id)
	b.Engine.Reset(Released, []fsm.Transition[*Button]{
		{
			From:  Released,
			Guard: func(b *Button) bool { return b.port.Pressed(b.id) },
			To:    PressedWait,
			Action: func(b *Button) {
				b.pressTick = b.now()
				b.port.SetPressed(b.id, false)
			},
		},
		{
			From:  PressedWait,
			Guard: func(b *Button) bool { return elapsed(b.now(), b.pressTick) >= b.debounceMS },
			To:    Pressed,
		},
		{
			From:  Pressed,
			Guard: func(b *Button) bool { return b.port.Pressed(b.id) },
			To:    ReleasedWait,
			Action: func(b *Button) {
				b.durationMS = elapsed(b.now(), b.pressTick)
				b.releaseTick = b.now()
				b.port.SetPressed(b.id, false)
			},
		},
		{
			From:  ReleasedWait,
			Guard: func(b *Button) bool { return elapsed(b.now(), b.releaseTick) >= b.debounceMS },
			To:    Released,
		},
	})
	return b
}

// Fire advances the button FSM by one evaluation.
func (b *Button) Fire() {
	b.Engine.Fire(b)
}

// DurationMS is the duration of the most recently classified
// press-release. It is set when the release edge is consumed
// (Pressed -> ReleasedWait), one Fire before the FSM returns to
// Released, and stays set until ResetDuration.
func (b *Button) DurationMS() uint32 {
	return b.durationMS
}

// ResetDuration clears DurationMS to zero so the same classified press
// cannot be observed twice by a caller that polls once per Fire.
func (b *Button) ResetDuration() {
	b.durationMS = 0
}

// CheckActivity reports whether the button is anywhere but Released.
func (b *Button) CheckActivity() bool {
	return b.State() != Released
}

// elapsed computes now-then with 2^32 wraparound safety.
func elapsed(now, then uint32) uint32 {
	return now - then
}
