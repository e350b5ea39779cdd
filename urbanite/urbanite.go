// package urbanite implements the master orchestrator FSM: it owns
// the button, ultrasound and display leaves, multiplexes press
// duration into pause/power/emergency transitions, and decides when
// the system may sleep (spec.md §4.5).
package urbanite

import (
	"time"

	"rearguard.dev/button"
	"rearguard.dev/display"
	"rearguard.dev/fsm"
	"rearguard.dev/port"
	"rearguard.dev/ultrasound"
)

// State values (spec.md §3).
const (
	Off State = iota
	Measure
	SleepWhileOff
	SleepWhileOn
	Emergency
)

// State is one of Off, Measure, SleepWhileOff, SleepWhileOn, Emergency.
type State = int

const flashDwellMS = uint32(time.Second / time.Millisecond)

var (
	pauseMS     = uint32(port.PausePressMin / time.Millisecond)
	onOffMS     = uint32(port.OnOffPressMin / time.Millisecond)
	emergencyMS = uint32(port.EmergencyPressMin / time.Millisecond)
)

// Urbanite is the master FSM. It exclusively owns the button,
// ultrasound and display leaves for the program's lifetime; nothing
// outside this package ever touches them directly.
type Urbanite struct {
	fsm.Engine[*Urbanite]

	clock      port.Clock
	button     *button.Button
	ultrasound *ultrasound.Ultrasound
	display    *display.Display

	paused         bool
	emergency      bool
	emergencyPhase bool
	nextPhaseAtMS  uint32
}

// New builds the Urbanite master and its three owned leaves, wired to
// the given peripheral ids.
func New(clock port.Clock, btnPort port.ButtonPort, usPort port.UltrasoundPort, dispPort port.DisplayPort, btnID, usID, dispID uint32) *Urbanite {
	u := &Urbanite{
		clock:      clock,
		button:     button.New(btnID, btnPort, clock.NowMS, uint32(port.DebounceWindow/time.Millisecond)),
		ultrasound: ultrasound.New(usID, usPort),
		display:    display.New(dispID, dispPort),
	}
	u.Engine.Reset(Off, []fsm.Transition[*Urbanite]{
		{From: Off, Guard: (*Urbanite).idle, To: SleepWhileOff, Action: (*Urbanite).sleep},
		{From: SleepWhileOff, Guard: (*Urbanite).active, To: Off},
		{From: SleepWhileOff, Guard: (*Urbanite).idle, To: SleepWhileOff, Action: (*Urbanite).sleep},
		{
			From:   Off,
			Guard:  func(u *Urbanite) bool { return u.pressAtLeast(onOffMS) },
			To:     Measure,
			Action: (*Urbanite).powerOn,
		},
		{
			From:   Measure,
			Guard:  func(u *Urbanite) bool { return u.pressIn(pauseMS, onOffMS) },
			To:     Measure,
			Action: (*Urbanite).togglePause,
		},
		{
			From:   Measure,
			Guard:  func(u *Urbanite) bool { return u.ultrasound.NewSample() },
			To:     Measure,
			Action: (*Urbanite).driveDisplay,
		},
		{From: Measure, Guard: (*Urbanite).idle, To: SleepWhileOn, Action: (*Urbanite).sleep},
		{From: SleepWhileOn, Guard: func(u *Urbanite) bool { return u.ultrasound.NewSample() }, To: Measure},
		{From: SleepWhileOn, Guard: (*Urbanite).active, To: Measure},
		{From: SleepWhileOn, Guard: (*Urbanite).idle, To: SleepWhileOn, Action: (*Urbanite).sleep},
		{
			From:   Measure,
			Guard:  func(u *Urbanite) bool { return u.pressAtLeast(emergencyMS) },
			To:     Emergency,
			Action: (*Urbanite).enterEmergency,
		},
		{
			From:   Emergency,
			Guard:  func(u *Urbanite) bool { return u.pressAtLeast(emergencyMS) },
			To:     Measure,
			Action: (*Urbanite).exitEmergency,
		},
		{
			From:   Emergency,
			Guard:  func(u *Urbanite) bool { return u.emergency },
			To:     Emergency,
			Action: (*Urbanite).flash,
		},
		{
			// check_off: pressIn's upper bound excludes every press of
			// emergencyMS or more, so this row and the check_emergency_on
			// row above are disjoint as long as onOffMS <= emergencyMS.
			From:   Measure,
			Guard:  func(u *Urbanite) bool { return u.pressIn(onOffMS, emergencyMS) },
			To:     Off,
			Action: (*Urbanite).powerOff,
		},
	})
	return u
}

// Fire advances all three leaves and then the master, preserving the
// leaf-first dependency order (spec.md §2).
func (u *Urbanite) Fire() {
	u.button.Fire()
	u.ultrasound.Fire()
	u.display.Fire()
	u.Engine.Fire(u)
}

// Paused reports whether the display is currently silenced.
func (u *Urbanite) Paused() bool {
	return u.paused
}

// InEmergency reports whether the master is in the EMERGENCY state.
func (u *Urbanite) InEmergency() bool {
	return u.emergency
}

// pressAtLeast reports a freshly classified press of at least ms,
// consuming nothing — callers must reset the duration themselves once
// the matching transition commits.
func (u *Urbanite) pressAtLeast(ms uint32) bool {
	d := u.button.DurationMS()
	return d > 0 && d >= ms
}

// pressIn reports a freshly classified press in [lo, hi).
func (u *Urbanite) pressIn(lo, hi uint32) bool {
	d := u.button.DurationMS()
	return d > 0 && d >= lo && d < hi
}

// active is the Urbanite activity gate: button activity or a display
// still rendering a colour it hasn't gone idle on. Ultrasound liveness
// is deliberately never consulted (spec.md §9 open question).
func (u *Urbanite) active() bool {
	return u.button.CheckActivity() || (u.display.Enabled() && !u.display.Idle())
}

func (u *Urbanite) idle() bool {
	return !u.active()
}

func (u *Urbanite) sleep() {
	u.clock.Sleep()
}

func (u *Urbanite) powerOn() {
	u.button.ResetDuration()
	u.ultrasound.Start()
	u.display.Enable()
}

func (u *Urbanite) powerOff() {
	u.button.ResetDuration()
	u.ultrasound.Stop()
	u.display.Disable()
	u.paused = false
}

func (u *Urbanite) togglePause() {
	u.button.ResetDuration()
	u.paused = !u.paused
	if u.paused {
		u.display.Disable()
		return
	}
	u.display.Enable()
	u.display.SetDistanceCM(int32(u.ultrasound.DistanceCM()))
}

func (u *Urbanite) driveDisplay() {
	dist := int32(u.ultrasound.DistanceCM())
	u.ultrasound.ClearNewSample()
	if !u.paused {
		u.display.SetDistanceCM(dist)
		return
	}
	if dist < port.WarningMinCM/2 {
		u.display.Enable()
		u.display.SetDistanceCM(dist)
	} else {
		u.display.Disable()
	}
}

func (u *Urbanite) enterEmergency() {
	u.button.ResetDuration()
	u.ultrasound.Stop()
	u.emergency = true
	u.emergencyPhase = true
	u.nextPhaseAtMS = u.clock.NowMS() + flashDwellMS
	u.display.Enable()
	u.display.SetDistanceCM(0)
}

func (u *Urbanite) exitEmergency() {
	u.button.ResetDuration()
	u.ultrasound.Start()
	u.emergency = false
	if u.paused {
		u.display.Disable()
	}
}

// flash alternates the display between distance=0 and distance=500
// once per second, replacing the original's busy-wait delay with a
// deadline compared against the monotonic clock (spec.md §9).
func (u *Urbanite) flash() {
	now := u.clock.NowMS()
	if now-u.nextPhaseAtMS > 1<<31 {
		// deadline not yet reached (wraparound-safe: a "future"
		// deadline looks like a huge unsigned delta when subtracted).
		return
	}
	u.emergencyPhase = !u.emergencyPhase
	u.nextPhaseAtMS = now + flashDwellMS
	if u.emergencyPhase {
		u.display.SetDistanceCM(0)
	} else {
		u.display.SetDistanceCM(500)
	}
}
