// package port declares the design-level hardware contracts consumed
// by the FSM core (button, ultrasound, display, urbanite). The core
// never talks to a GPIO pin, a timer register or a PWM channel
// directly — it only ever calls these interfaces, so the same FSM
// code runs unchanged against the real board (port/rpi) or a fake
// (port/sim) in tests.
//
// An invalid peripheral id is a programmer error: port/rpi catches it
// at Init and panics rather than return an error, per spec.md §7(a).
// The port/sim fake registers any id passed to Init.
package port

import "time"

// Wire-level constants, compatibility-critical (spec.md §6).
const (
	// TriggerPulse is the duration the ultrasound trigger line is held
	// high to start a measurement.
	TriggerPulse = 10 * time.Microsecond
	// MeasurementPeriod is the cycle timer period: a fresh measurement
	// always starts this often, regardless of whether the previous
	// echo arrived.
	MeasurementPeriod = 100 * time.Millisecond
	// CaptureResolution is the tick period of the echo capture timer:
	// one tick is one microsecond.
	CaptureResolution = time.Microsecond
	// CaptureTickWrap is the modulus of the 16-bit echo capture timer.
	CaptureTickWrap = 1 << 16

	// DebounceWindow is the button debounce window.
	DebounceWindow = 150 * time.Millisecond
	// PausePressMin is the lower bound, inclusive, of a pause-toggle
	// press.
	PausePressMin = 250 * time.Millisecond
	// OnOffPressMin is the lower bound, inclusive, of a power on/off
	// press.
	OnOffPressMin = 1000 * time.Millisecond
	// EmergencyPressMin is the lower bound, inclusive, of an emergency
	// enter/exit press.
	EmergencyPressMin = 3000 * time.Millisecond

	// MedianWindow is the number of raw samples whose median becomes
	// one reported distance.
	MedianWindow = 5

	// DistanceNumerator and DistanceDenominator give the round-trip
	// constant: distance_cm = elapsed_us * DistanceNumerator /
	// DistanceDenominator, derived from 58.3us per cm round trip at
	// 343 m/s.
	DistanceNumerator   = 10
	DistanceDenominator = 583

	// WarningMinCM is the warning distance; below half of it, even
	// while paused, the display re-enables to alert on imminent
	// collision.
	WarningMinCM = 25
)

// RGB is an 8-bit-per-channel colour; zero on a channel switches the
// corresponding PWM channel off entirely (spec.md §6).
type RGB struct {
	R, G, B uint8
}

// Clock is the monotonic millisecond counter and the sleep primitive,
// shared by every FSM.
type Clock interface {
	// NowMS returns the free-running millisecond counter. It wraps at
	// 2^32; callers must compare with wraparound-safe subtraction.
	NowMS() uint32
	// Sleep waits for any enabled interrupt (button edge, timer IRQ)
	// and returns when one fires.
	Sleep()
}

// ButtonPort is the port layer a single momentary button is driven
// through.
type ButtonPort interface {
	Init(id uint32)
	// Pressed reports the mirrored "pressed" edge flag, as last set by
	// the edge-detection goroutine standing in for the button EXTI
	// ISR.
	Pressed(id uint32) bool
	// SetPressed clears (or, in tests, injects) the mirrored edge
	// flag. The FSM calls this with false immediately after consuming
	// a pressed/released observation so the same edge is not observed
	// twice.
	SetPressed(id uint32, v bool)
	// Value reads the raw, undebounced line level.
	Value(id uint32) bool
}

// UltrasoundPort is the port layer one ultrasound sensor (trigger +
// echo line pair, driven by a one-shot trigger timer and a capture
// timer) is driven through.
type UltrasoundPort interface {
	Init(id uint32)

	// StartMeasurement raises the trigger line and starts the
	// trigger-duration timer and the echo capture. It does not start
	// or restart the periodic cycle timer; that timer runs from
	// StartNewMeasurementTimer until it is stopped.
	StartMeasurement(id uint32)
	// StartNewMeasurementTimer enables the periodic cycle timer that
	// restarts a measurement every MeasurementPeriod.
	StartNewMeasurementTimer(id uint32)
	StopNewMeasurementTimer(id uint32)
	StopEchoTimer(id uint32)
	StopTriggerTimer(id uint32)
	// StopUltrasound halts every timer belonging to id and clears its
	// captures.
	StopUltrasound(id uint32)

	// TriggerEnd reports whether the trigger-duration timer has
	// fired.
	TriggerEnd(id uint32) bool
	SetTriggerEnd(id uint32, v bool)
	// TriggerReady reports whether the periodic cycle timer has
	// fired.
	TriggerReady(id uint32) bool
	SetTriggerReady(id uint32, v bool)

	// EchoInitTick is the capture-timer tick of the echo rising edge,
	// or 0 if no edge has been captured since ResetEchoTicks.
	EchoInitTick(id uint32) uint32
	SetEchoInitTick(id uint32, v uint32)
	// EchoEndTick is the capture-timer tick of the echo falling edge.
	// It is only meaningful once EchoReceived is true.
	EchoEndTick(id uint32) uint32
	SetEchoEndTick(id uint32, v uint32)
	// EchoOverflows is the count of capture-timer wraparounds between
	// the rising and falling edge.
	EchoOverflows(id uint32) uint32
	SetEchoOverflows(id uint32, v uint32)
	// EchoReceived is set last, after EchoEndTick, and is the single
	// flag the FSM waits on before reading a capture window.
	EchoReceived(id uint32) bool
	SetEchoReceived(id uint32, v bool)
	ResetEchoTicks(id uint32)
}

// DisplayPort is the port layer the RGB PWM indicator is driven
// through.
type DisplayPort interface {
	Init(id uint32)
	// SetRGB writes a duty cycle proportional to channel/255 on each
	// PWM channel; a zero channel switches that channel off.
	SetRGB(id uint32, c RGB)
}
