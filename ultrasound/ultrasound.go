// package ultrasound implements the trigger/echo measurement-cycle FSM,
// the timer-overflow-aware distance computation and the median filter
// described in spec.md §4.3.
package ultrasound

import (
	"sort"

	"rearguard.dev/fsm"
	"rearguard.dev/port"
)

// State values (spec.md §3).
const (
	WaitStart State = iota
	TriggerStart
	WaitEchoStart
	WaitEchoEnd
	SetDistance
)

// State is one of WaitStart, TriggerStart, WaitEchoStart, WaitEchoEnd,
// SetDistance.
type State = int

// Ultrasound drives one measurement cycle per trigger pulse and
// reports a median-filtered distance in centimetres.
type Ultrasound struct {
	fsm.Engine[*Ultrasound]

	port port.UltrasoundPort
	id   uint32

	enabled bool

	ring       [port.MedianWindow]uint32
	idx        int
	distanceCM uint32
	newSample  bool
}

// New creates an ultrasound sensor bound to id.
func New(id uint32, p port.UltrasoundPort) *Ultrasound {
	u := &Ultrasound{port: p, id: id}
	p.Init(id)
	u.Engine.Reset(WaitStart, []fsm.Transition[*Ultrasound]{
		{
			From:   WaitStart,
			Guard:  func(u *Ultrasound) bool { return u.enabled && u.port.TriggerReady(u.id) },
			To:     TriggerStart,
			Action: (*Ultrasound).startCycle,
		},

		{From: TriggerStart, Guard: func(u *Ultrasound) bool { return !u.enabled }, To: WaitStart, Action: (*Ultrasound).haltCycle},
		{
			From:   TriggerStart,
			Guard:  func(u *Ultrasound) bool { return u.port.TriggerEnd(u.id) },
			To:     WaitEchoStart,
			Action: (*Ultrasound).dropTrigger,
		},
		{
			// Cycle timer timeout: the trigger pulse never completed.
			From:   TriggerStart,
			Guard:  func(u *Ultrasound) bool { return u.port.TriggerReady(u.id) },
			To:     TriggerStart,
			Action: (*Ultrasound).startCycle,
		},

		{From: WaitEchoStart, Guard: func(u *Ultrasound) bool { return !u.enabled }, To: WaitStart, Action: (*Ultrasound).haltCycle},
		{
			From:  WaitEchoStart,
			Guard: func(u *Ultrasound) bool { return u.port.EchoInitTick(u.id) > 0 },
			To:    WaitEchoEnd,
		},
		{
			// Cycle timer timeout: no echo rising edge ever arrived
			// (spec.md §7(c), a lost edge). The ring index does not
			// advance because computeDistance is never invoked.
			From:   WaitEchoStart,
			Guard:  func(u *Ultrasound) bool { return u.port.TriggerReady(u.id) },
			To:     TriggerStart,
			Action: (*Ultrasound).startCycle,
		},

		{From: WaitEchoEnd, Guard: func(u *Ultrasound) bool { return !u.enabled }, To: WaitStart, Action: (*Ultrasound).haltCycle},
		{
			From:   WaitEchoEnd,
			Guard:  func(u *Ultrasound) bool { return u.port.EchoReceived(u.id) },
			To:     SetDistance,
			Action: (*Ultrasound).computeDistance,
		},
		{
			// Cycle timer timeout: the echo never completed
			// (spec.md §7(b), hardware non-response).
			From:   WaitEchoEnd,
			Guard:  func(u *Ultrasound) bool { return u.port.TriggerReady(u.id) },
			To:     TriggerStart,
			Action: (*Ultrasound).startCycle,
		},

		{From: SetDistance, Guard: func(u *Ultrasound) bool { return !u.enabled }, To: WaitStart, Action: (*Ultrasound).haltCycle},
		{
			From:   SetDistance,
			Guard:  func(u *Ultrasound) bool { return u.port.TriggerReady(u.id) },
			To:     TriggerStart,
			Action: (*Ultrasound).startCycle,
		},
	})
	return u
}

// Fire advances the ultrasound FSM by one evaluation.
func (u *Ultrasound) Fire() {
	u.Engine.Fire(u)
}

// Start clears the ring, enables the sensor and arms the cycle timer.
func (u *Ultrasound) Start() {
	u.ring = [port.MedianWindow]uint32{}
	u.idx = 0
	u.enabled = true
	u.port.SetTriggerReady(u.id, true)
	u.port.StartNewMeasurementTimer(u.id)
}

// Stop disables the sensor and commands the port to halt every timer
// and clear captures.
func (u *Ultrasound) Stop() {
	u.enabled = false
	u.port.StopUltrasound(u.id)
}

// DistanceCM is the last median-filtered distance reading.
func (u *Ultrasound) DistanceCM() uint32 {
	return u.distanceCM
}

// NewSample reports whether a fresh median window has completed since
// the last ClearNewSample.
func (u *Ultrasound) NewSample() bool {
	return u.newSample
}

// ClearNewSample consumes the one-shot new-sample edge.
func (u *Ultrasound) ClearNewSample() {
	u.newSample = false
}

func (u *Ultrasound) startCycle() {
	u.port.SetTriggerReady(u.id, false)
	u.port.SetTriggerEnd(u.id, false)
	u.port.ResetEchoTicks(u.id)
	u.port.StartMeasurement(u.id)
}

func (u *Ultrasound) dropTrigger() {
	u.port.SetTriggerEnd(u.id, false)
	u.port.StopTriggerTimer(u.id)
}

func (u *Ultrasound) haltCycle() {
	u.port.StopEchoTimer(u.id)
	u.port.StopTriggerTimer(u.id)
}

func (u *Ultrasound) computeDistance() {
	initTick := u.port.EchoInitTick(u.id)
	endTick := u.port.EchoEndTick(u.id)
	overflows := u.port.EchoOverflows(u.id)
	raw := Distance(initTick, endTick, overflows)

	u.ring[u.idx] = raw
	u.idx++
	if u.idx == len(u.ring) {
		u.distanceCM = median(u.ring)
		u.newSample = true
		u.idx = 0
	}

	u.port.StopEchoTimer(u.id)
	u.port.ResetEchoTicks(u.id)
}

// Distance computes the round-trip distance in centimetres from a
// capture timer's rising-edge tick, falling-edge tick and overflow
// count (spec.md §4.3). The capture timer ticks at 1MHz (1 tick =
// 1us) and wraps at 2^16; elapsed time is reconstructed regardless of
// how many times the timer wrapped between the two edges.
//
// The round-trip constant, 58.3us per centimetre, comes from the
// speed of sound (343 m/s): sound travels there and back, so
// distance_cm = elapsed_us / (2 * 29.15) = elapsed_us * 10 / 583.
func Distance(initTick, endTick, overflows uint32) uint32 {
	var elapsed uint32
	if endTick >= initTick {
		elapsed = endTick - initTick
	} else {
		elapsed = (port.CaptureTickWrap - initTick) + endTick
		if overflows > 0 {
			// One overflow belongs to the wrap already accounted for
			// above.
			overflows--
		}
	}
	elapsed += overflows * port.CaptureTickWrap
	return elapsed * port.DistanceNumerator / port.DistanceDenominator
}

// median returns the median of a full ring, averaging the two central
// values for an even-length window.
func median(ring [port.MedianWindow]uint32) uint32 {
	sorted := ring // array copy
	s := sorted[:]
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
