// package sim implements an in-memory fake of the port contracts,
// used by the FSM test suites and by cmd/rearguardctl on every build
// that is not linux/arm. It plays the role the teacher's
// cmd/controller/debug.go click() harness plays for the GUI: a
// fully in-process stand-in for hardware that tests can drive one
// field at a time.
package sim

import "rearguard.dev/port"

// Port is a fake implementation of port.Clock, port.ButtonPort,
// port.UltrasoundPort and port.DisplayPort. Button, ultrasound and
// display ids live in independent spaces (each is keyed into its own
// map) so the same numeric id may safely be reused across the three
// peripheral kinds, exactly as the real board's separate GPIO/timer
// resources would allow (spec.md §5 "disjoint hardware resources").
type Port struct {
	ms uint32

	buttons     map[uint32]*buttonState
	ultrasounds map[uint32]*ultrasoundState
	displays    map[uint32]*displayState

	sleeps int
}

type buttonState struct {
	pressed bool
	value   bool
}

type ultrasoundState struct {
	enabled           bool
	newMeasurementRun bool
	triggerEnd        bool
	triggerReady      bool
	echoInitTick      uint32
	echoEndTick       uint32
	echoOverflows     uint32
	echoReceived      bool
}

type displayState struct {
	rgb port.RGB
}

// New creates an empty fake port layer with the clock at zero.
func New() *Port {
	return &Port{
		buttons:     make(map[uint32]*buttonState),
		ultrasounds: make(map[uint32]*ultrasoundState),
		displays:    make(map[uint32]*displayState),
	}
}

// --- Clock ---

func (p *Port) NowMS() uint32 { return p.ms }

// AdvanceMS moves the fake clock forward by d milliseconds.
func (p *Port) AdvanceMS(d uint32) { p.ms += d }

// Sleep records a sleep for test assertions; it never blocks.
func (p *Port) Sleep() { p.sleeps++ }

// Sleeps reports how many times Sleep was called.
func (p *Port) Sleeps() int { return p.sleeps }

// --- ButtonPort ---

// Init registers id with whichever peripheral maps don't yet know it.
// A single method serves all three port interfaces (spec.md §6 gives
// each its own init(id), but a test fake may share the entry point
// since the underlying maps are independent).
func (p *Port) Init(id uint32) {
	if _, ok := p.buttons[id]; !ok {
		p.buttons[id] = &buttonState{}
	}
	if _, ok := p.ultrasounds[id]; !ok {
		p.ultrasounds[id] = &ultrasoundState{}
	}
	if _, ok := p.displays[id]; !ok {
		p.displays[id] = &displayState{}
	}
}

func (p *Port) Pressed(id uint32) bool { return p.button(id).pressed }

func (p *Port) SetPressed(id uint32, v bool) { p.button(id).pressed = v }

func (p *Port) Value(id uint32) bool { return p.button(id).value }

// Click simulates a full press-then-release of holdMS duration,
// surfacing the edges through Pressed the way the EXTI ISR would.
func (p *Port) Click(id uint32, holdMS uint32) {
	b := p.button(id)
	b.value = true
	b.pressed = true
	p.AdvanceMS(holdMS)
	b.value = false
	b.pressed = true
}

func (p *Port) button(id uint32) *buttonState {
	b, ok := p.buttons[id]
	if !ok {
		b = &buttonState{}
		p.buttons[id] = b
	}
	return b
}

// --- UltrasoundPort ---

func (p *Port) StartMeasurement(id uint32) {
	u := p.ultrasound(id)
	u.triggerEnd = false
}

func (p *Port) StartNewMeasurementTimer(id uint32) {
	u := p.ultrasound(id)
	u.enabled = true
	u.newMeasurementRun = true
	u.triggerReady = true
}

func (p *Port) StopNewMeasurementTimer(id uint32) {
	p.ultrasound(id).newMeasurementRun = false
}

func (p *Port) StopEchoTimer(id uint32) {}

func (p *Port) StopTriggerTimer(id uint32) {}

func (p *Port) StopUltrasound(id uint32) {
	u := p.ultrasound(id)
	u.enabled = false
	u.newMeasurementRun = false
	u.triggerEnd = false
	u.triggerReady = false
	u.echoInitTick = 0
	u.echoEndTick = 0
	u.echoOverflows = 0
	u.echoReceived = false
}

func (p *Port) TriggerEnd(id uint32) bool        { return p.ultrasound(id).triggerEnd }
func (p *Port) SetTriggerEnd(id uint32, v bool)   { p.ultrasound(id).triggerEnd = v }
func (p *Port) TriggerReady(id uint32) bool       { return p.ultrasound(id).triggerReady }
func (p *Port) SetTriggerReady(id uint32, v bool) { p.ultrasound(id).triggerReady = v }

func (p *Port) EchoInitTick(id uint32) uint32       { return p.ultrasound(id).echoInitTick }
func (p *Port) SetEchoInitTick(id uint32, v uint32) { p.ultrasound(id).echoInitTick = v }
func (p *Port) EchoEndTick(id uint32) uint32        { return p.ultrasound(id).echoEndTick }
func (p *Port) SetEchoEndTick(id uint32, v uint32)  { p.ultrasound(id).echoEndTick = v }
func (p *Port) EchoOverflows(id uint32) uint32      { return p.ultrasound(id).echoOverflows }
func (p *Port) SetEchoOverflows(id uint32, v uint32) {
	p.ultrasound(id).echoOverflows = v
}
func (p *Port) EchoReceived(id uint32) bool       { return p.ultrasound(id).echoReceived }
func (p *Port) SetEchoReceived(id uint32, v bool) { p.ultrasound(id).echoReceived = v }

func (p *Port) ResetEchoTicks(id uint32) {
	u := p.ultrasound(id)
	u.echoInitTick = 0
	u.echoEndTick = 0
	u.echoOverflows = 0
	u.echoReceived = false
}

// Echo simulates a full echo capture: a rising edge at initTick and a
// falling edge at endTick, having wrapped overflows times in between.
func (p *Port) Echo(id uint32, initTick, endTick, overflows uint32) {
	u := p.ultrasound(id)
	u.echoInitTick = initTick
	u.echoEndTick = endTick
	u.echoOverflows = overflows
	u.echoReceived = true
}

// FireTriggerEnd simulates the trigger-duration timer ISR.
func (p *Port) FireTriggerEnd(id uint32) { p.ultrasound(id).triggerEnd = true }

// FireTriggerReady simulates the cycle timer ISR.
func (p *Port) FireTriggerReady(id uint32) { p.ultrasound(id).triggerReady = true }

func (p *Port) ultrasound(id uint32) *ultrasoundState {
	u, ok := p.ultrasounds[id]
	if !ok {
		u = &ultrasoundState{}
		p.ultrasounds[id] = u
	}
	return u
}

// --- DisplayPort ---

func (p *Port) SetRGB(id uint32, c port.RGB) {
	p.display(id).rgb = c
}

// RGB reports the last colour written for id, for test assertions.
func (p *Port) RGB(id uint32) port.RGB {
	return p.display(id).rgb
}

func (p *Port) display(id uint32) *displayState {
	d, ok := p.displays[id]
	if !ok {
		d = &displayState{}
		p.displays[id] = d
	}
	return d
}

var (
	_ port.Clock          = (*Port)(nil)
	_ port.ButtonPort     = (*Port)(nil)
	_ port.UltrasoundPort = (*Port)(nil)
	_ port.DisplayPort    = (*Port)(nil)
)
