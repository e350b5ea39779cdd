package rpi

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"rearguard.dev/port"
)

type ultrasoundState struct {
	trigger gpio.PinOut
	echo    gpio.PinIn

	mu            sync.Mutex
	triggerReady  bool
	triggerEnd    bool
	echoInitTick  uint32
	echoEndTick   uint32
	echoOverflows uint32
	echoReceived  bool

	cycleStop chan struct{}
}

// UltrasoundPins is the trigger/echo GPIO pair a single sensor is
// wired to.
type UltrasoundPins struct {
	Trigger gpio.PinOut
	Echo    gpio.PinIn
}

// BindUltrasound wires Pins.Trigger as an output held low and
// Pins.Echo as a rising/falling-edge input.
func (p *Port) BindUltrasound(id uint32, pins UltrasoundPins) error {
	if err := pins.Trigger.Out(gpio.Low); err != nil {
		return fmt.Errorf("rpi: bind ultrasound %d: %w", id, err)
	}
	if err := pins.Echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return fmt.Errorf("rpi: bind ultrasound %d: %w", id, err)
	}
	p.mu.Lock()
	p.ultrasounds[id] = &ultrasoundState{trigger: pins.Trigger, echo: pins.Echo}
	p.mu.Unlock()
	return nil
}

func (p *Port) ultrasound(id uint32) *ultrasoundState {
	p.mu.Lock()
	u := p.ultrasounds[id]
	p.mu.Unlock()
	return u
}

// StartMeasurement raises the trigger line for TriggerPulse, then
// drops it and arms a single echo capture. Neither the trigger pulse
// nor the echo wait is explicitly cancellable — spec.md §5 states
// there is no explicit cancellation in this design, only the
// always-firing cycle timer forcing a fresh measurement.
func (p *Port) StartMeasurement(id uint32) {
	u := p.ultrasound(id)
	u.trigger.Out(gpio.High)
	go func() {
		time.Sleep(port.TriggerPulse)
		u.trigger.Out(gpio.Low)
		u.mu.Lock()
		u.triggerEnd = true
		u.mu.Unlock()
		p.notify()
	}()
	go p.captureEcho(u)
}

// captureEcho waits for the echo's rising then falling edge and
// reconstructs a synthetic (init_tick, end_tick, overflows) triple
// consistent with ultrasound.Distance's wraparound arithmetic.
// periph.io exposes no free-running hardware capture timer on these
// pins, so elapsed time is measured directly between edge timestamps;
// init_tick is pinned to 1 (the FSM only tests it for non-zero) and
// end_tick/overflows are derived so Distance reconstructs the same
// elapsed microseconds regardless of which branch it takes.
func (p *Port) captureEcho(u *ultrasoundState) {
	if !u.echo.WaitForEdge(port.MeasurementPeriod) || u.echo.Read() != gpio.High {
		return
	}
	rise := time.Now()
	u.mu.Lock()
	u.echoInitTick = 1
	u.mu.Unlock()
	p.notify()

	if !u.echo.WaitForEdge(port.MeasurementPeriod) || u.echo.Read() != gpio.Low {
		return
	}
	rawEnd := time.Since(rise).Microseconds() + 1
	u.mu.Lock()
	u.echoEndTick = uint32(rawEnd % port.CaptureTickWrap)
	u.echoOverflows = uint32(rawEnd / port.CaptureTickWrap)
	u.echoReceived = true
	u.mu.Unlock()
	p.notify()
}

// StartNewMeasurementTimer starts the periodic cycle timer that
// forces a fresh measurement every MeasurementPeriod (spec.md §5's
// implicit timeout), regardless of whether the previous echo arrived.
func (p *Port) StartNewMeasurementTimer(id uint32) {
	u := p.ultrasound(id)
	u.mu.Lock()
	if u.cycleStop != nil {
		u.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	u.cycleStop = stop
	u.mu.Unlock()

	go func() {
		t := time.NewTicker(port.MeasurementPeriod)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				u.mu.Lock()
				u.triggerReady = true
				u.mu.Unlock()
				p.notify()
			}
		}
	}()
}

func (p *Port) StopNewMeasurementTimer(id uint32) {
	u := p.ultrasound(id)
	u.mu.Lock()
	stop := u.cycleStop
	u.cycleStop = nil
	u.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// StopEchoTimer and StopTriggerTimer are no-ops: both the trigger
// pulse and the echo capture are bounded, uncancellable goroutines
// that self-terminate within one MeasurementPeriod (spec.md §5: "no
// explicit cancellation").
func (p *Port) StopEchoTimer(id uint32)    {}
func (p *Port) StopTriggerTimer(id uint32) {}

func (p *Port) StopUltrasound(id uint32) {
	p.StopNewMeasurementTimer(id)
	u := p.ultrasound(id)
	u.trigger.Out(gpio.Low)
	u.mu.Lock()
	u.triggerReady = false
	u.triggerEnd = false
	u.echoInitTick = 0
	u.echoEndTick = 0
	u.echoOverflows = 0
	u.echoReceived = false
	u.mu.Unlock()
}

func (p *Port) TriggerEnd(id uint32) bool {
	u := p.ultrasound(id)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.triggerEnd
}

func (p *Port) SetTriggerEnd(id uint32, v bool) {
	u := p.ultrasound(id)
	u.mu.Lock()
	u.triggerEnd = v
	u.mu.Unlock()
}

func (p *Port) TriggerReady(id uint32) bool {
	u := p.ultrasound(id)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.triggerReady
}

func (p *Port) SetTriggerReady(id uint32, v bool) {
	u := p.ultrasound(id)
	u.mu.Lock()
	u.triggerReady = v
	u.mu.Unlock()
}

func (p *Port) EchoInitTick(id uint32) uint32 {
	u := p.ultrasound(id)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.echoInitTick
}

func (p *Port) SetEchoInitTick(id uint32, v uint32) {
	u := p.ultrasound(id)
	u.mu.Lock()
	u.echoInitTick = v
	u.mu.Unlock()
}

func (p *Port) EchoEndTick(id uint32) uint32 {
	u := p.ultrasound(id)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.echoEndTick
}

func (p *Port) SetEchoEndTick(id uint32, v uint32) {
	u := p.ultrasound(id)
	u.mu.Lock()
	u.echoEndTick = v
	u.mu.Unlock()
}

func (p *Port) EchoOverflows(id uint32) uint32 {
	u := p.ultrasound(id)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.echoOverflows
}

func (p *Port) SetEchoOverflows(id uint32, v uint32) {
	u := p.ultrasound(id)
	u.mu.Lock()
	u.echoOverflows = v
	u.mu.Unlock()
}

func (p *Port) EchoReceived(id uint32) bool {
	u := p.ultrasound(id)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.echoReceived
}

func (p *Port) SetEchoReceived(id uint32, v bool) {
	u := p.ultrasound(id)
	u.mu.Lock()
	u.echoReceived = v
	u.mu.Unlock()
}

func (p *Port) ResetEchoTicks(id uint32) {
	u := p.ultrasound(id)
	u.mu.Lock()
	u.echoInitTick = 0
	u.echoEndTick = 0
	u.echoOverflows = 0
	u.echoReceived = false
	u.mu.Unlock()
}
