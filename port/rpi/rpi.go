// package rpi implements the port contracts against real GPIO
// hardware via periph.io. It plays the role the teacher's input.go
// and lcd.go play for the Waveshare HAT: host.Init() once, then one
// goroutine per interrupt source mutating a mirrored field and
// signalling a shared wakeup channel, exactly the ISR-writer /
// main-loop-reader discipline spec.md §5 requires.
//
// Board-specific pin assignment is deliberately not hardcoded here
// (spec.md §1 scopes it out of the core); callers bind each
// peripheral id to concrete pins via Bind{Button,Ultrasound,Display}.
package rpi

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/host/v3"

	"rearguard.dev/port"
)

// Port implements port.Clock, port.ButtonPort, port.UltrasoundPort
// and port.DisplayPort against real periph.io-backed pins.
type Port struct {
	start time.Time
	wake  chan struct{}

	mu          sync.Mutex
	buttons     map[uint32]*buttonState
	ultrasounds map[uint32]*ultrasoundState
	displays    map[uint32]*displayState
}

// New initialises the periph.io host drivers and returns an empty
// port layer; bind peripherals with BindButton, BindUltrasound and
// BindDisplay before handing it to button.New/ultrasound.New/
// display.New.
func New() (*Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("rpi: %w", err)
	}
	return &Port{
		start:       time.Now(),
		wake:        make(chan struct{}, 1),
		buttons:     make(map[uint32]*buttonState),
		ultrasounds: make(map[uint32]*ultrasoundState),
		displays:    make(map[uint32]*displayState),
	}, nil
}

// notify wakes up a pending Sleep, if any. Non-blocking: a pending
// wakeup that hasn't been consumed yet needs no second signal.
func (p *Port) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// NowMS is the monotonic millisecond counter, measured from Port
// creation rather than a hardware free-running timer (periph.io
// exposes no such counter on its own); wraps at 2^32 exactly like the
// microcontroller original, long before it would matter in practice.
func (p *Port) NowMS() uint32 {
	return uint32(time.Since(p.start) / time.Millisecond)
}

// Sleep blocks until any bound peripheral's goroutine calls notify —
// a button edge, a trigger/echo capture, or the ultrasound cycle
// timer.
func (p *Port) Sleep() {
	<-p.wake
}

// Init satisfies port.ButtonPort, port.UltrasoundPort and
// port.DisplayPort's shared method name. All three interfaces declare
// Init(id uint32), so one concrete method must serve every domain; it
// checks id is bound in at least one of the three peripheral maps and
// panics otherwise, matching spec.md §7(a)'s "invalid peripheral id is
// a programmer error caught at init". The real contract enforcement
// happens earlier, at the corresponding Bind* call during platform
// setup.
func (p *Port) Init(id uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, isButton := p.buttons[id]
	_, isUltrasound := p.ultrasounds[id]
	_, isDisplay := p.displays[id]
	if !isButton && !isUltrasound && !isDisplay {
		panic(fmt.Sprintf("rpi: id %d was never bound to a peripheral", id))
	}
}

var (
	_ port.Clock          = (*Port)(nil)
	_ port.ButtonPort     = (*Port)(nil)
	_ port.UltrasoundPort = (*Port)(nil)
	_ port.DisplayPort    = (*Port)(nil)
)
