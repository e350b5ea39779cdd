package rpi

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

type buttonState struct {
	mu      sync.Mutex
	pressed bool
	value   bool
}

// ButtonPins is the GPIO line a single momentary button is wired to.
type ButtonPins struct {
	Line gpio.PinIn
}

// BindButton configures Pins.Line as a pulled-up, both-edges input
// and starts the edge-detection goroutine that stands in for the
// EXTI ISR (spec.md §6's "Button EXTI" contract): it mirrors the
// current line level and marks an edge pending. It does not debounce
// — that is the Button FSM's job, against the millisecond clock — it
// only reports that the line moved.
func (p *Port) BindButton(id uint32, pins ButtonPins) error {
	if err := pins.Line.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return fmt.Errorf("rpi: bind button %d: %w", id, err)
	}
	bs := &buttonState{}
	p.mu.Lock()
	p.buttons[id] = bs
	p.mu.Unlock()

	go func() {
		for {
			if !pins.Line.WaitForEdge(-1) {
				continue
			}
			bs.mu.Lock()
			bs.value = pins.Line.Read() == gpio.Low
			bs.pressed = true
			bs.mu.Unlock()
			p.notify()
		}
	}()
	return nil
}

func (p *Port) button(id uint32) *buttonState {
	p.mu.Lock()
	bs := p.buttons[id]
	p.mu.Unlock()
	return bs
}

func (p *Port) Pressed(id uint32) bool {
	bs := p.button(id)
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.pressed
}

func (p *Port) SetPressed(id uint32, v bool) {
	bs := p.button(id)
	bs.mu.Lock()
	bs.pressed = v
	bs.mu.Unlock()
}

func (p *Port) Value(id uint32) bool {
	bs := p.button(id)
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.value
}
