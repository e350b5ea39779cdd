package rpi

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"rearguard.dev/port"
)

type displayState struct {
	r, g, b gpio.PinOut
}

// DisplayPins is the three PWM-capable output lines the RGB indicator
// is wired to.
type DisplayPins struct {
	R, G, B gpio.PinOut
}

// displayPWMFrequency is board/IC-specific (spec.md §6 only fixes the
// duty-cycle mapping, not a frequency), chosen low enough for a
// visible indicator LED with no flicker.
const displayPWMFrequency = 1 * physic.KiloHertz

// BindDisplay registers the three channel pins for id.
func (p *Port) BindDisplay(id uint32, pins DisplayPins) error {
	for _, pin := range []gpio.PinOut{pins.R, pins.G, pins.B} {
		if err := pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("rpi: bind display %d: %w", id, err)
		}
	}
	p.mu.Lock()
	p.displays[id] = &displayState{r: pins.R, g: pins.G, b: pins.B}
	p.mu.Unlock()
	return nil
}

// SetRGB writes a duty cycle proportional to channel/255 on each PWM
// channel; a zero channel switches that channel fully off rather than
// writing a zero-width pulse (spec.md §6).
func (p *Port) SetRGB(id uint32, c port.RGB) {
	p.mu.Lock()
	d := p.displays[id]
	p.mu.Unlock()

	setChannel(d.r, c.R)
	setChannel(d.g, c.G)
	setChannel(d.b, c.B)
}

func setChannel(pin gpio.PinOut, v uint8) {
	if v == 0 {
		pin.Out(gpio.Low)
		return
	}
	duty := gpio.Duty(uint32(v) * uint32(gpio.DutyMax) / 255)
	pin.PWM(duty, displayPWMFrequency)
}
