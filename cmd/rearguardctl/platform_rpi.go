//go:build linux && arm

package main

import (
	"fmt"

	"periph.io/x/host/v3/bcm283x"

	"rearguard.dev/port/rpi"
)

// Pin assignment is board-specific and out of the core's scope
// (spec.md §1); these are placeholders for a single button, a single
// trigger/echo sensor pair and a 3-channel RGB indicator, and should
// be adjusted to the target wiring harness.
var (
	buttonPin            = bcm283x.GPIO6
	ultrasoundTriggerPin = bcm283x.GPIO5
	ultrasoundEchoPin    = bcm283x.GPIO19
	displayRedPin        = bcm283x.GPIO13
	displayGreenPin      = bcm283x.GPIO26
	displayBluePin       = bcm283x.GPIO21
)

func newPlatform() (platformPort, func(), error) {
	p, err := rpi.New()
	if err != nil {
		return nil, nil, err
	}
	if err := p.BindButton(buttonID, rpi.ButtonPins{Line: buttonPin}); err != nil {
		return nil, nil, fmt.Errorf("rearguardctl: %w", err)
	}
	if err := p.BindUltrasound(ultrasoundID, rpi.UltrasoundPins{
		Trigger: ultrasoundTriggerPin,
		Echo:    ultrasoundEchoPin,
	}); err != nil {
		return nil, nil, fmt.Errorf("rearguardctl: %w", err)
	}
	if err := p.BindDisplay(displayID, rpi.DisplayPins{
		R: displayRedPin,
		G: displayGreenPin,
		B: displayBluePin,
	}); err != nil {
		return nil, nil, fmt.Errorf("rearguardctl: %w", err)
	}
	return p, func() {}, nil
}
