// Command rearguardctl is the rear parking-assist controller's entry
// point: it selects a platform port layer at compile time (rpi on
// linux/arm, an in-memory simulator everywhere else) and runs the
// cooperative main loop.
package main

import (
	"log"

	"rearguard.dev/port"
	"rearguard.dev/urbanite"
)

const (
	buttonID     = 1
	ultrasoundID = 1
	displayID    = 1
)

// platformPort is every port contract the core needs, bundled so
// platform_*.go each only has to produce one value.
type platformPort interface {
	port.Clock
	port.ButtonPort
	port.UltrasoundPort
	port.DisplayPort
}

func main() {
	p, cleanup, err := newPlatform()
	if err != nil {
		log.Fatalf("rearguardctl: %v", err)
	}
	defer cleanup()

	u := urbanite.New(p, p, p, p, buttonID, ultrasoundID, displayID)
	for {
		u.Fire()
		debugLog("state=%d paused=%v emergency=%v", u.State(), u.Paused(), u.InEmergency())
	}
}
