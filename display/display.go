// package display implements the RGB indicator FSM and the
// distance-to-colour linear interpolation model described in
// spec.md §4.4.
package display

import (
	"rearguard.dev/fsm"
	"rearguard.dev/port"
)

// State values (spec.md §3).
const (
	WaitDisplay State = iota
	SetDisplay
)

// State is one of WaitDisplay, SetDisplay.
type State = int

// Named endpoint colours for the distance gradient.
var (
	Red       = port.RGB{R: 255, G: 0, B: 0}
	Yellow    = port.RGB{R: 255, G: 255, B: 0}
	Green     = port.RGB{R: 0, G: 255, B: 0}
	Turquoise = port.RGB{R: 0, G: 255, B: 255}
	Blue      = port.RGB{R: 0, G: 0, B: 255}
	Off       = port.RGB{}
)

// band is one row of the colour table: distances in (lo, hi] (or
// [0, hi] for the first row) interpolate linearly from start to end.
type band struct {
	lo, hi     int32
	start, end port.RGB
}

var bands = []band{
	{0, 25, Red, Yellow},
	{25, 50, Yellow, Green},
	{50, 150, Green, Turquoise},
	{150, 175, Turquoise, Blue},
	{175, 200, Blue, Blue},
}

// Display renders a distance sample as a colour on the RGB indicator.
type Display struct {
	fsm.Engine[*Display]

	port port.DisplayPort
	id   uint32

	enabled    bool
	idle       bool
	newColour  bool
	distanceCM int32 // -1 = unset
}

// New creates a display bound to id.
func New(id uint32, p port.DisplayPort) *Display {
	d := &Display{port: p, id: id, distanceCM: -1}
	p.Init(id)
	d.Engine.Reset(WaitDisplay, []fsm.Transition[*Display]{
		{
			From:   WaitDisplay,
			Guard:  func(d *Display) bool { return d.enabled },
			To:     SetDisplay,
			Action: (*Display).renderOff,
		},
		{
			From:   SetDisplay,
			Guard:  func(d *Display) bool { return !d.enabled },
			To:     WaitDisplay,
			Action: (*Display).disable,
		},
		{
			From:   SetDisplay,
			Guard:  func(d *Display) bool { return d.newColour },
			To:     SetDisplay,
			Action: (*Display).renderColour,
		},
	})
	return d
}

// Fire advances the display FSM by one evaluation.
func (d *Display) Fire() {
	d.Engine.Fire(d)
}

// Enable turns the indicator on; the FSM renders OFF on the next Fire
// until a distance sample arrives.
func (d *Display) Enable() {
	d.enabled = true
}

// Disable turns the indicator off; the FSM renders OFF and clears idle
// on the next Fire.
func (d *Display) Disable() {
	d.enabled = false
}

// Enabled reports whether the indicator is currently on.
func (d *Display) Enabled() bool {
	return d.enabled
}

// Idle reports whether the last rendered colour is still current — no
// new sample has arrived since.
func (d *Display) Idle() bool {
	return d.idle
}

// SetDistanceCM supplies a fresh sample and arms the render action for
// the next Fire.
func (d *Display) SetDistanceCM(cm int32) {
	d.distanceCM = cm
	d.newColour = true
	d.idle = false
}

func (d *Display) renderOff() {
	d.port.SetRGB(d.id, Off)
}

func (d *Display) disable() {
	d.port.SetRGB(d.id, Off)
	d.idle = false
}

func (d *Display) renderColour() {
	d.port.SetRGB(d.id, Colour(d.distanceCM))
	d.newColour = false
	d.idle = true
}

// Colour maps a distance in centimetres to its RGB point on the
// gradient (spec.md §4.4). Distances outside [0, 200] render OFF.
func Colour(distanceCM int32) port.RGB {
	if distanceCM < 0 || distanceCM > 200 {
		return Off
	}
	for _, b := range bands {
		if distanceCM > b.lo && distanceCM <= b.hi {
			return lerp(b.start, b.end, distanceCM, b.lo, b.hi)
		}
	}
	// distanceCM == 0 falls through every "> lo" guard above; it
	// belongs to the first band at t=0.
	if distanceCM == 0 {
		return bands[0].start
	}
	return Off
}

// lerp interpolates linearly between start and end across (lo, hi],
// using an 8-bit-safe integer parameter t = (d-lo)*255/(hi-lo).
func lerp(start, end port.RGB, d, lo, hi int32) port.RGB {
	t := (d - lo) * 255 / (hi - lo)
	return port.RGB{
		R: mix(start.R, end.R, t),
		G: mix(start.G, end.G, t),
		B: mix(start.B, end.B, t),
	}
}

func mix(c1, c2 uint8, t int32) uint8 {
	return uint8((int32(255-t)*int32(c1) + t*int32(c2)) / 255)
}
