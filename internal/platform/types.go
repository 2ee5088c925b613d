package platform

import "image"

type EventType int

const (
	EventUnknown EventType = iota
	EventClose
	EventResize
	EventDPIChanged
	EventKeyDown
	EventKeyUp
	EventTextInput
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseDrag
	EventMouseWheel
)

type Button uint8

const (
	ButtonNone Button = iota
	ButtonPrimary
	ButtonMiddle
	ButtonSecondary
)

// Buttons is the set of buttons held down while an event fires.
type Buttons uint8

const (
	HeldPrimary Buttons = 1 << iota
	HeldMiddle
	HeldSecondary
)

type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModMeta
	ModShortcut
)

func (m Modifiers) Has(o Modifiers) bool { return m&o == o }

// Any reports whether any of o is held.
func (m Modifiers) Any(o Modifiers) bool { return m&o != 0 }

type Event struct {
	Type       EventType
	Width      int
	Height     int
	Scale      float32
	Rune       rune
	DeltaX     int
	DeltaY     int
	X          int
	Y          int
	Key        string
	Button     Button
	Held       Buttons
	Modifiers  Modifiers
	ClickCount int
}

func (e Event) Pos() image.Point { return image.Pt(e.X, e.Y) }

// Localize moves the event into a coordinate space whose origin is at o.
func (e Event) Localize(o image.Point) Event {
	e.X -= o.X
	e.Y -= o.Y
	return e
}
