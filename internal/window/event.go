package window

import (
	"fmt"
	"strings"
)

// Event is a window lifecycle notification delivered by the UI shell.
type Event string

const (
	CloseRequested Event = "close_requested"
	Focused        Event = "focused"
	Resized        Event = "resized"
	Moved          Event = "moved"
)

// Parse maps a wire name to an Event. Unknown names are an error.
func Parse(s string) (Event, error) {
	switch e := Event(strings.ToLower(strings.TrimSpace(s))); e {
	case CloseRequested, Focused, Resized, Moved:
		return e, nil
	default:
		return "", fmt.Errorf("unknown window event %q", s)
	}
}
