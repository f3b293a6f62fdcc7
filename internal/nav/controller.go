// Package nav models the client's screen navigation as an explicit stack of
// frames plus overlay layers, independent of any host history API. A single
// back gesture unwinds exactly one layer: the topmost overlay if one is
// open, otherwise the current screen frame.
package nav

type Screen string

const (
	ScreenHistory Screen = "history"
	ScreenTrash   Screen = "trash"
	ScreenSetup   Screen = "setup"
	ScreenActive  Screen = "active"
	ScreenDetails Screen = "details"
)

type Overlay string

const (
	OverlayScoreEntry   Overlay = "score-entry"
	OverlayImagePreview Overlay = "image-preview"
)

// Frame is one history entry: the logical screen and, for session screens,
// which session it shows.
type Frame struct {
	Screen    Screen
	SessionID string
}

// Controller is a per-client navigation state machine. It is single-threaded
// by design, like the event loop it models; callers must not share one
// across goroutines.
type Controller struct {
	frames   []Frame
	overlays []Overlay
}

// NewController starts at the history list, the root every back chain ends
// on.
func NewController() *Controller {
	return &Controller{
		frames: []Frame{{Screen: ScreenHistory}},
	}
}

// Push navigates forward to a new screen frame. Any open overlays belong to
// the screen being left and are discarded.
func (c *Controller) Push(f Frame) {
	c.overlays = nil
	c.frames = append(c.frames, f)
}

// ShowOverlay opens an overlay on top of the current screen.
func (c *Controller) ShowOverlay(o Overlay) {
	c.overlays = append(c.overlays, o)
}

// Back unwinds one layer: the topmost overlay first, else the current screen
// frame. It reports false when already at the root with nothing to close, so
// the host can decide whether to exit.
func (c *Controller) Back() bool {
	if len(c.overlays) > 0 {
		c.overlays = c.overlays[:len(c.overlays)-1]
		return true
	}

	if len(c.frames) > 1 {
		c.frames = c.frames[:len(c.frames)-1]
		return true
	}

	return false
}

// Current returns the frame the client is showing.
func (c *Controller) Current() Frame {
	return c.frames[len(c.frames)-1]
}

// Overlay returns the topmost overlay, if any is open.
func (c *Controller) Overlay() (Overlay, bool) {
	if len(c.overlays) == 0 {
		return "", false
	}
	return c.overlays[len(c.overlays)-1], true
}

// Depth is the number of screen frames on the stack, overlays excluded.
func (c *Controller) Depth() int {
	return len(c.frames)
}

// PopToRoot drops everything and returns to the history list, as the home
// button does.
func (c *Controller) PopToRoot() {
	c.overlays = nil
	c.frames = c.frames[:1]
}
