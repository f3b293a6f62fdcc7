package nav_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shiomura/utakai/internal/nav"
)

func TestController_StartsAtHistory(t *testing.T) {
	c := nav.NewController()

	require.Equal(t, nav.Frame{Screen: nav.ScreenHistory}, c.Current())
	_, open := c.Overlay()
	require.False(t, open)
}

func TestController_BackUnwindsOneLayerAtATime(t *testing.T) {
	c := nav.NewController()

	c.Push(nav.Frame{Screen: nav.ScreenActive, SessionID: "s1"})
	c.ShowOverlay(nav.OverlayScoreEntry)
	c.ShowOverlay(nav.OverlayImagePreview)

	// First back closes the preview, not the modal, not the screen.
	require.True(t, c.Back())
	top, open := c.Overlay()
	require.True(t, open)
	require.Equal(t, nav.OverlayScoreEntry, top)
	require.Equal(t, "s1", c.Current().SessionID)

	// Second back closes the modal.
	require.True(t, c.Back())
	_, open = c.Overlay()
	require.False(t, open)
	require.Equal(t, nav.ScreenActive, c.Current().Screen)

	// Third back leaves the session screen.
	require.True(t, c.Back())
	require.Equal(t, nav.ScreenHistory, c.Current().Screen)

	// At the root there is nothing left to unwind.
	require.False(t, c.Back())
	require.Equal(t, nav.ScreenHistory, c.Current().Screen)
}

func TestController_BackRestoresTheExactFrame(t *testing.T) {
	c := nav.NewController()

	c.Push(nav.Frame{Screen: nav.ScreenDetails, SessionID: "s1"})
	c.Push(nav.Frame{Screen: nav.ScreenDetails, SessionID: "s2"})

	require.True(t, c.Back())
	require.Equal(t, nav.Frame{Screen: nav.ScreenDetails, SessionID: "s1"}, c.Current())
}

func TestController_PushDiscardsOpenOverlays(t *testing.T) {
	c := nav.NewController()

	c.Push(nav.Frame{Screen: nav.ScreenActive, SessionID: "s1"})
	c.ShowOverlay(nav.OverlayScoreEntry)
	c.Push(nav.Frame{Screen: nav.ScreenDetails, SessionID: "s1"})

	_, open := c.Overlay()
	require.False(t, open)

	// Back returns to the active screen with no overlay resurrected.
	require.True(t, c.Back())
	require.Equal(t, nav.ScreenActive, c.Current().Screen)
	_, open = c.Overlay()
	require.False(t, open)
}

func TestController_PopToRoot(t *testing.T) {
	c := nav.NewController()

	c.Push(nav.Frame{Screen: nav.ScreenTrash})
	c.Push(nav.Frame{Screen: nav.ScreenDetails, SessionID: "s9"})
	c.ShowOverlay(nav.OverlayImagePreview)

	c.PopToRoot()

	require.Equal(t, 1, c.Depth())
	require.Equal(t, nav.ScreenHistory, c.Current().Screen)
	_, open := c.Overlay()
	require.False(t, open)
}
