package chromedp_browser

import (
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabState_MainFrameIsZero(t *testing.T) {
	st := newTabState(target.ID("TAB1"))
	st.frameNavigated(&cdp.Frame{ID: "TAB1", URL: "https://example.com/missing"})

	nav, ok := st.frameStoppedLoading("TAB1")
	require.True(t, ok)
	assert.Equal(t, "TAB1", nav.TabID)
	assert.Equal(t, 0, nav.FrameID)
	assert.True(t, nav.IsTopLevel())
	assert.Equal(t, "https://example.com/missing", nav.URL)
}

func TestTabState_SubFramesAreNonZero(t *testing.T) {
	st := newTabState(target.ID("TAB1"))
	st.frameNavigated(&cdp.Frame{ID: "TAB1", URL: "https://example.com/"})
	st.frameNavigated(&cdp.Frame{ID: "ADS", ParentID: "TAB1", URL: "https://ads.example.net/404"})
	st.frameNavigated(&cdp.Frame{ID: "VIDEO", ParentID: "TAB1", URL: "https://video.example.net/embed"})

	ads, ok := st.frameStoppedLoading("ADS")
	require.True(t, ok)
	assert.Equal(t, 1, ads.FrameID)
	assert.False(t, ads.IsTopLevel())

	video, ok := st.frameStoppedLoading("VIDEO")
	require.True(t, ok)
	assert.Equal(t, 2, video.FrameID)

	// Re-navigating a known sub-frame keeps its number.
	st.frameNavigated(&cdp.Frame{ID: "ADS", ParentID: "TAB1", URL: "https://ads.example.net/next"})
	ads, ok = st.frameStoppedLoading("ADS")
	require.True(t, ok)
	assert.Equal(t, 1, ads.FrameID)
	assert.Equal(t, "https://ads.example.net/next", ads.URL)
}

func TestTabState_MainFrameSwap(t *testing.T) {
	st := newTabState(target.ID("TAB1"))
	st.frameNavigated(&cdp.Frame{ID: "OTHER", URL: "https://example.com/after-swap"})

	nav, ok := st.frameStoppedLoading("OTHER")
	require.True(t, ok)
	assert.Equal(t, 0, nav.FrameID)

	_, ok = st.frameStoppedLoading("TAB1")
	assert.False(t, ok)
}

func TestTabState_FragmentIsKept(t *testing.T) {
	st := newTabState(target.ID("TAB1"))
	st.frameNavigated(&cdp.Frame{ID: "TAB1", URL: "https://example.com/docs", URLFragment: "#gone"})

	nav, ok := st.frameStoppedLoading("TAB1")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/docs#gone", nav.URL)
}

func TestTabState_UnknownOrDetachedFrame(t *testing.T) {
	st := newTabState(target.ID("TAB1"))

	_, ok := st.frameStoppedLoading("TAB1")
	assert.False(t, ok, "main frame has not navigated yet")

	st.frameNavigated(&cdp.Frame{ID: "SUB", ParentID: "TAB1", URL: "https://example.com/frame"})
	st.frameDetached("SUB")
	_, ok = st.frameStoppedLoading("SUB")
	assert.False(t, ok)

	st.frameNavigated(nil)
}

func TestEmbeddedScripts(t *testing.T) {
	assert.Contains(t, probeScript, "document.title")
	assert.Contains(t, probeScript, "innerText")
	assert.Contains(t, activeScript, "visibilityState")
	assert.Contains(t, activeScript, "hasFocus")
}
