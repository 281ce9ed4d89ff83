package chromedp_browser

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"

	"github.com/user/deadpage-hunter/internal/entity"
)

// tabState tracks the frames of one attached page target. The main frame is
// numbered 0; sub-frames get increasing numbers in the order they navigate.
type tabState struct {
	id     target.ID
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	mainFrame cdp.FrameID
	frames    map[cdp.FrameID]int
	urls      map[cdp.FrameID]string
	nextFrame int
}

func newTabState(id target.ID) *tabState {
	// Chrome gives a page's main frame the same id as its target.
	main := cdp.FrameID(id)
	return &tabState{
		id:        id,
		mainFrame: main,
		frames:    map[cdp.FrameID]int{main: entity.TopLevelFrameID},
		urls:      make(map[cdp.FrameID]string),
		nextFrame: 1,
	}
}

func (s *tabState) frameNavigated(f *cdp.Frame) {
	if f == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ParentID == "" {
		if f.ID != s.mainFrame {
			delete(s.frames, s.mainFrame)
			s.mainFrame = f.ID
		}
		s.frames[f.ID] = entity.TopLevelFrameID
	} else if _, ok := s.frames[f.ID]; !ok {
		s.frames[f.ID] = s.nextFrame
		s.nextFrame++
	}
	s.urls[f.ID] = f.URL + f.URLFragment
}

func (s *tabState) frameDetached(id cdp.FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.mainFrame {
		return
	}
	delete(s.frames, id)
	delete(s.urls, id)
}

// frameStoppedLoading converts a CDP load completion into a navigation event.
// Frames that never navigated are ignored.
func (s *tabState) frameStoppedLoading(id cdp.FrameID) (entity.NavigationEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	url, ok := s.urls[id]
	if !ok {
		return entity.NavigationEvent{}, false
	}
	idx, ok := s.frames[id]
	if !ok {
		return entity.NavigationEvent{}, false
	}
	return entity.NavigationEvent{TabID: string(s.id), FrameID: idx, URL: url}, true
}
