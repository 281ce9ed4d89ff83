package entity

// TopLevelFrameID identifies a tab's main document.
const TopLevelFrameID = 0

// NavigationEvent is emitted once a frame inside a tab finished loading.
type NavigationEvent struct {
	TabID   string
	FrameID int
	URL     string
}

// IsTopLevel reports whether the event belongs to the tab's main document.
func (e NavigationEvent) IsTopLevel() bool {
	return e.FrameID == TopLevelFrameID
}

// Tab is a browser page target.
type Tab struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Active bool   `json:"active"`
}

// PageText is what the probe script reads out of a rendered page.
type PageText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// DetectionResult is derived synchronously from page text.
type DetectionResult struct {
	IsDeadPage bool
	Indicator  string // first indicator that matched, empty when alive
}
