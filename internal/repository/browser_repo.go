package repository

import (
	"context"
	"errors"

	"github.com/user/deadpage-hunter/internal/entity"
)

var (
	ErrNoActiveTab = errors.New("no active tab")
	ErrTabNotFound = errors.New("tab not found")
)

// BrowserRepository abstracts the browser the daemon is attached to.
type BrowserRepository interface {
	// Navigations streams navigation-completed events until ctx is done.
	Navigations(ctx context.Context) (<-chan entity.NavigationEvent, error)
	// ActiveTab resolves the focused tab of the current window.
	ActiveTab(ctx context.Context) (*entity.Tab, error)
	// ReadPage runs the probe script inside the tab and returns its text.
	ReadPage(ctx context.Context, tabID string) (*entity.PageText, error)
}
