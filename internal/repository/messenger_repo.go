package repository

import (
	"context"

	"github.com/user/deadpage-hunter/internal/entity"
)

// Messenger carries popup messages to the background daemon.
type Messenger interface {
	SendMessage(ctx context.Context, msg entity.Message) (entity.MessageResponse, error)
}

// TabQuerier returns the browser's active tab as seen by the daemon.
type TabQuerier interface {
	ActiveTab(ctx context.Context) (*entity.Tab, error)
}
