package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/pkg/utils"
)

// StatusKind is the visual state of the popup status line.
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Status texts shown by the popup.
const (
	IdleText        = "Dead Link Hunter Active"
	EmptyURLText    = "Please enter a URL"
	InvalidURLText  = "Invalid URL format"
	SubmittingText  = "Submitting..."
	SubmittedText   = "✓ URL Reported Successfully!"
	FailedText      = "Failed to submit"
	errorTextPrefix = "Error: "
)

// DefaultRevertDelay is how long the success state stays up.
const DefaultRevertDelay = 3 * time.Second

// Status is one state of the popup status line.
type Status struct {
	Kind StatusKind
	Text string
}

// StatusView renders popup state.
type StatusView interface {
	ShowStatus(s Status)
	ShowInput(value string)
}

// PopupController holds the popup's input field and drives its status line.
type PopupController struct {
	messenger   repository.Messenger
	tabs        repository.TabQuerier
	view        StatusView
	revertDelay time.Duration

	mu     sync.Mutex
	input  string
	revert *time.Timer
}

// NewPopupController creates a controller. A non-positive revertDelay uses
// DefaultRevertDelay.
func NewPopupController(messenger repository.Messenger, tabs repository.TabQuerier, view StatusView, revertDelay time.Duration) *PopupController {
	if revertDelay <= 0 {
		revertDelay = DefaultRevertDelay
	}
	return &PopupController{
		messenger:   messenger,
		tabs:        tabs,
		view:        view,
		revertDelay: revertDelay,
	}
}

func (p *PopupController) Input() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input
}

func (p *PopupController) SetInput(value string) {
	p.mu.Lock()
	p.input = value
	p.mu.Unlock()
	p.view.ShowInput(value)
}

// Prefill copies the active tab's URL into the input when it is a web page.
func (p *PopupController) Prefill(ctx context.Context) {
	tab, err := p.tabs.ActiveTab(ctx)
	if err != nil {
		slog.Debug("No active tab to prefill from", "error", err)
		return
	}
	if tab != nil && strings.HasPrefix(tab.URL, "http") {
		p.SetInput(tab.URL)
	}
}

// Submit validates the input and sends it to the background. Invalid input
// never reaches the messenger.
func (p *PopupController) Submit(ctx context.Context) Status {
	url := strings.TrimSpace(p.Input())
	if url == "" {
		return p.show(Status{Kind: StatusError, Text: EmptyURLText})
	}
	if _, err := utils.ParseAbsoluteURL(url); err != nil {
		return p.show(Status{Kind: StatusError, Text: InvalidURLText})
	}

	p.show(Status{Kind: StatusPending, Text: SubmittingText})

	resp, err := p.messenger.SendMessage(ctx, entity.Message{Action: entity.ActionSubmitURL, URL: url})
	if err != nil {
		slog.Warn("Message to background failed", "url", url, "error", err)
		return p.show(Status{Kind: StatusError, Text: errorTextPrefix + FailedText})
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = FailedText
		}
		return p.show(Status{Kind: StatusError, Text: errorTextPrefix + msg})
	}

	p.SetInput("")
	st := p.show(Status{Kind: StatusSuccess, Text: SubmittedText})
	p.scheduleRevert()
	return st
}

// Close stops a pending revert.
func (p *PopupController) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.revert != nil {
		p.revert.Stop()
	}
}

func (p *PopupController) show(s Status) Status {
	p.mu.Lock()
	if p.revert != nil {
		p.revert.Stop()
		p.revert = nil
	}
	p.mu.Unlock()
	p.view.ShowStatus(s)
	return s
}

func (p *PopupController) scheduleRevert() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revert = time.AfterFunc(p.revertDelay, func() {
		p.view.ShowStatus(Status{Kind: StatusIdle, Text: IdleText})
	})
}
