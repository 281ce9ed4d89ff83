package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/pkg/metrics"
)

var ErrBrokerClosed = errors.New("message broker closed")

type brokerRequest struct {
	ctx   context.Context
	msg   entity.Message
	reply chan entity.MessageResponse
}

// Broker is the background side of the popup message channel. Each request
// carries its own reply channel so callers can await their answer.
type Broker struct {
	submitter repository.SubmissionClient
	requests  chan brokerRequest
	done      chan struct{}
	closeOnce sync.Once
}

var _ repository.Messenger = (*Broker)(nil)

// NewBroker creates a broker that forwards submitUrl requests to submitter.
func NewBroker(submitter repository.SubmissionClient) *Broker {
	return &Broker{
		submitter: submitter,
		requests:  make(chan brokerRequest),
		done:      make(chan struct{}),
	}
}

// SendMessage hands msg to the serving loop and waits for the reply. It
// returns ErrBrokerClosed once Serve has returned.
func (b *Broker) SendMessage(ctx context.Context, msg entity.Message) (entity.MessageResponse, error) {
	req := brokerRequest{ctx: ctx, msg: msg, reply: make(chan entity.MessageResponse, 1)}

	select {
	case b.requests <- req:
	case <-b.done:
		return entity.MessageResponse{}, ErrBrokerClosed
	case <-ctx.Done():
		return entity.MessageResponse{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return entity.MessageResponse{}, ctx.Err()
	}
}

// Serve dispatches requests, each on its own goroutine, until ctx is done.
// In-flight requests are answered before it returns.
func (b *Broker) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	defer func() {
		b.closeOnce.Do(func() { close(b.done) })
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-b.requests:
			wg.Add(1)
			go func() {
				defer wg.Done()
				req.reply <- b.dispatch(req.ctx, req.msg)
			}()
		}
	}
}

func (b *Broker) dispatch(ctx context.Context, msg entity.Message) entity.MessageResponse {
	switch msg.Action {
	case entity.ActionSubmitURL:
		metrics.MessagesTotal.WithLabelValues(string(msg.Action)).Inc()
		return b.submit(ctx, msg.URL)
	default:
		metrics.MessagesTotal.WithLabelValues("unknown").Inc()
		slog.Warn("Unknown message action", "action", msg.Action)
		return entity.MessageResponse{Success: false, Error: fmt.Sprintf("unknown action %q", msg.Action)}
	}
}

func (b *Broker) submit(ctx context.Context, url string) entity.MessageResponse {
	url = strings.TrimSpace(url)
	if url == "" {
		return entity.MessageResponse{Success: false, Error: "url is required"}
	}

	resp := submitURL(ctx, b.submitter, url, originManual)
	if !resp.Success {
		slog.Error("Manual submission failed", "url", url, "error", resp.Error)
		return entity.MessageResponse{Success: false, Error: resp.Error}
	}
	slog.Info("Manual submission reported", "url", url)
	return entity.MessageResponse{Success: true, Data: resp.Data}
}
