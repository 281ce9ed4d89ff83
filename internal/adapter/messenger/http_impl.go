package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
)

const (
	messagesPath  = "/api/messages"
	activeTabPath = "/api/tabs/active"
)

// endpoint selects how a non-2xx daemon reply is read.
type endpoint int

const (
	// endpointMessages answers failures with a MessageResponse body too.
	endpointMessages endpoint = iota
	// endpointActiveTab answers 404 when no tab is active.
	endpointActiveTab
)

// DaemonClient talks to a running `deadpage serve` over its HTTP API.
type DaemonClient struct {
	baseURL string
	client  *http.Client
}

var (
	_ repository.Messenger  = (*DaemonClient)(nil)
	_ repository.TabQuerier = (*DaemonClient)(nil)
)

// NewDaemonClient creates a client for the daemon at baseURL. A zero timeout
// leaves request lifetime to the caller's context.
func NewDaemonClient(baseURL string, timeout time.Duration) *DaemonClient {
	return &DaemonClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// SendMessage posts msg to the daemon and returns its reply. An error means
// the daemon could not be reached or answered with something other than a
// MessageResponse.
func (c *DaemonClient) SendMessage(ctx context.Context, msg entity.Message) (entity.MessageResponse, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return entity.MessageResponse{}, fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return entity.MessageResponse{}, fmt.Errorf("build message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out entity.MessageResponse
	if err := c.do(req, endpointMessages, &out); err != nil {
		return entity.MessageResponse{}, err
	}
	return out, nil
}

// ActiveTab asks the daemon which tab is active. It returns
// repository.ErrNoActiveTab when the daemon reports none.
func (c *DaemonClient) ActiveTab(ctx context.Context) (*entity.Tab, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+activeTabPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build active tab request: %w", err)
	}

	var tab entity.Tab
	if err := c.do(req, endpointActiveTab, &tab); err != nil {
		return nil, err
	}
	return &tab, nil
}

func (c *DaemonClient) do(req *http.Request, ep endpoint, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && ep == endpointActiveTab {
		return repository.ErrNoActiveTab
	}
	if resp.StatusCode >= 500 || (resp.StatusCode >= 300 && ep != endpointMessages) {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("daemon returned %d: %w", resp.StatusCode, errors.New(e.Error))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode daemon response: %w", err)
	}
	return nil
}
