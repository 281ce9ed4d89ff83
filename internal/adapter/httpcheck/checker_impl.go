package httpcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/pkg/utils"
)

// Checker re-validates reported URLs with a HEAD request.
type Checker struct {
	client *http.Client
}

// NewChecker creates a checker whose requests give up after timeout.
func NewChecker(timeout time.Duration) *Checker {
	return &Checker{client: &http.Client{Timeout: timeout}}
}

// Check follows redirects and classifies the URL. A 404, a timeout, or any
// transport error counts as dead; every other status counts as alive.
func (c *Checker) Check(ctx context.Context, rawURL string) entity.VerifyResult {
	target := utils.EnsureScheme(rawURL)
	res := entity.VerifyResult{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		res.Dead = true
		res.Reason = fmt.Sprintf("Error (%s)", errorType(err))
		return res
	}

	resp, err := c.client.Do(req)
	if err != nil {
		res.Dead = true
		if isTimeout(err) {
			res.Reason = "Timeout"
		} else {
			res.Reason = fmt.Sprintf("Error (%s)", errorType(err))
		}
		return res
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		res.Dead = true
		res.Reason = "404 Not Found"
		return res
	}
	res.Reason = fmt.Sprintf("Alive (%d)", resp.StatusCode)
	return res
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func errorType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return reflect.TypeOf(err).String()
}
