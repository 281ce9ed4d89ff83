package usecase

import (
	"context"
	"time"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/pkg/metrics"
)

// Where a submission came from, for metrics.
const (
	originAuto   = "auto"
	originManual = "manual"
)

func submitURL(ctx context.Context, client repository.SubmissionClient, url, origin string) entity.SubmissionResponse {
	start := time.Now()
	resp := client.Submit(ctx, url)
	metrics.SubmissionDuration.WithLabelValues(origin).Observe(time.Since(start).Seconds())

	status := "success"
	if !resp.Success {
		status = "failure"
	}
	metrics.SubmissionsTotal.WithLabelValues(origin, status).Inc()
	return resp
}
