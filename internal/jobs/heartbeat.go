// Package jobs holds the scheduled maintenance jobs: heartbeat, low-stock
// restocking, the weekly report and order reminders. Each job is a thin
// client of the CRM API; it receives its API client and log sink as
// constructed dependencies and reports transport failures into the log
// instead of crashing the scheduler.
package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

const heartbeatStamp = "02/01/2006-15:04:05"

type Heartbeat struct {
	client apiGetter
	sink   io.Writer
	logger *slog.Logger
	now    func() time.Time
}

type apiGetter interface {
	Get(ctx context.Context, path string, out any) error
}

func NewHeartbeat(client apiGetter, sink io.Writer, logger *slog.Logger) *Heartbeat {
	return &Heartbeat{client: client, sink: sink, logger: logger, now: time.Now}
}

// Run appends the liveness line and then probes the API, recording the
// outcome of the probe as a follow-up line.
func (h *Heartbeat) Run(ctx context.Context) {
	stamp := h.now().Format(heartbeatStamp)
	fmt.Fprintf(h.sink, "%s CRM is alive\n", stamp)

	var status struct {
		Status string `json:"status"`
	}
	if err := h.client.Get(ctx, "/health", &status); err != nil {
		fmt.Fprintf(h.sink, "%s API error: %v\n", stamp, err)
		h.logger.Error("heartbeat API probe failed", "error", err)
		return
	}

	fmt.Fprintf(h.sink, "%s API check: %s\n", stamp, status.Status)
	h.logger.Info("heartbeat recorded", "status", status.Status)
}
