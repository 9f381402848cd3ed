package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/crmflow/crmflow/internal/domain"
)

const reportStamp = "2006-01-02 15:04:05"

type WeeklyReport struct {
	client apiGetter
	sink   io.Writer
	logger *slog.Logger
	now    func() time.Time
}

func NewWeeklyReport(client apiGetter, sink io.Writer, logger *slog.Logger) *WeeklyReport {
	return &WeeklyReport{client: client, sink: sink, logger: logger, now: time.Now}
}

// Run fetches the aggregate counters and appends one report line.
func (j *WeeklyReport) Run(ctx context.Context) {
	var stats domain.Stats
	if err := j.client.Get(ctx, "/stats", &stats); err != nil {
		fmt.Fprintf(j.sink, "Error generating CRM report: %v\n", err)
		j.logger.Error("weekly report failed", "error", err)
		return
	}

	stamp := j.now().Format(reportStamp)
	fmt.Fprintf(j.sink, "%s - Report: %d customers, %d orders, %s revenue\n",
		stamp, stats.TotalCustomers, stats.TotalOrders, stats.TotalRevenue)

	j.logger.Info("weekly report generated",
		"customers", stats.TotalCustomers,
		"orders", stats.TotalOrders,
		"revenue", stats.TotalRevenue)
}
