// The jobs binary runs the scheduled CRM maintenance jobs: a heartbeat every
// five minutes, a low-stock restock sweep twice a day, order reminders once a
// day and the summary report once a week. Scheduling is plain tickers; the
// jobs themselves only talk to the CRM API.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/crmflow/crmflow/internal/apiclient"
	"github.com/crmflow/crmflow/internal/jobs"
)

type job interface {
	Run(ctx context.Context)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	apiURL := os.Getenv("CRM_API_URL")
	if apiURL == "" {
		logger.Error("CRM_API_URL environment variable is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}
	client := apiclient.New(apiURL, httpClient)

	heartbeatSink := openSink(logger, "HEARTBEAT_LOG", "/tmp/crm_heartbeat_log.txt")
	defer func() { _ = heartbeatSink.Close() }()
	lowStockSink := openSink(logger, "LOW_STOCK_LOG", "/tmp/low_stock_updates_log.txt")
	defer func() { _ = lowStockSink.Close() }()
	reportSink := openSink(logger, "REPORT_LOG", "/tmp/crm_report_log.txt")
	defer func() { _ = reportSink.Close() }()
	reminderSink := openSink(logger, "REMINDER_LOG", "/tmp/order_reminders_log.txt")
	defer func() { _ = reminderSink.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting job scheduler", "api_url", apiURL)

	var wg sync.WaitGroup
	schedule := func(name string, interval time.Duration, j job) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					logger.Info("running job", "job", name)
					j.Run(ctx)
				}
			}
		}()
	}

	schedule("heartbeat", 5*time.Minute, jobs.NewHeartbeat(client, heartbeatSink, logger))
	schedule("low-stock-sweep", 12*time.Hour, jobs.NewLowStockSweep(client, lowStockSink, logger))
	schedule("order-reminders", 24*time.Hour, jobs.NewOrderReminders(client, reminderSink, logger))
	schedule("weekly-report", 7*24*time.Hour, jobs.NewWeeklyReport(client, reportSink, logger))

	wg.Wait()
	logger.Info("scheduler stopped")
}

func openSink(logger *slog.Logger, envVar, fallback string) *os.File {
	path := os.Getenv(envVar)
	if path == "" {
		path = fallback
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("failed to open log sink", "error", err, "path", path)
		os.Exit(1)
	}
	return f
}
