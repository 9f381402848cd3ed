package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/crmflow/crmflow/internal/domain"
)

// reminderWindow selects orders placed within the last seven days.
const reminderWindow = 7 * 24 * time.Hour

type OrderReminders struct {
	client apiGetter
	sink   io.Writer
	logger *slog.Logger
	now    func() time.Time
}

func NewOrderReminders(client apiGetter, sink io.Writer, logger *slog.Logger) *OrderReminders {
	return &OrderReminders{client: client, sink: sink, logger: logger, now: time.Now}
}

// Run enumerates recent orders and appends one reminder line per order.
func (j *OrderReminders) Run(ctx context.Context) {
	since := j.now().UTC().Add(-reminderWindow)
	path := "/orders?orderDateGte=" + url.QueryEscape(since.Format(time.RFC3339))

	var orders []domain.Order
	if err := j.client.Get(ctx, path, &orders); err != nil {
		j.logger.Error("order reminders failed", "error", err)
		return
	}

	for _, order := range orders {
		email := ""
		if order.Customer != nil {
			email = order.Customer.Email
		}
		fmt.Fprintf(j.sink, "Reminder for order %s, customer %s\n", order.ID, email)
	}

	j.logger.Info("order reminders processed", "count", len(orders))
}
