package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/crmflow/crmflow/internal/domain"
)

type LowStockSweep struct {
	client apiPoster
	sink   io.Writer
	logger *slog.Logger
	now    func() time.Time
}

type apiPoster interface {
	Post(ctx context.Context, path string, body, out any) error
}

func NewLowStockSweep(client apiPoster, sink io.Writer, logger *slog.Logger) *LowStockSweep {
	return &LowStockSweep{client: client, sink: sink, logger: logger, now: time.Now}
}

// Run triggers the restock mutation and logs each restocked product.
func (j *LowStockSweep) Run(ctx context.Context) {
	stamp := j.now().Format(heartbeatStamp)

	var result domain.RestockResult
	if err := j.client.Post(ctx, "/products/restock", nil, &result); err != nil {
		fmt.Fprintf(j.sink, "\n[%s] Error updating low stock: %v\n", stamp, err)
		j.logger.Error("low-stock sweep failed", "error", err)
		return
	}

	fmt.Fprintf(j.sink, "\n[%s] %s\n", stamp, result.Message)
	for _, product := range result.UpdatedProducts {
		fmt.Fprintf(j.sink, " - %s restocked to %d units\n", product.Name, product.Stock)
	}

	j.logger.Info("low-stock sweep finished", "updated", len(result.UpdatedProducts))
}
