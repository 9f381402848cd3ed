package products

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/crmflow/crmflow/internal/domain"
	"github.com/crmflow/crmflow/internal/validate"
)

type Service struct {
	repo   *ProductRepository
	logger *slog.Logger
}

func NewService(repo *ProductRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, name string, price decimal.Decimal, stock int) domain.ProductResult {
	if err := validate.Price(price); err != nil {
		return domain.ProductResult{Message: err.Error()}
	}
	if err := validate.Stock(stock); err != nil {
		return domain.ProductResult{Message: err.Error()}
	}

	product := &domain.Product{
		Name:  strings.TrimSpace(name),
		Price: price,
		Stock: stock,
	}
	if err := s.repo.Insert(ctx, product); err != nil {
		s.logger.Error("failed to create product", "error", err, "name", product.Name)
		return domain.ProductResult{Message: fmt.Sprintf("Error creating product: %v", err)}
	}

	s.logger.Info("product created", "product_id", product.ID)
	return domain.ProductResult{
		Product: product,
		Message: "Product created successfully!",
		Success: true,
	}
}

// RestockLowStock runs the restock sweep. The sweep is deliberately not
// idempotent: a second call keeps adding stock to anything still below the
// threshold.
func (s *Service) RestockLowStock(ctx context.Context) domain.RestockResult {
	updated, err := s.repo.RestockLowStock(ctx, LowStockThreshold, RestockIncrement)
	if err != nil {
		s.logger.Error("restock sweep failed", "error", err)
		return domain.RestockResult{
			Message:         fmt.Sprintf("Error updating low-stock products: %v", err),
			UpdatedProducts: []domain.Product{},
		}
	}

	if updated == nil {
		updated = []domain.Product{}
	}

	message := "No low-stock products found."
	if len(updated) > 0 {
		message = fmt.Sprintf("Updated %d low-stock products.", len(updated))
	}

	s.logger.Info("restock sweep finished", "updated", len(updated))
	return domain.RestockResult{
		Success:         true,
		Message:         message,
		UpdatedProducts: updated,
	}
}
