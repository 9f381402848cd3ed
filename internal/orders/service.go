package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crmflow/crmflow/internal/customers"
	"github.com/crmflow/crmflow/internal/domain"
	"github.com/crmflow/crmflow/internal/messaging"
	"github.com/crmflow/crmflow/internal/products"
)

type Service struct {
	orders    *OrderRepository
	customers *customers.CustomerRepository
	products  *products.ProductRepository
	producer  *messaging.Producer
	logger    *slog.Logger
}

// NewService wires the order mutation. producer may be nil; event publishing
// is then skipped.
func NewService(
	orders *OrderRepository,
	customers *customers.CustomerRepository,
	products *products.ProductRepository,
	producer *messaging.Producer,
	logger *slog.Logger,
) *Service {
	return &Service{
		orders:    orders,
		customers: customers,
		products:  products,
		producer:  producer,
		logger:    logger,
	}
}

// Create assembles an order for one customer over a non-empty product set.
// Every missing product ID is collected before failing so the caller sees
// the full list in one message. The order, its associations and its total
// are committed atomically; the total is the sum of the resolved products'
// current prices and is never recomputed afterwards.
func (s *Service) Create(ctx context.Context, customerID string, productIDs []string, orderDate *time.Time) domain.OrderResult {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		s.logger.Error("failed to look up customer", "error", err, "customer_id", customerID)
		return domain.OrderResult{Message: fmt.Sprintf("Error creating order: %v", err)}
	}
	if customer == nil {
		return domain.OrderResult{Message: domain.ErrInvalidCustomer.Error()}
	}

	if len(productIDs) == 0 {
		return domain.OrderResult{Message: domain.ErrNoProducts.Error()}
	}

	resolved, missing, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error("failed to look up products", "error", err)
		return domain.OrderResult{Message: fmt.Sprintf("Error creating order: %v", err)}
	}
	if len(missing) > 0 {
		invalid := &domain.InvalidProductsError{IDs: missing}
		return domain.OrderResult{Message: invalid.Error()}
	}

	total := decimal.Zero
	for _, product := range resolved {
		total = total.Add(product.Price)
	}

	when := time.Now().UTC()
	if orderDate != nil {
		when = *orderDate
	}

	order := &domain.Order{
		CustomerID:  customer.ID,
		Customer:    customer,
		Products:    resolved,
		OrderDate:   when,
		TotalAmount: total,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("failed to create order", "error", err, "customer_id", customer.ID)
		return domain.OrderResult{Message: fmt.Sprintf("Error creating order: %v", err)}
	}

	s.publishCreated(ctx, order, customer)

	s.logger.Info("order created", "order_id", order.ID, "customer_id", customer.ID, "total", order.TotalAmount)
	return domain.OrderResult{
		Order:   order,
		Message: "Order created successfully!",
		Success: true,
	}
}

// publishCreated emits the order-created event after commit. A publish
// failure never fails the mutation; the order is already durable.
func (s *Service) publishCreated(ctx context.Context, order *domain.Order, customer *domain.Customer) {
	if s.producer == nil {
		return
	}

	productIDs := make([]string, len(order.Products))
	for i, product := range order.Products {
		productIDs[i] = product.ID
	}

	event := domain.OrderCreatedEvent{
		OrderID:       order.ID,
		CustomerID:    customer.ID,
		CustomerEmail: customer.Email,
		ProductIDs:    productIDs,
		Total:         order.TotalAmount,
		Timestamp:     order.OrderDate,
	}
	if err := s.producer.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
	}
}
