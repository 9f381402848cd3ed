//go:build integration

package test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crmflow/crmflow/internal/customers"
	"github.com/crmflow/crmflow/internal/domain"
	"github.com/crmflow/crmflow/internal/messaging"
	"github.com/crmflow/crmflow/internal/orders"
	"github.com/crmflow/crmflow/internal/products"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCustomerCreation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	repo := customers.NewCustomerRepository(db)
	service := customers.NewService(repo, discardLogger())

	result := service.Create(ctx, "  Alice  ", " alice@example.com ", "+1234567890")
	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if result.Message != "Customer created successfully!" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if result.Customer.Name != "Alice" || result.Customer.Email != "alice@example.com" {
		t.Errorf("name/email not trimmed: %+v", result.Customer)
	}

	t.Run("duplicate email fails case-insensitively", func(t *testing.T) {
		dup := service.Create(ctx, "Alice Again", "ALICE@Example.COM", "")
		if dup.Success {
			t.Fatal("expected duplicate email to fail")
		}
		if dup.Message != "Email already exists." {
			t.Errorf("unexpected message: %q", dup.Message)
		}
		if dup.Customer != nil {
			t.Error("expected no customer payload on failure")
		}
	})

	t.Run("invalid phone fails", func(t *testing.T) {
		bad := service.Create(ctx, "Bob", "bob@example.com", "abc")
		if bad.Success {
			t.Fatal("expected invalid phone to fail")
		}
		if bad.Message != domain.ErrInvalidPhone.Error() {
			t.Errorf("unexpected message: %q", bad.Message)
		}
	})

	t.Run("dashed phone is accepted", func(t *testing.T) {
		ok := service.Create(ctx, "Carol", "carol@example.com", "123-456-7890")
		if !ok.Success {
			t.Fatalf("expected success, got %q", ok.Message)
		}
	})
}

func TestBulkCustomerCreation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	repo := customers.NewCustomerRepository(db)
	service := customers.NewService(repo, discardLogger())

	if seeded := service.Create(ctx, "Dora", "dora@example.com", ""); !seeded.Success {
		t.Fatalf("seed customer failed: %q", seeded.Message)
	}

	result := service.BulkCreate(ctx, []domain.CustomerInput{
		{Name: "Eve", Email: "eve@example.com"},
		{Name: "Dora Duplicate", Email: "dora@example.com"},
		{Name: "Frank", Email: "frank@example.com", Phone: "+441234567890"},
	})

	if result.Success {
		t.Fatal("expected success=false with one failing record")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if result.Errors[0] != "Record 2: Email already exists." {
		t.Errorf("unexpected error: %q", result.Errors[0])
	}
	if len(result.CreatedCustomers) != 2 {
		t.Fatalf("expected 2 created customers, got %d", len(result.CreatedCustomers))
	}
	if result.CreatedCustomers[0].Email != "eve@example.com" || result.CreatedCustomers[1].Email != "frank@example.com" {
		t.Errorf("unexpected created customers: %+v", result.CreatedCustomers)
	}

	// Partial commit: the two successful records stay committed.
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 committed customers, got %d", count)
	}
}

func TestProductCreation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	repo := products.NewProductRepository(db)
	service := products.NewService(repo, discardLogger())

	if r := service.Create(ctx, "Free", decimal.Zero, 0); r.Success {
		t.Error("expected price=0 to fail")
	}
	if r := service.Create(ctx, "Negative", decimal.NewFromInt(-5), 0); r.Success {
		t.Error("expected price=-5 to fail")
	}
	if r := service.Create(ctx, "Understocked", decimal.NewFromInt(1), -1); r.Success {
		t.Error("expected stock=-1 to fail")
	}

	result := service.Create(ctx, "Widget", decimal.RequireFromString("9.99"), 5)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.Product.Stock != 5 {
		t.Errorf("expected stock 5, got %d", result.Product.Stock)
	}
	if !result.Product.Price.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("expected price 9.99, got %s", result.Product.Price)
	}
}

func TestOrderCreation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	logger := discardLogger()
	customerRepo := customers.NewCustomerRepository(db)
	productRepo := products.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)

	customerService := customers.NewService(customerRepo, logger)
	productService := products.NewService(productRepo, logger)
	orderService := orders.NewService(orderRepo, customerRepo, productRepo, nil, logger)

	customer := customerService.Create(ctx, "Grace", "grace@example.com", "").Customer
	p1 := productService.Create(ctx, "Keyboard", decimal.RequireFromString("10.00"), 50).Product
	p2 := productService.Create(ctx, "Cable", decimal.RequireFromString("5.50"), 50).Product

	t.Run("unknown customer creates no order", func(t *testing.T) {
		before, _ := orderRepo.Count(ctx)
		result := orderService.Create(ctx, "00000000-0000-0000-0000-000000000000", []string{p1.ID}, nil)
		if result.Success {
			t.Fatal("expected failure for unknown customer")
		}
		if result.Message != "Invalid customer ID." {
			t.Errorf("unexpected message: %q", result.Message)
		}
		after, _ := orderRepo.Count(ctx)
		if before != after {
			t.Errorf("order count changed from %d to %d", before, after)
		}
	})

	t.Run("all missing product ids are reported", func(t *testing.T) {
		missing1 := "11111111-1111-1111-1111-111111111111"
		missing2 := "22222222-2222-2222-2222-222222222222"
		result := orderService.Create(ctx, customer.ID, []string{p1.ID, missing1, missing2}, nil)
		if result.Success {
			t.Fatal("expected failure for missing products")
		}
		want := "Invalid product IDs: [" + missing1 + " " + missing2 + "]"
		if result.Message != want {
			t.Errorf("message mismatch:\n got %q\nwant %q", result.Message, want)
		}
	})

	t.Run("empty product list fails", func(t *testing.T) {
		result := orderService.Create(ctx, customer.ID, nil, nil)
		if result.Success || result.Message != "At least one product ID must be provided." {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("order totals the current product prices", func(t *testing.T) {
		result := orderService.Create(ctx, customer.ID, []string{p1.ID, p2.ID}, nil)
		if !result.Success {
			t.Fatalf("expected success, got %q", result.Message)
		}
		if !result.Order.TotalAmount.Equal(decimal.RequireFromString("15.50")) {
			t.Errorf("expected total 15.50, got %s", result.Order.TotalAmount)
		}
		if len(result.Order.Products) != 2 {
			t.Errorf("expected 2 products, got %d", len(result.Order.Products))
		}

		var associations int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_products WHERE order_id = $1`, result.Order.ID).Scan(&associations); err != nil {
			t.Fatalf("failed to count associations: %v", err)
		}
		if associations != 2 {
			t.Errorf("expected 2 association rows, got %d", associations)
		}
	})

	t.Run("explicit order date is preserved", func(t *testing.T) {
		when := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
		result := orderService.Create(ctx, customer.ID, []string{p1.ID}, &when)
		if !result.Success {
			t.Fatalf("expected success, got %q", result.Message)
		}
		if !result.Order.OrderDate.Equal(when) {
			t.Errorf("expected order date %s, got %s", when, result.Order.OrderDate)
		}
	})
}

func TestRestockSweep(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	repo := products.NewProductRepository(db)
	service := products.NewService(repo, discardLogger())

	for _, p := range []struct {
		name  string
		stock int
	}{
		{"Mouse", 3},
		{"Monitor", 15},
		{"Webcam", 8},
	} {
		if r := service.Create(ctx, p.name, decimal.NewFromInt(20), p.stock); !r.Success {
			t.Fatalf("failed to create %s: %q", p.name, r.Message)
		}
	}

	result := service.RestockLowStock(ctx)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.Message != "Updated 2 low-stock products." {
		t.Errorf("unexpected message: %q", result.Message)
	}
	stocks := map[string]int{}
	for _, p := range result.UpdatedProducts {
		stocks[p.Name] = p.Stock
	}
	if stocks["Mouse"] != 13 || stocks["Webcam"] != 18 {
		t.Errorf("unexpected post-update stocks: %v", stocks)
	}
	if _, ok := stocks["Monitor"]; ok {
		t.Error("Monitor was not low-stock and must not be updated")
	}

	all, err := repo.List(ctx, products.ProductFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	persisted := map[string]int{}
	for _, p := range all {
		persisted[p.Name] = p.Stock
	}
	if persisted["Mouse"] != 13 || persisted["Monitor"] != 15 || persisted["Webcam"] != 18 {
		t.Errorf("unexpected persisted stocks: %v", persisted)
	}

	t.Run("second sweep only touches products still below the threshold", func(t *testing.T) {
		again := service.RestockLowStock(ctx)
		if again.Message != "No low-stock products found." {
			t.Errorf("unexpected message: %q", again.Message)
		}
		if len(again.UpdatedProducts) != 0 {
			t.Errorf("expected no updates, got %d", len(again.UpdatedProducts))
		}
	})
}

func TestRevenueAggregates(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	logger := discardLogger()
	customerRepo := customers.NewCustomerRepository(db)
	productRepo := products.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)

	revenue, err := orderRepo.SumRevenue(ctx)
	if err != nil {
		t.Fatalf("revenue query failed: %v", err)
	}
	if !revenue.IsZero() {
		t.Errorf("expected zero revenue with no orders, got %s", revenue)
	}

	customerService := customers.NewService(customerRepo, logger)
	productService := products.NewService(productRepo, logger)
	orderService := orders.NewService(orderRepo, customerRepo, productRepo, nil, logger)

	customer := customerService.Create(ctx, "Hana", "hana@example.com", "").Customer
	p1 := productService.Create(ctx, "Desk", decimal.RequireFromString("10.00"), 5).Product
	p2 := productService.Create(ctx, "Lamp", decimal.RequireFromString("5.50"), 5).Product

	if r := orderService.Create(ctx, customer.ID, []string{p1.ID, p2.ID}, nil); !r.Success {
		t.Fatalf("order creation failed: %q", r.Message)
	}

	revenue, err = orderRepo.SumRevenue(ctx)
	if err != nil {
		t.Fatalf("revenue query failed: %v", err)
	}
	if !revenue.Equal(decimal.RequireFromString("15.50")) {
		t.Errorf("expected revenue 15.50, got %s", revenue)
	}

	count, err := orderRepo.Count(ctx)
	if err != nil {
		t.Fatalf("order count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 order, got %d", count)
	}
}

func TestListFilters(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	logger := discardLogger()
	customerRepo := customers.NewCustomerRepository(db)
	productRepo := products.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)

	customerService := customers.NewService(customerRepo, logger)
	productService := products.NewService(productRepo, logger)
	orderService := orders.NewService(orderRepo, customerRepo, productRepo, nil, logger)

	alice := customerService.Create(ctx, "Alice Carter", "alice@shop.example", "+15550001111").Customer
	bob := customerService.Create(ctx, "Bob Diaz", "bob@shop.example", "555-000-2222").Customer

	keyboard := productService.Create(ctx, "Keyboard", decimal.RequireFromString("25.00"), 3).Product
	monitor := productService.Create(ctx, "Monitor", decimal.RequireFromString("180.00"), 12).Product

	aliceOrder := orderService.Create(ctx, alice.ID, []string{keyboard.ID, monitor.ID}, nil).Order
	if r := orderService.Create(ctx, bob.ID, []string{monitor.ID}, nil); !r.Success {
		t.Fatalf("bob's order failed: %q", r.Message)
	}

	t.Run("customer name and phone filters", func(t *testing.T) {
		byName, err := customerRepo.List(ctx, customers.CustomerFilter{NameContains: "carter"})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(byName) != 1 || byName[0].ID != alice.ID {
			t.Errorf("unexpected customers: %+v", byName)
		}

		byPhone, err := customerRepo.List(ctx, customers.CustomerFilter{PhonePrefix: "+1"})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(byPhone) != 1 || byPhone[0].ID != alice.ID {
			t.Errorf("unexpected customers: %+v", byPhone)
		}
	})

	t.Run("unsupported orderBy falls back to default order", func(t *testing.T) {
		ordered, err := customerRepo.List(ctx, customers.CustomerFilter{OrderBy: "no-such-field"})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(ordered) != 2 {
			t.Fatalf("expected 2 customers, got %d", len(ordered))
		}
		if ordered[0].ID != alice.ID {
			t.Errorf("expected default created_at ordering, got %+v", ordered)
		}
	})

	t.Run("low stock product filter", func(t *testing.T) {
		low, err := productRepo.List(ctx, products.ProductFilter{LowStock: true})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(low) != 1 || low[0].ID != keyboard.ID {
			t.Errorf("unexpected low-stock products: %+v", low)
		}
	})

	t.Run("orders filtered by contained product", func(t *testing.T) {
		withKeyboard, err := orderRepo.List(ctx, orders.OrderFilter{ContainsProductID: keyboard.ID})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(withKeyboard) != 1 || withKeyboard[0].ID != aliceOrder.ID {
			t.Errorf("unexpected orders: %+v", withKeyboard)
		}
		if withKeyboard[0].Customer == nil || withKeyboard[0].Customer.Email != alice.Email {
			t.Errorf("expected embedded customer, got %+v", withKeyboard[0].Customer)
		}
	})

	t.Run("orders filtered by customer name and total", func(t *testing.T) {
		totalGte := decimal.RequireFromString("200.00")
		big, err := orderRepo.List(ctx, orders.OrderFilter{CustomerName: "alice", TotalGte: &totalGte})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(big) != 1 || big[0].ID != aliceOrder.ID {
			t.Errorf("unexpected orders: %+v", big)
		}
	})
}

func TestOrderCreatedEventFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	brokers, cleanupKafka := SetupKafka(ctx, t)
	defer cleanupKafka()

	db := OpenDB(t, pg.ConnStr)
	defer func() { _ = db.Close() }()

	logger := discardLogger()
	customerRepo := customers.NewCustomerRepository(db)
	productRepo := products.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)

	producer := messaging.NewProducer(brokers, messaging.OrderCreatedTopic)
	defer func() { _ = producer.Close() }()

	customerService := customers.NewService(customerRepo, logger)
	productService := products.NewService(productRepo, logger)
	orderService := orders.NewService(orderRepo, customerRepo, productRepo, producer, logger)

	customer := customerService.Create(ctx, "Iris", "iris@example.com", "").Customer
	product := productService.Create(ctx, "Headset", decimal.RequireFromString("49.00"), 10).Product

	result := orderService.Create(ctx, customer.ID, []string{product.ID}, nil)
	if !result.Success {
		t.Fatalf("order creation failed: %q", result.Message)
	}

	consumer := messaging.NewConsumer(brokers, messaging.OrderCreatedTopic, "integration-test")
	defer func() { _ = consumer.Close() }()

	received := make(chan domain.OrderCreatedEvent, 1)
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = consumer.Consume(consumerCtx, func(ctx context.Context, payload []byte) error {
			var event domain.OrderCreatedEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				return err
			}
			received <- event
			return nil
		})
	}()

	select {
	case event := <-received:
		if event.OrderID != result.Order.ID {
			t.Errorf("expected order id %s, got %s", result.Order.ID, event.OrderID)
		}
		if event.CustomerEmail != "iris@example.com" {
			t.Errorf("unexpected customer email: %s", event.CustomerEmail)
		}
		if !event.Total.Equal(decimal.RequireFromString("49.00")) {
			t.Errorf("unexpected total: %s", event.Total)
		}
	case <-time.After(90 * time.Second):
		t.Fatal("timed out waiting for order created event")
	}

	stopConsumer()
	wg.Wait()
}
