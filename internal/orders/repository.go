package orders

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/crmflow/crmflow/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create writes the order row and all product associations in one
// transaction. Either the whole order becomes visible or none of it does.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, order_date, total_amount)
		VALUES ($1, $2, $3, $4)
	`, order.ID, order.CustomerID, order.OrderDate, order.TotalAmount)
	if err != nil {
		return err
	}

	for _, product := range order.Products {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_products (order_id, product_id)
			VALUES ($1, $2)
		`, order.ID, product.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SumRevenue totals every persisted order, recomputed on each call.
func (r *OrderRepository) SumRevenue(ctx context.Context) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0) FROM orders
	`).Scan(&revenue)
	if err != nil {
		return decimal.Zero, err
	}
	return revenue, nil
}

// OrderFilter narrows and orders List results. The related-entity criteria
// (product name, product ID) translate to EXISTS subqueries.
type OrderFilter struct {
	TotalGte          *decimal.Decimal
	TotalLte          *decimal.Decimal
	OrderDateGte      *time.Time
	OrderDateLte      *time.Time
	CustomerName      string
	ProductName       string
	ContainsProductID string
	OrderBy           string
}

var orderOrderColumns = map[string]string{
	"id":           "o.id",
	"order_date":   "o.order_date",
	"orderDate":    "o.order_date",
	"total_amount": "o.total_amount",
	"totalAmount":  "o.total_amount",
}

func (f OrderFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.TotalGte != nil {
		args = append(args, *f.TotalGte)
		conds = append(conds, fmt.Sprintf("o.total_amount >= $%d", len(args)))
	}
	if f.TotalLte != nil {
		args = append(args, *f.TotalLte)
		conds = append(conds, fmt.Sprintf("o.total_amount <= $%d", len(args)))
	}
	if f.OrderDateGte != nil {
		args = append(args, *f.OrderDateGte)
		conds = append(conds, fmt.Sprintf("o.order_date >= $%d", len(args)))
	}
	if f.OrderDateLte != nil {
		args = append(args, *f.OrderDateLte)
		conds = append(conds, fmt.Sprintf("o.order_date <= $%d", len(args)))
	}
	if f.CustomerName != "" {
		args = append(args, f.CustomerName)
		conds = append(conds, fmt.Sprintf("c.name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if f.ProductName != "" {
		args = append(args, f.ProductName)
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM order_products op JOIN products p ON p.id = op.product_id WHERE op.order_id = o.id AND p.name ILIKE '%%' || $%d || '%%')", len(args)))
	}
	if f.ContainsProductID != "" {
		args = append(args, f.ContainsProductID)
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM order_products op WHERE op.order_id = o.id AND op.product_id = $%d)", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns matching orders with their customer embedded and products
// attached via a single follow-up query keyed by order ID.
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	where, args := filter.whereClause()
	query := `
		SELECT o.id, o.customer_id, o.order_date, o.total_amount,
		       c.name, c.email, c.phone, c.created_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id` + where + `
		ORDER BY ` + orderClause(filter.OrderBy, "o.order_date DESC", orderOrderColumns)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		var customer domain.Customer
		if err := rows.Scan(
			&order.ID, &order.CustomerID, &order.OrderDate, &order.TotalAmount,
			&customer.Name, &customer.Email, &customer.Phone, &customer.CreatedAt,
		); err != nil {
			return nil, err
		}
		customer.ID = order.CustomerID
		order.Customer = &customer
		order.Products = []domain.Product{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	productRows, err := r.db.QueryContext(ctx, `
		SELECT op.order_id, p.id, p.name, p.price, p.stock
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = productRows.Close() }()

	for productRows.Next() {
		var orderID string
		var product domain.Product
		if err := productRows.Scan(&orderID, &product.ID, &product.Name, &product.Price, &product.Stock); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Products = append(order.Products, product)
	}

	if err := productRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func orderClause(orderBy, fallback string, columns map[string]string) string {
	if orderBy == "" {
		return fallback
	}
	field := orderBy
	desc := false
	if strings.HasPrefix(field, "-") {
		field = field[1:]
		desc = true
	}
	col, ok := columns[field]
	if !ok {
		return fallback
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
