package products

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/crmflow/crmflow/internal/domain"
)

// LowStockThreshold marks a product as low-stock when its stock is below it.
const LowStockThreshold = 10

// RestockIncrement is added to every low-stock product by a restock sweep.
const RestockIncrement = 10

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	product.ID = uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, name, price, stock)
		VALUES ($1, $2, $3, $4)
	`, product.ID, product.Name, product.Price, product.Stock)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetByIDs resolves the given product IDs and reports every ID that did not
// resolve, preserving the caller's order for the missing list.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, []string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price, stock
		FROM products
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	found := make(map[string]domain.Product)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.Stock); err != nil {
			return nil, nil, err
		}
		found[product.ID] = product
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var products []domain.Product
	var missing []string
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		product, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		products = append(products, product)
	}

	return products, missing, nil
}

// RestockLowStock raises every product below the threshold by the increment
// inside one transaction and returns the affected products with their new
// stock values. Repeated sweeps keep adding to anything still below the
// threshold; there is no ceiling.
func (r *ProductRepository) RestockLowStock(ctx context.Context, threshold, increment int) ([]domain.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, price, stock
		FROM products
		WHERE stock < $1
		ORDER BY name
	`, threshold)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.Stock); err != nil {
			_ = rows.Close()
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range products {
		products[i].Stock += increment
		_, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = $1 WHERE id = $2
		`, products[i].Stock, products[i].ID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return products, nil
}

// ProductFilter narrows and orders List results.
type ProductFilter struct {
	NameContains string
	PriceGte     *decimal.Decimal
	PriceLte     *decimal.Decimal
	StockGte     *int
	StockLte     *int
	LowStock     bool
	OrderBy      string
}

var productOrderColumns = map[string]string{
	"id":    "id",
	"name":  "name",
	"price": "price",
	"stock": "stock",
}

func (f ProductFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.NameContains != "" {
		args = append(args, f.NameContains)
		conds = append(conds, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if f.PriceGte != nil {
		args = append(args, *f.PriceGte)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.PriceLte != nil {
		args = append(args, *f.PriceLte)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}
	if f.StockGte != nil {
		args = append(args, *f.StockGte)
		conds = append(conds, fmt.Sprintf("stock >= $%d", len(args)))
	}
	if f.StockLte != nil {
		args = append(args, *f.StockLte)
		conds = append(conds, fmt.Sprintf("stock <= $%d", len(args)))
	}
	if f.LowStock {
		args = append(args, LowStockThreshold)
		conds = append(conds, fmt.Sprintf("stock < $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *ProductRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	where, args := filter.whereClause()
	query := `
		SELECT id, name, price, stock
		FROM products` + where + `
		ORDER BY ` + orderClause(filter.OrderBy, "name ASC", productOrderColumns)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.Stock); err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
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
