package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/crmflow/crmflow/internal/domain"
)

const uniqueViolation = "23505"

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Insert persists one customer in its own transaction scope. A duplicate
// email caught by the unique index at commit time is reported as
// domain.ErrDuplicateEmail so the service can treat the race like an
// ordinary validation failure.
func (r *CustomerRepository) Insert(ctx context.Context, customer *domain.Customer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	customer.ID = uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, customer.ID, customer.Name, customer.Email, customer.Phone, customer.CreatedAt)
	if err != nil {
		return translateInsertErr(err)
	}

	if err := tx.Commit(); err != nil {
		return translateInsertErr(err)
	}
	return nil
}

func translateInsertErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrDuplicateEmail
	}
	return err
}

func (r *CustomerRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM customers WHERE lower(email) = lower($1))
	`, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	customer := &domain.Customer{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Phone, &customer.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return customer, nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CustomerFilter narrows and orders List results. Zero values mean the
// criterion is not applied.
type CustomerFilter struct {
	NameContains  string
	EmailContains string
	CreatedAtGte  *time.Time
	CreatedAtLte  *time.Time
	PhonePrefix   string
	OrderBy       string
}

var customerOrderColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
	"createdAt":  "created_at",
}

func (f CustomerFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.NameContains != "" {
		args = append(args, f.NameContains)
		conds = append(conds, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if f.EmailContains != "" {
		args = append(args, f.EmailContains)
		conds = append(conds, fmt.Sprintf("email ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if f.CreatedAtGte != nil {
		args = append(args, *f.CreatedAtGte)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.CreatedAtLte != nil {
		args = append(args, *f.CreatedAtLte)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if f.PhonePrefix != "" {
		args = append(args, f.PhonePrefix)
		conds = append(conds, fmt.Sprintf("phone LIKE $%d || '%%'", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *CustomerRepository) List(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error) {
	where, args := filter.whereClause()
	query := `
		SELECT id, name, email, phone, created_at
		FROM customers` + where + `
		ORDER BY ` + orderClause(filter.OrderBy, "created_at ASC", customerOrderColumns)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	customers := []domain.Customer{}
	for rows.Next() {
		var customer domain.Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Phone, &customer.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

// orderClause resolves a caller-supplied ordering field against a column
// whitelist. A leading "-" requests descending order. Unknown fields fall
// back to the default ordering instead of failing.
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
