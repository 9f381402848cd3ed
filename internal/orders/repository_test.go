package orders

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderFilterWhereClause(t *testing.T) {
	t.Run("empty filter produces no clause", func(t *testing.T) {
		where, args := OrderFilter{}.whereClause()
		if where != "" || len(args) != 0 {
			t.Errorf("expected empty clause, got %q with args %v", where, args)
		}
	})

	t.Run("product criteria use EXISTS subqueries", func(t *testing.T) {
		totalGte := decimal.NewFromFloat(10.00)
		filter := OrderFilter{
			TotalGte:          &totalGte,
			ProductName:       "widget",
			ContainsProductID: "p-1",
		}
		where, args := filter.whereClause()

		if !strings.Contains(where, "o.total_amount >= $1") {
			t.Errorf("missing total condition in %q", where)
		}
		if !strings.Contains(where, "p.name ILIKE '%' || $2 || '%'") {
			t.Errorf("missing product name condition in %q", where)
		}
		if !strings.Contains(where, "op.product_id = $3") {
			t.Errorf("missing product id condition in %q", where)
		}
		if len(args) != 3 {
			t.Errorf("expected 3 args, got %d", len(args))
		}
	})
}

func TestOrderOrderClause(t *testing.T) {
	if got := orderClause("-totalAmount", "o.order_date DESC", orderOrderColumns); got != "o.total_amount DESC" {
		t.Errorf("orderClause(-totalAmount) = %q", got)
	}
	if got := orderClause("customer", "o.order_date DESC", orderOrderColumns); got != "o.order_date DESC" {
		t.Errorf("orderClause(customer) = %q, want fallback", got)
	}
}
