package domain

import "github.com/shopspring/decimal"

// Mutation results carry a success flag and a human-readable message instead
// of surfacing errors to the caller. Callers must inspect Success.

type CustomerResult struct {
	Customer *Customer `json:"customer,omitempty"`
	Message  string    `json:"message"`
	Success  bool      `json:"success"`
}

type BulkCustomersResult struct {
	CreatedCustomers []Customer `json:"created_customers"`
	Errors           []string   `json:"errors"`
	Success          bool       `json:"success"`
}

type ProductResult struct {
	Product *Product `json:"product,omitempty"`
	Message string   `json:"message"`
	Success bool     `json:"success"`
}

type OrderResult struct {
	Order   *Order `json:"order,omitempty"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type RestockResult struct {
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
	UpdatedProducts []Product `json:"updated_products"`
}

// Stats is the aggregate summary used by the weekly report.
type Stats struct {
	TotalCustomers int             `json:"total_customers"`
	TotalOrders    int             `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}
