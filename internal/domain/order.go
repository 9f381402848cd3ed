package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Customer   *Customer `json:"customer,omitempty"`
	Products   []Product `json:"products"`
	OrderDate  time.Time `json:"order_date"`
	// TotalAmount is the sum of the referenced products' prices at creation
	// time. It is not recomputed when product prices change later.
	TotalAmount decimal.Decimal `json:"total_amount"`
}
