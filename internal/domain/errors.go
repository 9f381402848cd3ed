package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation and lookup failures surfaced to API callers. Their messages are
// returned verbatim in mutation results, so they are written for display.
var (
	ErrInvalidEmail    = errors.New("Invalid email format.")
	ErrDuplicateEmail  = errors.New("Email already exists.")
	ErrInvalidPhone    = errors.New("Invalid phone number format. Use +1234567890 or 123-456-7890.")
	ErrInvalidPrice    = errors.New("Price must be a positive value.")
	ErrInvalidStock    = errors.New("Stock cannot be negative.")
	ErrInvalidCustomer = errors.New("Invalid customer ID.")
	ErrNoProducts      = errors.New("At least one product ID must be provided.")
)

// InvalidProductsError reports every product ID of an order request that did
// not resolve, not just the first one.
type InvalidProductsError struct {
	IDs []string
}

func (e *InvalidProductsError) Error() string {
	return fmt.Sprintf("Invalid product IDs: [%s]", strings.Join(e.IDs, " "))
}
