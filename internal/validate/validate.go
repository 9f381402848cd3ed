// Package validate holds the pure input checks shared by the mutation
// services. None of these functions touch the store; email uniqueness is a
// repository concern handled by the customer service.
package validate

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/crmflow/crmflow/internal/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// Either "+" followed by 7-15 digits, or 7-20 characters of
	// digits, dashes and spaces.
	phonePattern = regexp.MustCompile(`^(\+?[0-9]{7,15}|[0-9\-\s]{7,20})$`)
)

func Email(email string) error {
	if !emailPattern.MatchString(email) {
		return domain.ErrInvalidEmail
	}
	return nil
}

// Phone accepts an empty phone; the field is optional.
func Phone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return domain.ErrInvalidPhone
	}
	return nil
}

func Price(price decimal.Decimal) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidPrice
	}
	return nil
}

func Stock(stock int) error {
	if stock < 0 {
		return domain.ErrInvalidStock
	}
	return nil
}
