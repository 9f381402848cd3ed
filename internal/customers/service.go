package customers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/crmflow/crmflow/internal/domain"
	"github.com/crmflow/crmflow/internal/validate"
)

type Service struct {
	repo   *CustomerRepository
	logger *slog.Logger
}

func NewService(repo *CustomerRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create validates and persists a single customer. Every failure, including
// a duplicate-email race at commit time, comes back as a result with
// Success=false rather than an error.
func (s *Service) Create(ctx context.Context, name, email, phone string) domain.CustomerResult {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if err := s.checkNewCustomer(ctx, email, phone); err != nil {
		return domain.CustomerResult{Message: err.Error()}
	}

	customer := &domain.Customer{
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, customer); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return domain.CustomerResult{Message: domain.ErrDuplicateEmail.Error()}
		}
		s.logger.Error("failed to create customer", "error", err, "email", email)
		return domain.CustomerResult{Message: fmt.Sprintf("Error creating customer: %v", err)}
	}

	s.logger.Info("customer created", "customer_id", customer.ID)
	return domain.CustomerResult{
		Customer: customer,
		Message:  "Customer created successfully!",
		Success:  true,
	}
}

// BulkCreate processes entries in input order, each in its own transaction
// scope, so one entry's failure rolls back only that entry. The batch is
// best effort, not all-or-nothing: earlier successes stay committed no
// matter what later entries do.
func (s *Service) BulkCreate(ctx context.Context, inputs []domain.CustomerInput) domain.BulkCustomersResult {
	created := []domain.Customer{}
	var errs []string

	for i, input := range inputs {
		customer, err := s.createRecord(ctx, input)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Record %d: %s", i+1, err))
			continue
		}
		created = append(created, *customer)
	}

	s.logger.Info("bulk customer create finished", "created", len(created), "failed", len(errs))
	return domain.BulkCustomersResult{
		CreatedCustomers: created,
		Errors:           errs,
		Success:          len(errs) == 0,
	}
}

func (s *Service) createRecord(ctx context.Context, input domain.CustomerInput) (*domain.Customer, error) {
	// Unlike Create, the bulk path also trims the phone. Preserved as is.
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)

	if err := s.checkNewCustomer(ctx, email, phone); err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		Name:      strings.TrimSpace(input.Name),
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *Service) checkNewCustomer(ctx context.Context, email, phone string) error {
	if err := validate.Email(email); err != nil {
		return err
	}
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateEmail
	}
	return validate.Phone(phone)
}
