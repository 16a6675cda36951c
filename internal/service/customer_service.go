package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/taghsit/installment-engine/internal/domain"
	"github.com/taghsit/installment-engine/internal/repository"
	customError "github.com/taghsit/installment-engine/pkg/errors"
)

type CustomerService struct {
	CustomerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) *CustomerService {
	return &CustomerService{CustomerRepo: customerRepo}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, request *domain.CreateCustomerRequest) (*domain.Customer, error) {
	customer := &domain.Customer{
		ID:         uuid.New(),
		FullName:   request.FullName,
		Phone:      request.Phone,
		NationalID: request.NationalID,
		CreatedAt:  time.Now(),
	}

	if err := s.CustomerRepo.Create(ctx, customer); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Customer, error) {
	customer, err := s.CustomerRepo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapCustomerNotFound(customerID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return customer, nil
}
