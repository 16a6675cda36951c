package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/taghsit/installment-engine/internal/config"
	"github.com/taghsit/installment-engine/internal/domain"
	"github.com/taghsit/installment-engine/internal/notify"
	"github.com/taghsit/installment-engine/internal/repository"
	"github.com/taghsit/installment-engine/pkg/amortize"
	customError "github.com/taghsit/installment-engine/pkg/errors"
	"github.com/taghsit/installment-engine/pkg/jalali"
)

type AgreementService struct {
	AgreementRepo   repository.AgreementRepository
	InstallmentRepo repository.InstallmentRepository
	CustomerRepo    repository.CustomerRepository
	notifier        notify.Notifier
	redis           *redis.Client
	config          *config.Config
}

func NewAgreementService(
	agreementRepo repository.AgreementRepository,
	installmentRepo repository.InstallmentRepository,
	customerRepo repository.CustomerRepository,
	notifier notify.Notifier,
	redisClient *redis.Client,
	cfg *config.Config,
) *AgreementService {
	return &AgreementService{
		AgreementRepo:   agreementRepo,
		InstallmentRepo: installmentRepo,
		CustomerRepo:    customerRepo,
		notifier:        notifier,
		redis:           redisClient,
		config:          cfg,
	}
}

func scheduleCacheKey(agreementID uuid.UUID) string {
	return "schedule:" + agreementID.String()
}

// CreateAgreement computes the installment schedule for the given terms and
// persists the agreement together with all of its installments in one
// transaction. One agreement per order.
func (s *AgreementService) CreateAgreement(ctx context.Context, request *domain.CreateAgreementRequest) (*domain.InstallmentAgreement, []*domain.Installment, error) {
	// Check if the order already has an agreement
	existing, err := s.AgreementRepo.GetByOrderID(ctx, request.OrderID)
	if err == nil && existing != nil {
		return nil, nil, customError.WrapAgreementAlreadyExists(request.OrderID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	if _, err = s.CustomerRepo.GetByID(ctx, request.CustomerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, customError.WrapCustomerNotFound(request.CustomerID.String())
		}
		return nil, nil, customError.WrapDatabaseError(err)
	}

	// Normalize the agreement date to ASCII digits for storage. Persian
	// digits are accepted on the way in.
	date, ok := jalali.Parse(request.AgreementDate)
	if !ok {
		return nil, nil, customError.WrapInvalidAgreementTerms(
			fmt.Sprintf("agreement date %q is not a valid Jalali date", request.AgreementDate))
	}
	agreementDate := date.String()

	schedule, err := amortize.Compute(amortize.Terms{
		TotalAmount:          request.TotalAmount,
		DownPayment:          request.DownPayment,
		NumberOfInstallments: request.NumberOfInstallments,
		AnnualRate:           request.AnnualRate,
		AgreementDate:        agreementDate,
	})
	if err != nil {
		return nil, nil, customError.WrapInvalidAgreementTerms(
			"down payment must be smaller than the total amount and at least one installment is required")
	}

	now := time.Now()
	agreement := &domain.InstallmentAgreement{
		ID:                   uuid.New(),
		OrderID:              request.OrderID,
		CustomerID:           request.CustomerID,
		TotalAmount:          request.TotalAmount,
		DownPayment:          request.DownPayment,
		PrincipalAmount:      schedule.PrincipalAmount,
		AnnualRate:           request.AnnualRate,
		MonthlyRate:          schedule.MonthlyRatePercent,
		NumberOfInstallments: schedule.NumberOfInstallments,
		InstallmentAmount:    schedule.InstallmentAmount,
		TotalInterest:        schedule.TotalInterest,
		TotalPayment:         schedule.TotalPayment,
		GuaranteeType:        request.GuaranteeType,
		AgreementDate:        agreementDate,
		Status:               domain.AgreementStatusPending,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	installments := make([]*domain.Installment, 0, len(schedule.Lines))
	for _, line := range schedule.Lines {
		installments = append(installments, &domain.Installment{
			ID:                uuid.New(),
			AgreementID:       agreement.ID,
			Number:            line.Number,
			DueDate:           line.DueDate,
			InstallmentAmount: line.InstallmentAmount,
			InterestAmount:    line.InterestAmount,
			PrincipalAmount:   line.PrincipalAmount,
			RemainingBalance:  line.RemainingBalance,
			Status:            domain.InstallmentStatusPending,
			CreatedAt:         now,
		})
	}

	if err = s.AgreementRepo.CreateWithInstallments(ctx, agreement, installments); err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	s.cacheSchedule(ctx, agreement.ID, installments)

	return agreement, installments, nil
}

// GetAgreement returns an agreement by ID.
func (s *AgreementService) GetAgreement(ctx context.Context, agreementID uuid.UUID) (*domain.InstallmentAgreement, error) {
	agreement, err := s.AgreementRepo.GetByID(ctx, agreementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAgreementNotFound(agreementID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return agreement, nil
}

// GetSchedule returns the installment schedule with the derived three-state
// status: stored pending rows past their due date are shown as overdue.
func (s *AgreementService) GetSchedule(ctx context.Context, agreementID uuid.UUID) ([]*domain.Installment, error) {
	installments, ok := s.cachedSchedule(ctx, agreementID)
	if !ok {
		var err error
		installments, err = s.InstallmentRepo.GetByAgreementID(ctx, agreementID)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		if len(installments) == 0 {
			return nil, customError.WrapAgreementNotFound(agreementID.String())
		}
		s.cacheSchedule(ctx, agreementID, installments)
	}

	today := jalali.Today()
	for _, installment := range installments {
		installment.Status = installment.DisplayStatus(today)
	}

	return installments, nil
}

// GetOutstanding sums the amounts of installments not yet paid.
func (s *AgreementService) GetOutstanding(ctx context.Context, agreementID uuid.UUID) (*domain.OutstandingResponse, error) {
	installments, err := s.InstallmentRepo.GetByAgreementID(ctx, agreementID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if len(installments) == 0 {
		return nil, customError.WrapAgreementNotFound(agreementID.String())
	}

	outstanding := decimal.Zero
	pending := 0
	for _, installment := range installments {
		if installment.Status == domain.InstallmentStatusPending {
			outstanding = outstanding.Add(installment.InstallmentAmount)
			pending++
		}
	}

	return &domain.OutstandingResponse{
		AgreementID: agreementID,
		Outstanding: outstanding,
		Pending:     pending,
	}, nil
}

// PayInstallment marks one installment as paid. When the last pending
// installment is paid the agreement settles.
func (s *AgreementService) PayInstallment(ctx context.Context, agreementID uuid.UUID, number int) (*domain.Installment, error) {
	agreement, err := s.AgreementRepo.GetByID(ctx, agreementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAgreementNotFound(agreementID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if agreement.Status == domain.AgreementStatusSettled {
		return nil, customError.WrapAgreementSettled(agreementID.String())
	}

	installment, err := s.InstallmentRepo.GetByNumber(ctx, agreementID, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapInstallmentNotFound(agreementID.String(), number)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	paidAt := time.Now()
	changed, err := s.InstallmentRepo.MarkPaid(ctx, agreementID, number, paidAt)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if !changed {
		return nil, customError.WrapInstallmentAlreadyPaid(agreementID.String(), number)
	}

	installment.Status = domain.InstallmentStatusPaid
	installment.PaidAt = &paidAt

	pending, err := s.InstallmentRepo.CountPending(ctx, agreementID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if pending == 0 {
		if err = s.AgreementRepo.UpdateStatus(ctx, agreementID, domain.AgreementStatusSettled); err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
	}

	s.invalidateSchedule(ctx, agreementID)

	return installment, nil
}

// RemindUpcoming sends an SMS for every pending installment due within the
// next `days` days. Send failures are logged, never returned. Returns the
// number of reminders delivered.
func (s *AgreementService) RemindUpcoming(ctx context.Context, days int) (int, error) {
	from := jalali.FormatASCII(time.Now())
	to := jalali.FormatASCII(time.Now().AddDate(0, 0, days))

	installments, err := s.InstallmentRepo.GetPendingDueBetween(ctx, from, to)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	customers := make(map[uuid.UUID]*domain.Customer)
	sent := 0
	for _, installment := range installments {
		agreement, err := s.AgreementRepo.GetByID(ctx, installment.AgreementID)
		if err != nil {
			log.Printf("reminder: loading agreement %s: %v", installment.AgreementID, err)
			continue
		}

		customer, ok := customers[agreement.CustomerID]
		if !ok {
			customer, err = s.CustomerRepo.GetByID(ctx, agreement.CustomerID)
			if err != nil {
				log.Printf("reminder: loading customer %s: %v", agreement.CustomerID, err)
				continue
			}
			customers[agreement.CustomerID] = customer
		}

		message := reminderMessage(customer, installment)
		if err = s.notifier.Send(ctx, customer.Phone, message); err != nil {
			log.Printf("reminder: sending sms to %s: %v", customer.Phone, err)
			continue
		}
		sent++
	}

	return sent, nil
}

// ReportOverdue counts stored-pending installments past their due date and
// totals their amounts. Read-only: the overdue state is derived, never
// written back to the rows.
func (s *AgreementService) ReportOverdue(ctx context.Context) (int, decimal.Decimal, error) {
	installments, err := s.InstallmentRepo.GetPendingDueBefore(ctx, jalali.Today())
	if err != nil {
		return 0, decimal.Zero, customError.WrapDatabaseError(err)
	}

	total := decimal.Zero
	for _, installment := range installments {
		total = total.Add(installment.InstallmentAmount)
	}

	return len(installments), total, nil
}

func reminderMessage(customer *domain.Customer, installment *domain.Installment) string {
	return fmt.Sprintf(
		"مشتری گرامی %s، قسط شماره %s به مبلغ %s ریال در تاریخ %s سررسید می‌شود.",
		customer.FullName,
		jalali.ToPersianDigits(fmt.Sprintf("%d", installment.Number)),
		jalali.ToPersianDigits(installment.InstallmentAmount.StringFixed(0)),
		jalali.ToPersianDigits(installment.DueDate),
	)
}

func (s *AgreementService) cacheSchedule(ctx context.Context, agreementID uuid.UUID, installments []*domain.Installment) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(installments)
	if err != nil {
		log.Printf("cache: marshaling schedule %s: %v", agreementID, err)
		return
	}

	if err = s.redis.Set(ctx, scheduleCacheKey(agreementID), payload, s.config.Redis.CacheTTL).Err(); err != nil {
		log.Printf("cache: storing schedule %s: %v", agreementID, err)
	}
}

func (s *AgreementService) cachedSchedule(ctx context.Context, agreementID uuid.UUID) ([]*domain.Installment, bool) {
	if s.redis == nil {
		return nil, false
	}

	payload, err := s.redis.Get(ctx, scheduleCacheKey(agreementID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: reading schedule %s: %v", agreementID, err)
		}
		return nil, false
	}

	var installments []*domain.Installment
	if err = json.Unmarshal(payload, &installments); err != nil {
		log.Printf("cache: decoding schedule %s: %v", agreementID, err)
		return nil, false
	}

	return installments, true
}

func (s *AgreementService) invalidateSchedule(ctx context.Context, agreementID uuid.UUID) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Del(ctx, scheduleCacheKey(agreementID)).Err(); err != nil {
		log.Printf("cache: invalidating schedule %s: %v", agreementID, err)
	}
}
