package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/taghsit/installment-engine/internal/domain"
	"github.com/taghsit/installment-engine/internal/service"
	customError "github.com/taghsit/installment-engine/pkg/errors"
	"github.com/taghsit/installment-engine/pkg/response"
)

type AgreementHandler struct {
	service   *service.AgreementService
	validator *validator.Validate
}

func NewAgreementHandler(svc *service.AgreementService) *AgreementHandler {
	return &AgreementHandler{
		service:   svc,
		validator: newValidator(),
	}
}

// newValidator builds a validator that understands decimal.Decimal fields,
// so numeric tags like gt/gte work on monetary amounts.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// CreateAgreement handles POST /api/v1/agreements
func (h *AgreementHandler) CreateAgreement(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateAgreementRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	agreement, installments, err := h.service.CreateAgreement(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, &domain.CreateAgreementResponse{
		Agreement:    agreement,
		Installments: installments,
	})
}

// GetAgreement handles GET /api/v1/agreements/{agreementId}
func (h *AgreementHandler) GetAgreement(w http.ResponseWriter, r *http.Request) {
	agreementID, ok := agreementIDFromRequest(w, r)
	if !ok {
		return
	}

	agreement, err := h.service.GetAgreement(r.Context(), agreementID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, agreement)
}

// GetSchedule handles GET /api/v1/agreements/{agreementId}/schedule
func (h *AgreementHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	agreementID, ok := agreementIDFromRequest(w, r)
	if !ok {
		return
	}

	installments, err := h.service.GetSchedule(r.Context(), agreementID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, &domain.ScheduleResponse{
		AgreementID:  agreementID,
		Installments: installments,
	})
}

// GetOutstanding handles GET /api/v1/agreements/{agreementId}/outstanding
func (h *AgreementHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	agreementID, ok := agreementIDFromRequest(w, r)
	if !ok {
		return
	}

	outstanding, err := h.service.GetOutstanding(r.Context(), agreementID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, outstanding)
}

// PayInstallment handles POST /api/v1/agreements/{agreementId}/installments/{number}/payment
func (h *AgreementHandler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	agreementID, ok := agreementIDFromRequest(w, r)
	if !ok {
		return
	}

	number, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil || number < 1 {
		response.BadRequest(w, "installment number must be a positive integer", err)
		return
	}

	installment, err := h.service.PayInstallment(r.Context(), agreementID, number)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, installment)
}

func agreementIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	agreementID, err := uuid.Parse(mux.Vars(r)["agreementId"])
	if err != nil {
		response.BadRequest(w, "agreement id must be a valid UUID", err)
		return uuid.Nil, false
	}
	return agreementID, true
}

// writeBusinessError maps BusinessError codes onto HTTP statuses.
func writeBusinessError(w http.ResponseWriter, err error) {
	var bizErr *customError.BusinessError
	if !errors.As(err, &bizErr) {
		response.InternalServerError(w, "unexpected error", err)
		return
	}

	switch bizErr.Code {
	case customError.ErrCodeAgreementNotFound,
		customError.ErrCodeInstallmentNotFound,
		customError.ErrCodeCustomerNotFound:
		response.NotFound(w, bizErr.Message)
	case customError.ErrCodeAgreementAlreadyExists,
		customError.ErrCodeInstallmentAlreadyPaid,
		customError.ErrCodeAgreementSettled:
		response.Conflict(w, bizErr.Message, bizErr.Err)
	case customError.ErrCodeInvalidAgreementTerms:
		response.UnprocessableEntity(w, bizErr.Message, bizErr.Err)
	default:
		response.InternalServerError(w, bizErr.Message, bizErr.Err)
	}
}
