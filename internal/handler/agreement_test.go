package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taghsit/installment-engine/internal/config"
	"github.com/taghsit/installment-engine/internal/domain"
	"github.com/taghsit/installment-engine/internal/handler"
	"github.com/taghsit/installment-engine/internal/notify"
	"github.com/taghsit/installment-engine/internal/service"
)

type stubAgreementRepo struct {
	mock.Mock
}

func (m *stubAgreementRepo) CreateWithInstallments(ctx context.Context, agreement *domain.InstallmentAgreement, installments []*domain.Installment) error {
	args := m.Called(ctx, agreement, installments)
	return args.Error(0)
}

func (m *stubAgreementRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentAgreement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InstallmentAgreement), args.Error(1)
}

func (m *stubAgreementRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.InstallmentAgreement, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InstallmentAgreement), args.Error(1)
}

func (m *stubAgreementRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type stubInstallmentRepo struct {
	mock.Mock
}

func (m *stubInstallmentRepo) GetByAgreementID(ctx context.Context, agreementID uuid.UUID) ([]*domain.Installment, error) {
	args := m.Called(ctx, agreementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *stubInstallmentRepo) GetByNumber(ctx context.Context, agreementID uuid.UUID, number int) (*domain.Installment, error) {
	args := m.Called(ctx, agreementID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Installment), args.Error(1)
}

func (m *stubInstallmentRepo) MarkPaid(ctx context.Context, agreementID uuid.UUID, number int, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, agreementID, number, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *stubInstallmentRepo) CountPending(ctx context.Context, agreementID uuid.UUID) (int, error) {
	args := m.Called(ctx, agreementID)
	return args.Int(0), args.Error(1)
}

func (m *stubInstallmentRepo) GetPendingDueBetween(ctx context.Context, from, to string) ([]*domain.Installment, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *stubInstallmentRepo) GetPendingDueBefore(ctx context.Context, date string) ([]*domain.Installment, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

type stubCustomerRepo struct {
	mock.Mock
}

func (m *stubCustomerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *stubCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

type testServer struct {
	router          *mux.Router
	agreementRepo   *stubAgreementRepo
	installmentRepo *stubInstallmentRepo
	customerRepo    *stubCustomerRepo
}

func newTestServer() *testServer {
	agreementRepo := new(stubAgreementRepo)
	installmentRepo := new(stubInstallmentRepo)
	customerRepo := new(stubCustomerRepo)

	svc := service.NewAgreementService(agreementRepo, installmentRepo, customerRepo, notify.Nop{}, nil, &config.Config{})
	agreementHandler := handler.NewAgreementHandler(svc)
	customerHandler := handler.NewCustomerHandler(service.NewCustomerService(customerRepo))

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/agreements", agreementHandler.CreateAgreement).Methods("POST")
	api.HandleFunc("/agreements/{agreementId}", agreementHandler.GetAgreement).Methods("GET")
	api.HandleFunc("/agreements/{agreementId}/schedule", agreementHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/agreements/{agreementId}/outstanding", agreementHandler.GetOutstanding).Methods("GET")
	api.HandleFunc("/agreements/{agreementId}/installments/{number}/payment", agreementHandler.PayInstallment).Methods("POST")
	api.HandleFunc("/customers", customerHandler.CreateCustomer).Methods("POST")
	api.HandleFunc("/customers/{customerId}", customerHandler.GetCustomer).Methods("GET")

	return &testServer{
		router:          router,
		agreementRepo:   agreementRepo,
		installmentRepo: installmentRepo,
		customerRepo:    customerRepo,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	ts.router.ServeHTTP(recorder, req)
	return recorder
}

func validCreateBody(customerID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"order_id":               "ORD-1001",
		"customer_id":            customerID.String(),
		"total_amount":           "10000000",
		"down_payment":           "1000000",
		"number_of_installments": 12,
		"annual_rate":            "36",
		"guarantee_type":         "cheque",
		"agreement_date":         "1403/01/01",
	}
}

func TestCreateAgreementEndpoint(t *testing.T) {
	t.Run("creates agreement", func(t *testing.T) {
		ts := newTestServer()
		customerID := uuid.New()

		ts.agreementRepo.On("GetByOrderID", mock.Anything, "ORD-1001").Return(nil, sql.ErrNoRows)
		ts.customerRepo.On("GetByID", mock.Anything, customerID).Return(&domain.Customer{ID: customerID}, nil)
		ts.agreementRepo.On("CreateWithInstallments", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		recorder := ts.do(t, http.MethodPost, "/api/v1/agreements", validCreateBody(customerID))

		assert.Equal(t, http.StatusCreated, recorder.Code)

		var envelope struct {
			Success bool `json:"success"`
			Data    struct {
				Agreement    *domain.InstallmentAgreement `json:"agreement"`
				Installments []*domain.Installment        `json:"installments"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
		assert.True(t, envelope.Success)
		require.NotNil(t, envelope.Data.Agreement)
		assert.Len(t, envelope.Data.Installments, 12)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		ts := newTestServer()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/agreements", bytes.NewReader([]byte("{not json")))
		recorder := httptest.NewRecorder()
		ts.router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("rejects installment count above the cap", func(t *testing.T) {
		ts := newTestServer()
		body := validCreateBody(uuid.New())
		body["number_of_installments"] = 61

		recorder := ts.do(t, http.MethodPost, "/api/v1/agreements", body)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		ts.agreementRepo.AssertNotCalled(t, "GetByOrderID", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown guarantee type", func(t *testing.T) {
		ts := newTestServer()
		body := validCreateBody(uuid.New())
		body["guarantee_type"] = "cash"

		recorder := ts.do(t, http.MethodPost, "/api/v1/agreements", body)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("conflict when order already has an agreement", func(t *testing.T) {
		ts := newTestServer()
		customerID := uuid.New()

		ts.agreementRepo.On("GetByOrderID", mock.Anything, "ORD-1001").
			Return(&domain.InstallmentAgreement{OrderID: "ORD-1001"}, nil)

		recorder := ts.do(t, http.MethodPost, "/api/v1/agreements", validCreateBody(customerID))

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("unprocessable when down payment swallows the total", func(t *testing.T) {
		ts := newTestServer()
		customerID := uuid.New()
		body := validCreateBody(customerID)
		body["down_payment"] = "10000000"

		ts.agreementRepo.On("GetByOrderID", mock.Anything, "ORD-1001").Return(nil, sql.ErrNoRows)
		ts.customerRepo.On("GetByID", mock.Anything, customerID).Return(&domain.Customer{ID: customerID}, nil)

		recorder := ts.do(t, http.MethodPost, "/api/v1/agreements", body)

		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	})
}

func TestGetAgreementEndpoint(t *testing.T) {
	t.Run("bad uuid", func(t *testing.T) {
		ts := newTestServer()

		recorder := ts.do(t, http.MethodGet, "/api/v1/agreements/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("not found", func(t *testing.T) {
		ts := newTestServer()
		agreementID := uuid.New()

		ts.agreementRepo.On("GetByID", mock.Anything, agreementID).Return(nil, sql.ErrNoRows)

		recorder := ts.do(t, http.MethodGet, "/api/v1/agreements/"+agreementID.String(), nil)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestPayInstallmentEndpoint(t *testing.T) {
	agreementID := uuid.New()

	t.Run("pays a pending installment", func(t *testing.T) {
		ts := newTestServer()

		ts.agreementRepo.On("GetByID", mock.Anything, agreementID).
			Return(&domain.InstallmentAgreement{ID: agreementID, Status: domain.AgreementStatusPending}, nil)
		ts.installmentRepo.On("GetByNumber", mock.Anything, agreementID, 2).
			Return(&domain.Installment{AgreementID: agreementID, Number: 2, Status: domain.InstallmentStatusPending}, nil)
		ts.installmentRepo.On("MarkPaid", mock.Anything, agreementID, 2, mock.Anything).Return(true, nil)
		ts.installmentRepo.On("CountPending", mock.Anything, agreementID).Return(10, nil)

		recorder := ts.do(t, http.MethodPost,
			"/api/v1/agreements/"+agreementID.String()+"/installments/2/payment", nil)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("conflict on double payment", func(t *testing.T) {
		ts := newTestServer()

		ts.agreementRepo.On("GetByID", mock.Anything, agreementID).
			Return(&domain.InstallmentAgreement{ID: agreementID, Status: domain.AgreementStatusPending}, nil)
		ts.installmentRepo.On("GetByNumber", mock.Anything, agreementID, 2).
			Return(&domain.Installment{AgreementID: agreementID, Number: 2, Status: domain.InstallmentStatusPaid}, nil)
		ts.installmentRepo.On("MarkPaid", mock.Anything, agreementID, 2, mock.Anything).Return(false, nil)

		recorder := ts.do(t, http.MethodPost,
			"/api/v1/agreements/"+agreementID.String()+"/installments/2/payment", nil)

		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("rejects non-numeric installment number", func(t *testing.T) {
		ts := newTestServer()

		recorder := ts.do(t, http.MethodPost,
			"/api/v1/agreements/"+agreementID.String()+"/installments/abc/payment", nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestCustomerEndpoints(t *testing.T) {
	t.Run("creates customer", func(t *testing.T) {
		ts := newTestServer()

		ts.customerRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Customer) bool {
			return c.FullName == "رضا محمدی" && c.Phone == "09121234567"
		})).Return(nil)

		recorder := ts.do(t, http.MethodPost, "/api/v1/customers", map[string]interface{}{
			"full_name":   "رضا محمدی",
			"phone":       "09121234567",
			"national_id": "0012345678",
		})

		assert.Equal(t, http.StatusCreated, recorder.Code)
	})

	t.Run("rejects missing phone", func(t *testing.T) {
		ts := newTestServer()

		recorder := ts.do(t, http.MethodPost, "/api/v1/customers", map[string]interface{}{
			"full_name": "رضا محمدی",
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
