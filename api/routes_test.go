package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/customeros/invoicestack/api/handlers"
	"github.com/customeros/invoicestack/api/middleware"
	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/internal/enum"
	invoicestack_errors "github.com/customeros/invoicestack/internal/errors"
	"github.com/customeros/invoicestack/internal/mocks"
	"github.com/customeros/invoicestack/internal/models"
	"github.com/customeros/invoicestack/internal/utils"
)

const testAPIKey = "test-api-key"

type apiFixture struct {
	router      *gin.Engine
	scanner     *mocks.ScannerService
	credentials *mocks.CredentialService
	ledger      *mocks.LedgerRepository
}

func newAPIFixture() *apiFixture {
	gin.SetMode(gin.TestMode)
	f := &apiFixture{
		router:      gin.New(),
		scanner:     &mocks.ScannerService{},
		credentials: &mocks.CredentialService{},
		ledger:      &mocks.LedgerRepository{},
	}
	RegisterRoutes(f.router, &handlers.APIHandlers{
		Scans:       handlers.NewScansHandler(f.scanner),
		Connections: handlers.NewConnectionsHandler(f.credentials, f.scanner),
		Ledger:      handlers.NewLedgerHandler(f.ledger),
	}, testAPIKey)
	return f
}

func (f *apiFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	f := newAPIFixture()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestAPIKeyRequired(t *testing.T) {
	f := newAPIFixture()

	req := httptest.NewRequest(http.MethodPost, "/v1/scans", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/scans", nil)
	req.Header.Set(middleware.APIKeyHeader, "wrong")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid API key", decodeBody(t, w)["error"])
}

func TestTriggerScan(t *testing.T) {
	f := newAPIFixture()
	f.scanner.On("Scan", mock.Anything, "user-1", enum.ScanModeInitial).
		Return(&dto.ScanResult{Found: 12, Processed: 10, InvoiceCount: 4, Skipped: 2}, nil)

	w := f.do(http.MethodPost, "/v1/scans", gin.H{"userId": "user-1", "mode": "initial"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(10), body["processed"])
	assert.Equal(t, float64(4), body["invoices_found"])
	assert.Equal(t, float64(12), body["total_emails"])
}

func TestTriggerScan_DefaultsToIncremental(t *testing.T) {
	f := newAPIFixture()
	f.scanner.On("Scan", mock.Anything, "user-1", enum.ScanModeIncremental).Return(&dto.ScanResult{}, nil).Once()

	w := f.do(http.MethodPost, "/v1/scans", gin.H{"userId": "user-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	f.scanner.AssertExpectations(t)
}

func TestTriggerScan_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not connected", err: errors.Wrap(invoicestack_errors.ErrNotConnected, "user-1"), status: http.StatusNotFound},
		{name: "refresh failed", err: errors.Wrap(invoicestack_errors.ErrRefreshFailed, "invalid_grant"), status: http.StatusBadGateway},
		{name: "search failed", err: errors.Wrap(invoicestack_errors.ErrProviderFetchFailed, "503"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture()
			f.scanner.On("Scan", mock.Anything, "user-1", enum.ScanModeIncremental).Return(nil, tt.err)

			w := f.do(http.MethodPost, "/v1/scans", gin.H{"userId": "user-1", "mode": "incremental"})

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.err.Error(), decodeBody(t, w)["error"])
		})
	}
}

func TestTriggerScan_BadRequest(t *testing.T) {
	f := newAPIFixture()

	w := f.do(http.MethodPost, "/v1/scans", gin.H{"mode": "initial"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/v1/scans", gin.H{"userId": "user-1", "mode": "full"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.scanner.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything, mock.Anything)
}

func TestConnect_TriggersInitialScan(t *testing.T) {
	f := newAPIFixture()
	f.credentials.On("Connect", mock.Anything, "user-1", "auth-code").
		Return(&models.MailCredential{UserID: "user-1", MailAddress: "billing@acme.com"}, nil)
	f.scanner.On("TriggerInitialScan", "user-1").Return().Once()

	w := f.do(http.MethodPost, "/v1/connections", gin.H{"userId": "user-1", "code": "auth-code"})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "billing@acme.com", decodeBody(t, w)["mailAddress"])
	f.scanner.AssertExpectations(t)
}

func TestConnect_FailureDoesNotScan(t *testing.T) {
	f := newAPIFixture()
	f.credentials.On("Connect", mock.Anything, "user-1", "auth-code").
		Return(nil, errors.New("authorization code exchange failed"))

	w := f.do(http.MethodPost, "/v1/connections", gin.H{"userId": "user-1", "code": "auth-code"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	f.scanner.AssertNotCalled(t, "TriggerInitialScan", mock.Anything)
}

func TestDisconnect(t *testing.T) {
	f := newAPIFixture()
	f.credentials.On("Disconnect", mock.Anything, "user-1").Return(nil)
	f.credentials.On("Disconnect", mock.Anything, "user-2").Return(invoicestack_errors.ErrNotConnected)

	w := f.do(http.MethodDelete, "/v1/connections/user-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodDelete, "/v1/connections/user-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLedger(t *testing.T) {
	f := newAPIFixture()
	processedAt := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	f.ledger.On("ListByUser", mock.Anything, "user-1", 10, 20).Return([]*models.LedgerEntry{
		{ProviderMessageID: "msg-1", Status: enum.LedgerStatusProcessed, LinkedInvoiceID: utils.StringPtr("inv_1"), ProcessedAt: processedAt},
		{ProviderMessageID: "msg-2", Status: enum.LedgerStatusRejected, ReasonText: utils.StringPtr("quote.pdf: quote"), ProcessedAt: processedAt},
	}, int64(22), nil)

	w := f.do(http.MethodGet, "/v1/users/user-1/ledger?limit=10&offset=20", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var response handlers.LedgerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(22), response.Total)
	require.Len(t, response.Entries, 2)
	assert.Equal(t, "processed", response.Entries[0].Status)
	assert.Equal(t, "inv_1", *response.Entries[0].LinkedInvoiceId)
	assert.Equal(t, "quote.pdf: quote", *response.Entries[1].Reason)
}

func TestListLedger_ClampsPaging(t *testing.T) {
	f := newAPIFixture()
	f.ledger.On("ListByUser", mock.Anything, "user-1", 50, 0).Return([]*models.LedgerEntry{}, int64(0), nil).Once()

	w := f.do(http.MethodGet, "/v1/users/user-1/ledger?limit=5000&offset=-3", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	f.ledger.AssertExpectations(t)
}
