package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallethub/ledgercore/internal/application/ledger"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/ledgererrors"
)

type fakeFlowService struct {
	response ledger.FlowResponse
	err      error
	lastReq  ledger.FlowRequest
}

func (f *fakeFlowService) TopUp(ctx context.Context, req ledger.FlowRequest) (ledger.FlowResponse, error) {
	f.lastReq = req
	return f.response, f.err
}
func (f *fakeFlowService) Bonus(ctx context.Context, req ledger.FlowRequest) (ledger.FlowResponse, error) {
	f.lastReq = req
	return f.response, f.err
}
func (f *fakeFlowService) Spend(ctx context.Context, req ledger.FlowRequest) (ledger.FlowResponse, error) {
	f.lastReq = req
	return f.response, f.err
}

func setupFlowRouter(svc FlowService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetupValidator()
	router := gin.New()
	NewFlowHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFlowHandler_TopUp_FreshExecutionReturns201(t *testing.T) {
	accountID := uuid.New()
	svc := &fakeFlowService{response: ledger.FlowResponse{
		TransactionID: uuid.New(),
		ReferenceID:   "ref-1",
		Type:          entities.CategoryTopUp,
		AccountID:     accountID,
		Amount:        "10.5",
		BalanceAfter:  "110.5",
		CreatedAt:     time.Now(),
	}}
	router := setupFlowRouter(svc)

	w := postJSON(router, "/api/v1/topups", map[string]any{
		"accountId":   accountID.String(),
		"amount":      "10.5",
		"referenceId": "ref-1",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, accountID, svc.lastReq.AccountID)
}

func TestFlowHandler_TopUp_IdempotentReplayReturns200(t *testing.T) {
	svc := &fakeFlowService{response: ledger.FlowResponse{Idempotent: true}}
	router := setupFlowRouter(svc)

	w := postJSON(router, "/api/v1/topups", map[string]any{
		"accountId":   uuid.New().String(),
		"amount":      "10.5",
		"referenceId": "ref-1",
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFlowHandler_Spend_InsufficientBalanceReturns422(t *testing.T) {
	svc := &fakeFlowService{err: ledgererrors.New(ledgererrors.KindInsufficientBalance, "insufficient balance", nil)}
	router := setupFlowRouter(svc)

	w := postJSON(router, "/api/v1/spends", map[string]any{
		"accountId":   uuid.New().String(),
		"amount":      "10.5",
		"referenceId": "ref-1",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestFlowHandler_RejectsMissingAccountID(t *testing.T) {
	svc := &fakeFlowService{}
	router := setupFlowRouter(svc)

	w := postJSON(router, "/api/v1/topups", map[string]any{
		"amount":      "10.5",
		"referenceId": "ref-1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlowHandler_RejectsMalformedAmount(t *testing.T) {
	svc := &fakeFlowService{}
	router := setupFlowRouter(svc)

	w := postJSON(router, "/api/v1/topups", map[string]any{
		"accountId":   uuid.New().String(),
		"amount":      "-5",
		"referenceId": "ref-1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
