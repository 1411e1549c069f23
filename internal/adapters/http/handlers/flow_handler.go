package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/adapters/http/common"
	"github.com/wallethub/ledgercore/internal/application/ledger"
	"github.com/wallethub/ledgercore/internal/domain/money"
)

// FlowService is the subset of ledger.Service a flow handler calls.
// Narrowed to an interface so handlers can be tested against a fake.
type FlowService interface {
	TopUp(ctx context.Context, req ledger.FlowRequest) (ledger.FlowResponse, error)
	Bonus(ctx context.Context, req ledger.FlowRequest) (ledger.FlowResponse, error)
	Spend(ctx context.Context, req ledger.FlowRequest) (ledger.FlowResponse, error)
}

// FlowHandler exposes the three money-movement flows as HTTP endpoints.
type FlowHandler struct {
	service FlowService
}

func NewFlowHandler(service FlowService) *FlowHandler {
	return &FlowHandler{service: service}
}

// flowRequestBody is spec §6's mutating-endpoint request shape.
type flowRequestBody struct {
	AccountID   string         `json:"accountId" binding:"required,uuid"`
	Amount      string         `json:"amount" binding:"required,ledger_amount"`
	ReferenceID string         `json:"referenceId" binding:"required,max=255"`
	Description string         `json:"description" binding:"max=500"`
	Metadata    map[string]any `json:"metadata"`
}

func (b flowRequestBody) toFlowRequest() (ledger.FlowRequest, error) {
	accountID, err := uuid.Parse(b.AccountID)
	if err != nil {
		return ledger.FlowRequest{}, err
	}
	magnitude, err := money.NewFromString(b.Amount)
	if err != nil {
		return ledger.FlowRequest{}, err
	}
	return ledger.FlowRequest{
		AccountID:   accountID,
		Magnitude:   magnitude,
		Reference:   b.ReferenceID,
		Description: b.Description,
		Metadata:    b.Metadata,
	}, nil
}

func (h *FlowHandler) bind(c *gin.Context) (ledger.FlowRequest, bool) {
	var body flowRequestBody
	if !BindJSON(c, &body) {
		return ledger.FlowRequest{}, false
	}
	req, err := body.toFlowRequest()
	if err != nil {
		common.ValidationError(c, []common.FieldError{{Field: "amount", Message: err.Error()}})
		return ledger.FlowRequest{}, false
	}
	return req, true
}

// statusFor reports 201 for a fresh posting, 200 for an idempotent replay.
func statusFor(resp ledger.FlowResponse) int {
	if resp.Idempotent {
		return http.StatusOK
	}
	return http.StatusCreated
}

// TopUp handles POST /api/v1/topups.
func (h *FlowHandler) TopUp(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	resp, err := h.service.TopUp(c.Request.Context(), req)
	if err != nil {
		common.HandleLedgerError(c, err)
		return
	}
	common.Success(c, statusFor(resp), resp)
}

// Bonus handles POST /api/v1/bonuses.
func (h *FlowHandler) Bonus(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	resp, err := h.service.Bonus(c.Request.Context(), req)
	if err != nil {
		common.HandleLedgerError(c, err)
		return
	}
	common.Success(c, statusFor(resp), resp)
}

// Spend handles POST /api/v1/spends.
func (h *FlowHandler) Spend(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	resp, err := h.service.Spend(c.Request.Context(), req)
	if err != nil {
		common.HandleLedgerError(c, err)
		return
	}
	common.Success(c, statusFor(resp), resp)
}

// RegisterRoutes wires the flow endpoints onto a router group.
func (h *FlowHandler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/topups", h.TopUp)
	router.POST("/bonuses", h.Bonus)
	router.POST("/spends", h.Spend)
}
