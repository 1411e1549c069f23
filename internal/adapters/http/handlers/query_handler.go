package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/adapters/http/common"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

// QueryService is the subset of ledger.Service a query handler calls.
type QueryService interface {
	Balance(ctx context.Context, accountID uuid.UUID) (ports.BalanceSnapshot, error)
	History(ctx context.Context, accountID uuid.UUID, filter ports.HistoryFilter) (ports.HistoryPage, error)
	Audit(ctx context.Context, accountID uuid.UUID) (ports.AuditReport, error)
}

// QueryHandler exposes the balance, history and audit reads as HTTP
// endpoints. money.Amount carries no JSON marshaling of its own, so
// every response here goes through a DTO that renders it as a string.
type QueryHandler struct {
	service QueryService
}

func NewQueryHandler(service QueryService) *QueryHandler {
	return &QueryHandler{service: service}
}

type accountIDParam struct {
	AccountID string `uri:"accountId" binding:"required,uuid"`
}

type balanceDTO struct {
	AccountID     uuid.UUID `json:"accountId"`
	AssetTypeCode string    `json:"assetTypeCode"`
	Amount        string    `json:"amount"`
	Version       int64     `json:"version"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toBalanceDTO(s ports.BalanceSnapshot) balanceDTO {
	return balanceDTO{
		AccountID:     s.AccountID,
		AssetTypeCode: s.AssetTypeCode,
		Amount:        s.Amount.String(),
		Version:       s.Version,
		UpdatedAt:     s.UpdatedAt,
	}
}

// Balance handles GET /api/v1/accounts/:accountId/balance.
func (h *QueryHandler) Balance(c *gin.Context) {
	var params accountIDParam
	if !BindURI(c, &params) {
		return
	}
	accountID := uuid.MustParse(params.AccountID)

	snap, err := h.service.Balance(c.Request.Context(), accountID)
	if err != nil {
		common.HandleLedgerError(c, err)
		return
	}
	common.Success(c, http.StatusOK, toBalanceDTO(snap))
}

type historyEntryDTO struct {
	JournalEntryID uuid.UUID `json:"journalEntryId"`
	TransactionID  uuid.UUID `json:"transactionId"`
	Category       string    `json:"category"`
	Reference      string    `json:"referenceId"`
	Description    string    `json:"description,omitempty"`
	Amount         string    `json:"amount"`
	BalanceAfter   string    `json:"balanceAfter"`
	CreatedAt      time.Time `json:"createdAt"`
}

type historyPageDTO struct {
	Entries []historyEntryDTO `json:"entries"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

func toHistoryPageDTO(page ports.HistoryPage, limit, offset int) historyPageDTO {
	entries := make([]historyEntryDTO, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, historyEntryDTO{
			JournalEntryID: e.JournalEntryID,
			TransactionID:  e.TransactionID,
			Category:       string(e.Category),
			Reference:      e.Reference,
			Description:    e.Description,
			Amount:         e.Amount.String(),
			BalanceAfter:   e.BalanceAfter.String(),
			CreatedAt:      e.CreatedAt,
		})
	}
	return historyPageDTO{Entries: entries, Total: page.Total, Limit: limit, Offset: offset}
}

type historyQueryParams struct {
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
	Category string `form:"category" binding:"omitempty,oneof=TOP_UP BONUS SPEND"`
}

// History handles GET /api/v1/accounts/:accountId/history.
func (h *QueryHandler) History(c *gin.Context) {
	var params accountIDParam
	if !BindURI(c, &params) {
		return
	}
	accountID := uuid.MustParse(params.AccountID)

	query := historyQueryParams{Limit: 20, Offset: 0}
	if !BindQuery(c, &query) {
		return
	}

	filter := ports.HistoryFilter{Limit: query.Limit, Offset: query.Offset}
	if query.Category != "" {
		category := entities.Category(query.Category)
		filter.Category = &category
	}

	page, err := h.service.History(c.Request.Context(), accountID, filter)
	if err != nil {
		common.HandleLedgerError(c, err)
		return
	}
	common.Success(c, http.StatusOK, toHistoryPageDTO(page, filter.Limit, filter.Offset))
}

type auditReportDTO struct {
	AccountID         uuid.UUID `json:"accountId"`
	CachedBalance     string    `json:"cachedBalance"`
	RecomputedBalance string    `json:"recomputedBalance"`
	Discrepancy       string    `json:"discrepancy"`
	IsConsistent      bool      `json:"isConsistent"`
}

// Audit handles GET /api/v1/accounts/:accountId/audit.
func (h *QueryHandler) Audit(c *gin.Context) {
	var params accountIDParam
	if !BindURI(c, &params) {
		return
	}
	accountID := uuid.MustParse(params.AccountID)

	report, err := h.service.Audit(c.Request.Context(), accountID)
	if err != nil {
		common.HandleLedgerError(c, err)
		return
	}
	common.Success(c, http.StatusOK, auditReportDTO{
		AccountID:         report.AccountID,
		CachedBalance:     report.CachedBalance.String(),
		RecomputedBalance: report.RecomputedBalance.String(),
		Discrepancy:       report.Discrepancy.String(),
		IsConsistent:      report.IsConsistent,
	})
}

// RegisterRoutes wires the query endpoints onto a router group.
func (h *QueryHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/accounts/:accountId/balance", h.Balance)
	router.GET("/accounts/:accountId/history", h.History)
	router.GET("/accounts/:accountId/audit", h.Audit)
}
