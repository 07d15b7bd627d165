package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"wallet-payout-service/internal/adapter/http/dto"
	"wallet-payout-service/internal/adapter/http/middleware"
	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports"
	"wallet-payout-service/pkg/apperror"
	"wallet-payout-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderIdempotencyKey carries the client's dedup key for payout creation.
const HeaderIdempotencyKey = "Idempotency-Key"

// PayoutHandler handles payout endpoints.
type PayoutHandler struct {
	payoutSvc ports.PayoutService
	querySvc  ports.QueryService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(payoutSvc ports.PayoutService, querySvc ports.QueryService) *PayoutHandler {
	return &PayoutHandler{payoutSvc: payoutSvc, querySvc: querySvc}
}

// Create handles POST /api/v1/payouts.
// A replayed idempotency key returns the original payout with 200 instead
// of 201; the body carries idempotent=true.
func (h *PayoutHandler) Create(c *gin.Context) {
	ownerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	beneficiaryID, err := uuid.Parse(req.BeneficiaryID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid beneficiary id"))
		return
	}

	payout, idempotent, err := h.payoutSvc.Create(c.Request.Context(), ports.CreatePayoutRequest{
		OwnerID:        ownerID.(uuid.UUID),
		BeneficiaryID:  beneficiaryID,
		Amount:         req.Amount,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	body := dto.CreatePayoutResponse{
		Payout:     toPayoutResponse(payout),
		Idempotent: idempotent,
	}
	if idempotent {
		response.OK(c, body)
		return
	}
	response.Created(c, body)
}

// Settle handles POST /api/v1/payouts/:id/settle.
func (h *PayoutHandler) Settle(c *gin.Context) {
	ownerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payout id"))
		return
	}

	var req dto.SettlePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	payout, err := h.payoutSvc.Settle(c.Request.Context(), ownerID.(uuid.UUID), id, domain.PayoutOutcome(req.Outcome))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPayoutResponse(payout))
}

// Get handles GET /api/v1/payouts/:id.
func (h *PayoutHandler) Get(c *gin.Context) {
	ownerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid payout id"))
		return
	}

	payout, err := h.querySvc.GetPayout(c.Request.Context(), ownerID.(uuid.UUID), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPayoutResponse(payout))
}

// List handles GET /api/v1/payouts.
func (h *PayoutHandler) List(c *gin.Context) {
	ownerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	params := ports.PayoutListParams{
		OwnerID: ownerID.(uuid.UUID),
		Page:    page,
		Limit:   limit,
	}

	if s := c.Query("status"); s != "" {
		status := domain.PayoutStatus(s)
		params.Status = &status
	}
	if f := c.Query("from"); f != "" {
		if v, err := time.Parse(time.RFC3339, f); err == nil {
			params.From = &v
		}
	}
	if u := c.Query("to"); u != "" {
		if v, err := time.Parse(time.RFC3339, u); err == nil {
			params.To = &v
		}
	}

	payouts, total, err := h.querySvc.ListPayouts(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.PayoutResponse, 0, len(payouts))
	for i := range payouts {
		items = append(items, toPayoutResponse(&payouts[i]))
	}

	resp := dto.PayoutListResponse{
		Items: items,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}
	if params.Limit > 0 {
		resp.TotalPages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}

	response.OK(c, resp)
}

// Export handles GET /api/v1/payouts/export — streams CSV.
func (h *PayoutHandler) Export(c *gin.Context) {
	ownerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="payouts.csv"`)
	c.Status(http.StatusOK)

	if err := h.querySvc.ExportCSV(c.Request.Context(), ownerID.(uuid.UUID), c.Writer); err != nil {
		// Headers are already gone; all we can do is log via gin's error list.
		_ = c.Error(err)
	}
}

// Stats handles GET /api/v1/payouts/stats.
func (h *PayoutHandler) Stats(c *gin.Context) {
	ownerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	stats, err := h.querySvc.GetStats(c.Request.Context(), ownerID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PayoutStatsResponse{
		TotalPayouts: stats.TotalPayouts,
		Pending:      stats.Pending,
		Successful:   stats.Successful,
		Failed:       stats.Failed,
		TotalPaidOut: stats.TotalPaidOut.String(),
		TotalPending: stats.TotalPending.String(),
	})
}

// toPayoutResponse converts domain.Payout to DTO.
func toPayoutResponse(p *domain.Payout) dto.PayoutResponse {
	resp := dto.PayoutResponse{
		ID:             p.ID.String(),
		BeneficiaryID:  p.BeneficiaryID.String(),
		Amount:         p.Amount.String(),
		Currency:       p.Currency,
		Status:         string(p.Status),
		IdempotencyKey: p.IdempotencyKey,
		CreatedAt:      p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if p.SettledAt != nil {
		s := p.SettledAt.Format("2006-01-02T15:04:05Z07:00")
		resp.SettledAt = &s
	}
	return resp
}
