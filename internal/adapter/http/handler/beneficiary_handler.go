package handler

import (
	"math"
	"strconv"

	"wallet-payout-service/internal/adapter/http/dto"
	"wallet-payout-service/internal/adapter/http/middleware"
	"wallet-payout-service/internal/core/domain"
	"wallet-payout-service/internal/core/ports"
	"wallet-payout-service/pkg/apperror"
	"wallet-payout-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BeneficiaryHandler handles beneficiary CRUD endpoints.
type BeneficiaryHandler struct {
	benefSvc ports.BeneficiaryService
}

// NewBeneficiaryHandler creates a new BeneficiaryHandler.
func NewBeneficiaryHandler(benefSvc ports.BeneficiaryService) *BeneficiaryHandler {
	return &BeneficiaryHandler{benefSvc: benefSvc}
}

// Create handles POST /api/v1/beneficiaries.
func (h *BeneficiaryHandler) Create(c *gin.Context) {
	ownerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateBeneficiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	b, err := h.benefSvc.Create(c.Request.Context(), ports.CreateBeneficiaryRequest{
		OwnerID:       ownerID.(uuid.UUID),
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
		BankName:      req.BankName,
		IFSC:          req.IFSC,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toBeneficiaryResponse(b))
}

// List handles GET /api/v1/beneficiaries.
func (h *BeneficiaryHandler) List(c *gin.Context) {
	ownerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, total, err := h.benefSvc.List(c.Request.Context(), ownerID.(uuid.UUID), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.BeneficiaryListResponse{
		Items: make([]dto.BeneficiaryResponse, 0, len(items)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for i := range items {
		resp.Items = append(resp.Items, toBeneficiaryResponse(&items[i]))
	}
	if limit > 0 {
		resp.TotalPages = int(math.Ceil(float64(total) / float64(limit)))
	}

	response.OK(c, resp)
}

// Update handles PUT /api/v1/beneficiaries/:id.
func (h *BeneficiaryHandler) Update(c *gin.Context) {
	ownerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid beneficiary id"))
		return
	}

	var req dto.UpdateBeneficiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	b, err := h.benefSvc.Update(c.Request.Context(), ports.UpdateBeneficiaryRequest{
		OwnerID:       ownerID.(uuid.UUID),
		ID:            id,
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
		BankName:      req.BankName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toBeneficiaryResponse(b))
}

// Delete handles DELETE /api/v1/beneficiaries/:id.
func (h *BeneficiaryHandler) Delete(c *gin.Context) {
	ownerID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid beneficiary id"))
		return
	}

	if err := h.benefSvc.Delete(c.Request.Context(), ownerID.(uuid.UUID), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

func toBeneficiaryResponse(b *domain.Beneficiary) dto.BeneficiaryResponse {
	return dto.BeneficiaryResponse{
		ID:            b.ID.String(),
		Name:          b.Name,
		AccountNumber: b.AccountNumber,
		BankName:      b.BankName,
		IFSC:          b.IFSC,
		Balance:       b.Balance.String(),
		CreatedAt:     b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
