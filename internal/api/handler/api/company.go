// internal/api/handler/api/company.go
package api

import (
	"context"
	"net/http"

	"github.com/newthinker/stockwatch/internal/api/response"
	"github.com/newthinker/stockwatch/internal/dashboard"
)

// CompanyService defines what the company page needs.
type CompanyService interface {
	CompanyOverview(ctx context.Context, symbol string) (*dashboard.CompanyOverview, error)
}

// CompanyHandler serves the company page data.
type CompanyHandler struct {
	svc CompanyService
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(svc CompanyService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// Get handles GET /api/company/{symbol}.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.CompanyOverview(r.Context(), r.PathValue("symbol"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, overview)
}
