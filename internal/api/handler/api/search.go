// internal/api/handler/api/search.go
package api

import (
	"context"
	"net/http"

	"github.com/newthinker/stockwatch/internal/api/response"
	"github.com/newthinker/stockwatch/internal/resolver"
	"go.uber.org/zap"
)

// Resolver defines what the search endpoint needs.
type Resolver interface {
	Resolve(ctx context.Context, query string) (resolver.Match, error)
}

// SearchResult is the body of a successful search.
type SearchResult struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// SearchHandler handles ticker search requests.
type SearchHandler struct {
	resolver Resolver
	logger   *zap.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(resolver Resolver, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{resolver: resolver, logger: logger}
}

// Search handles GET /api/search?q=<query>. Symbol and name come from the
// same candidate. The name is empty when a listed symbol has none on file.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	match, err := h.resolver.Resolve(r.Context(), query)
	if err != nil {
		h.logger.Debug("search failed", zap.String("query", query), zap.Error(err))
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, SearchResult{Symbol: match.Symbol, Name: match.Name})
}
