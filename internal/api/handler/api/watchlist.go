// internal/api/handler/api/watchlist.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/newthinker/stockwatch/internal/api/response"
	"github.com/newthinker/stockwatch/internal/core"
	"github.com/newthinker/stockwatch/internal/dashboard"
	"github.com/newthinker/stockwatch/internal/watchlist"
)

// Dashboard defines the interface needed from dashboard.Service.
type Dashboard interface {
	Watchlist(ctx context.Context) ([]string, error)
	WatchRows(ctx context.Context) ([]dashboard.WatchRow, error)
	SortByPrice(ctx context.Context, order watchlist.Order) ([]dashboard.WatchRow, error)
	AddByQuery(ctx context.Context, query string) (string, error)
	Remove(ctx context.Context, symbol string) (bool, error)
	Toggle(ctx context.Context, symbol string) (bool, error)
	Clear(ctx context.Context) error
}

// WatchlistHandler handles watchlist API requests.
type WatchlistHandler struct {
	dash Dashboard
}

// NewWatchlistHandler creates a new watchlist handler.
func NewWatchlistHandler(dash Dashboard) *WatchlistHandler {
	return &WatchlistHandler{dash: dash}
}

// AddRequest is the request body for adding a symbol. Query may be a ticker
// or a company name; Symbol is accepted as an alias.
type AddRequest struct {
	Query  string `json:"query"`
	Symbol string `json:"symbol,omitempty"`
}

// List returns all symbols in the watchlist.
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.dash.Watchlist(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// Rows returns the watchlist table with current quotes.
func (h *WatchlistHandler) Rows(w http.ResponseWriter, r *http.Request) {
	rows, err := h.dash.WatchRows(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

// Add resolves the query and adds the symbol to the watchlist.
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, err))
		return
	}

	query := req.Query
	if query == "" {
		query = req.Symbol
	}

	symbol, err := h.dash.AddByQuery(r.Context(), query)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"symbol": symbol,
		"added":  true,
	})
}

// Remove removes a symbol from the watchlist.
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	removed, err := h.dash.Remove(r.Context(), symbol)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if !removed {
		response.Error(w, http.StatusNotFound,
			core.WrapError(core.ErrNotFound, fmt.Errorf("%s is not watched", core.NormalizeSymbol(symbol))))
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"symbol":  core.NormalizeSymbol(symbol),
		"removed": true,
	})
}

// Clear handles DELETE /api/watchlist.
func (h *WatchlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.dash.Clear(r.Context()); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"cleared": true})
}

// Toggle flips the watched state of a symbol.
func (h *WatchlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	watched, err := h.dash.Toggle(r.Context(), symbol)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"symbol":  core.NormalizeSymbol(symbol),
		"watched": watched,
	})
}

// Sort reorders the watchlist by current price. order defaults to desc,
// highest price first.
func (h *WatchlistHandler) Sort(w http.ResponseWriter, r *http.Request) {
	order := watchlist.Descending
	if v := r.URL.Query().Get("order"); v != "" {
		parsed, err := watchlist.ParseOrder(v)
		if err != nil {
			response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrInvalidInput, err))
			return
		}
		order = parsed
	}

	rows, err := h.dash.SortByPrice(r.Context(), order)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"order": order.String(),
		"rows":  rows,
	})
}
