package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newthinker/stockwatch/internal/api/response"
	"github.com/newthinker/stockwatch/internal/core"
	"github.com/newthinker/stockwatch/internal/dashboard"
	"github.com/newthinker/stockwatch/internal/resolver"
	"github.com/newthinker/stockwatch/internal/watchlist"
)

var quotaErr = core.WrapError(core.ErrNotFound, core.WrapError(core.ErrQuotaExceeded, errors.New("Limit Reach")))

type fakeDashboard struct {
	symbols   []string
	rows      []dashboard.WatchRow
	overview  *dashboard.CompanyOverview
	err       error
	added     []string
	sortOrder watchlist.Order
}

func (f *fakeDashboard) Watchlist(context.Context) ([]string, error) {
	return f.symbols, f.err
}

func (f *fakeDashboard) WatchRows(context.Context) ([]dashboard.WatchRow, error) {
	return f.rows, f.err
}

func (f *fakeDashboard) SortByPrice(_ context.Context, order watchlist.Order) ([]dashboard.WatchRow, error) {
	f.sortOrder = order
	return f.rows, f.err
}

func (f *fakeDashboard) AddByQuery(_ context.Context, query string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if query == "" {
		return "", core.ErrInvalidInput
	}
	f.added = append(f.added, query)
	return "TSLA", nil
}

func (f *fakeDashboard) Remove(_ context.Context, symbol string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, s := range f.symbols {
		if strings.EqualFold(s, symbol) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDashboard) Clear(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.symbols = nil
	return nil
}

func (f *fakeDashboard) Toggle(_ context.Context, symbol string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, s := range f.symbols {
		if strings.EqualFold(s, symbol) {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeDashboard) CompanyOverview(_ context.Context, symbol string) (*dashboard.CompanyOverview, error) {
	return f.overview, f.err
}

type fakeResolver struct {
	match resolver.Match
	err   error
	calls int
}

func (f *fakeResolver) Resolve(context.Context, string) (resolver.Match, error) {
	f.calls++
	return f.match, f.err
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp response.SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data %T", resp.Data)
	}
	return data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	var resp response.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	return resp.Error
}

func TestWatchlistHandler_List(t *testing.T) {
	handler := NewWatchlistHandler(&fakeDashboard{symbols: []string{"AAPL", "GOOG"}})

	req := httptest.NewRequest("GET", "/api/watchlist", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	data := decodeData(t, w)
	symbols := data["symbols"].([]any)
	if len(symbols) != 2 {
		t.Errorf("expected 2 symbols, got %d", len(symbols))
	}
	if data["count"].(float64) != 2 {
		t.Errorf("expected count 2, got %v", data["count"])
	}
}

func TestWatchlistHandler_ListStorageError(t *testing.T) {
	handler := NewWatchlistHandler(&fakeDashboard{err: core.ErrStorageFailed})

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest("GET", "/api/watchlist", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if code := decodeError(t, w).Code; code != "STORAGE_FAILED" {
		t.Errorf("expected STORAGE_FAILED, got %s", code)
	}
}

func TestWatchlistHandler_Rows(t *testing.T) {
	handler := NewWatchlistHandler(&fakeDashboard{rows: []dashboard.WatchRow{
		{Symbol: "AAPL", Price: 150, PriceText: "$150.00", Available: true},
	}})

	w := httptest.NewRecorder()
	handler.Rows(w, httptest.NewRequest("GET", "/api/watchlist/rows", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	rows := decodeData(t, w)["rows"].([]any)
	row := rows[0].(map[string]any)
	if row["price_text"] != "$150.00" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestWatchlistHandler_Add(t *testing.T) {
	dash := &fakeDashboard{}
	handler := NewWatchlistHandler(dash)

	body := bytes.NewBufferString(`{"query": "tesla"}`)
	req := httptest.NewRequest("POST", "/api/watchlist", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Add(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if len(dash.added) != 1 || dash.added[0] != "tesla" {
		t.Errorf("expected query to be forwarded, got %v", dash.added)
	}
	if decodeData(t, w)["symbol"] != "TSLA" {
		t.Error("expected resolved symbol in response")
	}
}

func TestWatchlistHandler_AddSymbolAlias(t *testing.T) {
	dash := &fakeDashboard{}
	handler := NewWatchlistHandler(dash)

	w := httptest.NewRecorder()
	handler.Add(w, httptest.NewRequest("POST", "/api/watchlist", bytes.NewBufferString(`{"symbol": "tsla"}`)))

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if len(dash.added) != 1 || dash.added[0] != "tsla" {
		t.Errorf("expected symbol to be used as query, got %v", dash.added)
	}
}

func TestWatchlistHandler_Add_InvalidJSON(t *testing.T) {
	handler := NewWatchlistHandler(&fakeDashboard{})

	body := bytes.NewBufferString(`{invalid json}`)
	req := httptest.NewRequest("POST", "/api/watchlist", body)
	w := httptest.NewRecorder()

	handler.Add(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestWatchlistHandler_Add_EmptyQuery(t *testing.T) {
	handler := NewWatchlistHandler(&fakeDashboard{})

	w := httptest.NewRecorder()
	handler.Add(w, httptest.NewRequest("POST", "/api/watchlist", bytes.NewBufferString(`{"query": ""}`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestWatchlistHandler_Add_Quota(t *testing.T) {
	handler := NewWatchlistHandler(&fakeDashboard{err: quotaErr})

	w := httptest.NewRecorder()
	handler.Add(w, httptest.NewRequest("POST", "/api/watchlist", bytes.NewBufferString(`{"query": "tesla"}`)))

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
	if code := decodeError(t, w).Code; code != "QUOTA_EXCEEDED" {
		t.Errorf("expected QUOTA_EXCEEDED, got %s", code)
	}
}

func TestWatchlistHandler_Remove(t *testing.T) {
	handler := NewWatchlistHandler(&fakeDashboard{symbols: []string{"AAPL"}})

	req := httptest.NewRequest("DELETE", "/api/watchlist/aapl", nil)
	req.SetPathValue("symbol", "aapl")
	w := httptest.NewRecorder()

	handler.Remove(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if decodeData(t, w)["symbol"] != "AAPL" {
		t.Error("expected normalized symbol in response")
	}
}

func TestWatchlistHandler_RemoveNotWatched(t *testing.T) {
	handler := NewWatchlistHandler(&fakeDashboard{symbols: []string{"AAPL"}})

	req := httptest.NewRequest("DELETE", "/api/watchlist/MSFT", nil)
	req.SetPathValue("symbol", "MSFT")
	w := httptest.NewRecorder()

	handler.Remove(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestWatchlistHandler_Toggle(t *testing.T) {
	handler := NewWatchlistHandler(&fakeDashboard{symbols: []string{"AAPL"}})

	tests := []struct {
		symbol  string
		watched bool
	}{
		{"AAPL", false},
		{"msft", true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/api/watchlist/"+tt.symbol+"/toggle", nil)
		req.SetPathValue("symbol", tt.symbol)
		w := httptest.NewRecorder()

		handler.Toggle(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if got := decodeData(t, w)["watched"].(bool); got != tt.watched {
			t.Errorf("%s: expected watched=%v, got %v", tt.symbol, tt.watched, got)
		}
	}
}

func TestWatchlistHandler_Sort(t *testing.T) {
	tests := []struct {
		query string
		code  int
		order watchlist.Order
	}{
		{"", http.StatusOK, watchlist.Descending},
		{"?order=asc", http.StatusOK, watchlist.Ascending},
		{"?order=DESC", http.StatusOK, watchlist.Descending},
		{"?order=sideways", http.StatusBadRequest, watchlist.Ascending},
	}

	for _, tt := range tests {
		dash := &fakeDashboard{sortOrder: watchlist.Ascending}
		handler := NewWatchlistHandler(dash)

		w := httptest.NewRecorder()
		handler.Sort(w, httptest.NewRequest("POST", "/api/watchlist/sort"+tt.query, nil))

		if w.Code != tt.code {
			t.Errorf("%q: expected %d, got %d", tt.query, tt.code, w.Code)
		}
		if dash.sortOrder != tt.order {
			t.Errorf("%q: expected order %v, got %v", tt.query, tt.order, dash.sortOrder)
		}
	}
}

func TestCompanyHandler_Get(t *testing.T) {
	handler := NewCompanyHandler(&fakeDashboard{overview: &dashboard.CompanyOverview{
		Symbol:  "TSLA",
		Name:    "Tesla, Inc.",
		Watched: true,
	}})

	req := httptest.NewRequest("GET", "/api/company/TSLA", nil)
	req.SetPathValue("symbol", "TSLA")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := decodeData(t, w)
	if data["name"] != "Tesla, Inc." || data["watched"] != true {
		t.Errorf("unexpected overview %v", data)
	}
	if data["financials"] != nil {
		t.Errorf("expected null financials, got %v", data["financials"])
	}
}

func TestCompanyHandler_NotFound(t *testing.T) {
	handler := NewCompanyHandler(&fakeDashboard{err: core.ErrNotFound})

	req := httptest.NewRequest("GET", "/api/company/ZZZZ", nil)
	req.SetPathValue("symbol", "ZZZZ")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestWatchlistHandler_Clear(t *testing.T) {
	dash := &fakeDashboard{symbols: []string{"AAPL", "GOOG"}}
	handler := NewWatchlistHandler(dash)

	w := httptest.NewRecorder()
	handler.Clear(w, httptest.NewRequest("DELETE", "/api/watchlist", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if data := decodeData(t, w); data["cleared"] != true {
		t.Errorf("unexpected result %v", data)
	}
	if len(dash.symbols) != 0 {
		t.Errorf("expected empty watchlist, got %v", dash.symbols)
	}

	failing := NewWatchlistHandler(&fakeDashboard{err: core.WrapError(core.ErrStorageFailed, errors.New("disk gone"))})
	w = httptest.NewRecorder()
	failing.Clear(w, httptest.NewRequest("DELETE", "/api/watchlist", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestSearchHandler_Search(t *testing.T) {
	res := &fakeResolver{match: resolver.Match{Symbol: "TSLA", Name: "Tesla, Inc."}}
	handler := NewSearchHandler(res, nil)

	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest("GET", "/api/search?q=tesla", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := decodeData(t, w)
	if data["symbol"] != "TSLA" || data["name"] != "Tesla, Inc." {
		t.Errorf("unexpected result %v", data)
	}
	if res.calls != 1 {
		t.Errorf("expected one lookup, got %d", res.calls)
	}
}

func TestSearchHandler_NameUnavailable(t *testing.T) {
	handler := NewSearchHandler(&fakeResolver{match: resolver.Match{Symbol: "TSLA"}}, nil)

	w := httptest.NewRecorder()
	handler.Search(w, httptest.NewRequest("GET", "/api/search?q=TSLA", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, ok := decodeData(t, w)["name"]; ok {
		t.Error("expected name to be omitted")
	}
}

func TestSearchHandler_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", core.WrapError(core.ErrNotFound, errors.New(`no match for "Qwertyuiop123"`)), http.StatusNotFound},
		{"quota", quotaErr, http.StatusTooManyRequests},
		{"empty", core.ErrInvalidInput, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSearchHandler(&fakeResolver{err: tt.err}, nil)

			w := httptest.NewRecorder()
			handler.Search(w, httptest.NewRequest("GET", "/api/search?q=x", nil))

			if w.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, w.Code)
			}
		})
	}
}
