// Package dashboard composes the watchlist, the resolver and market data into
// the views shown by the HTTP API and the CLI.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/newthinker/stockwatch/internal/core"
	"github.com/newthinker/stockwatch/internal/watchlist"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultHistoryDays = 30
	defaultConcurrency = 4
)

// MarketData is the subset of the provider client the dashboard uses.
type MarketData interface {
	FetchQuote(ctx context.Context, symbol string) (*core.Quote, error)
	FetchHistory(ctx context.Context, symbol string, days int) ([]core.PricePoint, error)
	FetchIncomeStatements(ctx context.Context, symbol string) ([]core.IncomeStatement, error)
}

// Resolver maps user input to symbols and names.
type Resolver interface {
	ResolveSymbol(ctx context.Context, query string) (string, error)
	ResolveNameForSymbol(ctx context.Context, symbol string) (string, error)
}

// WatchRow is one line of the watchlist table.
type WatchRow struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Positive      bool    `json:"positive"`
	PriceText     string  `json:"price_text"`
	ChangeText    string  `json:"change_text"`
	Available     bool    `json:"available"`
	Error         string  `json:"error,omitempty"`
}

// Financials is the most recent annual income statement.
type Financials struct {
	Date            time.Time `json:"date"`
	Revenue         float64   `json:"revenue"`
	GrossProfit     float64   `json:"gross_profit"`
	EPS             float64   `json:"eps"`
	RevenueText     string    `json:"revenue_text"`
	GrossProfitText string    `json:"gross_profit_text"`
}

// CompanyOverview is the company page.
type CompanyOverview struct {
	Symbol     string            `json:"symbol"`
	Name       string            `json:"name"`
	Watched    bool              `json:"watched"`
	Financials *Financials       `json:"financials"`
	History    []core.PricePoint `json:"history"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// Config holds dashboard settings
type Config struct {
	HistoryDays int
	Concurrency int
}

// Service builds dashboard views.
type Service struct {
	store    *watchlist.Store
	market   MarketData
	resolver Resolver
	cfg      Config
	logger   *zap.Logger
}

// NewService creates a dashboard service.
func NewService(store *watchlist.Store, market MarketData, resolver Resolver, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = DefaultHistoryDays
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Service{
		store:    store,
		market:   market,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
	}
}

// Watchlist reconciles with storage and returns the watched symbols in order.
// A malformed slot yields an empty list.
func (s *Service) Watchlist(ctx context.Context) ([]string, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s.store.Symbols(), nil
}

// WatchRows returns one row per watched symbol, enriched with the current
// quote. A failed quote marks its row unavailable instead of failing the
// whole table.
func (s *Service) WatchRows(ctx context.Context) ([]WatchRow, error) {
	symbols, err := s.Watchlist(ctx)
	if err != nil {
		return nil, err
	}
	return s.rows(ctx, symbols), nil
}

func (s *Service) rows(ctx context.Context, symbols []string) []WatchRow {
	rows := make([]WatchRow, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			rows[i] = s.row(gctx, sym)
			return nil
		})
	}
	_ = g.Wait()
	return rows
}

func (s *Service) row(ctx context.Context, symbol string) WatchRow {
	q, err := s.market.FetchQuote(ctx, symbol)
	if err != nil {
		s.logger.Warn("quote unavailable", zap.String("symbol", symbol), zap.Error(err))
		return WatchRow{Symbol: symbol, Error: errorText(err)}
	}
	return WatchRow{
		Symbol:        symbol,
		Name:          q.Name,
		Price:         q.Price,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Positive:      q.Change >= 0,
		PriceText:     FormatMoney(q.Price, 2),
		ChangeText:    FormatMoney(q.Change, 2),
		Available:     true,
	}
}

// SortByPrice fetches current prices, reorders the watchlist by them and
// persists the new order. Symbols without a price keep their relative order
// at the end. It returns the rows in the new order.
func (s *Service) SortByPrice(ctx context.Context, order watchlist.Order) ([]WatchRow, error) {
	rows, err := s.WatchRows(ctx)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(rows))
	bySymbol := make(map[string]WatchRow, len(rows))
	for _, r := range rows {
		bySymbol[r.Symbol] = r
		if r.Available {
			prices[r.Symbol] = r.Price
		}
	}

	if err := s.store.Reorder(ctx, watchlist.Values(prices), order); err != nil {
		return nil, err
	}

	symbols := s.store.Symbols()
	sorted := make([]WatchRow, 0, len(symbols))
	for _, sym := range symbols {
		if r, ok := bySymbol[sym]; ok {
			sorted = append(sorted, r)
		}
	}
	s.logger.Info("watchlist sorted by price",
		zap.Stringer("order", order),
		zap.Int("priced", len(prices)),
		zap.Int("total", len(sorted)),
	)
	return sorted, nil
}

// CompanyOverview gathers the company page for symbol: name, watched state,
// the latest annual financials and the daily closing history. Only the name
// lookup is required. A failed financials or history fetch leaves that part
// empty and adds a line to Warnings.
func (s *Service) CompanyOverview(ctx context.Context, symbol string) (*CompanyOverview, error) {
	sym := core.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, core.ErrInvalidInput
	}

	name, err := s.resolver.ResolveNameForSymbol(ctx, sym)
	if err != nil {
		return nil, err
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	overview := &CompanyOverview{
		Symbol:  sym,
		Name:    name,
		Watched: s.store.Contains(sym),
		History: []core.PricePoint{},
	}

	statements, err := s.market.FetchIncomeStatements(ctx, sym)
	if err != nil {
		overview.warn(s.logger, "financials unavailable", sym, err)
	} else if len(statements) > 0 {
		overview.Financials = newFinancials(latest(statements))
	}

	history, err := s.market.FetchHistory(ctx, sym, s.cfg.HistoryDays)
	if err != nil {
		overview.warn(s.logger, "price history unavailable", sym, err)
	} else if history != nil {
		overview.History = history
	}
	return overview, nil
}

func (o *CompanyOverview) warn(logger *zap.Logger, what, symbol string, err error) {
	logger.Warn(what, zap.String("symbol", symbol), zap.Error(err))
	o.Warnings = append(o.Warnings, what+": "+errorText(err))
}

// AddByQuery resolves query to a symbol and watches it.
func (s *Service) AddByQuery(ctx context.Context, query string) (string, error) {
	sym, err := s.resolver.ResolveSymbol(ctx, query)
	if err != nil {
		return "", err
	}
	if err := s.store.Add(ctx, sym); err != nil {
		return "", err
	}
	s.logger.Info("symbol watched", zap.String("query", query), zap.String("symbol", sym))
	return sym, nil
}

// Remove unwatches symbol and reports whether it was watched.
func (s *Service) Remove(ctx context.Context, symbol string) (bool, error) {
	return s.store.Remove(ctx, symbol)
}

// Toggle flips the watched state of symbol and returns the new state.
func (s *Service) Toggle(ctx context.Context, symbol string) (bool, error) {
	return s.store.Toggle(ctx, symbol)
}

// Clear drops every watched symbol and deletes the persisted slot.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *Service) refresh(ctx context.Context) error {
	err := s.store.Refresh(ctx)
	if err != nil && !errors.Is(err, core.ErrMalformedState) {
		return err
	}
	return nil
}

func latest(statements []core.IncomeStatement) core.IncomeStatement {
	l := statements[0]
	for _, st := range statements[1:] {
		if st.Date.After(l.Date) {
			l = st
		}
	}
	return l
}

func newFinancials(st core.IncomeStatement) *Financials {
	return &Financials{
		Date:            st.Date,
		Revenue:         st.Revenue,
		GrossProfit:     st.GrossProfit,
		EPS:             st.EPS,
		RevenueText:     FormatMoney(st.Revenue, 0),
		GrossProfitText: FormatMoney(st.GrossProfit, 0),
	}
}

func errorText(err error) string {
	var ce *core.Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
