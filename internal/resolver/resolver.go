// Package resolver turns free-text queries into ticker symbols and company
// names.
//
// Every failure, including provider quota exhaustion, surfaces as an error
// matching core.ErrNotFound. When the provider was out of quota the error
// also matches core.ErrQuotaExceeded, so callers can show an actionable
// message. Nothing is retried.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/stockwatch/internal/core"
	"github.com/newthinker/stockwatch/internal/provider/fmp"
	"go.uber.org/zap"
)

const (
	DefaultLimit    = 5
	DefaultExchange = fmp.DefaultExchange
)

// Lookup paths reported to the Recorder.
const (
	PathListing      = "listing"
	PathSearch       = "search"
	PathSearchTicker = "search-ticker"
)

// SearchProvider is the subset of the market data client the resolver uses.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int, exchange string) ([]fmp.SearchResult, error)
	SearchTicker(ctx context.Context, query string, limit int, exchange string) ([]fmp.SearchResult, error)
}

// SymbolIndex is the preloaded known-symbols list.
type SymbolIndex interface {
	Lookup(symbol string) (core.Listing, bool)
}

// Match is a resolved symbol together with the name of the same company.
type Match struct {
	Symbol string
	Name   string
}

// Recorder receives one notification per resolution.
type Recorder interface {
	RecordLookup(path string, found bool)
}

// RankingPolicy picks one candidate from a non-empty provider result.
type RankingPolicy func(query string, candidates []fmp.SearchResult) fmp.SearchResult

// TrustProviderRanking takes the provider's first candidate as is.
func TrustProviderRanking(_ string, candidates []fmp.SearchResult) fmp.SearchResult {
	return candidates[0]
}

// Config holds resolver settings
type Config struct {
	Exchange string
	Limit    int
	Ranking  RankingPolicy
}

// Resolver maps queries to symbols and names.
type Resolver struct {
	provider SearchProvider
	index    SymbolIndex
	exchange string
	limit    int
	rank     RankingPolicy
	logger   *zap.Logger
	recorder Recorder
}

// New creates a resolver. index may be nil, which disables the fast path.
func New(provider SearchProvider, index SymbolIndex, cfg Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Ranking == nil {
		cfg.Ranking = TrustProviderRanking
	}
	return &Resolver{
		provider: provider,
		index:    index,
		exchange: cfg.Exchange,
		limit:    cfg.Limit,
		rank:     cfg.Ranking,
		logger:   logger,
	}
}

// SetRecorder attaches a metrics recorder
func (r *Resolver) SetRecorder(rec Recorder) {
	r.recorder = rec
}

// Resolve returns the symbol and company name for query from a single
// lookup. A query that already is a listed symbol is answered from the
// listing without contacting the provider; its name is whatever the listing
// carries and may be empty.
func (r *Resolver) Resolve(ctx context.Context, query string) (Match, error) {
	q := core.NormalizeSymbol(query)
	if q == "" {
		return Match{}, core.ErrInvalidInput
	}
	if r.index != nil {
		if l, ok := r.index.Lookup(q); ok {
			r.record(PathListing, true)
			return Match{Symbol: l.Symbol, Name: l.Name}, nil
		}
	}

	c, err := r.pick(ctx, PathSearch, strings.TrimSpace(query))
	if err != nil {
		return Match{}, err
	}
	return Match{Symbol: core.NormalizeSymbol(c.Symbol), Name: c.Name}, nil
}

// ResolveSymbol returns the ticker for query, taking the listing fast path
// when it can.
func (r *Resolver) ResolveSymbol(ctx context.Context, query string) (string, error) {
	m, err := r.Resolve(ctx, query)
	if err != nil {
		return "", err
	}
	return m.Symbol, nil
}

// ResolveCompanyName returns the company name of the provider's best match
// for query. It always searches.
func (r *Resolver) ResolveCompanyName(ctx context.Context, query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", core.ErrInvalidInput
	}
	c, err := r.pick(ctx, PathSearch, q)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

// ResolveNameForSymbol returns the company name for an exact ticker.
func (r *Resolver) ResolveNameForSymbol(ctx context.Context, symbol string) (string, error) {
	sym := core.NormalizeSymbol(symbol)
	if sym == "" {
		return "", core.ErrInvalidInput
	}
	c, err := r.pick(ctx, PathSearchTicker, sym)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

func (r *Resolver) pick(ctx context.Context, path, query string) (fmp.SearchResult, error) {
	search := r.provider.Search
	if path == PathSearchTicker {
		search = r.provider.SearchTicker
	}

	candidates, err := search(ctx, query, r.limit, r.exchange)
	if err != nil {
		r.record(path, false)
		r.logger.Warn("lookup failed",
			zap.String("path", path),
			zap.String("query", query),
			zap.Error(err),
		)
		return fmp.SearchResult{}, core.WrapError(core.ErrNotFound, err)
	}
	if len(candidates) == 0 {
		r.record(path, false)
		r.logger.Debug("no candidates", zap.String("path", path), zap.String("query", query))
		return fmp.SearchResult{}, core.WrapError(core.ErrNotFound, fmt.Errorf("no match for %q", query))
	}

	c := r.rank(query, candidates)
	if c.Symbol == "" {
		r.record(path, false)
		return fmp.SearchResult{}, core.WrapError(core.ErrNotFound, fmt.Errorf("empty candidate for %q", query))
	}
	r.record(path, true)
	return c, nil
}

func (r *Resolver) record(path string, found bool) {
	if r.recorder != nil {
		r.recorder.RecordLookup(path, found)
	}
}
