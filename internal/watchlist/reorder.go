package watchlist

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Order is the direction of a Reorder.
type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// ParseOrder accepts "asc"/"ascending" and "desc"/"descending".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort order %q", s)
	}
}

// ValueFunc supplies the sort key of a symbol. ok is false when no value is
// known (for example a failed quote).
type ValueFunc func(symbol string) (value float64, ok bool)

// Values adapts a map keyed by uppercase symbol to a ValueFunc.
func Values(m map[string]float64) ValueFunc {
	return func(symbol string) (float64, bool) {
		v, ok := m[symbol]
		return v, ok
	}
}

// Reorder stable-sorts the in-memory set by value and persists the result as
// the new canonical order. Ties keep their previous relative order; symbols
// without a value follow all valued ones in their previous order.
func (s *Store) Reorder(ctx context.Context, value ValueFunc, order Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type entry struct {
		symbol string
		value  float64
		ok     bool
	}
	entries := make([]entry, len(s.symbols))
	for i, sym := range s.symbols {
		v, ok := value(sym)
		entries[i] = entry{symbol: sym, value: v, ok: ok}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.ok && !b.ok:
			return -1
		case !a.ok && b.ok:
			return 1
		case !a.ok && !b.ok:
			return 0
		}
		if order == Descending {
			return cmp.Compare(b.value, a.value)
		}
		return cmp.Compare(a.value, b.value)
	})

	for i, e := range entries {
		s.symbols[i] = e.symbol
	}
	s.logger.Debug("reordered watchlist",
		zap.Stringer("order", order),
		zap.Strings("symbols", s.symbols),
	)
	return s.persistLocked(ctx)
}
