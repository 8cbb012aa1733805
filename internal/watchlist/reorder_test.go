package watchlist_test

import (
	"context"
	"testing"

	"github.com/newthinker/stockwatch/internal/storage/kv"
	"github.com/newthinker/stockwatch/internal/watchlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T, storage kv.Storage, symbols ...string) *watchlist.Store {
	t.Helper()
	s := newStore(t, storage)
	for _, sym := range symbols {
		require.NoError(t, s.Add(context.Background(), sym))
	}
	return s
}

func TestStore_ReorderDescending(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	s := seeded(t, storage, "AAPL", "TSLA", "NVDA")

	prices := map[string]float64{"AAPL": 150, "TSLA": 700, "NVDA": 250}
	require.NoError(t, s.Reorder(ctx, watchlist.Values(prices), watchlist.Descending))

	assert.Equal(t, []string{"TSLA", "NVDA", "AAPL"}, s.Symbols())
	assert.JSONEq(t, `["TSLA","NVDA","AAPL"]`, persisted(t, storage))
}

func TestStore_ReorderAscending(t *testing.T) {
	ctx := context.Background()
	s := seeded(t, kv.NewMemory(), "AAPL", "TSLA", "NVDA")

	prices := map[string]float64{"AAPL": 150, "TSLA": 700, "NVDA": 250}
	require.NoError(t, s.Reorder(ctx, watchlist.Values(prices), watchlist.Ascending))

	assert.Equal(t, []string{"AAPL", "NVDA", "TSLA"}, s.Symbols())
}

func TestStore_ReorderIsStable(t *testing.T) {
	ctx := context.Background()
	s := seeded(t, kv.NewMemory(), "B", "A", "C", "D")

	prices := map[string]float64{"A": 10, "B": 10, "C": 5, "D": 10}
	require.NoError(t, s.Reorder(ctx, watchlist.Values(prices), watchlist.Descending))
	assert.Equal(t, []string{"B", "A", "D", "C"}, s.Symbols())

	require.NoError(t, s.Reorder(ctx, watchlist.Values(prices), watchlist.Ascending))
	assert.Equal(t, []string{"C", "B", "A", "D"}, s.Symbols())
}

func TestStore_ReorderMissingValuesLast(t *testing.T) {
	ctx := context.Background()
	s := seeded(t, kv.NewMemory(), "X", "AAPL", "Y", "TSLA")

	prices := map[string]float64{"AAPL": 150, "TSLA": 700}
	require.NoError(t, s.Reorder(ctx, watchlist.Values(prices), watchlist.Descending))

	assert.Equal(t, []string{"TSLA", "AAPL", "X", "Y"}, s.Symbols())
}

func TestStore_ReorderKeepsSetAfterward(t *testing.T) {
	ctx := context.Background()
	s := seeded(t, kv.NewMemory(), "AAPL", "TSLA")

	require.NoError(t, s.Reorder(ctx, watchlist.Values(map[string]float64{"AAPL": 1, "TSLA": 2}), watchlist.Descending))
	require.NoError(t, s.Add(ctx, "MSFT"))

	assert.Equal(t, []string{"TSLA", "AAPL", "MSFT"}, s.Symbols(), "adds append after the sorted order")
}

func TestStore_ReorderEmpty(t *testing.T) {
	ctx := context.Background()
	storage := kv.NewMemory()
	s := newStore(t, storage)

	require.NoError(t, s.Reorder(ctx, watchlist.Values(nil), watchlist.Descending))
	assert.Equal(t, `[]`, persisted(t, storage))
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    watchlist.Order
		wantErr bool
	}{
		{"asc", watchlist.Ascending, false},
		{"ASCENDING", watchlist.Ascending, false},
		{"desc", watchlist.Descending, false},
		{" descending ", watchlist.Descending, false},
		{"sideways", watchlist.Ascending, true},
		{"", watchlist.Ascending, true},
	}

	for _, tt := range tests {
		got, err := watchlist.ParseOrder(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestOrder_String(t *testing.T) {
	assert.Equal(t, "asc", watchlist.Ascending.String())
	assert.Equal(t, "desc", watchlist.Descending.String())
}
