// Package watchlist owns the persisted, ordered set of watched tickers.
//
// A Store keeps one in-memory snapshot of the set and mirrors every mutation
// to a single key-value slot. Several Stores (other processes, other
// dashboard sessions) may share that slot; there is no locking across them
// and the last write wins. Call Refresh before a read that must reflect
// writes made elsewhere. Remove and Toggle refresh on their own.
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/newthinker/stockwatch/internal/core"
	"github.com/newthinker/stockwatch/internal/storage/kv"
	"go.uber.org/zap"
)

// DefaultKey is the storage slot used when Config.Key is empty.
const DefaultKey = "watched"

// Recorder receives a notification after each successful write.
type Recorder interface {
	RecordWatchlistWrite(size int)
}

// Config holds store settings
type Config struct {
	Key string
}

// Store is the single source of truth for which tickers are watched.
type Store struct {
	storage  kv.Storage
	key      string
	logger   *zap.Logger
	recorder Recorder

	mu      sync.Mutex
	symbols []string
}

// NewStore creates an empty store backed by storage. Call Load to pick up
// the persisted set.
func NewStore(storage kv.Storage, cfg Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		storage: storage,
		key:     key,
		logger:  logger.With(zap.String("key", key)),
		symbols: []string{},
	}
}

// SetRecorder attaches a metrics recorder
func (s *Store) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// Load replaces the in-memory set with the persisted one and returns a copy.
//
// A missing slot yields an empty set. A slot that cannot be parsed also
// resets the set to empty, logs a warning, and returns an error matching
// core.ErrMalformedState; the store remains usable. A storage failure leaves
// the in-memory set as it was.
func (s *Store) Load(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.loadLocked(ctx)
	return slices.Clone(s.symbols), err
}

// Refresh reconciles the in-memory set with storage.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) error {
	data, err := s.storage.Read(ctx, s.key)
	if errors.Is(err, kv.ErrNotExist) {
		s.symbols = []string{}
		return nil
	}
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("reading %s: %w", s.key, err))
	}

	symbols, err := decode(data)
	if err != nil {
		s.logger.Warn("persisted watchlist is malformed, starting empty",
			zap.Error(err),
			zap.Int("bytes", len(data)),
		)
		s.symbols = []string{}
		return core.WrapError(core.ErrMalformedState, err)
	}

	s.symbols = symbols
	return nil
}

// decode parses the persisted array. Entries are normalized and
// de-duplicated so a hand-edited slot cannot break the set;
// a JSON null is treated as malformed.
func decode(data []byte) ([]string, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("watchlist is null")
	}

	symbols := make([]string, 0, len(raw))
	for _, r := range raw {
		sym := core.NormalizeSymbol(r)
		if sym == "" || slices.Contains(symbols, sym) {
			continue
		}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

// Add appends symbol unless it is already watched, then persists. The write
// happens even when nothing changed.
func (s *Store) Add(ctx context.Context, symbol string) error {
	sym := core.NormalizeSymbol(symbol)
	if sym == "" {
		s.logger.Warn("ignoring add of empty symbol")
		return core.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(sym) < 0 {
		s.symbols = append(s.symbols, sym)
	}
	s.logger.Debug("watch", zap.String("symbol", sym))
	return s.persistLocked(ctx)
}

// Remove reloads from storage, drops symbol if present, and persists. It
// reports whether the symbol was found.
//
// A malformed slot is replaced; a storage read failure aborts without
// writing.
func (s *Store) Remove(ctx context.Context, symbol string) (bool, error) {
	sym := core.NormalizeSymbol(symbol)
	if sym == "" {
		s.logger.Warn("ignoring remove of empty symbol")
		return false, core.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil && !errors.Is(err, core.ErrMalformedState) {
		return false, err
	}

	i := s.indexLocked(sym)
	if i >= 0 {
		s.symbols = slices.Delete(s.symbols, i, i+1)
	}
	s.logger.Debug("unwatch", zap.String("symbol", sym), zap.Bool("found", i >= 0))
	return i >= 0, s.persistLocked(ctx)
}

// Toggle reloads from storage, then removes symbol if watched or adds it
// otherwise. It returns the new watched state.
func (s *Store) Toggle(ctx context.Context, symbol string) (bool, error) {
	sym := core.NormalizeSymbol(symbol)
	if sym == "" {
		s.logger.Warn("ignoring toggle of empty symbol")
		return false, core.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil && !errors.Is(err, core.ErrMalformedState) {
		return false, err
	}

	watched := true
	if i := s.indexLocked(sym); i >= 0 {
		s.symbols = slices.Delete(s.symbols, i, i+1)
		watched = false
	} else {
		s.symbols = append(s.symbols, sym)
	}
	return watched, s.persistLocked(ctx)
}

// Contains reports whether symbol is in the in-memory set. It does not
// consult storage.
func (s *Store) Contains(symbol string) bool {
	sym := core.NormalizeSymbol(symbol)
	if sym == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(sym) >= 0
}

// Symbols returns a copy of the in-memory set in order.
func (s *Store) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.symbols)
}

// Len returns the size of the in-memory set.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.symbols)
}

// Clear empties the set and deletes its slot, so the next Load starts from an
// absent slot.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("deleting %s: %w", s.key, err))
	}
	s.logger.Info("watchlist cleared", zap.Int("dropped", len(s.symbols)))
	s.symbols = []string{}
	if s.recorder != nil {
		s.recorder.RecordWatchlistWrite(0)
	}
	return nil
}

// Persist writes the in-memory set to storage, replacing whatever is there.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.symbols)
	if err != nil {
		return fmt.Errorf("encoding watchlist: %w", err)
	}
	if err := s.storage.Write(ctx, s.key, data); err != nil {
		return core.WrapError(core.ErrStorageFailed, fmt.Errorf("writing %s: %w", s.key, err))
	}
	if s.recorder != nil {
		s.recorder.RecordWatchlistWrite(len(s.symbols))
	}
	return nil
}

// indexLocked expects a normalized symbol.
func (s *Store) indexLocked(sym string) int {
	return slices.Index(s.symbols, sym)
}
