// Package listing holds the read-only list of known exchange symbols used to
// skip a provider round trip when a query already is a ticker.
package listing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/newthinker/stockwatch/internal/core"
)

// Index is an exact, case-insensitive symbol lookup. The zero value is empty
// and safe to use.
type Index struct {
	bySymbol map[string]core.Listing
}

// NewIndex builds an index from listings. Later duplicates are ignored.
func NewIndex(listings []core.Listing) *Index {
	idx := &Index{bySymbol: make(map[string]core.Listing, len(listings))}
	for _, l := range listings {
		sym := core.NormalizeSymbol(l.Symbol)
		if sym == "" {
			continue
		}
		if _, ok := idx.bySymbol[sym]; ok {
			continue
		}
		l.Symbol = sym
		idx.bySymbol[sym] = l
	}
	return idx
}

// Lookup returns the listing for symbol, if known.
func (i *Index) Lookup(symbol string) (core.Listing, bool) {
	if i == nil || i.bySymbol == nil {
		return core.Listing{}, false
	}
	l, ok := i.bySymbol[core.NormalizeSymbol(symbol)]
	return l, ok
}

// Len returns the number of distinct symbols.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.bySymbol)
}

// LoadFile reads a CSV listing from path. An empty path yields an empty index.
func LoadFile(path string) (*Index, error) {
	if path == "" {
		return NewIndex(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening listing: %w", err)
	}
	defer f.Close()

	listings, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return NewIndex(listings), nil
}

// Parse reads rows of Symbol,Name[,Exchange]. A first row whose first cell
// is "Symbol" is treated as a header. Rows without a symbol are skipped.
func Parse(r io.Reader) ([]core.Listing, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var listings []core.Listing
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "symbol") {
				continue
			}
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}

		l := core.Listing{Symbol: core.NormalizeSymbol(record[0])}
		if len(record) > 1 {
			l.Name = strings.TrimSpace(record[1])
		}
		if len(record) > 2 {
			l.Exchange = strings.TrimSpace(record[2])
		}
		listings = append(listings, l)
	}
	return listings, nil
}
