package core

import (
	"strings"
	"time"
)

// NormalizeSymbol trims a ticker symbol and converts it to the stored
// uppercase form. It returns "" for blank input.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Listing is one row of an exchange listing
type Listing struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// Quote represents a current price quote
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// IsValid reports whether the quote carries a symbol and a positive price.
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// PricePoint is a single closing price of a daily series
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// IncomeStatement holds the annual figures shown on the company page
type IncomeStatement struct {
	Date        time.Time `json:"date"`
	Revenue     float64   `json:"revenue"`
	GrossProfit float64   `json:"gross_profit"`
	EPS         float64   `json:"eps"`
}
