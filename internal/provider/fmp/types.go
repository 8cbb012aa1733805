package fmp

// SearchResult is one candidate of the search and search-ticker endpoints.
type SearchResult struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	Currency          string `json:"currency"`
	StockExchange     string `json:"stockExchange"`
	ExchangeShortName string `json:"exchangeShortName"`
}

// FMP API response types
type quoteResponse struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	Change            float64 `json:"change"`
	ChangesPercentage float64 `json:"changesPercentage"`
}

type historyResponse struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"historical"`
}

type incomeResponse struct {
	Date        string  `json:"date"`
	Revenue     float64 `json:"revenue"`
	GrossProfit float64 `json:"grossProfit"`
	EPS         float64 `json:"eps"`
}

type errorPayload struct {
	ErrorMessage string `json:"Error Message"`
}
