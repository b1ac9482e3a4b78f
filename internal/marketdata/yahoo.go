package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/paper-trading-service/internal/ledger"
	"github.com/quantfolio/paper-trading-service/internal/models"
)

// YahooProvider fetches quotes from the Yahoo Finance v8 chart endpoint.
type YahooProvider struct {
	client  *http.Client
	baseURL string
}

// NewYahooProvider creates a provider with the given request timeout.
func NewYahooProvider(timeout time.Duration) *YahooProvider {
	return &YahooProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://query2.finance.yahoo.com",
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches the latest market price for a symbol.
func (p *YahooProvider) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.Quote{}, fmt.Errorf("%w: empty symbol", ledger.ErrPriceUnavailable)
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", p.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: %s: %v", ledger.ErrPriceUnavailable, symbol, err)
	}
	req.Header.Set("User-Agent", "paper-trading-service/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: %s: %v", ledger.ErrPriceUnavailable, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Quote{}, fmt.Errorf("%w: %s: http %d", ledger.ErrPriceUnavailable, symbol, resp.StatusCode)
	}

	var raw yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.Quote{}, fmt.Errorf("%w: %s: decode: %v", ledger.ErrPriceUnavailable, symbol, err)
	}

	if raw.Chart.Error != nil {
		return models.Quote{}, fmt.Errorf("%w: %s: %s", ledger.ErrPriceUnavailable, symbol, raw.Chart.Error.Description)
	}
	if len(raw.Chart.Result) == 0 || raw.Chart.Result[0].Meta.RegularMarketPrice <= 0 {
		return models.Quote{}, fmt.Errorf("%w: %s: no result", ledger.ErrPriceUnavailable, symbol)
	}

	meta := raw.Chart.Result[0].Meta
	asOf := time.Now()
	if meta.RegularMarketTime > 0 {
		asOf = time.Unix(meta.RegularMarketTime, 0)
	}

	return models.Quote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(meta.RegularMarketPrice),
		PreviousClose: decimal.NewFromFloat(meta.PreviousClose),
		Currency:      meta.Currency,
		AsOf:          asOf,
	}, nil
}
