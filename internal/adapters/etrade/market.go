package etrade

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/paritybot/internal/domain"
)

const (
	quotePath        = "/v1/market/quote/%s.json"
	optionChainsPath = "/v1/market/optionchains.json"
)

// GetQuote devuelve el bid/ask del subyacente.
func (c *Client) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	var resp quoteEnvelope
	path := fmt.Sprintf(quotePath, url.PathEscape(symbol))
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("etrade.GetQuote: %w", err)
	}

	q, err := mapQuote(symbol, resp.QuoteResponse)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("etrade.GetQuote: %w", err)
	}
	return q, nil
}

// GetOptionChain devuelve las filas call/put de la cadena en el orden de la API.
func (c *Client) GetOptionChain(ctx context.Context, symbol string, params domain.ChainParams) ([]domain.OptionPair, error) {
	var resp optionChainEnvelope
	if err := c.get(ctx, optionChainsPath, chainQuery(symbol, params), &resp); err != nil {
		return nil, fmt.Errorf("etrade.GetOptionChain: %w", err)
	}

	pairs := mapOptionPairs(resp.OptionChainResponse.OptionPair)

	incomplete := 0
	for _, p := range pairs {
		if len(p.Problems) > 0 || p.Call == nil || p.Put == nil {
			incomplete++
		}
	}
	slog.Debug("option chain fetched",
		"symbol", symbol,
		"pairs", len(pairs),
		"incomplete", incomplete,
		"quote_type", resp.OptionChainResponse.QuoteType,
	)
	return pairs, nil
}

// chainQuery arma los query params de /optionchains.
func chainQuery(symbol string, params domain.ChainParams) url.Values {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("chainType", "CALLPUT")
	if params.StrikePriceNear.IsPositive() {
		q.Set("strikePriceNear", params.StrikePriceNear.String())
	}
	if params.NoOfStrikes > 0 {
		q.Set("noOfStrikes", strconv.Itoa(params.NoOfStrikes))
	}
	if params.HasExpiry() {
		q.Set("expiryYear", strconv.Itoa(params.ExpiryYear))
		q.Set("expiryMonth", strconv.Itoa(params.ExpiryMonth))
		q.Set("expiryDay", strconv.Itoa(params.ExpiryDay))
	}
	return q
}
