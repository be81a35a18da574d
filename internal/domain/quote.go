package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// InvalidQuoteError indica que un quote o una pata de opción viola ask >= bid >= 0.
type InvalidQuoteError struct {
	Field  string // "quote", "call", "put", ...
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Reason string
}

func (e *InvalidQuoteError) Error() string {
	return fmt.Sprintf("invalid %s: %s (bid=%s ask=%s)", e.Field, e.Reason, e.Bid, e.Ask)
}

// Quote es el precio bid/ask del subyacente.
type Quote struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
	Last   decimal.Decimal // último trade, solo informativo
}

// NewQuote construye un Quote validado. Falla si ask < bid o algún valor es negativo.
func NewQuote(symbol string, bid, ask decimal.Decimal) (Quote, error) {
	if err := checkBidAsk("quote", bid, ask); err != nil {
		return Quote{}, err
	}
	return Quote{Symbol: symbol, Bid: bid, Ask: ask}, nil
}

// Validate vuelve a comprobar los invariantes; útil para Quotes construidos a mano.
func (q Quote) Validate() error {
	return checkBidAsk("quote", q.Bid, q.Ask)
}

// Midprice devuelve (bid+ask)/2.
func (q Quote) Midprice() decimal.Decimal {
	return q.Bid.Add(q.Ask).Div(two)
}

// Spread devuelve ask - bid.
func (q Quote) Spread() decimal.Decimal {
	return q.Ask.Sub(q.Bid)
}

func checkBidAsk(field string, bid, ask decimal.Decimal) error {
	switch {
	case bid.IsNegative():
		return &InvalidQuoteError{Field: field, Bid: bid, Ask: ask, Reason: "negative bid"}
	case ask.IsNegative():
		return &InvalidQuoteError{Field: field, Bid: bid, Ask: ask, Reason: "negative ask"}
	case ask.LessThan(bid):
		return &InvalidQuoteError{Field: field, Bid: bid, Ask: ask, Reason: "ask below bid"}
	}
	return nil
}
