package etrade

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alejandrodnm/paritybot/internal/domain"
	"github.com/shopspring/decimal"
)

var errAbsent = errors.New("absent")

// parseDecimal lee un número JSON (o un string numérico). errAbsent si falta o es null.
func parseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, errAbsent
	}
	s := strings.Trim(string(raw), `"`)
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not numeric: %q", s)
	}
	return v, nil
}

// parseInt lee un entero; rechaza valores con parte decimal.
func parseInt(raw json.RawMessage) (int64, error) {
	v, err := parseDecimal(raw)
	if err != nil {
		return 0, err
	}
	if !v.Equal(v.Truncate(0)) {
		return 0, fmt.Errorf("not an integer: %s", v)
	}
	return v.IntPart(), nil
}

// mapQuote convierte el primer QuoteData en domain.Quote validado.
func mapQuote(symbol string, resp quoteResponse) (domain.Quote, error) {
	if len(resp.QuoteData) == 0 {
		if len(resp.Messages.Message) > 0 {
			return domain.Quote{}, fmt.Errorf("no quote data for %s: %s", symbol, resp.Messages.Message[0].Description)
		}
		return domain.Quote{}, fmt.Errorf("no quote data for %s", symbol)
	}

	qd := resp.QuoteData[0]
	bid, err := parseDecimal(qd.All.Bid)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quote %s bid: %w", symbol, err)
	}
	ask, err := parseDecimal(qd.All.Ask)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("quote %s ask: %w", symbol, err)
	}

	if qd.Product.Symbol != "" {
		symbol = qd.Product.Symbol
	}
	q, err := domain.NewQuote(symbol, bid, ask)
	if err != nil {
		return domain.Quote{}, err
	}
	if last, err := parseDecimal(qd.All.LastTrade); err == nil {
		q.Last = last
	}
	return q, nil
}

// mapOptionPairs convierte las filas de la cadena manteniendo su orden.
// Una pata con campos requeridos ausentes o no numéricos se descarta (nil) y el
// motivo queda en OptionPair.Problems.
func mapOptionPairs(raw []optionPair) []domain.OptionPair {
	pairs := make([]domain.OptionPair, 0, len(raw))
	for _, r := range raw {
		var p domain.OptionPair
		p.Call = mapLeg(domain.Call, r.Call, &p.Problems)
		p.Put = mapLeg(domain.Put, r.Put, &p.Problems)
		pairs = append(pairs, p)
	}
	return pairs
}

// mapLeg convierte una pata. Devuelve nil si falta o si algún campo requerido no se puede leer.
func mapLeg(typ domain.OptionType, raw *optionDetails, problems *[]string) *domain.OptionLeg {
	if raw == nil {
		return nil
	}
	prefix := strings.ToLower(string(typ)) + "."
	ok := true

	dec := func(name string, field json.RawMessage) decimal.Decimal {
		v, err := parseDecimal(field)
		if err != nil {
			*problems = append(*problems, prefix+name+": "+err.Error())
			ok = false
		}
		return v
	}
	integer := func(name string, field json.RawMessage) int64 {
		v, err := parseInt(field)
		if err != nil {
			*problems = append(*problems, prefix+name+": "+err.Error())
			ok = false
		}
		return v
	}

	leg := domain.OptionLeg{
		Type:        typ,
		Symbol:      raw.DisplaySymbol,
		StrikePrice: dec("strikePrice", raw.StrikePrice),
		LastPrice:   dec("lastPrice", raw.LastPrice),
		Bid:         dec("bid", raw.Bid),
		Ask:         dec("ask", raw.Ask),
		Volume:      integer("volume", raw.Volume),
		AskSize:     integer("askSize", raw.AskSize),
	}
	if !ok {
		return nil
	}

	// Las greeks son opcionales: se ignoran si no se pueden leer.
	if raw.OptionGreeks != nil {
		if g, err := parseDecimal(raw.OptionGreeks.Gamma); err == nil {
			leg.Greeks.Gamma = g
		}
		if iv, err := parseDecimal(raw.OptionGreeks.IV); err == nil {
			leg.Greeks.IV = iv
		}
	}
	return &leg
}
