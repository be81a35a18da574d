package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OptionType distingue call y put.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// Greeks son informativas; el scanner no las usa para decidir.
type Greeks struct {
	Gamma decimal.Decimal
	IV    decimal.Decimal
}

// OptionLeg es un lado (call o put) de una fila de la cadena.
type OptionLeg struct {
	Type        OptionType
	Symbol      string
	LastPrice   decimal.Decimal
	Bid         decimal.Decimal
	Ask         decimal.Decimal
	Volume      int64
	AskSize     int64
	StrikePrice decimal.Decimal
	Greeks      Greeks
}

// NewOptionLeg valida la pata y la devuelve. Todos los campos monetarios deben ser >= 0
// y ask >= bid.
func NewOptionLeg(leg OptionLeg) (OptionLeg, error) {
	if err := leg.Validate(); err != nil {
		return OptionLeg{}, err
	}
	return leg, nil
}

// Validate comprueba los invariantes de la pata.
func (l OptionLeg) Validate() error {
	field := strings.ToLower(string(l.Type))
	if field == "" {
		field = "option"
	}
	if err := checkBidAsk(field, l.Bid, l.Ask); err != nil {
		return err
	}
	if l.LastPrice.IsNegative() {
		return &InvalidQuoteError{Field: field, Bid: l.Bid, Ask: l.Ask, Reason: "negative last price"}
	}
	if l.StrikePrice.IsNegative() {
		return &InvalidQuoteError{Field: field, Bid: l.Bid, Ask: l.Ask, Reason: "negative strike"}
	}
	if l.Volume < 0 || l.AskSize < 0 {
		return &InvalidQuoteError{Field: field, Bid: l.Bid, Ask: l.Ask, Reason: "negative volume or ask size"}
	}
	return nil
}

// Spread devuelve ask - bid de la pata.
func (l OptionLeg) Spread() decimal.Decimal {
	return l.Ask.Sub(l.Bid)
}

// OptionPair es una fila de la cadena: call y put con el mismo strike y vencimiento.
// Un lado nil o un Problem registrado por el adapter marcan la fila como malformada.
type OptionPair struct {
	Call     *OptionLeg
	Put      *OptionLeg
	Problems []string
}

// Strike devuelve el strike de la fila (el del call si existe).
func (p OptionPair) Strike() decimal.Decimal {
	switch {
	case p.Call != nil:
		return p.Call.StrikePrice
	case p.Put != nil:
		return p.Put.StrikePrice
	}
	return decimal.Zero
}

// Validate devuelve un *MalformedChainEntryError si a la fila le falta una pata,
// tiene campos inválidos o los strikes de call y put no coinciden.
func (p OptionPair) Validate(index int) error {
	var reasons []string
	reasons = append(reasons, p.Problems...)
	if p.Call == nil {
		reasons = append(reasons, "missing call leg")
	}
	if p.Put == nil {
		reasons = append(reasons, "missing put leg")
	}
	if p.Call != nil && p.Put != nil && !p.Call.StrikePrice.Equal(p.Put.StrikePrice) {
		reasons = append(reasons, fmt.Sprintf("strike mismatch call=%s put=%s", p.Call.StrikePrice, p.Put.StrikePrice))
	}
	if len(reasons) == 0 {
		for _, leg := range []*OptionLeg{p.Call, p.Put} {
			if err := leg.Validate(); err != nil {
				return &MalformedChainEntryError{
					Index:  index,
					Strike: p.Strike(),
					Reason: "invalid " + strings.ToLower(string(leg.Type)) + " leg",
					Err:    err,
				}
			}
		}
		return nil
	}
	return &MalformedChainEntryError{
		Index:  index,
		Strike: p.Strike(),
		Reason: strings.Join(reasons, "; "),
	}
}
