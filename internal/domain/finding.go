package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Finding es una fila líquida de la cadena con sus resultados de paridad.
type Finding struct {
	Index      int // posición en la cadena original
	Pair       OptionPair
	Buy        StrategyResult
	Sell       StrategyResult
	BuyResult  decimal.Decimal
	SellResult decimal.Decimal
}

// Strike devuelve el strike de la fila.
func (f Finding) Strike() decimal.Decimal {
	return f.Pair.Strike()
}

// Best devuelve la dirección con mayor resultado ("conversion" o "reversal") y su valor.
func (f Finding) Best() (string, decimal.Decimal) {
	if f.SellResult.GreaterThan(f.BuyResult) {
		return "reversal", f.SellResult
	}
	return "conversion", f.BuyResult
}

// SkippedEntry es una fila malformada que el scanner saltó con la política skip.
type SkippedEntry struct {
	Index int
	Err   *MalformedChainEntryError
}

// ChainParams son los parámetros de la consulta de la cadena de opciones.
type ChainParams struct {
	ExpiryYear      int
	ExpiryMonth     int
	ExpiryDay       int
	StrikePriceNear decimal.Decimal
	NoOfStrikes     int
}

// HasExpiry devuelve true si se pidió un vencimiento concreto.
func (p ChainParams) HasExpiry() bool {
	return p.ExpiryYear > 0 && p.ExpiryMonth > 0 && p.ExpiryDay > 0
}

// ScanReport es el resultado de un ciclo completo: fetch + scan.
type ScanReport struct {
	ID         uuid.UUID
	Symbol     string
	Underlying Quote
	StockPrice decimal.Decimal
	ChainSize  int
	Findings   []Finding
	Skipped    []SkippedEntry
	ScannedAt  time.Time
}
