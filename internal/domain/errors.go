package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MalformedChainEntryError describe una fila de la cadena que no se puede evaluar.
type MalformedChainEntryError struct {
	Index  int
	Strike decimal.Decimal
	Reason string
	Err    error // causa, p.ej. *InvalidQuoteError de una pata
}

func (e *MalformedChainEntryError) Error() string {
	msg := fmt.Sprintf("malformed chain entry #%d (strike %s): %s", e.Index, e.Strike, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedChainEntryError) Unwrap() error {
	return e.Err
}
