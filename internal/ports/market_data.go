package ports

import (
	"context"

	"github.com/alejandrodnm/paritybot/internal/domain"
)

// MarketDataProvider obtiene el quote del subyacente y su cadena de opciones.
type MarketDataProvider interface {
	// GetQuote devuelve el bid/ask actual del subyacente.
	GetQuote(ctx context.Context, symbol string) (domain.Quote, error)

	// GetOptionChain devuelve las filas call/put para un vencimiento.
	// Las filas con datos incompletos se devuelven igualmente con Problems rellenado;
	// decidir si se saltan es responsabilidad del scanner.
	GetOptionChain(ctx context.Context, symbol string, params domain.ChainParams) ([]domain.OptionPair, error)
}
