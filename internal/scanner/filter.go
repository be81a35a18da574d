package scanner

import (
	"github.com/alejandrodnm/paritybot/internal/domain"
	"github.com/shopspring/decimal"
)

// FilterConfig contiene los umbrales de liquidez. Se aplican a call y put por igual.
type FilterConfig struct {
	// MinVolume: volumen del día que cada pata debe superar.
	MinVolume int64
	// MinAskSize: tamaño en el ask que cada pata debe superar.
	MinAskSize int64
	// MaxSpread: ask - bid de cada pata debe quedar por debajo.
	MaxSpread decimal.Decimal
}

// DefaultFilterConfig devuelve los umbrales por defecto (100 / 10 / 0.5).
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinVolume:  100,
		MinAskSize: 10,
		MaxSpread:  decimal.NewFromFloat(0.5),
	}
}

// IsZero devuelve true si no se configuró ningún umbral. Con MaxSpread en cero
// ninguna fila pasaría nunca el filtro.
func (c FilterConfig) IsZero() bool {
	return c.MinVolume == 0 && c.MinAskSize == 0 && c.MaxSpread.IsZero()
}

// Liquidity es el desglose de los tres criterios para una fila.
type Liquidity struct {
	VolumeOkay bool
	BidAskOkay bool
	SpreadOkay bool
}

// Tradable devuelve true si los tres criterios se cumplen.
func (l Liquidity) Tradable() bool {
	return l.VolumeOkay && l.BidAskOkay && l.SpreadOkay
}

// Filter decide si una fila de la cadena es operable con seguridad.
type Filter struct {
	cfg FilterConfig
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Check evalúa los tres criterios. La fila debe tener call y put (ver OptionPair.Validate).
func (f *Filter) Check(pair domain.OptionPair) Liquidity {
	call, put := pair.Call, pair.Put
	return Liquidity{
		VolumeOkay: call.Volume > f.cfg.MinVolume && put.Volume > f.cfg.MinVolume,
		BidAskOkay: call.AskSize > f.cfg.MinAskSize && put.AskSize > f.cfg.MinAskSize,
		SpreadOkay: call.Spread().LessThan(f.cfg.MaxSpread) && put.Spread().LessThan(f.cfg.MaxSpread),
	}
}

// Passes devuelve true si la fila supera todos los criterios.
func (f *Filter) Passes(pair domain.OptionPair) bool {
	return f.Check(pair).Tradable()
}
