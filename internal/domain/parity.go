package domain

import "github.com/shopspring/decimal"

// DefaultMultiplier es el tamaño estándar de contrato: 100 acciones.
var DefaultMultiplier = decimal.NewFromInt(100)

// StrategyResult es el P&L de ejecutar una posición sintética por contrato.
type StrategyResult struct {
	OptionsStockSale decimal.Decimal // venta/compra de las acciones al strike
	CostOfStock      decimal.Decimal // compra/venta de las acciones hoy
	OptionsSale      decimal.Decimal // prima neta de las opciones
	Result           decimal.Decimal // suma de los tres anteriores
}

func newStrategyResult(stockSale, costOfStock, optionsSale decimal.Decimal) StrategyResult {
	return StrategyResult{
		OptionsStockSale: stockSale,
		CostOfStock:      costOfStock,
		OptionsSale:      optionsSale,
		Result:           stockSale.Add(costOfStock).Add(optionsSale),
	}
}

// EvaluateParity calcula las dos posiciones sintéticas neutrales para un strike:
//
//	buy  (conversion): vender call, comprar put, comprar acciones
//	sell (reversal):   comprar call, vender put, vender acciones en corto
//
// Cada término de sell es exactamente el negado del de buy, así que
// sell.Result == buy.Result.Neg().
func EvaluateParity(stockPrice, strikePrice, callPrice, putPrice, multiplier decimal.Decimal) (buy, sell StrategyResult) {
	stockSale := multiplier.Mul(strikePrice)
	costOfStock := multiplier.Mul(stockPrice).Neg()
	optionsSale := multiplier.Mul(callPrice.Sub(putPrice))

	buy = newStrategyResult(stockSale, costOfStock, optionsSale)
	sell = newStrategyResult(stockSale.Neg(), costOfStock.Neg(), optionsSale.Neg())
	return buy, sell
}
