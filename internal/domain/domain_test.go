package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Quote ---

func TestNewQuote_Midprice(t *testing.T) {
	q, err := NewQuote("AAPL", d("184"), d("186"))
	require.NoError(t, err)
	assert.True(t, d("185").Equal(q.Midprice()))
	assert.True(t, d("2").Equal(q.Spread()))
}

func TestNewQuote_AskBelowBid(t *testing.T) {
	_, err := NewQuote("AAPL", d("186"), d("184"))
	var qe *InvalidQuoteError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "quote", qe.Field)
	assert.Contains(t, qe.Error(), "ask below bid")
}

func TestNewQuote_Negative(t *testing.T) {
	_, err := NewQuote("AAPL", d("-1"), d("2"))
	var qe *InvalidQuoteError
	assert.ErrorAs(t, err, &qe)
}

func TestNewQuote_ZeroIsValid(t *testing.T) {
	q, err := NewQuote("X", decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, q.Midprice().IsZero())
}

// --- OptionLeg ---

func TestNewOptionLeg_Valid(t *testing.T) {
	leg, err := NewOptionLeg(OptionLeg{
		Type: Call, LastPrice: d("3.00"), Bid: d("2.95"), Ask: d("3.05"),
		Volume: 150, AskSize: 20, StrikePrice: d("185"),
	})
	require.NoError(t, err)
	assert.True(t, d("0.10").Equal(leg.Spread()))
}

func TestNewOptionLeg_Invalid(t *testing.T) {
	cases := map[string]OptionLeg{
		"ask below bid":   {Type: Put, Bid: d("2"), Ask: d("1")},
		"negative last":   {Type: Put, LastPrice: d("-0.01")},
		"negative strike": {Type: Call, StrikePrice: d("-5")},
		"negative volume": {Type: Call, Volume: -1},
	}
	for name, leg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewOptionLeg(leg)
			var qe *InvalidQuoteError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, strings.ToLower(string(leg.Type)), qe.Field)
		})
	}
}

// --- OptionPair ---

func TestOptionPair_Validate(t *testing.T) {
	call := &OptionLeg{Type: Call, StrikePrice: d("185")}
	put := &OptionLeg{Type: Put, StrikePrice: d("185")}

	assert.NoError(t, OptionPair{Call: call, Put: put}.Validate(0))

	err := OptionPair{Call: call}.Validate(3)
	var me *MalformedChainEntryError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 3, me.Index)
	assert.Contains(t, me.Reason, "missing put leg")
	assert.True(t, d("185").Equal(me.Strike))

	other := &OptionLeg{Type: Put, StrikePrice: d("190")}
	err = OptionPair{Call: call, Put: other}.Validate(1)
	require.ErrorAs(t, err, &me)
	assert.Contains(t, me.Reason, "strike mismatch")

	err = OptionPair{Call: call, Put: put, Problems: []string{"put.bid: not numeric"}}.Validate(2)
	require.ErrorAs(t, err, &me)
	assert.Contains(t, me.Reason, "put.bid")
}

func TestMalformedChainEntryError_Unwrap(t *testing.T) {
	cause := &InvalidQuoteError{Field: "call", Reason: "ask below bid"}
	err := error(&MalformedChainEntryError{Index: 0, Reason: "invalid call leg", Err: cause})

	var qe *InvalidQuoteError
	assert.True(t, errors.As(err, &qe))
	assert.Contains(t, err.Error(), "ask below bid")
}

// --- EvaluateParity ---

func TestEvaluateParity_Scenario(t *testing.T) {
	// strike=185, stock=185, call=3.00, put=2.80 → 18500 - 18500 + 20 = 20
	buy, sell := EvaluateParity(d("185"), d("185"), d("3.00"), d("2.80"), DefaultMultiplier)

	assert.True(t, d("18500").Equal(buy.OptionsStockSale))
	assert.True(t, d("-18500").Equal(buy.CostOfStock))
	assert.True(t, d("20").Equal(buy.OptionsSale))
	assert.True(t, d("20").Equal(buy.Result))
	assert.True(t, d("-20").Equal(sell.Result))
}

func TestEvaluateParity_NegationAndSum(t *testing.T) {
	inputs := [][4]string{
		{"185", "185", "3.00", "2.80"},
		{"184.37", "190", "1.13", "6.41"},
		{"0.5", "1", "0", "0.51"},
		{"1234.5678", "1200", "40.015", "5.0001"},
		{"0", "0", "0", "0"},
	}
	for _, in := range inputs {
		buy, sell := EvaluateParity(d(in[0]), d(in[1]), d(in[2]), d(in[3]), DefaultMultiplier)

		assert.True(t, sell.Result.Equal(buy.Result.Neg()), "sell debe ser el negado exacto de buy: %v", in)
		for _, r := range []StrategyResult{buy, sell} {
			sum := r.OptionsStockSale.Add(r.CostOfStock).Add(r.OptionsSale)
			assert.True(t, sum.Equal(r.Result), "result debe ser la suma de sus términos: %v", in)
		}
	}
}

func TestEvaluateParity_CustomMultiplier(t *testing.T) {
	buy, _ := EvaluateParity(d("100"), d("101"), d("1"), d("1.5"), d("10"))
	// 10*101 - 10*100 + 10*(-0.5) = 1010 - 1000 - 5 = 5
	assert.True(t, d("5").Equal(buy.Result))
}

// --- Finding ---

func TestFinding_Best(t *testing.T) {
	f := Finding{BuyResult: d("20"), SellResult: d("-20")}
	dir, v := f.Best()
	assert.Equal(t, "conversion", dir)
	assert.True(t, d("20").Equal(v))

	f = Finding{BuyResult: d("-7.5"), SellResult: d("7.5")}
	dir, _ = f.Best()
	assert.Equal(t, "reversal", dir)
}

func TestChainParams_HasExpiry(t *testing.T) {
	assert.False(t, ChainParams{}.HasExpiry())
	assert.True(t, ChainParams{ExpiryYear: 2026, ExpiryMonth: 11, ExpiryDay: 20}.HasExpiry())
}
