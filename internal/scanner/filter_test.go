package scanner

import (
	"testing"

	"github.com/alejandrodnm/paritybot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func makeLeg(typ domain.OptionType, bid, ask string, volume, askSize int64) *domain.OptionLeg {
	return &domain.OptionLeg{
		Type:        typ,
		LastPrice:   decimal.RequireFromString(ask),
		Bid:         decimal.RequireFromString(bid),
		Ask:         decimal.RequireFromString(ask),
		Volume:      volume,
		AskSize:     askSize,
		StrikePrice: decimal.NewFromInt(185),
	}
}

func liquidPair() domain.OptionPair {
	return domain.OptionPair{
		Call: makeLeg(domain.Call, "2.95", "3.05", 150, 20),
		Put:  makeLeg(domain.Put, "2.75", "2.85", 150, 20),
	}
}

func TestFilter_Check_AllOkay(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())
	liq := f.Check(liquidPair())
	assert.True(t, liq.VolumeOkay)
	assert.True(t, liq.BidAskOkay)
	assert.True(t, liq.SpreadOkay)
	assert.True(t, f.Passes(liquidPair()))
}

func TestFilter_EachPredicateIsAHardGate(t *testing.T) {
	f := NewFilter(DefaultFilterConfig())

	cases := map[string]func(p *domain.OptionPair){
		"call volume":    func(p *domain.OptionPair) { p.Call.Volume = 50 },
		"put volume":     func(p *domain.OptionPair) { p.Put.Volume = 100 }, // estrictamente mayor
		"call ask size":  func(p *domain.OptionPair) { p.Call.AskSize = 10 },
		"put ask size":   func(p *domain.OptionPair) { p.Put.AskSize = 0 },
		"call spread":    func(p *domain.OptionPair) { p.Call.Ask = decimal.RequireFromString("3.45") },
		"put spread":     func(p *domain.OptionPair) { p.Put.Bid = decimal.RequireFromString("2.00") },
		"spread at edge": func(p *domain.OptionPair) { p.Call.Bid = decimal.RequireFromString("2.55") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := liquidPair()
			mutate(&p)
			assert.False(t, f.Passes(p))
		})
	}
}

func TestFilter_CustomThresholds(t *testing.T) {
	cfg := FilterConfig{MinVolume: 10, MinAskSize: 1, MaxSpread: decimal.RequireFromString("0.05")}
	f := NewFilter(cfg)

	p := liquidPair()
	liq := f.Check(p)
	assert.True(t, liq.VolumeOkay)
	assert.True(t, liq.BidAskOkay)
	assert.False(t, liq.SpreadOkay, "0.10 de spread no pasa con max 0.05")
}

func TestSplitShards(t *testing.T) {
	assert.Nil(t, splitShards(0, 4))
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 7}}, splitShards(7, 3))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, splitShards(2, 8))
	assert.Equal(t, [][2]int{{0, 5}}, splitShards(5, 0))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	assert.NoError(t, err)
	assert.Equal(t, PolicySkip, p)

	p, err = ParsePolicy("abort")
	assert.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)

	_, err = ParsePolicy("retry")
	assert.Error(t, err)
}
