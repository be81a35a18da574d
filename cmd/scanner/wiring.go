package main

import (
	"fmt"
	"io"

	"github.com/alejandrodnm/paritybot/config"
	"github.com/alejandrodnm/paritybot/internal/adapters/notify"
	"github.com/alejandrodnm/paritybot/internal/domain"
	"github.com/alejandrodnm/paritybot/internal/ports"
	"github.com/alejandrodnm/paritybot/internal/scanner"
	"github.com/shopspring/decimal"
)

// buildScanConfig traduce la config YAML a scanner.Config.
func buildScanConfig(cfg *config.Config) (scanner.Config, error) {
	sc := cfg.Scanner

	policy, err := scanner.ParsePolicy(sc.OnMalformed)
	if err != nil {
		return scanner.Config{}, err
	}

	params := domain.ChainParams{
		StrikePriceNear: decimal.NewFromFloat(sc.StrikePriceNear),
		NoOfStrikes:     sc.NoOfStrikes,
	}
	expiry, ok, err := cfg.Expiry()
	if err != nil {
		return scanner.Config{}, err
	}
	if ok {
		params.ExpiryYear = expiry.Year()
		params.ExpiryMonth = int(expiry.Month())
		params.ExpiryDay = expiry.Day()
	}

	out := scanner.DefaultConfig()
	out.Symbol = sc.Symbol
	out.Params = params
	out.ScanInterval = cfg.ScanInterval()
	out.Multiplier = decimal.NewFromInt(sc.Multiplier)
	if sc.MinVolume != nil {
		out.Filter.MinVolume = *sc.MinVolume
	}
	if sc.MinAskSize != nil {
		out.Filter.MinAskSize = *sc.MinAskSize
	}
	if sc.MaxSpread > 0 {
		out.Filter.MaxSpread = decimal.NewFromFloat(sc.MaxSpread)
	}
	out.OnMalformed = policy
	out.Workers = sc.Workers
	out.AlertMin = decimal.NewFromFloat(sc.AlertMinResult)
	return out, nil
}

// newNotifier elige el presentador según -format.
func newNotifier(format string, out io.Writer) (ports.Notifier, error) {
	switch format {
	case "", "table":
		return notify.NewConsoleWriter(out, true), nil
	case "compact":
		return notify.NewConsoleWriter(out, false), nil
	case "csv":
		return notify.NewCSVWriter(out), nil
	default:
		return nil, fmt.Errorf("unknown format %q (table|compact|csv)", format)
	}
}
