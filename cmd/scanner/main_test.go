package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alejandrodnm/paritybot/config"
	"github.com/alejandrodnm/paritybot/internal/adapters/etrade"
	"github.com/alejandrodnm/paritybot/internal/adapters/notify"
	"github.com/alejandrodnm/paritybot/internal/adapters/storage"
	"github.com/alejandrodnm/paritybot/internal/domain"
	"github.com/alejandrodnm/paritybot/internal/ports"
	"github.com/alejandrodnm/paritybot/internal/scanner"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScanConfig(t *testing.T) {
	minVolume, minAskSize := int64(50), int64(5)
	cfg := &config.Config{Scanner: config.ScannerConfig{
		Symbol:          "CAT",
		IntervalSeconds: 30,
		StrikePriceNear: 250.5,
		NoOfStrikes:     6,
		ExpiryDate:      "2026-11-20",
		Multiplier:      100,
		MinVolume:       &minVolume,
		MinAskSize:      &minAskSize,
		MaxSpread:       0.25,
		OnMalformed:     "abort",
		Workers:         4,
		AlertMinResult:  5,
	}}

	sc, err := buildScanConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "CAT", sc.Symbol)
	assert.Equal(t, "30s", sc.ScanInterval.String())
	assert.True(t, decimal.RequireFromString("250.5").Equal(sc.Params.StrikePriceNear))
	assert.Equal(t, 6, sc.Params.NoOfStrikes)
	assert.Equal(t, 2026, sc.Params.ExpiryYear)
	assert.Equal(t, 11, sc.Params.ExpiryMonth)
	assert.Equal(t, 20, sc.Params.ExpiryDay)
	assert.True(t, decimal.NewFromInt(100).Equal(sc.Multiplier))
	assert.Equal(t, int64(50), sc.Filter.MinVolume)
	assert.Equal(t, int64(5), sc.Filter.MinAskSize)
	assert.True(t, decimal.RequireFromString("0.25").Equal(sc.Filter.MaxSpread))
	assert.Equal(t, scanner.PolicyAbort, sc.OnMalformed)
	assert.Equal(t, 4, sc.Workers)
	assert.True(t, decimal.NewFromInt(5).Equal(sc.AlertMin))
}

func TestBuildScanConfig_NoExpiry(t *testing.T) {
	cfg := &config.Config{Scanner: config.ScannerConfig{OnMalformed: "skip", Multiplier: 100}}

	sc, err := buildScanConfig(cfg)
	require.NoError(t, err)
	assert.False(t, sc.Params.HasExpiry())
	assert.Equal(t, scanner.PolicySkip, sc.OnMalformed)
	assert.Equal(t, scanner.DefaultFilterConfig().MinVolume, sc.Filter.MinVolume)
	assert.Equal(t, scanner.DefaultFilterConfig().MinAskSize, sc.Filter.MinAskSize)
}

func TestBuildScanConfig_ZeroThresholds(t *testing.T) {
	zero := int64(0)
	cfg := &config.Config{Scanner: config.ScannerConfig{
		OnMalformed: "skip", Multiplier: 100, MaxSpread: 0.5,
		MinVolume: &zero, MinAskSize: &zero,
	}}

	sc, err := buildScanConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sc.Filter.MinVolume)
	assert.Equal(t, int64(0), sc.Filter.MinAskSize)
}

func TestBuildScanConfig_BadPolicy(t *testing.T) {
	cfg := &config.Config{Scanner: config.ScannerConfig{OnMalformed: "retry"}}
	_, err := buildScanConfig(cfg)
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	var buf bytes.Buffer
	n, err := newNotifier("table", &buf)
	require.NoError(t, err)
	assert.IsType(t, &notify.Console{}, n)

	n, err = newNotifier("csv", &buf)
	require.NoError(t, err)
	assert.IsType(t, &notify.CSV{}, n)

	_, err = newNotifier("xml", &buf)
	assert.Error(t, err)
}

// --- auth ---

type fakeOAuth struct {
	installed etrade.Token
	requested bool
	verifier  string
	accessErr error
}

func (f *fakeOAuth) SetToken(t etrade.Token) { f.installed = t }

func (f *fakeOAuth) RequestToken(context.Context) (etrade.Token, error) {
	f.requested = true
	return etrade.Token{Token: "req", Secret: "reqsecret"}, nil
}

func (f *fakeOAuth) AuthorizeURL(t etrade.Token) string {
	return "https://authorize.test/?token=" + t.Token
}

func (f *fakeOAuth) AccessToken(_ context.Context, _ etrade.Token, verifier string) (etrade.Token, error) {
	if f.accessErr != nil {
		return etrade.Token{}, f.accessErr
	}
	f.verifier = verifier
	f.installed = etrade.Token{Token: "acc", Secret: "accsecret"}
	return f.installed, nil
}

type fakeCache struct {
	tok   storage.Token
	ok    bool
	saved []storage.Token
}

func (f *fakeCache) LoadToken(context.Context, string) (storage.Token, bool, error) {
	return f.tok, f.ok, nil
}

func (f *fakeCache) SaveToken(_ context.Context, _ string, tok storage.Token) error {
	f.saved = append(f.saved, tok)
	return nil
}

func TestAuthenticate_CachedToken(t *testing.T) {
	client := &fakeOAuth{}
	cache := &fakeCache{tok: storage.Token{Token: "cached", Secret: "s"}, ok: true}

	err := authenticate(context.Background(), client, cache, "ck", strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)

	assert.False(t, client.requested)
	assert.Equal(t, "cached", client.installed.Token)
	assert.Empty(t, cache.saved)
}

func TestAuthenticate_Interactive(t *testing.T) {
	client := &fakeOAuth{}
	cache := &fakeCache{}
	var out bytes.Buffer

	err := authenticate(context.Background(), client, cache, "ck", strings.NewReader("  XY12Z \n"), &out)
	require.NoError(t, err)

	assert.True(t, client.requested)
	assert.Equal(t, "XY12Z", client.verifier)
	assert.Contains(t, out.String(), "https://authorize.test/?token=req")
	require.Len(t, cache.saved, 1)
	assert.Equal(t, "acc", cache.saved[0].Token)
}

func TestAuthenticate_EmptyVerifier(t *testing.T) {
	err := authenticate(context.Background(), &fakeOAuth{}, &fakeCache{}, "ck", strings.NewReader("\n"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "empty verification code")
}

func TestAuthenticate_AccessError(t *testing.T) {
	cache := &fakeCache{}
	client := &fakeOAuth{accessErr: errors.New("client error 401")}

	err := authenticate(context.Background(), client, cache, "ck", strings.NewReader("abc\n"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "401")
	assert.Empty(t, cache.saved)
}

func TestAuthenticate_MissingKey(t *testing.T) {
	err := authenticate(context.Background(), &fakeOAuth{}, &fakeCache{}, "", strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

// --- run ---

func writeRunConfig(t *testing.T, dsn string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "scanner:\n  symbol: AAPL\nstorage:\n  dsn: " + dsn + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func keepDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func liquidLeg(typ domain.OptionType, last string) *domain.OptionLeg {
	p := decimal.RequireFromString(last)
	return &domain.OptionLeg{
		Type:        typ,
		LastPrice:   p,
		Bid:         p.Sub(decimal.RequireFromString("0.05")),
		Ask:         p.Add(decimal.RequireFromString("0.05")),
		Volume:      150,
		AskSize:     20,
		StrikePrice: decimal.NewFromInt(185),
	}
}

func TestRun_ReplayCSV(t *testing.T) {
	keepDefaultLogger(t)
	dsn := filepath.Join(t.TempDir(), "replay.db")

	db, err := storage.NewSQLiteStorage(dsn)
	require.NoError(t, err)
	q, err := domain.NewQuote("AAPL", decimal.NewFromInt(184), decimal.NewFromInt(186))
	require.NoError(t, err)
	require.NoError(t, db.SaveSnapshot(context.Background(), ports.Snapshot{
		Symbol: "AAPL",
		Quote:  q,
		Chain:  []domain.OptionPair{{Call: liquidLeg(domain.Call, "3.00"), Put: liquidLeg(domain.Put, "2.80")}},
	}))
	require.NoError(t, db.Close())

	var stdout, stderr bytes.Buffer
	opts := options{configPath: writeRunConfig(t, dsn), replay: true, format: "csv"}
	require.NoError(t, run(context.Background(), opts, strings.NewReader(""), &stdout, &stderr))

	records, err := csv.NewReader(&stdout).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Contains(t, records[1], "185")
	assert.Contains(t, records[1], "20")

	// la DB quedó cerrada y se puede volver a abrir
	db, err = storage.NewSQLiteStorage(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestRun_ReturnsErrorInsteadOfExiting(t *testing.T) {
	keepDefaultLogger(t)
	dsn := filepath.Join(t.TempDir(), "empty.db")

	var stdout, stderr bytes.Buffer
	opts := options{configPath: writeRunConfig(t, dsn), replay: true, format: "table"}
	err := run(context.Background(), opts, strings.NewReader(""), &stdout, &stderr)
	assert.ErrorIs(t, err, storage.ErrNoSnapshot)

	_, err = os.Stat(dsn)
	assert.NoError(t, err)
}

func TestRun_BadFormat(t *testing.T) {
	keepDefaultLogger(t)
	opts := options{configPath: writeRunConfig(t, ":memory:"), replay: true, format: "xml"}
	err := run(context.Background(), opts, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid output format")
}
