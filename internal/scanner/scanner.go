package scanner

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/alejandrodnm/paritybot/internal/domain"
	"github.com/alejandrodnm/paritybot/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Policy decide qué hacer con una fila malformada de la cadena.
type Policy int

const (
	// PolicySkip registra la fila en Skipped y sigue. Las cadenas reales suelen
	// traer patas incompletas en strikes ilíquidos.
	PolicySkip Policy = iota
	// PolicyAbort corta el scan completo con *domain.MalformedChainEntryError.
	PolicyAbort
)

func (p Policy) String() string {
	if p == PolicyAbort {
		return "abort"
	}
	return "skip"
}

// ParsePolicy convierte "skip" | "abort" en Policy. Vacío = skip.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "skip":
		return PolicySkip, nil
	case "abort":
		return PolicyAbort, nil
	}
	return PolicySkip, fmt.Errorf("scanner.ParsePolicy: unknown policy %q", s)
}

// Config contiene la configuración del scanner.
type Config struct {
	Symbol       string
	Params       domain.ChainParams
	ScanInterval time.Duration
	Multiplier   decimal.Decimal
	Filter       FilterConfig
	OnMalformed  Policy
	Workers      int             // >1 reparte la cadena entre goroutines
	AlertMin     decimal.Decimal // resultado mínimo para loguear una alerta (0 = desactivado)
	DryRun       bool
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		Symbol:       "AAPL",
		Params:       domain.ChainParams{NoOfStrikes: 10},
		ScanInterval: time.Minute,
		Multiplier:   domain.DefaultMultiplier,
		Filter:       DefaultFilterConfig(),
		OnMalformed:  PolicySkip,
	}
}

// Result es la salida de un scan sobre una cadena.
type Result struct {
	StockPrice decimal.Decimal
	Findings   []domain.Finding
	Skipped    []domain.SkippedEntry
}

// evaluator aplica paridad + filtro a una fila. No tiene estado mutable.
type evaluator struct {
	stock      decimal.Decimal
	multiplier decimal.Decimal
	filter     *Filter
}

func newEvaluator(underlying domain.Quote, cfg Config) (evaluator, error) {
	if err := underlying.Validate(); err != nil {
		return evaluator{}, err
	}
	multiplier := cfg.Multiplier
	if multiplier.IsZero() {
		multiplier = domain.DefaultMultiplier
	}
	filter := cfg.Filter
	if filter.IsZero() {
		filter = DefaultFilterConfig()
	}
	return evaluator{
		stock:      underlying.Midprice(),
		multiplier: multiplier,
		filter:     NewFilter(filter),
	}, nil
}

// evaluate devuelve el Finding de la fila si es válida y líquida.
// ok=false sin error significa que no pasó el filtro de liquidez.
func (e evaluator) evaluate(index int, pair domain.OptionPair) (f domain.Finding, ok bool, err *domain.MalformedChainEntryError) {
	if verr := pair.Validate(index); verr != nil {
		var me *domain.MalformedChainEntryError
		if errors.As(verr, &me) {
			return domain.Finding{}, false, me
		}
		return domain.Finding{}, false, &domain.MalformedChainEntryError{Index: index, Reason: "invalid entry", Err: verr}
	}

	buy, sell := domain.EvaluateParity(e.stock, pair.Strike(), pair.Call.LastPrice, pair.Put.LastPrice, e.multiplier)

	liq := e.filter.Check(pair)
	if !liq.Tradable() {
		slog.Debug("strike not tradable",
			"strike", pair.Strike().String(),
			"volume_ok", liq.VolumeOkay,
			"ask_size_ok", liq.BidAskOkay,
			"spread_ok", liq.SpreadOkay,
			"buy_result", buy.Result.String(),
		)
		return domain.Finding{}, false, nil
	}

	return domain.Finding{
		Index:      index,
		Pair:       pair,
		Buy:        buy,
		Sell:       sell,
		BuyResult:  buy.Result,
		SellResult: sell.Result,
	}, true, nil
}

// Scan evalúa todas las filas de la cadena contra el quote del subyacente y devuelve
// las filas líquidas en el orden de la cadena. Findings nunca es nil.
//
// Un quote inválido devuelve *domain.InvalidQuoteError antes de empezar. Las filas
// malformadas se tratan según cfg.OnMalformed.
func Scan(underlying domain.Quote, chain []domain.OptionPair, cfg Config) (Result, error) {
	ev, err := newEvaluator(underlying, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("scanner.Scan: underlying: %w", err)
	}

	res := Result{
		StockPrice: ev.stock,
		Findings:   make([]domain.Finding, 0),
	}
	for i, pair := range chain {
		f, ok, merr := ev.evaluate(i, pair)
		if merr != nil {
			if cfg.OnMalformed == PolicyAbort {
				return Result{}, merr
			}
			slog.Debug("skipping malformed chain entry", "index", i, "err", merr)
			res.Skipped = append(res.Skipped, domain.SkippedEntry{Index: i, Err: merr})
			continue
		}
		if ok {
			res.Findings = append(res.Findings, f)
		}
	}
	return res, nil
}

// Findings es la versión perezosa de Scan: cada Finding se calcula cuando el
// consumidor lo pide y el recorrido termina en cuanto deja de iterar.
//
// Con PolicyAbort la primera fila malformada se entrega como error y la secuencia
// termina; los Findings anteriores ya se habrán entregado. Con PolicySkip nunca
// se entregan errores de fila.
func Findings(underlying domain.Quote, chain []domain.OptionPair, cfg Config) iter.Seq2[domain.Finding, error] {
	return func(yield func(domain.Finding, error) bool) {
		ev, err := newEvaluator(underlying, cfg)
		if err != nil {
			yield(domain.Finding{}, fmt.Errorf("scanner.Findings: underlying: %w", err))
			return
		}
		for i, pair := range chain {
			f, ok, merr := ev.evaluate(i, pair)
			if merr != nil {
				if cfg.OnMalformed == PolicyAbort {
					yield(domain.Finding{}, merr)
					return
				}
				slog.Debug("skipping malformed chain entry", "index", i, "err", merr)
				continue
			}
			if ok && !yield(f, nil) {
				return
			}
		}
	}
}

// Scanner es el orquestador del loop: fetch → scan → notify.
type Scanner struct {
	cfg      Config
	market   ports.MarketDataProvider
	notifier ports.Notifier
	recorder ports.SnapshotStore // opcional
	seen     map[string]bool     // strikes alertados en el ciclo anterior
}

// New crea un Scanner con todas las dependencias inyectadas. recorder puede ser nil.
func New(cfg Config, market ports.MarketDataProvider, notifier ports.Notifier, recorder ports.SnapshotStore) *Scanner {
	return &Scanner{
		cfg:      cfg,
		market:   market,
		notifier: notifier,
		recorder: recorder,
		seen:     make(map[string]bool),
	}
}

// Run ejecuta el loop de escaneo hasta que el contexto se cancele.
// Si cfg.DryRun está activo, solo ejecuta un ciclo.
func (s *Scanner) Run(ctx context.Context) error {
	slog.Info("scanner starting",
		"symbol", s.cfg.Symbol,
		"interval", s.cfg.ScanInterval,
		"dry_run", s.cfg.DryRun,
		"on_malformed", s.cfg.OnMalformed.String(),
	)

	if err := s.runCycle(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
		if s.cfg.DryRun {
			return err
		}
	}

	if s.cfg.DryRun {
		return nil
	}

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scanner stopped")
			return nil
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// RunOnce ejecuta exactamente un ciclo y devuelve el report sin notificar.
func (s *Scanner) RunOnce(ctx context.Context) (domain.ScanReport, error) {
	return s.cycle(ctx)
}

// runCycle ejecuta un ciclo completo y notifica el resultado.
func (s *Scanner) runCycle(ctx context.Context) error {
	start := time.Now()

	report, err := s.cycle(ctx)
	if err != nil {
		return err
	}

	s.emitAlerts(report)

	if err := s.notifier.Notify(ctx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	slog.Info("scan cycle complete",
		"scan_id", report.ID.String(),
		"symbol", report.Symbol,
		"stock_price", report.StockPrice.String(),
		"strikes", report.ChainSize,
		"findings", len(report.Findings),
		"skipped", len(report.Skipped),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// cycle hace fetch → (record) → scan.
func (s *Scanner) cycle(ctx context.Context) (domain.ScanReport, error) {
	quote, err := s.market.GetQuote(ctx, s.cfg.Symbol)
	if err != nil {
		return domain.ScanReport{}, fmt.Errorf("scanner.cycle: fetch quote: %w", err)
	}

	chain, err := s.market.GetOptionChain(ctx, s.cfg.Symbol, s.cfg.Params)
	if err != nil {
		return domain.ScanReport{}, fmt.Errorf("scanner.cycle: fetch chain: %w", err)
	}

	id := uuid.New()
	if s.recorder != nil {
		snap := ports.Snapshot{ID: id.String(), Symbol: s.cfg.Symbol, Params: s.cfg.Params, Quote: quote, Chain: chain}
		if err := s.recorder.SaveSnapshot(ctx, snap); err != nil {
			slog.Warn("snapshot record failed", "err", err)
		}
	}

	var res Result
	if s.cfg.Workers > 1 {
		res, err = ScanConcurrent(quote, chain, s.cfg)
	} else {
		res, err = Scan(quote, chain, s.cfg)
	}
	if err != nil {
		return domain.ScanReport{}, fmt.Errorf("scanner.cycle: %w", err)
	}

	return domain.ScanReport{
		ID:         id,
		Symbol:     s.cfg.Symbol,
		Underlying: quote,
		StockPrice: res.StockPrice,
		ChainSize:  len(chain),
		Findings:   res.Findings,
		Skipped:    res.Skipped,
		ScannedAt:  time.Now(),
	}, nil
}

// emitAlerts loguea los strikes cuyo mejor resultado supera cfg.AlertMin y que no
// estaban en el ciclo anterior.
func (s *Scanner) emitAlerts(report domain.ScanReport) {
	if !s.cfg.AlertMin.IsPositive() {
		return
	}

	current := make(map[string]bool, len(report.Findings))
	for _, f := range report.Findings {
		direction, best := f.Best()
		if best.LessThan(s.cfg.AlertMin) {
			continue
		}
		key := f.Strike().String()
		current[key] = true
		if s.seen[key] {
			continue
		}
		slog.Warn("*** PARITY VIOLATION ***",
			"symbol", report.Symbol,
			"strike", key,
			"direction", direction,
			"result", best.StringFixed(2),
			"call_last", f.Pair.Call.LastPrice.String(),
			"put_last", f.Pair.Put.LastPrice.String(),
			"stock", report.StockPrice.String(),
		)
	}
	s.seen = current
}
