package scanner

// concurrent.go: scan de la cadena repartido en shards.
//
// Cada fila se evalúa de forma independiente, así que la cadena se parte en
// shards contiguos, cada worker evalúa los suyos y al final se concatenan en el
// orden original. La salida es idéntica a Scan.

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/paritybot/internal/domain"
)

// shardResult es la salida de un shard.
type shardResult struct {
	findings []domain.Finding
	skipped  []domain.SkippedEntry
	abort    *domain.MalformedChainEntryError
}

// ScanConcurrent es Scan repartido entre cfg.Workers goroutines.
// Si cfg.Workers <= 0 usa runtime.NumCPU().
func ScanConcurrent(underlying domain.Quote, chain []domain.OptionPair, cfg Config) (Result, error) {
	ev, err := newEvaluator(underlying, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("scanner.ScanConcurrent: underlying: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	shards := splitShards(len(chain), workers)
	results := make([]shardResult, len(shards))

	type work struct {
		idx        int
		start, end int
	}
	workCh := make(chan work, len(shards))

	var wg sync.WaitGroup
	for i := 0; i < min(workers, len(shards)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				results[w.idx] = scanShard(ev, chain, w.start, w.end, cfg.OnMalformed)
			}
		}()
	}

	for i, sh := range shards {
		workCh <- work{idx: i, start: sh[0], end: sh[1]}
	}
	close(workCh)
	wg.Wait()

	res := Result{
		StockPrice: ev.stock,
		Findings:   make([]domain.Finding, 0),
	}
	for _, r := range results {
		// Los shards están en orden: el primer abort es la fila malformada de menor índice.
		if r.abort != nil {
			return Result{}, r.abort
		}
		res.Findings = append(res.Findings, r.findings...)
		res.Skipped = append(res.Skipped, r.skipped...)
	}

	slog.Debug("concurrent scan complete",
		"strikes", len(chain),
		"shards", len(shards),
		"workers", workers,
		"findings", len(res.Findings),
	)
	return res, nil
}

// scanShard evalúa chain[start:end] manteniendo los índices globales.
func scanShard(ev evaluator, chain []domain.OptionPair, start, end int, policy Policy) shardResult {
	var r shardResult
	for i := start; i < end; i++ {
		f, ok, merr := ev.evaluate(i, chain[i])
		if merr != nil {
			if policy == PolicyAbort {
				r.abort = merr
				return r
			}
			r.skipped = append(r.skipped, domain.SkippedEntry{Index: i, Err: merr})
			continue
		}
		if ok {
			r.findings = append(r.findings, f)
		}
	}
	return r
}

// splitShards divide [0, n) en como mucho parts rangos contiguos [start, end).
func splitShards(n, parts int) [][2]int {
	if n == 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	size := (n + parts - 1) / parts
	shards := make([][2]int, 0, parts)
	for i := 0; i < n; i += size {
		shards = append(shards, [2]int{i, min(i+size, n)})
	}
	return shards
}
