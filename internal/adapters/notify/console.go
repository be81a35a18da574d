package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alejandrodnm/paritybot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsoleWriter crea un notificador que escribe en w (stdout en el CLI).
// table=false imprime una línea por ciclo.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el report en el modo configurado.
func (c *Console) Notify(_ context.Context, report domain.ScanReport) error {
	now := report.ScannedAt
	if now.IsZero() {
		now = time.Now()
	}

	if len(report.Findings) == 0 {
		fmt.Fprintf(c.out, "[%s] %s @ %s: no findings (%d strikes, %d skipped)\n",
			now.Format("15:04:05"), report.Symbol, report.StockPrice.StringFixed(2),
			report.ChainSize, len(report.Skipped))
	} else if c.table {
		c.printFull(now, report)
	} else {
		c.printCompact(now, report)
	}

	if c.table {
		c.printSkipped(report.Skipped)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(now time.Time, report domain.ScanReport) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s @ %s → %d liquid / %d strikes, skipped:%d",
		now.Format("15:04:05"), report.Symbol, report.StockPrice.StringFixed(2),
		len(report.Findings), report.ChainSize, len(report.Skipped))

	for i, f := range report.Findings {
		if i >= 4 {
			break
		}
		direction, best := f.Best()
		fmt.Fprintf(&sb, " | K%s %s %s", f.Strike().String(), shortDirection(direction), best.StringFixed(2))
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla de findings con ambos lados de la paridad.
func (c *Console) printFull(now time.Time, report domain.ScanReport) {
	fmt.Fprintf(c.out, "\n[%s] %s @ %s (bid %s / ask %s): %d liquid of %d strikes\n",
		now.Format("15:04:05"), report.Symbol, report.StockPrice.StringFixed(2),
		report.Underlying.Bid.StringFixed(2), report.Underlying.Ask.StringFixed(2),
		len(report.Findings), report.ChainSize)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Strike", "Call", "Put", "Call spr", "Put spr", "Conversion", "Reversal", "Best")

	for _, f := range report.Findings {
		direction, _ := f.Best()
		table.Append(
			fmt.Sprintf("%d", f.Index),
			f.Strike().String(),
			f.Pair.Call.LastPrice.StringFixed(2),
			f.Pair.Put.LastPrice.StringFixed(2),
			f.Pair.Call.Spread().StringFixed(2),
			f.Pair.Put.Spread().StringFixed(2),
			f.BuyResult.StringFixed(2),
			f.SellResult.StringFixed(2),
			direction,
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  Conversion = long stock + short call + long put | Reversal = lado contrario")
	fmt.Fprintln(c.out, "  Resultado por contrato (multiplicador incluido), antes de comisiones")
}

// printSkipped lista las filas malformadas que se saltaron.
func (c *Console) printSkipped(skipped []domain.SkippedEntry) {
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintf(c.out, "  skipped %d malformed entries:\n", len(skipped))
	for _, s := range skipped {
		fmt.Fprintf(c.out, "    #%d %s\n", s.Index, truncate(s.Err.Error(), 100))
	}
}

func shortDirection(direction string) string {
	if direction == "reversal" {
		return "rev"
	}
	return "conv"
}

// truncate recorta s a n runas añadiendo "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
