package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/alejandrodnm/paritybot/internal/domain"
	"github.com/gocarina/gocsv"
)

// findingRow es una fila del CSV. Una por finding y ciclo.
type findingRow struct {
	ScanID     string `csv:"scan_id"`
	ScannedAt  string `csv:"scanned_at"`
	Symbol     string `csv:"symbol"`
	StockPrice string `csv:"stock_price"`
	Index      int    `csv:"index"`
	Strike     string `csv:"strike"`
	CallLast   string `csv:"call_last"`
	PutLast    string `csv:"put_last"`
	CallBid    string `csv:"call_bid"`
	CallAsk    string `csv:"call_ask"`
	PutBid     string `csv:"put_bid"`
	PutAsk     string `csv:"put_ask"`
	CallIV     string `csv:"call_iv"`
	PutIV      string `csv:"put_iv"`
	BuyResult  string `csv:"buy_result"`
	SellResult string `csv:"sell_result"`
}

// CSV implementa ports.Notifier escribiendo los findings como CSV.
// La cabecera se escribe solo una vez por writer.
type CSV struct {
	out io.Writer

	mu          sync.Mutex
	wroteHeader bool
}

// NewCSVWriter crea un notificador CSV sobre un writer arbitrario.
func NewCSVWriter(w io.Writer) *CSV {
	return &CSV{out: w}
}

// Notify añade una fila por finding.
func (c *CSV) Notify(_ context.Context, report domain.ScanReport) error {
	rows := toRows(report)
	if len(rows) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.wroteHeader {
		err = gocsv.MarshalWithoutHeaders(&rows, c.out)
	} else {
		err = gocsv.Marshal(&rows, c.out)
	}
	if err != nil {
		return fmt.Errorf("notify.CSV: marshal: %w", err)
	}
	c.wroteHeader = true
	return nil
}

func toRows(report domain.ScanReport) []findingRow {
	rows := make([]findingRow, 0, len(report.Findings))
	for _, f := range report.Findings {
		call, put := f.Pair.Call, f.Pair.Put
		rows = append(rows, findingRow{
			ScanID:     report.ID.String(),
			ScannedAt:  report.ScannedAt.UTC().Format(time.RFC3339),
			Symbol:     report.Symbol,
			StockPrice: report.StockPrice.String(),
			Index:      f.Index,
			Strike:     f.Strike().String(),
			CallLast:   call.LastPrice.String(),
			PutLast:    put.LastPrice.String(),
			CallBid:    call.Bid.String(),
			CallAsk:    call.Ask.String(),
			PutBid:     put.Bid.String(),
			PutAsk:     put.Ask.String(),
			CallIV:     call.Greeks.IV.String(),
			PutIV:      put.Greeks.IV.String(),
			BuyResult:  f.BuyResult.String(),
			SellResult: f.SellResult.String(),
		})
	}
	return rows
}
