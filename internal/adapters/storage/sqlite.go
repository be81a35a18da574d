package storage

// sqlite.go: grabación y replay de market data.
//
// Estrategia:
//   - `snapshots`: UNA fila por ciclo grabado con el quote del subyacente y la
//     cadena serializada en JSON. Son datos de entrada, nunca findings.
//   - `tokens`: access token OAuth por consumer key. E*TRADE los invalida a
//     medianoche (hora de Nueva York), así que solo se reutilizan el mismo día.
//   - Prune automático al arrancar: snapshots > 30d.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/paritybot/internal/domain"
	"github.com/alejandrodnm/paritybot/internal/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const schema = `
-- Un snapshot por ciclo grabado
CREATE TABLE IF NOT EXISTS snapshots (
    id         TEXT PRIMARY KEY,
    symbol     TEXT     NOT NULL,
    taken_at   DATETIME NOT NULL,
    bid        TEXT     NOT NULL,
    ask        TEXT     NOT NULL,
    last       TEXT     NOT NULL DEFAULT '0',
    params     TEXT     NOT NULL,
    chain      TEXT     NOT NULL
);

-- Access tokens OAuth, uno por consumer key
CREATE TABLE IF NOT EXISTS tokens (
    consumer_key TEXT PRIMARY KEY,
    token        TEXT     NOT NULL,
    secret       TEXT     NOT NULL,
    issued_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snap_symbol ON snapshots(symbol, taken_at DESC);
`

const retentionSnapshots = 30 * 24 * time.Hour

// ErrNoSnapshot se devuelve cuando no hay ningún snapshot grabado para el símbolo.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// SQLiteStorage implementa ports.SnapshotStore y ports.MarketDataProvider
// (replay) usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ ports.SnapshotStore      = (*SQLiteStorage)(nil)
	_ ports.MarketDataProvider = (*SQLiteStorage)(nil)
)

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada,
// aplica el schema y limpia snapshots antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db, now: time.Now}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSnapshot graba quote + cadena. Si snap.ID está vacío se genera uno.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap ports.Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	params, err := json.Marshal(snap.Params)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: encode params: %w", err)
	}
	chain, err := json.Marshal(snap.Chain)
	if err != nil {
		return fmt.Errorf("storage.SaveSnapshot: encode chain: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, symbol, taken_at, bid, ask, last, params, chain)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID,
		snap.Symbol,
		s.now().UTC(),
		snap.Quote.Bid.String(),
		snap.Quote.Ask.String(),
		snap.Quote.Last.String(),
		string(params),
		string(chain),
	); err != nil {
		return fmt.Errorf("storage.SaveSnapshot: insert %s: %w", snap.ID, err)
	}
	return nil
}

// LatestSnapshot devuelve el último snapshot grabado para el símbolo.
func (s *SQLiteStorage) LatestSnapshot(ctx context.Context, symbol string) (ports.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, bid, ask, last, params, chain
		FROM snapshots
		WHERE symbol = ?
		ORDER BY taken_at DESC, rowid DESC
		LIMIT 1
	`, symbol)

	var id, bid, ask, last, params, chain string
	if err := row.Scan(&id, &bid, &ask, &last, &params, &chain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.Snapshot{}, fmt.Errorf("storage.LatestSnapshot: %s: %w", symbol, ErrNoSnapshot)
		}
		return ports.Snapshot{}, fmt.Errorf("storage.LatestSnapshot: scan row: %w", err)
	}

	snap := ports.Snapshot{ID: id, Symbol: symbol}
	var err error
	if snap.Quote, err = decodeQuote(symbol, bid, ask, last); err != nil {
		return ports.Snapshot{}, fmt.Errorf("storage.LatestSnapshot: %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(params), &snap.Params); err != nil {
		return ports.Snapshot{}, fmt.Errorf("storage.LatestSnapshot: decode params: %w", err)
	}
	if err := json.Unmarshal([]byte(chain), &snap.Chain); err != nil {
		return ports.Snapshot{}, fmt.Errorf("storage.LatestSnapshot: decode chain: %w", err)
	}
	return snap, nil
}

// GetQuote (replay) devuelve el quote del último snapshot.
func (s *SQLiteStorage) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	snap, err := s.LatestSnapshot(ctx, symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	return snap.Quote, nil
}

// GetOptionChain (replay) devuelve la cadena del último snapshot.
// Los params se ignoran: se reproduce exactamente lo que se grabó.
func (s *SQLiteStorage) GetOptionChain(ctx context.Context, symbol string, _ domain.ChainParams) ([]domain.OptionPair, error) {
	snap, err := s.LatestSnapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return snap.Chain, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// decodeQuote reconstruye el quote; se vuelve a validar por si la DB se editó a mano.
func decodeQuote(symbol, bid, ask, last string) (domain.Quote, error) {
	b, err := decimal.NewFromString(bid)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("bid: %w", err)
	}
	a, err := decimal.NewFromString(ask)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("ask: %w", err)
	}
	q, err := domain.NewQuote(symbol, b, a)
	if err != nil {
		return domain.Quote{}, err
	}
	if l, err := decimal.NewFromString(last); err == nil {
		q.Last = l
	}
	return q, nil
}

// pruneOld elimina snapshots antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := s.now().UTC().Add(-retentionSnapshots)
	s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE taken_at < ?`, cutoff)
}
