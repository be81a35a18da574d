package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Token es un access token OAuth cacheado.
type Token struct {
	Token    string
	Secret   string
	IssuedAt time.Time
}

// marketTZ es la zona en la que E*TRADE expira los tokens (medianoche).
var marketTZ = loadMarketTZ()

func loadMarketTZ() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// SaveToken guarda (o reemplaza) el access token de la consumer key.
func (s *SQLiteStorage) SaveToken(ctx context.Context, consumerKey string, tok Token) error {
	issued := tok.IssuedAt
	if issued.IsZero() {
		issued = s.now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (consumer_key, token, secret, issued_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(consumer_key) DO UPDATE SET
			token     = excluded.token,
			secret    = excluded.secret,
			issued_at = excluded.issued_at
	`, consumerKey, tok.Token, tok.Secret, issued.UTC()); err != nil {
		return fmt.Errorf("storage.SaveToken: upsert: %w", err)
	}
	return nil
}

// LoadToken devuelve el token cacheado si se emitió hoy (hora de Nueva York).
// ok=false si no hay token o ya expiró.
func (s *SQLiteStorage) LoadToken(ctx context.Context, consumerKey string) (Token, bool, error) {
	var tok Token
	err := s.db.QueryRowContext(ctx,
		`SELECT token, secret, issued_at FROM tokens WHERE consumer_key = ?`, consumerKey,
	).Scan(&tok.Token, &tok.Secret, &tok.IssuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, fmt.Errorf("storage.LoadToken: scan row: %w", err)
	}

	if !sameMarketDay(tok.IssuedAt, s.now()) {
		return Token{}, false, nil
	}
	return tok, true, nil
}

func sameMarketDay(a, b time.Time) bool {
	ya, ma, da := a.In(marketTZ).Date()
	yb, mb, db := b.In(marketTZ).Date()
	return ya == yb && ma == mb && da == db
}
