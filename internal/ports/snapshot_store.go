package ports

import (
	"context"

	"github.com/alejandrodnm/paritybot/internal/domain"
)

// Snapshot es el market data crudo de un ciclo: quote + cadena.
type Snapshot struct {
	ID     string
	Symbol string
	Params domain.ChainParams
	Quote  domain.Quote
	Chain  []domain.OptionPair
}

// SnapshotStore graba snapshots de market data para reproducirlos offline.
// Solo guarda datos de entrada, nunca findings.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LatestSnapshot(ctx context.Context, symbol string) (Snapshot, error)
	Close() error
}
