package ports

import (
	"context"

	"github.com/alejandrodnm/paritybot/internal/domain"
)

// Notifier presenta el resultado de un ciclo de escaneo al usuario.
type Notifier interface {
	// Notify muestra los findings del report. En consola imprime una tabla.
	Notify(ctx context.Context, report domain.ScanReport) error
}
