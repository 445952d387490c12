package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/amul-stock-bot/pkg/logger"
)

// sendTimeout acota cada envío saliente para que un destinatario colgado
// no demore el re-armado del scheduler.
const sendTimeout = 30 * time.Second

// Dispatcher convierte intenciones de notificación en mensajes salientes.
// La entrega es best-effort y posterior al commit: un fallo por
// destinatario se loguea y se salta, sin afectar al resto ni al estado
// ya persistido. Los envíos son independientes entre sí y corren en
// paralelo, sin garantía de orden.
type Dispatcher struct {
	notifier Notifier
	log      *logger.Logger
}

// NewDispatcher construye el despachador.
func NewDispatcher(notifier Notifier, log *logger.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, log: log}
}

// Dispatch envía todas las intenciones y espera a que terminen. Cada
// producto con restock se difunde además una sola vez al canal.
func (d *Dispatcher) Dispatch(ctx context.Context, intents []Notification) {
	if len(intents) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, intent := range intents {
		wg.Add(1)
		go func(n Notification) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			defer cancel()

			if err := d.notifier.NotifyRestock(sendCtx, n.UserID, n.Product); err != nil {
				d.log.Error().Err(err).
					Str("usuario", n.UserID).
					Str("producto", n.Product.Name).
					Msg("fallo al entregar notificación")
				return
			}
			d.log.Info().
				Str("usuario", n.UserID).
				Str("producto", n.Product.Name).
				Msg("notificación de restock enviada")
		}(intent)
	}
	wg.Wait()

	d.announce(ctx, intents)
}

// announce difunde al canal cada producto distinto de la tanda.
func (d *Dispatcher) announce(ctx context.Context, intents []Notification) {
	seen := make(map[string]bool, len(intents))
	for _, intent := range intents {
		if seen[intent.Product.ID] {
			continue
		}
		seen[intent.Product.ID] = true

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		if err := d.notifier.AnnounceRestock(sendCtx, intent.Product); err != nil {
			d.log.Error().Err(err).Str("producto", intent.Product.Name).Msg("fallo al difundir al canal")
		}
		cancel()
	}
}
