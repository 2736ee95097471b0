package worker

// notificacion_worker.go
// Delivers order summaries from QueueNotificaciones to the chat-bot sidecar.
// Delivery is best effort: the order is already committed, so a failed send
// is logged and the job dropped. The circuit breaker keeps a dead sidecar
// from tying up the pool.

import (
	"context"
	"encoding/json"

	"mulita/internal/infra"

	"github.com/rs/zerolog/log"
)

type NotificacionWorker struct {
	notificador *infra.Notificador
	cb          *infra.CircuitBreaker
}

func NewNotificacionWorker(notificador *infra.Notificador, cb *infra.CircuitBreaker) *NotificacionWorker {
	return &NotificacionWorker{notificador: notificador, cb: cb}
}

// Process posts the summary through the circuit breaker.
func (w *NotificacionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload NotificacionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: invalid payload")
		return
	}

	err := w.cb.Execute(func() error {
		return w.notificador.Enviar(ctx, infra.NotificacionPayload{
			PedidoID: payload.PedidoID,
			Mensaje:  payload.Mensaje,
		})
	})
	if err != nil {
		log.Warn().Err(err).Str("pedido_id", payload.PedidoID).Msg("notificacion_worker: delivery failed")
		return
	}
	log.Info().Str("pedido_id", payload.PedidoID).Msg("notificacion_worker: summary delivered")
}
