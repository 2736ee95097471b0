package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NotificacionPayload is sent to the chat-bot sidecar, which forwards the
// order summary to the store's messaging channel. Delivery is best effort:
// the order is already committed by the time this runs.
type NotificacionPayload struct {
	PedidoID string `json:"pedido_id"`
	Mensaje  string `json:"mensaje"`
}

// Notificador is an HTTP client for the chat-bot sidecar. Keeping the
// integration behind a sidecar isolates messaging-provider churn from the
// core backend.
type Notificador struct {
	sidecarURL string
	httpClient *http.Client
}

func NewNotificador(sidecarURL string) *Notificador {
	return &Notificador{
		sidecarURL: sidecarURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Enviar posts the formatted summary to the sidecar.
func (n *Notificador) Enviar(ctx context.Context, payload NotificacionPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notificador: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.sidecarURL+"/notificar", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notificador: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notificador: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notificador: sidecar returned %d", resp.StatusCode)
	}
	return nil
}
