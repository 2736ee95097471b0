package worker

// email_worker.go
// Processes order-confirmation jobs from QueueEmail: loads the pedido,
// renders the PDF summary and mails it to the buyer.

import (
	"context"
	"encoding/json"
	"fmt"

	"mulita/internal/infra"
	"mulita/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type EmailWorker struct {
	mailer       *infra.Mailer
	pedidoRepo   repository.PedidoRepository
	pdfPath      string
	nombreTienda string
}

func NewEmailWorker(mailer *infra.Mailer, pedidoRepo repository.PedidoRepository, pdfPath, nombreTienda string) *EmailWorker {
	return &EmailWorker{mailer: mailer, pedidoRepo: pedidoRepo, pdfPath: pdfPath, nombreTienda: nombreTienda}
}

// Process sends the confirmation email with the PDF summary attached.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return
	}

	pedidoID, err := uuid.Parse(payload.PedidoID)
	if err != nil {
		log.Error().Err(err).Str("pedido_id", payload.PedidoID).Msg("email_worker: invalid pedido_id")
		return
	}
	pedido, err := w.pedidoRepo.FindByID(ctx, pedidoID)
	if err != nil {
		log.Error().Err(err).Str("pedido_id", payload.PedidoID).Msg("email_worker: pedido not found")
		return
	}

	// PDF is nice-to-have: a render failure downgrades to a plain-text mail.
	pdfFile, err := infra.GenerarResumenPDF(pedido, w.nombreTienda, w.pdfPath)
	if err != nil {
		log.Warn().Err(err).Str("pedido_id", payload.PedidoID).Msg("email_worker: PDF generation failed")
		pdfFile = ""
	}

	subject := fmt.Sprintf("%s — confirmacion de pedido", w.nombreTienda)
	body := fmt.Sprintf("Tu pedido %s fue registrado por un total de $%s.\nGracias por tu compra.",
		pedido.ID, pedido.Total.StringFixed(2))

	if err := w.mailer.SendResumenPedido(payload.ToEmail, subject, body, pdfFile); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		return
	}
	log.Info().Str("to", payload.ToEmail).Str("pedido_id", payload.PedidoID).Msg("email_worker: confirmation sent")
}
