package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AgregarItemRequest is the body of POST /v1/carrito/items.
// Precio is the unit price captured at add-time.
type AgregarItemRequest struct {
	ProductoID string          `json:"producto_id" validate:"required,uuid"`
	Cantidad   int             `json:"cantidad"    validate:"required,min=1"`
	Precio     decimal.Decimal `json:"precio"      validate:"required"`
}

// ActualizarCantidadRequest is the body of PUT /v1/carrito/items/{id}.
// Cantidades below 1 are rejected, never coerced into a delete.
type ActualizarCantidadRequest struct {
	Cantidad int `json:"cantidad" validate:"required,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CarritoItemResponse struct {
	ID         string          `json:"id"`
	ProductoID string          `json:"producto_id"`
	Cantidad   int             `json:"cantidad"`
	Precio     decimal.Decimal `json:"precio"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type CarritoResponse struct {
	ID            string                `json:"id"`
	UsuarioID     string                `json:"usuario_id"`
	Total         decimal.Decimal       `json:"total"`
	CantidadItems int                   `json:"cantidad_items"`
	Items         []CarritoItemResponse `json:"items"`
	ActualizadoEn string                `json:"actualizado_en"`
}
