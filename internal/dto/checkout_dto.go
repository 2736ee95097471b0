package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// LineaCheckoutRequest is one submitted line of a checkout. When the source
// is the live cart, the client sends the cart lines verbatim; for an ad-hoc
// product checkout it sends a single line with cantidad 1.
type LineaCheckoutRequest struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	Nombre         string          `json:"nombre"          validate:"required"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required"`
}

// DatosFiscalesRequest carries the tax identity collected at checkout.
type DatosFiscalesRequest struct {
	RazonSocial string `json:"razon_social" validate:"required"`
	CuitCuil    string `json:"cuit_cuil"    validate:"required"`
}

type CoordenadasRequest struct {
	Lat float64 `json:"lat" validate:"required"`
	Lon float64 `json:"lon" validate:"required"`
}

// CheckoutRequest is the body of POST /v1/checkout.
// Fuente: "carrito" clears the cart after the order is persisted;
// "producto" is a single ad-hoc line and leaves the cart untouched.
type CheckoutRequest struct {
	Items       []LineaCheckoutRequest `json:"items"       validate:"required,min=1,dive"`
	Fiscal      DatosFiscalesRequest   `json:"fiscal"      validate:"required"`
	Direccion   string                 `json:"direccion"   validate:"required"`
	Coordenadas *CoordenadasRequest    `json:"coordenadas" validate:"omitempty"`
	Fuente      string                 `json:"fuente"      validate:"required,oneof=carrito producto"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PedidoItemResponse struct {
	ProductoID     string          `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

type PedidoResponse struct {
	ID              string               `json:"id"`
	UsuarioID       string               `json:"usuario_id"`
	DatosFiscalesID string               `json:"datos_fiscales_id"`
	Ubicacion       string               `json:"ubicacion"`
	Lat             *float64             `json:"lat,omitempty"`
	Lon             *float64             `json:"lon,omitempty"`
	Total           decimal.Decimal      `json:"total"`
	Items           []PedidoItemResponse `json:"items"`
	CreatedAt       string               `json:"created_at"`
	// Advertencia surfaces best-effort step failures (e.g. the notification
	// could not be enqueued) without turning the completed order into an error.
	Advertencia string `json:"advertencia,omitempty"`
}

type PedidoListResponse struct {
	Data  []PedidoResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// PedidoFilter is bound from query string of GET /v1/pedidos.
type PedidoFilter struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=20" validate:"min=1,max=100"`
}
