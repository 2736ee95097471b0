package dto

import "github.com/shopspring/decimal"

// ProductoFilter is bound from query string of GET /v1/productos.
type ProductoFilter struct {
	Nombre string `form:"nombre"`
	Activo string `form:"activo"` // "false" = inactivos, "all" = todos, default activos
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type CrearProductoRequest struct {
	Nombre      string          `json:"nombre"      validate:"required,min=2"`
	Descripcion *string         `json:"descripcion"`
	Precio      decimal.Decimal `json:"precio"      validate:"required"`
	// Imagen: base64-encoded bytes uploaded to the blob store; optional.
	Imagen       *string `json:"imagen"        validate:"omitempty,base64"`
	ImagenNombre *string `json:"imagen_nombre" validate:"omitempty"`
}

type ActualizarProductoRequest struct {
	Nombre       string          `json:"nombre"      validate:"required,min=2"`
	Descripcion  *string         `json:"descripcion"`
	Precio       decimal.Decimal `json:"precio"      validate:"required"`
	Imagen       *string         `json:"imagen"        validate:"omitempty,base64"`
	ImagenNombre *string         `json:"imagen_nombre" validate:"omitempty"`
}

type ProductoResponse struct {
	ID          string          `json:"id"`
	Nombre      string          `json:"nombre"`
	Descripcion *string         `json:"descripcion,omitempty"`
	Precio      decimal.Decimal `json:"precio"`
	ImagenURL   *string         `json:"imagen_url,omitempty"`
	Activo      bool            `json:"activo"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
