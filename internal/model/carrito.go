package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Carrito is the per-user cart aggregate. One row per user, enforced by the
// unique index on usuario_id; created lazily on the first add and only ever
// emptied, never deleted.
//
// Total and CantidadItems are derived from the item rows. They are written
// exclusively by CarritoRepository.RecomputarTotales, which runs as the final
// step of every item mutation.
type Carrito struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID     uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	CantidadItems int             `gorm:"not null;default:0"`
	CreatedAt     time.Time
	ActualizadoEn time.Time `gorm:"autoUpdateTime"`

	Items []CarritoItem `gorm:"foreignKey:CarritoID;constraint:OnDelete:CASCADE"`
}

func (Carrito) TableName() string { return "carritos" }

// CarritoItem is one line of a cart. At most one row per (carrito_id,
// producto_id): re-adding the same product increments Cantidad instead of
// inserting a duplicate. Precio is the unit price captured at add-time and is
// not re-fetched from the catalog on later reads.
type CarritoItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CarritoID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_carrito_producto"`
	ProductoID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_carrito_producto"`
	Cantidad   int             `gorm:"not null"` // siempre >= 1
	Precio     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (CarritoItem) TableName() string { return "carrito_items" }
