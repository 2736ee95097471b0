package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pedido is the immutable order created by checkout. Once committed it is the
// audit trail of what was agreed: neither the row nor its items are ever
// updated.
type Pedido struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	DatosFiscalesID uuid.UUID       `gorm:"type:uuid;not null"`
	Ubicacion       string          `gorm:"not null"`
	Lat             *float64
	Lon             *float64
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt       time.Time

	Items         []PedidoItem   `gorm:"foreignKey:PedidoID;constraint:OnDelete:CASCADE"`
	DatosFiscales *DatosFiscales `gorm:"foreignKey:DatosFiscalesID"`
}

func (Pedido) TableName() string { return "pedidos" }

// PedidoItem freezes producto_id, name, quantity and unit price at purchase
// time, decoupled from any later catalog or cart changes.
type PedidoItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PedidoID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Nombre         string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (PedidoItem) TableName() string { return "pedido_items" }
