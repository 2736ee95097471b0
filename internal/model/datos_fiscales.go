package model

import (
	"time"

	"github.com/google/uuid"
)

// DatosFiscales is a user's declared tax identity, required to place an
// order. At most one row per user: the first checkout creates it, later
// checkouts update it in place.
type DatosFiscales struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	RazonSocial string    `gorm:"not null"`
	CuitCuil    string    `gorm:"type:varchar(11);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (DatosFiscales) TableName() string { return "datos_fiscales" }
