package model

import (
	"time"

	"github.com/google/uuid"
)

// Usuario mirrors the identity provider's user record for profile display and
// for enriching order notifications with name/phone. Credentials live in the
// external provider; this table never stores a password.
// Rol: "cliente" | "admin"
type Usuario struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre    string    `gorm:"not null"`
	Email     *string   `gorm:"uniqueIndex"`
	Telefono  *string
	Rol       string `gorm:"type:varchar(20);not null;default:'cliente'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Usuario) TableName() string { return "usuarios" }
