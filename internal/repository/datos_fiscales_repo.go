package repository

import (
	"context"

	"mulita/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DatosFiscalesRepository interface {
	FindByUsuarioID(ctx context.Context, usuarioID uuid.UUID) (*model.DatosFiscales, error)
	Create(ctx context.Context, df *model.DatosFiscales) error
	Update(ctx context.Context, df *model.DatosFiscales) error
}

type datosFiscalesRepo struct{ db *gorm.DB }

func NewDatosFiscalesRepository(db *gorm.DB) DatosFiscalesRepository {
	return &datosFiscalesRepo{db: db}
}

func (r *datosFiscalesRepo) FindByUsuarioID(ctx context.Context, usuarioID uuid.UUID) (*model.DatosFiscales, error) {
	var df model.DatosFiscales
	err := r.db.WithContext(ctx).Where("usuario_id = ?", usuarioID).First(&df).Error
	return &df, err
}

func (r *datosFiscalesRepo) Create(ctx context.Context, df *model.DatosFiscales) error {
	return r.db.WithContext(ctx).Create(df).Error
}

func (r *datosFiscalesRepo) Update(ctx context.Context, df *model.DatosFiscales) error {
	return r.db.WithContext(ctx).Model(&model.DatosFiscales{}).
		Where("id = ?", df.ID).
		Updates(map[string]interface{}{
			"razon_social": df.RazonSocial,
			"cuit_cuil":    df.CuitCuil,
		}).Error
}
