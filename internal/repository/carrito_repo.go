package repository

import (
	"context"
	"errors"
	"time"

	"mulita/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CarritoRepository defines the data access contract for carts and their
// items. Services depend on this interface, not on the concrete GORM
// implementation, enabling clean unit testing via stubs.
//
// RecomputarTotales is the SOLE writer of the derived total/cantidad_items
// columns. Item mutations and the recompute are deliberately separate round
// trips (the original design is not transactional here); under concurrent
// writers the last recompute wins, and the aggregate is correct once no more
// mutations are in flight for the cart.
type CarritoRepository interface {
	GetOrCreate(ctx context.Context, usuarioID uuid.UUID) (*model.Carrito, error)
	FindByUsuarioID(ctx context.Context, usuarioID uuid.UUID) (*model.Carrito, error)
	ListItems(ctx context.Context, carritoID uuid.UUID) ([]model.CarritoItem, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.CarritoItem, error)
	FindItemByProducto(ctx context.Context, carritoID, productoID uuid.UUID) (*model.CarritoItem, error)
	CreateItem(ctx context.Context, item *model.CarritoItem) error
	UpdateItemCantidad(ctx context.Context, itemID uuid.UUID, cantidad int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItemsByCarrito(ctx context.Context, carritoID uuid.UUID) error
	RecomputarTotales(ctx context.Context, carritoID uuid.UUID) (*model.Carrito, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type carritoRepo struct{ db *gorm.DB }

func NewCarritoRepository(db *gorm.DB) CarritoRepository { return &carritoRepo{db: db} }

func (r *carritoRepo) DB() *gorm.DB { return r.db }

// GetOrCreate returns the user's cart, creating an empty one on first use.
// Concurrent first adds race on the usuario_id unique index; the loser of the
// race re-fetches the winner's row.
func (r *carritoRepo) GetOrCreate(ctx context.Context, usuarioID uuid.UUID) (*model.Carrito, error) {
	var carrito model.Carrito
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Attrs(model.Carrito{UsuarioID: usuarioID, Total: decimal.Zero, CantidadItems: 0}).
		FirstOrCreate(&carrito).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.FindByUsuarioID(ctx, usuarioID)
		}
		return nil, err
	}
	return &carrito, nil
}

func (r *carritoRepo) FindByUsuarioID(ctx context.Context, usuarioID uuid.UUID) (*model.Carrito, error) {
	var carrito model.Carrito
	err := r.db.WithContext(ctx).Where("usuario_id = ?", usuarioID).First(&carrito).Error
	return &carrito, err
}

func (r *carritoRepo) ListItems(ctx context.Context, carritoID uuid.UUID) ([]model.CarritoItem, error) {
	var items []model.CarritoItem
	err := r.db.WithContext(ctx).Where("carrito_id = ?", carritoID).Find(&items).Error
	return items, err
}

func (r *carritoRepo) FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.CarritoItem, error) {
	var item model.CarritoItem
	err := r.db.WithContext(ctx).First(&item, itemID).Error
	return &item, err
}

func (r *carritoRepo) FindItemByProducto(ctx context.Context, carritoID, productoID uuid.UUID) (*model.CarritoItem, error) {
	var item model.CarritoItem
	err := r.db.WithContext(ctx).
		Where("carrito_id = ? AND producto_id = ?", carritoID, productoID).
		First(&item).Error
	return &item, err
}

func (r *carritoRepo) CreateItem(ctx context.Context, item *model.CarritoItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *carritoRepo) UpdateItemCantidad(ctx context.Context, itemID uuid.UUID, cantidad int) error {
	return r.db.WithContext(ctx).Model(&model.CarritoItem{}).
		Where("id = ?", itemID).
		Update("cantidad", cantidad).Error
}

func (r *carritoRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&model.CarritoItem{}).Error
}

func (r *carritoRepo) DeleteItemsByCarrito(ctx context.Context, carritoID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("carrito_id = ?", carritoID).Delete(&model.CarritoItem{}).Error
}

// RecomputarTotales reads the full item set and writes the aggregate back.
// The aggregate is never written from a failed read: a read error leaves the
// last valid value in place. Re-running on an unchanged cart is a no-op in
// effect, so the recompute is safe to repeat.
func (r *carritoRepo) RecomputarTotales(ctx context.Context, carritoID uuid.UUID) (*model.Carrito, error) {
	items, err := r.ListItems(ctx, carritoID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	cantidad := 0
	for _, item := range items {
		total = total.Add(item.Precio.Mul(decimal.NewFromInt(int64(item.Cantidad))))
		cantidad += item.Cantidad
	}

	err = r.db.WithContext(ctx).Model(&model.Carrito{}).
		Where("id = ?", carritoID).
		Updates(map[string]interface{}{
			"total":          total,
			"cantidad_items": cantidad,
			"actualizado_en": time.Now(),
		}).Error
	if err != nil {
		return nil, err
	}

	var carrito model.Carrito
	if err := r.db.WithContext(ctx).First(&carrito, carritoID).Error; err != nil {
		return nil, err
	}
	return &carrito, nil
}
