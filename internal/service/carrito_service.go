package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"mulita/internal/apierror"
	"mulita/internal/dto"
	"mulita/internal/model"
	"mulita/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// badgeCacheTTL bounds staleness of the cart badge counter. The badge is a
// read-your-writes cache only: it is overwritten after every mutation and a
// miss always falls through to the row store, which remains the source of
// truth. It is never used to decide a mutation.
const badgeCacheTTL = 1 * time.Hour

// CarritoService is the item mutator: every operation validates ownership,
// applies the item change, and finishes with the aggregate recompute. The
// item write and the recompute are separate round trips; see
// CarritoRepository.RecomputarTotales for the consistency contract.
type CarritoService interface {
	ObtenerCarrito(ctx context.Context, usuarioID uuid.UUID) (*dto.CarritoResponse, error)
	AgregarItem(ctx context.Context, usuarioID uuid.UUID, req dto.AgregarItemRequest) (*dto.CarritoResponse, error)
	ActualizarCantidad(ctx context.Context, usuarioID, itemID uuid.UUID, cantidad int) (*dto.CarritoResponse, error)
	QuitarItem(ctx context.Context, usuarioID, itemID uuid.UUID) (*dto.CarritoResponse, error)
	VaciarCarrito(ctx context.Context, usuarioID uuid.UUID) error
	ObtenerBadge(ctx context.Context, usuarioID uuid.UUID) (int, error)
}

type carritoService struct {
	repo repository.CarritoRepository
	rdb  *redis.Client
}

func NewCarritoService(repo repository.CarritoRepository, rdb *redis.Client) CarritoService {
	return &carritoService{repo: repo, rdb: rdb}
}

func (s *carritoService) ObtenerCarrito(ctx context.Context, usuarioID uuid.UUID) (*dto.CarritoResponse, error) {
	carrito, err := s.repo.GetOrCreate(ctx, usuarioID)
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo obtener el carrito")
	}
	items, err := s.repo.ListItems(ctx, carrito.ID)
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudieron leer los items del carrito")
	}
	return carritoToResponse(carrito, items), nil
}

func (s *carritoService) AgregarItem(ctx context.Context, usuarioID uuid.UUID, req dto.AgregarItemRequest) (*dto.CarritoResponse, error) {
	if req.Cantidad < 1 {
		return nil, apierror.NewValidation(map[string]string{"cantidad": "La cantidad debe ser mayor o igual a 1"})
	}
	if !req.Precio.IsPositive() {
		return nil, apierror.NewValidation(map[string]string{"precio": "El precio debe ser mayor a 0"})
	}
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, apierror.NewValidation(map[string]string{"producto_id": "producto_id invalido"})
	}

	carrito, err := s.repo.GetOrCreate(ctx, usuarioID)
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo obtener el carrito")
	}

	// Re-adding an existing product merges into its cantidad; the unit price
	// captured at the first add is kept. Only a real miss falls through to the
	// insert: a read failure must not turn the merge into a duplicate line.
	existing, err := s.repo.FindItemByProducto(ctx, carrito.ID, productoID)
	switch {
	case err == nil:
		if err := s.repo.UpdateItemCantidad(ctx, existing.ID, existing.Cantidad+req.Cantidad); err != nil {
			return nil, apierror.New(apierror.KindDependency, "No se pudo actualizar el item")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &model.CarritoItem{
			CarritoID:  carrito.ID,
			ProductoID: productoID,
			Cantidad:   req.Cantidad,
			Precio:     req.Precio,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, apierror.New(apierror.KindDependency, "No se pudo agregar el item")
		}
	default:
		return nil, apierror.New(apierror.KindDependency, "No se pudo leer el carrito")
	}

	return s.refresh(ctx, usuarioID, carrito.ID)
}

func (s *carritoService) ActualizarCantidad(ctx context.Context, usuarioID, itemID uuid.UUID, cantidad int) (*dto.CarritoResponse, error) {
	if cantidad < 1 {
		// Never coerced into a delete: the stored quantity stays untouched.
		return nil, apierror.NewValidation(map[string]string{"cantidad": "La cantidad debe ser mayor o igual a 1"})
	}

	item, err := s.resolveOwnedItem(ctx, usuarioID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateItemCantidad(ctx, item.ID, cantidad); err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo actualizar el item")
	}
	return s.refresh(ctx, usuarioID, item.CarritoID)
}

func (s *carritoService) QuitarItem(ctx context.Context, usuarioID, itemID uuid.UUID) (*dto.CarritoResponse, error) {
	item, err := s.resolveOwnedItem(ctx, usuarioID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo quitar el item")
	}
	return s.refresh(ctx, usuarioID, item.CarritoID)
}

// VaciarCarrito removes every item and resets the aggregate to zero.
// Idempotent: a user without a cart, or with an already-empty one, succeeds
// without touching anything.
func (s *carritoService) VaciarCarrito(ctx context.Context, usuarioID uuid.UUID) error {
	carrito, err := s.repo.FindByUsuarioID(ctx, usuarioID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No cart row: nothing to clear.
		return nil
	}
	if err != nil {
		return apierror.New(apierror.KindDependency, "No se pudo vaciar el carrito")
	}
	if err := s.repo.DeleteItemsByCarrito(ctx, carrito.ID); err != nil {
		return apierror.New(apierror.KindDependency, "No se pudo vaciar el carrito")
	}
	if _, err := s.repo.RecomputarTotales(ctx, carrito.ID); err != nil {
		return apierror.New(apierror.KindDependency, "No se pudo actualizar el total del carrito")
	}
	s.cacheBadge(usuarioID, 0)
	return nil
}

// ObtenerBadge returns the item counter for the cart badge, served from the
// Redis cache when fresh and recomputed from the row store on a miss.
func (s *carritoService) ObtenerBadge(ctx context.Context, usuarioID uuid.UUID) (int, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, badgeKey(usuarioID)).Result(); err == nil {
			if n, convErr := strconv.Atoi(cached); convErr == nil {
				return n, nil
			}
		}
	}
	carrito, err := s.repo.FindByUsuarioID(ctx, usuarioID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil // no cart yet — empty badge
	}
	if err != nil {
		return 0, apierror.New(apierror.KindDependency, "No se pudo leer el carrito")
	}
	s.cacheBadge(usuarioID, carrito.CantidadItems)
	return carrito.CantidadItems, nil
}

// resolveOwnedItem loads the item and verifies it belongs to the caller's
// cart. Ownership mismatch is reported as NotFound, not Forbidden, so the
// existence of other users' items is never leaked.
func (s *carritoService) resolveOwnedItem(ctx context.Context, usuarioID, itemID uuid.UUID) (*model.CarritoItem, error) {
	item, err := s.repo.FindItemByID(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.New(apierror.KindNotFound, "Item no encontrado")
	}
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo leer el item")
	}
	carrito, err := s.repo.FindByUsuarioID(ctx, usuarioID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.New(apierror.KindNotFound, "Item no encontrado")
	}
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo leer el carrito")
	}
	if carrito.ID != item.CarritoID {
		return nil, apierror.New(apierror.KindNotFound, "Item no encontrado")
	}
	return item, nil
}

// refresh recomputes the aggregate after a durably-applied item mutation and
// rebuilds the response from fresh rows.
func (s *carritoService) refresh(ctx context.Context, usuarioID, carritoID uuid.UUID) (*dto.CarritoResponse, error) {
	carrito, err := s.repo.RecomputarTotales(ctx, carritoID)
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo actualizar el total del carrito")
	}
	items, err := s.repo.ListItems(ctx, carritoID)
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudieron leer los items del carrito")
	}
	s.cacheBadge(usuarioID, carrito.CantidadItems)
	return carritoToResponse(carrito, items), nil
}

func (s *carritoService) cacheBadge(usuarioID uuid.UUID, cantidad int) {
	if s.rdb == nil {
		return
	}
	// Best effort — a stale badge is reconciled by the next read-through.
	if err := s.rdb.Set(context.Background(), badgeKey(usuarioID), strconv.Itoa(cantidad), badgeCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Str("usuario_id", usuarioID.String()).Msg("carrito: badge cache write failed")
	}
}

func badgeKey(usuarioID uuid.UUID) string { return "carrito:badge:" + usuarioID.String() }

func carritoToResponse(carrito *model.Carrito, items []model.CarritoItem) *dto.CarritoResponse {
	itemsResp := make([]dto.CarritoItemResponse, 0, len(items))
	for _, item := range items {
		itemsResp = append(itemsResp, dto.CarritoItemResponse{
			ID:         item.ID.String(),
			ProductoID: item.ProductoID.String(),
			Cantidad:   item.Cantidad,
			Precio:     item.Precio,
			Subtotal:   item.Precio.Mul(decimal.NewFromInt(int64(item.Cantidad))),
		})
	}
	return &dto.CarritoResponse{
		ID:            carrito.ID.String(),
		UsuarioID:     carrito.UsuarioID.String(),
		Total:         carrito.Total,
		CantidadItems: carrito.CantidadItems,
		Items:         itemsResp,
		ActualizadoEn: carrito.ActualizadoEn.Format(time.RFC3339),
	}
}
