package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mulita/internal/apierror"
	"mulita/internal/dto"
	"mulita/internal/infra"
	"mulita/internal/model"
	"mulita/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const productoCacheTTL = 5 * time.Minute

type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo    repository.ProductoRepository
	storage *infra.Storage
	rdb     *redis.Client
}

func NewProductoService(repo repository.ProductoRepository, storage *infra.Storage, rdb *redis.Client) ProductoService {
	return &productoService{repo: repo, storage: storage, rdb: rdb}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if !req.Precio.IsPositive() {
		return nil, apierror.NewValidation(map[string]string{"precio": "El precio debe ser mayor a 0"})
	}

	producto := &model.Producto{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Precio:      req.Precio,
		Activo:      true,
	}

	if req.Imagen != nil {
		url, err := s.subirImagen(ctx, *req.Imagen, req.ImagenNombre)
		if err != nil {
			return nil, err
		}
		producto.ImagenURL = &url
	}

	if err := s.repo.Create(ctx, producto); err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo crear el producto")
	}
	return productoToResponse(producto), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	cacheKey := "producto:" + id.String()

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.ProductoResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	producto, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.New(apierror.KindNotFound, "Producto no encontrado")
	}
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo leer el producto")
	}
	resp := productoToResponse(producto)

	// Populate cache — best effort, ignore errors
	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(context.Background(), cacheKey, b, productoCacheTTL).Err()
		}
	}
	return resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudieron listar los productos")
	}
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *productoToResponse(&productos[i]))
	}
	return &dto.ProductoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	if !req.Precio.IsPositive() {
		return nil, apierror.NewValidation(map[string]string{"precio": "El precio debe ser mayor a 0"})
	}

	producto, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.New(apierror.KindNotFound, "Producto no encontrado")
	}
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo leer el producto")
	}

	producto.Nombre = req.Nombre
	producto.Descripcion = req.Descripcion
	producto.Precio = req.Precio
	if req.Imagen != nil {
		url, err := s.subirImagen(ctx, *req.Imagen, req.ImagenNombre)
		if err != nil {
			return nil, err
		}
		producto.ImagenURL = &url
	}

	if err := s.repo.Update(ctx, producto); err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo actualizar el producto")
	}
	s.invalidate(id)
	return productoToResponse(producto), nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.New(apierror.KindNotFound, "Producto no encontrado")
		}
		return apierror.New(apierror.KindDependency, "No se pudo leer el producto")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return apierror.New(apierror.KindDependency, "No se pudo desactivar el producto")
	}
	s.invalidate(id)
	return nil
}

func (s *productoService) subirImagen(ctx context.Context, imagenB64 string, nombre *string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(imagenB64)
	if err != nil {
		return "", apierror.NewValidation(map[string]string{"imagen": "La imagen debe estar codificada en base64"})
	}
	fileName := uuid.NewString()
	if nombre != nil && *nombre != "" {
		fileName = *nombre
	}
	url, err := s.storage.Upload(ctx, fmt.Sprintf("productos/%s", fileName), data)
	if err != nil {
		return "", apierror.New(apierror.KindDependency, "No se pudo subir la imagen")
	}
	return url, nil
}

func (s *productoService) invalidate(id uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(context.Background(), "producto:"+id.String()).Err(); err != nil {
		log.Warn().Err(err).Str("producto_id", id.String()).Msg("producto: cache invalidation failed")
	}
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:          p.ID.String(),
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Precio:      p.Precio,
		ImagenURL:   p.ImagenURL,
		Activo:      p.Activo,
	}
}
