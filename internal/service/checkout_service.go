package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mulita/internal/apierror"
	"mulita/internal/dto"
	"mulita/internal/model"
	"mulita/internal/repository"
	"mulita/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	FuenteCarrito  = "carrito"
	FuenteProducto = "producto"
)

// CheckoutService turns a set of line items into an immutable Pedido.
// Pipeline per attempt: validate everything before any write, resolve the
// fiscal profile, persist Pedido + PedidoItems atomically, hand the summary
// to the notification queue (best effort), and clear the cart when the lines
// came from it. Notification and cart-clear failures never undo the order.
type CheckoutService interface {
	ProcesarCheckout(ctx context.Context, usuarioID uuid.UUID, req dto.CheckoutRequest) (*dto.PedidoResponse, error)
	ObtenerPedido(ctx context.Context, usuarioID, pedidoID uuid.UUID) (*dto.PedidoResponse, error)
	ListarPedidos(ctx context.Context, usuarioID uuid.UUID, filter dto.PedidoFilter) (*dto.PedidoListResponse, error)
}

// Encolador abstracts the async job dispatcher so tests can observe or fail
// the enqueue step. *worker.Dispatcher satisfies it.
type Encolador interface {
	EnqueueNotificacion(ctx context.Context, payload worker.NotificacionJobPayload) error
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
}

type checkoutService struct {
	repo        repository.PedidoRepository
	fiscal      DatosFiscalesService
	carrito     CarritoService
	usuarioRepo repository.UsuarioRepository
	dispatcher  Encolador
}

func NewCheckoutService(
	repo repository.PedidoRepository,
	fiscal DatosFiscalesService,
	carrito CarritoService,
	usuarioRepo repository.UsuarioRepository,
	dispatcher Encolador,
) CheckoutService {
	return &checkoutService{
		repo:        repo,
		fiscal:      fiscal,
		carrito:     carrito,
		usuarioRepo: usuarioRepo,
		dispatcher:  dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func (s *checkoutService) ProcesarCheckout(ctx context.Context, usuarioID uuid.UUID, req dto.CheckoutRequest) (*dto.PedidoResponse, error) {
	// 1. Validate — everything rejected here happens before any write.
	lineas, fields := validarCheckout(req)
	if len(fields) > 0 {
		return nil, apierror.NewValidation(fields)
	}

	// 2. Resolve fiscal profile. A failure aborts the whole checkout: no
	// order exists without a resolved tax identity.
	datosFiscales, err := s.fiscal.Upsert(ctx, usuarioID, req.Fiscal.RazonSocial, req.Fiscal.CuitCuil)
	if err != nil {
		return nil, err
	}

	// 3. Persist the order and its snapshots atomically.
	total := decimal.Zero
	for _, l := range lineas {
		total = total.Add(l.PrecioUnitario.Mul(decimal.NewFromInt(int64(l.Cantidad))))
	}

	pedido := model.Pedido{
		UsuarioID:       usuarioID,
		DatosFiscalesID: datosFiscales.ID,
		Ubicacion:       strings.TrimSpace(req.Direccion),
		Total:           total,
	}
	if req.Coordenadas != nil {
		lat, lon := req.Coordenadas.Lat, req.Coordenadas.Lon
		pedido.Lat, pedido.Lon = &lat, &lon
	}
	for _, l := range lineas {
		pedido.Items = append(pedido.Items, model.PedidoItem{
			ProductoID:     l.productoID,
			Nombre:         l.Nombre,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioUnitario,
		})
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.Create(ctx, tx, &pedido)
	})
	if txErr != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo registrar el pedido")
	}
	if pedido.CreatedAt.IsZero() {
		pedido.CreatedAt = time.Now()
	}

	resp := pedidoToResponse(&pedido)

	// 4. Hand the summary to the notification queue. The order is the system
	// of record; a failure here is surfaced as a warning, never an error.
	mensaje := s.formatearResumen(ctx, &pedido, datosFiscales)
	if err := s.dispatcher.EnqueueNotificacion(ctx, worker.NotificacionJobPayload{
		PedidoID: pedido.ID.String(),
		Mensaje:  mensaje,
	}); err != nil {
		log.Warn().Err(err).Str("pedido_id", pedido.ID.String()).Msg("checkout: no se pudo encolar la notificacion")
		resp.Advertencia = "El pedido fue registrado pero la notificacion no pudo enviarse"
	}

	// Order confirmation email, when the buyer has one on file. Best effort,
	// like the notification above.
	if usuario, err := s.usuarioRepo.FindByID(ctx, usuarioID); err == nil && usuario.Email != nil && *usuario.Email != "" {
		if err := s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
			PedidoID: pedido.ID.String(),
			ToEmail:  *usuario.Email,
		}); err != nil {
			log.Warn().Err(err).Str("pedido_id", pedido.ID.String()).Msg("checkout: no se pudo encolar el email de confirmacion")
		}
	}

	// 5. Cart-sourced checkouts clear the cart. Failure is logged but does
	// not invalidate the already-completed order; the clear is idempotent and
	// safe for the client to retry.
	if req.Fuente == FuenteCarrito {
		if err := s.carrito.VaciarCarrito(ctx, usuarioID); err != nil {
			log.Warn().Err(err).Str("pedido_id", pedido.ID.String()).Msg("checkout: no se pudo vaciar el carrito")
		}
	}

	return resp, nil
}

func (s *checkoutService) ObtenerPedido(ctx context.Context, usuarioID, pedidoID uuid.UUID) (*dto.PedidoResponse, error) {
	pedido, err := s.repo.FindByID(ctx, pedidoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.New(apierror.KindNotFound, "Pedido no encontrado")
	}
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudo leer el pedido")
	}
	if pedido.UsuarioID != usuarioID {
		// NotFound, not Forbidden: ownership mismatches never leak existence.
		return nil, apierror.New(apierror.KindNotFound, "Pedido no encontrado")
	}
	return pedidoToResponse(pedido), nil
}

func (s *checkoutService) ListarPedidos(ctx context.Context, usuarioID uuid.UUID, filter dto.PedidoFilter) (*dto.PedidoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	pedidos, total, err := s.repo.ListByUsuario(ctx, usuarioID, filter)
	if err != nil {
		return nil, apierror.New(apierror.KindDependency, "No se pudieron listar los pedidos")
	}
	data := make([]dto.PedidoResponse, 0, len(pedidos))
	for i := range pedidos {
		data = append(data, *pedidoToResponse(&pedidos[i]))
	}
	return &dto.PedidoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// lineaValidada is a checkout line whose producto_id already parsed.
type lineaValidada struct {
	dto.LineaCheckoutRequest
	productoID uuid.UUID
}

// validarCheckout checks the address, the lines and the ad-hoc source rule,
// accumulating field-scoped messages. Fiscal fields are validated by the
// fiscal service's own checks during Upsert.
func validarCheckout(req dto.CheckoutRequest) ([]lineaValidada, map[string]string) {
	fields := make(map[string]string)

	if len([]rune(strings.TrimSpace(req.Direccion))) < 3 {
		fields["direccion"] = "La direccion debe tener al menos 3 caracteres"
	}
	if len(req.Items) == 0 {
		fields["items"] = "El pedido debe tener al menos un item"
	}
	if req.Fuente == FuenteProducto {
		if len(req.Items) != 1 {
			fields["items"] = "El checkout de producto admite exactamente una linea"
		} else if req.Items[0].Cantidad != 1 {
			fields["items"] = "El checkout de producto es por una unidad"
		}
	}

	lineas := make([]lineaValidada, 0, len(req.Items))
	for i, item := range req.Items {
		if item.Cantidad <= 0 {
			fields[fmt.Sprintf("items[%d].cantidad", i)] = "La cantidad debe ser mayor a 0"
			continue
		}
		if !item.PrecioUnitario.IsPositive() {
			fields[fmt.Sprintf("items[%d].precio_unitario", i)] = "El precio unitario debe ser mayor a 0"
			continue
		}
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			fields[fmt.Sprintf("items[%d].producto_id", i)] = "producto_id invalido"
			continue
		}
		lineas = append(lineas, lineaValidada{LineaCheckoutRequest: item, productoID: pid})
	}
	// Pre-write fiscal check so the caller gets every field error in one pass.
	for k, v := range ValidarDatosFiscales(req.Fiscal.RazonSocial, req.Fiscal.CuitCuil) {
		fields[k] = v
	}

	if len(fields) > 0 {
		return nil, fields
	}
	return lineas, nil
}

// formatearResumen builds the human-readable order summary handed to the
// notification sink.
func (s *checkoutService) formatearResumen(ctx context.Context, pedido *model.Pedido, df *model.DatosFiscales) string {
	nombre, telefono := "-", "-"
	if usuario, err := s.usuarioRepo.FindByID(ctx, pedido.UsuarioID); err == nil {
		nombre = usuario.Nombre
		if usuario.Telefono != nil {
			telefono = *usuario.Telefono
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Nuevo pedido %s\n", pedido.ID)
	fmt.Fprintf(&b, "Fecha: %s\n", pedido.CreatedAt.Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "Cliente: %s (tel: %s)\n", nombre, telefono)
	fmt.Fprintf(&b, "Datos fiscales: %s — CUIT/CUIL %s\n", df.RazonSocial, df.CuitCuil)
	fmt.Fprintf(&b, "Direccion: %s", pedido.Ubicacion)
	if pedido.Lat != nil && pedido.Lon != nil {
		fmt.Fprintf(&b, " (%.6f, %.6f)", *pedido.Lat, *pedido.Lon)
	}
	b.WriteString("\nItems:\n")
	for _, item := range pedido.Items {
		fmt.Fprintf(&b, "  - %s x%d ($%s c/u)\n", item.Nombre, item.Cantidad, item.PrecioUnitario.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: $%s", pedido.Total.StringFixed(2))
	return b.String()
}

func pedidoToResponse(p *model.Pedido) *dto.PedidoResponse {
	items := make([]dto.PedidoItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, dto.PedidoItemResponse{
			ProductoID:     item.ProductoID.String(),
			Nombre:         item.Nombre,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
		})
	}
	return &dto.PedidoResponse{
		ID:              p.ID.String(),
		UsuarioID:       p.UsuarioID.String(),
		DatosFiscalesID: p.DatosFiscalesID.String(),
		Ubicacion:       p.Ubicacion,
		Lat:             p.Lat,
		Lon:             p.Lon,
		Total:           p.Total,
		Items:           items,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}
