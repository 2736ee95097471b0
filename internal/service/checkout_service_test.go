package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mulita/internal/apierror"
	"mulita/internal/dto"
	"mulita/internal/model"
	"mulita/internal/repository"
	"mulita/internal/service"
	"mulita/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// cuitValido pasa el checksum mod-11 (suma ponderada 148, resto 5, verificador 6).
const cuitValido = "20123456786"

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubPedidoRepo struct {
	pedidos map[uuid.UUID]*model.Pedido
}

func newStubPedidoRepo() *stubPedidoRepo {
	return &stubPedidoRepo{pedidos: make(map[uuid.UUID]*model.Pedido)}
}

func (r *stubPedidoRepo) Create(_ context.Context, _ *gorm.DB, p *model.Pedido) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := *p
	r.pedidos[p.ID] = &cp
	return nil
}

func (r *stubPedidoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pedido, error) {
	p, ok := r.pedidos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPedidoRepo) ListByUsuario(_ context.Context, usuarioID uuid.UUID, filter dto.PedidoFilter) ([]model.Pedido, int64, error) {
	var all []model.Pedido
	for _, p := range r.pedidos {
		if p.UsuarioID == usuarioID {
			all = append(all, *p)
		}
	}
	total := int64(len(all))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *stubPedidoRepo) DB() *gorm.DB { return nil }

var _ repository.PedidoRepository = (*stubPedidoRepo)(nil)

type stubDatosFiscalesRepo struct {
	porUser map[uuid.UUID]*model.DatosFiscales
}

func newStubDatosFiscalesRepo() *stubDatosFiscalesRepo {
	return &stubDatosFiscalesRepo{porUser: make(map[uuid.UUID]*model.DatosFiscales)}
}

func (r *stubDatosFiscalesRepo) FindByUsuarioID(_ context.Context, usuarioID uuid.UUID) (*model.DatosFiscales, error) {
	df, ok := r.porUser[usuarioID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *df
	return &cp, nil
}

func (r *stubDatosFiscalesRepo) Create(_ context.Context, df *model.DatosFiscales) error {
	if df.ID == uuid.Nil {
		df.ID = uuid.New()
	}
	cp := *df
	r.porUser[df.UsuarioID] = &cp
	return nil
}

func (r *stubDatosFiscalesRepo) Update(_ context.Context, df *model.DatosFiscales) error {
	cp := *df
	r.porUser[df.UsuarioID] = &cp
	return nil
}

var _ repository.DatosFiscalesRepository = (*stubDatosFiscalesRepo)(nil)

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) Sync(_ context.Context, u *model.Usuario) error {
	r.usuarios[u.ID] = u
	return nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// stubEncolador registra los jobs encolados y puede simular una cola caída.
type stubEncolador struct {
	notificaciones []worker.NotificacionJobPayload
	emails         []worker.EmailJobPayload
	failNotif      bool
	failEmail      bool
}

func (e *stubEncolador) EnqueueNotificacion(_ context.Context, p worker.NotificacionJobPayload) error {
	if e.failNotif {
		return errors.New("redis down")
	}
	e.notificaciones = append(e.notificaciones, p)
	return nil
}

func (e *stubEncolador) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	if e.failEmail {
		return errors.New("redis down")
	}
	e.emails = append(e.emails, p)
	return nil
}

var _ service.Encolador = (*stubEncolador)(nil)

// fallaPedidoRepo fuerza un error de base en la lectura de pedidos.
type fallaPedidoRepo struct {
	*stubPedidoRepo
	errFind error
}

func (r *fallaPedidoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error) {
	if r.errFind != nil {
		return nil, r.errFind
	}
	return r.stubPedidoRepo.FindByID(ctx, id)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type checkoutEnv struct {
	svc         service.CheckoutService
	carritoSvc  service.CarritoService
	carritoRepo *stubCarritoRepo
	pedidoRepo  *stubPedidoRepo
	encolador   *stubEncolador
	usuarioRepo *stubUsuarioRepo
}

func newCheckoutEnv() *checkoutEnv {
	carritoRepo := newStubCarritoRepo()
	carritoSvc := service.NewCarritoService(carritoRepo, nil)
	pedidoRepo := newStubPedidoRepo()
	usuarioRepo := newStubUsuarioRepo()
	encolador := &stubEncolador{}
	fiscalSvc := service.NewDatosFiscalesService(newStubDatosFiscalesRepo())
	return &checkoutEnv{
		svc:         service.NewCheckoutService(pedidoRepo, fiscalSvc, carritoSvc, usuarioRepo, encolador),
		carritoSvc:  carritoSvc,
		carritoRepo: carritoRepo,
		pedidoRepo:  pedidoRepo,
		encolador:   encolador,
		usuarioRepo: usuarioRepo,
	}
}

func checkoutValido(fuente string, items ...dto.LineaCheckoutRequest) dto.CheckoutRequest {
	return dto.CheckoutRequest{
		Items:     items,
		Fiscal:    dto.DatosFiscalesRequest{RazonSocial: "ACME S.A.", CuitCuil: cuitValido},
		Direccion: "Av. Siempre Viva 742",
		Fuente:    fuente,
	}
}

func linea(nombre string, cantidad int, precio string) dto.LineaCheckoutRequest {
	return dto.LineaCheckoutRequest{
		ProductoID:     uuid.NewString(),
		Nombre:         nombre,
		Cantidad:       cantidad,
		PrecioUnitario: decimal.RequireFromString(precio),
	}
}

// ── Tests: ProcesarCheckout ───────────────────────────────────────────────────

func TestProcesarCheckout_DesdeCarrito(t *testing.T) {
	env := newCheckoutEnv()
	usuarioID := uuid.New()

	// Carrito con dos lineas que el cliente reenvía en el checkout.
	agregar(t, env.carritoSvc, usuarioID, uuid.NewString(), 2, "150.00")
	agregar(t, env.carritoSvc, usuarioID, uuid.NewString(), 1, "80.00")

	req := checkoutValido(service.FuenteCarrito,
		linea("Yerba 1kg", 2, "150.00"),
		linea("Mate de madera", 1, "80.00"),
	)
	resp, err := env.svc.ProcesarCheckout(context.Background(), usuarioID, req)
	require.NoError(t, err)

	assert.True(t, resp.Total.Equal(decimal.RequireFromString("380.00")), "total %s", resp.Total)
	assert.Len(t, resp.Items, 2)
	assert.Empty(t, resp.Advertencia)

	// La notificación se encoló con el resumen del pedido.
	require.Len(t, env.encolador.notificaciones, 1)
	assert.Equal(t, resp.ID, env.encolador.notificaciones[0].PedidoID)
	assert.Contains(t, env.encolador.notificaciones[0].Mensaje, "Yerba 1kg")
	assert.Contains(t, env.encolador.notificaciones[0].Mensaje, "ACME S.A.")

	// Fuente carrito: el carrito queda vacío tras persistir el pedido.
	carrito, err := env.carritoSvc.ObtenerCarrito(context.Background(), usuarioID)
	require.NoError(t, err)
	assert.Empty(t, carrito.Items)
	assert.Equal(t, 0, carrito.CantidadItems)
}

func TestProcesarCheckout_FuenteProducto_NoTocaElCarrito(t *testing.T) {
	env := newCheckoutEnv()
	usuarioID := uuid.New()

	agregar(t, env.carritoSvc, usuarioID, uuid.NewString(), 2, "50.00")

	req := checkoutValido(service.FuenteProducto, linea("Bombilla", 1, "35.00"))
	resp, err := env.svc.ProcesarCheckout(context.Background(), usuarioID, req)
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("35.00")))

	carrito, err := env.carritoSvc.ObtenerCarrito(context.Background(), usuarioID)
	require.NoError(t, err)
	assert.Equal(t, 2, carrito.CantidadItems)
}

func TestProcesarCheckout_FuenteProducto_ExigeUnaUnidad(t *testing.T) {
	env := newCheckoutEnv()

	// Dos lineas con fuente producto.
	req := checkoutValido(service.FuenteProducto, linea("A", 1, "10.00"), linea("B", 1, "10.00"))
	_, err := env.svc.ProcesarCheckout(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidArgument))

	// Una linea pero cantidad 2.
	req = checkoutValido(service.FuenteProducto, linea("A", 2, "10.00"))
	_, err = env.svc.ProcesarCheckout(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Contains(t, apierror.From(err).Fields, "items")
}

func TestProcesarCheckout_ValidacionAcumulaCampos(t *testing.T) {
	env := newCheckoutEnv()

	req := dto.CheckoutRequest{
		Items: []dto.LineaCheckoutRequest{
			{ProductoID: "no-es-uuid", Nombre: "X", Cantidad: 1, PrecioUnitario: decimal.RequireFromString("10.00")},
		},
		Fiscal:    dto.DatosFiscalesRequest{RazonSocial: "ab", CuitCuil: "20123456780"},
		Direccion: "  x ",
		Fuente:    service.FuenteCarrito,
	}
	_, err := env.svc.ProcesarCheckout(context.Background(), uuid.New(), req)
	require.Error(t, err)

	apiErr := apierror.From(err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidArgument))
	assert.Contains(t, apiErr.Fields, "direccion")
	assert.Contains(t, apiErr.Fields, "items[0].producto_id")
	assert.Contains(t, apiErr.Fields, "razon_social")
	assert.Contains(t, apiErr.Fields, "cuit_cuil")

	// Nada se escribió: la validación corre entera antes de cualquier efecto.
	assert.Empty(t, env.pedidoRepo.pedidos)
	assert.Empty(t, env.encolador.notificaciones)
}

func TestProcesarCheckout_NotificacionFalla_PedidoConAdvertencia(t *testing.T) {
	env := newCheckoutEnv()
	env.encolador.failNotif = true
	usuarioID := uuid.New()

	req := checkoutValido(service.FuenteCarrito, linea("Yerba 1kg", 1, "150.00"))
	resp, err := env.svc.ProcesarCheckout(context.Background(), usuarioID, req)

	// El pedido es el sistema de registro: la cola caída no lo convierte en error.
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Advertencia)
	assert.Len(t, env.pedidoRepo.pedidos, 1)
}

func TestProcesarCheckout_ConEmail_EncolaConfirmacion(t *testing.T) {
	env := newCheckoutEnv()
	usuarioID := uuid.New()
	email := "cliente@example.com"
	env.usuarioRepo.usuarios[usuarioID] = &model.Usuario{ID: usuarioID, Nombre: "Caro", Email: &email}

	req := checkoutValido(service.FuenteCarrito, linea("Yerba 1kg", 1, "150.00"))
	resp, err := env.svc.ProcesarCheckout(context.Background(), usuarioID, req)
	require.NoError(t, err)

	require.Len(t, env.encolador.emails, 1)
	assert.Equal(t, resp.ID, env.encolador.emails[0].PedidoID)
	assert.Equal(t, email, env.encolador.emails[0].ToEmail)
}

func TestProcesarCheckout_EmailFalla_NoAfectaElPedido(t *testing.T) {
	env := newCheckoutEnv()
	env.encolador.failEmail = true
	usuarioID := uuid.New()
	email := "cliente@example.com"
	env.usuarioRepo.usuarios[usuarioID] = &model.Usuario{ID: usuarioID, Nombre: "Caro", Email: &email}

	resp, err := env.svc.ProcesarCheckout(context.Background(), usuarioID,
		checkoutValido(service.FuenteCarrito, linea("Yerba 1kg", 1, "150.00")))
	require.NoError(t, err)
	assert.Empty(t, resp.Advertencia)
	assert.Len(t, env.pedidoRepo.pedidos, 1)

	// La notificación sí salió; el email de confirmación es mejor-esfuerzo.
	assert.Len(t, env.encolador.notificaciones, 1)
	assert.Empty(t, env.encolador.emails)
}

func TestProcesarCheckout_SnapshotDeLineas(t *testing.T) {
	env := newCheckoutEnv()
	usuarioID := uuid.New()

	req := checkoutValido(service.FuenteCarrito, linea("Yerba 1kg", 2, "150.00"))
	resp, err := env.svc.ProcesarCheckout(context.Background(), usuarioID, req)
	require.NoError(t, err)

	// El pedido guarda nombre y precio congelados al momento del checkout.
	pedido, err := env.pedidoRepo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	require.Len(t, pedido.Items, 1)
	assert.Equal(t, "Yerba 1kg", pedido.Items[0].Nombre)
	assert.True(t, pedido.Items[0].PrecioUnitario.Equal(decimal.RequireFromString("150.00")))
	assert.Equal(t, 2, pedido.Items[0].Cantidad)

	// Mutar el carrito vivo con otro precio no reescribe el snapshot.
	agregar(t, env.carritoSvc, usuarioID, req.Items[0].ProductoID, 1, "999.00")
	pedido, err = env.pedidoRepo.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.True(t, pedido.Items[0].PrecioUnitario.Equal(decimal.RequireFromString("150.00")))
}

func TestProcesarCheckout_ConCoordenadas(t *testing.T) {
	env := newCheckoutEnv()

	req := checkoutValido(service.FuenteCarrito, linea("Yerba 1kg", 1, "150.00"))
	req.Coordenadas = &dto.CoordenadasRequest{Lat: -31.4201, Lon: -64.1888}

	resp, err := env.svc.ProcesarCheckout(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.Lat)
	require.NotNil(t, resp.Lon)
	assert.InDelta(t, -31.4201, *resp.Lat, 1e-9)
}

// Escenario completo: dos agregados del mismo producto se mergean, el checkout
// congela una sola linea y el carrito queda vacio.
func TestEscenarioCompleto_AgregarMergearYComprar(t *testing.T) {
	env := newCheckoutEnv()
	usuarioID := uuid.New()
	productoID := uuid.NewString()

	carrito := agregar(t, env.carritoSvc, usuarioID, productoID, 2, "10.00")
	assert.True(t, carrito.Total.Equal(decimal.RequireFromString("20.00")))
	assert.Equal(t, 2, carrito.CantidadItems)

	carrito = agregar(t, env.carritoSvc, usuarioID, productoID, 1, "10.00")
	assert.True(t, carrito.Total.Equal(decimal.RequireFromString("30.00")))
	assert.Equal(t, 3, carrito.CantidadItems)
	require.Len(t, carrito.Items, 1)

	req := checkoutValido(service.FuenteCarrito, dto.LineaCheckoutRequest{
		ProductoID:     productoID,
		Nombre:         "Producto P1",
		Cantidad:       3,
		PrecioUnitario: decimal.RequireFromString("10.00"),
	})
	req.Direccion = "123 Main St"

	resp, err := env.svc.ProcesarCheckout(context.Background(), usuarioID, req)
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("30.00")))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Cantidad)
	assert.True(t, resp.Items[0].PrecioUnitario.Equal(decimal.RequireFromString("10.00")))

	after, err := env.carritoSvc.ObtenerCarrito(context.Background(), usuarioID)
	require.NoError(t, err)
	assert.Empty(t, after.Items)
	assert.True(t, after.Total.IsZero())
}

// ── Tests: lecturas de pedidos ────────────────────────────────────────────────

func TestObtenerPedido_DeOtroUsuario_NotFound(t *testing.T) {
	env := newCheckoutEnv()
	duenio := uuid.New()

	req := checkoutValido(service.FuenteCarrito, linea("Yerba 1kg", 1, "150.00"))
	resp, err := env.svc.ProcesarCheckout(context.Background(), duenio, req)
	require.NoError(t, err)

	pedidoID := uuid.MustParse(resp.ID)

	_, err = env.svc.ObtenerPedido(context.Background(), uuid.New(), pedidoID)
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))

	// El dueño sí lo ve.
	got, err := env.svc.ObtenerPedido(context.Background(), duenio, pedidoID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)
}

func TestObtenerPedido_FallaDeBase_Dependency(t *testing.T) {
	pedidoRepo := &fallaPedidoRepo{stubPedidoRepo: newStubPedidoRepo(), errFind: errors.New("connection refused")}
	svc := service.NewCheckoutService(
		pedidoRepo,
		service.NewDatosFiscalesService(newStubDatosFiscalesRepo()),
		service.NewCarritoService(newStubCarritoRepo(), nil),
		newStubUsuarioRepo(),
		&stubEncolador{},
	)

	// La base caída no puede confundirse con "el pedido no existe".
	_, err := svc.ObtenerPedido(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindDependency))
}

func TestListarPedidos_SoloLosPropios(t *testing.T) {
	env := newCheckoutEnv()
	usuarioA := uuid.New()
	usuarioB := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := env.svc.ProcesarCheckout(context.Background(), usuarioA,
			checkoutValido(service.FuenteProducto, linea("Item", 1, "10.00")))
		require.NoError(t, err)
	}
	_, err := env.svc.ProcesarCheckout(context.Background(), usuarioB,
		checkoutValido(service.FuenteProducto, linea("Item", 1, "10.00")))
	require.NoError(t, err)

	lista, err := env.svc.ListarPedidos(context.Background(), usuarioA, dto.PedidoFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), lista.Total)
	assert.Len(t, lista.Data, 3)
}
