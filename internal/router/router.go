package router

import (
	"time"

	"mulita/internal/config"
	"mulita/internal/handler"
	"mulita/internal/infra"
	"mulita/internal/middleware"
	"mulita/internal/repository"
	"mulita/internal/service"
	"mulita/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, notificadorCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	storage := infra.NewStorage(cfg.StorageURL, cfg.StorageToken)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	carritoRepo := repository.NewCarritoRepository(db)
	datosFiscalesRepo := repository.NewDatosFiscalesRepository(db)
	pedidoRepo := repository.NewPedidoRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	productoSvc := service.NewProductoService(productoRepo, storage, rdb)
	carritoSvc := service.NewCarritoService(carritoRepo, rdb)
	fiscalSvc := service.NewDatosFiscalesService(datosFiscalesRepo)
	checkoutSvc := service.NewCheckoutService(pedidoRepo, fiscalSvc, carritoSvc, usuarioRepo, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productosH := handler.NewProductoHandler(productoSvc)
	carritoH := handler.NewCarritoHandler(carritoSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, notificadorCB))

	// Catalog reads — public, the storefront browses without a session
	r.GET("/v1/productos", productosH.Listar)
	r.GET("/v1/productos/:id", productosH.Obtener)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW, middleware.SyncUsuario(usuarioRepo))
	{
		carrito := v1.Group("/carrito", middleware.RequireRole("cliente", "admin"))
		{
			carrito.GET("", carritoH.Obtener)
			carrito.DELETE("", carritoH.Vaciar)
			carrito.GET("/badge", carritoH.Badge)
			carrito.POST("/items", carritoH.AgregarItem)
			carrito.PUT("/items/:id", carritoH.ActualizarCantidad)
			carrito.DELETE("/items/:id", carritoH.QuitarItem)
		}

		v1.POST("/checkout", middleware.RequireRole("cliente", "admin"), middleware.CheckoutRateLimiter(), checkoutH.Procesar)

		pedidos := v1.Group("/pedidos", middleware.RequireRole("cliente", "admin"))
		{
			pedidos.GET("", checkoutH.ListarPedidos)
			pedidos.GET("/:id", checkoutH.ObtenerPedido)
		}

		// Catalog writes — admin only
		prods := v1.Group("/productos", middleware.RequireRole("admin"))
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
