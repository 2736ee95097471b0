package handler

import (
	"net/http"

	"mulita/internal/apierror"
	"mulita/internal/dto"
	"mulita/internal/middleware"
	"mulita/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CheckoutHandler struct{ svc service.CheckoutService }

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// Procesar godoc
// @Summary      Procesar un checkout
// @Description  Valida las lineas, los datos fiscales y la direccion; crea el pedido de forma atomica y encola la notificacion. Si la fuente es "carrito", el carrito se vacia tras crear el pedido.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CheckoutRequest true "Lineas, datos fiscales y entrega"
// @Success      201  {object} dto.PedidoResponse
// @Failure      422  {object} apierror.Error
// @Router       /v1/checkout [post]
func (h *CheckoutHandler) Procesar(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ProcesarCheckout(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarPedidos godoc
// @Summary      Listar los pedidos del usuario
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Pagina"  default(1)
// @Param        limit query int false "Limite"  default(20)
// @Success      200  {object} dto.PedidoListResponse
// @Router       /v1/pedidos [get]
func (h *CheckoutHandler) ListarPedidos(c *gin.Context) {
	var filter dto.PedidoFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.ListarPedidos(c.Request.Context(), middleware.GetUserID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPedido godoc
// @Summary      Obtener un pedido por ID
// @Description  Solo el dueno del pedido puede verlo; los demas reciben 404.
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del pedido"
// @Success      200  {object} dto.PedidoResponse
// @Failure      404  {object} apierror.Error
// @Router       /v1/pedidos/{id} [get]
func (h *CheckoutHandler) ObtenerPedido(c *gin.Context) {
	pedidoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.KindInvalidArgument, "ID invalido"))
		return
	}
	resp, err := h.svc.ObtenerPedido(c.Request.Context(), middleware.GetUserID(c), pedidoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
