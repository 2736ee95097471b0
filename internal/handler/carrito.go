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

type CarritoHandler struct{ svc service.CarritoService }

func NewCarritoHandler(svc service.CarritoService) *CarritoHandler { return &CarritoHandler{svc: svc} }

// Obtener godoc
// @Summary      Obtener el carrito del usuario
// @Description  Retorna el carrito con sus items y totales, creandolo vacio si no existe.
// @Tags         carrito
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.CarritoResponse
// @Router       /v1/carrito [get]
func (h *CarritoHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.ObtenerCarrito(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AgregarItem godoc
// @Summary      Agregar un item al carrito
// @Description  Agrega un producto al carrito; si ya existe, suma la cantidad al item existente.
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AgregarItemRequest true "Item a agregar"
// @Success      201  {object} dto.CarritoResponse
// @Failure      422  {object} apierror.Error
// @Router       /v1/carrito/items [post]
func (h *CarritoHandler) AgregarItem(c *gin.Context) {
	var req dto.AgregarItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarItem(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ActualizarCantidad godoc
// @Summary      Actualizar la cantidad de un item
// @Description  Sobrescribe la cantidad del item. Cantidades menores a 1 se rechazan.
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                        true "UUID del item"
// @Param        body body dto.ActualizarCantidadRequest true "Nueva cantidad"
// @Success      200  {object} dto.CarritoResponse
// @Failure      404  {object} apierror.Error
// @Failure      422  {object} apierror.Error
// @Router       /v1/carrito/items/{id} [put]
func (h *CarritoHandler) ActualizarCantidad(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.KindInvalidArgument, "ID invalido"))
		return
	}
	var req dto.ActualizarCantidadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarCantidad(c.Request.Context(), middleware.GetUserID(c), itemID, req.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// QuitarItem godoc
// @Summary      Quitar un item del carrito
// @Tags         carrito
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del item"
// @Success      200  {object} dto.CarritoResponse
// @Failure      404  {object} apierror.Error
// @Router       /v1/carrito/items/{id} [delete]
func (h *CarritoHandler) QuitarItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.KindInvalidArgument, "ID invalido"))
		return
	}
	resp, err := h.svc.QuitarItem(c.Request.Context(), middleware.GetUserID(c), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Vaciar godoc
// @Summary      Vaciar el carrito
// @Description  Elimina todos los items y deja los totales en cero. Idempotente.
// @Tags         carrito
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]bool
// @Router       /v1/carrito [delete]
func (h *CarritoHandler) Vaciar(c *gin.Context) {
	if err := h.svc.VaciarCarrito(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Badge godoc
// @Summary      Contador de items para el badge del carrito
// @Description  Sirve desde cache con fallback a la base; solo lectura.
// @Tags         carrito
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]int
// @Router       /v1/carrito/badge [get]
func (h *CarritoHandler) Badge(c *gin.Context) {
	count, err := h.svc.ObtenerBadge(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cantidad_items": count})
}
