package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/orderdesk/internal/domain"
	"github.com/Gunvolt24/orderdesk/pkg/httpx"
)

// createOrder — POST /orders {items, total_price, status?} → 201 снимок заказа.
func (h *Handler) createOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortUnauthorized(c, "not authenticated")
		return
	}

	var input domain.OrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), user.ID, &input)
	if err != nil {
		h.writeError(c, "CreateOrder", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) getOrderByID(c *gin.Context) {
	id, err := httpx.ParseUUIDParam(c, "id")
	if err != nil {
		h.writeError(c, "GetOrder", err)
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "GetOrder", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// patchOrder — PATCH /orders/:id: полная замена items/total_price/status.
func (h *Handler) patchOrder(c *gin.Context) {
	id, err := httpx.ParseUUIDParam(c, "id")
	if err != nil {
		h.writeError(c, "PatchOrder", err)
		return
	}

	var input domain.OrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badBody(c, err)
		return
	}

	order, err := h.orders.PatchOrder(c.Request.Context(), id, &input)
	if err != nil {
		h.writeError(c, "PatchOrder", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) listOrdersByUser(c *gin.Context) {
	userID, err := httpx.ParsePositiveInt64Param(c, "user_id")
	if err != nil {
		h.writeError(c, "OrdersByUser", err)
		return
	}

	orders, err := h.orders.OrdersByUser(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, "OrdersByUser", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
