package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/orders"
)

func (a *API) listOrders(scope orders.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := a.Orders.List(c.Request.Context(), auth.FromContext(c), scope)
		if err != nil {
			a.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func (a *API) getOrder(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	view, err := a.Orders.Get(c.Request.Context(), auth.FromContext(c), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *API) getOrderStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	status, err := a.Orders.Status(c.Request.Context(), auth.FromContext(c), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "status": status})
}

type statusRequest struct {
	Status string `json:"status" binding:"required,orderstatus"`
}

func (a *API) setOrderStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	status, err := a.Orders.SetStatus(c.Request.Context(), auth.FromContext(c), id, req.Status)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated", "order_id": id, "status": status})
}
