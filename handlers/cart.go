package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/orders"
)

type cartLineView struct {
	ID       uint            `json:"id"`
	Product  productView     `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (a *API) getCart(c *gin.Context) {
	sum, err := a.Cart.List(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	items := make([]cartLineView, 0, len(sum.Items))
	for _, l := range sum.Items {
		items = append(items, cartLineView{ID: l.ID, Product: newProductView(l.Product), Quantity: l.Quantity, Subtotal: l.Subtotal})
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": sum.Total})
}

type addToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

func (a *API) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	item, err := a.Cart.Add(c.Request.Context(), auth.FromContext(c), req.ProductID, req.Quantity)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "added to cart", "item_id": item.ID, "quantity": item.Quantity})
}

type updateCartRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (a *API) updateCartItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	var req updateCartRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	if req.Quantity == nil {
		a.fail(c, apperr.Invalid("quantity is required"))
		return
	}
	item, err := a.Cart.Update(c.Request.Context(), auth.FromContext(c), id, *req.Quantity)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "quantity updated", "quantity": item.Quantity})
}

func (a *API) deleteCartItem(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.Cart.Remove(c.Request.Context(), auth.FromContext(c), id); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}

func (a *API) checkout(c *gin.Context) {
	var req orders.CheckoutRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	receipt, err := a.Orders.Checkout(c.Request.Context(), auth.FromContext(c), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "order placed",
		"order_id":   receipt.OrderID,
		"total":      receipt.Total,
		"order_type": receipt.OrderType,
	})
}
