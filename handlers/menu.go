package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/restaurant-backend/auth"
)

func (a *API) todayMenu(c *gin.Context) {
	list, err := a.Menu.Today(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, productViews(list))
}

type menuRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

func (a *API) addToMenu(c *gin.Context) {
	var req menuRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	created, err := a.Menu.Add(c.Request.Context(), auth.FromContext(c), req.ProductID)
	if err != nil {
		a.fail(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "product is already on today's menu"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "added to today's menu"})
}

func (a *API) removeFromMenu(c *gin.Context) {
	id, err := idParam(c, "product_id")
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.Menu.Remove(c.Request.Context(), auth.FromContext(c), id); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "removed from today's menu"})
}
