package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/restaurant-backend/users"
)

func (a *API) register(c *gin.Context) {
	var req users.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	user, err := a.Users.Register(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered", "id": user.ID, "is_admin": user.IsAdmin})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	user, err := a.Users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		a.fail(c, err)
		return
	}
	token, err := a.Tokens.Issue(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"is_admin": user.IsAdmin,
		},
	})
}

// logout is informational; clients discard their token.
func (a *API) logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
