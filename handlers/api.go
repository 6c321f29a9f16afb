// Package handlers exposes the restaurant services over HTTP.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/cart"
	"github.com/judyrop/restaurant-backend/catalog"
	"github.com/judyrop/restaurant-backend/logger"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/orders"
	"github.com/judyrop/restaurant-backend/uploads"
	"github.com/judyrop/restaurant-backend/users"
)

type API struct {
	Users    *users.Service
	Products *catalog.Products
	Menu     *catalog.Menu
	Cart     *cart.Service
	Orders   *orders.Service
	Tokens   *auth.Issuer
	Uploads  uploads.Storage
	Log      *logrus.Entry

	// Checks are run by /health; any failure answers 503.
	Checks map[string]HealthCheck
}

type HealthCheck func(ctx context.Context) error

// Register mounts every route on r. Routes that need a caller go through authn.
func (a *API) Register(r gin.IRouter, authn gin.HandlerFunc) {
	registerValidators()

	r.GET("/health", a.health)

	r.POST("/auth/register", a.register)
	r.POST("/auth/login", a.login)
	r.POST("/auth/logout", authn, a.logout)

	r.GET("/products", a.listProducts)
	r.GET("/products/:id", a.getProduct)
	r.POST("/products", authn, a.createProduct)
	r.PUT("/products/:id", authn, a.updateProduct)
	r.DELETE("/products/:id", authn, a.deleteProduct)

	r.GET("/menu/today", a.todayMenu)
	r.POST("/menu/add", authn, a.addToMenu)
	r.DELETE("/menu/remove/:product_id", authn, a.removeFromMenu)

	c := r.Group("/cart", authn)
	c.GET("", a.getCart)
	c.POST("", a.addToCart)
	c.PUT("/:id", a.updateCartItem)
	c.DELETE("/:id", a.deleteCartItem)
	c.POST("/checkout", a.checkout)

	o := r.Group("/orders", authn)
	o.GET("", a.listOrders(orders.Active))
	o.GET("/history", a.listOrders(orders.History))
	o.GET("/:id", a.getOrder)
	o.GET("/:id/status", a.getOrderStatus)
	o.PUT("/:id/status", a.setOrderStatus)

	adm := r.Group("/admin", authn)
	adm.GET("/users", a.listUsers)
	adm.POST("/users", a.createClient)
	adm.PUT("/users/:id", a.updateClient)
	adm.POST("/orders", a.createOrderForUser)
}

// fail answers err with its mapped status. Unclassified errors are logged
// and hidden from the caller.
func (a *API) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logger.RequestLogger(c, a.Log).WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// bindJSON decodes an optional JSON body; an empty body leaves v untouched.
func bindJSON(c *gin.Context, v any) error {
	err := c.ShouldBindJSON(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return apperr.Wrap(apperr.KindInvalid, err, fe.Field()+" is required")
		}
		return apperr.Wrap(apperr.KindInvalid, err, fmt.Sprintf("invalid %s %q", fe.Field(), fmt.Sprint(fe.Value())))
	}
	return apperr.Wrap(apperr.KindInvalid, err, "invalid request body")
}

func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("invalid %s %q", name, c.Param(name))
	}
	return uint(id), nil
}

var validatorsOnce sync.Once

// registerValidators adds the domain tags to gin's binding validator.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
			_, ok := models.ParseStatus(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("ordertype", func(fl validator.FieldLevel) bool {
			_, ok := models.ParseOrderType(fl.Field().String())
			return ok
		})
	})
}

func (a *API) health(c *gin.Context) {
	code, status := http.StatusOK, "ok"
	checks := make(map[string]string, len(a.Checks))
	for name, check := range a.Checks {
		if err := check(c.Request.Context()); err != nil {
			logger.RequestLogger(c, a.Log).WithError(err).WithField("check", name).Warn("health check failed")
			checks[name] = "down"
			code, status = http.StatusServiceUnavailable, "unavailable"
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}
