package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/models"
	"github.com/judyrop/restaurant-backend/orders"
	"github.com/judyrop/restaurant-backend/users"
)

type orderInfoView struct {
	OrderType       models.OrderType `json:"order_type"`
	TableNumber     *int             `json:"table_number"`
	DeliveryAddress *string          `json:"delivery_address"`
	DeliveryPhone   *string          `json:"delivery_phone"`
	PaymentMethod   *string          `json:"payment_method"`
}

type userOrderView struct {
	ID        uint            `json:"id"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	Info      *orderInfoView  `json:"info"`
}

type userView struct {
	ID        uint            `json:"id"`
	Username  string          `json:"username"`
	Email     *string         `json:"email"`
	IsAdmin   bool            `json:"is_admin"`
	FirstName *string         `json:"first_name"`
	LastName  *string         `json:"last_name"`
	Phone     *string         `json:"phone"`
	Address   *string         `json:"address"`
	Orders    []userOrderView `json:"orders"`
}

func newUserView(u models.User) userView {
	v := userView{
		ID: u.ID, Username: u.Username, Email: u.Email, IsAdmin: u.IsAdmin,
		FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone, Address: u.Address,
		Orders: make([]userOrderView, 0, len(u.Orders)),
	}
	for _, o := range u.Orders {
		ov := userOrderView{ID: o.ID, Total: o.Total, CreatedAt: o.CreatedAt}
		if o.Info != nil {
			ov.Info = &orderInfoView{
				OrderType:       o.Info.OrderType,
				TableNumber:     o.Info.TableNumber,
				DeliveryAddress: o.Info.DeliveryAddress,
				DeliveryPhone:   o.Info.DeliveryPhone,
				PaymentMethod:   o.Info.PaymentMethod,
			}
		}
		v.Orders = append(v.Orders, ov)
	}
	return v
}

func (a *API) listUsers(c *gin.Context) {
	list, err := a.Users.List(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	out := make([]userView, 0, len(list))
	for _, u := range list {
		out = append(out, newUserView(u))
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) createClient(c *gin.Context) {
	var req users.ClientRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	u, err := a.Users.CreateClient(c.Request.Context(), auth.FromContext(c), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "username": u.Username, "email": u.Email, "is_admin": u.IsAdmin})
}

func (a *API) updateClient(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	var req users.ClientRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	if _, err := a.Users.UpdateClient(c.Request.Context(), auth.FromContext(c), id, req); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "client updated"})
}

func (a *API) createOrderForUser(c *gin.Context) {
	var req orders.AdminOrderRequest
	if err := bindJSON(c, &req); err != nil {
		a.fail(c, err)
		return
	}
	receipt, err := a.Orders.CreateForUser(c.Request.Context(), auth.FromContext(c), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "order created", "order_id": receipt.OrderID, "total": receipt.Total})
}
