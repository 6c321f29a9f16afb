package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/judyrop/restaurant-backend/apperr"
	"github.com/judyrop/restaurant-backend/auth"
	"github.com/judyrop/restaurant-backend/catalog"
	"github.com/judyrop/restaurant-backend/models"
)

type productView struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url"`
}

func newProductView(p models.Product) productView {
	return productView{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price, ImageURL: p.ImageURL}
}

func productViews(list []models.Product) []productView {
	out := make([]productView, 0, len(list))
	for _, p := range list {
		out = append(out, newProductView(p))
	}
	return out
}

// priceText holds a price sent either as a JSON number or a string.
type priceText string

func (p *priceText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = priceText(s)
		return nil
	}
	*p = priceText(bytes.TrimSpace(data))
	return nil
}

type productRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Price       *priceText `json:"price"`
	ImageURL    *string    `json:"image_url"`
}

func (r productRequest) input() catalog.ProductInput {
	in := catalog.ProductInput{Name: r.Name, Description: r.Description, ImageURL: r.ImageURL}
	if r.Price != nil {
		s := string(*r.Price)
		in.Price = &s
	}
	return in
}

// productInput reads a JSON body or a multipart form with an optional image.
func (a *API) productInput(c *gin.Context) (catalog.ProductInput, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var req productRequest
		if err := bindJSON(c, &req); err != nil {
			return catalog.ProductInput{}, err
		}
		return req.input(), nil
	}

	var in catalog.ProductInput
	for field, dst := range map[string]**string{"name": &in.Name, "description": &in.Description, "price": &in.Price} {
		if v, ok := c.GetPostForm(field); ok {
			*dst = &v
		}
	}
	file, err := c.FormFile("image")
	if err != nil || file.Filename == "" {
		return in, nil
	}
	f, err := file.Open()
	if err != nil {
		return in, apperr.Wrap(apperr.KindInvalid, err, "unreadable image upload")
	}
	defer f.Close()
	url, err := a.Uploads.Save(c.Request.Context(), file.Filename, f)
	if err != nil {
		return in, err
	}
	in.ImageURL = &url
	return in, nil
}

func (a *API) listProducts(c *gin.Context) {
	list, err := a.Products.List(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, productViews(list))
}

func (a *API) getProduct(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	p, err := a.Products.Get(c.Request.Context(), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductView(p))
}

func (a *API) createProduct(c *gin.Context) {
	// check before an upload touches the disk
	if err := auth.RequireAdmin(auth.FromContext(c)); err != nil {
		a.fail(c, err)
		return
	}
	in, err := a.productInput(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	p, err := a.Products.Create(c.Request.Context(), auth.FromContext(c), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "product created", "id": p.ID})
}

func (a *API) updateProduct(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := auth.RequireAdmin(auth.FromContext(c)); err != nil {
		a.fail(c, err)
		return
	}
	in, err := a.productInput(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	p, err := a.Products.Update(c.Request.Context(), auth.FromContext(c), id, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductView(p))
}

func (a *API) deleteProduct(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.Products.Delete(c.Request.Context(), auth.FromContext(c), id); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}
