package controllers

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type ProductInput struct {
	Name        string           `json:"name" validate:"required,notblank,max=255"`
	Description string           `json:"description" validate:"max=5000"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	SupplierID  uint             `json:"supplier_id" validate:"required"`
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = *in.Price
	p.SupplierID = in.SupplierID
}

type ProductController struct {
	products *repositories.ProductRepository
}

func NewProductController(store *repositories.Store) *ProductController {
	return &ProductController{products: store.Products}
}

func (p *ProductController) Index(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	filter := repositories.ProductFilter{Name: c.Query("name")}
	if raw := c.Query("price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			c.ValidationError(map[string]string{"price": "The price must be a number."})
			return
		}
		filter.Price = &price
	}

	items, page, err := p.products.List(c.Context(), uid, filter, c.Page())
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(items, page)
}

func (p *ProductController) Store(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var in ProductInput
	if !c.BindJSON(&in) {
		return
	}

	product := &models.Product{UserID: uid}
	in.apply(product)
	if err := p.products.Create(c.Context(), product); err != nil {
		p.fail(c, err)
		return
	}
	c.Created(product)
}

func (p *ProductController) Show(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	product, err := p.products.Find(c.Context(), uid, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(product)
}

func (p *ProductController) Update(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	product, err := p.products.Find(c.Context(), uid, id)
	if err != nil {
		fail(c, err)
		return
	}
	var in ProductInput
	if !c.BindJSON(&in) {
		return
	}

	in.apply(product)
	if err := p.products.Save(c.Context(), product); err != nil {
		p.fail(c, err)
		return
	}
	c.Success(product)
}

func (p *ProductController) Destroy(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := p.products.Delete(c.Context(), uid, id); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

func (p *ProductController) fail(c *ctx.Context, err error) {
	if errors.Is(err, repositories.ErrForeignOwner) {
		c.ValidationError(map[string]string{"supplier_id": "The selected supplier is invalid."})
		return
	}
	fail(c, err)
}
