package controllers

import (
	"errors"
	"strconv"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type InventoryInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  *int `json:"quantity" validate:"required,gte=0"`
}

type InventoryController struct {
	inventory *repositories.InventoryRepository
}

func NewInventoryController(store *repositories.Store) *InventoryController {
	return &InventoryController{inventory: store.Inventory}
}

func (i *InventoryController) Index(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var filter repositories.InventoryFilter
	if raw := c.Query("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			c.ValidationError(map[string]string{"quantity": "The quantity must be an integer."})
			return
		}
		filter.Quantity = &q
	}

	items, page, err := i.inventory.List(c.Context(), uid, filter, c.Page())
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(items, page)
}

func (i *InventoryController) Store(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var in InventoryInput
	if !c.BindJSON(&in) {
		return
	}

	inv := &models.Inventory{UserID: uid, ProductID: in.ProductID, Quantity: *in.Quantity}
	if err := i.inventory.Create(c.Context(), inv); err != nil {
		i.fail(c, err)
		return
	}
	c.Created(inv)
}

func (i *InventoryController) Show(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	inv, err := i.inventory.Find(c.Context(), uid, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(inv)
}

func (i *InventoryController) Update(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	inv, err := i.inventory.Find(c.Context(), uid, id)
	if err != nil {
		fail(c, err)
		return
	}
	var in InventoryInput
	if !c.BindJSON(&in) {
		return
	}

	inv.ProductID = in.ProductID
	inv.Quantity = *in.Quantity
	if err := i.inventory.Save(c.Context(), inv); err != nil {
		i.fail(c, err)
		return
	}
	c.Success(inv)
}

func (i *InventoryController) Destroy(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := i.inventory.Delete(c.Context(), uid, id); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}

func (i *InventoryController) fail(c *ctx.Context, err error) {
	if errors.Is(err, repositories.ErrForeignOwner) {
		c.ValidationError(map[string]string{"product_id": "The selected product is invalid."})
		return
	}
	fail(c, err)
}
