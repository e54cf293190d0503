package controllers

import (
	"strings"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
)

type SupplierInput struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	ContactInfo string `json:"contact_info" validate:"max=2000"`
}

type SupplierController struct {
	suppliers *repositories.SupplierRepository
}

func NewSupplierController(store *repositories.Store) *SupplierController {
	return &SupplierController{suppliers: store.Suppliers}
}

func (s *SupplierController) Index(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	items, page, err := s.suppliers.List(c.Context(), uid, repositories.SupplierFilter{Name: c.Query("name")}, c.Page())
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(items, page)
}

func (s *SupplierController) Store(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var in SupplierInput
	if !c.BindJSON(&in) {
		return
	}

	sup := &models.Supplier{UserID: uid, Name: strings.TrimSpace(in.Name), ContactInfo: in.ContactInfo}
	if err := s.suppliers.Create(c.Context(), sup); err != nil {
		fail(c, err)
		return
	}
	c.Created(sup)
}

func (s *SupplierController) Show(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	sup, err := s.suppliers.Find(c.Context(), uid, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(sup)
}

func (s *SupplierController) Update(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	sup, err := s.suppliers.Find(c.Context(), uid, id)
	if err != nil {
		fail(c, err)
		return
	}
	var in SupplierInput
	if !c.BindJSON(&in) {
		return
	}

	sup.Name = strings.TrimSpace(in.Name)
	sup.ContactInfo = in.ContactInfo
	if err := s.suppliers.Save(c.Context(), sup); err != nil {
		fail(c, err)
		return
	}
	c.Success(sup)
}

func (s *SupplierController) Destroy(c *ctx.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := s.suppliers.Delete(c.Context(), uid, id); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}
