package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/stocki/internal/apperr"
	"github.com/example/stocki/internal/models"
	"github.com/example/stocki/internal/utils"
)

// CatalogHandler manages the stores, categories and products of the caller.
// Every query is scoped to the authenticated user.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

func listOwned[T any](c *fiber.Ctx, db *gorm.DB, order string) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	q := db.WithContext(c.UserContext()).Where("user_id = ?", userID).Order(order)
	if pg := utils.ParsePagination(c); pg.Requested {
		q = q.Limit(pg.Limit).Offset(pg.Offset)
	}

	items := []T{}
	if err := q.Find(&items).Error; err != nil {
		return apperr.Dependency("could not load items", err)
	}
	return c.JSON(items)
}

func findOwned[T any](c *fiber.Ctx, db *gorm.DB, item *T, label string) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	err = db.WithContext(c.UserContext()).
		Where("id = ? AND user_id = ?", id, userID).
		First(item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, label+" not found")
		}
		return apperr.Dependency("could not load "+label, err)
	}
	return nil
}

func deleteOwned[T any](c *fiber.Ctx, db *gorm.DB, label string) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var zero T
	res := db.WithContext(c.UserContext()).Where("id = ? AND user_id = ?", id, userID).Delete(&zero)
	if res.Error != nil {
		return apperr.Dependency("could not delete "+label, res.Error)
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, label+" not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type magasinRequest struct {
	Nom     string `json:"nom"`
	Code    string `json:"code"`
	Type    string `json:"type"`
	Adresse string `json:"adresse"`
}

func (r magasinRequest) apply(m *models.Magasin) error {
	if strings.TrimSpace(r.Nom) == "" {
		return apperr.Validation("nom is required")
	}
	m.Nom = strings.TrimSpace(r.Nom)
	m.Code = strings.TrimSpace(r.Code)
	m.Type = strings.TrimSpace(r.Type)
	m.Adresse = strings.TrimSpace(r.Adresse)
	return nil
}

// ListMagasins returns the caller's stores.
func (h *CatalogHandler) ListMagasins(c *fiber.Ctx) error {
	return listOwned[models.Magasin](c, h.db, "nom asc")
}

// GetMagasin returns a single store.
func (h *CatalogHandler) GetMagasin(c *fiber.Ctx) error {
	var item models.Magasin
	if err := findOwned(c, h.db, &item, "magasin"); err != nil {
		return err
	}
	return c.JSON(item)
}

// CreateMagasin persists a new store.
func (h *CatalogHandler) CreateMagasin(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req magasinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item := models.Magasin{UserID: userID}
	if err := req.apply(&item); err != nil {
		return err
	}
	if err := h.db.WithContext(c.UserContext()).Create(&item).Error; err != nil {
		return apperr.Dependency("could not create magasin", err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateMagasin replaces the editable fields of a store.
func (h *CatalogHandler) UpdateMagasin(c *fiber.Ctx) error {
	var item models.Magasin
	if err := findOwned(c, h.db, &item, "magasin"); err != nil {
		return err
	}
	var req magasinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.apply(&item); err != nil {
		return err
	}
	if err := h.db.WithContext(c.UserContext()).Save(&item).Error; err != nil {
		return apperr.Dependency("could not update magasin", err)
	}
	return c.JSON(item)
}

// DeleteMagasin removes a store.
func (h *CatalogHandler) DeleteMagasin(c *fiber.Ctx) error {
	return deleteOwned[models.Magasin](c, h.db, "magasin")
}

type categorieRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (r categorieRequest) apply(cat *models.Categorie) error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Validation("name is required")
	}
	cat.Name = strings.TrimSpace(r.Name)
	cat.Code = strings.TrimSpace(r.Code)
	cat.Description = strings.TrimSpace(r.Description)
	return nil
}

// ListCategories returns the caller's categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	return listOwned[models.Categorie](c, h.db, "name asc")
}

// GetCategory returns a single category.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	var item models.Categorie
	if err := findOwned(c, h.db, &item, "category"); err != nil {
		return err
	}
	return c.JSON(item)
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req categorieRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item := models.Categorie{UserID: userID}
	if err := req.apply(&item); err != nil {
		return err
	}
	if err := h.db.WithContext(c.UserContext()).Create(&item).Error; err != nil {
		return apperr.Dependency("could not create category", err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	var item models.Categorie
	if err := findOwned(c, h.db, &item, "category"); err != nil {
		return err
	}
	var req categorieRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.apply(&item); err != nil {
		return err
	}
	if err := h.db.WithContext(c.UserContext()).Save(&item).Error; err != nil {
		return apperr.Dependency("could not update category", err)
	}
	return c.JSON(item)
}

// DeleteCategory removes a category by ID.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	return deleteOwned[models.Categorie](c, h.db, "category")
}

type produitRequest struct {
	Nom     string          `json:"nom"`
	Code    string          `json:"code"`
	Type    string          `json:"type"`
	Prix    decimal.Decimal `json:"prix"`
	Adresse string          `json:"adresse"`
}

func (r produitRequest) apply(p *models.Produit) error {
	if strings.TrimSpace(r.Nom) == "" {
		return apperr.Validation("nom is required")
	}
	if r.Prix.IsNegative() {
		return apperr.Validation("prix must not be negative")
	}
	p.Nom = strings.TrimSpace(r.Nom)
	p.Code = strings.TrimSpace(r.Code)
	p.Type = strings.TrimSpace(r.Type)
	p.Prix = r.Prix.Round(2)
	p.Adresse = strings.TrimSpace(r.Adresse)
	return nil
}

// ListProduits returns the caller's products.
func (h *CatalogHandler) ListProduits(c *fiber.Ctx) error {
	return listOwned[models.Produit](c, h.db, "nom asc")
}

// GetProduit returns a single product.
func (h *CatalogHandler) GetProduit(c *fiber.Ctx) error {
	var item models.Produit
	if err := findOwned(c, h.db, &item, "produit"); err != nil {
		return err
	}
	return c.JSON(item)
}

// CreateProduit persists a new product.
func (h *CatalogHandler) CreateProduit(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req produitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item := models.Produit{UserID: userID}
	if err := req.apply(&item); err != nil {
		return err
	}
	if err := h.db.WithContext(c.UserContext()).Create(&item).Error; err != nil {
		return apperr.Dependency("could not create produit", err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateProduit replaces the editable fields of a product.
func (h *CatalogHandler) UpdateProduit(c *fiber.Ctx) error {
	var item models.Produit
	if err := findOwned(c, h.db, &item, "produit"); err != nil {
		return err
	}
	var req produitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.apply(&item); err != nil {
		return err
	}
	if err := h.db.WithContext(c.UserContext()).Save(&item).Error; err != nil {
		return apperr.Dependency("could not update produit", err)
	}
	return c.JSON(item)
}

// DeleteProduit removes a product. Its movements stay in the ledger.
func (h *CatalogHandler) DeleteProduit(c *fiber.Ctx) error {
	return deleteOwned[models.Produit](c, h.db, "produit")
}
