package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/stocki/internal/apperr"
	"github.com/example/stocki/internal/middleware"
	"github.com/example/stocki/internal/models"
	"github.com/example/stocki/internal/repository"
	"github.com/example/stocki/internal/services"
	"github.com/example/stocki/internal/utils"
)

const dateLayout = "2006-01-02"

// LedgerHandler serves stock movements and the views derived from them.
type LedgerHandler struct {
	ledger *services.LedgerService
}

// NewLedgerHandler constructs a LedgerHandler.
func NewLedgerHandler(ledger *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type movementRequest struct {
	ProduitID     string          `json:"produit_id"`
	MagasinID     string          `json:"magasin_id"`
	CategorieID   string          `json:"categorie_id"`
	TypeMouvement string          `json:"type_mouvement"`
	Quantite      int64           `json:"quantite"`
	PrixUnitaire  decimal.Decimal `json:"prix_unitaire"`
	DateMouvement string          `json:"date_mouvement"`
	Motif         string          `json:"motif"`
	Signe         int             `json:"signe"`
}

func parseRef(raw, field string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, apperr.Validation(field + " is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid " + field)
	}
	return id, nil
}

func (r movementRequest) toInput() (services.MovementInput, error) {
	var in services.MovementInput
	var err error
	if in.ProduitID, err = parseRef(r.ProduitID, "produit_id"); err != nil {
		return in, err
	}
	if in.MagasinID, err = parseRef(r.MagasinID, "magasin_id"); err != nil {
		return in, err
	}
	if in.CategorieID, err = parseRef(r.CategorieID, "categorie_id"); err != nil {
		return in, err
	}
	if d := strings.TrimSpace(r.DateMouvement); d != "" {
		if len(d) > len(dateLayout) {
			d = d[:len(dateLayout)]
		}
		in.DateMouvement, err = time.Parse(dateLayout, d)
		if err != nil {
			return in, apperr.Validation("date_mouvement must be YYYY-MM-DD")
		}
	}
	in.Type = models.MovementType(r.TypeMouvement)
	in.Quantite = r.Quantite
	in.PrixUnitaire = r.PrixUnitaire
	in.Motif = r.Motif
	in.Signe = r.Signe
	return in, nil
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return userID, nil
}

func movementFilter(c *fiber.Ctx) (repository.MovementFilter, error) {
	var f repository.MovementFilter
	if t := c.Query("type"); t != "" {
		f.Type = models.MovementType(strings.ToLower(t))
		if !f.Type.Valid() {
			return f, apperr.Validation("invalid type filter")
		}
	}
	if since := c.Query("since"); since != "" {
		d, err := time.Parse(dateLayout, since)
		if err != nil {
			return f, apperr.Validation("since must be YYYY-MM-DD")
		}
		f.Since = d
	}
	if pg := utils.ParsePagination(c); pg.Requested {
		f.Limit = pg.Limit
		f.Offset = pg.Offset
	}
	return f, nil
}

// CreateMovement records a movement and returns it.
func (h *LedgerHandler) CreateMovement(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req movementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	res, err := h.ledger.RecordMovement(c.UserContext(), userID, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res.Movement)
}

// ListMovements returns the caller's movements joined with reference names.
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := movementFilter(c)
	if err != nil {
		return err
	}

	views, err := h.ledger.ListMovements(c.UserContext(), userID, filter)
	if err != nil {
		return err
	}
	return c.JSON(views)
}

// ListVentes returns the caller's exits.
func (h *LedgerHandler) ListVentes(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, err := movementFilter(c)
	if err != nil {
		return err
	}

	views, err := h.ledger.ListVentes(c.UserContext(), userID, filter)
	if err != nil {
		return err
	}
	return c.JSON(views)
}

// ListStock returns the caller's balances.
func (h *LedgerHandler) ListStock(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	views, err := h.ledger.ListBalances(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(views)
}

// VerifyStock replays movements against the stored balances.
func (h *LedgerHandler) VerifyStock(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	checks, err := h.ledger.ReplayBalances(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(checks)
}

// Dashboard returns the caller's summary.
func (h *LedgerHandler) Dashboard(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	d, err := h.ledger.Dashboard(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(d)
}
