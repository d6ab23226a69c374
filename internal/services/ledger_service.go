package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/stocki/internal/apperr"
	"github.com/example/stocki/internal/metrics"
	"github.com/example/stocki/internal/models"
	"github.com/example/stocki/internal/repository"
)

// SignPolicy maps a movement type to the sign applied to its quantity.
// A zero entry means the caller must supply the sign.
type SignPolicy map[models.MovementType]int

// DefaultSignPolicy adds entries, removes exits and lets adjustments go
// either way.
var DefaultSignPolicy = SignPolicy{
	models.MovementEntree:     1,
	models.MovementSortie:     -1,
	models.MovementAjustement: 0,
}

// Resolve returns the sign for a movement of type t. requested is the
// caller's sign (0 when absent).
func (p SignPolicy) Resolve(t models.MovementType, requested int) (int, error) {
	fixed, ok := p[t]
	if !ok {
		return 0, apperr.Validation("type_mouvement must be entree, sortie or ajustement")
	}
	if requested != 0 && requested != 1 && requested != -1 {
		return 0, apperr.Validation("signe must be 1 or -1")
	}
	if fixed == 0 {
		if requested == 0 {
			return 0, apperr.Validation(fmt.Sprintf("signe is required for %s", t))
		}
		return requested, nil
	}
	if requested != 0 && requested != fixed {
		return 0, apperr.Validation(fmt.Sprintf("signe %d conflicts with %s", requested, t))
	}
	return fixed, nil
}

// MovementInput is a request to record one movement.
type MovementInput struct {
	ProduitID     uuid.UUID
	MagasinID     uuid.UUID
	CategorieID   uuid.UUID
	Type          models.MovementType
	Quantite      int64
	PrixUnitaire  decimal.Decimal
	DateMouvement time.Time
	Motif         string
	Signe         int
}

// RecordResult is the stored movement and the balance after it.
type RecordResult struct {
	Movement models.Movement     `json:"mouvement"`
	Balance  models.StockBalance `json:"stock"`
}

// BalanceCheck compares a stored balance with a replay of its movements.
type BalanceCheck struct {
	Key              models.StockKey `json:"key"`
	StoredQuantite   int64           `json:"stored_quantite"`
	ReplayedQuantite int64           `json:"replayed_quantite"`
	StoredValeur     decimal.Decimal `json:"stored_valeur"`
	ReplayedValeur   decimal.Decimal `json:"replayed_valeur"`
	Consistent       bool            `json:"consistent"`
}

// DayPoint is the entree/sortie volume of one calendar day.
type DayPoint struct {
	Date    string `json:"date"`
	Entrees int64  `json:"entrees"`
	Sorties int64  `json:"sorties"`
}

// Dashboard summarizes a user's inventory.
type Dashboard struct {
	Catalog       repository.CatalogCounts `json:"catalog"`
	Movements     []repository.TypeCount   `json:"mouvements"`
	StockQuantite int64                    `json:"stock_quantite"`
	StockValeur   decimal.Decimal          `json:"stock_valeur"`
	LastDays      []DayPoint               `json:"derniers_jours"`
}

// DashboardDays is the length of the dashboard series.
const DashboardDays = 7

// LedgerService records stock movements and serves the derived views.
type LedgerService struct {
	repo   repository.LedgerRepository
	policy SignPolicy
	logger *slog.Logger
	now    func() time.Time
}

// NewLedgerService constructs a LedgerService with DefaultSignPolicy.
func NewLedgerService(repo repository.LedgerRepository, logger *slog.Logger) *LedgerService {
	return &LedgerService{repo: repo, policy: DefaultSignPolicy, logger: logger, now: time.Now}
}

// WithPolicy returns a copy of the service using policy.
func (s *LedgerService) WithPolicy(policy SignPolicy) *LedgerService {
	cp := *s
	cp.policy = policy
	return &cp
}

// WithNow returns a copy of the service reading time from now.
func (s *LedgerService) WithNow(now func() time.Time) *LedgerService {
	cp := *s
	cp.now = now
	return &cp
}

func (s *LedgerService) today() time.Time {
	return truncateDay(s.now())
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RecordMovement validates the input, appends the movement and updates its
// balance atomically.
func (s *LedgerService) RecordMovement(ctx context.Context, userID uuid.UUID, in MovementInput) (*RecordResult, error) {
	if userID == uuid.Nil {
		return nil, apperr.Validation("user is required")
	}
	if in.ProduitID == uuid.Nil || in.MagasinID == uuid.Nil || in.CategorieID == uuid.Nil {
		return nil, apperr.Validation("produit_id, magasin_id and categorie_id are required")
	}
	if in.Quantite <= 0 {
		return nil, apperr.Validation("quantite must be positive")
	}
	in.Type = models.MovementType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	sign, err := s.policy.Resolve(in.Type, in.Signe)
	if err != nil {
		return nil, err
	}
	if in.PrixUnitaire.IsNegative() {
		return nil, apperr.Validation("prix_unitaire must not be negative")
	}

	date := s.today()
	if !in.DateMouvement.IsZero() {
		date = truncateDay(in.DateMouvement)
	}

	m := &models.Movement{
		UserID:        userID,
		ProduitID:     in.ProduitID,
		MagasinID:     in.MagasinID,
		CategorieID:   in.CategorieID,
		TypeMouvement: in.Type,
		Quantite:      in.Quantite,
		Signe:         sign,
		PrixUnitaire:  in.PrixUnitaire.Round(2),
		DateMouvement: date,
		Motif:         strings.TrimSpace(in.Motif),
	}

	balance, err := s.repo.Record(ctx, m)
	var refErr *repository.UnknownReferenceError
	if errors.As(err, &refErr) {
		return nil, apperr.NotFound(refErr.Field + " not found")
	}
	if err != nil {
		metrics.LedgerFailures.Inc()
		s.logger.Error("record movement failed",
			slog.String("user_id", userID.String()),
			slog.String("type", string(m.TypeMouvement)),
			slog.Any("error", err),
		)
		return nil, apperr.Dependency("could not record movement", err)
	}

	metrics.MovementsRecorded.WithLabelValues(string(m.TypeMouvement)).Inc()
	s.logger.Debug("movement recorded",
		slog.String("movement_id", m.ID.String()),
		slog.Int64("balance", balance.Quantite),
	)
	return &RecordResult{Movement: *m, Balance: *balance}, nil
}

// ListMovements returns the user's movements, newest first.
func (s *LedgerService) ListMovements(ctx context.Context, userID uuid.UUID, filter repository.MovementFilter) ([]models.MovementView, error) {
	views, err := s.repo.ListMovements(ctx, userID, filter)
	if err != nil {
		return nil, apperr.Dependency("could not load movements", err)
	}
	return views, nil
}

// ListVentes returns the user's exits.
func (s *LedgerService) ListVentes(ctx context.Context, userID uuid.UUID, filter repository.MovementFilter) ([]models.MovementView, error) {
	filter.Type = models.MovementSortie
	return s.ListMovements(ctx, userID, filter)
}

// ListBalances returns the user's current stock.
func (s *LedgerService) ListBalances(ctx context.Context, userID uuid.UUID) ([]models.BalanceView, error) {
	views, err := s.repo.ListBalances(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("could not load stock", err)
	}
	return views, nil
}

// Balance returns the stored balance for one key.
func (s *LedgerService) Balance(ctx context.Context, key models.StockKey) (*models.StockBalance, error) {
	b, err := s.repo.Balance(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no stock for this key")
		}
		return nil, apperr.Dependency("could not load stock", err)
	}
	return b, nil
}

// ReplayBalances recomputes every balance of the user from its movements
// and compares it with the stored row.
func (s *LedgerService) ReplayBalances(ctx context.Context, userID uuid.UUID) ([]BalanceCheck, error) {
	movements, err := s.repo.AllMovements(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("could not load movements", err)
	}
	stored, err := s.repo.ListBalances(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("could not load stock", err)
	}

	checks := map[models.StockKey]*BalanceCheck{}
	get := func(key models.StockKey) *BalanceCheck {
		c, ok := checks[key]
		if !ok {
			c = &BalanceCheck{Key: key, StoredValeur: decimal.Zero, ReplayedValeur: decimal.Zero}
			checks[key] = c
		}
		return c
	}

	for i := range movements {
		m := &movements[i]
		c := get(m.Key())
		c.ReplayedQuantite += m.SignedQuantity()
		c.ReplayedValeur = c.ReplayedValeur.Add(m.SignedValue())
	}
	for i := range stored {
		b := &stored[i].StockBalance
		c := get(b.Key())
		c.StoredQuantite = b.Quantite
		c.StoredValeur = b.ValeurStock
	}

	out := make([]BalanceCheck, 0, len(checks))
	for _, c := range checks {
		c.Consistent = c.StoredQuantite == c.ReplayedQuantite &&
			c.StoredValeur.Round(2).Equal(c.ReplayedValeur.Round(2))
		if !c.Consistent {
			s.logger.Warn("stock drift detected",
				slog.String("user_id", userID.String()),
				slog.String("produit_id", c.Key.ProduitID.String()),
				slog.Int64("stored", c.StoredQuantite),
				slog.Int64("replayed", c.ReplayedQuantite),
			)
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.ProduitID != b.ProduitID {
			return a.ProduitID.String() < b.ProduitID.String()
		}
		if a.MagasinID != b.MagasinID {
			return a.MagasinID.String() < b.MagasinID.String()
		}
		return a.CategorieID.String() < b.CategorieID.String()
	})
	return out, nil
}

// Dashboard aggregates counts, stock totals and the last days of activity.
func (s *LedgerService) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	catalog, err := s.repo.CatalogCounts(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("could not load dashboard", err)
	}
	counts, err := s.repo.CountByType(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("could not load dashboard", err)
	}
	balances, err := s.repo.ListBalances(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("could not load dashboard", err)
	}

	d := &Dashboard{Catalog: catalog, Movements: counts, StockValeur: decimal.Zero}
	for _, b := range balances {
		d.StockQuantite += b.Quantite
		d.StockValeur = d.StockValeur.Add(b.ValeurStock)
	}
	d.StockValeur = d.StockValeur.Round(2)

	start := s.today().AddDate(0, 0, -(DashboardDays - 1))
	recent, err := s.repo.ListMovements(ctx, userID, repository.MovementFilter{Since: start})
	if err != nil {
		return nil, apperr.Dependency("could not load dashboard", err)
	}

	index := make(map[string]int, DashboardDays)
	d.LastDays = make([]DayPoint, DashboardDays)
	for i := 0; i < DashboardDays; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		d.LastDays[i] = DayPoint{Date: day}
		index[day] = i
	}
	for _, m := range recent {
		i, ok := index[m.DateMouvement.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		switch m.TypeMouvement {
		case models.MovementEntree:
			d.LastDays[i].Entrees += m.Quantite
		case models.MovementSortie:
			d.LastDays[i].Sorties += m.Quantite
		}
	}
	return d, nil
}
