package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/stocki/internal/models"
)

// MovementFilter narrows ListMovements. Zero values mean "no filter".
type MovementFilter struct {
	Type   models.MovementType
	Since  time.Time
	Limit  int
	Offset int
}

// TypeCount aggregates movements of one type.
type TypeCount struct {
	TypeMouvement models.MovementType `json:"type_mouvement"`
	Count         int64               `json:"count"`
	Quantite      int64               `json:"quantite"`
}

// CatalogCounts is the number of catalog rows a user owns.
type CatalogCounts struct {
	Produits   int64 `json:"produits"`
	Magasins   int64 `json:"magasins"`
	Categories int64 `json:"categories"`
}

// UnknownReferenceError is returned by Record when a movement points at a
// catalog row that does not exist or belongs to another user.
type UnknownReferenceError struct {
	Field string
}

func (e *UnknownReferenceError) Error() string {
	return "unknown " + e.Field
}

// LedgerRepository persists movements and their materialized balances.
type LedgerRepository interface {
	Record(ctx context.Context, m *models.Movement) (*models.StockBalance, error)
	Balance(ctx context.Context, key models.StockKey) (*models.StockBalance, error)
	ListMovements(ctx context.Context, userID uuid.UUID, filter MovementFilter) ([]models.MovementView, error)
	ListBalances(ctx context.Context, userID uuid.UUID) ([]models.BalanceView, error)
	AllMovements(ctx context.Context, userID uuid.UUID) ([]models.Movement, error)
	CountByType(ctx context.Context, userID uuid.UUID) ([]TypeCount, error)
	CatalogCounts(ctx context.Context, userID uuid.UUID) (CatalogCounts, error)
}

// GormLedgerRepository implements LedgerRepository with GORM.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository constructs a GormLedgerRepository.
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

var stockKeyColumns = []clause.Column{
	{Name: "user_id"},
	{Name: "produit_id"},
	{Name: "magasin_id"},
	{Name: "categorie_id"},
}

// Record appends the movement and applies its signed deltas to the balance
// row in one transaction. The balance update is an insert-or-increment on
// the unique key, so concurrent writers on the same key never lose updates.
// The produit, magasin and categorie must belong to the movement's user.
// If any step fails nothing is committed.
func (r *GormLedgerRepository) Record(ctx context.Context, m *models.Movement) (*models.StockBalance, error) {
	var balance models.StockBalance

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		if err := checkReferences(tx, m); err != nil {
			return err
		}

		dq := m.SignedQuantity()
		dv := m.SignedValue()
		row := models.StockBalance{
			UserID:      m.UserID,
			ProduitID:   m.ProduitID,
			MagasinID:   m.MagasinID,
			CategorieID: m.CategorieID,
			Quantite:    dq,
			ValeurStock: dv,
		}

		err := tx.Clauses(clause.OnConflict{
			Columns: stockKeyColumns,
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantite":     gorm.Expr("stock_actuel.quantite + ?", dq),
				"valeur_stock": gorm.Expr("stock_actuel.valeur_stock + ?", dv),
				"updated_at":   time.Now().UTC(),
			}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upsert balance: %w", err)
		}

		if err := whereKey(tx, m.Key()).First(&balance).Error; err != nil {
			return fmt.Errorf("read balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func checkReferences(tx *gorm.DB, m *models.Movement) error {
	refs := []struct {
		field string
		model interface{}
		id    uuid.UUID
	}{
		{"produit_id", &models.Produit{}, m.ProduitID},
		{"magasin_id", &models.Magasin{}, m.MagasinID},
		{"categorie_id", &models.Categorie{}, m.CategorieID},
	}
	for _, ref := range refs {
		var n int64
		err := tx.Model(ref.model).Where("id = ? AND user_id = ?", ref.id, m.UserID).Count(&n).Error
		if err != nil {
			return fmt.Errorf("check %s: %w", ref.field, err)
		}
		if n == 0 {
			return &UnknownReferenceError{Field: ref.field}
		}
	}
	return nil
}

func (r *GormLedgerRepository) Balance(ctx context.Context, key models.StockKey) (*models.StockBalance, error) {
	var balance models.StockBalance
	if err := whereKey(r.db.WithContext(ctx), key).First(&balance).Error; err != nil {
		return nil, translate(err, "find balance")
	}
	return &balance, nil
}

func (r *GormLedgerRepository) ListMovements(ctx context.Context, userID uuid.UUID, filter MovementFilter) ([]models.MovementView, error) {
	q := r.db.WithContext(ctx).
		Table("mouvements_stock AS m").
		Select("m.*, p.nom AS produit_nom, mg.nom AS magasin_nom, c.name AS categorie_nom").
		Joins("LEFT JOIN produits p ON p.id = m.produit_id").
		Joins("LEFT JOIN magasins mg ON mg.id = m.magasin_id").
		Joins("LEFT JOIN categories c ON c.id = m.categorie_id").
		Where("m.user_id = ?", userID)

	if filter.Type != "" {
		q = q.Where("m.type_mouvement = ?", filter.Type)
	}
	if !filter.Since.IsZero() {
		q = q.Where("m.date_mouvement >= ?", filter.Since)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	views := []models.MovementView{}
	if err := q.Order("m.date_mouvement DESC, m.created_at DESC").Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return views, nil
}

func (r *GormLedgerRepository) ListBalances(ctx context.Context, userID uuid.UUID) ([]models.BalanceView, error) {
	views := []models.BalanceView{}
	err := r.db.WithContext(ctx).
		Table("stock_actuel AS s").
		Select("s.*, p.nom AS produit_nom, mg.nom AS magasin_nom, c.name AS categorie_nom").
		Joins("LEFT JOIN produits p ON p.id = s.produit_id").
		Joins("LEFT JOIN magasins mg ON mg.id = s.magasin_id").
		Joins("LEFT JOIN categories c ON c.id = s.categorie_id").
		Where("s.user_id = ?", userID).
		Order("p.nom ASC, mg.nom ASC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	return views, nil
}

// AllMovements returns every movement of the user in insertion order.
func (r *GormLedgerRepository) AllMovements(ctx context.Context, userID uuid.UUID) ([]models.Movement, error) {
	movements := []models.Movement{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("all movements: %w", err)
	}
	return movements, nil
}

func (r *GormLedgerRepository) CountByType(ctx context.Context, userID uuid.UUID) ([]TypeCount, error) {
	counts := []TypeCount{}
	err := r.db.WithContext(ctx).Model(&models.Movement{}).
		Select("type_mouvement, COUNT(*) AS count, COALESCE(SUM(quantite), 0) AS quantite").
		Where("user_id = ?", userID).
		Group("type_mouvement").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count movements: %w", err)
	}
	return counts, nil
}

func (r *GormLedgerRepository) CatalogCounts(ctx context.Context, userID uuid.UUID) (CatalogCounts, error) {
	var out CatalogCounts
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Produit{}).Where("user_id = ?", userID).Count(&out.Produits).Error; err != nil {
		return out, fmt.Errorf("count produits: %w", err)
	}
	if err := db.Model(&models.Magasin{}).Where("user_id = ?", userID).Count(&out.Magasins).Error; err != nil {
		return out, fmt.Errorf("count magasins: %w", err)
	}
	if err := db.Model(&models.Categorie{}).Where("user_id = ?", userID).Count(&out.Categories).Error; err != nil {
		return out, fmt.Errorf("count categories: %w", err)
	}
	return out, nil
}

func whereKey(db *gorm.DB, key models.StockKey) *gorm.DB {
	return db.Where("user_id = ? AND produit_id = ? AND magasin_id = ? AND categorie_id = ?",
		key.UserID, key.ProduitID, key.MagasinID, key.CategorieID)
}
