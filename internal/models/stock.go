package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementType is the kind of a stock movement.
type MovementType string

const (
	MovementEntree     MovementType = "entree"
	MovementSortie     MovementType = "sortie"
	MovementAjustement MovementType = "ajustement"
)

// Valid reports whether t is a recognized movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementEntree, MovementSortie, MovementAjustement:
		return true
	}
	return false
}

// StockKey identifies one running balance.
type StockKey struct {
	UserID      uuid.UUID `json:"user_id"`
	ProduitID   uuid.UUID `json:"produit_id"`
	MagasinID   uuid.UUID `json:"magasin_id"`
	CategorieID uuid.UUID `json:"categorie_id"`
}

// Movement is an immutable ledger entry. Quantite is a magnitude; Signe
// (+1 or -1) carries the direction so balances can be replayed from the
// movements alone.
type Movement struct {
	ID            uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	UserID        uuid.UUID       `gorm:"type:char(36);not null;index:idx_mouvement_key,priority:1" json:"user_id"`
	ProduitID     uuid.UUID       `gorm:"type:char(36);not null;index:idx_mouvement_key,priority:2" json:"produit_id"`
	MagasinID     uuid.UUID       `gorm:"type:char(36);not null;index:idx_mouvement_key,priority:3" json:"magasin_id"`
	CategorieID   uuid.UUID       `gorm:"type:char(36);not null;index:idx_mouvement_key,priority:4" json:"categorie_id"`
	TypeMouvement MovementType    `gorm:"type:varchar(16);not null" json:"type_mouvement"`
	Quantite      int64           `gorm:"not null" json:"quantite"`
	Signe         int             `gorm:"not null" json:"signe"`
	PrixUnitaire  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"prix_unitaire"`
	DateMouvement time.Time       `gorm:"type:date;index;not null" json:"date_mouvement"`
	Motif         string          `gorm:"type:text" json:"motif"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TableName keeps the historical table name.
func (Movement) TableName() string { return "mouvements_stock" }

// BeforeCreate assigns the movement ID.
func (m *Movement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Key returns the balance key the movement contributes to.
func (m *Movement) Key() StockKey {
	return StockKey{
		UserID:      m.UserID,
		ProduitID:   m.ProduitID,
		MagasinID:   m.MagasinID,
		CategorieID: m.CategorieID,
	}
}

// SignedQuantity is the quantity delta applied to the balance.
func (m *Movement) SignedQuantity() int64 {
	return int64(m.Signe) * m.Quantite
}

// SignedValue is the monetary delta applied to the balance.
func (m *Movement) SignedValue() decimal.Decimal {
	return m.PrixUnitaire.Mul(decimal.NewFromInt(m.SignedQuantity()))
}

// StockBalance is the materialized running total for one StockKey.
type StockBalance struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex:idx_stock_key,priority:1" json:"user_id"`
	ProduitID   uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex:idx_stock_key,priority:2" json:"produit_id"`
	MagasinID   uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex:idx_stock_key,priority:3" json:"magasin_id"`
	CategorieID uuid.UUID       `gorm:"type:char(36);not null;uniqueIndex:idx_stock_key,priority:4" json:"categorie_id"`
	Quantite    int64           `gorm:"not null;default:0" json:"quantite"`
	ValeurStock decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"valeur_stock"`
}

func (StockBalance) TableName() string { return "stock_actuel" }

// Key returns the balance key.
func (b *StockBalance) Key() StockKey {
	return StockKey{
		UserID:      b.UserID,
		ProduitID:   b.ProduitID,
		MagasinID:   b.MagasinID,
		CategorieID: b.CategorieID,
	}
}

// MovementView is a movement joined with the names of its references.
type MovementView struct {
	Movement
	ProduitNom   string `json:"produit_nom"`
	MagasinNom   string `json:"magasin_nom"`
	CategorieNom string `json:"categorie_nom"`
}

// BalanceView is a balance joined with the names of its references.
type BalanceView struct {
	StockBalance
	ProduitNom   string `json:"produit_nom"`
	MagasinNom   string `json:"magasin_nom"`
	CategorieNom string `json:"categorie_nom"`
}
