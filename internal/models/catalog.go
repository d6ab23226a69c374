package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Magasin is a store or warehouse owned by a user.
type Magasin struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:char(36);index;not null" json:"user_id"`
	Nom     string    `gorm:"type:varchar(191);not null" json:"nom"`
	Code    string    `gorm:"type:varchar(64)" json:"code"`
	Type    string    `gorm:"type:varchar(64)" json:"type"`
	Adresse string    `json:"adresse"`
}

func (Magasin) TableName() string { return "magasins" }

// Categorie groups products.
type Categorie struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:char(36);index;not null" json:"user_id"`
	Name        string    `gorm:"type:varchar(191);not null" json:"name"`
	Code        string    `gorm:"type:varchar(64)" json:"code"`
	Description string    `json:"description"`
}

func (Categorie) TableName() string { return "categories" }

// Produit is a stocked item.
type Produit struct {
	BaseModel
	UserID  uuid.UUID       `gorm:"type:char(36);index;not null" json:"user_id"`
	Nom     string          `gorm:"type:varchar(191);not null" json:"nom"`
	Code    string          `gorm:"type:varchar(64)" json:"code"`
	Type    string          `gorm:"type:varchar(64)" json:"type"`
	Prix    decimal.Decimal `gorm:"type:decimal(14,2)" json:"prix"`
	Adresse string          `json:"adresse"`
}

func (Produit) TableName() string { return "produits" }
