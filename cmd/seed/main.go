package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/stocki/internal/config"
	"github.com/example/stocki/internal/database"
	"github.com/example/stocki/internal/logger"
	"github.com/example/stocki/internal/models"
	"github.com/example/stocki/internal/repository"
	"github.com/example/stocki/internal/services"
	"github.com/example/stocki/internal/utils"
)

const (
	demoEmail    = "demo@stocki.com"
	demoPassword = "password123"
	seedDays     = 7
)

func main() {
	cfg := config.Load()
	appLogger := logger.New(cfg.LogLevel, cfg.AppEnv)

	db, err := database.Connect(cfg, appLogger)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	ctx := context.Background()

	user, err := demoUser(ctx, db)
	if err != nil {
		log.Fatalf("demo user: %v", err)
	}

	magasin := models.Magasin{UserID: user.ID, Nom: "Magasin Principal", Code: "MAG01", Type: "Principal", Adresse: "Tunis"}
	if err := db.WithContext(ctx).Where(models.Magasin{UserID: user.ID, Code: magasin.Code}).FirstOrCreate(&magasin).Error; err != nil {
		log.Fatalf("magasin: %v", err)
	}
	categorie := models.Categorie{UserID: user.ID, Name: "Électronique", Code: "ELEC", Description: "Appareils électroniques"}
	if err := db.WithContext(ctx).Where(models.Categorie{UserID: user.ID, Code: categorie.Code}).FirstOrCreate(&categorie).Error; err != nil {
		log.Fatalf("categorie: %v", err)
	}
	produit := models.Produit{UserID: user.ID, Nom: "Smartphone Demo", Code: "P001", Type: "Vente", Prix: decimal.NewFromInt(1200), Adresse: "Etagère A"}
	if err := db.WithContext(ctx).Where(models.Produit{UserID: user.ID, Code: produit.Code}).FirstOrCreate(&produit).Error; err != nil {
		log.Fatalf("produit: %v", err)
	}

	ledger := services.NewLedgerService(repository.NewLedgerRepository(db), appLogger)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	today := time.Now().UTC()
	price := decimal.NewFromInt(120)

	recorded := 0
	for i := seedDays; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		movements := []services.MovementInput{
			{Type: models.MovementEntree, Quantite: int64(rng.Intn(10) + 5)},
			{Type: models.MovementSortie, Quantite: int64(rng.Intn(5) + 1)},
		}
		for _, in := range movements {
			in.ProduitID = produit.ID
			in.MagasinID = magasin.ID
			in.CategorieID = categorie.ID
			in.PrixUnitaire = price
			in.DateMouvement = day
			in.Motif = "Données de démonstration"
			if _, err := ledger.RecordMovement(ctx, user.ID, in); err != nil {
				log.Fatalf("record movement: %v", err)
			}
			recorded++
		}
	}

	appLogger.Info("seed complete",
		slog.String("email", demoEmail),
		slog.Int("movements", recorded),
	)
}

// demoUser returns the verified demo account, creating it on first run.
func demoUser(ctx context.Context, db *gorm.DB) (*models.User, error) {
	users := repository.NewUserRepository(db)
	user, err := users.FindByEmail(ctx, demoEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}
	user = &models.User{
		Name:         "Demo User",
		Email:        demoEmail,
		PasswordHash: hash,
		IsVerified:   true,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
