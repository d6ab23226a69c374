package routes

import (
	"io"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/example/stocki/internal/handlers"
	"github.com/example/stocki/internal/middleware"
	"github.com/example/stocki/internal/services"
	"github.com/example/stocki/internal/utils"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	DB          *gorm.DB
	Logger      *slog.Logger
	Auth        *services.AuthService
	Ledger      *services.LedgerService
	Sessions    *utils.SessionIssuer
	Limiter     middleware.Allower
	Contact     handlers.ContactForwarder
	CORSOrigins string
	AccessLog   io.Writer
}

// NewApp builds the Fiber application with middleware and all routes.
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Stocki Backend",
		ErrorHandler: ErrorHandler(deps.Logger),
	})

	accessLog := deps.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{Output: accessLog}))
	app.Use(middleware.CorsMiddleware(deps.CORSOrigins))
	app.Use(middleware.Metrics())

	app.Get("/health", health(deps.DB))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	Register(app, deps)
	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Auth)
	ledgerHandler := handlers.NewLedgerHandler(deps.Ledger)
	catalogHandler := handlers.NewCatalogHandler(deps.DB)
	profileHandler := handlers.NewProfileHandler(deps.Auth)
	contactHandler := handlers.NewContactHandler(deps.DB, deps.Contact, deps.Logger)

	limit := func(route string) fiber.Handler {
		return middleware.RateLimit(deps.Limiter, route, deps.Logger)
	}

	api := app.Group("/api")

	// Auth routes
	api.Post("/register", authHandler.Register)
	api.Post("/login", limit("login"), authHandler.Login)
	api.Post("/verify-account", limit("verify-account"), authHandler.VerifyAccount)
	api.Post("/verify-login", limit("verify-login"), authHandler.VerifyLogin)
	api.Post("/resend-verification", authHandler.ResendVerification)
	api.Post("/resend-2fa", authHandler.Resend2FA)

	api.Post("/contact", contactHandler.Submit)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(deps.Sessions))

	protected.Get("/profile", profileHandler.GetProfile)

	protected.Get("/mouvements", ledgerHandler.ListMovements)
	protected.Post("/mouvements", ledgerHandler.CreateMovement)
	protected.Get("/stock", ledgerHandler.ListStock)
	protected.Get("/stock/verify", ledgerHandler.VerifyStock)
	protected.Get("/ventes", ledgerHandler.ListVentes)
	protected.Get("/dashboard", ledgerHandler.Dashboard)

	protected.Get("/magasins", catalogHandler.ListMagasins)
	protected.Post("/magasins", catalogHandler.CreateMagasin)
	protected.Get("/magasins/:id", catalogHandler.GetMagasin)
	protected.Put("/magasins/:id", catalogHandler.UpdateMagasin)
	protected.Delete("/magasins/:id", catalogHandler.DeleteMagasin)

	protected.Get("/categories", catalogHandler.ListCategories)
	protected.Post("/categories", catalogHandler.CreateCategory)
	protected.Get("/categories/:id", catalogHandler.GetCategory)
	protected.Put("/categories/:id", catalogHandler.UpdateCategory)
	protected.Delete("/categories/:id", catalogHandler.DeleteCategory)

	protected.Get("/produits", catalogHandler.ListProduits)
	protected.Post("/produits", catalogHandler.CreateProduit)
	protected.Get("/produits/:id", catalogHandler.GetProduit)
	protected.Put("/produits/:id", catalogHandler.UpdateProduit)
	protected.Delete("/produits/:id", catalogHandler.DeleteProduit)
}

func health(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
