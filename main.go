package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/SAT-Duel/satduel/handlers"
	"github.com/SAT-Duel/satduel/middleware"
	"github.com/SAT-Duel/satduel/models"
	"github.com/SAT-Duel/satduel/services"
	"github.com/SAT-Duel/satduel/utils"
	"github.com/SAT-Duel/satduel/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		AppName: "satduel",
	})

	// 🔐 GLOBAL: only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Name, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Question{},
		&models.Profile{},
		&models.Room{},
		&models.TrackedQuestion{},
		&models.Ranking{},
		&models.LobbyGame{},
		&models.LobbyPlayer{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	profileService := services.NewProfileService(db)
	matchService := services.NewMatchService(db, profileService)
	questionBank := services.NewQuestionBank(db)
	practiceService := services.NewPracticeService(db, questionBank, profileService)
	lobbyService := services.NewLobbyService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Question batches are optional: the service runs fine on whatever is
	// already in the bank when no bucket is configured.
	if utils.R2Configured() {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		importWorker := workers.NewQuestionImportWorker(db)
		importWorker.Start(ctx)
	} else {
		log.Println("⚠️  R2 not configured, question import worker disabled")
	}

	services.StartMatchScheduler(matchService, profileService)

	handlers.SetupMatchRoutes(app, matchService)
	handlers.SetupQuestionRoutes(app, questionBank, practiceService)
	handlers.SetupProfileRoutes(app, profileService)
	handlers.SetupLobbyRoutes(app, lobbyService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Match scheduler running (expiry sweep every 30s, rankings every 10m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
