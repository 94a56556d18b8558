package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/ompro/ompro_end/config"
	"github.com/ompro/ompro_end/controllers"
	"github.com/ompro/ompro_end/middleware"
	"github.com/ompro/ompro_end/repository"
	"github.com/ompro/ompro_end/routes"
	"github.com/ompro/ompro_end/service"
	"github.com/ompro/ompro_end/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	utils.InitLogger(cfg.Debug)

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := repository.Connect(ctx, repository.Options{
		URI:          cfg.MongoURI,
		Database:     cfg.MongoDB,
		Tasks:        cfg.TasksCollection,
		Transactions: cfg.MongoTransactions,
	})
	if err != nil {
		utils.Logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}

	utils.Logger.Info().Msg("initialising collections...")
	if err := db.InitializeCollections(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("failed to initialise collections")
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("failed to create indexes")
	}

	taskRepo := repository.NewTaskRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	userRepo := repository.NewUserRepository(db)
	tokens := utils.NewTokenIssuer(cfg.JWTKey, cfg.JWTTTL)
	loc := cfg.Location()

	users := service.NewUserService(userRepo, tokens, cfg.LoginEmailDomain)
	if err := users.EnsureManager(ctx, cfg.SeedManagerEmail, cfg.SeedManagerPassword); err != nil {
		utils.Logger.Error().Err(err).Msg("failed to create the initial manager account")
	}

	hub := service.NewSyncHub(repository.NewTaskChangeFeed(db), taskRepo)

	handler := &controllers.Handler{
		Users:          users,
		Tasks:          service.NewTaskService(taskRepo, groupRepo),
		Groups:         service.NewGroupService(groupRepo, taskRepo),
		Stats:          service.NewStatsService(taskRepo, groupRepo),
		Importer:       service.NewTaskImporter(taskRepo, groupRepo, cfg.ImportBatchSize),
		Hub:            hub,
		DB:             db,
		Location:       loc,
		MaxUploadBytes: cfg.ImportMaxUploadMB << 20,
	}

	if cfg.SheetsEnabled() {
		srv, err := service.NewSheetsService(ctx, cfg.SheetsCredentialsFile)
		if err != nil {
			utils.Logger.Error().Err(err).Msg("Google Sheets export disabled")
		} else {
			handler.Publisher = service.NewSheetsExporter(srv, cfg.SheetsSpreadsheetID, cfg.SheetsSheetName, loc)
		}
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.OperationLoggerMiddleware(repository.NewOperationLogRepository(db)))

	routes.RegisterRoutes(router, handler, tokens)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 60 * time.Second,
		// live task streams stay open indefinitely
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		utils.Logger.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Logger.Info().Msg("shutting down...")

	// closing the feeds ends open event streams so Shutdown can drain
	hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.Error().Err(err).Msg("server shutdown failed")
	}
	db.Close(shutdownCtx)

	utils.Logger.Info().Msg("server stopped")
}
