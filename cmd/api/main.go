package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swap-market/internal/config"
	"swap-market/internal/delivery/http/middleware"
	"swap-market/internal/delivery/http/route"
	mongorepo "swap-market/internal/repository/mongodb"
	repo "swap-market/internal/repository/postgresql"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// @title                      Swap Market API
// @version                    1.0
// @description                Negotiation of item-for-item swap offers with cash balancing.
// @BasePath                   /api
// @securityDefinitions.apikey ApiKeyAuth
// @in                         header
// @name                       Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := sqlx.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if cfg.DBMigrate {
		if err := repo.Migrate(ctx, db); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	// Mongo
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	mongoDB := mongoClient.Database(cfg.MongoDatabase)
	if err := mongorepo.EnsureIndexes(ctx, mongoDB); err != nil {
		logger.Warn("mongo indexes", zap.Error(err))
	}

	// HTTP
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	app := gin.New()
	app.Use(middleware.Recovery(logger), middleware.RequestLogger(logger.Named("http")))
	route.SetupRoute(app, db, mongoDB, cfg, logger)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("db_driver", cfg.DBDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Development() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
