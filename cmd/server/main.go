package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mailworks/mailadmin/internal/config"
	"github.com/mailworks/mailadmin/internal/events"
	"github.com/mailworks/mailadmin/internal/httpserver"
	"github.com/mailworks/mailadmin/internal/repo"
	"github.com/mailworks/mailadmin/internal/search"
	"github.com/mailworks/mailadmin/internal/service"
	"github.com/mailworks/mailadmin/pkg/logging"
	loggingmw "github.com/mailworks/mailadmin/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	gormRepo := &repo.GormRepo{
		DB:            db,
		JWTSecret:     cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
	}

	var producer events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.EmailTopic)
	}

	var indexer search.EmailIndexer
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer = &search.ESIndex{Client: esClient, IndexName: cfg.EmailIndex}
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := &httpserver.Deps{
		AuthHandler:         &httpserver.AuthHTTP{Svc: &service.AuthService{Repo: gormRepo}},
		UsersHandler:        &httpserver.UsersHTTP{Svc: &service.UserService{Repo: gormRepo}},
		ApplicationsHandler: &httpserver.ApplicationsHTTP{Svc: &service.ApplicationService{Repo: gormRepo}},
		EmailsHandler: &httpserver.EmailsHTTP{Svc: &service.EmailService{
			Repo:     gormRepo,
			Producer: producer,
			Indexer:  indexer,
		}},
		DashboardHandler: &httpserver.DashboardHTTP{Svc: &service.DashboardService{Repo: gormRepo}},
		JWTSecret:        cfg.JWTSecret,
	}

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
