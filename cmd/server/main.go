package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/casamorales/restaurant-backend/internal/config"
	"github.com/casamorales/restaurant-backend/internal/es"
	"github.com/casamorales/restaurant-backend/internal/handlers"
	"github.com/casamorales/restaurant-backend/internal/logging"
	"github.com/casamorales/restaurant-backend/internal/mykafka"
	"github.com/casamorales/restaurant-backend/internal/orders"
	"github.com/casamorales/restaurant-backend/internal/session"
	httpserver "github.com/casamorales/restaurant-backend/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	if err := config.SeedRoles(db); err != nil {
		log.Fatalf("seed roles failed: %v", err)
	}
	if err := config.SeedAdmin(db); err != nil {
		log.Fatalf("seed admin failed: %v", err)
	}

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	sessions := &session.Manager{DB: db, Secure: configuration.IsProduction()}
	engine := &orders.Engine{DB: db, Strict: configuration.STRICT_ORDER_FLOW}
	jwtSecret := []byte(configuration.JWT_SECRET)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), logging.Middleware(logger))

	deps := httpserver.Deps{
		DB:               db,
		Sessions:         sessions,
		JWTSecret:        jwtSecret,
		AuthHandler:      &handlers.AuthHandler{DB: db, Sessions: sessions, JWTSecret: jwtSecret, Producer: prod},
		MenuHandler:      &handlers.MenuHandler{DB: db, Producer: prod, ES: esClient},
		CategoryHandler:  &handlers.CategoryHandler{DB: db},
		StaffHandler:     &handlers.StaffHandler{DB: db},
		TableHandler:     &handlers.TableHandler{DB: db},
		OrderHandler:     &handlers.OrderHandler{DB: db, Engine: engine, Producer: prod},
		AnalyticsHandler: &handlers.AnalyticsHandler{DB: db},
		UserHandler:      &handlers.UserHandler{DB: db},
	}

	httpserver.Register(e, &deps)

	// expired sessions are swept in the background
	pruneDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sessions.PruneExpired(); err != nil {
					logger.Error("session prune failed", "error", err)
				}
			case <-pruneDone:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
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
	close(pruneDone)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
