package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"novalib/internal/catalog"
	"novalib/internal/config"
	"novalib/internal/httpx"
	"novalib/internal/lending"
	"novalib/internal/search"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg := config.Load()

	dbPool := mustOpenDB(cfg.DBDSN)
	defer dbPool.Close()

	catalogRepo := catalog.NewPostgresRepo(dbPool)
	catalogService := catalog.NewService(catalogRepo, cfg.SearchDefaultLimit, cfg.SearchMaxLimit)
	coverStore := catalog.NewCoverStore(cfg.UploadDir)
	catalogHandler := catalog.NewHTTPHandler(catalogService, coverStore)

	lendingRepo := lending.NewPostgresRepo(dbPool)
	lendingService := lending.NewService(lendingRepo, cfg.PenaltyBaseRate, cfg.LoanDurationDays)
	lendingHandler := lending.NewHTTPHandler(lendingService, catalogService)

	searchHandler := search.NewHTTPHandler(catalogService, cfg.SearchMaxLimit, cfg.PublicBaseURL)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("GET /api/search", searchHandler.Search)

	router.HandleFunc("GET /api/books", catalogHandler.List)
	router.HandleFunc("POST /api/books", catalogHandler.Create)
	router.HandleFunc("GET /api/books/available", catalogHandler.ListAvailable)
	router.HandleFunc("GET /api/books/popular", catalogHandler.ListPopular)
	router.HandleFunc("GET /api/books/{id}", catalogHandler.Get)
	router.HandleFunc("PUT /api/books/{id}", catalogHandler.Update)
	router.HandleFunc("DELETE /api/books/{id}", catalogHandler.Delete)
	router.HandleFunc("POST /api/books/{id}/cover", catalogHandler.UploadCover)
	router.HandleFunc("GET /api/categories", catalogHandler.ListCategories)
	router.HandleFunc("GET /api/categories/{id}/books", catalogHandler.ListByCategory)

	router.HandleFunc("GET /api/loans", lendingHandler.List)
	router.HandleFunc("POST /api/loans", lendingHandler.Create)
	router.HandleFunc("GET /api/loans/active", lendingHandler.ListActive)
	router.HandleFunc("GET /api/loans/overdue", lendingHandler.ListOverdue)
	router.HandleFunc("GET /api/loans/recent", lendingHandler.ListRecent)
	router.HandleFunc("POST /api/loans/{id}/return", lendingHandler.Return)
	router.HandleFunc("GET /api/users/{id}/loans", lendingHandler.ListByUser)
	router.HandleFunc("GET /api/users/{id}/loans/active", lendingHandler.ListActiveByUser)
	router.HandleFunc("GET /api/users/{id}/penalty", lendingHandler.TotalPenalty)
	router.HandleFunc("GET /api/users/{id}/stats", lendingHandler.MemberStats)

	router.HandleFunc("GET /api/stats", lendingHandler.DashboardStats)

	// Covers and the search UI.
	router.Handle("GET /public/", http.StripPrefix("/public/", http.FileServer(http.Dir("public"))))
	router.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))

	rateLimiter := httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	handler := httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware,
		httpx.CORSMiddleware(cfg.CORSAllowedOrigins),
		httpx.RequestSizeLimitMiddleware(catalog.MaxCoverSize+1<<20),
		rateLimiter.Middleware,
	)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func mustOpenDB(dsn string) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("cannot create db pool: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatalf("cannot ping database (%s): %v", redactDSN(dsn), err)
	}
	log.Println("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
