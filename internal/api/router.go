package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mdappsolutions/bellasjob-api/internal/api/handlers"
	"github.com/mdappsolutions/bellasjob-api/internal/api/httpx"
	"github.com/mdappsolutions/bellasjob-api/internal/metrics"
	"github.com/mdappsolutions/bellasjob-api/internal/middleware"
)

const rootBanner = "✅ BellasJob API está rodando!"

type RouterDeps struct {
	RateRPS       int
	Notifications handlers.NotificationProcessor
	Accounts      handlers.SetupCompleter
	Log           *slog.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	webhook := handlers.NewWebhookHandler(d.Notifications, d.Log)
	account := handlers.NewAccountHandler(d.Accounts, d.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool { return true },
		AllowedMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:  []string{"*"},
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteText(w, http.StatusOK, rootBanner)
	})

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Post("/pagseguro-webhook", webhook.PagSeguro)
	r.Post("/account/setup", account.Setup)

	return r
}
