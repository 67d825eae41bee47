package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/backend"
	"github.com/devlinkhq/client-gateway/internal/config"
	"github.com/devlinkhq/client-gateway/internal/handler"
	"github.com/devlinkhq/client-gateway/internal/localstore"
	"github.com/devlinkhq/client-gateway/internal/middleware"
	"github.com/devlinkhq/client-gateway/internal/offer"
	"github.com/devlinkhq/client-gateway/internal/payment"
	"github.com/devlinkhq/client-gateway/internal/realtime"
	"github.com/devlinkhq/client-gateway/internal/service"
	"github.com/devlinkhq/client-gateway/internal/store"
	"github.com/devlinkhq/client-gateway/pkg/logger"
	"github.com/devlinkhq/client-gateway/pkg/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg := config.Load(configPath)

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting client gateway")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "devlink-client-gateway", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Durable local storage: session, preferences, pending orders.
	local, err := localstore.Open(cfg.DataDir)
	if err != nil {
		log.Error("failed to open local storage", zap.Error(err))
		return err
	}
	defer local.Close()

	// Backend REST client; the bearer token is read from local storage per
	// request so sign-in/out takes effect immediately. A rejected session
	// token clears the persisted session so the shell lands on login.
	backendClient := backend.NewClient(cfg.BackendURL, local.Token,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithUnauthorizedHook(func() {
			if err := local.ClearSession(); err != nil {
				log.Warn("failed to clear expired session", zap.Error(err))
			}
		}))

	// Realtime push. A connection failure degrades to polling-only: the
	// periodic history fetch stays authoritative.
	realtimeClient, err := realtime.Connect(realtime.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Warn("realtime unavailable, continuing with polling only", zap.Error(err))
	}
	defer realtimeClient.Close()

	adapter := realtime.NewAdapter(realtimeClient, log)
	defer adapter.Close()

	// Core state and services.
	conversationStore := store.New(backendClient, log)
	if sess, err := local.Session(); err == nil {
		conversationStore.SetUser(sess.UserID)
	}

	messenger := service.NewMessenger(conversationStore, backendClient, log)
	handoff := payment.NewHandoff(backendClient, local, log, cfg.SuccessURL, cfg.CancelURL)
	controller := offer.NewController(handoff, messenger, log)

	// Handlers.
	healthHandler := handler.NewHealthHandler(realtimeClient, local)
	authHandler := handler.NewAuthHandler(backendClient, local, conversationStore, log)
	conversationHandler := handler.NewConversationHandler(conversationStore, backendClient, log)
	messageHandler := handler.NewMessageHandler(conversationStore, messenger, adapter, controller, log)
	offerHandler := handler.NewOfferHandler(conversationStore, backendClient, messenger, controller, log)
	orderHandler := handler.NewOrderHandler(backendClient, log)
	checkoutHandler := handler.NewCheckoutHandler(handoff, controller, messenger, log)
	profileHandler := handler.NewProfileHandler(backendClient, log)
	miscHandler := handler.NewMiscHandler(backendClient, local, log, cfg.SuccessURL, cfg.CancelURL)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Unauthenticated: sign-in flows and the payment provider's return
		// redirects (full-page redirects carry no bearer header).
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/verify", authHandler.Verify)
		r.Get("/checkout/success", checkoutHandler.Success)
		r.Get("/checkout/cancel", checkoutHandler.Cancel)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))

			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/developers", profileHandler.Developers)
			r.Get("/profile/{userId}", profileHandler.Get)
			r.Put("/profile", profileHandler.Update)

			r.Get("/conversations", conversationHandler.List)
			r.Delete("/conversations/{id}", conversationHandler.Delete)
			r.Route("/conversations/with/{peerId}", func(r chi.Router) {
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)
				r.Get("/stream", messageHandler.Stream)
			})

			r.Post("/offers", offerHandler.Create)
			r.Post("/offers/{id}/accept", offerHandler.Accept)
			r.Post("/offers/{id}/withdraw", offerHandler.Withdraw)

			r.Get("/orders", orderHandler.List)
			r.Get("/orders/{id}", orderHandler.Get)
			r.Post("/orders/{id}/status", orderHandler.UpdateStatus)
			r.Post("/orders/{id}/feedback", orderHandler.Feedback)

			r.Get("/subscription", miscHandler.Subscription)
			r.Post("/subscription/checkout", miscHandler.SubscriptionCheckout)
			r.Post("/complaints", miscHandler.Complaint)
			r.Get("/rooms/{roomId}/token", miscHandler.RoomToken)

			r.Get("/preferences/dark-mode", miscHandler.GetDarkMode)
			r.Put("/preferences/dark-mode", miscHandler.SetDarkMode)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("gateway listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("gateway stopped")
	return nil
}
