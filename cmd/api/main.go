package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/joao-fontenele/mercado-api/internal/accounts"
	"github.com/joao-fontenele/mercado-api/internal/auth"
	"github.com/joao-fontenele/mercado-api/internal/carts"
	"github.com/joao-fontenele/mercado-api/internal/config"
	"github.com/joao-fontenele/mercado-api/internal/messaging"
	"github.com/joao-fontenele/mercado-api/internal/orders"
	"github.com/joao-fontenele/mercado-api/internal/products"
	"github.com/joao-fontenele/mercado-api/internal/telemetry"
)

const (
	serviceName    = "mercado-api"
	serviceVersion = "0.1.0"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(true)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB(cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var publisher orders.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrderCreated)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	var productCache products.Cache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, product reads will hit the database", "error", err)
		}
		productCache = products.NewRedisCache(client)
	}

	tokens := auth.NewTokens(cfg.JWTSecret)
	authHandler := auth.NewHandler(auth.NewCredentialsRepository(db), tokens, logger)
	accountHandler := accounts.NewHandler(accounts.NewStoreRepository(db), accounts.NewSupplierRepository(db), productCache, logger)
	productHandler := products.NewHandler(products.NewProductRepository(db), productCache, logger)
	cartRepo := carts.NewCartRepository(db)
	cartHandler := carts.NewHandler(cartRepo, logger)

	orderHandler, err := orders.NewHandler(orders.NewOrderRepository(db), publisher, cartRepo, logger)
	if err != nil {
		logger.Error("failed to create orders handler", "error", err)
		os.Exit(1)
	}

	route := telemetry.WithHTTPRoute
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return route(auth.Authenticate(tokens, logger, h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/iniciar-sesion", route(authHandler.HandleLogin))

	mux.HandleFunc("POST /negocios", route(accountHandler.HandleCreateStore))
	mux.HandleFunc("GET /negocios", route(accountHandler.HandleListStores))
	mux.HandleFunc("GET /negocios/{id}", route(accountHandler.HandleGetStore))
	mux.HandleFunc("PUT /negocios/{id}", protected(accountHandler.HandleUpdateStore))
	mux.HandleFunc("DELETE /negocios/{id}", protected(accountHandler.HandleDeleteStore))

	mux.HandleFunc("POST /empresas", route(accountHandler.HandleCreateSupplier))
	mux.HandleFunc("GET /empresas", route(accountHandler.HandleListSuppliers))
	mux.HandleFunc("GET /empresas/{id}", route(accountHandler.HandleGetSupplier))
	mux.HandleFunc("PUT /empresas/{id}", protected(accountHandler.HandleUpdateSupplier))
	mux.HandleFunc("DELETE /empresas/{id}", protected(accountHandler.HandleDeleteSupplier))

	mux.HandleFunc("POST /productos", protected(productHandler.HandleCreate))
	mux.HandleFunc("GET /productos", route(productHandler.HandleList))
	mux.HandleFunc("GET /productos/{id}", route(productHandler.HandleGet))
	mux.HandleFunc("PUT /productos/{id}", protected(productHandler.HandleUpdate))
	mux.HandleFunc("DELETE /productos/{id}", protected(productHandler.HandleDelete))

	mux.HandleFunc("POST /carritos/add", protected(cartHandler.HandleAdd))
	mux.HandleFunc("GET /carritos/{id_usuario}", protected(cartHandler.HandleGet))
	mux.HandleFunc("POST /carritos/vaciar", protected(cartHandler.HandleClear))
	mux.HandleFunc("POST /carritos/actualizar", protected(cartHandler.HandleUpdateQuantity))

	mux.HandleFunc("POST /pedidos/nuevo", protected(orderHandler.HandleCreate))
	mux.HandleFunc("GET /pedidos/{id_negocio}", protected(orderHandler.HandleListByActor))

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      telemetry.InstrumentHandler(telemetry.RequestLogger(logger, corsHandler.Handler(mux)), serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
