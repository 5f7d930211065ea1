package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YelzhanWeb/menuapp/internal/adapter/auth"
	"github.com/YelzhanWeb/menuapp/internal/adapter/console"
	"github.com/YelzhanWeb/menuapp/internal/adapter/inproc"
	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/adapter/memory"
	"github.com/YelzhanWeb/menuapp/internal/adapter/mongo"
	"github.com/YelzhanWeb/menuapp/internal/adapter/postgres"
	"github.com/YelzhanWeb/menuapp/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/menuapp/internal/app/catalog"
	"github.com/YelzhanWeb/menuapp/internal/app/connectivity"
	"github.com/YelzhanWeb/menuapp/internal/app/dashboard"
	"github.com/YelzhanWeb/menuapp/internal/app/mutation"
	"github.com/YelzhanWeb/menuapp/internal/app/order"
	"github.com/YelzhanWeb/menuapp/internal/app/payment"
	"github.com/YelzhanWeb/menuapp/internal/config"
	"github.com/YelzhanWeb/menuapp/internal/domain"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"

	httpAdapter "github.com/YelzhanWeb/menuapp/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Service mode: api, change-relay, dashboard-tail, migrate")
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	role := flag.String("role", "", "Dashboard role (for dashboard-tail)")
	userID := flag.String("user", "", "Acting user id (for dashboard-tail)")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize logger
	lgr := logger.New(*mode, cfg.Log.Level)

	// Route to appropriate service
	switch *mode {
	case "api":
		runAPI(ctx, cfg, lgr)

	case "change-relay":
		runChangeRelay(ctx, cfg, lgr)

	case "dashboard-tail":
		if *role == "" || *userID == "" {
			log.Fatal("--role and --user are required for dashboard-tail mode")
		}
		user, err := uuid.Parse(*userID)
		if err != nil {
			log.Fatalf("Invalid --user: %v", err)
		}
		runDashboardTail(ctx, cfg, lgr, domain.Role(*role), user)

	case "migrate":
		runMigrate(ctx, cfg, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func connectPostgres(ctx context.Context, cfg *config.Config, lgr logger.Logger) postgres.DB {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
	return db
}

func connectRabbitMQ(cfg *config.Config, lgr logger.Logger) rabbitmq.Connection {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})
	return mqConn
}

// changeFeed picks the notifier for a postgres backed process. With the inproc notifier the
// process runs its own LISTEN connection; the returned func stops whatever was started.
func changeFeed(cfg *config.Config, lgr logger.Logger) (interfaces.ChangeNotifier, func()) {
	if cfg.Realtime.Notifier == config.NotifierAMQP {
		mqConn := connectRabbitMQ(cfg, lgr)
		return rabbitmq.NewNotifier(mqConn, clock.WallClock, lgr), func() { mqConn.Close() }
	}

	hub := inproc.NewNotifier()
	listener := postgres.NewListener(postgres.ListenerConfig{
		ConnString: postgres.ConnString(cfg.Database),
		Publisher:  hub,
		Logger:     lgr,
		OnStatus:   hub.SetConnected,
	})
	return hub, func() {
		listener.Kill()
		if err := listener.Wait(); err != nil {
			lgr.Error("listener_stopped", "Change listener stopped with error", "shutdown", nil, err)
		}
	}
}

type backend struct {
	repos    interfaces.Store
	pinger   connectivity.Pinger
	notifier interfaces.ChangeNotifier
	close    func()
}

func openBackend(ctx context.Context, cfg *config.Config, lgr logger.Logger) backend {
	if cfg.Store == config.StoreMemory {
		hub := inproc.NewNotifier()
		store := memory.New(hub)
		lgr.Info("memory_store", "Using in-memory store with in-process change feed", "startup", nil)
		return backend{repos: store.Repositories(), pinger: store, notifier: hub, close: func() {}}
	}

	db := connectPostgres(ctx, cfg, lgr)
	notifier, stopFeed := changeFeed(cfg, lgr)
	return backend{
		repos:    postgres.NewStore(db),
		pinger:   db,
		notifier: notifier,
		close: func() {
			stopFeed()
			db.Close()
		},
	}
}

func openAudit(cfg *config.Config, lgr logger.Logger) (interfaces.AuditRecorder, interfaces.AuditReader, func()) {
	if cfg.Mongo.URI == "" {
		return mutation.NopRecorder{}, nil, func() {}
	}

	storage, err := mongo.New(cfg.Mongo, 10*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := storage.CreateIndexes(context.Background()); err != nil {
		lgr.Error("mongo_indexes_failed", "Failed to create audit indexes", "startup", nil, err)
	}
	lgr.Info("mongo_connected", "Connected to MongoDB audit store", "startup", map[string]interface{}{
		"db": cfg.Mongo.Database,
	})

	repo := mongo.NewAuditRepository(storage.Database())
	return repo, repo, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		storage.Close(ctx)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	be := openBackend(ctx, cfg, lgr)
	defer be.close()

	recorder, auditReader, closeAudit := openAudit(cfg, lgr)
	defer closeAudit()

	// Metrics
	registry := prometheus.NewRegistry()
	collector := dashboard.NewMetricsCollector()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collector,
	)

	// Initialize services
	authenticator := auth.ContextAuthenticator{}
	hub := dashboard.NewHub()
	reporter := mutation.NewReporter(authenticator, recorder, clock.WallClock, lgr)
	processor := payment.NewProcessor(be.repos.Sessions, be.repos.Restaurants, be.repos.Payments, lgr)
	catalogService := catalog.NewService(be.repos, reporter, lgr)
	orderService := order.NewService(be.repos, processor, hub, reporter, lgr)
	fetcher := dashboard.NewFetcher(authenticator, be.repos.Profiles, be.repos.Snapshots, clock.WallClock, lgr)

	// Initialize HTTP handlers
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Catalog: httpAdapter.NewCatalogHandler(catalogService, lgr),
		Orders:  httpAdapter.NewOrderHandler(orderService, lgr),
		Dashboards: httpAdapter.NewDashboardHandler(httpAdapter.DashboardConfig{
			Hub:      hub,
			Fetcher:  fetcher,
			Notifier: be.notifier,
			Pinger:   be.pinger,
			Realtime: cfg.Realtime,
			Clock:    clock.WallClock,
			Observer: collector,
			Logger:   lgr,
		}),
		Audit:   auditReader,
		Store:   be.pinger,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:  lgr,
	})

	// WriteTimeout stays zero: dashboard websockets are long lived.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("API started on port %d", cfg.HTTP.Port), "startup", map[string]interface{}{
		"port":     cfg.HTTP.Port,
		"store":    cfg.Store,
		"notifier": cfg.Realtime.Notifier,
	})

	// Graceful shutdown
	go func() {
		<-ctx.Done()

		lgr.Info("shutdown_initiated", "Shutting down API", "shutdown", nil)
		hub.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runChangeRelay(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	mqConn := connectRabbitMQ(cfg, lgr)
	defer mqConn.Close()

	listener := postgres.NewListener(postgres.ListenerConfig{
		ConnString: postgres.ConnString(cfg.Database),
		Publisher:  rabbitmq.NewPublisher(mqConn),
		Logger:     lgr,
		OnStatus: func(connected bool) {
			lgr.Info("relay_status", "Change relay connection state changed", "", map[string]interface{}{
				"connected": connected,
			})
		},
	})

	lgr.Info("service_started", "Change relay started", "startup", map[string]interface{}{
		"channel":  postgres.ChangeChannel,
		"exchange": rabbitmq.ChangesExchange,
	})

	// Wait for shutdown signal
	<-ctx.Done()

	lgr.Info("shutdown_initiated", "Shutting down change relay", "shutdown", nil)
	listener.Kill()
	if err := listener.Wait(); err != nil {
		lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
	}
}

func runDashboardTail(ctx context.Context, cfg *config.Config, lgr logger.Logger, role domain.Role, userID uuid.UUID) {
	if cfg.Store == config.StoreMemory {
		log.Fatal("dashboard-tail needs the postgres store")
	}
	be := openBackend(ctx, cfg, lgr)
	defer be.close()

	printer := console.NewSnapshotPrinter(os.Stdout, role, lgr)
	fetcher := dashboard.NewFetcher(auth.ContextAuthenticator{}, be.repos.Profiles, be.repos.Snapshots, clock.WallClock, lgr)

	d, err := dashboard.Mount(auth.WithUser(ctx, &domain.User{ID: userID}), dashboard.Config{
		Role:             role,
		Fetcher:          fetcher,
		Notifier:         be.notifier,
		DebounceWindow:   cfg.Realtime.DebounceWindow,
		Logger:           lgr,
		OnSnapshot:       printer.HandleSnapshot,
		OnRealtimeStatus: printer.HandleRealtimeStatus,
	})
	if err != nil {
		log.Fatalf("Failed to mount dashboard: %v", err)
	}

	lgr.Info("service_started", fmt.Sprintf("Tailing %s dashboard", role), "startup", map[string]interface{}{
		"user_id": userID.String(),
	})

	// Wait for shutdown signal
	<-ctx.Done()

	lgr.Info("shutdown_initiated", "Shutting down dashboard tail", "shutdown", nil)
	d.Close()
}

func runMigrate(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	db := connectPostgres(ctx, cfg, lgr)
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}
	lgr.Info("migrated", "Schema is up to date", "startup", nil)
}
