package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	api "github.com/mind-engage/mindengage-psy/internal/api/http"
	"github.com/mind-engage/mindengage-psy/internal/auth"
	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/cleanup"
	"github.com/mind-engage/mindengage-psy/internal/config"
	"github.com/mind-engage/mindengage-psy/internal/db"
	"github.com/mind-engage/mindengage-psy/internal/formats"
	"github.com/mind-engage/mindengage-psy/internal/ingest"
	"github.com/mind-engage/mindengage-psy/internal/rbac"
	"github.com/mind-engage/mindengage-psy/internal/scoring"
	"github.com/mind-engage/mindengage-psy/internal/session"
	"github.com/mind-engage/mindengage-psy/internal/storage"
	syncx "github.com/mind-engage/mindengage-psy/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := run(cfg); err != nil {
		slog.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// --- DB (items + event log) ---
	var dbh *sql.DB
	if cfg.DBDriver != "none" {
		var err error
		dbh, err = db.Open(initCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer dbh.Close()
	}

	// --- Item store ---
	var itemStore bank.Store
	switch cfg.ItemStore {
	case "sql":
		itemStore = bank.NewSQLStore(dbh)
	case "mongo":
		client, err := mongo.Connect(initCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := client.Ping(initCtx, nil); err != nil {
			return fmt.Errorf("mongo ping: %w", err)
		}
		itemStore = bank.NewMongoStore(client.Database(cfg.MongoDB))
	}

	// --- Bank ---
	b, err := newBank(initCtx, cfg, itemStore)
	if err != nil {
		return err
	}

	// --- Results ---
	results, closeResults, err := newResultStore(initCtx, cfg)
	if err != nil {
		return err
	}
	defer closeResults()

	eng, err := scoring.NewEngine(scoring.WithAlpha(cfg.Alpha))
	if err != nil {
		return err
	}
	opts := []session.Option{
		session.WithResultStore(results),
		session.WithDefaultTarget(cfg.DefaultTarget),
	}
	var events *syncx.EventRepo
	if dbh != nil {
		events = syncx.NewEventRepo(dbh)
		opts = append(opts, session.WithEventSink(events))
	}
	mgr := session.NewManager(b, eng, opts...)

	// --- Background workers ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanup.NewCleaner(mgr, cfg.SessionIdleTTL, cfg.CleanupInterval).Start(ctx)
	if cfg.InboxDir != "" {
		if err := ingest.NewInbox(cfg.InboxDir, b).Start(ctx); err != nil {
			return fmt.Errorf("inbox: %w", err)
		}
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	acc := access{}
	if cfg.AuthSecret != "" {
		acc.svc = auth.NewService(cfg.AuthSecret, cfg.TokenTTL)
	} else {
		slog.Warn("AUTH_JWT_SECRET not set; admin and bank authoring routes are open")
	}

	r.Route("/sessions", func(sr chi.Router) { api.MountSessions(sr, mgr) })
	r.Route("/bank", func(br chi.Router) {
		api.MountBank(br, b, cfg.EnableBankWrites, api.BankGuards{
			Read:  acc.need(rbac.PermBankRead),
			Write: acc.need(rbac.PermBankWrite),
		})
	})
	r.Get("/domains", api.ListDomainsHandler(b))
	mountAdminRoutes(r, acc, mgr, b, events)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if dbh != nil {
			if err := dbh.PingContext(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver,
			"item_store", cfg.ItemStore, "result_store", cfg.ResultStore, "items", b.Snapshot().Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	slog.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// newBank loads domain config, then items from the store, then seeds from
// BANK_FILE when the store had nothing.
func newBank(ctx context.Context, cfg config.Config, store bank.Store) (*bank.Bank, error) {
	var domains []bank.Domain
	if cfg.DomainsFile != "" {
		df, err := formats.ReadFile(cfg.DomainsFile)
		if err != nil {
			return nil, fmt.Errorf("domains file: %w", err)
		}
		domains = df.Domains
	}

	var opts []bank.Option
	if store != nil {
		opts = append(opts, bank.WithStore(store))
	}
	b, err := bank.New(domains, opts...)
	if err != nil {
		return nil, err
	}

	n, err := b.LoadFrom(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("item bank loaded", "items", n, "domains", len(domains))

	if n == 0 && cfg.BankFile != "" {
		bf, err := formats.ReadFile(cfg.BankFile)
		if err != nil {
			return nil, fmt.Errorf("bank file: %w", err)
		}
		items, err := bf.ItemList()
		if err != nil {
			return nil, fmt.Errorf("bank file: %w", err)
		}
		if err := b.Add(ctx, items...); err != nil {
			return nil, fmt.Errorf("seed bank: %w", err)
		}
		slog.Info("item bank seeded", "file", cfg.BankFile, "items", len(items))
	}
	return b, nil
}

func newResultStore(ctx context.Context, cfg config.Config) (session.ResultStore, func(), error) {
	switch cfg.ResultStore {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return session.NewRedisResultStore(rdb, cfg.ResultTTL), func() { _ = rdb.Close() }, nil
	case "fs":
		bs, err := storage.NewFSStore(cfg.BlobBasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("blob store: %w", err)
		}
		return session.NewBlobResultStore(bs), func() {}, nil
	default:
		return session.NewMemoryResultStore(), func() {}, nil
	}
}
