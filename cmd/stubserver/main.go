// Command stubserver runs the local storefront backend the client stack
// targets: products, search, cart and auth, backed by memory or sqlite.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"example.com/storefront/internal/infra/config"
	"example.com/storefront/internal/stub"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var store stub.Store
	if cfg.StubDBPath != "" {
		sqlite, err := stub.OpenSQLite(cfg.StubDBPath)
		if err != nil {
			log.Error("open sqlite store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer sqlite.Close()
		store = sqlite
		log.Info("using sqlite store", slog.String("path", cfg.StubDBPath))
	} else {
		store = stub.NewMemoryStore()
		log.Info("using in-memory store")
	}

	products, err := store.ListProducts(context.Background())
	if err != nil {
		log.Error("read catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(products) == 0 {
		if err := store.SeedProducts(context.Background(), stub.DefaultCatalog()); err != nil {
			log.Error("seed catalog", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("seeded default catalog")
	}

	srv := stub.NewServer(store, stub.NewTokenService(cfg.StubJWTSecret, 0), log)
	log.Info("stub backend listening", slog.String("addr", cfg.StubAddr))
	if err := http.ListenAndServe(cfg.StubAddr, srv.Router()); err != nil {
		log.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
