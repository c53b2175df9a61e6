// Package main provides the guilde daemon: it runs the idle-game
// simulation engine and serves the local UI over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/EvannNalewajek/guilde/internal/config"
	"github.com/EvannNalewajek/guilde/internal/game/catalogue"
	"github.com/EvannNalewajek/guilde/internal/game/engine"
	"github.com/EvannNalewajek/guilde/internal/game/facade"
	"github.com/EvannNalewajek/guilde/internal/game/rng"
	"github.com/EvannNalewajek/guilde/internal/game/state"
	"github.com/EvannNalewajek/guilde/internal/observability"
	"github.com/EvannNalewajek/guilde/internal/persistence"
	"github.com/EvannNalewajek/guilde/internal/server"
	"github.com/EvannNalewajek/guilde/internal/storage/sqlite"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = built-in defaults")
	flag.Parse()

	ctx := context.Background()

	var cfg config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Catalogue
	cat := catalogue.Default()
	if cfg.Content.Dir != "" {
		cat, err = catalogue.Load(cfg.Content.Dir)
		if err != nil {
			logger.Fatal("loading catalogue", zap.Error(err))
		}
	}
	logger.Info("catalogue ready",
		zap.Int("enemies", cat.EnemyCount()),
		zap.Int("missions", len(cat.Missions())),
	)

	// Storage
	dbStart := time.Now()
	blobs, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		logger.Fatal("opening save store", zap.Error(err))
	}
	defer blobs.Close()
	logger.Info("save store opened",
		zap.String("path", cfg.Storage.Path),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	// Simulation
	store := state.NewStore()
	saves := persistence.NewManager(store, blobs, cfg.Storage.Key, time.Now, logger)
	src := rng.NewLoggedSource(rng.NewCryptoSource(), logger)
	game := facade.New(store, cat, saves, src, time.Now, logger)
	if game.Load() {
		logger.Info("resumed saved game")
	} else {
		logger.Info("starting fresh game")
	}

	loop := engine.New(game, cfg.Engine, time.Now, logger)

	lc := server.NewLifecycle(logger)
	lc.Add("engine", &server.FuncService{
		StartFn: func() error { loop.Start(); return nil },
		StopFn:  loop.Stop,
	})

	if cfg.Server.Enabled {
		srv := server.New(game, loop, logger)
		httpSrv := &http.Server{
			Addr:    cfg.Server.Addr(),
			Handler: srv.Router(),
		}
		lc.Add("http", &server.FuncService{
			StartFn: func() error {
				logger.Info("http listening", zap.String("addr", cfg.Server.Addr()))
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			},
			StopFn: func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			},
		})
	}

	logger.Info("guilded ready", zap.Duration("startup", time.Since(start)))
	if err := lc.Run(ctx); err != nil {
		logger.Fatal("lifecycle failed", zap.Error(err))
	}
}
