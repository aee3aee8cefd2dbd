package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-system/internal/backend"
	"pos-system/internal/cache"
	"pos-system/internal/config"
	"pos-system/internal/domain"
	"pos-system/internal/lifecycle"
	"pos-system/internal/logger"
	"pos-system/internal/notify"
	"pos-system/internal/offline"
	"pos-system/internal/server"
	"pos-system/internal/state"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	log := logger.New("pos-terminal")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis is preferred for the local store; without it the terminal still
	// runs, it just loses offline state across restarts.
	var store cache.Store
	redis, err := cache.NewRedis(ctx, cfg.RedisURL, time.Duration(cfg.CacheTTL)*time.Second)
	if err != nil {
		log.Error("redis_unavailable", err, map[string]any{"fallback": "in-memory"})
		store = cache.NewMemory()
	} else {
		defer redis.Close()
		store = redis
	}

	feed, err := backend.DialFeed(cfg.RabbitURL, log)
	if err != nil {
		return fmt.Errorf("change feed: %w", err)
	}
	defer feed.Close()

	db, err := backend.Connect(ctx, cfg.DatabaseURL, feed, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	log.Info("backend_connected", map[string]any{"terminal": cfg.Terminal})

	trigger := notify.NewTrigger(logPlayer{log})
	coord := state.NewCoordinator(store, trigger, log)
	if err := coord.Load(ctx, db); err != nil {
		if !errors.Is(err, domain.ErrOffline) {
			return err
		}
		// Cached snapshot carries the terminal until the link comes back.
		log.Error("initial_load_offline", err, nil)
	}

	events, err := feed.Subscribe(ctx, cfg.Terminal)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	go coord.Run(ctx, events)

	queue := offline.NewQueue(store, coord, log)
	go queue.Watch(ctx, db, db, time.Duration(cfg.ProbeInterval)*time.Second)

	machine := lifecycle.New(db, log)
	handler := server.NewHandler(coord, queue, db, machine, db, store, log)
	srv := server.New(":"+cfg.ServerPort, server.Routes(handler))
	log.Info("http_listening", map[string]any{"port": cfg.ServerPort})

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	log.Info("shutdown_complete", nil)
	return nil
}

// logPlayer stands in for the terminal's speaker: alerts become log lines
// the UI process watches.
type logPlayer struct{ log *logger.Logger }

func (p logPlayer) Play(s notify.Sound) {
	p.log.Info("alert", map[string]any{"sound": string(s)})
}
