package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"

	"kitchen-board/internal/board"
	"kitchen-board/internal/config"
	"kitchen-board/internal/connections/database"
	"kitchen-board/internal/connections/rabbitmq"
	"kitchen-board/internal/handler"
	"kitchen-board/internal/notify"
	"kitchen-board/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (default: ./config.yaml)")
	flag.Parse()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "kitchen-board").Logger()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer pool.Close()
	log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Database).Msg("postgres connected")

	pg := store.NewPostgres(pool)
	if err := pg.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}

	// status-change fanout is optional; leave rabbitmq.host empty to skip it
	var notifier board.Notifier
	if cfg.RabbitMQ.Host != "" {
		mq, err := rabbitmq.Dial(cfg.RabbitMQ)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq connect failed")
		}
		defer mq.Close()
		pub, err := notify.NewPublisher(mq)
		if err != nil {
			log.Fatal().Err(err).Msg("notify exchange declare failed")
		}
		notifier = pub
		log.Info().Str("host", cfg.RabbitMQ.Host).Msg("rabbitmq connected")
	} else {
		log.Warn().Msg("rabbitmq not configured, status notifications disabled")
	}

	b := board.New(board.Options{
		Store:           pg,
		Notifier:        notifier,
		RefreshInterval: cfg.Board.RefreshInterval,
		ScanInterval:    cfg.Board.ScanInterval,
		IdleThreshold:   cfg.Board.IdleThreshold,
		StoreTimeout:    cfg.Board.StoreTimeout,
		Logger:          log,
	})
	b.Start(ctx)
	defer b.Stop()

	srv := handler.NewServer(":"+strconv.Itoa(cfg.HTTP.Port), handler.Router(handler.NewBoardHandler(b)))
	log.Info().Int("port", cfg.HTTP.Port).Msg("http server listening")
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("shutdown complete")
}
