package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		bootstrapLog := zerolog.New(os.Stderr)
		bootstrapLog.Fatal().Err(err).Msg("config load failed")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	defer db.Close()

	world, err := LoadWorld(cfg.CollisionFile, cfg.GoalFile)
	if err != nil {
		log.Fatal().Err(err).Msg("world load failed")
	}
	log.Info().Int("colliders", len(world.Colliders)).Int("goals", len(world.Goals)).Msg("world loaded")

	events := NewEventRecorder(db, log)
	defer events.Close()

	auth := NewAuth(db, cfg.JWTSecret, log)
	game := NewGame(cfg, world, nil, db, events, log)
	hub := NewHub(db, auth, game, log)
	game.room = hub
	go hub.Run()

	mux := SetupRoutes(hub)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-stop
	log.Info().Msg("shutting down")
	game.StopLoop()
	server.Close()
}
