package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Ashenafi-pixel/limbo-crash-engine/config"
	"github.com/Ashenafi-pixel/limbo-crash-engine/logger"
	"github.com/Ashenafi-pixel/limbo-crash-engine/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env in cwd, then the project root when run from cmd/server.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../../.env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	srv, err := server.New(cfg, lg)
	if err != nil {
		lg.Fatal("build server", zap.Error(err))
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		lg.Fatal("server", zap.Error(err))
	}
}
