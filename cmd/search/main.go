package main

import (
	"context"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"boardduel/internal/bootstrap"
	searchDelivery "boardduel/internal/delivery/search"
	"boardduel/internal/domain/game"
	searchuc "boardduel/internal/usecase/search"
)

func main() {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		zap.NewExample().Sugar().Fatalw("failed to setup configuration", "error", err)
	}
	logger := bootstrap.NewLogger(cfg.LogDevelopment)
	defer logger.Sync()

	lis, err := net.Listen("tcp", ":"+cfg.SearchGrpcPort)
	if err != nil {
		logger.Fatalw("cant listen port", "port", cfg.SearchGrpcPort, "error", err)
	}

	opts := []searchuc.Option{
		searchuc.WithDepth(game.Chess, cfg.ChessDepth),
		searchuc.WithDepth(game.Checkers, cfg.CheckersDepth),
		searchuc.WithMaxDepth(cfg.SearchMaxDepth),
		searchuc.WithWorkers(cfg.SearchWorkers),
	}
	if cfg.SearchSeed != 0 {
		opts = append(opts, searchuc.WithRand(rand.New(rand.NewSource(cfg.SearchSeed))))
	}

	server := grpc.NewServer()
	searchDelivery.RegisterSearchServer(server, searchDelivery.NewServer(logger, searchuc.NewSearcher(opts...)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		server.GracefulStop()
	}()

	logger.Infof("starting search server at :%s", cfg.SearchGrpcPort)
	if err := server.Serve(lis); err != nil {
		logger.Errorw("search server stopped", "error", err)
	}
}
