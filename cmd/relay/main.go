package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"boardduel/internal/adapters"
	"boardduel/internal/bootstrap"
	relayDelivery "boardduel/internal/delivery/relay"
	searchDelivery "boardduel/internal/delivery/search"
	"boardduel/internal/domain/game"
	repo "boardduel/internal/repository"
	relayuc "boardduel/internal/usecase/relay"
	searchuc "boardduel/internal/usecase/search"
)

func main() {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		zap.NewExample().Sugar().Fatalw("failed to setup configuration", "error", err)
	}
	logger := bootstrap.NewLogger(cfg.LogDevelopment)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var closers []adapters.Closer
	var recorders repo.MultiRecorder
	var history relayDelivery.MatchHistory
	var moveLog relayDelivery.MoveLog

	if cfg.RedisUrl != "" {
		redisAdapter := adapters.NewAdapterRedis(cfg, logger)
		if err := redisAdapter.Init(ctx); err != nil {
			logger.Fatalw("failed to initialize redis", "error", err)
		}
		closers = append(closers, redisAdapter)
		moves := repo.NewMoveLogRepository(logger, redisAdapter.GetClient(), cfg.MoveLogTTL)
		recorders = append(recorders, moves)
		moveLog = moves
	}
	if cfg.MongoUri != "" {
		mongoAdapter := adapters.NewAdapterMongo(cfg, logger)
		if err := mongoAdapter.Init(ctx); err != nil {
			logger.Fatalw("failed to initialize mongo", "error", err)
		}
		closers = append(closers, mongoAdapter)
		archive := repo.NewArchiveRepository(logger, mongoAdapter.Database)
		recorders = append(recorders, archive)
		history = archive
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := adapters.CloseAll(closeCtx, closers...); err != nil {
			logger.Warnw("failed to close adapters", "error", err)
		}
	}()

	var rec relayuc.Recorder
	if len(recorders) > 0 {
		rec = recorders
	}
	manager := relayuc.NewManager(logger, rec)

	selector, closeSelector := newSelector(cfg, logger)
	defer closeSelector()
	bot := searchDelivery.NewBotHandler(logger, selector)

	handler := relayDelivery.NewRelayHandler(logger, manager, bot, history, moveLog)
	err = relayDelivery.Serve(ctx, logger, handler, relayDelivery.ServerConfig{
		Addr:              ":" + cfg.ServerPort,
		HeartbeatInterval: cfg.HeartbeatInterval,
		RoomGCInterval:    cfg.RoomGCInterval,
		IsLocalCors:       cfg.IsLocalCors,
	})
	if err != nil {
		logger.Errorw("relay stopped", "error", err)
		return
	}
	logger.Info("relay stopped")
}

// newSelector uses the search service when SEARCH_ADDR is set and an
// in-process searcher otherwise.
func newSelector(cfg *bootstrap.Config, logger *zap.SugaredLogger) (searchDelivery.MoveSelector, func()) {
	if cfg.SearchAddr != "" {
		conn, err := grpc.NewClient(cfg.SearchAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			logger.Fatalw("failed to dial search service", "addr", cfg.SearchAddr, "error", err)
		}
		logger.Infof("bot moves are served by %s", cfg.SearchAddr)
		return searchDelivery.NewRemoteSearcher(logger, conn), func() { _ = conn.Close() }
	}
	return newSearcher(cfg), func() {}
}

func newSearcher(cfg *bootstrap.Config) *searchuc.Searcher {
	opts := []searchuc.Option{
		searchuc.WithDepth(game.Chess, cfg.ChessDepth),
		searchuc.WithDepth(game.Checkers, cfg.CheckersDepth),
		searchuc.WithMaxDepth(cfg.SearchMaxDepth),
		searchuc.WithWorkers(cfg.SearchWorkers),
	}
	if cfg.SearchSeed != 0 {
		opts = append(opts, searchuc.WithRand(rand.New(rand.NewSource(cfg.SearchSeed))))
	}
	return searchuc.NewSearcher(opts...)
}
