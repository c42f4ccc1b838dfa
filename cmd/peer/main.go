package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"boardduel/internal/bootstrap"
	peerDelivery "boardduel/internal/delivery/peer"
	"boardduel/internal/domain/game"
	errs "boardduel/internal/errors"
	peeruc "boardduel/internal/usecase/peer"
	searchuc "boardduel/internal/usecase/search"
)

func main() {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		zap.NewExample().Sugar().Fatalw("failed to setup configuration", "error", err)
	}
	logger := bootstrap.NewLogger(cfg.LogDevelopment)
	defer logger.Sync()

	req, err := request(cfg)
	if err != nil {
		logger.Fatalw("bad peer configuration", "error", err)
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
	bot := peerDelivery.BotTurn(searchuc.NewSearcher(opts...), 0)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := peerDelivery.NewClient(logger, cfg.RelayUrl)
	res, err := client.Play(ctx, req, bot)
	if err != nil {
		if errors.Is(err, errs.ErrRoomExists) || errors.Is(err, errs.ErrRoomNotFound) || errors.Is(err, errs.ErrRoomFull) {
			logger.Errorw("room rejected", "code", req.Code, "error", err)
		} else {
			logger.Errorw("game aborted", "code", req.Code, "error", err)
		}
		os.Exit(1)
	}

	st := res.State.Status()
	winner := ""
	if st.Outcome == game.Win {
		winner = res.GameType.Color(st.Winner)
	}
	logger.Infow("game over",
		"code", res.Code,
		"color", res.GameType.Color(res.Side),
		"winner", winner,
		"reason", st.Reason,
		"moves", len(res.State.History()),
		"position", res.State.Encode(),
	)
}

func request(cfg *bootstrap.Config) (peerDelivery.Request, error) {
	if cfg.RoomCode == "" {
		return peerDelivery.Request{}, errors.New("ROOM_CODE is required")
	}
	switch strings.ToLower(cfg.PeerRole) {
	case "create":
		t, err := game.ParseType(cfg.GameType)
		if err != nil {
			return peerDelivery.Request{}, err
		}
		return peerDelivery.Request{Role: peeruc.Creator, Code: cfg.RoomCode, GameType: t}, nil
	case "join":
		return peerDelivery.Request{Role: peeruc.Joiner, Code: cfg.RoomCode}, nil
	}
	return peerDelivery.Request{}, errors.New("PEER_ROLE must be create or join")
}
