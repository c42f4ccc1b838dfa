package relay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type ServerConfig struct {
	Addr              string
	HeartbeatInterval time.Duration
	RoomGCInterval    time.Duration
	IsLocalCors       bool
}

// Serve runs the HTTP server with the heartbeat and room GC loops until ctx
// is cancelled or one of them fails.
func Serve(ctx context.Context, log *zap.SugaredLogger, h *RelayHandler, cfg ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Router(cfg.IsLocalCors),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Relay is running on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return h.RunHeartbeat(ctx, cfg.HeartbeatInterval)
	})
	g.Go(func() error {
		return h.RunRoomGC(ctx, cfg.RoomGCInterval)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		h.CloseAll()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
