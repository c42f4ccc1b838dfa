package search

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"boardduel/internal/domain/game"
	"boardduel/internal/domain/protocol"
	errs "boardduel/internal/errors"
	"boardduel/internal/httpresponse"
	"boardduel/internal/utils"
)

type BotMoveRequest struct {
	GameType string `json:"gameType"`
	Position string `json:"position"`
	Depth    int    `json:"depth"`
}

type BotMoveResponse struct {
	Move       protocol.Descriptor `json:"move"`
	Score      int                 `json:"score"`
	Candidates int                 `json:"candidates"`
	Depth      int                 `json:"depth"`
	Position   string              `json:"position"`
	RequestID  string              `json:"requestId"`
}

// statusClientClosedRequest reports a search the caller gave up on.
const statusClientClosedRequest = 499

// BotHandler serves POST /api/bot/move.
type BotHandler struct {
	log      *zap.SugaredLogger
	selector MoveSelector
}

func NewBotHandler(log *zap.SugaredLogger, selector MoveSelector) *BotHandler {
	return &BotHandler{log: log, selector: selector}
}

func (h *BotHandler) HandleBotMove(w http.ResponseWriter, r *http.Request) {
	var req BotMoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Debugf("bot move: %v", err)
		httpresponse.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := game.ParseType(req.GameType)
	if err != nil {
		httpresponse.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := stateFor(t, req.Position)
	if err != nil {
		httpresponse.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	requestID := uuid.New().String()
	res, err := h.selector.SelectMove(r.Context(), st, st.SideToMove(), req.Depth)
	switch {
	case err == nil:
	case errors.Is(err, errs.ErrGameOver), errors.Is(err, errs.ErrNoMoves):
		httpresponse.WriteError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, errs.ErrInvalidPosition):
		httpresponse.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, context.Canceled):
		h.log.Debugw("bot move abandoned by client", "requestId", requestID)
		httpresponse.WriteError(w, statusClientClosedRequest, "request cancelled")
		return
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Warnw("bot move timed out", "requestId", requestID)
		httpresponse.WriteError(w, http.StatusGatewayTimeout, "move selection timed out")
		return
	default:
		h.log.Errorw("bot move failed", "requestId", requestID, "error", err)
		httpresponse.WriteError(w, http.StatusBadGateway, "move selection failed")
		return
	}

	next, _, err := st.Apply(res.Move)
	if err != nil {
		h.log.Errorw("selected move rejected", "requestId", requestID, "move", res.Move.String(), "error", err)
		httpresponse.WriteInternalErrorResponse(w)
		return
	}
	h.log.Infow("bot move", "requestId", requestID, "gameType", t, "move", res.Move.String())
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, BotMoveResponse{
		Move:       protocol.Describe(res.Move),
		Score:      res.Score,
		Candidates: res.Candidates,
		Depth:      res.Depth,
		Position:   next.Encode(),
		RequestID:  requestID,
	})
}
