package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"boardduel/internal/domain/game"
	"boardduel/internal/domain/protocol"
	"boardduel/internal/engine"
	errs "boardduel/internal/errors"
	searchuc "boardduel/internal/usecase/search"
)

const (
	ServiceName      = "boardduel.Search"
	SelectMoveMethod = "/boardduel.Search/SelectMove"
)

// MoveSelector picks a move for side in st. The in-process searcher and the
// gRPC client both implement it.
type MoveSelector interface {
	SelectMove(ctx context.Context, st engine.State, side game.Side, depth int) (searchuc.Result, error)
}

// SearchServer is the gRPC service. Requests and responses are
// google.protobuf.Struct values:
//
//	request:  {gameType, position, depth, requestId}
//	response: {move: descriptor, score, candidates, requestId}
type SearchServer interface {
	SelectMove(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SearchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SelectMove", Handler: selectMoveHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "boardduel/search",
}

func RegisterSearchServer(s grpc.ServiceRegistrar, srv SearchServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func selectMoveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SearchServer).SelectMove(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SelectMoveMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SearchServer).SelectMove(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Server answers SelectMove with a local searcher.
type Server struct {
	log      *zap.SugaredLogger
	selector MoveSelector
}

func NewServer(log *zap.SugaredLogger, selector MoveSelector) *Server {
	return &Server{log: log, selector: selector}
}

func (s *Server) SelectMove(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	requestID := fields["requestId"].GetStringValue()
	if requestID == "" {
		requestID = uuid.New().String()
	}

	t, err := game.ParseType(fields["gameType"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	st, err := stateFor(t, fields["position"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	depth := int(fields["depth"].GetNumberValue())

	res, err := s.selector.SelectMove(ctx, st, st.SideToMove(), depth)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.log.Debugw("search abandoned by caller", "requestId", requestID)
		} else {
			s.log.Warnw("search failed", "requestId", requestID, "error", err)
		}
		return nil, toStatus(err)
	}
	s.log.Infow("move selected", "requestId", requestID, "gameType", t, "move", res.Move.String(), "score", res.Score)

	move, err := descriptorStruct(res.Move)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"move":       structpb.NewStructValue(move),
		"score":      structpb.NewNumberValue(float64(res.Score)),
		"candidates": structpb.NewNumberValue(float64(res.Candidates)),
		"depth":      structpb.NewNumberValue(float64(res.Depth)),
		"requestId":  structpb.NewStringValue(requestID),
	}}, nil
}

func stateFor(t game.Type, position string) (engine.State, error) {
	if position == "" {
		return engine.New(t)
	}
	return engine.Decode(t, position)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, errs.ErrGameOver), errors.Is(err, errs.ErrNoMoves), errors.Is(err, errs.ErrNotYourTurn):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", errs.ErrGameOver, status.Convert(err).Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", errs.ErrInvalidPosition, status.Convert(err).Message())
	case codes.Canceled:
		return fmt.Errorf("remote search: %w", context.Canceled)
	case codes.DeadlineExceeded:
		return fmt.Errorf("remote search: %w", context.DeadlineExceeded)
	}
	return fmt.Errorf("remote search: %w", err)
}

func descriptorStruct(m game.Move) (*structpb.Struct, error) {
	raw, err := protocol.EncodeMove(m)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// RemoteSearcher is a MoveSelector backed by the gRPC service.
type RemoteSearcher struct {
	log *zap.SugaredLogger
	cc  grpc.ClientConnInterface
}

func NewRemoteSearcher(log *zap.SugaredLogger, cc grpc.ClientConnInterface) *RemoteSearcher {
	return &RemoteSearcher{log: log, cc: cc}
}

// SelectMove sends the encoded position and maps the answer back onto a
// legal move of st.
func (r *RemoteSearcher) SelectMove(ctx context.Context, st engine.State, side game.Side, depth int) (searchuc.Result, error) {
	if st.Status().Over() {
		return searchuc.Result{}, errs.ErrGameOver
	}
	if st.SideToMove() != side {
		return searchuc.Result{}, errs.ErrNotYourTurn
	}

	requestID := uuid.New().String()
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"gameType":  structpb.NewStringValue(string(st.Type())),
		"position":  structpb.NewStringValue(st.Encode()),
		"depth":     structpb.NewNumberValue(float64(depth)),
		"requestId": structpb.NewStringValue(requestID),
	}}
	resp := new(structpb.Struct)
	if err := r.cc.Invoke(ctx, SelectMoveMethod, req, resp); err != nil {
		return searchuc.Result{}, fromStatus(err)
	}

	fields := resp.GetFields()
	raw, err := fields["move"].GetStructValue().MarshalJSON()
	if err != nil {
		return searchuc.Result{}, fmt.Errorf("%w: %v", errs.ErrMalformedMove, err)
	}
	want, err := protocol.DecodeMove(raw)
	if err != nil {
		return searchuc.Result{}, err
	}
	for _, m := range st.LegalMovesFrom(want.From) {
		if m.Matches(want) {
			m.Promotion = want.Promotion
			r.log.Debugw("remote move", "requestId", requestID, "move", m.String())
			return searchuc.Result{
				Move:       m,
				Score:      int(fields["score"].GetNumberValue()),
				Candidates: int(fields["candidates"].GetNumberValue()),
				Depth:      int(fields["depth"].GetNumberValue()),
			}, nil
		}
	}
	return searchuc.Result{}, fmt.Errorf("%w: remote search returned %s", errs.ErrIllegalMove, want)
}
