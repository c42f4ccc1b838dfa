package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"boardduel/internal/domain/game"
	"boardduel/internal/domain/protocol"
	"boardduel/internal/engine"
	errs "boardduel/internal/errors"
)

func decode(t *testing.T, typ game.Type, pos string) engine.State {
	t.Helper()
	s, err := engine.Decode(typ, pos)
	require.NoError(t, err)
	return s
}

func TestDescriptorRoundTripIsAccepted(t *testing.T) {
	positions := []engine.State{
		decode(t, game.Chess, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"),
		decode(t, game.Chess, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"),
		decode(t, game.Chess, "rnbqkbnr/ppp1pppp/8/3pP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3"),
		decode(t, game.Chess, "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8"),
		decode(t, game.Checkers, ".b.b.b.b/b.b.b.b./.b.b.b.b/......../......../r.r.r.r./.r.r.r.r/r.r.r.r. red -"),
		decode(t, game.Checkers, ".......b/......../......../....b.../...r..../......../......../..r..... red d4"),
	}
	for _, s := range positions {
		for _, m := range s.LegalMoves() {
			raw, err := protocol.EncodeMove(m)
			require.NoError(t, err)

			decoded, err := protocol.DecodeMove(raw)
			require.NoError(t, err)
			require.True(t, decoded.Matches(m), "%s", raw)

			direct, _, err := s.Apply(m)
			require.NoError(t, err)
			viaWire, _, err := s.Apply(decoded)
			require.NoError(t, err)
			require.Equal(t, direct.Encode(), viaWire.Encode())
		}
	}
}

func TestDescriptorWireShape(t *testing.T) {
	m := game.Move{From: game.Sq(6, 4), To: game.Sq(4, 4), Kind: game.DoubleStep}
	raw, err := protocol.EncodeMove(m)
	require.NoError(t, err)
	require.JSONEq(t, `{"fromR":6,"fromC":4,"move":{"r":4,"c":4,"type":"double"}}`, string(raw))

	jump := game.Move{From: game.Sq(5, 2), To: game.Sq(3, 4), Kind: game.Jump, Captured: game.Sq(4, 3), HasCapture: true}
	raw, err = protocol.EncodeMove(jump)
	require.NoError(t, err)
	require.JSONEq(t, `{"fromR":5,"fromC":2,"move":{"r":3,"c":4,"type":"jump","capturedR":4,"capturedC":3}}`, string(raw))

	promo := game.Move{From: game.Sq(1, 0), To: game.Sq(0, 0), Kind: game.Promotion, Promotion: game.Knight}
	raw, err = protocol.EncodeMove(promo)
	require.NoError(t, err)
	require.JSONEq(t, `{"fromR":1,"fromC":0,"move":{"r":0,"c":0,"type":"promotion"},"promoType":"N"}`, string(raw))

	back, err := protocol.DecodeMove(raw)
	require.NoError(t, err)
	require.Equal(t, game.Knight, back.Promotion)
}

func TestDecodeRejectsMalformedDescriptors(t *testing.T) {
	for _, raw := range []string{
		``,
		`nope`,
		`{}`,
		`{"fromR":6,"fromC":4}`,
		`{"fromR":6,"fromC":4,"move":{"r":4,"type":"move"}}`,
		`{"fromR":8,"fromC":4,"move":{"r":4,"c":4,"type":"move"}}`,
		`{"fromR":6,"fromC":4,"move":{"r":-1,"c":4,"type":"move"}}`,
		`{"fromR":6,"fromC":4,"move":{"r":4,"c":4,"type":"teleport"}}`,
		`{"fromR":6,"fromC":4,"move":{"r":4,"c":4,"type":"capture","capturedR":4}}`,
		`{"fromR":6,"fromC":4,"move":{"r":4,"c":4,"type":"capture","capturedR":4,"capturedC":9}}`,
		`{"fromR":1,"fromC":0,"move":{"r":0,"c":0,"type":"promotion"},"promoType":"K"}`,
	} {
		_, err := protocol.DecodeMove(json.RawMessage(raw))
		require.ErrorIs(t, err, errs.ErrMalformedMove, raw)
	}
}

func TestGameOverFor(t *testing.T) {
	msg := protocol.GameOverFor(game.Checkers, game.WinFor(game.Second, game.ReasonNoPieces))
	require.Equal(t, protocol.Message{Type: protocol.TypeGameOver, Winner: "black", Reason: "no_pieces"}, msg)

	msg = protocol.GameOverFor(game.Chess, game.DrawBy(game.ReasonStalemate))
	require.Equal(t, "", msg.Winner)
	require.Equal(t, "stalemate", msg.Reason)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"game_over","winner":"","reason":"stalemate"}`, string(raw))

	var back protocol.Message
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, msg, back)

	raw, err = json.Marshal(protocol.RoomJoined("MATCH1", "black", game.Checkers))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"room_joined","code":"MATCH1","color":"black","gameType":"checkers"}`, string(raw))
}
