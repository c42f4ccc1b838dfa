package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"

	"boardduel/internal/domain/game"
	errs "boardduel/internal/errors"
)

// Descriptor is the wire form of a move:
//
//	{"fromR":6,"fromC":4,"move":{"r":4,"c":4,"type":"double"},"promoType":"Q"}
type Descriptor struct {
	FromR     *int    `json:"fromR"`
	FromC     *int    `json:"fromC"`
	Move      *Target `json:"move"`
	PromoType string  `json:"promoType,omitempty"`
}

type Target struct {
	R         *int   `json:"r"`
	C         *int   `json:"c"`
	Type      string `json:"type"`
	CapturedR *int   `json:"capturedR,omitempty"`
	CapturedC *int   `json:"capturedC,omitempty"`
}

var promoLetters = map[game.PieceKind]string{
	game.Queen:  "Q",
	game.Rook:   "R",
	game.Bishop: "B",
	game.Knight: "N",
}

func intPtr(v int) *int {
	return &v
}

// Describe converts a generated move to its descriptor. Promotions always
// name a piece, defaulting to a queen.
func Describe(m game.Move) Descriptor {
	d := Descriptor{
		FromR: intPtr(m.From.Row),
		FromC: intPtr(m.From.Col),
		Move: &Target{
			R:    intPtr(m.To.Row),
			C:    intPtr(m.To.Col),
			Type: m.Kind.String(),
		},
	}
	if m.HasCapture {
		d.Move.CapturedR = intPtr(m.Captured.Row)
		d.Move.CapturedC = intPtr(m.Captured.Col)
	}
	if m.Kind == game.Promotion {
		d.PromoType = "Q"
		if l, ok := promoLetters[m.Promotion]; ok {
			d.PromoType = l
		}
	}
	return d
}

// ToMove validates the descriptor's shape and returns the move it names.
// Legality is left to the state the move is applied to.
func (d Descriptor) ToMove() (game.Move, error) {
	if d.FromR == nil || d.FromC == nil || d.Move == nil || d.Move.R == nil || d.Move.C == nil {
		return game.Move{}, errors.Wrap(errs.ErrMalformedMove, "missing coordinates")
	}
	m := game.Move{
		From: game.Sq(*d.FromR, *d.FromC),
		To:   game.Sq(*d.Move.R, *d.Move.C),
	}
	if !m.From.Valid() || !m.To.Valid() {
		return game.Move{}, errors.Wrapf(errs.ErrMalformedMove, "square out of range %v -> %v", m.From, m.To)
	}
	kind, ok := game.ParseMoveKind(d.Move.Type)
	if !ok {
		return game.Move{}, errors.Wrapf(errs.ErrMalformedMove, "unknown move type %q", d.Move.Type)
	}
	m.Kind = kind

	if (d.Move.CapturedR == nil) != (d.Move.CapturedC == nil) {
		return game.Move{}, errors.Wrap(errs.ErrMalformedMove, "partial captured square")
	}
	if d.Move.CapturedR != nil {
		m.Captured = game.Sq(*d.Move.CapturedR, *d.Move.CapturedC)
		if !m.Captured.Valid() {
			return game.Move{}, errors.Wrapf(errs.ErrMalformedMove, "captured square out of range %v", m.Captured)
		}
		m.HasCapture = true
	}

	if d.PromoType != "" {
		found := false
		for kind, l := range promoLetters {
			if l == d.PromoType {
				m.Promotion, found = kind, true
			}
		}
		if !found {
			return game.Move{}, errors.Wrapf(errs.ErrMalformedMove, "unknown promotion %q", d.PromoType)
		}
	}
	return m, nil
}

func EncodeMove(m game.Move) (json.RawMessage, error) {
	raw, err := json.Marshal(Describe(m))
	if err != nil {
		return nil, errors.Wrap(err, "encode descriptor")
	}
	return raw, nil
}

func DecodeMove(raw json.RawMessage) (game.Move, error) {
	if len(raw) == 0 {
		return game.Move{}, errors.Wrap(errs.ErrMalformedMove, "empty descriptor")
	}
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return game.Move{}, errors.Wrapf(errs.ErrMalformedMove, "decode descriptor: %v", err)
	}
	return d.ToMove()
}
