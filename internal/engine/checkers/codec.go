package checkers

import (
	"strings"

	"github.com/pkg/errors"

	"boardduel/internal/domain/game"
	errs "boardduel/internal/errors"
)

var pieceLetters = map[game.Piece]byte{
	{Side: Red, Kind: game.Man}:    'r',
	{Side: Red, Kind: game.King}:   'R',
	{Side: Black, Kind: game.Man}:  'b',
	{Side: Black, Kind: game.King}: 'B',
}

// Encode renders the position as "rows side active": eight rows of eight
// cells separated by '/', then red or black, then the chain square or '-'.
func (s *State) Encode() string {
	var sb strings.Builder
	for r := 0; r < game.Size; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		for c := 0; c < game.Size; c++ {
			if l, ok := pieceLetters[s.board[r][c]]; ok {
				sb.WriteByte(l)
			} else {
				sb.WriteByte('.')
			}
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(game.Checkers.Color(s.turn))
	sb.WriteByte(' ')
	if s.hasActive {
		sb.WriteString(s.active.String())
	} else {
		sb.WriteByte('-')
	}
	return sb.String()
}

// Parse reads a position written by Encode.
func Parse(pos string) (*State, error) {
	fields := strings.Fields(pos)
	if len(fields) != 3 {
		return nil, errors.Wrapf(errs.ErrInvalidPosition, "checkers position needs 3 fields, got %d", len(fields))
	}
	rows := strings.Split(fields[0], "/")
	if len(rows) != game.Size {
		return nil, errors.Wrapf(errs.ErrInvalidPosition, "checkers position needs %d rows", game.Size)
	}

	var b game.Board
	for r, row := range rows {
		if len(row) != game.Size {
			return nil, errors.Wrapf(errs.ErrInvalidPosition, "row %d is %q", r, row)
		}
		for c := 0; c < game.Size; c++ {
			if row[c] == '.' {
				continue
			}
			pc, ok := letterPiece(row[c])
			if !ok {
				return nil, errors.Wrapf(errs.ErrInvalidPosition, "unknown piece %q", row[c])
			}
			if !Dark(game.Sq(r, c)) {
				return nil, errors.Wrapf(errs.ErrInvalidPosition, "piece on light square %s", game.Sq(r, c))
			}
			b[r][c] = pc
		}
	}

	turn, ok := game.Checkers.SideOf(fields[1])
	if !ok {
		return nil, errors.Wrapf(errs.ErrInvalidPosition, "side %q", fields[1])
	}

	if fields[2] == "-" {
		return newState(b, turn, game.Square{}, false), nil
	}
	active, err := game.ParseSquare(fields[2])
	if err != nil {
		return nil, err
	}
	if pc := b.At(active); pc.Empty() || pc.Side != turn || len(jumpsFrom(&b, active)) == 0 {
		return nil, errors.Wrapf(errs.ErrInvalidPosition, "no capture chain can continue from %s", active)
	}
	return newState(b, turn, active, true), nil
}

func letterPiece(l byte) (game.Piece, bool) {
	for pc, letter := range pieceLetters {
		if letter == l {
			return pc, true
		}
	}
	return game.Piece{}, false
}
