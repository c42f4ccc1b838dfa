package chess

import (
	"fmt"
	"strconv"
	"strings"

	"boardduel/internal/domain/game"
	errs "boardduel/internal/errors"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var fenLetters = map[game.PieceKind]byte{
	game.Pawn:   'p',
	game.Knight: 'n',
	game.Bishop: 'b',
	game.Rook:   'r',
	game.Queen:  'q',
	game.King:   'k',
}

// Encode renders the state in Forsyth-Edwards Notation.
func (s *State) Encode() string {
	var sb strings.Builder
	for r := 0; r < game.Size; r++ {
		empty := 0
		for c := 0; c < game.Size; c++ {
			pc := s.board[r][c]
			if pc.Empty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			letter := fenLetters[pc.Kind]
			if pc.Side == White {
				letter -= 'a' - 'A'
			}
			sb.WriteByte(letter)
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < game.Size-1 {
			sb.WriteByte('/')
		}
	}

	if s.turn == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	rights := ""
	for _, r := range []struct {
		bit    Castling
		letter string
	}{{WhiteKingside, "K"}, {WhiteQueenside, "Q"}, {BlackKingside, "k"}, {BlackQueenside, "q"}} {
		if s.special.Castling.Has(r.bit) {
			rights += r.letter
		}
	}
	if rights == "" {
		rights = "-"
	}
	sb.WriteString(rights)

	if s.special.HasEnPassant {
		sb.WriteString(" " + s.special.EnPassant.String())
	} else {
		sb.WriteString(" -")
	}
	fmt.Fprintf(&sb, " %d %d", s.halfmove, s.fullmove)
	return sb.String()
}

// ParseFEN builds a state from FEN. The move counters are optional. More
// than one king per side is rejected; a missing king yields a finished game.
func ParseFEN(fen string) (*State, error) {
	fields := strings.Fields(fen)
	if len(fields) != 4 && len(fields) != 6 {
		return nil, fmt.Errorf("%w: fen needs 4 or 6 fields, got %d", errs.ErrInvalidPosition, len(fields))
	}

	var b game.Board
	rows := strings.Split(fields[0], "/")
	if len(rows) != game.Size {
		return nil, fmt.Errorf("%w: fen needs %d ranks", errs.ErrInvalidPosition, game.Size)
	}
	kings := map[game.Side]int{}
	for r, row := range rows {
		c := 0
		for i := 0; i < len(row); i++ {
			ch := row[i]
			if ch >= '1' && ch <= '8' {
				c += int(ch - '0')
				continue
			}
			side := Black
			lower := ch
			if ch >= 'A' && ch <= 'Z' {
				side = White
				lower = ch + ('a' - 'A')
			}
			kind := game.NoPiece
			for k, l := range fenLetters {
				if l == lower {
					kind = k
				}
			}
			if kind == game.NoPiece || c >= game.Size {
				return nil, fmt.Errorf("%w: bad rank %q", errs.ErrInvalidPosition, row)
			}
			if kind == game.King {
				kings[side]++
			}
			b[r][c] = game.Piece{Side: side, Kind: kind}
			c++
		}
		if c != game.Size {
			return nil, fmt.Errorf("%w: rank %q has %d files", errs.ErrInvalidPosition, row, c)
		}
	}
	if kings[White] > 1 || kings[Black] > 1 {
		return nil, fmt.Errorf("%w: more than one king per side", errs.ErrInvalidPosition)
	}

	var turn game.Side
	switch fields[1] {
	case "w":
		turn = White
	case "b":
		turn = Black
	default:
		return nil, fmt.Errorf("%w: side %q", errs.ErrInvalidPosition, fields[1])
	}

	var sp Special
	if fields[2] != "-" {
		for _, ch := range fields[2] {
			switch ch {
			case 'K':
				sp.Castling |= WhiteKingside
			case 'Q':
				sp.Castling |= WhiteQueenside
			case 'k':
				sp.Castling |= BlackKingside
			case 'q':
				sp.Castling |= BlackQueenside
			default:
				return nil, fmt.Errorf("%w: castling %q", errs.ErrInvalidPosition, fields[2])
			}
		}
	}
	if fields[3] != "-" {
		sq, err := game.ParseSquare(fields[3])
		if err != nil {
			return nil, err
		}
		sp.EnPassant, sp.HasEnPassant = sq, true
	}

	halfmove, fullmove := 0, 1
	if len(fields) == 6 {
		var err error
		if halfmove, err = strconv.Atoi(fields[4]); err != nil || halfmove < 0 {
			return nil, fmt.Errorf("%w: halfmove %q", errs.ErrInvalidPosition, fields[4])
		}
		if fullmove, err = strconv.Atoi(fields[5]); err != nil || fullmove < 1 {
			return nil, fmt.Errorf("%w: fullmove %q", errs.ErrInvalidPosition, fields[5])
		}
	}
	return newState(b, turn, sp, halfmove, fullmove), nil
}
