package game

type MoveKind uint8

const (
	Plain MoveKind = iota
	Capture
	Jump
	DoubleStep
	EnPassant
	CastleKingside
	CastleQueenside
	Promotion
)

var moveKindNames = [...]string{
	Plain:           "move",
	Capture:         "capture",
	Jump:            "jump",
	DoubleStep:      "double",
	EnPassant:       "enpassant",
	CastleKingside:  "castle-k",
	CastleQueenside: "castle-q",
	Promotion:       "promotion",
}

func (k MoveKind) String() string {
	if int(k) < len(moveKindNames) {
		return moveKindNames[k]
	}
	return "unknown"
}

func ParseMoveKind(s string) (MoveKind, bool) {
	for k, name := range moveKindNames {
		if name == s {
			return MoveKind(k), true
		}
	}
	return 0, false
}

// Move is a candidate produced by a generator. Captured is meaningful only
// when HasCapture is set; it differs from To for jumps and en passant.
type Move struct {
	From       Square
	To         Square
	Kind       MoveKind
	Captured   Square
	HasCapture bool
	// Promotion is the requested piece for a chess promotion; NoPiece means
	// the engine default.
	Promotion PieceKind
	// Taken is filled in by the state machine when the move is logged.
	Taken Piece
}

func (m Move) IsCapture() bool {
	return m.HasCapture
}

// Matches reports whether o names the same candidate: origin, destination
// and kind. Promotion choice and log metadata are not part of identity.
func (m Move) Matches(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Kind == o.Kind
}

func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Kind == Promotion {
		switch m.Promotion {
		case Rook:
			s += "r"
		case Bishop:
			s += "b"
		case Knight:
			s += "n"
		default:
			s += "q"
		}
	}
	return s
}

// MoveLog is an append-only persistent list. Appending never disturbs logs
// held by earlier states.
type MoveLog struct {
	head *logNode
	size int
}

type logNode struct {
	move Move
	prev *logNode
}

func (l MoveLog) Append(m Move) MoveLog {
	return MoveLog{head: &logNode{move: m, prev: l.head}, size: l.size + 1}
}

func (l MoveLog) Len() int {
	return l.size
}

func (l MoveLog) Last() (Move, bool) {
	if l.head == nil {
		return Move{}, false
	}
	return l.head.move, true
}

func (l MoveLog) Moves() []Move {
	out := make([]Move, l.size)
	i := l.size - 1
	for n := l.head; n != nil; n = n.prev {
		out[i] = n.move
		i--
	}
	return out
}
