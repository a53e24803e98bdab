package game

import "github.com/naveenspark/pong/pkg/domain"

// Server space defaults: origin top-left, y grows downward, in server pixels.
const (
	ServerWidth  = 800.0
	ServerHeight = 400.0
)

// Translator maps server coordinates into local rendering space.
type Translator struct {
	ServerWidth, ServerHeight float64
	LocalWidth, LocalHeight   float64
}

// DefaultTranslator maps the default server court onto the default field.
var DefaultTranslator = Translator{
	ServerWidth:  ServerWidth,
	ServerHeight: ServerHeight,
	LocalWidth:   FieldWidth,
	LocalHeight:  FieldHeight,
}

// Point translates a single coordinate.
func (t Translator) Point(v domain.Vec) domain.Vec {
	return domain.Vec{
		X: (v.X/t.ServerWidth - 0.5) * t.LocalWidth,
		Y: (0.5 - v.Y/t.ServerHeight) * t.LocalHeight,
	}
}

// State translates every position in s. The score is carried over unchanged.
func (t Translator) State(s domain.GameState) domain.GameState {
	return domain.GameState{
		Player1Position: t.Point(s.Player1Position),
		Player2Position: t.Point(s.Player2Position),
		Ball:            t.Point(s.Ball),
		Score:           s.Score,
	}
}
