package domain

// Vec is a 2D coordinate. Server messages carry it in server space; the
// session translates it into local rendering space before applying it.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

// GameState is the server-pushed position update for one game.
type GameState struct {
	Player1Position Vec    `json:"player1_position"`
	Player2Position Vec    `json:"player2_position"`
	Ball            Vec    `json:"ball"`
	Score           *Score `json:"score,omitempty"`
}

// Score is the running score of a game.
type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// GameOver is sent by the server once a game has a winner.
type GameOver struct {
	Winner string `json:"winner"`
	Score  Score  `json:"score"`
}

// Paddle directions accepted by the game server.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionStop = "stop"
)

// PaddleMove is the movement payload the client emits for a local player.
type PaddleMove struct {
	GameID    string `json:"game_id"`
	PlayerID  string `json:"player_id"`
	Direction string `json:"direction"`
}

// ValidDirection reports whether d is a known paddle direction.
func ValidDirection(d string) bool {
	switch d {
	case DirectionUp, DirectionDown, DirectionStop:
		return true
	}
	return false
}
