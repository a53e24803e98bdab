package game

import (
	"encoding/json"

	"github.com/naveenspark/pong/pkg/domain"
	"github.com/naveenspark/pong/pkg/socket"
)

// installEventHandlers hooks s into the server events it consumes.
func installEventHandlers(s *Session) {
	s.transport.On(EventGameState, func(data json.RawMessage) {
		var st domain.GameState
		if err := json.Unmarshal(data, &st); err != nil {
			s.logger.Printf("game: bad %s payload: %v", EventGameState, err)
			return
		}
		if err := s.HandleGameStateUpdate(st); err != nil {
			s.logger.Printf("game: %v", err)
		}
	})

	s.transport.On(EventGameOver, func(data json.RawMessage) {
		var over domain.GameOver
		if err := json.Unmarshal(data, &over); err != nil {
			s.logger.Printf("game: bad %s payload: %v", EventGameOver, err)
			return
		}
		s.mu.Lock()
		sc := over.Score
		s.score = &sc
		s.mu.Unlock()
		s.logger.Printf("game over: gameId=%s winner=%s", s.Info().GameID, over.Winner)
		if s.onGameOver != nil {
			s.onGameOver(over)
		}
	})

	s.transport.On(socket.EventDisconnect, func(json.RawMessage) {
		if s.onUpdate != nil {
			s.onUpdate()
		}
	})
}
