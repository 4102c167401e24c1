package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"hpchess/game"
	"hpchess/oracle"
)

var errBadRequest = errors.New("bad request")

type MessageType string

const (
	MessageTypeMove       MessageType = "move"
	MessageTypeEngine     MessageType = "engine"
	MessageTypeUndo       MessageType = "undo"
	MessageTypeNew        MessageType = "new"
	MessageTypeDifficulty MessageType = "difficulty"
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeThinking   MessageType = "thinking"
	MessageTypeError      MessageType = "error"
)

// Message is the websocket envelope in both directions.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func newMessage(t MessageType, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: raw}, nil
}

type moveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

func (r moveRequest) parse() (from, to oracle.Square, promotion oracle.Kind, err error) {
	if from, err = oracle.ParseSquare(r.From); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if to, err = oracle.ParseSquare(r.To); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if r.Promotion != "" {
		if promotion, err = oracle.ParseKind(r.Promotion); err != nil {
			return 0, 0, 0, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	return from, to, promotion, nil
}

type newGameRequest struct {
	FEN string `json:"fen"`
}

type difficultyRequest struct {
	Difficulty int `json:"difficulty"`
}

type outcomeView struct {
	Move      string     `json:"move"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Promotion string     `json:"promotion,omitempty"`
	Captured  string     `json:"captured,omitempty"`
	Resolved  bool       `json:"resolved"`
	ByEngine  bool       `json:"byEngine"`
	State     game.State `json:"state"`
}

func viewOutcome(out game.Outcome) *outcomeView {
	v := &outcomeView{
		Move:     out.Move.String(),
		From:     out.Move.From.String(),
		To:       out.Move.To.String(),
		Resolved: out.Resolved,
		ByEngine: out.ByEngine,
		State:    out.State,
	}
	if out.Move.IsPromotion() {
		v.Promotion = out.Move.Promotion.String()
	}
	if out.Move.IsCapture() {
		v.Captured = out.Move.Captured.String()
	}
	return v
}

type stateView struct {
	Status  game.Status  `json:"status"`
	Outcome *outcomeView `json:"outcome,omitempty"`
}
