package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"hpchess/engine"
	"hpchess/game"
)

type socket interface {
	WriteJSON(v interface{}) error
}

// upgrade admits websocket handshakes for games that exist.
func (s *Server) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	sess, err := s.session(c)
	if err != nil {
		return s.fail(c, err)
	}
	c.Locals("session", sess)
	return c.Next()
}

func (s *Server) handleSocket(conn *websocket.Conn) {
	log := s.log.With(zap.String("game_id", conn.Params("gameId")))
	sess, ok := conn.Locals("session").(*game.Session)
	if !ok {
		log.Warn("websocket without session")
		conn.Close()
		return
	}
	log.Info("websocket connected")
	defer log.Info("websocket closed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.send(conn, MessageTypeGameState, stateView{Status: sess.Status()}); err != nil {
		return
	}
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("read", zap.Error(err))
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(conn, fmt.Errorf("%w: %v", errBadRequest, err))
			continue
		}
		if err := s.dispatch(ctx, conn, sess, msg); err != nil {
			log.Debug("message rejected", zap.String("type", string(msg.Type)), zap.Error(err))
			s.sendError(conn, err)
		}
	}
}

// dispatch handles one client message. Every accepted message is answered
// with a gameState push; if the engine is then to move it replies after the
// configured thinking delay.
func (s *Server) dispatch(ctx context.Context, sock socket, sess *game.Session, msg Message) error {
	switch msg.Type {
	case MessageTypeMove:
		var req moveRequest
		if err := decodePayload(msg, &req); err != nil {
			return err
		}
		from, to, promotion, err := req.parse()
		if err != nil {
			return err
		}
		out, err := sess.SubmitMove(from, to, promotion)
		if err != nil {
			return err
		}
		if err := s.send(sock, MessageTypeGameState, stateView{Status: sess.Status(), Outcome: viewOutcome(out)}); err != nil {
			return err
		}

	case MessageTypeEngine:
		return s.engineReply(ctx, sock, sess)

	case MessageTypeUndo:
		if err := sess.Undo(); err != nil {
			return err
		}
		return s.send(sock, MessageTypeGameState, stateView{Status: sess.Status()})

	case MessageTypeNew:
		var req newGameRequest
		if err := decodePayload(msg, &req); err != nil {
			return err
		}
		var err error
		if req.FEN != "" {
			err = sess.NewGameFromFEN(req.FEN)
		} else {
			err = sess.NewGame()
		}
		if err != nil {
			return err
		}
		if err := s.send(sock, MessageTypeGameState, stateView{Status: sess.Status()}); err != nil {
			return err
		}

	case MessageTypeDifficulty:
		var req difficultyRequest
		if err := decodePayload(msg, &req); err != nil {
			return err
		}
		if err := sess.SetDifficulty(engine.Difficulty(req.Difficulty)); err != nil {
			return err
		}
		return s.send(sock, MessageTypeGameState, stateView{Status: sess.Status()})

	default:
		return fmt.Errorf("%w: unknown message type %q", errBadRequest, msg.Type)
	}

	if engineToMove(sess) {
		return s.engineReply(ctx, sock, sess)
	}
	return nil
}

func engineToMove(sess *game.Session) bool {
	st := sess.Status()
	return !st.GameOver && st.Turn == sess.EngineColor().String()
}

func (s *Server) engineReply(ctx context.Context, sock socket, sess *game.Session) error {
	if err := s.send(sock, MessageTypeThinking, fiber.Map{"thinking": true}); err != nil {
		return err
	}
	if delay := s.cfg.ThinkDelay(); delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	out, err := sess.EngineMove(ctx)
	if err != nil {
		return err
	}
	return s.send(sock, MessageTypeGameState, stateView{Status: sess.Status(), Outcome: viewOutcome(out)})
}

func decodePayload(msg Message, v any) error {
	if len(msg.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", errBadRequest, msg.Type, err)
	}
	return nil
}

func (s *Server) send(sock socket, t MessageType, payload any) error {
	msg, err := newMessage(t, payload)
	if err != nil {
		return err
	}
	return sock.WriteJSON(msg)
}

func (s *Server) sendError(sock socket, err error) {
	payload := fiber.Map{"error": err.Error()}
	if errors.Is(err, game.ErrIllegalMove) {
		payload["revert"] = true
	}
	if sendErr := s.send(sock, MessageTypeError, payload); sendErr != nil {
		s.log.Debug("send error", zap.Error(sendErr))
	}
}
