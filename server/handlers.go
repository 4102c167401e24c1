package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"hpchess/engine"
	"hpchess/game"
	"hpchess/oracle"
	"hpchess/service"
)

// parseBody decodes an optional JSON body into v.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) session(c *fiber.Ctx) (*game.Session, error) {
	return s.games.Get(c.Params("gameId"))
}

func (s *Server) createGame(c *fiber.Ctx) error {
	var req service.CreateOptions
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}
	id, sess, err := s.games.Create(req)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"game_id": id,
		"status":  sess.Status(),
	})
}

func (s *Server) getGame(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(stateView{Status: sess.Status()})
}

func (s *Server) deleteGame(c *fiber.Ctx) error {
	if err := s.games.Delete(c.Params("gameId")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) submitMove(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.fail(c, err)
	}
	var req moveRequest
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}
	from, to, promotion, err := req.parse()
	if err != nil {
		return s.fail(c, err)
	}
	out, err := sess.SubmitMove(from, to, promotion)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(stateView{Status: sess.Status(), Outcome: viewOutcome(out)})
}

func (s *Server) engineMove(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.fail(c, err)
	}
	out, err := sess.EngineMove(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(stateView{Status: sess.Status(), Outcome: viewOutcome(out)})
}

func (s *Server) undo(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.fail(c, err)
	}
	if err := sess.Undo(); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(stateView{Status: sess.Status()})
}

func (s *Server) newGame(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.fail(c, err)
	}
	var req newGameRequest
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}
	if req.FEN != "" {
		err = sess.NewGameFromFEN(req.FEN)
	} else {
		err = sess.NewGame()
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(stateView{Status: sess.Status()})
}

func (s *Server) setDifficulty(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.fail(c, err)
	}
	var req difficultyRequest
	if err := parseBody(c, &req); err != nil {
		return s.fail(c, err)
	}
	if err := sess.SetDifficulty(engine.Difficulty(req.Difficulty)); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(stateView{Status: sess.Status()})
}

func (s *Server) hp(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return s.fail(c, err)
	}
	sq, err := oracle.ParseSquare(c.Params("square"))
	if err != nil {
		return s.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
	}
	return c.JSON(fiber.Map{
		"square": sq.String(),
		"hp":     sess.HP(sq),
	})
}
