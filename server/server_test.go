package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hpchess/config"
	"hpchess/engine"
	"hpchess/game"
	"hpchess/oracle"
	"hpchess/service"
)

const knightDuelFEN = "4k3/8/8/3n4/4P3/8/8/4K3 w - - 0 1"

type response struct {
	GameID  string       `json:"game_id"`
	Status  game.Status  `json:"status"`
	Outcome *outcomeView `json:"outcome"`
	Error   string       `json:"error"`
	Revert  bool         `json:"revert"`
	Square  string       `json:"square"`
	HP      int          `json:"hp"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ThinkDelayMs = 0
	games := service.NewManager(service.Defaults{
		Difficulty:  engine.Easy,
		EngineColor: oracle.Black,
	}, nil)
	return New(games, cfg, nil)
}

func do(t *testing.T, s *Server, method, path string, body any) (int, response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out response
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode, out
}

func createGame(t *testing.T, s *Server, opts service.CreateOptions) string {
	t.Helper()
	code, resp := do(t, s, http.MethodPost, "/api/game", opts)
	if code != http.StatusCreated || resp.GameID == "" {
		t.Fatalf("create game: %d %+v", code, resp)
	}
	return resp.GameID
}

func TestCreateAndGetGame(t *testing.T) {
	s := newTestServer(t)
	code, resp := do(t, s, http.MethodPost, "/api/game", nil)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if resp.Status.Turn != "white" || len(resp.Status.HP) != 32 {
		t.Fatalf("unexpected status %+v", resp.Status)
	}

	code, got := do(t, s, http.MethodGet, "/api/game/"+resp.GameID, nil)
	if code != http.StatusOK || got.Status.FEN != resp.Status.FEN {
		t.Fatalf("get game: %d %+v", code, got)
	}
}

func TestUnknownGame(t *testing.T) {
	s := newTestServer(t)
	if code, resp := do(t, s, http.MethodGet, "/api/game/nope", nil); code != http.StatusNotFound || resp.Error == "" {
		t.Fatalf("expected 404, got %d %+v", code, resp)
	}
}

func TestCreateGameRejectsBadFEN(t *testing.T) {
	s := newTestServer(t)
	if code, _ := do(t, s, http.MethodPost, "/api/game", service.CreateOptions{FEN: "x"}); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestMoveAndEngineReply(t *testing.T) {
	s := newTestServer(t)
	id := createGame(t, s, service.CreateOptions{})

	code, resp := do(t, s, http.MethodPost, "/api/game/"+id+"/move", moveRequest{From: "e2", To: "e4"})
	if code != http.StatusOK || resp.Outcome == nil || resp.Outcome.Move != "e2e4" {
		t.Fatalf("move: %d %+v", code, resp)
	}
	if resp.Status.Turn != "black" {
		t.Fatalf("turn should pass to black, got %s", resp.Status.Turn)
	}

	code, resp = do(t, s, http.MethodPost, "/api/game/"+id+"/engine", nil)
	if code != http.StatusOK || resp.Outcome == nil || !resp.Outcome.ByEngine {
		t.Fatalf("engine: %d %+v", code, resp)
	}
	if resp.Status.Turn != "white" || resp.Status.Plies != 2 || resp.Status.Thinking {
		t.Fatalf("unexpected status after engine reply %+v", resp.Status)
	}
}

func TestIllegalMoveAsksForRevert(t *testing.T) {
	s := newTestServer(t)
	id := createGame(t, s, service.CreateOptions{})
	code, resp := do(t, s, http.MethodPost, "/api/game/"+id+"/move", moveRequest{From: "e2", To: "e5"})
	if code != http.StatusBadRequest || !resp.Revert {
		t.Fatalf("expected 400 with revert, got %d %+v", code, resp)
	}
	if code, _ := do(t, s, http.MethodPost, "/api/game/"+id+"/move", moveRequest{From: "z9", To: "e4"}); code != http.StatusBadRequest {
		t.Fatalf("bad square: expected 400, got %d", code)
	}
}

func TestUnresolvedCaptureOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := createGame(t, s, service.CreateOptions{FEN: knightDuelFEN})
	code, resp := do(t, s, http.MethodPost, "/api/game/"+id+"/move", moveRequest{From: "e4", To: "d5"})
	if code != http.StatusOK || resp.Outcome.Resolved || resp.Outcome.Captured != "knight" {
		t.Fatalf("move: %d %+v", code, resp.Outcome)
	}
	if resp.Status.State != game.StatePendingCapture || resp.Status.Pending == nil || resp.Status.Pending.HP != 1 {
		t.Fatalf("expected pending capture, got %+v", resp.Status)
	}

	code, hp := do(t, s, http.MethodGet, "/api/game/"+id+"/hp/d5", nil)
	if code != http.StatusOK || hp.Square != "d5" || hp.HP != 1 {
		t.Fatalf("hp: %d %+v", code, hp)
	}
	if code, _ := do(t, s, http.MethodGet, "/api/game/"+id+"/hp/k9", nil); code != http.StatusBadRequest {
		t.Fatalf("bad square: expected 400, got %d", code)
	}
}

func TestUndoNewAndDifficulty(t *testing.T) {
	s := newTestServer(t)
	id := createGame(t, s, service.CreateOptions{})
	do(t, s, http.MethodPost, "/api/game/"+id+"/move", moveRequest{From: "d2", To: "d4"})

	code, resp := do(t, s, http.MethodPost, "/api/game/"+id+"/undo", nil)
	if code != http.StatusOK || resp.Status.Plies != 0 {
		t.Fatalf("undo: %d %+v", code, resp.Status)
	}

	code, resp = do(t, s, http.MethodPost, "/api/game/"+id+"/new", newGameRequest{FEN: knightDuelFEN})
	if code != http.StatusOK || len(resp.Status.HP) != 4 {
		t.Fatalf("new: %d %+v", code, resp.Status)
	}

	code, resp = do(t, s, http.MethodPut, "/api/game/"+id+"/difficulty", difficultyRequest{Difficulty: 3})
	if code != http.StatusOK || resp.Status.Difficulty != 3 {
		t.Fatalf("difficulty: %d %+v", code, resp.Status)
	}
	if code, _ := do(t, s, http.MethodPut, "/api/game/"+id+"/difficulty", difficultyRequest{Difficulty: 0}); code != http.StatusBadRequest {
		t.Fatalf("invalid difficulty: expected 400, got %d", code)
	}
}

func TestDeleteGame(t *testing.T) {
	s := newTestServer(t)
	id := createGame(t, s, service.CreateOptions{})
	if code, _ := do(t, s, http.MethodDelete, "/api/game/"+id, nil); code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", code)
	}
	if code, _ := do(t, s, http.MethodGet, "/api/game/"+id, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	s := newTestServer(t)
	id := createGame(t, s, service.CreateOptions{})
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/ws/game/"+id, nil), -1)
	if err != nil {
		t.Fatalf("ws request: %v", err)
	}
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

func TestStatusForTaxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrSessionNotFound, http.StatusNotFound},
		{game.ErrEngineBusy, http.StatusConflict},
		{game.ErrGameOver, http.StatusUnprocessableEntity},
		{game.ErrNoLegalMoves, http.StatusUnprocessableEntity},
		{game.ErrIllegalMove, http.StatusBadRequest},
		{game.ErrInvalidDifficulty, http.StatusBadRequest},
		{game.ErrLedgerDesync, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("%v: got %d want %d", tc.err, got, tc.want)
		}
	}
}

type recorder struct {
	messages []Message
}

func (r *recorder) WriteJSON(v interface{}) error {
	r.messages = append(r.messages, v.(Message))
	return nil
}

func (r *recorder) types() []MessageType {
	out := make([]MessageType, len(r.messages))
	for i, m := range r.messages {
		out[i] = m.Type
	}
	return out
}

func message(t *testing.T, typ MessageType, payload any) Message {
	t.Helper()
	msg, err := newMessage(typ, payload)
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	return msg
}

func TestDispatchMoveTriggersEngineReply(t *testing.T) {
	s := newTestServer(t)
	_, sess, err := s.games.Create(service.CreateOptions{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rec := &recorder{}
	if err := s.dispatch(context.Background(), rec, sess, message(t, MessageTypeMove, moveRequest{From: "e2", To: "e4"})); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := []MessageType{MessageTypeGameState, MessageTypeThinking, MessageTypeGameState}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("got messages %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got messages %v want %v", got, want)
		}
	}
	var last stateView
	if err := json.Unmarshal(rec.messages[2].Payload, &last); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if last.Outcome == nil || !last.Outcome.ByEngine || last.Status.Turn != "white" {
		t.Fatalf("unexpected engine reply %+v", last)
	}
}

func TestDispatchRejectsBadMessages(t *testing.T) {
	s := newTestServer(t)
	_, sess, _ := s.games.Create(service.CreateOptions{})
	rec := &recorder{}
	ctx := context.Background()

	if err := s.dispatch(ctx, rec, sess, Message{Type: "resign"}); !errors.Is(err, errBadRequest) {
		t.Fatalf("unknown type: expected errBadRequest, got %v", err)
	}
	if err := s.dispatch(ctx, rec, sess, Message{Type: MessageTypeMove, Payload: json.RawMessage(`{`)}); !errors.Is(err, errBadRequest) {
		t.Fatalf("bad payload: expected errBadRequest, got %v", err)
	}
	err := s.dispatch(ctx, rec, sess, message(t, MessageTypeMove, moveRequest{From: "e2", To: "e5"}))
	if !errors.Is(err, game.ErrIllegalMove) {
		t.Fatalf("illegal move: expected ErrIllegalMove, got %v", err)
	}
	s.sendError(rec, err)
	last := rec.messages[len(rec.messages)-1]
	var payload struct {
		Error  string `json:"error"`
		Revert bool   `json:"revert"`
	}
	if err := json.Unmarshal(last.Payload, &payload); err != nil || last.Type != MessageTypeError || !payload.Revert {
		t.Fatalf("unexpected error message %+v (%v)", last, err)
	}
}

func TestDispatchUndoNewDifficulty(t *testing.T) {
	s := newTestServer(t)
	_, sess, _ := s.games.Create(service.CreateOptions{})
	rec := &recorder{}
	ctx := context.Background()

	if err := s.dispatch(ctx, rec, sess, message(t, MessageTypeDifficulty, difficultyRequest{Difficulty: 2})); err != nil {
		t.Fatalf("difficulty: %v", err)
	}
	if sess.Difficulty() != engine.Medium {
		t.Fatalf("difficulty not applied")
	}
	if err := s.dispatch(ctx, rec, sess, message(t, MessageTypeMove, moveRequest{From: "g1", To: "f3"})); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := s.dispatch(ctx, rec, sess, Message{Type: MessageTypeUndo}); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if sess.Status().Plies != 0 {
		t.Fatalf("undo should remove the move and the reply")
	}
	if err := s.dispatch(ctx, rec, sess, Message{Type: MessageTypeNew}); err != nil {
		t.Fatalf("new: %v", err)
	}
	if rec.messages[len(rec.messages)-1].Type != MessageTypeGameState {
		t.Fatalf("new game should push the state")
	}
}
