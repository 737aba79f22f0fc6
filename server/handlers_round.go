package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Ashenafi-pixel/limbo-crash-engine/round"

	"github.com/shopspring/decimal"
)

// RoundStartRequest is the body for POST /api/round/start.
type RoundStartRequest struct {
	BetAmount        decimal.Decimal `json:"betAmount"`
	TargetMultiplier float64         `json:"targetMultiplier"`
}

// RoundStartResponse reports whether the engine accepted the round.
// A rejected start is not an error: the caller is expected to gate the action with can-start.
type RoundStartResponse struct {
	Accepted bool        `json:"accepted"`
	State    round.State `json:"state"`
}

func (req RoundStartRequest) config() round.Config {
	return round.Config{Bet: req.BetAmount, Target: req.TargetMultiplier}
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) roundStart(w http.ResponseWriter, r *http.Request) {
	var req RoundStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	accepted := s.engine.Start(req.config())
	writeJSON(w, http.StatusOK, RoundStartResponse{
		Accepted: accepted,
		State:    s.engine.State(),
	})
}

func (s *Server) roundReset(w http.ResponseWriter, r *http.Request) {
	s.engine.Reset()
	writeJSON(w, http.StatusOK, s.engine.State())
}

// canStart answers GET /api/round/can-start?betAmount=10&targetMultiplier=2.
func (s *Server) canStart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bet, err := decimal.NewFromString(q.Get("betAmount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "betAmount must be a number", "INVALID_QUERY")
		return
	}
	target, err := strconv.ParseFloat(q.Get("targetMultiplier"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "targetMultiplier must be a number", "INVALID_QUERY")
		return
	}
	ok := s.engine.CanStart(round.Config{Bet: bet, Target: target})
	writeJSON(w, http.StatusOK, map[string]bool{"canStart": ok})
}

// stream upgrades to a websocket that receives the current state, then every update.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r, func() ([]byte, error) {
		return json.Marshal(s.engine.State())
	})
}
