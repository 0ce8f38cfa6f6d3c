package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"vrpsolve/internal/metrics"
	"vrpsolve/internal/model"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SolveWSHandler handles /v1/solve/ws. The client sends one solve frame and
// receives progress frames followed by the solution or an error frame.
func (s *Server) SolveWSHandler(w http.ResponseWriter, r *http.Request) {
	p := s.getPrincipal(r)
	if !p.CanSolve() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "planner or admin required", r.URL.Path)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	var frame wsFrame
	if err := conn.ReadJSON(&frame); err != nil {
		return
	}
	if frame.Type != "solve" {
		_ = conn.WriteJSON(wsFrame{Type: "error", Data: errJSON("expected a solve frame")})
		return
	}
	var req model.SolveRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		_ = conn.WriteJSON(wsFrame{Type: "error", Data: errJSON(err.Error())})
		return
	}
	if err := validateSolveRequest(&req); err != nil {
		_ = conn.WriteJSON(wsFrame{Type: "error", Data: errJSON(err.Error())})
		return
	}
	if req.TenantID == "" {
		req.TenantID = p.Tenant
	}

	// progress events flow through a channel so the socket has one writer
	type progress struct {
		Iteration int   `json:"iteration"`
		Cost      int64 `json:"cost"`
	}
	progCh := make(chan progress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for pr := range progCh {
			b, _ := json.Marshal(pr)
			if err := conn.WriteJSON(wsFrame{Type: "progress", Data: b}); err != nil {
				return
			}
		}
	}()

	prob, err := s.Runner.resolveProblem(r.Context(), req.TenantID, req)
	if err != nil {
		close(progCh)
		<-done
		_ = conn.WriteJSON(wsFrame{Type: "error", Data: errJSON(err.Error())})
		return
	}
	params := s.solveParams(req)
	params.OnImprove = func(iteration int, cost int64) {
		select {
		case progCh <- progress{Iteration: iteration, Cost: cost}:
		default:
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()
	sol, m, solveErr := s.runEngine(ctx, prob, params)
	close(progCh)
	<-done

	if solveErr != nil {
		metrics.SolveJobs.WithLabelValues("failed").Inc()
		_ = conn.WriteJSON(wsFrame{Type: "error", Data: errJSON(solveErr.Error())})
		return
	}
	result, _ := json.Marshal(map[string]any{
		"solution": sol,
		"stats": map[string]any{
			"iterations": m.Iterations,
			"elapsedMs":  m.Elapsed.Milliseconds(),
		},
	})
	_ = conn.WriteJSON(wsFrame{Type: "solution", Data: result})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(time.Second))
}

func errJSON(msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}
