package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dshills/stepgraph/graph"
	"github.com/dshills/stepgraph/graph/emit"
	"github.com/dshills/stepgraph/graph/store"
	"github.com/dshills/stepgraph/workflow/codereview"
	"github.com/go-chi/chi/v5"
)

// CreateGraphRequest is the body of POST /graph/create.
type CreateGraphRequest struct {
	Name             string            `json:"name,omitempty"`
	Nodes            []string          `json:"nodes"`
	Edges            map[string]string `json:"edges"`
	ConditionalEdges map[string]string `json:"conditional_edges,omitempty"`
	EntryPoint       string            `json:"entry_point,omitempty"`
}

// CreateGraphResponse is returned by POST /graph/create.
type CreateGraphResponse struct {
	GraphID string `json:"graph_id"`
	Message string `json:"message"`
}

// RunGraphRequest is the body of POST /graph/run. Without a graph ID the
// built-in code review graph runs.
type RunGraphRequest struct {
	GraphID      string      `json:"graph_id,omitempty"`
	InitialState graph.State `json:"initial_state"`
}

// RunGraphResponse is returned by a successful POST /graph/run.
type RunGraphResponse struct {
	RunID  string    `json:"run_id"`
	Status string    `json:"status"`
	Result RunResult `json:"result"`
}

// RunResult is the engine's result as reported over HTTP.
type RunResult struct {
	FinalState graph.State      `json:"final_state"`
	Logs       []graph.LogEntry `json:"logs"`
	Steps      int              `json:"steps"`
	Reason     graph.Reason     `json:"reason"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) createGraph(w http.ResponseWriter, r *http.Request) {
	var req CreateGraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("create graph: invalid request body", "error", err)
		return
	}

	def := codereview.Definition{
		Nodes:            req.Nodes,
		Edges:            req.Edges,
		ConditionalEdges: req.ConditionalEdges,
		EntryPoint:       req.EntryPoint,
	}
	if err := s.catalog.Validate(def); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := store.GraphRecord{
		ID:               s.newID(),
		Name:             req.Name,
		Nodes:            req.Nodes,
		Edges:            req.Edges,
		ConditionalEdges: req.ConditionalEdges,
		EntryPoint:       req.EntryPoint,
		CreatedAt:        s.now(),
	}
	if rec.Nodes == nil {
		rec.Nodes = []string{}
	}
	if rec.Edges == nil {
		rec.Edges = map[string]string{}
	}

	if err := s.store.SaveGraph(r.Context(), rec); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to save graph")
		s.logger.Error("create graph: save failed", "graph_id", rec.ID, "error", err)
		return
	}

	s.logger.Info("graph created", "graph_id", rec.ID, "nodes", len(rec.Nodes))
	s.writeJSON(w, http.StatusOK, CreateGraphResponse{GraphID: rec.ID, Message: "Graph structure saved"})
}

func (s *Server) runGraph(w http.ResponseWriter, r *http.Request) {
	var req RunGraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("run graph: invalid request body", "error", err)
		return
	}

	def := codereview.BuiltIn()
	if req.GraphID != "" {
		rec, err := s.store.GetGraph(r.Context(), req.GraphID)
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Graph ID not found")
			return
		}
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to load graph")
			s.logger.Error("run graph: load failed", "graph_id", req.GraphID, "error", err)
			return
		}
		def = codereview.Definition{
			Nodes:            rec.Nodes,
			Edges:            rec.Edges,
			ConditionalEdges: rec.ConditionalEdges,
			EntryPoint:       rec.EntryPoint,
		}
	}

	g, err := s.catalog.Build(def)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	initial := req.InitialState
	if initial == nil {
		initial = graph.State{}
	}

	runID := s.newID()
	defer s.history.Clear(runID)

	res, runErr := s.engine.RunWithID(r.Context(), runID, g, initial)

	rec := store.RunRecord{
		ID:        runID,
		GraphID:   req.GraphID,
		CreatedAt: s.now(),
	}
	if runErr != nil {
		rec.Status = store.StatusFailed
		rec.Error = runErr.Error()
		rec.ErrorCode = graph.ErrorCode(runErr)
		rec.Logs = s.partialLog(runID)
		rec.Steps = len(rec.Logs)
	} else {
		rec.Status = store.StatusCompleted
		rec.FinalState = res.State
		rec.Logs = res.Log
		rec.Steps = res.Steps
		rec.Reason = res.Reason
	}

	if err := s.store.SaveRun(r.Context(), rec); err != nil {
		s.logger.Error("run graph: save failed", "run_id", runID, "error", err)
		if runErr == nil {
			s.writeError(w, http.StatusInternalServerError, "failed to save run")
			return
		}
	}

	if runErr != nil {
		s.logger.Error("run failed", "run_id", runID, "code", rec.ErrorCode, "error", runErr)
		s.writeError(w, http.StatusInternalServerError, runErr.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, RunGraphResponse{
		RunID:  runID,
		Status: string(store.StatusCompleted),
		Result: RunResult{
			FinalState: res.State,
			Logs:       res.Log,
			Steps:      res.Steps,
			Reason:     res.Reason,
		},
	})
}

// partialLog rebuilds the log of a failed run from its node_start events.
// The failing node is included since its entry is written before it runs;
// a missing node never starts, so it is appended from the run_error event.
func (s *Server) partialLog(runID string) []graph.LogEntry {
	var log []graph.LogEntry
	for _, ev := range s.history.GetHistory(runID) {
		switch ev.Msg {
		case emit.MsgNodeStart:
			log = append(log, graph.LogEntry{Step: ev.Step, Node: ev.NodeID})
		case emit.MsgRunError:
			if ev.NodeID != "" && ev.Step > 0 {
				log = append(log, graph.LogEntry{Step: ev.Step, Node: ev.NodeID})
			}
		}
	}
	return log
}

func (s *Server) getRunState(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")

	rec, err := s.store.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Run ID not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load run")
		s.logger.Error("get run: load failed", "run_id", runID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		s.logger.Error("list runs failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graph_id")

	rec, err := s.store.GetGraph(r.Context(), graphID)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Graph ID not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load graph")
		s.logger.Error("get graph: load failed", "graph_id", graphID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// pinger is implemented by stores backed by a remote service.
type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Warn("health check: store unreachable", "error", err)
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}
