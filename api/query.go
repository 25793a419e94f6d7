package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/secondbrainhq/secondbrain/internal/agent"
	"github.com/secondbrainhq/secondbrain/internal/knowledge"
)

type queryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId,omitempty"`
}

type sourceJSON struct {
	Source     string  `json:"source"`
	SourceType string  `json:"sourceType"`
	URL        string  `json:"url,omitempty"`
	Score      float32 `json:"score"`
}

type queryResponse struct {
	Answer  string       `json:"answer"`
	Sources []sourceJSON `json:"sources"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Request body must be valid JSON.")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "Question must not be empty.")
		return
	}

	var sess *Session
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "sessionId is not a valid UUID.")
			return
		}
		var ok bool
		sess, ok = s.sessions.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "session_not_found", "Unknown session. Create one via POST /api/sessions.")
			return
		}
	}

	var history []*ai.Message
	if sess != nil {
		sess.Mu.Lock()
		defer sess.Mu.Unlock()
		history = sess.Memory.Messages()
	}

	result, err := s.asker.Ask(r.Context(), req.Question, history)
	if err != nil {
		switch {
		case errors.Is(err, agent.ErrQueryTooLong):
			writeError(w, http.StatusBadRequest, "query_too_long", "Question exceeds the maximum length.")
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful to write.
		default:
			s.logger.Error("query failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to answer the question.")
		}
		return
	}

	if sess != nil {
		sess.Memory.AddTurn(req.Question, result.Answer)
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:  result.Answer,
		Sources: toSourceJSON(result.Sources),
	})
}

func toSourceJSON(results []knowledge.SearchResult) []sourceJSON {
	out := make([]sourceJSON, 0, len(results))
	for _, res := range results {
		out = append(out, sourceJSON{
			Source:     res.Chunk.Source,
			SourceType: string(res.Chunk.SourceType),
			URL:        res.Chunk.URL,
			Score:      res.Score,
		})
	}
	return out
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	id := s.sessions.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id.String()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Session ID is not a valid UUID.")
		return
	}
	if !s.sessions.Delete(id) {
		writeError(w, http.StatusNotFound, "session_not_found", "Unknown session.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness by pinging backend storage.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "not_ready", "Storage is unavailable.")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
