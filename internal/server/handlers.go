package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lacquerai/excellent/internal/events"
	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/lacquerai/excellent/internal/expression"
	pkgEvents "github.com/lacquerai/excellent/pkg/events"
	"github.com/rs/zerolog/log"
)

var errAtCapacity = errors.New("Server at capacity, try again later")

// EvaluateRequest is the body of POST /api/v1/evaluate
type EvaluateRequest struct {
	Expression string               `json:"expression"`
	Context    execcontext.Document `json:"context"`
	Strategy   string               `json:"strategy,omitempty"`
}

// RenderRequest is the body of POST /api/v1/render and of each websocket
// message sent to /api/v1/stream
type RenderRequest struct {
	Template  string               `json:"template"`
	Context   execcontext.Document `json:"context"`
	URLEncode bool                 `json:"url_encode,omitempty"`
	Strategy  string               `json:"strategy,omitempty"`
}

// HTTP Handlers

// evaluateExpression evaluates a single expression
func (s *Server) evaluateExpression(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	strategy, ctx, err := prepare(req.Strategy, &req.Context)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.manager.Acquire(KindExpression) {
		writeError(w, http.StatusServiceUnavailable, errAtCapacity.Error())
		return
	}

	start := time.Now()
	value, err := s.evaluator.EvaluateExpressionWithStrategy(req.Expression, ctx, strategy)
	var text string
	if err == nil {
		text, err = expression.ToText(value, ctx)
	}

	failures := 0
	if err != nil {
		failures = 1
	}
	s.manager.Release(KindExpression, time.Since(start), failures)

	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"value": text,
		"type":  value.Type(),
	})
}

// renderTemplate evaluates a template
func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	output, errs, err := s.render(&req)
	switch {
	case errors.Is(err, errAtCapacity):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"output": output,
		"errors": errs,
	})
}

func (s *Server) render(req *RenderRequest) (string, []string, error) {
	strategy, ctx, err := prepare(req.Strategy, &req.Context)
	if err != nil {
		return "", nil, err
	}

	if !s.manager.Acquire(KindTemplate) {
		return "", nil, errAtCapacity
	}

	start := time.Now()
	output, errs := s.evaluator.EvaluateTemplateWithStrategy(req.Template, ctx, req.URLEncode, strategy)
	s.manager.Release(KindTemplate, time.Since(start), len(errs))

	return output, errs, nil
}

// listFunctions returns the function library
func (s *Server) listFunctions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"functions": s.evaluator.Functions().ListFunctions(),
	})
}

// streamTemplates renders every template sent over the websocket and
// replies with an evaluation event for each
func (s *Server) streamTemplates(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("WebSocket closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		event := s.handleStreamMessage(data)
		if err := conn.WriteJSON(event); err != nil {
			log.Debug().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}

func (s *Server) handleStreamMessage(data []byte) pkgEvents.EvaluationEvent {
	requestID := events.NewRequestID()

	var req RenderRequest
	if err := decodeJSON(bytes.NewReader(data), &req); err != nil {
		return events.NewRejectedEvent(requestID, fmt.Errorf("Invalid JSON: %w", err))
	}

	start := time.Now()
	output, errs, err := s.render(&req)
	if err != nil {
		return events.NewRejectedEvent(requestID, err)
	}
	return events.NewTemplateEvent(requestID, req.Template, output, errs, time.Since(start))
}

// healthCheck returns server health status
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"active_evaluations": s.manager.GetActiveEvaluations(),
		"functions":          len(s.evaluator.Functions().ListFunctions()),
		"timestamp":          time.Now(),
	})
}

func prepare(strategyName string, doc *execcontext.Document) (expression.Strategy, *execcontext.EvaluationContext, error) {
	strategy, err := expression.ParseStrategy(strategyName)
	if err != nil {
		return strategy, nil, err
	}

	ctx, err := doc.Build()
	if err != nil {
		return strategy, nil, fmt.Errorf("Invalid context: %w", err)
	}
	return strategy, ctx, nil
}

func decodeJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	return decoder.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
