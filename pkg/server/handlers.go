package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"aoss-hq/sentinel/pkg/decision"
	"aoss-hq/sentinel/pkg/engine"
	"aoss-hq/sentinel/pkg/normalize"
	"aoss-hq/sentinel/pkg/request"
)

// maxRequestBody bounds API request bodies.
const maxRequestBody = 1 << 20

// handleEvaluate evaluates an action request and records the decision.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req request.ActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := s.deps.Evaluator.Evaluate(r.Context(), &req)
	if err != nil {
		var inputErr *request.InputError
		if errors.As(err, &inputErr) {
			writeError(w, http.StatusBadRequest, inputErr.Error())
			return
		}
		s.logger.Error("evaluation failed", "request_id", req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	s.observeDecision(d)

	// The decision must be durable before the caller sees it; an
	// unrecordable decision is a server failure, not an allow.
	if _, err := s.deps.Recorder.RecordSync(r.Context(), d); err != nil {
		var integrity *decision.IntegrityError
		if errors.As(err, &integrity) {
			s.metricsRecordWrite("conflict")
			writeError(w, http.StatusConflict, integrity.Error())
			return
		}
		s.metricsRecordWrite("error")
		s.logger.Error("failed to record decision", "request_id", req.ID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "decision could not be recorded")
		return
	}
	s.metricsRecordWrite("stored")

	writeJSON(w, http.StatusOK, d)
}

// handleGetDecision serves one recorded decision.
func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("request_id")

	record, err := s.deps.Decisions.Get(r.Context(), requestID)
	if err != nil {
		var notFound *decision.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, notFound.Error())
			return
		}
		s.logger.Error("decision lookup failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, "decision lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleListDecisions serves the recorded trail with optional filters.
func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	filter := decision.Filter{}

	if outcome := r.URL.Query().Get("outcome"); outcome != "" {
		filter.Outcome = engine.Outcome(outcome)
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	records, err := s.deps.Decisions.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("decision list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "decision list failed")
		return
	}
	if records == nil {
		records = []*decision.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"decisions": records,
		"count":     len(records),
	})
}

// observeDecision feeds the metrics collector from one decision.
func (s *Server) observeDecision(d *engine.Decision) {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.RecordDecision(string(d.Outcome), d.Elapsed)
	for _, m := range d.MatchedRules {
		s.deps.Metrics.RecordRuleFire(string(m.Layer), string(m.Effect))
	}
	for _, sub := range d.SubActions {
		if sub.Technique != string(normalize.TechniqueNone) {
			s.deps.Metrics.RecordTechnique(sub.Technique)
		}
	}
}

func (s *Server) metricsRecordWrite(status string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordDecisionWrite(status)
	}
}

// decodeJSON decodes a request body with a size cap.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
