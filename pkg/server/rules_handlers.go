package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"aoss-hq/sentinel/pkg/rules"
	"aoss-hq/sentinel/pkg/rules/ast"
	"aoss-hq/sentinel/pkg/rules/parser"
)

// wireRule is the JSON shape of a rule on the administration surface.
type wireRule struct {
	ID           string         `json:"id"`
	Layer        string         `json:"layer"`
	Description  string         `json:"description,omitempty"`
	Effect       string         `json:"effect"`
	Scope        *wireScope     `json:"scope,omitempty"`
	When         *wireCondition `json:"when,omitempty"`
	Version      int            `json:"version"`
	Active       bool           `json:"active"`
	SupersededBy string         `json:"superseded_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// wireScope is the JSON shape of a rule scope.
type wireScope struct {
	ResourceType string `json:"resource_type,omitempty"`
	Region       string `json:"region,omitempty"`
	Service      string `json:"service,omitempty"`
}

// wireCondition mirrors the rule-file predicate schema in JSON.
type wireCondition struct {
	Field string      `json:"field,omitempty"`
	Op    string      `json:"op,omitempty"`
	Value interface{} `json:"value,omitempty"`

	All []*wireCondition `json:"all,omitempty"`
	Any []*wireCondition `json:"any,omitempty"`
	Not *wireCondition   `json:"not,omitempty"`
}

// handleListRules serves the rule set, optionally filtered by layer.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	var layer ast.Layer
	if l := r.URL.Query().Get("layer"); l != "" {
		layer = ast.Layer(l)
		if !layer.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown layer "+strconv.Quote(l))
			return
		}
	}
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	list, err := s.deps.Rules.List(r.Context(), layer, includeInactive)
	if err != nil {
		s.logger.Error("rule list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "rule list failed")
		return
	}

	out := make([]*wireRule, 0, len(list))
	for _, rule := range list {
		out = append(out, toWireRule(rule))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": out,
		"count": len(out),
	})
}

// handleGetRule serves the latest version of one rule.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rule, err := s.deps.Rules.Get(r.Context(), id)
	if err != nil {
		s.writeRuleError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, toWireRule(rule))
}

// handleCreateRule adds a new rule to the store.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	rule, ok := s.parseRuleBody(w, r)
	if !ok {
		return
	}

	if err := s.deps.Rules.Create(r.Context(), rule); err != nil {
		s.writeRuleError(w, rule.ID, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWireRule(rule))
}

// handleSupersedeRule replaces a rule with a new version. The prior
// version stays on file, marked superseded.
func (s *Server) handleSupersedeRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	replacement, ok := s.parseRuleBody(w, r)
	if !ok {
		return
	}
	if replacement.ID != id {
		writeError(w, http.StatusBadRequest, "rule id in body must match the path")
		return
	}

	created, err := s.deps.Rules.Supersede(r.Context(), id, replacement)
	if err != nil {
		s.writeRuleError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, toWireRule(created))
}

// handleDeactivateRule marks a rule inactive without removing it.
func (s *Server) handleDeactivateRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.deps.Rules.Deactivate(r.Context(), id); err != nil {
		s.writeRuleError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deactivated"})
}

// parseRuleBody reads one rule from the request body and validates it
// through the rule-file parser, so the API and the file source enforce
// identical structural rules. JSON is parsed by the YAML reader.
func (s *Server) parseRuleBody(w http.ResponseWriter, r *http.Request) (*ast.PolicyRule, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}

	var envelope struct {
		Layer string `json:"layer"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return nil, false
	}

	doc, err := json.Marshal(map[string]interface{}{
		"layer": envelope.Layer,
		"rules": []json.RawMessage{body},
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule body")
		return nil, false
	}

	file, err := s.parser.ParseBytes(doc, "api")
	if err != nil {
		var parseErr *parser.ParseError
		if errors.As(err, &parseErr) {
			writeError(w, http.StatusBadRequest, parseErr.Error())
			return nil, false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return file.Rules[0], true
}

// writeRuleError maps store errors to HTTP statuses.
func (s *Server) writeRuleError(w http.ResponseWriter, id string, err error) {
	var notFound *rules.NotFoundError
	if errors.As(err, &notFound) {
		writeError(w, http.StatusNotFound, notFound.Error())
		return
	}
	var conflict *rules.ConflictError
	if errors.As(err, &conflict) {
		writeError(w, http.StatusConflict, conflict.Error())
		return
	}
	s.logger.Error("rule operation failed", "rule_id", id, "error", err)
	writeError(w, http.StatusInternalServerError, "rule operation failed")
}

func toWireRule(r *ast.PolicyRule) *wireRule {
	return &wireRule{
		ID:           r.ID,
		Layer:        string(r.Layer),
		Description:  r.Description,
		Effect:       string(r.Effect),
		Scope:        toWireScope(r.Scope),
		When:         toWireCondition(r.Predicate),
		Version:      r.Version,
		Active:       r.Active,
		SupersededBy: r.SupersededBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toWireScope(s *ast.Scope) *wireScope {
	if s.IsEmpty() {
		return nil
	}
	return &wireScope{
		ResourceType: s.ResourceType,
		Region:       s.Region,
		Service:      s.Service,
	}
}

func toWireCondition(c *ast.ConditionNode) *wireCondition {
	if c == nil {
		return nil
	}
	switch c.Type {
	case ast.ConditionTypeAll:
		return &wireCondition{All: toWireChildren(c.Children)}
	case ast.ConditionTypeAny:
		return &wireCondition{Any: toWireChildren(c.Children)}
	case ast.ConditionTypeNot:
		if len(c.Children) == 1 {
			return &wireCondition{Not: toWireCondition(c.Children[0])}
		}
		return nil
	default:
		return &wireCondition{
			Field: c.Field,
			Op:    string(c.Operator),
			Value: c.Value,
		}
	}
}

func toWireChildren(children []*ast.ConditionNode) []*wireCondition {
	out := make([]*wireCondition, 0, len(children))
	for _, child := range children {
		out = append(out, toWireCondition(child))
	}
	return out
}
