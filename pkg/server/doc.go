// Package server provides the sentinel HTTP API.
//
// The decision surface evaluates action requests and serves the
// recorded trail:
//
//	POST /v1/decisions              evaluate a request and record the decision
//	GET  /v1/decisions              list recorded decisions
//	GET  /v1/decisions/{request_id} fetch one recorded decision
//
// The administration surface manages the versioned rule set:
//
//	GET  /v1/rules                  list rules
//	POST /v1/rules                  create a rule
//	GET  /v1/rules/{id}             fetch the latest version of a rule
//	POST /v1/rules/{id}/supersede   replace a rule with a new version
//	POST /v1/rules/{id}/deactivate  deactivate a rule
//
// Operational endpoints: GET /healthz and, when enabled, the
// Prometheus metrics path.
package server
