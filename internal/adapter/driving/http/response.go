package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/credentialhub/internal/application"
	"github.com/ericfisherdev/credentialhub/internal/domain/model"
)

// Error bodies shared by both services.
const (
	msgMissingFields  = "Missing required fields: id, name, role"
	msgInvalidBody    = "invalid request body"
	msgInternalError  = "Internal server error"
	msgRouteNotFound  = "not found"
	healthStatusOK    = "healthy"
	readinessReady    = "ready"
	readinessNotReady = "not_ready"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// IssueResponse is the body of 201 and 409 issuance responses. Timestamp is
// only present on a first issuance.
type IssueResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// VerifyResponse is the body of a successful verification. WorkerID and
// Timestamp describe the original issuance, not the verifying process.
type VerifyResponse struct {
	Message    string           `json:"message"`
	WorkerID   string           `json:"workerId"`
	Timestamp  string           `json:"timestamp"`
	Credential model.Credential `json:"credential"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	WorkerID string `json:"workerId"`
}

// ReadinessResponse reports the state of each dependency.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func toIssueResponse(res application.IssuanceResult) IssueResponse {
	resp := IssueResponse{Message: res.Message}
	if res.Outcome == application.IssueOutcomeIssued {
		resp.Timestamp = model.FormatTimestamp(res.IssuedAt)
	}
	return resp
}

func toVerifyResponse(res application.VerificationResult) VerifyResponse {
	return VerifyResponse{
		Message:    res.Message,
		WorkerID:   res.Record.IssuedBy,
		Timestamp:  model.FormatTimestamp(res.Record.IssuedAt),
		Credential: res.Record.Credential,
	}
}
