// Package httphandler is the HTTP driving adapter for the issuance and
// verification services.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/credentialhub/internal/application"
	"github.com/ericfisherdev/credentialhub/internal/domain/model"
)

// maxBodyBytes caps the size of a credential payload.
const maxBodyBytes = 1 << 20

// IssuanceHandler serves POST /issue.
type IssuanceHandler struct {
	svc     *application.IssuanceService
	metrics *Metrics
	logger  *slog.Logger
}

// NewIssuanceHandler creates an IssuanceHandler.
func NewIssuanceHandler(svc *application.IssuanceService, metrics *Metrics, logger *slog.Logger) *IssuanceHandler {
	return &IssuanceHandler{svc: svc, metrics: metrics, logger: logger}
}

// Issue issues the credential in the request body.
func (h *IssuanceHandler) Issue(w http.ResponseWriter, r *http.Request) {
	cred, ok := decodeCredential(w, r, h.logger)
	if !ok {
		h.metrics.recordOutcome(opIssue, outcomeInvalid)
		return
	}

	res, err := h.svc.Issue(r.Context(), cred)
	if err != nil {
		if errors.Is(err, model.ErrMissingRequiredFields) {
			h.logger.Warn("invalid credential data", "id", cred.ID)
			h.metrics.recordOutcome(opIssue, outcomeInvalid)
			writeError(w, http.StatusBadRequest, msgMissingFields)
			return
		}
		h.metrics.recordOutcome(opIssue, outcomeError)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	if res.Outcome != application.IssueOutcomeIssued {
		h.metrics.recordOutcome(opIssue, outcomeAlreadyIssued)
		writeJSON(w, http.StatusConflict, toIssueResponse(res))
		return
	}

	h.metrics.recordOutcome(opIssue, outcomeIssued)
	writeJSON(w, http.StatusCreated, toIssueResponse(res))
}

// VerificationHandler serves POST /verify.
type VerificationHandler struct {
	svc     *application.VerificationService
	metrics *Metrics
	logger  *slog.Logger
}

// NewVerificationHandler creates a VerificationHandler.
func NewVerificationHandler(svc *application.VerificationService, metrics *Metrics, logger *slog.Logger) *VerificationHandler {
	return &VerificationHandler{svc: svc, metrics: metrics, logger: logger}
}

// Verify checks the credential in the request body against the issued record.
func (h *VerificationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	cred, ok := decodeCredential(w, r, h.logger)
	if !ok {
		h.metrics.recordOutcome(opVerify, outcomeInvalid)
		return
	}

	res, err := h.svc.Verify(r.Context(), cred)
	if err != nil {
		if errors.Is(err, model.ErrMissingRequiredFields) {
			h.logger.Warn("invalid credential data", "id", cred.ID)
			h.metrics.recordOutcome(opVerify, outcomeInvalid)
			writeError(w, http.StatusBadRequest, msgMissingFields)
			return
		}
		h.metrics.recordOutcome(opVerify, outcomeError)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	if res.Outcome != application.VerifyOutcomeVerified {
		h.metrics.recordOutcome(opVerify, outcomeNotFound)
		writeError(w, http.StatusNotFound, res.Message)
		return
	}

	h.metrics.recordOutcome(opVerify, outcomeVerified)
	writeJSON(w, http.StatusOK, toVerifyResponse(res))
}

// decodeCredential reads the request body into a Credential. An empty body
// decodes to an empty credential so that it fails validation like a body
// with missing fields. The body must hold exactly one JSON value. On failure
// a 400 has already been written.
func decodeCredential(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (model.Credential, bool) {
	var cred model.Credential
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(&cred)
	if errors.Is(err, io.EOF) {
		return model.Credential{}, true
	}
	if err == nil {
		err = expectEOF(dec)
	}
	if err == nil {
		return cred, true
	}

	logger.Warn("invalid request body", "error", err)
	writeError(w, http.StatusBadRequest, msgInvalidBody)
	return model.Credential{}, false
}

var errTrailingData = errors.New("unexpected data after JSON value")

func expectEOF(dec *json.Decoder) error {
	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return errTrailingData
	}
}

// Pinger is implemented by stores that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	workerID string
	pinger   Pinger
}

// NewHealthHandler creates a HealthHandler. pinger may be nil, in which case
// readiness only reflects that the process is serving.
func NewHealthHandler(workerID string, pinger Pinger) *HealthHandler {
	return &HealthHandler{workerID: workerID, pinger: pinger}
}

// Health returns the process status and worker id.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   healthStatusOK,
		WorkerID: h.workerID,
	})
}

// Ready pings the store and returns 503 when it is unreachable. Failure
// details are not exposed.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	resp := ReadinessResponse{Status: readinessReady, Checks: map[string]string{}}
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			resp.Status = readinessNotReady
			resp.Checks["database"] = "down"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Checks["database"] = "up"
	}
	writeJSON(w, http.StatusOK, resp)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, msgRouteNotFound)
}
