// Package handler exposes the two Slack-facing HTTP endpoints: the slash
// command receiver and the events/interactions receiver. Both validate
// authenticity before any business logic runs.
package handler

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"slack-confessions/internal/logger"
	"slack-confessions/internal/models"
	"slack-confessions/internal/slack"
)

const (
	timestampHeader = "X-Slack-Request-Timestamp"
	signatureHeader = "X-Slack-Signature"

	// Slack payloads are small; anything larger is hostile.
	maxBodySize = 1 << 20
)

// Workflow is the moderation surface the handlers dispatch into.
type Workflow interface {
	Stage(text, submitterID string) (*models.Confession, error)
	View(stagingTS string, approved bool) error
}

// Responder sends user-facing acknowledgments back into Slack.
type Responder interface {
	SendEphemeral(responseURL, text string) error
	PostMessage(channel, text string, blocks []slack.Block) (slack.MessageHandle, error)
}

// Handler routes inbound Slack deliveries to the moderation workflow.
type Handler struct {
	verifier  *slack.Verifier
	guard     *slack.ReplayGuard
	workflow  Workflow
	responder Responder
}

// New creates a Handler with all collaborators injected.
func New(verifier *slack.Verifier, guard *slack.ReplayGuard, workflow Workflow, responder Responder) *Handler {
	return &Handler{
		verifier:  verifier,
		guard:     guard,
		workflow:  workflow,
		responder: responder,
	}
}

// Register mounts the Slack endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/slack/command", h.secured(h.handleCommand))
	mux.HandleFunc("/slack/events", h.secured(h.handleEvents))
}

// secured wraps an endpoint with the pre-business-logic checks: POST
// only, bounded raw body, replay guard, then signature verification. A
// replayed delivery carries a byte-identical signature, so the signature
// header doubles as the replay key; it is checked before the HMAC
// verdict is trusted.
func (h *Handler) secured(next func(w http.ResponseWriter, r *http.Request, body []byte, reqID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()[:8]

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			logger.Warningf("[%s] failed to read request body: %v", reqID, err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		sig := r.Header.Get(signatureHeader)
		if h.guard.IsDuplicate(sig) {
			incrementCounter(&totalReplaysRejected)
			logger.Warningf("[%s] duplicate delivery rejected: %s %s", reqID, r.Method, r.URL.Path)
			http.Error(w, "duplicate delivery", http.StatusUnauthorized)
			return
		}

		if !h.verifier.Verify(body, r.Header.Get(timestampHeader), sig) {
			incrementCounter(&totalAuthFailures)
			logger.Warningf("[%s] signature verification failed from %s", reqID, r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		next(w, r, body, reqID)
	}
}
