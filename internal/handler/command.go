package handler

import (
	"net/http"
	"net/url"
	"strings"

	"slack-confessions/internal/logger"
)

// User-facing texts. Internal error detail is logged, never echoed.
const (
	ackText        = "Your confession has been submitted for review."
	emptyText      = "Nothing to confess? Add your confession after the command."
	workflowFailed = "Sorry, something went wrong submitting your confession. Please try again."
)

// handleCommand processes a slash-command invocation. Workflow failures
// are reported asynchronously through response_url; the HTTP response to
// Slack itself is always 200 so the user never sees a raw error page.
func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request, body []byte, reqID string) {
	incrementCounter(&totalCommands)

	form, err := url.ParseQuery(string(body))
	if err != nil {
		logger.Warningf("[%s] malformed command payload: %v", reqID, err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	responseURL := form.Get("response_url")
	userID := form.Get("user_id")
	text := strings.TrimSpace(form.Get("text"))

	if responseURL == "" || userID == "" {
		logger.Warningf("[%s] command payload missing response_url or user_id", reqID)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	logger.Infof("[%s] %s invocation by %s", reqID, form.Get("command"), userID)

	if text == "" {
		h.respondEphemeral(responseURL, emptyText, reqID)
		w.WriteHeader(http.StatusOK)
		return
	}

	if _, err := h.workflow.Stage(text, userID); err != nil {
		incrementCounter(&totalErrors)
		logger.Errorf("[%s] staging failed: %v", reqID, err)
		h.respondEphemeral(responseURL, workflowFailed, reqID)
		w.WriteHeader(http.StatusOK)
		return
	}

	incrementCounter(&totalStaged)
	h.respondEphemeral(responseURL, ackText, reqID)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) respondEphemeral(responseURL, text, reqID string) {
	if err := h.responder.SendEphemeral(responseURL, text); err != nil {
		logger.Warningf("[%s] ephemeral response not delivered: %v", reqID, err)
	}
}
