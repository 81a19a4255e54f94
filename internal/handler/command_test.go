package handler

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
)

func TestCommandStagesConfession(t *testing.T) {
	h, workflow, responder := newTestHandler()

	rec := serve(h, signedRequest("/slack/command", "application/x-www-form-urlencoded", commandBody("hello")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if workflow.stagedText != "hello" || workflow.stagedUser != "U123" {
		t.Fatalf("workflow got text=%q user=%q", workflow.stagedText, workflow.stagedUser)
	}
	if len(responder.ephemeralTexts) != 1 || responder.ephemeralTexts[0] != ackText {
		t.Fatalf("expected ack ephemeral, got %v", responder.ephemeralTexts)
	}
	if responder.ephemeralURLs[0] != "https://hooks.slack.test/response/abc" {
		t.Fatalf("ephemeral sent to wrong URL: %s", responder.ephemeralURLs[0])
	}
}

func TestCommandTrimsAndRejectsEmptyText(t *testing.T) {
	h, workflow, responder := newTestHandler()

	rec := serve(h, signedRequest("/slack/command", "application/x-www-form-urlencoded", commandBody("   ")))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if workflow.stagedText != "" {
		t.Fatal("workflow must not run for an empty confession")
	}
	if len(responder.ephemeralTexts) != 1 || responder.ephemeralTexts[0] != emptyText {
		t.Fatalf("expected empty-text ephemeral, got %v", responder.ephemeralTexts)
	}
}

func TestCommandWorkflowFailureIsSurfacedEphemerally(t *testing.T) {
	h, workflow, responder := newTestHandler()
	workflow.stageErr = errors.New("store write failed: connection refused")

	rec := serve(h, signedRequest("/slack/command", "application/x-www-form-urlencoded", commandBody("hello")))

	// Never a raw HTTP error toward the user's UI layer.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(responder.ephemeralTexts) != 1 || responder.ephemeralTexts[0] != workflowFailed {
		t.Fatalf("expected failure ephemeral, got %v", responder.ephemeralTexts)
	}
	// Internal detail is logged, never echoed to the user.
	if responder.ephemeralTexts[0] == workflow.stageErr.Error() {
		t.Fatal("internal error detail leaked to the user")
	}
}

func TestCommandMissingFieldsIsBadRequest(t *testing.T) {
	h, workflow, _ := newTestHandler()

	form := url.Values{}
	form.Set("command", "/confess")
	form.Set("text", "hello")
	body := []byte(form.Encode())

	rec := serve(h, signedRequest("/slack/command", "application/x-www-form-urlencoded", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if workflow.stagedText != "" {
		t.Fatal("workflow must not run for a malformed payload")
	}
}
