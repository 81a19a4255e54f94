package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"slack-confessions/internal/logger"
	"slack-confessions/internal/slack"
)

const dmHint = "Confessions are anonymous. Use the /confess command in any channel instead of messaging me directly."

// eventWrapper is the Events API envelope.
type eventWrapper struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	Event     json.RawMessage `json:"event"`
	EventID   string          `json:"event_id"`
}

// innerEvent is the subset of event fields this bot inspects.
type innerEvent struct {
	Type        string `json:"type"`
	Channel     string `json:"channel"`
	ChannelType string `json:"channel_type"`
	BotID       string `json:"bot_id"`
}

// interactionPayload is the block_actions envelope delivered when a
// moderator clicks a button on a staging message.
type interactionPayload struct {
	Type    string `json:"type"`
	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`
	Message struct {
		TS string `json:"ts"`
	} `json:"message"`
}

// handleEvents processes the events/interactions endpoint. Interactions
// arrive form-encoded with the JSON envelope in a `payload` field; Events
// API deliveries arrive as plain JSON discriminated by `type`.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request, body []byte, reqID string) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		form, err := url.ParseQuery(string(body))
		if err != nil || form.Get("payload") == "" {
			logger.Warningf("[%s] malformed interaction payload", reqID)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		h.handleInteraction(w, []byte(form.Get("payload")), reqID)
		return
	}

	var wrapper eventWrapper
	if err := json.Unmarshal(body, &wrapper); err != nil {
		logger.Warningf("[%s] malformed event payload: %v", reqID, err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch wrapper.Type {
	case "url_verification":
		// Platform handshake, no business logic.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"challenge": wrapper.Challenge})

	case "event_callback":
		h.handleEventCallback(wrapper, reqID)
		w.WriteHeader(http.StatusOK)

	default:
		logger.Infof("[%s] ignoring event of type %q", reqID, wrapper.Type)
		w.WriteHeader(http.StatusOK)
	}
}

// handleEventCallback reacts to inner events. The only one with behavior
// is a direct message to the bot, which gets a hint to use the slash
// command instead.
func (h *Handler) handleEventCallback(wrapper eventWrapper, reqID string) {
	var event innerEvent
	if err := json.Unmarshal(wrapper.Event, &event); err != nil {
		logger.Warningf("[%s] malformed inner event: %v", reqID, err)
		return
	}

	// Ignore our own messages to prevent loops.
	if event.Type != "message" || event.ChannelType != "im" || event.BotID != "" {
		return
	}

	if _, err := h.responder.PostMessage(event.Channel, dmHint, nil); err != nil {
		logger.Warningf("[%s] DM hint not delivered: %v", reqID, err)
	}
}

// handleInteraction routes a moderation button click into the workflow.
func (h *Handler) handleInteraction(w http.ResponseWriter, payload []byte, reqID string) {
	incrementCounter(&totalInteractions)

	var interaction interactionPayload
	if err := json.Unmarshal(payload, &interaction); err != nil || len(interaction.Actions) == 0 {
		logger.Warningf("[%s] malformed block_actions payload", reqID)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	actionID := interaction.Actions[0].ActionID
	stagingTS := interaction.Message.TS
	logger.Infof("[%s] interaction %s on staging message %s", reqID, actionID, stagingTS)

	var approved bool
	switch actionID {
	case slack.ActionApprove:
		approved = true
	case slack.ActionDisapprove:
		approved = false
	case slack.ActionOpen:
		// URL buttons still deliver a payload; acknowledge and move on.
		w.WriteHeader(http.StatusOK)
		return
	default:
		logger.Warningf("[%s] unknown action id %q", reqID, actionID)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := h.workflow.View(stagingTS, approved); err != nil {
		incrementCounter(&totalErrors)
		logger.Errorf("[%s] moderation of %s failed: %v", reqID, stagingTS, err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	if approved {
		incrementCounter(&totalPublished)
	} else {
		incrementCounter(&totalRejected)
	}
	w.WriteHeader(http.StatusOK)
}
