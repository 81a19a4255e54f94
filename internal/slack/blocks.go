package slack

import "fmt"

// Action IDs routed by the interaction handler.
const (
	ActionApprove    = "confession_approve"
	ActionDisapprove = "confession_disapprove"
	ActionOpen       = "confession_open"
)

// Block is a Block Kit layout block. Only the fields this bot uses are
// modeled.
type Block struct {
	Type     string      `json:"type"`
	Text     *TextObject `json:"text,omitempty"`
	Elements []Button    `json:"elements,omitempty"`
}

// TextObject is a Block Kit text composition object.
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Button is a Block Kit button element.
type Button struct {
	Type     string      `json:"type"`
	Text     *TextObject `json:"text"`
	ActionID string      `json:"action_id"`
	Value    string      `json:"value,omitempty"`
	URL      string      `json:"url,omitempty"`
	Style    string      `json:"style,omitempty"`
}

func mrkdwn(text string) *TextObject {
	return &TextObject{Type: "mrkdwn", Text: text}
}

func plain(text string) *TextObject {
	return &TextObject{Type: "plain_text", Text: text, Emoji: true}
}

func button(label, actionID, value, style string) Button {
	return Button{Type: "button", Text: plain(label), ActionID: actionID, Value: value, Style: style}
}

// StagingBlocks builds the moderation message for a pending confession:
// the record id and text, with approve / disapprove / open buttons.
// recordURL may be empty, in which case the open button is omitted.
func StagingBlocks(id uint, text, recordURL string) []Block {
	value := fmt.Sprintf("%d", id)

	buttons := []Button{
		button("Approve", ActionApprove, value, "primary"),
		button("Disapprove", ActionDisapprove, value, "danger"),
	}
	if recordURL != "" {
		open := Button{Type: "button", Text: plain("Open in browser"), ActionID: ActionOpen, URL: recordURL}
		buttons = append(buttons, open)
	}

	return []Block{
		{Type: "section", Text: mrkdwn(fmt.Sprintf("*#%d*\n%s", id, text))},
		{Type: "actions", Elements: buttons},
	}
}

// PublicText formats an approved confession for the public channel. The
// submitter identity never appears here.
func PublicText(id uint, text string) string {
	return fmt.Sprintf("*%d*: %s", id, text)
}
