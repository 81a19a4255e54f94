package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"slack-confessions/internal/logger"
)

const (
	// The maximum shift/delay that we allow between an inbound request's
	// timestamp and our current timestamp, to defend against replay
	// attacks. See https://docs.slack.dev/authentication/verifying-requests-from-slack.
	maxTimestampSkew = 5 * time.Minute

	// Slack API implementation detail.
	sigVersion = "v0"
)

// Verifier decides whether an inbound request genuinely originates from
// Slack, per the v0 request-signing scheme. It is a pure decision
// function; the only side effect is diagnostic logging.
type Verifier struct {
	signingSecret string

	// now is replaceable in tests.
	now func() time.Time
}

// NewVerifier creates a Verifier for the given signing secret.
func NewVerifier(signingSecret string) *Verifier {
	return &Verifier{signingSecret: signingSecret, now: time.Now}
}

// Verify reports whether signature is a valid v0 signature over body at
// the claimed timestamp. A missing, non-numeric, or stale timestamp
// rejects regardless of the signature.
func (v *Verifier) Verify(body []byte, timestamp, signature string) bool {
	if timestamp == "" {
		logger.Warningf("signature check: missing timestamp header")
		return false
	}
	secs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		logger.Warningf("signature check: invalid timestamp header: %s", timestamp)
		return false
	}
	if d := v.now().Sub(time.Unix(secs, 0)); d.Abs() > maxTimestampSkew {
		logger.Warningf("signature check: stale timestamp, difference %v", d)
		return false
	}

	if signature == "" {
		logger.Warningf("signature check: missing signature header")
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.signingSecret))
	fmt.Fprintf(mac, "%s:%s:", sigVersion, timestamp)
	mac.Write(body)
	want := fmt.Sprintf("%s=%s", sigVersion, hex.EncodeToString(mac.Sum(nil)))

	if !hmac.Equal([]byte(want), []byte(signature)) {
		logger.Warningf("signature check: verification failed")
		return false
	}
	return true
}
