package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"workflow_portal_backend/platform/apperr"
)

// callbackEnvelope is the wire shape of a session-change callback from the
// hosted auth service.
type callbackEnvelope struct {
	Type    string `json:"type"`
	UserID  string `json:"user_id"`
	Session *struct {
		AccessToken string `json:"access_token"`
	} `json:"session"`
}

// VerifyCallbackSignature checks the HMAC-SHA256 signature the auth service
// attaches to session-change callbacks.
func VerifyCallbackSignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseCallback decodes a session-change callback body into an Event. The
// embedded access token is re-verified locally; a callback carrying a token
// this backend cannot verify is rejected rather than trusted.
func ParseCallback(body []byte, jwtSecret string) (Event, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Event{}, apperr.Wrap(apperr.KindBadRequest, "malformed session callback", err)
	}

	eventType := EventType(envelope.Type)
	switch eventType {
	case EventSignedIn, EventSignedOut, EventTokenRefreshed:
	default:
		return Event{}, apperr.BadRequest("unknown session event type")
	}

	if eventType == EventSignedOut {
		userID, err := parseUserUUID(envelope.UserID)
		if err != nil {
			return Event{}, apperr.BadRequest("sign-out event carries no user id")
		}
		return Event{Type: EventSignedOut, UserID: userID}, nil
	}

	if envelope.Session == nil || envelope.Session.AccessToken == "" {
		return Event{}, apperr.BadRequest("session event is missing its session")
	}

	sess, err := ParseAccessToken(envelope.Session.AccessToken, jwtSecret)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, UserID: sess.User.ID, Session: sess}, nil
}
