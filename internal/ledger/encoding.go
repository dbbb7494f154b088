package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EmailEncoding selects how the optional email field of an account creation
// request is serialized.
type EmailEncoding int

const (
	// EncodingEnvelope sends email as {"String": "...", "Valid": true}.
	EncodingEnvelope EmailEncoding = iota + 1
	// EncodingPlain sends email as a bare JSON string.
	EncodingPlain
)

func (e EmailEncoding) String() string {
	switch e {
	case EncodingEnvelope:
		return "envelope"
	case EncodingPlain:
		return "plain"
	default:
		return "unknown"
	}
}

func (e EmailEncoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// ParseEmailEncoding maps a name back to its encoding.
func ParseEmailEncoding(s string) (EmailEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "envelope":
		return EncodingEnvelope, nil
	case "plain":
		return EncodingPlain, nil
	default:
		return 0, fmt.Errorf("unknown email encoding %q", s)
	}
}

// NullString is the nullable string envelope used by one server
// implementation. Valid=true marks a present value.
type NullString struct {
	String string `json:"String"`
	Valid  bool   `json:"Valid"`
}

// EnvelopeAccountRequest is the create-account body with an enveloped email.
type EnvelopeAccountRequest struct {
	Username string     `json:"username"`
	Email    NullString `json:"email"`
}

// PlainAccountRequest is the create-account body with a bare string email.
type PlainAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// EncodeAccountRequest renders the create-account body for the given encoding.
func EncodeAccountRequest(username, email string, enc EmailEncoding) ([]byte, error) {
	var payload interface{}
	switch enc {
	case EncodingEnvelope:
		payload = EnvelopeAccountRequest{
			Username: username,
			Email:    NullString{String: email, Valid: true},
		}
	case EncodingPlain:
		payload = PlainAccountRequest{Username: username, Email: email}
	default:
		return nil, fmt.Errorf("unsupported email encoding %d", int(enc))
	}
	return json.Marshal(payload)
}
