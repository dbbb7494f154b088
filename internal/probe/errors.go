package probe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/torosent/ledgerprobe/internal/ledger"
)

var (
	ErrHealthCheckFailed     = errors.New("health check failed")
	ErrAccountCreationFailed = errors.New("account creation failed")
)

// HealthCheckFailedError reports a /health probe that did not return 200.
// StatusCode is 0 when no response was received.
type HealthCheckFailedError struct {
	StatusCode int
	Body       string
	Failures   []string
	Err        error
}

func (e *HealthCheckFailedError) Error() string {
	var b strings.Builder
	b.WriteString(ErrHealthCheckFailed.Error())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Failures) > 0 {
		fmt.Fprintf(&b, " (failing: %s)", strings.Join(e.Failures, ", "))
	} else if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

func (e *HealthCheckFailedError) Is(target error) bool {
	return target == ErrHealthCheckFailed
}

func (e *HealthCheckFailedError) Unwrap() error {
	return e.Err
}

// Attempt records one create-account request.
type Attempt struct {
	Encoding   ledger.EmailEncoding
	StatusCode int
	Body       string
	Err        error
}

// AccountCreationFailedError is returned when no encoding was accepted.
type AccountCreationFailedError struct {
	Username string
	Email    string
	Attempts []Attempt
}

// Last returns the final attempt, which carries the surfaced status and body.
func (e *AccountCreationFailedError) Last() Attempt {
	if len(e.Attempts) == 0 {
		return Attempt{}
	}
	return e.Attempts[len(e.Attempts)-1]
}

func (e *AccountCreationFailedError) Error() string {
	last := e.Last()
	msg := fmt.Sprintf("%s for %q after %d attempt(s)", ErrAccountCreationFailed, e.Username, len(e.Attempts))
	switch {
	case last.StatusCode != 0:
		msg += fmt.Sprintf(": last status %d", last.StatusCode)
		if last.Body != "" {
			msg += ": " + last.Body
		}
	case last.Err != nil:
		msg += fmt.Sprintf(": %v", last.Err)
	}
	return msg
}

func (e *AccountCreationFailedError) Is(target error) bool {
	return target == ErrAccountCreationFailed
}

// Unwrap exposes the last attempt's error.
func (e *AccountCreationFailedError) Unwrap() error {
	return e.Last().Err
}
