package reddit

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// maxErrorBody bounds how much of a response body an error message quotes.
const maxErrorBody = 200

// ErrForbidden reports that the forum refused access (private, quarantined or
// banned communities). Collection treats it as the end of that forum's data.
var ErrForbidden = errors.New("reddit: access forbidden")

// StatusError is returned for any non-2xx listing response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	return fmt.Sprintf("reddit: GET %s returned %d: %s", e.URL, e.StatusCode, body)
}

// Unwrap exposes ErrForbidden for 403 responses so callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusForbidden {
		return ErrForbidden
	}
	return nil
}
