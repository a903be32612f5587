package photos

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the Library API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("media item request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("media item request failed with status %d: %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether err is a 401 from the Library API.
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized
}
