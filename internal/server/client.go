package server

import (
	"net/http"
	"time"
)

// NewHTTPClient creates the client used for Library API and token requests.
// The photos client imposes no timeout of its own, so it is set here.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
	}
}
