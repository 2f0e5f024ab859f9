package utils

import (
	"net/http"
	"time"
)

// HTTPClient is the shared client for upstream price APIs.
var HTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}
