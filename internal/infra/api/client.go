// Package api holds the HTTP clients for the storefront backend. Every
// client maps transport and status failures onto the domain error taxonomy
// at this boundary; nothing above it sees a raw HTTP error.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

// serverMessage is the backend's error envelope: {"success": false, "message": ...}.
type serverMessage struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// readMessage extracts the server's message from an error response body.
// Bodies that are not the expected envelope yield the empty string.
func readMessage(body io.Reader) string {
	var msg serverMessage
	if err := json.NewDecoder(body).Decode(&msg); err != nil {
		return ""
	}
	return msg.Message
}

func newRequestID() string {
	return uuid.NewString()
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
