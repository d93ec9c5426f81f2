// Package transport defines the boundary to the embedded browser panel.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotReady is returned by Send before the frontend signalled readiness.
	ErrNotReady = errors.New("transport: frontend not ready")
	// ErrUnavailable is returned once the panel can no longer be used.
	ErrUnavailable = errors.New("transport: adapter unavailable")
)

// Adapter is implemented by the host's browser-embedding facility.
type Adapter interface {
	// Open ensures the panel exists and is visible. It is idempotent.
	Open() error
	// Load navigates the panel to url.
	Load(url string) error
	// Send delivers a JSON payload to the frontend.
	Send(payload string) error
	// Hide hides the panel. It must eventually trigger Listener.OnClosed.
	Hide() error
	Close() error
	SetListener(l Listener)
}

// Listener receives panel callbacks. Implementations must not block.
type Listener interface {
	OnMessageReceived(raw string)
	OnReady()
	OnClosed()
	OnUnavailable(err error)
}

// Custom DOM event names the frontend listens on.
const (
	EventAuthRequest   = "unityAuthRequest"
	EventWalletRequest = "unityWalletRequest"
	EventRequest       = "unityRequest"
)

// EventTypeFor picks the DOM event for an outbound payload from its "type" key.
func EventTypeFor(payload string) string {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(payload), &head); err != nil {
		return EventRequest
	}
	switch strings.ToLower(head.Type) {
	case "auth":
		return EventAuthRequest
	case "wallet":
		return EventWalletRequest
	}
	return EventRequest
}

// DispatchScript is the snippet script-evaluating adapters run to deliver payload.
func DispatchScript(payload string) string {
	// payload is JSON, so it is a valid JS object literal
	return fmt.Sprintf("window.dispatchEvent(new CustomEvent(%q, { detail: %s }));", EventTypeFor(payload), payload)
}
