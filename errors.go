// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import "fmt"

// TransportError wraps a failure from the underlying transport (socket or
// HTTP). It is surfaced to the caller of the operation that triggered the
// I/O. A receive failure on the active transport tears the session down; a
// send failure is only returned to the caller and does not tear it down.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cdpsession: transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a browser-reported error reply. It carries the CDP error
// code, message, and optional data, each joined by newlines in Error().
type ProtocolError struct {
	Code    int64
	Message string
	Data    string
}

func (e *ProtocolError) Error() string {
	msg := e.Message
	if e.Data != "" {
		msg += "\n" + e.Data
	}
	if e.Code != 0 {
		msg += fmt.Sprintf("\n%d", e.Code)
	}
	return msg
}

// SerializationError means an outbound request could not be built into
// JSON. The session remains open; only the caller's request is affected.
type SerializationError struct {
	Method string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cdpsession: failed to serialize request %s: %v", e.Method, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// NotFoundError is returned by Connect when a tab selector matches nothing.
type NotFoundError struct {
	Selector string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cdpsession: no tab matched selector %s", e.Selector)
}

// MissingWebSocketURLError is returned by Connect when the selected tab has
// no webSocketDebuggerUrl to dial.
type MissingWebSocketURLError struct {
	TabID string
}

func (e *MissingWebSocketURLError) Error() string {
	return fmt.Sprintf("cdpsession: tab %s has no webSocketDebuggerUrl", e.TabID)
}

// MalformedEndpointError is returned by Connect when an explicit endpoint
// URL's final path segment cannot be parsed as a tab id. spec.md leaves open
// whether this should be recoverable; this module always returns it as a
// normal error rather than panicking.
type MalformedEndpointError struct {
	Endpoint string
}

func (e *MalformedEndpointError) Error() string {
	return fmt.Sprintf("cdpsession: cannot derive tab id from endpoint %q", e.Endpoint)
}

// DisconnectedError is delivered to every pending future drained by Close or
// by transport loss.
type DisconnectedError struct{}

func (e *DisconnectedError) Error() string { return "cdpsession: session disconnected" }

// NotConnectedError is returned by operations issued outside the Connected
// state.
type NotConnectedError struct {
	State State
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("cdpsession: not connected (state=%s)", e.State)
}
