// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"context"
	"time"
)

// Transport is the pluggable I/O boundary the session controller dispatches
// over. The core never touches a socket directly; it only ever Sends and
// Receives whole frames (spec.md §4.A).
type Transport interface {
	// Send enqueues frame for delivery and returns once it has been
	// handed to the outbound buffer (back-pressure, not acknowledgement).
	Send(ctx context.Context, frame []byte) error

	// Receive blocks for the next inbound frame, or returns an error
	// (including io.EOF-like closure signals) when no more will arrive.
	Receive(ctx context.Context) ([]byte, error)

	// Close releases the transport's resources. Safe to call more than
	// once.
	Close() error
}

// Sleep is the timer primitive of spec.md §4.A / §6, usable independently
// of any particular transport or session.
func Sleep(ctx context.Context, d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, nil
	}
	start := time.Now()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return time.Since(start), ctx.Err()
	case <-timer.C:
		return time.Since(start), nil
	}
}
