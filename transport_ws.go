// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// zeroTime clears a previously set read/write deadline.
var zeroTime time.Time

// wsTransport is the default Transport, a text-frame WebSocket client
// connection to a browser's per-tab debugger endpoint. It supersedes the
// teacher's hand-rolled dialWebSocket/readFrame/writeFrame (cdp_client.go),
// which implemented the RFC 6455 framing and masking gobwas/ws already gives
// us, and which chromedp itself depends on for the same purpose.
type wsTransport struct {
	conn net.Conn

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// dialWebSocket opens a client WebSocket connection to endpoint (a
// ws://host/path or wss://host/path URL).
func dialWebSocket(ctx context.Context, endpoint string) (*wsTransport, error) {
	conn, _, _, err := ws.Dial(ctx, endpoint)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	return &wsTransport{conn: conn}, nil
}

// Send writes a single text frame containing frame.
func (t *wsTransport) Send(ctx context.Context, frame []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	} else {
		_ = t.conn.SetWriteDeadline(zeroTime)
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := wsutil.WriteClientText(t.conn, frame); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

// Receive blocks for the next text frame, masking/fragmentation handled by
// wsutil.ReadServerText.
func (t *wsTransport) Receive(ctx context.Context) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetReadDeadline(deadline)
	} else {
		_ = t.conn.SetReadDeadline(zeroTime)
	}
	data, err := wsutil.ReadServerText(t.conn)
	if err != nil {
		if err == io.EOF {
			return nil, &TransportError{Op: "receive", Err: io.EOF}
		}
		return nil, &TransportError{Op: "receive", Err: err}
	}
	return data, nil
}

// Close closes the underlying connection. Safe to call more than once.
func (t *wsTransport) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}
