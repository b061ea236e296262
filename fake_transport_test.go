// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"context"
	"sync"
)

// fakeTransport is an in-memory Transport standing in for a real browser
// connection: Receive drains an inbound queue the test feeds, Send appends
// to a recorded outbound log the test inspects.
type fakeTransport struct {
	mu       sync.Mutex
	inbound  chan []byte
	outbound [][]byte
	closed   bool
	closeErr chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound:  make(chan []byte, 64),
		closeErr: make(chan struct{}),
	}
}

func (t *fakeTransport) Send(ctx context.Context, frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]byte, len(frame))
	copy(cp, frame)
	t.outbound = append(t.outbound, cp)
	return nil
}

func (t *fakeTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-t.inbound:
		if !ok {
			return nil, &TransportError{Op: "receive", Err: errClosed}
		}
		return frame, nil
	case <-t.closeErr:
		return nil, &TransportError{Op: "receive", Err: errClosed}
	}
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.closeErr)
	return nil
}

// push enqueues a server-to-client frame for the dispatch loop to consume.
func (t *fakeTransport) push(frame []byte) {
	t.inbound <- frame
}

func (t *fakeTransport) sent() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.outbound))
	copy(out, t.outbound)
	return out
}

var errClosed = fakeClosedError{}

type fakeClosedError struct{}

func (fakeClosedError) Error() string { return "fake transport closed" }
