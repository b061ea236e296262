// Copyright 2026 - Giacomo Failla <failla.giacomo@gmail.com>
// MIT License. See LICENSE file for details.

package cdpsession

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func connectedSession(t *testing.T) (*Session, *fakeTransport) {
	t.Helper()
	transport := newFakeTransport()
	s := NewSession()
	if err := s.Connect(context.Background(), WithTransport(transport)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, transport
}

// Scenario 1: eval round-trip.
func TestSessionSendRequestRoundTrip(t *testing.T) {
	s, transport := connectedSession(t)

	resultCh := make(chan struct {
		result json.RawMessage
		err    error
	}, 1)
	go func() {
		result, err := s.SendRequest(context.Background(), "Runtime.evaluate",
			map[string]any{"expression": "1+2", "returnByValue": true})
		resultCh <- struct {
			result json.RawMessage
			err    error
		}{json.RawMessage(result), err}
	}()

	waitForOutbound(t, transport, 1)
	transport.push([]byte(`{"id":1,"result":{"result":{"type":"number","value":3}}}`))

	got := <-resultCh
	if got.err != nil {
		t.Fatalf("unexpected error: %v", got.err)
	}
	if string(got.result) != `{"result":{"type":"number","value":3}}` {
		t.Fatalf("unexpected result: %s", got.result)
	}
}

// Scenario 2: error reply.
func TestSessionSendRequestProtocolError(t *testing.T) {
	s, transport := connectedSession(t)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.SendRequest(context.Background(), "Whatever.call", nil)
		errCh <- err
	}()

	waitForOutbound(t, transport, 1)
	transport.push([]byte(`{"id":1,"error":{"code":-32000,"message":"Oops","data":"ctx"}}`))

	err := <-errCh
	perr, ok := err.(*ProtocolError)
	if !ok {
		t.Fatalf("expected *ProtocolError, got %T (%v)", err, err)
	}
	if !containsAll(perr.Error(), "Oops", "ctx", "-32000") {
		t.Fatalf("unexpected protocol error message: %s", perr.Error())
	}
}

// Scenario 3: one-shot event.
func TestSessionOnceAnyResolvesOnce(t *testing.T) {
	s, transport := connectedSession(t)

	future := s.OnceAny("Page.loadEventFired")
	transport.push([]byte(`{"method":"Page.loadEventFired","params":{"timestamp":1.5}}`))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	event, params, err := future.Wait(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event != "Page.loadEventFired" {
		t.Fatalf("unexpected event: %s", event)
	}
	if string(params) != `{"timestamp":1.5}` {
		t.Fatalf("unexpected params: %s", params)
	}

	// A second identical event must not resolve the waiter again.
	transport.push([]byte(`{"method":"Page.loadEventFired","params":{"timestamp":2.5}}`))
	time.Sleep(20 * time.Millisecond)
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	if _, _, err := future.Wait(ctx2); err == nil {
		t.Fatalf("the resolved waiter must not observe a second event")
	}
}

// Scenario 4: fan-out to two persistent subscribers.
func TestSessionSubscribeFanOut(t *testing.T) {
	s, transport := connectedSession(t)

	var calls []int
	done := make(chan struct{}, 2)
	s.Subscribe("Network.requestWillBeSent", func(json.RawMessage) {
		calls = append(calls, 1)
		done <- struct{}{}
	})
	s.Subscribe("Network.requestWillBeSent", func(json.RawMessage) {
		calls = append(calls, 2)
		done <- struct{}{}
	})

	transport.push([]byte(`{"method":"Network.requestWillBeSent","params":{}}`))
	<-done
	<-done

	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Fatalf("expected both callbacks invoked in subscription order, got %v", calls)
	}
}

// Scenario 5: close drains outstanding requests.
func TestSessionCloseDrainsPendingRequests(t *testing.T) {
	s, transport := connectedSession(t)

	err1 := make(chan error, 1)
	err2 := make(chan error, 1)
	go func() {
		_, err := s.SendRequest(context.Background(), "A", nil)
		err1 <- err
	}()
	go func() {
		_, err := s.SendRequest(context.Background(), "B", nil)
		err2 <- err
	}()

	waitForOutbound(t, transport, 2)
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error from Close: %v", err)
	}

	for _, ch := range []chan error{err1, err2} {
		select {
		case err := <-ch:
			if _, ok := err.(*DisconnectedError); !ok {
				t.Fatalf("expected *DisconnectedError, got %T (%v)", err, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for pending request to be drained")
		}
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s, _ := connectedSession(t)
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("a second Close must also succeed: %v", err)
	}
}

func TestSessionSendRequestNotConnected(t *testing.T) {
	s := NewSession()
	_, err := s.SendRequest(context.Background(), "Page.enable", nil)
	nce, ok := err.(*NotConnectedError)
	if !ok {
		t.Fatalf("expected *NotConnectedError, got %T (%v)", err, err)
	}
	if nce.State != Idle {
		t.Fatalf("expected Idle state, got %s", nce.State)
	}
}

func TestSessionMalformedEndpoint(t *testing.T) {
	s := NewSession()
	err := s.Connect(context.Background(), WithEndpoint("ws://127.0.0.1:9222/"))
	if _, ok := err.(*MalformedEndpointError); !ok {
		t.Fatalf("expected *MalformedEndpointError, got %T (%v)", err, err)
	}
	if s.State() != Idle {
		t.Fatalf("a failed Connect must leave the session Idle, got %s", s.State())
	}
}

// waitForOutbound polls until the fake transport has recorded n sent
// frames, or fails the test after a short timeout. The dispatch loop and
// SendRequest's send both happen on goroutines distinct from the test, so a
// fixed-size poll avoids a race on when the frame lands.
func waitForOutbound(t *testing.T, transport *fakeTransport, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(transport.sent()) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d outbound frame(s)", n)
}
